package config

import (
	"fmt"

	"github.com/grocerymatch/backend/internal/usecase"
	"github.com/spf13/viper"
)

// LoadDictionaries reads brand, category, feature, related-category and stop-word tables from
// a YAML file. An empty path yields the built-in tables, and so does any section the file
// leaves out. Entries are lists of {label, aliases} because viper folds map keys to lower case.
func LoadDictionaries(path string) (usecase.Dictionaries, error) {
	defaults := usecase.DefaultDictionaries()
	if path == "" {
		return defaults, nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return usecase.Dictionaries{}, fmt.Errorf("error reading dictionary file %s: %w", path, err)
	}

	var loaded usecase.Dictionaries
	if err := v.Unmarshal(&loaded); err != nil {
		return usecase.Dictionaries{}, fmt.Errorf("unable to decode dictionary file %s: %w", path, err)
	}

	if len(loaded.Brands) == 0 {
		loaded.Brands = defaults.Brands
	}
	if len(loaded.Categories) == 0 {
		loaded.Categories = defaults.Categories
	}
	if len(loaded.Features) == 0 {
		loaded.Features = defaults.Features
	}
	if len(loaded.RelatedCategories) == 0 {
		loaded.RelatedCategories = defaults.RelatedCategories
	}
	if len(loaded.StopWords) == 0 {
		loaded.StopWords = defaults.StopWords
	}

	for _, section := range [][]usecase.DictionaryEntry{loaded.Brands, loaded.Categories, loaded.Features, loaded.RelatedCategories} {
		for _, entry := range section {
			if entry.Label == "" {
				return usecase.Dictionaries{}, fmt.Errorf("dictionary file %s: entry with aliases %v has no label", path, entry.Aliases)
			}
		}
	}

	return loaded, nil
}
