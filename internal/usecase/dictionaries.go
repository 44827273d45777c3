package usecase

// DictionaryEntry maps a display label to the lowercase aliases that identify it in a name.
type DictionaryEntry struct {
	Label   string   `mapstructure:"label" json:"label"`
	Aliases []string `mapstructure:"aliases" json:"aliases"`
}

// Dictionaries holds the static grocery tables used for term extraction and category scoring.
// Entries are ordered so extraction output is deterministic.
type Dictionaries struct {
	Brands            []DictionaryEntry `mapstructure:"brands"`
	Categories        []DictionaryEntry `mapstructure:"categories"`
	Features          []DictionaryEntry `mapstructure:"features"`
	RelatedCategories []DictionaryEntry `mapstructure:"related_categories"`
	StopWords         []string          `mapstructure:"stop_words"`
}

// frozenEntry is a DictionaryEntry with aliases already passed through NormalizeName.
type frozenEntry struct {
	label   string
	aliases []string
}

// frozenDictionaries is the read-only form shared by the engine components.
// Nothing writes to it after freeze returns, so concurrent reads need no locking.
type frozenDictionaries struct {
	brands     []frozenEntry
	categories []frozenEntry
	features   []frozenEntry
	// relatedClusters holds, per cluster, the normalized label plus all members.
	relatedClusters []map[string]bool
	stopWords       map[string]bool
}

func (d Dictionaries) freeze(n *Normalizer) *frozenDictionaries {
	fd := &frozenDictionaries{
		brands:     freezeEntries(d.Brands, n),
		categories: freezeEntries(d.Categories, n),
		features:   freezeEntries(d.Features, n),
		stopWords:  make(map[string]bool, len(d.StopWords)),
	}

	for _, entry := range d.RelatedCategories {
		cluster := map[string]bool{n.NormalizeName(entry.Label): true}
		for _, alias := range entry.Aliases {
			if a := n.NormalizeName(alias); a != "" {
				cluster[a] = true
			}
		}
		fd.relatedClusters = append(fd.relatedClusters, cluster)
	}

	for _, w := range d.StopWords {
		if w = n.NormalizeName(w); w != "" {
			fd.stopWords[w] = true
		}
	}

	return fd
}

func freezeEntries(entries []DictionaryEntry, n *Normalizer) []frozenEntry {
	out := make([]frozenEntry, 0, len(entries))
	for _, entry := range entries {
		fe := frozenEntry{label: entry.Label}
		seen := make(map[string]bool, len(entry.Aliases))
		for _, alias := range entry.Aliases {
			a := n.NormalizeName(alias)
			if a == "" || seen[a] {
				continue
			}
			seen[a] = true
			fe.aliases = append(fe.aliases, a)
		}
		out = append(out, fe)
	}
	return out
}

// DefaultDictionaries returns the built-in Portuguese grocery tables.
func DefaultDictionaries() Dictionaries {
	return Dictionaries{
		Brands: []DictionaryEntry{
			{Label: "Nestlé", Aliases: []string{"nestlé", "nescafé", "nesquik", "maggi", "kitkat", "smarties"}},
			{Label: "Danone", Aliases: []string{"danone", "activia", "danoninho", "danette", "danacol"}},
			{Label: "Continente", Aliases: []string{"continente", "mimosa", "agros", "compal"}},
			{Label: "Pingo Doce", Aliases: []string{"pingo doce"}},
			{Label: "Lidl", Aliases: []string{"lidl", "milbona", "belbios", "belvita"}},
			{Label: "Auchan", Aliases: []string{"auchan", "galo", "sagres", "super bock"}},
			{Label: "Coca-Cola", Aliases: []string{"coca cola", "coca-cola", "fanta", "sprite", "schweppes"}},
			{Label: "Pepsi", Aliases: []string{"pepsi", "pepsi cola", "7up", "mountain dew"}},
		},
		Categories: []DictionaryEntry{
			{Label: "Laticínios", Aliases: []string{"leite", "queijo", "iogurte", "manteiga", "creme", "nata", "requeijão", "ricota", "mozzarella"}},
			{Label: "Carnes", Aliases: []string{"frango", "carne", "peixe", "fiambre", "salsicha", "bacon", "presunto", "salame", "chouriço"}},
			{Label: "Frutas", Aliases: []string{"maçã", "banana", "laranja", "uva", "morango", "kiwi", "manga", "abacaxi", "limão"}},
			{Label: "Legumes", Aliases: []string{"tomate", "cebola", "alho", "batata", "cenoura", "alface", "couve", "brócolos", "espinafre"}},
			{Label: "Cereais", Aliases: []string{"pão", "cereais", "massas", "arroz", "aveia", "trigo", "milho", "cevada", "quinoa"}},
			{Label: "Bebidas", Aliases: []string{"água", "sumo", "refrigerante", "cerveja", "vinho", "café", "chá"}},
			{Label: "Doces", Aliases: []string{"chocolate", "bolo", "biscoito", "goma", "caramelo", "açúcar", "mel", "geleia", "marmelada"}},
		},
		Features: []DictionaryEntry{
			{Label: "Orgânico", Aliases: []string{"orgânico", "biológico", "bio", "natural", "ecológico"}},
			{Label: "Sem Lactose", Aliases: []string{"sem lactose", "lactose free", "zero lactose"}},
			{Label: "Sem Glúten", Aliases: []string{"sem glúten", "gluten free", "zero glúten"}},
			{Label: "Light", Aliases: []string{"light", "diet", "baixo", "reduzido"}},
			{Label: "Integral", Aliases: []string{"integral", "whole", "completo", "fibra"}},
			{Label: "Fresco", Aliases: []string{"fresco", "recém"}},
			{Label: "Congelado", Aliases: []string{"congelado", "frozen", "gelado"}},
			{Label: "Premium", Aliases: []string{"premium", "seleção", "especial", "gourmet"}},
		},
		RelatedCategories: []DictionaryEntry{
			{Label: "laticínios", Aliases: []string{"leite", "queijo", "iogurte", "manteiga"}},
			{Label: "carnes", Aliases: []string{"frango", "carne", "peixe", "fiambre"}},
			{Label: "frutas", Aliases: []string{"fruta", "legumes", "vegetais"}},
			{Label: "cereais", Aliases: []string{"pão", "massas", "arroz"}},
		},
		StopWords: []string{
			"o", "a", "os", "as", "de", "da", "do", "das", "dos", "em", "na", "no", "nas", "nos",
			"para", "com", "por", "sem", "sobre", "entre", "até", "desde", "durante", "mediante",
			"conforme", "segundo", "consoante", "salvo", "exceto", "menos", "fora", "além",
		},
	}
}
