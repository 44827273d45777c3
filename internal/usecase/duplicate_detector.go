package usecase

import (
	"context"
	"fmt"
	"runtime"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/grocerymatch/backend/internal/domain"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const defaultMergeThreshold = 0.78

// Quality score points
const (
	qualityNameCap     = 20
	qualityCategory    = 10
	qualityPrice       = 15
	qualityRecentBonus = 5
	qualityRecentDays  = 7
)

// Representative tie-break tuning
const (
	recencyWindowDays      = 30.0
	reliabilityBase        = 0.5
	reliabilityPrice       = 0.2
	reliabilityBrand       = 0.2
	reliabilityDescription = 0.1
)

// DetectorConfig holds configuration for the duplicate detector
type DetectorConfig struct {
	MergeThreshold float64 // Minimum seed-to-candidate score to join a group
	Workers        int     // Goroutines scoring pairs; 0 means GOMAXPROCS
	Logger         *zerolog.Logger
	Now            func() time.Time
}

// DuplicateDetector partitions product lists into groups of listings for the same product.
type DuplicateDetector struct {
	matcher        *MatchingService
	mergeThreshold float64
	workers        int
	logger         zerolog.Logger
	now            func() time.Time
}

// NewDuplicateDetector creates a detector that scores pairs with the given matcher.
func NewDuplicateDetector(matcher *MatchingService, config DetectorConfig) *DuplicateDetector {
	threshold := config.MergeThreshold
	if threshold <= 0 {
		threshold = defaultMergeThreshold
	}

	workers := config.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	logger := zerolog.Nop()
	if config.Logger != nil {
		logger = config.Logger.With().Str("component", "dedup").Logger()
	}

	now := config.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}

	return &DuplicateDetector{
		matcher:        matcher,
		mergeThreshold: threshold,
		workers:        workers,
		logger:         logger,
		now:            now,
	}
}

// indexGroup is a duplicate group expressed as positions in the input slice.
type indexGroup struct {
	members    []int // seed first, then joiners in input order
	best       int
	confidence float64
	reasons    []string
}

// DetectDuplicates groups listings that score at or above the merge threshold against a seed.
//
// Each not-yet-grouped product, left to right, seeds a group and pulls in every later
// ungrouped product scoring at or above the threshold against that seed. Members are never
// compared with each other, so a chain a~b~c where a and c are dissimilar may end up split.
// Only groups with two or more products are returned.
func (d *DuplicateDetector) DetectDuplicates(ctx context.Context, products []domain.Product) ([]domain.DuplicateGroup, error) {
	groups, err := d.detect(ctx, products)
	if err != nil {
		return nil, err
	}

	result := make([]domain.DuplicateGroup, 0, len(groups))
	for _, g := range groups {
		group := domain.DuplicateGroup{
			ID:          uuid.NewString(),
			Products:    make([]domain.Product, 0, len(g.members)),
			BestProduct: products[g.best],
			Confidence:  g.confidence,
			Reasons:     g.reasons,
		}
		for _, idx := range g.members {
			group.Products = append(group.Products, products[idx])
		}
		result = append(result, group)
	}

	return result, nil
}

func (d *DuplicateDetector) detect(ctx context.Context, products []domain.Product) ([]indexGroup, error) {
	n := len(products)
	start := time.Now()

	profiles := make([]productProfile, n)
	for i, p := range products {
		profiles[i] = d.matcher.profile(p)
	}

	scores, err := d.scoreMatrix(ctx, profiles)
	if err != nil {
		return nil, err
	}

	processed := make([]bool, n)
	var groups []indexGroup

	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if processed[i] {
			continue
		}

		group := indexGroup{members: []int{i}, best: i, confidence: 1.0}
		seen := make(map[string]bool)

		for j := i + 1; j < n; j++ {
			if processed[j] {
				continue
			}
			score := scores[i][j-i-1]
			if score < d.mergeThreshold {
				continue
			}

			group.members = append(group.members, j)
			processed[j] = true

			if d.qualityScore(products[j]) > d.qualityScore(products[group.best]) {
				group.best = j
			}
			group.confidence = min(group.confidence, score)

			for _, reason := range d.matcher.matchReasons(profiles[i], profiles[j]) {
				if !seen[reason] {
					seen[reason] = true
					group.reasons = append(group.reasons, reason)
				}
			}
		}

		processed[i] = true
		if len(group.members) > 1 {
			if group.reasons == nil {
				group.reasons = []string{}
			}
			groups = append(groups, group)
		}
	}

	d.logger.Debug().
		Int("products", n).
		Int("groups", len(groups)).
		Dur("elapsed", time.Since(start)).
		Msg("duplicate detection finished")

	return groups, nil
}

// scoreMatrix scores every pair i<j in parallel. Row i holds the scores against i+1..n-1.
func (d *DuplicateDetector) scoreMatrix(ctx context.Context, profiles []productProfile) ([][]float64, error) {
	n := len(profiles)
	scores := make([][]float64, n)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.workers)

	for i := 0; i < n; i++ {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			row := make([]float64, n-i-1)
			for j := i + 1; j < n; j++ {
				row[j-i-1] = d.matcher.scoreProfiles(profiles[i], profiles[j])
			}
			scores[i] = row
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	// errgroup's derived context is cancelled on Wait, so check the caller's directly.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return scores, nil
}

// qualityScore rates how complete a listing is. The category counts twice.
func (d *DuplicateDetector) qualityScore(p domain.Product) int {
	score := 0
	if p.Name != "" {
		score += min(utf8.RuneCountInString(p.Name), qualityNameCap)
	}
	if p.HasCategory() {
		score += 2 * qualityCategory
	}
	if p.AveragePrice.Valid {
		score += qualityPrice
	}
	if p.CreatedAt.After(d.now().AddDate(0, 0, -qualityRecentDays)) {
		score += qualityRecentBonus
	}
	return score
}

// priceRecencyScore decays linearly from 1 to 0 over 30 days since the last price update.
func (d *DuplicateDetector) priceRecencyScore(p domain.Product) float64 {
	if p.LastPriceUpdate == nil {
		return 0
	}
	days := d.now().Sub(*p.LastPriceUpdate).Hours() / 24
	return max(0, 1-days/recencyWindowDays)
}

func reliabilityScore(p domain.Product) float64 {
	score := reliabilityBase
	if p.AveragePrice.Valid {
		score += reliabilityPrice
	}
	if p.Brand != "" {
		score += reliabilityBrand
	}
	if p.Description != "" {
		score += reliabilityDescription
	}
	return min(1.0, score)
}

// better reports whether a should be preferred over b as a group representative.
func (d *DuplicateDetector) better(a, b domain.Product) bool {
	if qa, qb := d.qualityScore(a), d.qualityScore(b); qa != qb {
		return qa > qb
	}
	if ra, rb := d.priceRecencyScore(a), d.priceRecencyScore(b); ra != rb {
		return ra > rb
	}
	if ra, rb := reliabilityScore(a), reliabilityScore(b); ra != rb {
		return ra > rb
	}
	return utf8.RuneCountInString(a.Name) > utf8.RuneCountInString(b.Name)
}

func (d *DuplicateDetector) bestIndex(products []domain.Product, indexes []int) int {
	best := indexes[0]
	for _, idx := range indexes[1:] {
		if d.better(products[idx], products[best]) {
			best = idx
		}
	}
	return best
}

// SelectBestProduct picks the representative of a group: highest quality, then most recent
// price, then most reliable data, then longest name. Remaining ties go to the earliest product.
func (d *DuplicateDetector) SelectBestProduct(products []domain.Product) (domain.Product, error) {
	if len(products) == 0 {
		return domain.Product{}, domain.ErrEmptyGroup
	}

	indexes := make([]int, len(products))
	for i := range indexes {
		indexes[i] = i
	}
	return products[d.bestIndex(products, indexes)], nil
}

// MergeDuplicates replaces each duplicate group by its representative and appends every
// ungrouped product in input order.
func (d *DuplicateDetector) MergeDuplicates(ctx context.Context, products []domain.Product) ([]domain.Product, error) {
	groups, err := d.detect(ctx, products)
	if err != nil {
		return nil, fmt.Errorf("detecting duplicates: %w", err)
	}

	grouped := make([]bool, len(products))
	merged := make([]domain.Product, 0, len(products))

	for _, g := range groups {
		merged = append(merged, products[d.bestIndex(products, g.members)])
		for _, idx := range g.members {
			grouped[idx] = true
		}
	}

	for i, p := range products {
		if !grouped[i] {
			merged = append(merged, p)
		}
	}

	return merged, nil
}

// GenerateDuplicateReport runs detection and summarizes the result.
// Every group contributes all but one of its products to the duplicate count.
func (d *DuplicateDetector) GenerateDuplicateReport(ctx context.Context, products []domain.Product) (domain.DuplicateReport, error) {
	groups, err := d.DetectDuplicates(ctx, products)
	if err != nil {
		return domain.DuplicateReport{}, fmt.Errorf("detecting duplicates: %w", err)
	}

	total := len(products)
	duplicates := 0
	for _, g := range groups {
		duplicates += len(g.Products) - 1
	}

	report := domain.DuplicateReport{
		TotalProducts:     total,
		DuplicateProducts: duplicates,
		UniqueProducts:    total - duplicates,
		DuplicateGroups:   groups,
		GeneratedAt:       d.now(),
	}
	if total > 0 {
		report.DuplicateRate = float64(duplicates) / float64(total)
	}

	return report, nil
}
