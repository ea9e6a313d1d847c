// Package fees computes pupil fee breakdowns. Base fees are computed once per
// group of pupils sharing class, section, academic year and term, cached for a
// fixed TTL, and merged with each pupil's individual charges, discounts and
// payments.
package fees

import (
	"context"
	"log"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/singleflight"

	"trinity-schools/app/models"
)

const (
	// DefaultTTL is how long computed group base fees stay valid.
	DefaultTTL = 30 * time.Minute
	// DefaultSweepInterval is how often background maintenance runs.
	DefaultSweepInterval = 10 * time.Minute
)

var (
	// ErrPupilNotGrouped is returned when fees are requested for a pupil that
	// was not grouped for the term first.
	ErrPupilNotGrouped = errors.New("pupil has not been grouped for this term")
	// ErrAcademicYearNotFound is returned when no academic year owns the term.
	ErrAcademicYearNotFound = errors.New("no academic year contains the term")
)

// BaseFee is one class-wide line item of a group's fee schedule.
type BaseFee struct {
	FeeStructureID string  `json:"fee_structure_id"`
	Name           string  `json:"name"`
	Amount         float64 `json:"amount"`
	Category       string  `json:"category"`
	IsRequired     bool    `json:"is_required"`
}

// CachedGroupFees is the computed base fee schedule of a group.
type CachedGroupFees struct {
	GroupKey      GroupKey  `json:"group_key"`
	BaseFees      []BaseFee `json:"base_fees"`
	TotalBaseFees float64   `json:"total_base_fees"`
	CalculatedAt  time.Time `json:"calculated_at"`
	ExpiresAt     time.Time `json:"expires_at"`
}

func (e *CachedGroupFees) expired(now time.Time) bool {
	return !now.Before(e.ExpiresAt)
}

// CacheStats is a diagnostic view of the cache.
type CacheStats struct {
	TotalGroups        int     `json:"total_groups"`
	TotalPupils        int     `json:"total_pupils"`
	ExpiredGroups      int     `json:"expired_groups"`
	CacheEfficiency    float64 `json:"cache_efficiency"`
	VariableComponents int     `json:"variable_components"`
	Hits               int64   `json:"hits"`
	Misses             int64   `json:"misses"`
	Calculations       int64   `json:"calculations"`
}

// MaintenanceResult reports what a sweep removed.
type MaintenanceResult struct {
	ExpiredGroups  int `json:"expired_groups"`
	OrphanedPupils int `json:"orphaned_pupils"`
}

// Cache holds computed group fees and the pupil to group mapping. It is safe
// for concurrent use; construct one per process and share it.
type Cache struct {
	mu          sync.RWMutex
	groups      map[GroupKey]*CachedGroupFees
	pupilGroups map[pupilTermKey]pupilMapping
	variables   map[pupilTermKey]*PupilVariableComponents

	flight singleflight.Group

	hits         atomic.Int64
	misses       atomic.Int64
	calculations atomic.Int64

	ttl             time.Duration
	sweepInterval   time.Duration
	now             func() time.Time
	resolver        AttributeResolver
	maintenanceOnce sync.Once
}

// Option configures a Cache.
type Option func(*Cache)

// WithTTL sets how long group fees stay valid.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithSweepInterval sets the background maintenance period.
func WithSweepInterval(d time.Duration) Option {
	return func(c *Cache) {
		if d > 0 {
			c.sweepInterval = d
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// WithAttributeResolver makes batch processing group pupils by the class and
// section they had in the requested term rather than their current ones.
func WithAttributeResolver(r AttributeResolver) Option {
	return func(c *Cache) { c.resolver = r }
}

// NewCache creates an empty cache.
func NewCache(opts ...Option) *Cache {
	c := &Cache{
		groups:        make(map[GroupKey]*CachedGroupFees),
		pupilGroups:   make(map[pupilTermKey]pupilMapping),
		variables:     make(map[pupilTermKey]*PupilVariableComponents),
		ttl:           DefaultTTL,
		sweepInterval: DefaultSweepInterval,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// isBaseFeeFor reports whether f is a class-wide charge for the representative
// pupil in the key's term. Individual charges and discounts are handled per pupil.
func isBaseFeeFor(rep *models.Pupil, f *models.FeeStructure, key GroupKey) bool {
	if !f.AppliesToTerm(key.AcademicYearID, key.TermID) {
		return false
	}
	if f.ClassID != "" && f.ClassID != rep.ClassID {
		return false
	}
	if f.Section != "" && f.Section != rep.Section {
		return false
	}
	return !f.IsAssignmentFee && !f.IsDiscount()
}

// CalculateGroupBaseFees computes and stores the base fee schedule of group.
func (c *Cache) CalculateGroupBaseFees(group *PupilGroup, feeStructures []*models.FeeStructure, academicYears []*models.AcademicYear) (*CachedGroupFees, error) {
	key := group.Key
	if models.FindAcademicYearForTerm(academicYears, key.TermID) == nil {
		return nil, errors.Wrapf(ErrAcademicYearNotFound, "term %s", key.TermID)
	}

	rep := &models.Pupil{
		ID:      "group:" + key.String(),
		ClassID: key.ClassID,
		Section: key.Section,
	}

	baseFees := make([]BaseFee, 0)
	var total float64
	for _, f := range feeStructures {
		if !isBaseFeeFor(rep, f, key) {
			continue
		}
		baseFees = append(baseFees, BaseFee{
			FeeStructureID: f.ID,
			Name:           f.Name,
			Amount:         f.Amount,
			Category:       f.Category,
			IsRequired:     f.IsRequired,
		})
		total += f.Amount
	}

	now := c.now()
	entry := &CachedGroupFees{
		GroupKey:      key,
		BaseFees:      baseFees,
		TotalBaseFees: total,
		CalculatedAt:  now,
		ExpiresAt:     now.Add(c.ttl),
	}

	c.mu.Lock()
	c.groups[key] = entry
	c.mu.Unlock()
	c.calculations.Add(1)

	return entry, nil
}

func (c *Cache) lookup(key GroupKey) (*CachedGroupFees, bool) {
	c.mu.RLock()
	entry, ok := c.groups[key]
	c.mu.RUnlock()
	if !ok || entry.expired(c.now()) {
		return nil, false
	}
	return entry, true
}

// groupFees returns the cached schedule for group, computing it on a miss.
// Concurrent misses for the same key share one computation.
func (c *Cache) groupFees(group *PupilGroup, feeStructures []*models.FeeStructure, academicYears []*models.AcademicYear) (*CachedGroupFees, bool, error) {
	if entry, ok := c.lookup(group.Key); ok {
		c.hits.Add(1)
		return entry, true, nil
	}

	c.misses.Add(1)
	v, err, _ := c.flight.Do(group.Key.String(), func() (interface{}, error) {
		if entry, ok := c.lookup(group.Key); ok {
			return entry, nil
		}
		return c.CalculateGroupBaseFees(group, feeStructures, academicYears)
	})
	if err != nil {
		return nil, false, err
	}
	return v.(*CachedGroupFees), false, nil
}

// InvalidateCacheForTerm removes every group computed for the given academic
// year and term, and returns how many were removed.
func (c *Cache) InvalidateCacheForTerm(academicYearID, termID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key := range c.groups {
		if key.MatchesTerm(academicYearID, termID) {
			delete(c.groups, key)
			removed++
		}
	}
	log.Printf("[FEE-CACHE] invalidated %d groups for year %s term %s", removed, academicYearID, termID)
	return removed
}

// PerformCacheMaintenance drops expired groups and pupil mappings that point
// at groups no longer cached. A mapping younger than the TTL is kept even when
// its group is missing, since its request may not have computed the group yet.
func (c *Cache) PerformCacheMaintenance() MaintenanceResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	var res MaintenanceResult
	for key, entry := range c.groups {
		if entry.expired(now) {
			delete(c.groups, key)
			res.ExpiredGroups++
		}
	}
	for pk, m := range c.pupilGroups {
		if _, ok := c.groups[m.key]; ok || now.Sub(m.groupedAt) < c.ttl {
			continue
		}
		delete(c.pupilGroups, pk)
		delete(c.variables, pk)
		res.OrphanedPupils++
	}

	if res.ExpiredGroups > 0 || res.OrphanedPupils > 0 {
		log.Printf("[FEE-CACHE] maintenance removed %d expired groups and %d pupil mappings", res.ExpiredGroups, res.OrphanedPupils)
	}
	return res
}

// StartBackgroundMaintenance runs PerformCacheMaintenance every sweep
// interval until ctx is done. Only the first call starts a worker.
func (c *Cache) StartBackgroundMaintenance(ctx context.Context) {
	c.maintenanceOnce.Do(func() {
		go func() {
			log.Printf("[FEE-CACHE] maintenance started, interval %s", c.sweepInterval)
			ticker := time.NewTicker(c.sweepInterval)
			defer ticker.Stop()

			for {
				select {
				case <-ctx.Done():
					log.Println("[FEE-CACHE] maintenance stopped")
					return
				case <-ticker.C:
					c.PerformCacheMaintenance()
				}
			}
		}()
	})
}

// ClearCache resets all cached state and counters.
func (c *Cache) ClearCache() {
	c.mu.Lock()
	c.groups = make(map[GroupKey]*CachedGroupFees)
	c.pupilGroups = make(map[pupilTermKey]pupilMapping)
	c.variables = make(map[pupilTermKey]*PupilVariableComponents)
	c.mu.Unlock()

	c.hits.Store(0)
	c.misses.Store(0)
	c.calculations.Store(0)
	log.Println("[FEE-CACHE] cache cleared")
}

// GetCacheStats reports cache size and efficiency.
func (c *Cache) GetCacheStats() CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	now := c.now()
	stats := CacheStats{
		TotalGroups:        len(c.groups),
		TotalPupils:        len(c.pupilGroups),
		VariableComponents: len(c.variables),
		Hits:               c.hits.Load(),
		Misses:             c.misses.Load(),
		Calculations:       c.calculations.Load(),
	}
	for _, entry := range c.groups {
		if entry.expired(now) {
			stats.ExpiredGroups++
		}
	}
	if stats.TotalPupils > 0 && stats.TotalGroups <= stats.TotalPupils {
		eff := float64(stats.TotalPupils-stats.TotalGroups) / float64(stats.TotalPupils) * 100
		stats.CacheEfficiency = math.Round(eff*100) / 100
	}
	return stats
}
