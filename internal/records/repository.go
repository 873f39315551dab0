package records

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store is the hosted record API as seen by the assistant.
type Store interface {
	// Filter returns matching records ordered by sort; limit <= 0 means no limit.
	Filter(ctx context.Context, entity Entity, filter Filter, sort string, limit int) ([]Record, error)
	// Count returns the number of matching records.
	Count(ctx context.Context, entity Entity, filter Filter) (int, error)
}

// InMemoryRepository is a Store over in-process slices, used for tests and local development.
type InMemoryRepository struct {
	mu      sync.RWMutex
	records map[Entity][]Record
}

var _ Store = (*InMemoryRepository)(nil)

// NewInMemoryRepository creates an empty in-memory repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		records: make(map[Entity][]Record),
	}
}

// Add inserts records, assigning IDs and timestamps when missing.
func (r *InMemoryRepository) Add(recs ...Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	for _, rec := range recs {
		if _, ok := tableSpecs[rec.Entity]; !ok {
			return fmt.Errorf("%w: %q", ErrUnknownEntity, rec.Entity)
		}
		if rec.ID == "" {
			rec.ID = uuid.New().String()
		}
		if rec.CreatedDate.IsZero() {
			rec.CreatedDate = now
		}
		if rec.UpdatedDate.IsZero() {
			rec.UpdatedDate = rec.CreatedDate
		}
		r.records[rec.Entity] = append(r.records[rec.Entity], rec)
	}
	return nil
}

// Filter returns copies of the matching records.
func (r *InMemoryRepository) Filter(ctx context.Context, entity Entity, filter Filter, sortBy string, limit int) ([]Record, error) {
	if err := filter.Validate(entity); err != nil {
		return nil, err
	}
	spec, err := ParseSort(sortBy)
	if err != nil {
		return nil, err
	}

	r.mu.RLock()
	var out []Record
	for _, rec := range r.records[entity] {
		if filter.Matches(rec) {
			out = append(out, rec)
		}
	}
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool { return spec.less(out[i], out[j]) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Count returns the number of matching records.
func (r *InMemoryRepository) Count(ctx context.Context, entity Entity, filter Filter) (int, error) {
	if err := filter.Validate(entity); err != nil {
		return 0, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, rec := range r.records[entity] {
		if filter.Matches(rec) {
			n++
		}
	}
	return n, nil
}

// LoadSeed decodes a JSON array of records, e.g. a SEED_FILE for local development.
func LoadSeed(reader io.Reader) ([]Record, error) {
	var recs []Record
	if err := json.NewDecoder(reader).Decode(&recs); err != nil {
		return nil, fmt.Errorf("records: decode seed: %w", err)
	}
	for i, rec := range recs {
		entity, err := ParseEntity(string(rec.Entity))
		if err != nil {
			return nil, fmt.Errorf("records: seed row %d: %w", i, err)
		}
		recs[i].Entity = entity
	}
	return recs, nil
}
