package records

import (
	"fmt"
	"sort"
	"strings"
)

// Filter is a plain field map: string and bool values compare for equality,
// []string values test membership. Comparisons are exact; vocabulary values are stored
// in their canonical lowercase form. Every filter built by the assistant carries tenant_id.
type Filter map[string]any

// Keys returns the filter keys sorted, so generated SQL is stable.
func (f Filter) Keys() []string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns a shallow copy with membership slices copied.
func (f Filter) Clone() Filter {
	out := make(Filter, len(f))
	for k, v := range f {
		if list, ok := v.([]string); ok {
			v = append([]string(nil), list...)
		}
		out[k] = v
	}
	return out
}

// Validate rejects keys the entity does not expose and values of unsupported types.
func (f Filter) Validate(entity Entity) error {
	spec, ok := tableSpecs[entity]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownEntity, entity)
	}
	for _, key := range f.Keys() {
		if _, ok := spec.column(key); !ok {
			return fmt.Errorf("%w: %s.%s", ErrUnsupportedFilter, entity, key)
		}
		switch f[key].(type) {
		case string, bool, []string:
		default:
			return fmt.Errorf("%w: %s=%T", ErrInvalidFilterValue, key, f[key])
		}
	}
	return nil
}

// Matches reports whether the record satisfies every clause.
func (f Filter) Matches(r Record) bool {
	for key, want := range f {
		got, ok := r.field(key)
		if !ok {
			return false
		}
		switch w := want.(type) {
		case string:
			s, _ := got.(string)
			if s != w {
				return false
			}
		case bool:
			b, _ := got.(bool)
			if b != w {
				return false
			}
		case []string:
			s, _ := got.(string)
			found := false
			for _, candidate := range w {
				if s == candidate {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// SortSpec is a parsed sort string such as "-created_date".
type SortSpec struct {
	Field string
	Desc  bool
}

// ParseSort accepts "", "created_date", "-created_date", "updated_date" and "-updated_date".
func ParseSort(raw string) (SortSpec, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return SortSpec{Field: "created_date", Desc: true}, nil
	}
	spec := SortSpec{Field: raw}
	if strings.HasPrefix(raw, "-") {
		spec.Desc = true
		spec.Field = strings.TrimPrefix(raw, "-")
	}
	switch spec.Field {
	case "created_date", "updated_date":
		return spec, nil
	default:
		return SortSpec{}, fmt.Errorf("%w: %q", ErrInvalidSort, raw)
	}
}

func (s SortSpec) less(a, b Record) bool {
	ta, tb := a.CreatedDate, b.CreatedDate
	if s.Field == "updated_date" {
		ta, tb = a.UpdatedDate, b.UpdatedDate
	}
	if !ta.Equal(tb) {
		if s.Desc {
			return ta.After(tb)
		}
		return ta.Before(tb)
	}
	return a.ID < b.ID
}
