package records

import "errors"

var (
	// ErrUnknownEntity is returned when an entity name is not one of the CRM record types.
	ErrUnknownEntity = errors.New("records: unknown entity")

	// ErrUnsupportedFilter is returned when a filter key is not a filterable field of the entity.
	ErrUnsupportedFilter = errors.New("records: unsupported filter field")

	// ErrInvalidFilterValue is returned when a filter value is not a string, bool or []string.
	ErrInvalidFilterValue = errors.New("records: invalid filter value")

	// ErrInvalidSort is returned when the sort field is not sortable.
	ErrInvalidSort = errors.New("records: invalid sort")
)
