package records

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
)

type column struct {
	name string
	expr string
	dest func(*Record) any
}

type tableSpec struct {
	table   string
	columns []column
}

func (t tableSpec) column(name string) (column, bool) {
	for _, c := range t.columns {
		if c.name == name {
			return c, true
		}
	}
	return column{}, false
}

func text(name string, dest func(*Record) any) column {
	return column{name: name, expr: "COALESCE(" + name + ", '')", dest: dest}
}

func dateText(name string, dest func(*Record) any) column {
	return column{name: name, expr: "COALESCE(to_char(" + name + ", 'YYYY-MM-DD'), '')", dest: dest}
}

func plain(name string, dest func(*Record) any) column {
	return column{name: name, expr: name, dest: dest}
}

var (
	colID         = plain("id", func(r *Record) any { return &r.ID })
	colTenant     = plain("tenant_id", func(r *Record) any { return &r.TenantID })
	colFirstName  = text("first_name", func(r *Record) any { return &r.FirstName })
	colLastName   = text("last_name", func(r *Record) any { return &r.LastName })
	colName       = text("name", func(r *Record) any { return &r.Name })
	colEmail      = text("email", func(r *Record) any { return &r.Email })
	colPhone      = text("phone", func(r *Record) any { return &r.Phone })
	colMobile     = text("mobile", func(r *Record) any { return &r.Mobile })
	colCompany    = text("company", func(r *Record) any { return &r.Company })
	colAccount    = text("account_name", func(r *Record) any { return &r.AccountName })
	colStatus     = text("status", func(r *Record) any { return &r.Status })
	colStage      = text("stage", func(r *Record) any { return &r.Stage })
	colType       = text("type", func(r *Record) any { return &r.Type })
	colPriority   = text("priority", func(r *Record) any { return &r.Priority })
	colSubject    = text("subject", func(r *Record) any { return &r.Subject })
	colAmount     = column{name: "amount", expr: "COALESCE(amount, 0)::float8", dest: func(r *Record) any { return &r.Amount }}
	colCloseDate  = dateText("close_date", func(r *Record) any { return &r.CloseDate })
	colDueDate    = dateText("due_date", func(r *Record) any { return &r.DueDate })
	colAssignedTo = text("assigned_to", func(r *Record) any { return &r.AssignedTo })
	colTestData   = plain("is_test_data", func(r *Record) any { return &r.IsTestData })
	colCreated    = plain("created_date", func(r *Record) any { return &r.CreatedDate })
	colUpdated    = plain("updated_date", func(r *Record) any { return &r.UpdatedDate })
)

var tableSpecs = map[Entity]tableSpec{
	EntityLead: {table: "leads", columns: []column{
		colID, colTenant, colFirstName, colLastName, colEmail, colPhone, colCompany, colStatus,
		colAssignedTo, colTestData, colCreated, colUpdated,
	}},
	EntityContact: {table: "contacts", columns: []column{
		colID, colTenant, colFirstName, colLastName, colEmail, colPhone, colMobile, colAccount, colStatus,
		colAssignedTo, colTestData, colCreated, colUpdated,
	}},
	EntityAccount: {table: "accounts", columns: []column{
		colID, colTenant, colName, colType, colEmail, colPhone, colAssignedTo, colTestData, colCreated, colUpdated,
	}},
	EntityOpportunity: {table: "opportunities", columns: []column{
		colID, colTenant, colName, colStage, colAmount, colCloseDate, colAccount, colAssignedTo, colTestData,
		colCreated, colUpdated,
	}},
	EntityActivity: {table: "activities", columns: []column{
		colID, colTenant, colSubject, colType, colStatus, colPriority, colDueDate, colAssignedTo, colTestData,
		colCreated, colUpdated,
	}},
}

// querier is the subset of pgxpool.Pool the store needs; pgxmock pools satisfy it too.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository reads CRM records from per-entity tables.
type PostgresRepository struct {
	db querier
}

var _ Store = (*PostgresRepository)(nil)

// NewPostgresRepository initializes a store backed by a pgx pool.
func NewPostgresRepository(db querier) *PostgresRepository {
	if db == nil {
		panic("records: pgx pool required")
	}
	return &PostgresRepository{db: db}
}

// Filter runs a SELECT with the filter as WHERE clauses.
func (r *PostgresRepository) Filter(ctx context.Context, entity Entity, filter Filter, sortBy string, limit int) ([]Record, error) {
	spec, ok := tableSpecs[entity]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEntity, entity)
	}
	sortSpec, err := ParseSort(sortBy)
	if err != nil {
		return nil, err
	}
	where, args, err := buildWhere(spec, filter)
	if err != nil {
		return nil, err
	}

	exprs := make([]string, len(spec.columns))
	for i, c := range spec.columns {
		exprs[i] = c.expr
	}
	direction := "ASC"
	if sortSpec.Desc {
		direction = "DESC"
	}
	query := "SELECT " + strings.Join(exprs, ", ") + " FROM " + spec.table + where +
		" ORDER BY " + sortSpec.Field + " " + direction + ", id ASC"
	if limit > 0 {
		args = append(args, limit)
		query += " LIMIT $" + strconv.Itoa(len(args))
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("records: query %s failed: %w", spec.table, err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec := Record{Entity: entity}
		dests := make([]any, len(spec.columns))
		for i, c := range spec.columns {
			dests[i] = c.dest(&rec)
		}
		if err := rows.Scan(dests...); err != nil {
			return nil, fmt.Errorf("records: scan %s failed: %w", spec.table, err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("records: iterate %s failed: %w", spec.table, err)
	}
	return out, nil
}

// Count runs SELECT COUNT(*) with the filter as WHERE clauses.
func (r *PostgresRepository) Count(ctx context.Context, entity Entity, filter Filter) (int, error) {
	spec, ok := tableSpecs[entity]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownEntity, entity)
	}
	where, args, err := buildWhere(spec, filter)
	if err != nil {
		return 0, err
	}
	var total int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM "+spec.table+where, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("records: count %s failed: %w", spec.table, err)
	}
	return total, nil
}

func buildWhere(spec tableSpec, filter Filter) (string, []any, error) {
	if len(filter) == 0 {
		return "", nil, nil
	}
	var clauses []string
	var args []any
	for _, key := range filter.Keys() {
		col, ok := spec.column(key)
		if !ok {
			return "", nil, fmt.Errorf("%w: %s.%s", ErrUnsupportedFilter, spec.table, key)
		}
		args = append(args, filter[key])
		placeholder := "$" + strconv.Itoa(len(args))
		switch filter[key].(type) {
		case []string:
			clauses = append(clauses, col.name+" = ANY("+placeholder+")")
		case string, bool:
			clauses = append(clauses, col.name+" = "+placeholder)
		default:
			return "", nil, fmt.Errorf("%w: %s=%T", ErrInvalidFilterValue, key, filter[key])
		}
	}
	return " WHERE " + strings.Join(clauses, " AND "), args, nil
}
