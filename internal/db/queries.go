package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hpungsan/jot/internal/capture"
	"github.com/hpungsan/jot/internal/errors"
)

// ErrUniqueConstraint is returned when an insert violates a UNIQUE constraint.
var ErrUniqueConstraint = &errors.JotError{
	Code:    "UNIQUE_CONSTRAINT",
	Status:  409,
	Message: "unique constraint violation",
}

// Querier is satisfied by both *sql.DB and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// itemColumns selects an item joined with its project name.
const itemColumns = `
	i.id, i.type, i.title, i.status, i.project_id, p.name_raw,
	i.hashtags_json, i.priority, i.due_date, i.category, i.description,
	i.raw_input, i.created_at, i.updated_at, i.completed_at, i.deleted_at
`

const itemFrom = `FROM items i LEFT JOIN projects p ON p.id = i.project_id`

// ItemFilters narrows ListItems. Nil fields are not applied.
type ItemFilters struct {
	Type      *capture.Type
	Status    *capture.Status
	ProjectID *string
	Hashtag   *string
	Query     *string // case-insensitive substring of the title
	DueBefore *string // YYYY-MM-DD, inclusive
}

// InsertItem stores a new item.
func InsertItem(ctx context.Context, q Querier, it *capture.Item) error {
	hashtags, err := hashtagsToJSON(it.Hashtags)
	if err != nil {
		return errors.NewInternal(err)
	}

	query := `
		INSERT INTO items (
			id, type, title, status, project_id, hashtags_json,
			priority, due_date, category, description, raw_input,
			created_at, updated_at, completed_at, deleted_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = q.ExecContext(ctx, query,
		it.ID, string(it.Type), it.Title, toNullString(it.Status), toNullString(it.ProjectID), hashtags,
		toNullString(it.Priority), toNullString(it.DueDate), toNullString(it.Category),
		toNullString(it.Description), it.RawInput,
		it.CreatedAt, it.UpdatedAt, toNullInt64(it.CompletedAt), toNullInt64(it.DeletedAt),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrUniqueConstraint
		}
		return errors.NewInternal(err)
	}

	return nil
}

// UpsertItem inserts an item or overwrites every column of an existing row
// with the same id. Used by import in replace mode.
func UpsertItem(ctx context.Context, q Querier, it *capture.Item) error {
	hashtags, err := hashtagsToJSON(it.Hashtags)
	if err != nil {
		return errors.NewInternal(err)
	}

	query := `
		INSERT INTO items (
			id, type, title, status, project_id, hashtags_json,
			priority, due_date, category, description, raw_input,
			created_at, updated_at, completed_at, deleted_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			type = excluded.type,
			title = excluded.title,
			status = excluded.status,
			project_id = excluded.project_id,
			hashtags_json = excluded.hashtags_json,
			priority = excluded.priority,
			due_date = excluded.due_date,
			category = excluded.category,
			description = excluded.description,
			raw_input = excluded.raw_input,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at,
			completed_at = excluded.completed_at,
			deleted_at = excluded.deleted_at
	`

	_, err = q.ExecContext(ctx, query,
		it.ID, string(it.Type), it.Title, toNullString(it.Status), toNullString(it.ProjectID), hashtags,
		toNullString(it.Priority), toNullString(it.DueDate), toNullString(it.Category),
		toNullString(it.Description), it.RawInput,
		it.CreatedAt, it.UpdatedAt, toNullInt64(it.CompletedAt), toNullInt64(it.DeletedAt),
	)
	if err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// ItemExists reports whether any row (live or soft-deleted) has the id.
func ItemExists(ctx context.Context, q Querier, id string) (bool, error) {
	var one int
	err := q.QueryRowContext(ctx, `SELECT 1 FROM items WHERE id = ? LIMIT 1`, id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, errors.NewInternal(err)
	}
	return true, nil
}

// GetItemByID retrieves an item by its ULID.
// If includeDeleted is false, soft-deleted items are excluded.
func GetItemByID(ctx context.Context, q Querier, id string, includeDeleted bool) (*capture.Item, error) {
	query := `SELECT ` + itemColumns + ` ` + itemFrom + ` WHERE i.id = ?`
	if !includeDeleted {
		query += " AND i.deleted_at IS NULL"
	}

	it, err := scanItem(q.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("item", id)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return it, nil
}

// ListItems returns one page of items, most recently updated first, plus the
// total number of matching rows.
func ListItems(ctx context.Context, q Querier, f ItemFilters, limit, offset int, includeDeleted bool) ([]capture.Item, int, error) {
	where, args := buildItemWhere(f, includeDeleted)

	var total int
	countQuery := `SELECT COUNT(*) ` + itemFrom + where
	if err := q.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, errors.NewInternal(err)
	}

	query := `SELECT ` + itemColumns + ` ` + itemFrom + where +
		` ORDER BY i.updated_at DESC, i.id DESC LIMIT ? OFFSET ?`
	rows, err := q.QueryContext(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, errors.NewInternal(err)
	}
	defer rows.Close()

	var items []capture.Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, 0, errors.NewInternal(err)
		}
		items = append(items, *it)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errors.NewInternal(err)
	}

	return items, total, nil
}

func buildItemWhere(f ItemFilters, includeDeleted bool) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if !includeDeleted {
		conds = append(conds, "i.deleted_at IS NULL")
	}
	if f.Type != nil {
		conds = append(conds, "i.type = ?")
		args = append(args, string(*f.Type))
	}
	if f.Status != nil {
		conds = append(conds, "i.status = ?")
		args = append(args, string(*f.Status))
	}
	if f.ProjectID != nil {
		conds = append(conds, "i.project_id = ?")
		args = append(args, *f.ProjectID)
	}
	if f.Hashtag != nil {
		conds = append(conds, "EXISTS (SELECT 1 FROM json_each(i.hashtags_json) WHERE json_each.value = ?)")
		args = append(args, *f.Hashtag)
	}
	if f.Query != nil {
		conds = append(conds, `i.title LIKE ? ESCAPE '\'`)
		args = append(args, "%"+escapeLike(*f.Query)+"%")
	}
	if f.DueBefore != nil {
		conds = append(conds, "i.due_date IS NOT NULL AND i.due_date <= ?")
		args = append(args, *f.DueBefore)
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// UpdateItem writes the mutable fields of a live item and bumps updated_at
// to it.UpdatedAt. Type, raw input and created_at never change.
func UpdateItem(ctx context.Context, q Querier, it *capture.Item) error {
	hashtags, err := hashtagsToJSON(it.Hashtags)
	if err != nil {
		return errors.NewInternal(err)
	}

	query := `
		UPDATE items
		SET title = ?, status = ?, project_id = ?, hashtags_json = ?,
			priority = ?, due_date = ?, category = ?, description = ?,
			completed_at = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := q.ExecContext(ctx, query,
		it.Title, toNullString(it.Status), toNullString(it.ProjectID), hashtags,
		toNullString(it.Priority), toNullString(it.DueDate), toNullString(it.Category),
		toNullString(it.Description), toNullInt64(it.CompletedAt), it.UpdatedAt,
		it.ID,
	)
	if err != nil {
		return errors.NewInternal(err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return errors.NewInternal(err)
	}
	if n == 0 {
		return errors.NewNotFound("item", it.ID)
	}
	return nil
}

// SoftDeleteItem marks an item as deleted.
func SoftDeleteItem(ctx context.Context, q Querier, id string, now int64) error {
	result, err := q.ExecContext(ctx,
		`UPDATE items SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`, now, id)
	if err != nil {
		return errors.NewInternal(err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return errors.NewInternal(err)
	}
	if n == 0 {
		return errors.NewNotFound("item", id)
	}
	return nil
}

// PurgeDeleted permanently removes soft-deleted items, optionally only of one
// type and only those deleted before cutoff (unix seconds).
func PurgeDeleted(ctx context.Context, q Querier, typ *capture.Type, cutoff *int64) (int, error) {
	query := `DELETE FROM items WHERE deleted_at IS NOT NULL`
	var args []any
	if typ != nil {
		query += " AND type = ?"
		args = append(args, string(*typ))
	}
	if cutoff != nil {
		query += " AND deleted_at < ?"
		args = append(args, *cutoff)
	}

	result, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	return int(n), nil
}

// StreamForExport returns rows for every item (oldest first) so export can
// write without loading the whole table. Callers scan with ScanItemRow.
func StreamForExport(ctx context.Context, q Querier, typ *capture.Type, includeDeleted bool) (*sql.Rows, error) {
	f := ItemFilters{Type: typ}
	where, args := buildItemWhere(f, includeDeleted)
	query := `SELECT ` + itemColumns + ` ` + itemFrom + where + ` ORDER BY i.created_at ASC, i.id ASC`

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return rows, nil
}

// ScanItemRow scans the current row of a StreamForExport result.
func ScanItemRow(rows *sql.Rows) (*capture.Item, error) {
	it, err := scanItem(rows)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return it, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*capture.Item, error) {
	var (
		it          capture.Item
		typ         string
		status      sql.NullString
		projectID   sql.NullString
		projectName sql.NullString
		hashtags    sql.NullString
		priority    sql.NullString
		dueDate     sql.NullString
		category    sql.NullString
		description sql.NullString
		completedAt sql.NullInt64
		deletedAt   sql.NullInt64
	)

	err := row.Scan(
		&it.ID, &typ, &it.Title, &status, &projectID, &projectName,
		&hashtags, &priority, &dueDate, &category, &description,
		&it.RawInput, &it.CreatedAt, &it.UpdatedAt, &completedAt, &deletedAt,
	)
	if err != nil {
		return nil, err
	}

	it.Type = capture.Type(typ)
	it.Status = fromNullString[capture.Status](status)
	it.ProjectID = fromNullString[string](projectID)
	it.Project = fromNullString[string](projectName)
	it.Priority = fromNullString[capture.Priority](priority)
	it.DueDate = fromNullString[string](dueDate)
	it.Category = fromNullString[capture.Category](category)
	it.Description = fromNullString[string](description)
	it.CompletedAt = fromNullInt64(completedAt)
	it.DeletedAt = fromNullInt64(deletedAt)

	it.Hashtags = []string{}
	if hashtags.Valid && hashtags.String != "" {
		if err := json.Unmarshal([]byte(hashtags.String), &it.Hashtags); err != nil {
			return nil, fmt.Errorf("decode hashtags for %s: %w", it.ID, err)
		}
	}

	return &it, nil
}

// isUniqueConstraintError checks if the error is a SQLite UNIQUE constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func hashtagsToJSON(tags []string) (sql.NullString, error) {
	if len(tags) == 0 {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(tags)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func toNullString[T ~string](s *T) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(*s), Valid: true}
}

func fromNullString[T ~string](ns sql.NullString) *T {
	if !ns.Valid {
		return nil
	}
	v := T(ns.String)
	return &v
}

func toNullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func fromNullInt64(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}
