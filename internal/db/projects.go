package db

import (
	"context"
	"database/sql"

	"github.com/hpungsan/jot/internal/capture"
	"github.com/hpungsan/jot/internal/errors"
)

// InsertProject stores a new project. A name collision returns ErrUniqueConstraint.
func InsertProject(ctx context.Context, q Querier, p *capture.Project) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO projects (id, name_raw, name_norm, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.NameNorm, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrUniqueConstraint
		}
		return errors.NewInternal(err)
	}
	return nil
}

// GetProjectByName looks a project up by its normalized name.
func GetProjectByName(ctx context.Context, q Querier, nameNorm string) (*capture.Project, error) {
	row := q.QueryRowContext(ctx,
		`SELECT id, name_raw, name_norm, created_at, updated_at FROM projects WHERE name_norm = ?`,
		nameNorm,
	)
	p, err := scanProject(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("project", nameNorm)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return p, nil
}

// ListProjects returns projects alphabetically with their live item counts.
func ListProjects(ctx context.Context, q Querier, limit, offset int) ([]capture.ProjectSummary, int, error) {
	var total int
	if err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM projects`).Scan(&total); err != nil {
		return nil, 0, errors.NewInternal(err)
	}

	rows, err := q.QueryContext(ctx, `
		SELECT p.id, p.name_raw, p.name_norm, p.created_at, p.updated_at,
			(SELECT COUNT(*) FROM items i WHERE i.project_id = p.id AND i.deleted_at IS NULL)
		FROM projects p
		ORDER BY p.name_norm ASC
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, 0, errors.NewInternal(err)
	}
	defer rows.Close()

	var out []capture.ProjectSummary
	for rows.Next() {
		var s capture.ProjectSummary
		if err := rows.Scan(&s.ID, &s.Name, &s.NameNorm, &s.CreatedAt, &s.UpdatedAt, &s.ItemCount); err != nil {
			return nil, 0, errors.NewInternal(err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errors.NewInternal(err)
	}
	return out, total, nil
}

func scanProject(row rowScanner) (*capture.Project, error) {
	var p capture.Project
	if err := row.Scan(&p.ID, &p.Name, &p.NameNorm, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}
