package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"classhub/api/internal/models"
)

var ErrGroupNotFound = errors.New("group not found")

type GroupRepository struct {
	pool *pgxpool.Pool
}

func NewGroupRepository(pool *pgxpool.Pool) *GroupRepository {
	return &GroupRepository{pool: pool}
}

func (r *GroupRepository) GetByID(ctx context.Context, id string) (models.Group, error) {
	const query = `
		SELECT id, name, path, created_at, updated_at
		FROM groups WHERE id = $1
	`

	row := r.pool.QueryRow(ctx, query, id)
	var group models.Group
	if err := row.Scan(
		&group.ID,
		&group.Name,
		&group.Path,
		&group.CreatedAt,
		&group.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Group{}, ErrGroupNotFound
		}
		return models.Group{}, err
	}
	return group, nil
}

func (r *GroupRepository) MembershipsByUser(ctx context.Context, userID string) ([]models.GroupMembership, error) {
	const query = `
		SELECT user_id, group_id, role, created_at
		FROM group_memberships
		WHERE user_id = $1
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanMemberships(rows)
}

func (r *GroupRepository) MembershipsByGroup(ctx context.Context, groupID string) ([]models.GroupMembership, error) {
	const query = `
		SELECT user_id, group_id, role, created_at
		FROM group_memberships
		WHERE group_id = $1
		ORDER BY created_at
	`

	rows, err := r.pool.Query(ctx, query, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanMemberships(rows)
}

// PathsByIDs resolves (group id, materialized path) pairs for the given ids.
// Unknown ids are silently skipped.
func (r *GroupRepository) PathsByIDs(ctx context.Context, ids []string) ([]models.GroupPath, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	const query = `SELECT id, path FROM groups WHERE id = ANY($1)`

	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var paths []models.GroupPath
	for rows.Next() {
		var p models.GroupPath
		if err := rows.Scan(&p.GroupID, &p.Path); err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}

func scanMemberships(rows pgx.Rows) ([]models.GroupMembership, error) {
	var memberships []models.GroupMembership
	for rows.Next() {
		var m models.GroupMembership
		if err := rows.Scan(&m.UserID, &m.GroupID, &m.Role, &m.CreatedAt); err != nil {
			return nil, err
		}
		memberships = append(memberships, m)
	}
	return memberships, rows.Err()
}
