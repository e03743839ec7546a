package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"classhub/api/internal/models"
)

var ErrAssignmentNotFound = errors.New("assignment not found")

type AssignmentRepository struct {
	pool *pgxpool.Pool
}

func NewAssignmentRepository(pool *pgxpool.Pool) *AssignmentRepository {
	return &AssignmentRepository{pool: pool}
}

func (r *AssignmentRepository) Create(ctx context.Context, assignment models.Assignment) error {
	const query = `
		INSERT INTO assignments (
			id, group_id, title, description, created_by, due_at, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, NOW(), NOW()
		)
	`

	_, err := r.pool.Exec(ctx, query,
		assignment.ID,
		assignment.GroupID,
		assignment.Title,
		assignment.Description,
		assignment.CreatedBy,
		assignment.DueAt,
	)
	return err
}

func (r *AssignmentRepository) GetByID(ctx context.Context, id string) (models.Assignment, error) {
	const query = `
		SELECT id, group_id, title, description, created_by, due_at, created_at, updated_at
		FROM assignments WHERE id = $1
	`

	row := r.pool.QueryRow(ctx, query, id)
	var assignment models.Assignment
	if err := row.Scan(
		&assignment.ID,
		&assignment.GroupID,
		&assignment.Title,
		&assignment.Description,
		&assignment.CreatedBy,
		&assignment.DueAt,
		&assignment.CreatedAt,
		&assignment.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Assignment{}, ErrAssignmentNotFound
		}
		return models.Assignment{}, err
	}
	return assignment, nil
}

func (r *AssignmentRepository) ListByGroup(ctx context.Context, groupID string) ([]models.Assignment, error) {
	const query = `
		SELECT id, group_id, title, description, created_by, due_at, created_at, updated_at
		FROM assignments
		WHERE group_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.pool.Query(ctx, query, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assignments []models.Assignment
	for rows.Next() {
		var assignment models.Assignment
		if err := rows.Scan(
			&assignment.ID,
			&assignment.GroupID,
			&assignment.Title,
			&assignment.Description,
			&assignment.CreatedBy,
			&assignment.DueAt,
			&assignment.CreatedAt,
			&assignment.UpdatedAt,
		); err != nil {
			return nil, err
		}
		assignments = append(assignments, assignment)
	}
	return assignments, rows.Err()
}

func (r *AssignmentRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM assignments WHERE id = $1`
	cmd, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrAssignmentNotFound
	}
	return nil
}

func (r *AssignmentRepository) CreateSubmission(ctx context.Context, submission models.Submission) error {
	const query = `
		INSERT INTO submissions (
			id, assignment_id, group_id, owner_id, object_key, content_type, size, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, NOW()
		)
	`

	_, err := r.pool.Exec(ctx, query,
		submission.ID,
		submission.AssignmentID,
		submission.GroupID,
		submission.OwnerID,
		submission.ObjectKey,
		submission.ContentType,
		submission.Size,
	)
	return err
}
