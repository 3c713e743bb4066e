package chats

import (
	"context"
	"database/sql"
)

// PGRepo implements Repo using Postgres. Order is the seq column.
type PGRepo struct {
	DB *sql.DB
}

// Append inserts a turn.
func (r *PGRepo) Append(ctx context.Context, turn Turn) error {
	const query = `
INSERT INTO resume_chats (id, resume_id, role, content, created_at)
VALUES ($1, $2, $3, $4, $5)`
	_, err := r.DB.ExecContext(ctx, query, turn.ID, turn.ResumeID, turn.Role, turn.Content, turn.CreatedAt)
	return err
}

// ListLatest returns the newest limit turns in ascending order.
func (r *PGRepo) ListLatest(ctx context.Context, resumeID string, limit int) ([]Turn, error) {
	const query = `
SELECT id, resume_id, role, content, created_at
FROM (
    SELECT seq, id, resume_id, role, content, created_at
    FROM resume_chats
    WHERE resume_id = $1
    ORDER BY seq DESC
    LIMIT $2
) latest
ORDER BY seq ASC`
	return r.list(ctx, query, resumeID, limit)
}

// Delete removes one turn.
func (r *PGRepo) Delete(ctx context.Context, resumeID, turnID string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM resume_chats WHERE resume_id = $1 AND id = $2`, resumeID, turnID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrTurnNotFound
	}
	return nil
}

// PruneKeepLatest deletes everything older than the newest keep turns.
func (r *PGRepo) PruneKeepLatest(ctx context.Context, resumeID string, keep int) (int, error) {
	const query = `
DELETE FROM resume_chats
WHERE resume_id = $1
  AND seq NOT IN (
    SELECT seq FROM resume_chats
    WHERE resume_id = $1
    ORDER BY seq DESC
    LIMIT $2
  )`
	res, err := r.DB.ExecContext(ctx, query, resumeID, keep)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func (r *PGRepo) list(ctx context.Context, query, resumeID string, limit int) ([]Turn, error) {
	rows, err := r.DB.QueryContext(ctx, query, resumeID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Turn, 0)
	for rows.Next() {
		var t Turn
		if err := rows.Scan(&t.ID, &t.ResumeID, &t.Role, &t.Content, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
