package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"flux_irrigation/internal/models"

	"github.com/google/uuid"
)

// ChangeLogQuery filters change log reads. Zero values mean "no filter".
type ChangeLogQuery struct {
	From     time.Time
	To       time.Time
	Actor    string
	Category string
	Limit    int
}

type ChangeLogSQLite struct {
	db *sql.DB
}

func NewChangeLogSQLite(db *sql.DB) *ChangeLogSQLite { return &ChangeLogSQLite{db: db} }

var _ ChangeLogRepo = (*ChangeLogSQLite)(nil)

// Timestamps are stored as fixed-width UTC text so they sort lexically.
const timestampLayout = "2006-01-02 15:04:05.000000"

const (
	insertChangeSQL = `
		INSERT INTO change_log (id, occurred_at, actor, category, description, details)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	trimChangesSQL = `
		DELETE FROM change_log WHERE id NOT IN (
			SELECT id FROM change_log ORDER BY occurred_at DESC LIMIT ?
		)
	`
	selectChangesSQL = `SELECT id, occurred_at, actor, category, description, details FROM change_log`
)

// Append inserts a new entry. If ID or OccurredAt are empty, they're set.
func (r *ChangeLogSQLite) Append(ctx context.Context, e models.ChangeLogEntry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}

	var details *string
	if e.Details != nil {
		if b, err := json.Marshal(e.Details); err == nil {
			s := string(b)
			details = &s
		}
	}

	_, err := r.db.ExecContext(ctx, insertChangeSQL,
		e.ID,
		e.OccurredAt.UTC().Format(timestampLayout),
		strings.TrimSpace(e.Actor),
		strings.TrimSpace(e.Category),
		e.Description,
		details,
	)
	if err != nil {
		return fmt.Errorf("insert change log entry: %w", err)
	}
	return nil
}

// Trim keeps the newest keep entries and reports how many were removed.
func (r *ChangeLogSQLite) Trim(ctx context.Context, keep int) (int64, error) {
	res, err := r.db.ExecContext(ctx, trimChangesSQL, keep)
	if err != nil {
		return 0, fmt.Errorf("trim change log: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("trim change log rows affected: %w", err)
	}
	return n, nil
}

// List returns entries matching q, newest first.
func (r *ChangeLogSQLite) List(ctx context.Context, q ChangeLogQuery) ([]models.ChangeLogEntry, error) {
	var (
		conds []string
		args  []any
	)

	if !q.From.IsZero() {
		conds = append(conds, "occurred_at >= ?")
		args = append(args, q.From.UTC().Format(timestampLayout))
	}
	if !q.To.IsZero() {
		conds = append(conds, "occurred_at <= ?")
		args = append(args, q.To.UTC().Format(timestampLayout))
	}
	if actor := strings.TrimSpace(q.Actor); actor != "" {
		conds = append(conds, "actor = ?")
		args = append(args, actor)
	}
	if category := strings.TrimSpace(q.Category); category != "" {
		conds = append(conds, "category = ?")
		args = append(args, category)
	}

	query := selectChangesSQL
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY occurred_at DESC"
	if q.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, q.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query change log: %w", err)
	}
	defer rows.Close()

	out := make([]models.ChangeLogEntry, 0, 64)
	for rows.Next() {
		var (
			e          models.ChangeLogEntry
			occurredAt string
			details    sql.NullString
		)
		if err := rows.Scan(&e.ID, &occurredAt, &e.Actor, &e.Category, &e.Description, &details); err != nil {
			return nil, fmt.Errorf("scan change log row: %w", err)
		}
		ts, err := time.Parse(timestampLayout, occurredAt)
		if err != nil {
			return nil, fmt.Errorf("parse occurred_at %q: %w", occurredAt, err)
		}
		e.OccurredAt = ts.UTC()

		if details.Valid && details.String != "" {
			var v any
			if err := json.Unmarshal([]byte(details.String), &v); err == nil {
				e.Details = v
			} else {
				e.Details = details.String // keep raw if malformed
			}
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
