package sqlite

import (
	"context"
	"time"

	"github.com/google/uuid"

	"banana_bot/internal/model"
)

func (s *Store) RecordAction(ctx context.Context, rec model.ActionRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.At.IsZero() {
		rec.At = time.Now()
	}
	ok := 0
	if rec.OK {
		ok = 1
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO actions (id, run_id, account, action, ok, code, message, at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.ID, rec.RunID, rec.Account, rec.Action, ok, rec.Code, rec.Message, rec.At.UnixMilli())
	return err
}

// ListActions returns the newest records first. An empty account lists all accounts.
func (s *Store) ListActions(ctx context.Context, account string, limit int) ([]model.ActionRecord, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, run_id, account, action, ok, code, message, at
		FROM actions
		WHERE (? = '' OR account = ?)
		ORDER BY at DESC, rowid DESC
		LIMIT ?
	`, account, account, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.ActionRecord
	for rows.Next() {
		var row struct {
			id      string
			runID   string
			account string
			action  string
			ok      int
			code    int
			message string
			at      int64
		}
		if err := rows.Scan(&row.id, &row.runID, &row.account, &row.action, &row.ok, &row.code, &row.message, &row.at); err != nil {
			return nil, err
		}
		out = append(out, model.ActionRecord{
			ID:      row.id,
			RunID:   row.runID,
			Account: row.account,
			Action:  row.action,
			OK:      row.ok != 0,
			Code:    row.code,
			Message: row.message,
			At:      time.UnixMilli(row.at),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
