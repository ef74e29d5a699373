package sqlite

import (
	"context"
	"time"

	"github.com/google/uuid"

	"banana_bot/internal/model"
)

func (s *Store) RecordPrize(ctx context.Context, rec model.PrizeRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.At.IsZero() {
		rec.At = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO prizes (id, run_id, account, banana_id, name, ripeness, at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, rec.ID, rec.RunID, rec.Account, rec.BananaID, rec.Name, rec.Ripeness, rec.At.UnixMilli())
	return err
}

func (s *Store) ListPrizes(ctx context.Context, account string, limit int) ([]model.PrizeRecord, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, run_id, account, banana_id, name, ripeness, at
		FROM prizes
		WHERE (? = '' OR account = ?)
		ORDER BY at DESC, rowid DESC
		LIMIT ?
	`, account, account, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.PrizeRecord
	for rows.Next() {
		var rec model.PrizeRecord
		var at int64
		if err := rows.Scan(&rec.ID, &rec.RunID, &rec.Account, &rec.BananaID, &rec.Name, &rec.Ripeness, &at); err != nil {
			return nil, err
		}
		rec.At = time.UnixMilli(at)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// PrizeCounts groups drawn prizes by ripeness.
func (s *Store) PrizeCounts(ctx context.Context, account string) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT ripeness, COUNT(*) FROM prizes
		WHERE (? = '' OR account = ?)
		GROUP BY ripeness
	`, account, account)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var ripeness string
		var n int
		if err := rows.Scan(&ripeness, &n); err != nil {
			return nil, err
		}
		out[ripeness] = n
	}
	return out, rows.Err()
}
