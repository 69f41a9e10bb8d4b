package persist

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// RecordRow is one scoreboard entry. PlayTime is in seconds.
type RecordRow struct {
	Name     string  `json:"name"`
	Score    int     `json:"score"`
	PlayTime float64 `json:"playTime"`
}

// RecordRepo stores and ranks retired players.
type RecordRepo struct {
	db *DB
}

func NewRecordRepo(db *DB) *RecordRepo {
	return &RecordRepo{db: db}
}

// SaveRecord inserts one retired player under a fresh id.
func (r *RecordRepo) SaveRecord(ctx context.Context, name string, score int, playTimeMs uint64) error {
	_, err := r.db.Pool.Exec(ctx,
		`INSERT INTO retired_players (id, name, score, play_time_ms) VALUES ($1, $2, $3, $4)`,
		uuid.New(), name, score, playTimeMs)
	if err != nil {
		return fmt.Errorf("save record for %q: %w", name, err)
	}
	return nil
}

// GetRecords returns up to limit records starting at offset, best first:
// score descending, then play time ascending, then name ascending.
func (r *RecordRepo) GetRecords(ctx context.Context, limit, offset int) ([]RecordRow, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT name, score, play_time_ms FROM retired_players
		 ORDER BY score DESC, play_time_ms, name LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	records := make([]RecordRow, 0, limit)
	for rows.Next() {
		var rec RecordRow
		var playTimeMs int64
		if err := rows.Scan(&rec.Name, &rec.Score, &playTimeMs); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		rec.PlayTime = float64(playTimeMs) / 1000.0
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return records, nil
}
