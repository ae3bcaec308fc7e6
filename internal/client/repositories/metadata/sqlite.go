package metadata

import (
	"context"
	"fmt"
	"strconv"

	"github.com/dmitrijs2005/gophsend/internal/dbx"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func parseCounter(key string, raw []byte) (int64, error) {
	n, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("metadata[%s] is not a counter: %w", key, err)
	}
	return n, nil
}

func (r *SQLiteRepository) Incr(ctx context.Context, key string) (int64, error) {
	var value []byte
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO metadata (key, value) VALUES (?, '1')
		ON CONFLICT(key) DO UPDATE SET value = CAST(CAST(value AS INTEGER) + 1 AS TEXT)
		RETURNING CAST(value AS TEXT)
	`, key).Scan(&value)
	if err != nil {
		return 0, fmt.Errorf("failed to increment metadata[%s]: %w", key, err)
	}
	return parseCounter(key, value)
}

func (r *SQLiteRepository) Counters(ctx context.Context) (map[string]int64, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT key, CAST(value AS TEXT) FROM metadata`)
	if err != nil {
		return nil, fmt.Errorf("failed to list metadata: %w", err)
	}
	defer rows.Close()

	result := make(map[string]int64)
	for rows.Next() {
		var key string
		var value []byte
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("failed to scan metadata row: %w", err)
		}
		n, err := parseCounter(key, value)
		if err != nil {
			return nil, err
		}
		result[key] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate metadata rows: %w", err)
	}
	return result, nil
}
