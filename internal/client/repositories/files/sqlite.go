package files

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophsend/internal/client/models"
	"github.com/dmitrijs2005/gophsend/internal/common"
	"github.com/dmitrijs2005/gophsend/internal/dbx"
)

const columns = `id, url, name, size, type, created_at, expires_at, secret_key, nonce,
	password, owner_token, download_limit, download_count, upload_duration, speed`

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// WithTx returns a repository bound to tx.
func (r *SQLiteRepository) WithTx(tx dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: tx}
}

func (r *SQLiteRepository) Upsert(ctx context.Context, f *models.File) error {

	query := `INSERT INTO owned_files (` + columns + `)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET url = excluded.url,
				name = excluded.name,
				size = excluded.size,
				type = excluded.type,
				created_at = excluded.created_at,
				expires_at = excluded.expires_at,
				secret_key = excluded.secret_key,
				nonce = excluded.nonce,
				password = excluded.password,
				owner_token = excluded.owner_token,
				download_limit = excluded.download_limit,
				download_count = excluded.download_count,
				upload_duration = excluded.upload_duration,
				speed = excluded.speed
	`
	_, err := r.db.ExecContext(ctx, query,
		f.ID, f.URL, f.Name, f.Size, f.Type,
		f.CreatedAt.UnixMilli(), f.ExpiresAt.UnixMilli(),
		f.SecretKey, f.Nonce, f.Password, f.OwnerToken,
		f.DownloadLimit, f.DownloadCount,
		f.UploadDuration.Milliseconds(), f.Speed)
	if err != nil {
		return fmt.Errorf("failed to upsert file %s: %w", f.ID, err)
	}

	return nil
}

func (r *SQLiteRepository) DeleteByID(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM owned_files WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete file %s: %w", id, err)
	}
	return nil
}

// Retire writes the final state of f and removes its row in one transaction.
// When the delete fails the previously stored row is left untouched. A
// repository already bound to a transaction runs both statements in it.
func (r *SQLiteRepository) Retire(ctx context.Context, f *models.File) error {
	db, ok := r.db.(*sql.DB)
	if !ok {
		return r.retire(ctx, f)
	}
	return dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return r.WithTx(tx).retire(ctx, f)
	})
}

func (r *SQLiteRepository) retire(ctx context.Context, f *models.File) error {
	if err := r.Upsert(ctx, f); err != nil {
		return err
	}
	return r.DeleteByID(ctx, f.ID)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanFile(s scanner) (*models.File, error) {
	var (
		f                  models.File
		created, expires   int64
		uploadDurationMsec int64
	)
	err := s.Scan(&f.ID, &f.URL, &f.Name, &f.Size, &f.Type, &created, &expires,
		&f.SecretKey, &f.Nonce, &f.Password, &f.OwnerToken, &f.DownloadLimit, &f.DownloadCount,
		&uploadDurationMsec, &f.Speed)
	if err != nil {
		return nil, err
	}
	f.CreatedAt = time.UnixMilli(created)
	f.ExpiresAt = time.UnixMilli(expires)
	f.UploadDuration = time.Duration(uploadDurationMsec) * time.Millisecond
	return &f, nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*models.File, error) {

	row := r.db.QueryRowContext(ctx, `SELECT `+columns+` FROM owned_files WHERE id = ?`, id)

	f, err := scanFile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("file %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get file %s: %w", id, err)
	}

	return f, nil
}

func (r *SQLiteRepository) GetAll(ctx context.Context) ([]*models.File, error) {

	rows, err := r.db.QueryContext(ctx, `SELECT `+columns+` FROM owned_files ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("error selecting files: %w", err)
	}
	defer rows.Close()

	var result []*models.File

	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan file row: %w", err)
		}
		result = append(result, f)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}
