// Package files persists the files this client has shared (owned files).
//
// # Overview
//
// A row of owned_files holds everything needed to manage a share after a
// restart: the share URL, the owner token, the keychain secret and the last
// nonce the server issued, and the download budget as last seen.
//
// Key Types
//
//   - type Repository        — contract used by the lifecycle manager
//   - type SQLiteRepository  — SQLite implementation over dbx.DBTX
//
// Typical Usage
//
//	repo := files.NewSQLiteRepository(db)
//	_ = repo.Upsert(ctx, file)
//	all, _ := repo.GetAll(ctx)
//	_ = repo.DeleteByID(ctx, id)
//	_ = repo.Retire(ctx, exhausted) // upsert and delete in one transaction
//
// See also: internal/client/models.File for field semantics.
package files
