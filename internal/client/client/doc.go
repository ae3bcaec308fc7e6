// Package client bootstraps the local state of the GophSend client: it
// opens the SQLite database, applies the embedded goose migrations and
// hands out the repositories built on it.
package client
