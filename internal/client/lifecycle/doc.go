// Package lifecycle tracks the files this client has shared and keeps
// their download budget in step with the server.
//
// OwnedFile values are immutable; every change produces a new value that
// replaces the tracked one. Operations on one file are serialized by a
// per-file lock, operations on different files run in parallel.
package lifecycle
