// Package transfer runs uploads and downloads of shared files.
//
// # Overview
//
// A Coordinator owns at most one active Operation at a time. Its state
// lives on a single goroutine (Run); callers send it intents and read
// typed Events back. The coordinator also owns the reconciliation ticker
// that periodically sweeps the owned files through the lifecycle manager.
//
//	Idle -> Uploading | Downloading -> Completed | Cancelled | Errored -> Idle
//
// Sender and Receiver hold the per-direction pipelines: key generation,
// encryption and upload; metadata, download and decryption.
package transfer
