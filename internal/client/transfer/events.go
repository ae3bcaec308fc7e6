package transfer

import (
	"github.com/dmitrijs2005/gophsend/internal/client/lifecycle"
	"github.com/google/uuid"
)

// Status of the coordinator.
type Status uint8

const (
	StatusIdle Status = iota
	StatusUploading
	StatusDownloading
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusUploading:
		return "uploading"
	case StatusDownloading:
		return "downloading"
	}
	return "unknown"
}

// Phase is a step of a transfer pipeline.
type Phase uint8

const (
	PhaseEncrypting Phase = iota
	PhaseUploading
	PhaseDownloading
	PhaseDecrypting
)

func (p Phase) String() string {
	switch p {
	case PhaseEncrypting:
		return "encrypting"
	case PhaseUploading:
		return "uploading"
	case PhaseDownloading:
		return "downloading"
	case PhaseDecrypting:
		return "decrypting"
	}
	return "unknown"
}

// Outcome of a finished transfer.
type Outcome uint8

const (
	OutcomeCompleted Outcome = iota
	OutcomeCancelled
	OutcomeErrored
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCompleted:
		return "completed"
	case OutcomeCancelled:
		return "cancelled"
	case OutcomeErrored:
		return "errored"
	}
	return "unknown"
}

// Event is a notification from the coordinator.
type Event interface {
	event()
}

type EventStarted struct {
	OpID      uuid.UUID
	Direction Direction
}

// EventProgress may be dropped when the consumer falls behind; the next one
// carries the newer totals.
type EventProgress struct {
	OpID      uuid.UUID
	Direction Direction
	Progress  Progress
}

type EventPhase struct {
	OpID  uuid.UUID
	Phase Phase
}

type EventTransferDone struct {
	OpID      uuid.UUID
	Direction Direction
	Outcome   Outcome
	// Err is set for OutcomeErrored.
	Err error
	// NotFound marks a download of a file that no longer exists.
	NotFound bool

	// File is the new owned file of a completed upload.
	File *lifecycle.OwnedFile
	// Name and Location describe a completed download.
	Name     string
	Location string
}

// EventFilesChanged follows a sweep that changed the owned files.
type EventFilesChanged struct {
	Changed []string
	Removed []string
}

func (EventStarted) event()      {}
func (EventProgress) event()     {}
func (EventPhase) event()        {}
func (EventTransferDone) event() {}
func (EventFilesChanged) event() {}
