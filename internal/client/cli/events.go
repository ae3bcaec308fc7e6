package cli

import (
	"fmt"
	"strings"

	"github.com/dmitrijs2005/gophsend/internal/client/transfer"
	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/google/uuid"
)

var (
	okColor   = color.New(color.FgGreen)
	failColor = color.New(color.FgRed, color.Bold)
	infoColor = color.New(color.FgCyan)
)

// printEvents prints coordinator events until the channel is closed.
// Progress is printed at most once per whole percent of each transfer.
func printEvents(events <-chan transfer.Event) {
	gate := progressGate{}
	for ev := range events {
		if !gate.pass(ev) {
			continue
		}
		if line := describe(ev); line != "" {
			printlnFn(paint(ev).Sprint(line))
		}
	}
}

// progressGate remembers the last printed percentage per operation.
type progressGate map[uuid.UUID]int

func (g progressGate) pass(ev transfer.Event) bool {
	switch ev := ev.(type) {
	case transfer.EventProgress:
		pct := percent(ev.Progress)
		if last, ok := g[ev.OpID]; ok && last == pct {
			return false
		}
		g[ev.OpID] = pct
	case transfer.EventTransferDone:
		delete(g, ev.OpID)
	}
	return true
}

func percent(p transfer.Progress) int {
	return int(p.Ratio() * 100)
}

// paint picks the color of an event line. Colors are disabled when
// stdout is not a terminal.
func paint(ev transfer.Event) *color.Color {
	switch ev := ev.(type) {
	case transfer.EventTransferDone:
		switch ev.Outcome {
		case transfer.OutcomeCompleted:
			return okColor
		case transfer.OutcomeErrored:
			return failColor
		}
	case transfer.EventFilesChanged:
		return infoColor
	}
	return color.New(color.Reset)
}

// describe renders an event for the terminal. It returns "" for events
// not worth a line.
func describe(ev transfer.Event) string {
	switch ev := ev.(type) {
	case transfer.EventStarted:
		return fmt.Sprintf("[%s] started", ev.Direction)
	case transfer.EventPhase:
		return fmt.Sprintf("[%s]", ev.Phase)
	case transfer.EventProgress:
		if ev.Progress.Total <= 0 {
			return ""
		}
		return fmt.Sprintf("[%s] %s / %s (%d%%)", ev.Direction,
			humanize.Bytes(uint64(ev.Progress.Done)), humanize.Bytes(uint64(ev.Progress.Total)),
			percent(ev.Progress))
	case transfer.EventTransferDone:
		return describeDone(ev)
	case transfer.EventFilesChanged:
		var b strings.Builder
		if len(ev.Removed) > 0 {
			fmt.Fprintf(&b, "no longer available: %s", strings.Join(ev.Removed, ", "))
		}
		if len(ev.Changed) > 0 {
			if b.Len() > 0 {
				b.WriteString("; ")
			}
			fmt.Fprintf(&b, "updated: %s", strings.Join(ev.Changed, ", "))
		}
		return b.String()
	}
	return ""
}

func describeDone(ev transfer.EventTransferDone) string {
	switch ev.Outcome {
	case transfer.OutcomeCancelled:
		return fmt.Sprintf("[%s] cancelled", ev.Direction)
	case transfer.OutcomeErrored:
		if ev.NotFound {
			return fmt.Sprintf("[%s] file not found, it may have expired or reached its download limit", ev.Direction)
		}
		return fmt.Sprintf("[%s] failed: %v", ev.Direction, ev.Err)
	}
	if ev.Direction == transfer.DirectionUpload && ev.File != nil {
		return fmt.Sprintf("[upload] %s shared: %s", ev.Name, ev.File.ShareURL())
	}
	return fmt.Sprintf("[download] %s saved to %s", ev.Name, ev.Location)
}
