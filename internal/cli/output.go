package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
}

// NewOutput creates a new Output formatter
func NewOutput(format string, w io.Writer) *Output {
	return &Output{format: format, w: w}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		o.printJSON(map[string]string{"message": msg})
	} else {
		_, _ = fmt.Fprintln(o.w, msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case StateResult:
		o.printState(v)
	case AccountResult:
		o.printAccount(v)
	case SlotsResult:
		o.printSlots(v)
	case HealthResult:
		_, _ = fmt.Fprintf(o.w, "Status: %s\n", v.Status)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// StateResult is the save manager's state after a command
type StateResult struct {
	Status   string `json:"status"`
	Level    string `json:"level"`
	SignedIn bool   `json:"signed_in"`
	PlayerID string `json:"player_id,omitempty"`
	Gold     string `json:"gold"`
	Hearts   string `json:"hearts"`
}

// AccountResult describes the signed in account
type AccountResult struct {
	ID          string `json:"id,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	SignedIn    bool   `json:"signed_in"`
	Status      string `json:"status,omitempty"`
}

// SlotResult describes one save slot
type SlotResult struct {
	Name         string    `json:"name"`
	Version      int64     `json:"version"`
	Description  string    `json:"description"`
	PlayedTime   string    `json:"played_time"`
	LastModified time.Time `json:"last_modified"`
	Conflicted   bool      `json:"conflicted"`
}

// SlotsResult lists save slots
type SlotsResult struct {
	Slots []SlotResult `json:"slots"`
}

// HealthResult response type
type HealthResult struct {
	Status string `json:"status"`
}

func (o *Output) printState(s StateResult) {
	_, _ = fmt.Fprintf(o.w, "Status: %s\n", s.Status)
	if s.PlayerID != "" {
		_, _ = fmt.Fprintf(o.w, "Player: %s\n", s.PlayerID)
	}
	_, _ = fmt.Fprintf(o.w, "Gold: %s\n", orDash(s.Gold))
	_, _ = fmt.Fprintf(o.w, "Hearts: %s\n", orDash(s.Hearts))
}

func (o *Output) printAccount(a AccountResult) {
	if a.Status != "" {
		_, _ = fmt.Fprintf(o.w, "Status: %s\n", a.Status)
	}
	if !a.SignedIn {
		_, _ = fmt.Fprintln(o.w, "Not signed in")
		return
	}
	_, _ = fmt.Fprintf(o.w, "Account: %s (%s)\n", a.DisplayName, a.ID)
}

func (o *Output) printSlots(s SlotsResult) {
	if len(s.Slots) == 0 {
		_, _ = fmt.Fprintln(o.w, "No save slots")
		return
	}
	for _, slot := range s.Slots {
		conflict := ""
		if slot.Conflicted {
			conflict = " [conflict pending]"
		}
		_, _ = fmt.Fprintf(o.w, "%s v%d played %s, %q%s\n", slot.Name, slot.Version, slot.PlayedTime, slot.Description, conflict)
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
