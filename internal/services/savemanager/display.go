package savemanager

import "sync"

// StatusLevel classifies a status message
type StatusLevel int

const (
	StatusInfo StatusLevel = iota
	StatusSuccess
	StatusWarning
	StatusError
)

func (l StatusLevel) String() string {
	switch l {
	case StatusInfo:
		return "info"
	case StatusSuccess:
		return "success"
	case StatusWarning:
		return "warning"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Display receives the texts the save manager shows to the player
type Display interface {
	SetGoldText(text string)
	SetHeartText(text string)
	SetStatusText(text string, level StatusLevel)
}

// TextDisplay keeps the latest texts in memory
type TextDisplay struct {
	mu          sync.RWMutex
	gold        string
	hearts      string
	status      string
	statusLevel StatusLevel
}

var _ Display = (*TextDisplay)(nil)

// NewTextDisplay creates an empty TextDisplay
func NewTextDisplay() *TextDisplay {
	return &TextDisplay{}
}

func (d *TextDisplay) SetGoldText(text string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.gold = text
}

func (d *TextDisplay) SetHeartText(text string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.hearts = text
}

func (d *TextDisplay) SetStatusText(text string, level StatusLevel) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.status = text
	d.statusLevel = level
}

// GoldText returns the last gold text
func (d *TextDisplay) GoldText() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.gold
}

// HeartText returns the last hearts text
func (d *TextDisplay) HeartText() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.hearts
}

// StatusText returns the last status text and its level
func (d *TextDisplay) StatusText() (string, StatusLevel) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.status, d.statusLevel
}
