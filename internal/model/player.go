package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// DefaultPlayerID keys the local record used when no platform identity is available
const DefaultPlayerID = "default_id"

// PlayerData is the persisted player state: two non-negative counters
type PlayerData struct {
	ID     string `json:"id"`
	Gold   int    `json:"gold"`
	Hearts int    `json:"hearts"`
}

// NewPlayerData creates a zero-valued record for the given id
func NewPlayerData(id string) *PlayerData {
	return &PlayerData{ID: id}
}

// ParsePlayerData reconstructs a record from its "<gold>,<hearts>" text form
func ParsePlayerData(id, text string) (*PlayerData, error) {
	fields := strings.Split(text, ",")
	if len(fields) != 2 {
		return nil, fmt.Errorf("%w: expected 2 fields, got %d", ErrMalformedSaveData, len(fields))
	}

	gold, err := parseCounter(fields[0])
	if err != nil {
		return nil, fmt.Errorf("%w: gold: %v", ErrMalformedSaveData, err)
	}
	hearts, err := parseCounter(fields[1])
	if err != nil {
		return nil, fmt.Errorf("%w: hearts: %v", ErrMalformedSaveData, err)
	}

	return &PlayerData{ID: id, Gold: gold, Hearts: hearts}, nil
}

// parseCounter accepts only the canonical decimal form String produces
func parseCounter(field string) (int, error) {
	if field == "" {
		return 0, errors.New("empty value")
	}
	if strings.HasPrefix(field, "-") {
		return 0, fmt.Errorf("negative value %q", field)
	}
	for _, c := range field {
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("non-digit in %q", field)
		}
	}
	if len(field) > 1 && field[0] == '0' {
		return 0, fmt.Errorf("leading zero in %q", field)
	}
	return strconv.Atoi(field)
}

// String returns the persisted text form
func (p *PlayerData) String() string {
	return fmt.Sprintf("%d,%d", p.Gold, p.Hearts)
}

// Bytes returns the UTF-8 encoding of the text form, as stored in a save slot
func (p *PlayerData) Bytes() []byte {
	return []byte(p.String())
}

// AddGold increments the gold counter
func (p *PlayerData) AddGold() {
	p.Gold++
}

// AddHearts increments the hearts counter
func (p *PlayerData) AddHearts() {
	p.Hearts++
}

// Clone returns a copy of the record
func (p *PlayerData) Clone() *PlayerData {
	c := *p
	return &c
}
