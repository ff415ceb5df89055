package model

import "errors"

// Common errors used across the application
var (
	// Player data errors
	ErrPlayerDataNotFound = errors.New("player data not found")
	ErrMalformedSaveData  = errors.New("malformed save data")
	ErrNoPlayerData       = errors.New("no player data loaded")

	// Account errors
	ErrAccountNotFound  = errors.New("account not found")
	ErrNotAuthenticated = errors.New("not authenticated")

	// Slot errors
	ErrSlotNotFound      = errors.New("save slot not found")
	ErrInvalidSlotName   = errors.New("invalid save slot name")
	ErrSlotNotOpen       = errors.New("save slot has not been opened")
	ErrStaleHandle       = errors.New("save slot has changed since it was opened")
	ErrUnknownStrategy   = errors.New("unknown conflict resolution strategy")
	ErrUnknownDataSource = errors.New("unknown data source")
)
