package model

import (
	"fmt"
	"time"
)

// DataSource selects where an open request may read slot state from
type DataSource string

const (
	ReadCacheOrNetwork DataSource = "read_cache_or_network"
	ReadNetworkOnly    DataSource = "read_network_only"
)

// ParseDataSource converts a wire value into a DataSource
func ParseDataSource(s string) (DataSource, error) {
	switch DataSource(s) {
	case ReadCacheOrNetwork, ReadNetworkOnly:
		return DataSource(s), nil
	case "":
		return ReadCacheOrNetwork, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownDataSource, s)
}

// ConflictStrategy picks the winner when a slot holds two divergent snapshots
type ConflictStrategy string

const (
	UseLongestPlaytime   ConflictStrategy = "longest_playtime"
	UseMostRecentlySaved ConflictStrategy = "most_recently_saved"
	UseOriginal          ConflictStrategy = "original"
	UseUnmerged          ConflictStrategy = "unmerged"
)

// ParseConflictStrategy converts a wire value into a ConflictStrategy
func ParseConflictStrategy(s string) (ConflictStrategy, error) {
	switch ConflictStrategy(s) {
	case UseLongestPlaytime, UseMostRecentlySaved, UseOriginal, UseUnmerged:
		return ConflictStrategy(s), nil
	case "":
		return UseLongestPlaytime, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, s)
}

// Snapshot is one committed version of a slot's binary blob
type Snapshot struct {
	ID           string
	Version      int64
	Data         []byte
	Description  string
	PlayedTime   time.Duration
	LastModified time.Time
}

// Clone returns a deep copy of the snapshot
func (s Snapshot) Clone() Snapshot {
	c := s
	if s.Data != nil {
		c.Data = append([]byte(nil), s.Data...)
	}
	return c
}

// Slot is a named cloud-stored save record owned by one account
type Slot struct {
	UserID   AccountID
	Name     string
	Head     Snapshot
	Conflict *Snapshot // divergent commit awaiting resolution
}

// Clone returns a deep copy of the slot
func (s *Slot) Clone() *Slot {
	c := &Slot{
		UserID: s.UserID,
		Name:   s.Name,
		Head:   s.Head.Clone(),
	}
	if s.Conflict != nil {
		conflict := s.Conflict.Clone()
		c.Conflict = &conflict
	}
	return c
}

// SlotMetadata describes an opened slot; Version is the head it was opened against
type SlotMetadata struct {
	Name         string        `json:"name"`
	Version      int64         `json:"version"`
	Description  string        `json:"description"`
	PlayedTime   time.Duration `json:"played_time"`
	LastModified time.Time     `json:"last_modified"`
	IsOpen       bool          `json:"is_open"`
	Conflicted   bool          `json:"conflicted,omitempty"` // commit diverged and awaits resolution
}

// MetadataFromSlot builds the metadata handle for a slot's current head
func MetadataFromSlot(s *Slot) *SlotMetadata {
	return &SlotMetadata{
		Name:         s.Name,
		Version:      s.Head.Version,
		Description:  s.Head.Description,
		PlayedTime:   s.Head.PlayedTime,
		LastModified: s.Head.LastModified,
		IsOpen:       true,
		Conflicted:   s.Conflict != nil,
	}
}

// MetadataUpdate carries the optional metadata changes attached to a commit
type MetadataUpdate struct {
	Description *string
	PlayedTime  *time.Duration
}

// NewMetadataUpdate returns an empty update
func NewMetadataUpdate() MetadataUpdate {
	return MetadataUpdate{}
}

// WithDescription sets the human-readable description
func (u MetadataUpdate) WithDescription(d string) MetadataUpdate {
	u.Description = &d
	return u
}

// WithPlayedTime sets the total played time
func (u MetadataUpdate) WithPlayedTime(t time.Duration) MetadataUpdate {
	u.PlayedTime = &t
	return u
}
