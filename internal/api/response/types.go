package response

import (
	"time"

	"github.com/mcoot/savebridge/internal/model"
	"github.com/mcoot/savebridge/internal/services/auth"
)

// Account represents an account in API responses
type Account struct {
	ID          string `json:"id"`
	Username    string `json:"username,omitempty"`
	DisplayName string `json:"display_name"`
}

// AccountFromModel converts a model.Account to a response Account
func AccountFromModel(a *model.Account) Account {
	return Account{
		ID:          string(a.ID),
		Username:    a.Username,
		DisplayName: a.DisplayName,
	}
}

// AuthResponse is the response for authentication endpoints
type AuthResponse struct {
	Account      Account `json:"account"`
	SessionToken string  `json:"session_token"`
}

// AuthResponseFromSession creates an AuthResponse from a session
func AuthResponseFromSession(s *auth.Session) AuthResponse {
	return AuthResponse{
		Account: Account{
			ID:          string(s.AccountID),
			DisplayName: s.DisplayName,
		},
		SessionToken: s.Token,
	}
}

// SlotMetadata represents an opened or listed save slot
type SlotMetadata struct {
	Name         string    `json:"name"`
	Version      int64     `json:"version"`
	Description  string    `json:"description"`
	PlayedTimeMs int64     `json:"played_time_ms"`
	LastModified time.Time `json:"last_modified"`
	IsOpen       bool      `json:"is_open"`
	Conflicted   bool      `json:"conflicted,omitempty"`
}

// SlotMetadataFromModel converts model.SlotMetadata
func SlotMetadataFromModel(m *model.SlotMetadata) SlotMetadata {
	return SlotMetadata{
		Name:         m.Name,
		Version:      m.Version,
		Description:  m.Description,
		PlayedTimeMs: m.PlayedTime.Milliseconds(),
		LastModified: m.LastModified,
		IsOpen:       m.IsOpen,
		Conflicted:   m.Conflicted,
	}
}

// ToModel converts the response back into model.SlotMetadata
func (m SlotMetadata) ToModel() *model.SlotMetadata {
	return &model.SlotMetadata{
		Name:         m.Name,
		Version:      m.Version,
		Description:  m.Description,
		PlayedTime:   time.Duration(m.PlayedTimeMs) * time.Millisecond,
		LastModified: m.LastModified,
		IsOpen:       m.IsOpen,
		Conflicted:   m.Conflicted,
	}
}

// SlotData carries a slot's binary blob
type SlotData struct {
	Data []byte `json:"data"` // base64 on the wire
}

// SlotList is the response for listing slots
type SlotList struct {
	Slots []SlotMetadata `json:"slots"`
}

// SlotListFromModel converts a list of model.SlotMetadata
func SlotListFromModel(metas []*model.SlotMetadata) SlotList {
	slots := make([]SlotMetadata, len(metas))
	for i, m := range metas {
		slots[i] = SlotMetadataFromModel(m)
	}
	return SlotList{Slots: slots}
}

// Health is the response for the health endpoint
type Health struct {
	Status string `json:"status"`
}
