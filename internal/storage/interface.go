package storage

import (
	"context"

	"github.com/mcoot/savebridge/internal/model"
)

// LocalStorage is the on-device keyed record store for player data
type LocalStorage interface {
	GetPlayerData(ctx context.Context, id string) (*model.PlayerData, error)
	// SavePlayerData inserts or wholesale replaces the record with the same ID
	SavePlayerData(ctx context.Context, data *model.PlayerData) error
	// UpdatePlayerData applies fn to the stored record inside one transaction.
	// An error from fn aborts the write.
	UpdatePlayerData(ctx context.Context, id string, fn func(*model.PlayerData) error) (*model.PlayerData, error)
	DeletePlayerData(ctx context.Context, id string) error

	Close() error
}

// CloudStorage persists the cloud save service's accounts and slots
type CloudStorage interface {
	// Account operations
	SaveAccount(ctx context.Context, account *model.Account) error
	GetAccount(ctx context.Context, id model.AccountID) (*model.Account, error)
	GetAccountByUsername(ctx context.Context, username string) (*model.Account, error)

	// Slot operations
	GetSlot(ctx context.Context, userID model.AccountID, name string) (*model.Slot, error)
	SaveSlot(ctx context.Context, slot *model.Slot) error
	ListSlots(ctx context.Context, userID model.AccountID) ([]*model.Slot, error)
	DeleteSlot(ctx context.Context, userID model.AccountID, name string) error

	Close() error
}
