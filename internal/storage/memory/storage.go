package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/mcoot/savebridge/internal/model"
	"github.com/mcoot/savebridge/internal/storage"
)

// Storage is an in-memory implementation of both storage interfaces
type Storage struct {
	mu sync.RWMutex

	playerData    map[string]*model.PlayerData
	accounts      map[model.AccountID]*model.Account
	usernameIndex map[string]model.AccountID
	slots         map[slotKey]*model.Slot
}

type slotKey struct {
	userID model.AccountID
	name   string
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		playerData:    make(map[string]*model.PlayerData),
		accounts:      make(map[model.AccountID]*model.Account),
		usernameIndex: make(map[string]model.AccountID),
		slots:         make(map[slotKey]*model.Slot),
	}
}

// Ensure Storage implements the interfaces
var (
	_ storage.LocalStorage = (*Storage)(nil)
	_ storage.CloudStorage = (*Storage)(nil)
)

// Close is a no-op for in-memory storage
func (s *Storage) Close() error {
	return nil
}

// Player data operations

func (s *Storage) GetPlayerData(ctx context.Context, id string) (*model.PlayerData, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.playerData[id]
	if !ok {
		return nil, model.ErrPlayerDataNotFound
	}
	return data.Clone(), nil
}

func (s *Storage) SavePlayerData(ctx context.Context, data *model.PlayerData) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playerData[data.ID] = data.Clone()
	return nil
}

func (s *Storage) UpdatePlayerData(ctx context.Context, id string, fn func(*model.PlayerData) error) (*model.PlayerData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.playerData[id]
	if !ok {
		return nil, model.ErrPlayerDataNotFound
	}

	// Work on a copy so a failed fn leaves the stored record untouched
	updated := current.Clone()
	if err := fn(updated); err != nil {
		return nil, err
	}
	updated.ID = id
	s.playerData[id] = updated
	return updated.Clone(), nil
}

func (s *Storage) DeletePlayerData(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.playerData, id)
	return nil
}

// Account operations

func (s *Storage) SaveAccount(ctx context.Context, account *model.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := *account
	s.accounts[account.ID] = &a
	s.usernameIndex[account.Username] = account.ID
	return nil
}

func (s *Storage) GetAccount(ctx context.Context, id model.AccountID) (*model.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	account, ok := s.accounts[id]
	if !ok {
		return nil, model.ErrAccountNotFound
	}
	a := *account
	return &a, nil
}

func (s *Storage) GetAccountByUsername(ctx context.Context, username string) (*model.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.usernameIndex[username]
	if !ok {
		return nil, model.ErrAccountNotFound
	}
	account, ok := s.accounts[id]
	if !ok {
		return nil, model.ErrAccountNotFound
	}
	a := *account
	return &a, nil
}

// Slot operations

func (s *Storage) GetSlot(ctx context.Context, userID model.AccountID, name string) (*model.Slot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	slot, ok := s.slots[slotKey{userID: userID, name: name}]
	if !ok {
		return nil, model.ErrSlotNotFound
	}
	return slot.Clone(), nil
}

func (s *Storage) SaveSlot(ctx context.Context, slot *model.Slot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slots[slotKey{userID: slot.UserID, name: slot.Name}] = slot.Clone()
	return nil
}

func (s *Storage) ListSlots(ctx context.Context, userID model.AccountID) ([]*model.Slot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var slots []*model.Slot
	for key, slot := range s.slots {
		if key.userID == userID {
			slots = append(slots, slot.Clone())
		}
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i].Name < slots[j].Name })
	return slots, nil
}

func (s *Storage) DeleteSlot(ctx context.Context, userID model.AccountID, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.slots, slotKey{userID: userID, name: name})
	return nil
}
