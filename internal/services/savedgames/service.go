package savedgames

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/mcoot/savebridge/internal/dependencies/clock"
	"github.com/mcoot/savebridge/internal/model"
	"github.com/mcoot/savebridge/internal/storage"
)

var slotNamePattern = regexp.MustCompile(`^[A-Za-z0-9._-]{1,100}$`)

// Config holds configuration for the saved games service
type Config struct {
	// CacheTTL bounds how stale a ReadCacheOrNetwork open may be (0 disables the cache)
	CacheTTL time.Duration
	// CacheSize bounds the number of cached slots (0 means DefaultCacheSize)
	CacheSize int
}

// DefaultCacheSize is the read cache bound when Config.CacheSize is unset
const DefaultCacheSize = 1024

// DefaultConfig returns default saved games configuration
func DefaultConfig() Config {
	return Config{
		CacheTTL:  5 * time.Second,
		CacheSize: DefaultCacheSize,
	}
}

type cacheKey struct {
	userID model.AccountID
	name   string
}

type cacheEntry struct {
	slot     *model.Slot
	cachedAt time.Time
}

// Service owns cloud save slots: opening with conflict resolution, reads and commits
type Service struct {
	storage storage.CloudStorage
	clock   clock.Clock
	logger  *slog.Logger
	cfg     Config

	// mu serialises slot read-modify-write cycles
	mu sync.Mutex
	// cache is nil when CacheTTL is not positive
	cache *expirable.LRU[cacheKey, cacheEntry]
}

// New creates a new saved games service
func New(storage storage.CloudStorage, clock clock.Clock, cfg Config, logger *slog.Logger) *Service {
	s := &Service{
		storage: storage,
		clock:   clock,
		logger:  logger,
		cfg:     cfg,
	}
	if cfg.CacheTTL > 0 {
		size := cfg.CacheSize
		if size <= 0 {
			size = DefaultCacheSize
		}
		s.cache = expirable.NewLRU[cacheKey, cacheEntry](size, nil, cfg.CacheTTL)
	}
	return s
}

// ValidateSlotName checks that a slot name is usable as a storage key
func ValidateSlotName(name string) error {
	if !slotNamePattern.MatchString(name) {
		return fmt.Errorf("%w: %q", model.ErrInvalidSlotName, name)
	}
	return nil
}

// Open opens the named slot, creating it empty if needed. A pending conflict is
// resolved with strategy before the handle is returned.
func (s *Service) Open(ctx context.Context, userID model.AccountID, name string, source model.DataSource, strategy model.ConflictStrategy) (*model.SlotMetadata, error) {
	if err := ValidateSlotName(name); err != nil {
		return nil, err
	}
	if _, err := model.ParseConflictStrategy(string(strategy)); err != nil || strategy == "" {
		return nil, fmt.Errorf("%w: %q", model.ErrUnknownStrategy, strategy)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	slot, err := s.loadSlot(ctx, userID, name, source)
	if err == nil && slot.Conflict != nil && source == model.ReadCacheOrNetwork {
		// Resolution writes the head, so it must start from storage
		slot, err = s.loadSlot(ctx, userID, name, model.ReadNetworkOnly)
	}
	if errors.Is(err, model.ErrSlotNotFound) {
		slot = &model.Slot{
			UserID: userID,
			Name:   name,
			Head: model.Snapshot{
				ID:           uuid.NewString(),
				LastModified: s.clock.Now(),
			},
		}
		if err := s.saveSlot(ctx, slot); err != nil {
			return nil, err
		}
		s.logger.Info("save slot created",
			slog.String("user_id", string(userID)),
			slog.String("slot", name),
		)
	} else if err != nil {
		return nil, err
	}

	if slot.Conflict != nil {
		winner, err := Resolve(strategy, slot.Head, *slot.Conflict)
		if err != nil {
			return nil, err
		}

		s.logger.Info("save slot conflict resolved",
			slog.String("user_id", string(userID)),
			slog.String("slot", name),
			slog.String("strategy", string(strategy)),
			slog.String("winner", winner.ID),
			slog.Int64("head_version", slot.Head.Version),
		)

		head := winner.Clone()
		head.Version = slot.Head.Version + 1
		slot.Head = head
		slot.Conflict = nil
		if err := s.saveSlot(ctx, slot); err != nil {
			return nil, err
		}
	}

	return model.MetadataFromSlot(slot), nil
}

// ReadBinaryData returns the blob of the slot's current head. A fresh slot has no data.
// The handle must have been opened against the current head.
func (s *Service) ReadBinaryData(ctx context.Context, userID model.AccountID, meta *model.SlotMetadata) ([]byte, error) {
	if meta == nil || !meta.IsOpen {
		return nil, model.ErrSlotNotOpen
	}

	slot, err := s.storage.GetSlot(ctx, userID, meta.Name)
	if err != nil {
		if errors.Is(err, model.ErrSlotNotFound) {
			s.evict(userID, meta.Name)
		}
		return nil, err
	}
	if slot.Head.Version != meta.Version {
		s.evict(userID, meta.Name)
		return nil, fmt.Errorf("%w: opened version %d, head version %d", model.ErrStaleHandle, meta.Version, slot.Head.Version)
	}

	if len(slot.Head.Data) == 0 {
		return nil, nil
	}
	return append([]byte(nil), slot.Head.Data...), nil
}

// CommitUpdate writes data to the slot opened by meta and closes the handle.
// A commit against a head that has since moved on is kept as a conflict instead of
// overwriting, and is resolved on the next Open.
func (s *Service) CommitUpdate(ctx context.Context, userID model.AccountID, meta *model.SlotMetadata, update model.MetadataUpdate, data []byte) (*model.SlotMetadata, error) {
	if meta == nil || !meta.IsOpen {
		return nil, model.ErrSlotNotOpen
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	slot, err := s.storage.GetSlot(ctx, userID, meta.Name)
	if err != nil {
		return nil, err
	}

	snapshot := model.Snapshot{
		ID:           uuid.NewString(),
		Data:         append([]byte(nil), data...),
		Description:  meta.Description,
		PlayedTime:   meta.PlayedTime,
		LastModified: s.clock.Now(),
	}
	if update.Description != nil {
		snapshot.Description = *update.Description
	}
	if update.PlayedTime != nil {
		snapshot.PlayedTime = *update.PlayedTime
	}

	conflicted := meta.Version != slot.Head.Version
	if conflicted {
		snapshot.Version = meta.Version
		slot.Conflict = &snapshot
		s.logger.Warn("save slot commit diverged",
			slog.String("user_id", string(userID)),
			slog.String("slot", meta.Name),
			slog.Int64("opened_version", meta.Version),
			slog.Int64("head_version", slot.Head.Version),
		)
	} else {
		snapshot.Version = slot.Head.Version + 1
		slot.Head = snapshot
	}

	if err := s.saveSlot(ctx, slot); err != nil {
		return nil, err
	}

	return &model.SlotMetadata{
		Name:         meta.Name,
		Version:      snapshot.Version,
		Description:  snapshot.Description,
		PlayedTime:   snapshot.PlayedTime,
		LastModified: snapshot.LastModified,
		IsOpen:       false,
		Conflicted:   conflicted,
	}, nil
}

// ListSlots returns metadata for every slot the user owns
func (s *Service) ListSlots(ctx context.Context, userID model.AccountID) ([]*model.SlotMetadata, error) {
	slots, err := s.storage.ListSlots(ctx, userID)
	if err != nil {
		return nil, err
	}

	result := make([]*model.SlotMetadata, 0, len(slots))
	for _, slot := range slots {
		meta := model.MetadataFromSlot(slot)
		meta.IsOpen = false
		result = append(result, meta)
	}
	return result, nil
}

// DeleteSlot removes a slot and any pending conflict
func (s *Service) DeleteSlot(ctx context.Context, userID model.AccountID, name string) error {
	if err := ValidateSlotName(name); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.storage.GetSlot(ctx, userID, name); err != nil {
		return err
	}
	s.evict(userID, name)
	return s.storage.DeleteSlot(ctx, userID, name)
}

func (s *Service) loadSlot(ctx context.Context, userID model.AccountID, name string, source model.DataSource) (*model.Slot, error) {
	key := cacheKey{userID: userID, name: name}
	if source == model.ReadCacheOrNetwork && s.cache != nil {
		// The LRU expires on wall time; the injected clock decides staleness
		if entry, ok := s.cache.Get(key); ok && s.clock.Now().Sub(entry.cachedAt) < s.cfg.CacheTTL {
			return entry.slot.Clone(), nil
		}
	}

	slot, err := s.storage.GetSlot(ctx, userID, name)
	if err != nil {
		if errors.Is(err, model.ErrSlotNotFound) {
			s.evict(userID, name)
		}
		return nil, err
	}
	s.remember(slot)
	return slot, nil
}

func (s *Service) saveSlot(ctx context.Context, slot *model.Slot) error {
	if err := s.storage.SaveSlot(ctx, slot); err != nil {
		return err
	}
	s.remember(slot)
	return nil
}

func (s *Service) remember(slot *model.Slot) {
	if s.cache == nil {
		return
	}
	s.cache.Add(cacheKey{userID: slot.UserID, name: slot.Name}, cacheEntry{slot: slot.Clone(), cachedAt: s.clock.Now()})
}

func (s *Service) evict(userID model.AccountID, name string) {
	if s.cache == nil {
		return
	}
	s.cache.Remove(cacheKey{userID: userID, name: name})
}
