package redis

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/savebridge/internal/model"
	"github.com/mcoot/savebridge/internal/storage"
)

// Storage is a Redis-backed implementation of cloud storage
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.CloudStorage = (*Storage)(nil)

// Account operations

func (s *Storage) SaveAccount(ctx context.Context, account *model.Account) error {
	data, err := json.Marshal(account)
	if err != nil {
		return err
	}

	// Use pipeline for atomic save + index update
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, accountKey(account.ID), data, 0)
	pipe.Set(ctx, usernameIndexKey(account.Username), string(account.ID), 0)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetAccount(ctx context.Context, id model.AccountID) (*model.Account, error) {
	data, err := s.client.Get(ctx, accountKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrAccountNotFound
		}
		return nil, err
	}

	var account model.Account
	if err := json.Unmarshal(data, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

func (s *Storage) GetAccountByUsername(ctx context.Context, username string) (*model.Account, error) {
	id, err := s.client.Get(ctx, usernameIndexKey(username)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrAccountNotFound
		}
		return nil, err
	}

	return s.GetAccount(ctx, model.AccountID(id))
}

// Slot operations

func (s *Storage) GetSlot(ctx context.Context, userID model.AccountID, name string) (*model.Slot, error) {
	data, err := s.client.Get(ctx, slotKey(userID, name)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrSlotNotFound
		}
		return nil, err
	}

	var slot model.Slot
	if err := json.Unmarshal(data, &slot); err != nil {
		return nil, err
	}
	return &slot, nil
}

func (s *Storage) SaveSlot(ctx context.Context, slot *model.Slot) error {
	data, err := json.Marshal(slot)
	if err != nil {
		return err
	}

	key := slotKey(slot.UserID, slot.Name)
	indexKey := slotsForUserIndexKey(slot.UserID)

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, key, data, s.cfg.SlotTTL)
	pipe.SAdd(ctx, indexKey, key)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) ListSlots(ctx context.Context, userID model.AccountID) ([]*model.Slot, error) {
	indexKey := slotsForUserIndexKey(userID)

	keys, err := s.client.SMembers(ctx, indexKey).Result()
	if err != nil {
		return nil, err
	}

	if len(keys) == 0 {
		return []*model.Slot{}, nil
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	slots := make([]*model.Slot, 0, len(values))
	for i, val := range values {
		if val == nil {
			// Slot expired; drop the stale index entry
			s.client.SRem(ctx, indexKey, keys[i])
			continue
		}
		str, ok := val.(string)
		if !ok {
			continue
		}
		var slot model.Slot
		if err := json.Unmarshal([]byte(str), &slot); err != nil {
			continue // Skip invalid data
		}
		slots = append(slots, &slot)
	}

	sort.Slice(slots, func(i, j int) bool { return slots[i].Name < slots[j].Name })
	return slots, nil
}

func (s *Storage) DeleteSlot(ctx context.Context, userID model.AccountID, name string) error {
	key := slotKey(userID, name)

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, key)
	pipe.SRem(ctx, slotsForUserIndexKey(userID), key)
	_, err := pipe.Exec(ctx)
	return err
}
