// Package savemanager keeps the player's counters in sync between the local store and
// the cloud save platform.
package savemanager

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/mcoot/savebridge/internal/dependencies/clock"
	"github.com/mcoot/savebridge/internal/model"
	"github.com/mcoot/savebridge/internal/platform"
	"github.com/mcoot/savebridge/internal/storage"
)

// Status messages
const (
	StatusNotAuthenticated    = "Not Authenticated"
	StatusLoadingLocal        = "Not Authenticated, Loading Local Save Data"
	StatusOpened              = "Save Game Opened Successfully"
	StatusOpenFailed          = "Save Game Open Failed"
	StatusSaved               = "Successfully Saved Data"
	StatusLoaded              = "Successfully Loaded Data"
	StatusAuthenticating      = "Authenticating..."
	StatusAuthenticated       = "Successfully Authenticated!"
	StatusSignedOut           = "Signed Out"
	statusSaveFailedPrefix    = "Failed To Save Data. Status: "
	statusLoadFailedPrefix    = "Failed To Load Data. Status: "
	statusAuthFailedPrefix    = "Failed To Authenticate! "
	descriptionTimestampStyle = time.DateTime
)

// OpenReason is the pending intent of a slot open
type OpenReason int

const (
	ReasonLoad OpenReason = iota
	ReasonSave
)

func (r OpenReason) String() string {
	if r == ReasonSave {
		return "save"
	}
	return "load"
}

// OfflineBackend selects what happens when data is requested while signed out
type OfflineBackend string

const (
	// OfflineLocal falls back to the record stored under model.DefaultPlayerID
	OfflineLocal OfflineBackend = "local"
	// OfflineFail reports the missing identity as a failure
	OfflineFail OfflineBackend = "fail"
)

// ParseOfflineBackend parses an offline backend name, defaulting to OfflineLocal
func ParseOfflineBackend(s string) (OfflineBackend, error) {
	switch OfflineBackend(s) {
	case "", OfflineLocal:
		return OfflineLocal, nil
	case OfflineFail:
		return OfflineFail, nil
	default:
		return "", fmt.Errorf("unknown offline backend %q", s)
	}
}

// Config holds configuration for the save manager
type Config struct {
	SlotName string
	Offline  OfflineBackend
}

// DefaultConfig returns default save manager configuration
func DefaultConfig() Config {
	return Config{
		SlotName: "SaveGame",
		Offline:  OfflineLocal,
	}
}

// Manager orchestrates sign in, load and save of the player's data.
// Operations are serialised: one outstanding call at a time.
type Manager struct {
	platform platform.Platform
	local    storage.LocalStorage
	display  Display
	clock    clock.Clock
	cfg      Config
	logger   *slog.Logger

	mu           sync.Mutex
	data         *model.PlayerData
	reason       OpenReason
	status       string
	sessionStart time.Time

	closeOnce sync.Once
	closeErr  error
}

// New creates a save manager. local may be nil, in which case counters live only in
// memory and the offline fallback is unavailable.
func New(p platform.Platform, local storage.LocalStorage, display Display, clk clock.Clock, cfg Config, logger *slog.Logger) *Manager {
	defaults := DefaultConfig()
	if cfg.SlotName == "" {
		cfg.SlotName = defaults.SlotName
	}
	if cfg.Offline == "" {
		cfg.Offline = defaults.Offline
	}

	m := &Manager{
		platform:     p,
		local:        local,
		display:      display,
		clock:        clk,
		cfg:          cfg,
		logger:       logger,
		sessionStart: clk.Now(),
	}
	m.setStatus(StatusNotAuthenticated, StatusInfo)
	return m
}

// SignIn authenticates against the platform. Player data is left untouched.
func (m *Manager) SignIn(ctx context.Context, creds platform.Credentials) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.setStatus(StatusAuthenticating, StatusInfo)
	if err := m.platform.Authenticate(ctx, creds); err != nil {
		m.setStatus(statusAuthFailedPrefix+err.Error(), StatusError)
		return fmt.Errorf("authenticate: %w", err)
	}

	m.setStatus(StatusAuthenticated, StatusSuccess)
	return nil
}

// SignOut ends the platform session
func (m *Manager) SignOut(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	err := m.platform.SignOut(ctx)
	m.setStatus(StatusSignedOut, StatusInfo)
	return err
}

// LoadData pulls the player's data from the cloud slot, or from the local default
// record when signed out.
func (m *Manager) LoadData(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.open(ctx, ReasonLoad)
}

// SaveData pushes the current player data to the cloud slot
func (m *Manager) SaveData(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.open(ctx, ReasonSave)
}

// Resume picks up the local record for the current identity, creating a zero
// record if none exists yet. No platform calls are made.
func (m *Manager) Resume(ctx context.Context) error {
	return m.resume(ctx, true)
}

// ResumeExisting is Resume without the creation step: it returns ErrNoPlayerData
// when the current identity has no local record.
func (m *Manager) ResumeExisting(ctx context.Context) error {
	return m.resume(ctx, false)
}

func (m *Manager) resume(ctx context.Context, create bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := model.DefaultPlayerID
	if user := m.platform.LocalUser(); user.Authenticated {
		id = string(user.ID)
	}

	var (
		data *model.PlayerData
		err  error
	)
	if create {
		data, err = m.findOrCreateLocal(ctx, id)
	} else {
		data, err = m.findLocal(ctx, id)
	}
	if err != nil {
		return err
	}
	m.data = data
	m.refreshTexts()
	return nil
}

// AddGold increments the gold counter
func (m *Manager) AddGold(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := m.update(ctx, func(d *model.PlayerData) { d.AddGold() })
	if err != nil {
		return err
	}
	m.display.SetGoldText(strconv.Itoa(data.Gold))
	return nil
}

// AddHearts increments the hearts counter
func (m *Manager) AddHearts(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := m.update(ctx, func(d *model.PlayerData) { d.AddHearts() })
	if err != nil {
		return err
	}
	m.display.SetHeartText(strconv.Itoa(data.Hearts))
	return nil
}

// PlayerData returns a copy of the current data, or nil if nothing is loaded
func (m *Manager) PlayerData() *model.PlayerData {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.data == nil {
		return nil
	}
	return m.data.Clone()
}

// Status returns the last status message
func (m *Manager) Status() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// Close disposes the local storage. Safe to call more than once.
func (m *Manager) Close() error {
	m.closeOnce.Do(func() {
		if m.local != nil {
			m.closeErr = m.local.Close()
		}
	})
	return m.closeErr
}

func (m *Manager) open(ctx context.Context, reason OpenReason) error {
	user := m.platform.LocalUser()
	if !user.Authenticated {
		return m.openOffline(ctx)
	}

	if reason == ReasonSave && m.data == nil {
		m.setStatus(statusSaveFailedPrefix+model.ErrNoPlayerData.Error(), StatusError)
		return model.ErrNoPlayerData
	}

	m.reason = reason
	meta, err := m.platform.OpenWithAutomaticConflictResolution(ctx, m.cfg.SlotName, model.ReadCacheOrNetwork, model.UseLongestPlaytime)
	if err != nil {
		m.setStatus(StatusOpenFailed, StatusError)
		m.logger.Error("failed to open save slot",
			slog.String("slot", m.cfg.SlotName),
			slog.String("reason", reason.String()),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("open slot %s: %w", m.cfg.SlotName, err)
	}
	m.setStatus(StatusOpened, StatusSuccess)

	switch m.reason {
	case ReasonSave:
		return m.save(ctx, meta)
	default:
		return m.load(ctx, user, meta)
	}
}

func (m *Manager) openOffline(ctx context.Context) error {
	if m.cfg.Offline == OfflineFail || m.local == nil {
		m.setStatus(StatusNotAuthenticated, StatusError)
		return model.ErrNotAuthenticated
	}

	m.setStatus(StatusLoadingLocal, StatusWarning)
	data, err := m.findOrCreateLocal(ctx, model.DefaultPlayerID)
	if err != nil {
		return err
	}
	m.data = data
	m.refreshTexts()
	return nil
}

func (m *Manager) save(ctx context.Context, meta *model.SlotMetadata) error {
	now := m.clock.Now()
	update := model.NewMetadataUpdate().
		WithDescription("Saved At " + now.Format(descriptionTimestampStyle)).
		WithPlayedTime(meta.PlayedTime + now.Sub(m.sessionStart))

	committed, err := m.platform.CommitUpdate(ctx, meta, update, m.data.Bytes())
	if err != nil {
		m.setStatus(statusSaveFailedPrefix+err.Error(), StatusError)
		return fmt.Errorf("commit slot %s: %w", meta.Name, err)
	}

	m.sessionStart = now
	m.setStatus(StatusSaved, StatusSuccess)
	m.logger.Info("saved player data",
		slog.String("slot", committed.Name),
		slog.Int64("version", committed.Version),
		slog.Bool("conflicted", committed.Conflicted),
	)
	return nil
}

func (m *Manager) load(ctx context.Context, user platform.LocalUser, meta *model.SlotMetadata) error {
	blob, err := m.platform.ReadBinaryData(ctx, meta)
	if err != nil {
		m.setStatus(statusLoadFailedPrefix+err.Error(), StatusError)
		return fmt.Errorf("read slot %s: %w", meta.Name, err)
	}

	id := string(user.ID)
	var data *model.PlayerData
	if len(blob) == 0 {
		data = model.NewPlayerData(id)
	} else {
		data, err = model.ParsePlayerData(id, string(blob))
		if err != nil {
			m.setStatus(statusLoadFailedPrefix+err.Error(), StatusError)
			return err
		}
	}

	if m.local != nil {
		if err := m.local.SavePlayerData(ctx, data); err != nil {
			m.setStatus(statusLoadFailedPrefix+err.Error(), StatusError)
			return fmt.Errorf("store loaded data: %w", err)
		}
	}

	m.data = data
	m.sessionStart = m.clock.Now()
	m.setStatus(StatusLoaded, StatusSuccess)
	m.refreshTexts()
	return nil
}

func (m *Manager) findLocal(ctx context.Context, id string) (*model.PlayerData, error) {
	if m.local == nil {
		if m.data != nil && m.data.ID == id {
			return m.data, nil
		}
		return nil, model.ErrNoPlayerData
	}

	data, err := m.local.GetPlayerData(ctx, id)
	if errors.Is(err, model.ErrPlayerDataNotFound) {
		return nil, fmt.Errorf("%w: no local record for %s", model.ErrNoPlayerData, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get local player data: %w", err)
	}
	return data, nil
}

func (m *Manager) findOrCreateLocal(ctx context.Context, id string) (*model.PlayerData, error) {
	if m.local == nil {
		if m.data != nil && m.data.ID == id {
			return m.data, nil
		}
		return model.NewPlayerData(id), nil
	}

	data, err := m.local.GetPlayerData(ctx, id)
	if err == nil {
		return data, nil
	}
	if !errors.Is(err, model.ErrPlayerDataNotFound) {
		return nil, fmt.Errorf("get local player data: %w", err)
	}

	data = model.NewPlayerData(id)
	if err := m.local.SavePlayerData(ctx, data); err != nil {
		return nil, fmt.Errorf("create local player data: %w", err)
	}
	return data, nil
}

// update applies fn to the current data, inside a local transaction when a local
// store is configured
func (m *Manager) update(ctx context.Context, fn func(*model.PlayerData)) (*model.PlayerData, error) {
	if m.data == nil {
		return nil, model.ErrNoPlayerData
	}

	if m.local == nil {
		fn(m.data)
		return m.data, nil
	}

	updated, err := m.local.UpdatePlayerData(ctx, m.data.ID, func(d *model.PlayerData) error {
		fn(d)
		return nil
	})
	if errors.Is(err, model.ErrPlayerDataNotFound) {
		updated = m.data.Clone()
		fn(updated)
		err = m.local.SavePlayerData(ctx, updated)
	}
	if err != nil {
		return nil, fmt.Errorf("update local player data: %w", err)
	}

	m.data = updated
	return updated, nil
}

func (m *Manager) refreshTexts() {
	if m.data == nil {
		return
	}
	m.display.SetGoldText(strconv.Itoa(m.data.Gold))
	m.display.SetHeartText(strconv.Itoa(m.data.Hearts))
}

func (m *Manager) setStatus(text string, level StatusLevel) {
	m.status = text
	m.display.SetStatusText(text, level)
}
