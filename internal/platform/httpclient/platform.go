package httpclient

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strconv"
	"sync"

	"github.com/mcoot/savebridge/internal/api/request"
	"github.com/mcoot/savebridge/internal/api/response"
	"github.com/mcoot/savebridge/internal/model"
	"github.com/mcoot/savebridge/internal/platform"
)

// Platform implements platform.Platform against a remote savecloud service
type Platform struct {
	client *Client
	logger *slog.Logger

	mu      sync.RWMutex
	account *response.Account
}

var _ platform.Platform = (*Platform)(nil)

// New creates a remote platform. A non-empty token is used as-is until Restore
// confirms it or a call fails.
func New(baseURL, token string, logger *slog.Logger) *Platform {
	return &Platform{
		client: NewClient(baseURL, token),
		logger: logger,
	}
}

// Token returns the current session token, empty when signed out
func (p *Platform) Token() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.client.Token()
}

// Restore looks up the account behind a saved token. An unknown or expired token
// leaves the platform signed out.
func (p *Platform) Restore(ctx context.Context) error {
	if p.Token() == "" {
		return model.ErrNotAuthenticated
	}

	var account response.Account
	if err := p.client.Get(ctx, "/api/v1/accounts/me", &account); err != nil {
		if errors.Is(err, model.ErrNotAuthenticated) {
			p.clear()
		}
		return err
	}

	p.mu.Lock()
	p.account = &account
	p.mu.Unlock()
	return nil
}

// Register creates an account and signs in as it
func (p *Platform) Register(ctx context.Context, creds platform.Credentials, displayName string) error {
	var resp response.AuthResponse
	err := p.client.Post(ctx, "/api/v1/accounts/register", request.RegisterRequest{
		Username:    creds.Username,
		Password:    creds.Password,
		DisplayName: displayName,
	}, &resp)
	if err != nil {
		return err
	}
	p.signedIn(resp)
	return nil
}

// Authenticate logs in with the given credentials
func (p *Platform) Authenticate(ctx context.Context, creds platform.Credentials) error {
	var resp response.AuthResponse
	err := p.client.Post(ctx, "/api/v1/accounts/login", request.LoginRequest{
		Username: creds.Username,
		Password: creds.Password,
	}, &resp)
	if err != nil {
		return err
	}
	p.signedIn(resp)
	return nil
}

// SignOut ends the remote session. The local state is cleared even if the call fails.
func (p *Platform) SignOut(ctx context.Context) error {
	if p.Token() == "" {
		return nil
	}
	err := p.client.Post(ctx, "/api/v1/accounts/logout", nil, nil)
	p.clear()
	if err != nil && !errors.Is(err, model.ErrNotAuthenticated) {
		return err
	}
	return nil
}

// LocalUser returns the signed in identity
func (p *Platform) LocalUser() platform.LocalUser {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.account == nil {
		return platform.LocalUser{}
	}
	return platform.LocalUser{
		ID:            model.AccountID(p.account.ID),
		DisplayName:   p.account.DisplayName,
		Authenticated: true,
	}
}

func (p *Platform) OpenWithAutomaticConflictResolution(ctx context.Context, name string, source model.DataSource, strategy model.ConflictStrategy) (*model.SlotMetadata, error) {
	var resp response.SlotMetadata
	err := p.call(p.client.Post(ctx, slotPath(name)+"/open", request.OpenSlotRequest{
		Source:   string(source),
		Strategy: string(strategy),
	}, &resp))
	if err != nil {
		return nil, err
	}
	return resp.ToModel(), nil
}

func (p *Platform) ReadBinaryData(ctx context.Context, meta *model.SlotMetadata) ([]byte, error) {
	if meta == nil || !meta.IsOpen {
		return nil, model.ErrSlotNotOpen
	}

	var resp response.SlotData
	path := slotPath(meta.Name) + "/data?version=" + strconv.FormatInt(meta.Version, 10)
	if err := p.call(p.client.Get(ctx, path, &resp)); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

func (p *Platform) CommitUpdate(ctx context.Context, meta *model.SlotMetadata, update model.MetadataUpdate, data []byte) (*model.SlotMetadata, error) {
	if meta == nil || !meta.IsOpen {
		return nil, model.ErrSlotNotOpen
	}

	description := meta.Description
	if update.Description != nil {
		description = *update.Description
	}
	playedTime := meta.PlayedTime
	if update.PlayedTime != nil {
		playedTime = *update.PlayedTime
	}
	playedTimeMs := playedTime.Milliseconds()

	var resp response.SlotMetadata
	err := p.call(p.client.Put(ctx, slotPath(meta.Name), request.CommitSlotRequest{
		Version:      meta.Version,
		Description:  &description,
		PlayedTimeMs: &playedTimeMs,
		Data:         data,
	}, &resp))
	if err != nil {
		return nil, err
	}
	return resp.ToModel(), nil
}

// ListSlots returns metadata for every slot of the signed in account
func (p *Platform) ListSlots(ctx context.Context) ([]*model.SlotMetadata, error) {
	var resp response.SlotList
	if err := p.call(p.client.Get(ctx, "/api/v1/slots", &resp)); err != nil {
		return nil, err
	}

	metas := make([]*model.SlotMetadata, len(resp.Slots))
	for i, s := range resp.Slots {
		metas[i] = s.ToModel()
	}
	return metas, nil
}

// DeleteSlot removes a slot of the signed in account
func (p *Platform) DeleteSlot(ctx context.Context, name string) error {
	return p.call(p.client.Delete(ctx, slotPath(name)))
}

// Health checks that the service is reachable
func (p *Platform) Health(ctx context.Context) (string, error) {
	var resp response.Health
	if err := p.client.Get(ctx, "/api/v1/health", &resp); err != nil {
		return "", err
	}
	return resp.Status, nil
}

// call clears a session the server no longer accepts
func (p *Platform) call(err error) error {
	if errors.Is(err, model.ErrNotAuthenticated) {
		p.logger.Warn("session rejected by server, signing out")
		p.clear()
	}
	return err
}

func (p *Platform) signedIn(resp response.AuthResponse) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.client.SetToken(resp.SessionToken)
	account := resp.Account
	p.account = &account
}

func (p *Platform) clear() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.client.SetToken("")
	p.account = nil
}

func slotPath(name string) string {
	return "/api/v1/slots/" + url.PathEscape(name)
}
