// Package embedded runs the cloud save services in-process.
package embedded

import (
	"context"
	"log/slog"
	"sync"

	"github.com/mcoot/savebridge/internal/model"
	"github.com/mcoot/savebridge/internal/platform"
	"github.com/mcoot/savebridge/internal/services/auth"
	"github.com/mcoot/savebridge/internal/services/savedgames"
)

// Platform implements platform.Platform directly on top of the services
type Platform struct {
	auth       *auth.Service
	savedGames *savedgames.Service
	logger     *slog.Logger

	mu      sync.RWMutex
	session *auth.Session
}

var _ platform.Platform = (*Platform)(nil)

// New creates an in-process platform
func New(authService *auth.Service, savedGames *savedgames.Service, logger *slog.Logger) *Platform {
	return &Platform{
		auth:       authService,
		savedGames: savedGames,
		logger:     logger,
	}
}

// Authenticate logs in with the given credentials
func (p *Platform) Authenticate(ctx context.Context, creds platform.Credentials) error {
	session, err := p.auth.Login(ctx, creds.Username, creds.Password)
	if err != nil {
		return err
	}

	p.mu.Lock()
	p.session = session
	p.mu.Unlock()

	p.logger.Info("signed in", slog.String("account_id", string(session.AccountID)))
	return nil
}

// SignOut drops the current session, if any
func (p *Platform) SignOut(_ context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.session != nil {
		p.auth.InvalidateSession(p.session.Token)
		p.session = nil
	}
	return nil
}

// LocalUser returns the signed in identity. An expired session reads as signed out.
func (p *Platform) LocalUser() platform.LocalUser {
	session, err := p.currentSession()
	if err != nil {
		return platform.LocalUser{}
	}
	return platform.LocalUser{
		ID:            session.AccountID,
		DisplayName:   session.DisplayName,
		Authenticated: true,
	}
}

func (p *Platform) OpenWithAutomaticConflictResolution(ctx context.Context, name string, source model.DataSource, strategy model.ConflictStrategy) (*model.SlotMetadata, error) {
	session, err := p.currentSession()
	if err != nil {
		return nil, err
	}
	return p.savedGames.Open(ctx, session.AccountID, name, source, strategy)
}

func (p *Platform) ReadBinaryData(ctx context.Context, meta *model.SlotMetadata) ([]byte, error) {
	session, err := p.currentSession()
	if err != nil {
		return nil, err
	}
	return p.savedGames.ReadBinaryData(ctx, session.AccountID, meta)
}

func (p *Platform) CommitUpdate(ctx context.Context, meta *model.SlotMetadata, update model.MetadataUpdate, data []byte) (*model.SlotMetadata, error) {
	session, err := p.currentSession()
	if err != nil {
		return nil, err
	}
	return p.savedGames.CommitUpdate(ctx, session.AccountID, meta, update, data)
}

func (p *Platform) currentSession() (*auth.Session, error) {
	p.mu.RLock()
	session := p.session
	p.mu.RUnlock()

	if session == nil {
		return nil, model.ErrNotAuthenticated
	}
	if _, err := p.auth.ValidateSession(session.Token); err != nil {
		return nil, model.ErrNotAuthenticated
	}
	return session, nil
}
