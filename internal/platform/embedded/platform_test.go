package embedded

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/savebridge/internal/dependencies/mocks"
	"github.com/mcoot/savebridge/internal/model"
	"github.com/mcoot/savebridge/internal/platform"
	"github.com/mcoot/savebridge/internal/services/auth"
	"github.com/mcoot/savebridge/internal/services/savedgames"
	"github.com/mcoot/savebridge/internal/storage/memory"
	"github.com/mcoot/savebridge/internal/testutil"
)

type PlatformSuite struct {
	suite.Suite
	ctx   context.Context
	clock *mocks.MockClock
	auth  *auth.Service
	p     *Platform
}

func TestPlatformSuite(t *testing.T) {
	suite.Run(t, new(PlatformSuite))
}

func (s *PlatformSuite) SetupTest() {
	s.ctx = context.Background()
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	store := memory.New()
	s.auth = auth.New(store, s.clock, mocks.NewMockRandom(), auth.Config{SessionDuration: time.Hour}, testutil.NopLogger())
	games := savedgames.New(store, s.clock, savedgames.DefaultConfig(), testutil.NopLogger())
	s.p = New(s.auth, games, testutil.NopLogger())

	_, err := s.auth.Register(s.ctx, "alice", "secret123", "Alice")
	s.Require().NoError(err)
}

func (s *PlatformSuite) signIn() {
	s.Require().NoError(s.p.Authenticate(s.ctx, platform.Credentials{Username: "alice", Password: "secret123"}))
}

func (s *PlatformSuite) TestAuthenticate() {
	s.False(s.p.LocalUser().Authenticated)

	s.signIn()

	user := s.p.LocalUser()
	s.True(user.Authenticated)
	s.Equal("Alice", user.DisplayName)
}

func (s *PlatformSuite) TestAuthenticateFailure() {
	err := s.p.Authenticate(s.ctx, platform.Credentials{Username: "alice", Password: "wrong"})
	s.ErrorIs(err, auth.ErrInvalidCredentials)
	s.False(s.p.LocalUser().Authenticated)
}

func (s *PlatformSuite) TestSignOut() {
	s.signIn()
	s.Require().NoError(s.p.SignOut(s.ctx))
	s.False(s.p.LocalUser().Authenticated)

	// signing out twice is harmless
	s.NoError(s.p.SignOut(s.ctx))
}

func (s *PlatformSuite) TestSessionExpiry() {
	s.signIn()
	s.clock.Advance(2 * time.Hour)

	s.False(s.p.LocalUser().Authenticated)
	_, err := s.p.OpenWithAutomaticConflictResolution(s.ctx, "SaveGame", model.ReadCacheOrNetwork, model.UseLongestPlaytime)
	s.ErrorIs(err, model.ErrNotAuthenticated)
}

func (s *PlatformSuite) TestSlotRoundTrip() {
	s.signIn()

	meta, err := s.p.OpenWithAutomaticConflictResolution(s.ctx, "SaveGame", model.ReadCacheOrNetwork, model.UseLongestPlaytime)
	s.Require().NoError(err)

	_, err = s.p.CommitUpdate(s.ctx, meta, model.NewMetadataUpdate(), []byte("2,1"))
	s.Require().NoError(err)

	meta, err = s.p.OpenWithAutomaticConflictResolution(s.ctx, "SaveGame", model.ReadCacheOrNetwork, model.UseLongestPlaytime)
	s.Require().NoError(err)
	data, err := s.p.ReadBinaryData(s.ctx, meta)
	s.Require().NoError(err)
	s.Equal([]byte("2,1"), data)
}

func (s *PlatformSuite) TestSignedOutCalls() {
	_, err := s.p.ReadBinaryData(s.ctx, &model.SlotMetadata{Name: "SaveGame", IsOpen: true})
	s.ErrorIs(err, model.ErrNotAuthenticated)

	_, err = s.p.CommitUpdate(s.ctx, &model.SlotMetadata{Name: "SaveGame", IsOpen: true}, model.NewMetadataUpdate(), nil)
	s.ErrorIs(err, model.ErrNotAuthenticated)
}
