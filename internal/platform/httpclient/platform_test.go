package httpclient_test

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/savebridge/internal/api"
	"github.com/mcoot/savebridge/internal/factory"
	"github.com/mcoot/savebridge/internal/model"
	"github.com/mcoot/savebridge/internal/platform"
	"github.com/mcoot/savebridge/internal/platform/httpclient"
	"github.com/mcoot/savebridge/internal/testutil"
)

type PlatformSuite struct {
	suite.Suite
	ctx    context.Context
	server *httptest.Server
	p      *httpclient.Platform
}

func TestPlatformSuite(t *testing.T) {
	suite.Run(t, new(PlatformSuite))
}

func (s *PlatformSuite) SetupTest() {
	s.ctx = context.Background()

	app, err := factory.New(factory.Config{})
	s.Require().NoError(err)

	s.server = httptest.NewServer(api.NewRouter(api.RouterConfig{
		Logger:            testutil.NopLogger(),
		AuthService:       app.AuthService,
		SavedGamesService: app.SavedGamesService,
	}))
	s.p = httpclient.New(s.server.URL, "", testutil.NopLogger())
}

func (s *PlatformSuite) TearDownTest() {
	s.server.Close()
}

func (s *PlatformSuite) register() {
	s.Require().NoError(s.p.Register(s.ctx, platform.Credentials{Username: "alice", Password: "secret123"}, "Alice"))
}

func (s *PlatformSuite) TestHealth() {
	status, err := s.p.Health(s.ctx)
	s.Require().NoError(err)
	s.Equal("ok", status)
}

func (s *PlatformSuite) TestRegisterSignsIn() {
	s.False(s.p.LocalUser().Authenticated)

	s.register()

	user := s.p.LocalUser()
	s.True(user.Authenticated)
	s.Equal("Alice", user.DisplayName)
	s.NotEmpty(user.ID)
	s.NotEmpty(s.p.Token())
}

func (s *PlatformSuite) TestAuthenticateWrongPassword() {
	s.register()
	s.Require().NoError(s.p.SignOut(s.ctx))

	err := s.p.Authenticate(s.ctx, platform.Credentials{Username: "alice", Password: "nope"})
	var apiErr *httpclient.APIError
	s.Require().ErrorAs(err, &apiErr)
	s.Equal(401, apiErr.Status)
	s.False(s.p.LocalUser().Authenticated)
}

func (s *PlatformSuite) TestSignOutInvalidatesToken() {
	s.register()
	token := s.p.Token()

	s.Require().NoError(s.p.SignOut(s.ctx))
	s.False(s.p.LocalUser().Authenticated)
	s.Empty(s.p.Token())

	restored := httpclient.New(s.server.URL, token, testutil.NopLogger())
	s.ErrorIs(restored.Restore(s.ctx), model.ErrNotAuthenticated)
	s.Empty(restored.Token())
}

func (s *PlatformSuite) TestRestoreFromToken() {
	s.register()

	restored := httpclient.New(s.server.URL, s.p.Token(), testutil.NopLogger())
	s.Require().NoError(restored.Restore(s.ctx))
	s.Equal(s.p.LocalUser(), restored.LocalUser())
}

func (s *PlatformSuite) TestOpenReadCommit() {
	s.register()

	meta, err := s.p.OpenWithAutomaticConflictResolution(s.ctx, "SaveGame", model.ReadCacheOrNetwork, model.UseLongestPlaytime)
	s.Require().NoError(err)
	s.True(meta.IsOpen)
	s.Equal(int64(0), meta.Version)

	data, err := s.p.ReadBinaryData(s.ctx, meta)
	s.Require().NoError(err)
	s.Empty(data)

	update := model.NewMetadataUpdate().WithDescription("Saved At now").WithPlayedTime(90 * time.Second)
	committed, err := s.p.CommitUpdate(s.ctx, meta, update, []byte("5,3"))
	s.Require().NoError(err)
	s.False(committed.IsOpen)
	s.Equal(int64(1), committed.Version)
	s.Equal(90*time.Second, committed.PlayedTime)

	_, err = s.p.ReadBinaryData(s.ctx, committed)
	s.ErrorIs(err, model.ErrSlotNotOpen)

	meta, err = s.p.OpenWithAutomaticConflictResolution(s.ctx, "SaveGame", model.ReadNetworkOnly, model.UseLongestPlaytime)
	s.Require().NoError(err)
	s.Equal("Saved At now", meta.Description)

	data, err = s.p.ReadBinaryData(s.ctx, meta)
	s.Require().NoError(err)
	s.Equal([]byte("5,3"), data)
}

func (s *PlatformSuite) TestReadWithStaleHandle() {
	s.register()

	meta, err := s.p.OpenWithAutomaticConflictResolution(s.ctx, "SaveGame", model.ReadCacheOrNetwork, model.UseLongestPlaytime)
	s.Require().NoError(err)
	_, err = s.p.CommitUpdate(s.ctx, meta, model.NewMetadataUpdate(), []byte("1,1"))
	s.Require().NoError(err)

	_, err = s.p.ReadBinaryData(s.ctx, meta)
	s.ErrorIs(err, model.ErrStaleHandle)
}

func (s *PlatformSuite) TestCommitCarriesMetadataWhenUpdateIsEmpty() {
	s.register()

	meta, err := s.p.OpenWithAutomaticConflictResolution(s.ctx, "SaveGame", model.ReadCacheOrNetwork, model.UseLongestPlaytime)
	s.Require().NoError(err)
	_, err = s.p.CommitUpdate(s.ctx, meta, model.NewMetadataUpdate().WithDescription("kept").WithPlayedTime(time.Minute), []byte("1,1"))
	s.Require().NoError(err)

	meta, err = s.p.OpenWithAutomaticConflictResolution(s.ctx, "SaveGame", model.ReadCacheOrNetwork, model.UseLongestPlaytime)
	s.Require().NoError(err)
	committed, err := s.p.CommitUpdate(s.ctx, meta, model.NewMetadataUpdate(), []byte("2,2"))
	s.Require().NoError(err)
	s.Equal("kept", committed.Description)
	s.Equal(time.Minute, committed.PlayedTime)
}

func (s *PlatformSuite) TestSlotManagement() {
	s.register()

	_, err := s.p.OpenWithAutomaticConflictResolution(s.ctx, "SaveGame", model.ReadCacheOrNetwork, model.UseLongestPlaytime)
	s.Require().NoError(err)
	_, err = s.p.OpenWithAutomaticConflictResolution(s.ctx, "Backup", model.ReadCacheOrNetwork, model.UseOriginal)
	s.Require().NoError(err)

	slots, err := s.p.ListSlots(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(slots, 2)
	s.Equal("Backup", slots[0].Name)
	s.Equal("SaveGame", slots[1].Name)

	s.Require().NoError(s.p.DeleteSlot(s.ctx, "Backup"))
	s.ErrorIs(s.p.DeleteSlot(s.ctx, "Backup"), model.ErrSlotNotFound)
}

func (s *PlatformSuite) TestCallsWhileSignedOut() {
	_, err := s.p.OpenWithAutomaticConflictResolution(s.ctx, "SaveGame", model.ReadCacheOrNetwork, model.UseLongestPlaytime)
	s.ErrorIs(err, model.ErrNotAuthenticated)

	_, err = s.p.ListSlots(s.ctx)
	s.ErrorIs(err, model.ErrNotAuthenticated)
}

func (s *PlatformSuite) TestInvalidSlotName() {
	s.register()

	_, err := s.p.OpenWithAutomaticConflictResolution(s.ctx, "no/slashes", model.ReadCacheOrNetwork, model.UseLongestPlaytime)
	s.Error(err)
}
