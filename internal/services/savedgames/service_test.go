package savedgames

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/savebridge/internal/dependencies/mocks"
	"github.com/mcoot/savebridge/internal/model"
	"github.com/mcoot/savebridge/internal/storage/memory"
	"github.com/mcoot/savebridge/internal/testutil"
)

const (
	user     model.AccountID = "u_1"
	slotName                 = "SaveGame"
)

type ServiceSuite struct {
	suite.Suite
	storage *memory.Storage
	clock   *mocks.MockClock
	service *Service
	ctx     context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.storage = memory.New()
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.service = New(s.storage, s.clock, DefaultConfig(), testutil.NopLogger())
	s.ctx = context.Background()
}

func (s *ServiceSuite) open() *model.SlotMetadata {
	meta, err := s.service.Open(s.ctx, user, slotName, model.ReadNetworkOnly, model.UseLongestPlaytime)
	s.Require().NoError(err)
	return meta
}

func (s *ServiceSuite) commit(meta *model.SlotMetadata, data string, played time.Duration) *model.SlotMetadata {
	update := model.NewMetadataUpdate().WithDescription("save " + data).WithPlayedTime(played)
	result, err := s.service.CommitUpdate(s.ctx, user, meta, update, []byte(data))
	s.Require().NoError(err)
	return result
}

// Open tests

func (s *ServiceSuite) TestOpenCreatesEmptySlot() {
	meta := s.open()

	s.Equal(slotName, meta.Name)
	s.Equal(int64(0), meta.Version)
	s.True(meta.IsOpen)

	slot, err := s.storage.GetSlot(s.ctx, user, slotName)
	s.Require().NoError(err)
	s.Empty(slot.Head.Data)
}

func (s *ServiceSuite) TestOpenRejectsInvalidName() {
	for _, name := range []string{"", "has space", "slash/name"} {
		_, err := s.service.Open(s.ctx, user, name, model.ReadNetworkOnly, model.UseLongestPlaytime)
		s.ErrorIs(err, model.ErrInvalidSlotName, name)
	}
}

func (s *ServiceSuite) TestOpenRejectsUnknownStrategy() {
	_, err := s.service.Open(s.ctx, user, slotName, model.ReadNetworkOnly, "coin_flip")
	s.ErrorIs(err, model.ErrUnknownStrategy)

	_, err = s.service.Open(s.ctx, user, slotName, model.ReadNetworkOnly, "")
	s.ErrorIs(err, model.ErrUnknownStrategy)
}

// Read tests

func (s *ServiceSuite) TestReadFreshSlotIsEmpty() {
	meta := s.open()

	data, err := s.service.ReadBinaryData(s.ctx, user, meta)
	s.Require().NoError(err)
	s.Empty(data)
}

func (s *ServiceSuite) TestReadRequiresOpenHandle() {
	_, err := s.service.ReadBinaryData(s.ctx, user, nil)
	s.ErrorIs(err, model.ErrSlotNotOpen)

	_, err = s.service.ReadBinaryData(s.ctx, user, &model.SlotMetadata{Name: slotName})
	s.ErrorIs(err, model.ErrSlotNotOpen)
}

func (s *ServiceSuite) TestReadUnknownSlot() {
	_, err := s.service.ReadBinaryData(s.ctx, user, &model.SlotMetadata{Name: "Other", IsOpen: true})
	s.ErrorIs(err, model.ErrSlotNotFound)
}

func (s *ServiceSuite) TestReadWithStaleHandle() {
	meta := s.open()
	s.commit(meta, "1,1", time.Minute)

	stale := *meta
	_, err := s.service.ReadBinaryData(s.ctx, user, &stale)
	s.ErrorIs(err, model.ErrStaleHandle)
}

// Commit tests

func (s *ServiceSuite) TestCommitThenRead() {
	s.commit(s.open(), "5,3", time.Minute)

	meta := s.open()
	s.Equal(int64(1), meta.Version)
	s.Equal("save 5,3", meta.Description)
	s.Equal(time.Minute, meta.PlayedTime)

	data, err := s.service.ReadBinaryData(s.ctx, user, meta)
	s.Require().NoError(err)
	s.Equal("5,3", string(data))
}

func (s *ServiceSuite) TestCommitClosesHandle() {
	result := s.commit(s.open(), "1,1", time.Minute)

	s.False(result.IsOpen)
	s.False(result.Conflicted)

	_, err := s.service.CommitUpdate(s.ctx, user, result, model.NewMetadataUpdate(), []byte("2,2"))
	s.ErrorIs(err, model.ErrSlotNotOpen)
}

func (s *ServiceSuite) TestCommitCarriesMetadataWhenUpdateIsEmpty() {
	first := s.open()
	s.commit(first, "1,1", time.Minute)

	meta := s.open()
	result, err := s.service.CommitUpdate(s.ctx, user, meta, model.NewMetadataUpdate(), []byte("2,2"))
	s.Require().NoError(err)
	s.Equal("save 1,1", result.Description)
	s.Equal(time.Minute, result.PlayedTime)
}

func (s *ServiceSuite) TestStaleCommitBecomesConflict() {
	deviceA := s.open()
	deviceB := s.open()

	s.commit(deviceA, "10,0", time.Minute)
	s.clock.Advance(time.Second)
	result := s.commit(deviceB, "0,10", time.Hour)

	s.True(result.Conflicted)

	slot, err := s.storage.GetSlot(s.ctx, user, slotName)
	s.Require().NoError(err)
	s.Equal("10,0", string(slot.Head.Data))
	s.Require().NotNil(slot.Conflict)
	s.Equal("0,10", string(slot.Conflict.Data))
}

func (s *ServiceSuite) TestOpenResolvesConflictByLongestPlaytime() {
	deviceA := s.open()
	deviceB := s.open()

	s.commit(deviceA, "10,0", time.Minute)
	s.commit(deviceB, "0,10", time.Hour)

	meta := s.open()
	s.Equal(int64(2), meta.Version)
	s.Equal(time.Hour, meta.PlayedTime)
	s.False(meta.Conflicted)

	data, err := s.service.ReadBinaryData(s.ctx, user, meta)
	s.Require().NoError(err)
	s.Equal("0,10", string(data))

	slot, _ := s.storage.GetSlot(s.ctx, user, slotName)
	s.Nil(slot.Conflict)
}

func (s *ServiceSuite) TestOpenResolvesConflictKeepingOriginal() {
	deviceA := s.open()
	deviceB := s.open()

	s.commit(deviceA, "10,0", time.Hour)
	s.commit(deviceB, "0,10", time.Minute)

	meta, err := s.service.Open(s.ctx, user, slotName, model.ReadNetworkOnly, model.UseLongestPlaytime)
	s.Require().NoError(err)

	data, err := s.service.ReadBinaryData(s.ctx, user, meta)
	s.Require().NoError(err)
	s.Equal("10,0", string(data))
}

func (s *ServiceSuite) TestOpenServesCachedSlot() {
	s.open()

	// Change storage behind the service's back
	slot, _ := s.storage.GetSlot(s.ctx, user, slotName)
	slot.Head.Version = 42
	_ = s.storage.SaveSlot(s.ctx, slot)

	cached, err := s.service.Open(s.ctx, user, slotName, model.ReadCacheOrNetwork, model.UseLongestPlaytime)
	s.Require().NoError(err)
	s.Equal(int64(0), cached.Version)

	fresh, err := s.service.Open(s.ctx, user, slotName, model.ReadNetworkOnly, model.UseLongestPlaytime)
	s.Require().NoError(err)
	s.Equal(int64(42), fresh.Version)
}

func (s *ServiceSuite) TestCacheExpires() {
	s.open()

	slot, _ := s.storage.GetSlot(s.ctx, user, slotName)
	slot.Head.Version = 42
	_ = s.storage.SaveSlot(s.ctx, slot)

	s.clock.Advance(time.Minute)

	meta, err := s.service.Open(s.ctx, user, slotName, model.ReadCacheOrNetwork, model.UseLongestPlaytime)
	s.Require().NoError(err)
	s.Equal(int64(42), meta.Version)
}

func (s *ServiceSuite) TestCacheDisabled() {
	s.service = New(s.storage, s.clock, Config{CacheTTL: 0}, testutil.NopLogger())
	s.open()

	slot, _ := s.storage.GetSlot(s.ctx, user, slotName)
	slot.Head.Version = 7
	_ = s.storage.SaveSlot(s.ctx, slot)

	meta, err := s.service.Open(s.ctx, user, slotName, model.ReadCacheOrNetwork, model.UseLongestPlaytime)
	s.Require().NoError(err)
	s.Equal(int64(7), meta.Version)
}

func (s *ServiceSuite) TestCacheIsBounded() {
	s.service = New(s.storage, s.clock, Config{CacheTTL: time.Minute, CacheSize: 1}, testutil.NopLogger())
	s.open()
	_, err := s.service.Open(s.ctx, user, "Backup", model.ReadNetworkOnly, model.UseLongestPlaytime)
	s.Require().NoError(err)

	slot, _ := s.storage.GetSlot(s.ctx, user, slotName)
	slot.Head.Version = 7
	_ = s.storage.SaveSlot(s.ctx, slot)

	meta, err := s.service.Open(s.ctx, user, slotName, model.ReadCacheOrNetwork, model.UseLongestPlaytime)
	s.Require().NoError(err)
	s.Equal(int64(7), meta.Version)
}

func (s *ServiceSuite) TestCachedConflictResolvesAgainstStorage() {
	meta := s.open()
	s.commit(meta, "1,1", time.Minute)
	result := s.commit(meta, "2,2", 2*time.Minute)
	s.Require().True(result.Conflicted)

	// Another writer moves the head on while the conflict is pending
	slot, _ := s.storage.GetSlot(s.ctx, user, slotName)
	slot.Head.Version = 5
	slot.Head.Data = []byte("9,9")
	_ = s.storage.SaveSlot(s.ctx, slot)

	opened, err := s.service.Open(s.ctx, user, slotName, model.ReadCacheOrNetwork, model.UseOriginal)
	s.Require().NoError(err)
	s.Equal(int64(6), opened.Version)

	data, err := s.service.ReadBinaryData(s.ctx, user, opened)
	s.Require().NoError(err)
	s.Equal("9,9", string(data))
}

func (s *ServiceSuite) TestExpiredSlotIsEvicted() {
	s.commit(s.open(), "1,1", time.Minute)
	meta, err := s.service.Open(s.ctx, user, slotName, model.ReadCacheOrNetwork, model.UseLongestPlaytime)
	s.Require().NoError(err)

	// Storage drops the slot, as a Redis slot TTL would
	s.Require().NoError(s.storage.DeleteSlot(s.ctx, user, slotName))

	_, err = s.service.ReadBinaryData(s.ctx, user, meta)
	s.ErrorIs(err, model.ErrSlotNotFound)

	reopened, err := s.service.Open(s.ctx, user, slotName, model.ReadCacheOrNetwork, model.UseLongestPlaytime)
	s.Require().NoError(err)
	s.Equal(int64(0), reopened.Version)

	data, err := s.service.ReadBinaryData(s.ctx, user, reopened)
	s.Require().NoError(err)
	s.Empty(data)
}

// List / delete tests

func (s *ServiceSuite) TestListSlots() {
	s.open()
	_, err := s.service.Open(s.ctx, user, "Backup", model.ReadNetworkOnly, model.UseLongestPlaytime)
	s.Require().NoError(err)

	slots, err := s.service.ListSlots(s.ctx, user)
	s.Require().NoError(err)
	s.Require().Len(slots, 2)
	s.Equal("Backup", slots[0].Name)
	s.False(slots[0].IsOpen)
}

func (s *ServiceSuite) TestDeleteSlot() {
	s.commit(s.open(), "1,1", time.Minute)

	err := s.service.DeleteSlot(s.ctx, user, slotName)
	s.Require().NoError(err)

	_, err = s.storage.GetSlot(s.ctx, user, slotName)
	s.ErrorIs(err, model.ErrSlotNotFound)

	err = s.service.DeleteSlot(s.ctx, user, slotName)
	s.ErrorIs(err, model.ErrSlotNotFound)
}
