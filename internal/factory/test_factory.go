package factory

import (
	"time"

	"github.com/mcoot/savebridge/internal/dependencies/mocks"
	"github.com/mcoot/savebridge/internal/services/auth"
	"github.com/mcoot/savebridge/internal/services/savedgames"
	"github.com/mcoot/savebridge/internal/services/savemanager"
	"github.com/mcoot/savebridge/internal/storage/memory"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
}

// NewTestApp creates an App configured for testing with mocked dependencies
func NewTestApp() *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()

	app := newWithDependencies(store, mockClock, mockRandom, auth.DefaultConfig(), savedgames.DefaultConfig(), orNopLogger(nil))

	return &TestApp{
		App:        app,
		MockClock:  mockClock,
		MockRandom: mockRandom,
	}
}

// NewDevice wires a save manager against the in-process services, with its own
// in-memory local store, as a second device would have
func (t *TestApp) NewDevice(cfg savemanager.Config) (*savemanager.Manager, *savemanager.TextDisplay) {
	display := savemanager.NewTextDisplay()
	manager := NewManager(t.NewEmbeddedPlatform(nil), memory.New(), display, t.MockClock, cfg, nil)
	return manager, display
}
