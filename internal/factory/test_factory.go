package factory

import (
	"io"
	"log/slog"
	"time"

	"github.com/mcoot/tworoomsboom/internal/dependencies/mocks"
	"github.com/mcoot/tworoomsboom/internal/services/archive"
	"github.com/mcoot/tworoomsboom/internal/services/assignment"
	"github.com/mcoot/tworoomsboom/internal/services/rounds"
	"github.com/mcoot/tworoomsboom/internal/services/seat"
	"github.com/mcoot/tworoomsboom/internal/storage/memory"
)

// TestSeatSecret signs seat tokens in test apps
const TestSeatSecret = "test-seat-secret"

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
	Memory     *memory.Storage
}

// NewTestApp creates an App configured for testing with mocked dependencies
func NewTestApp() *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()

	seats, err := seat.New(mockClock, seat.Config{Secret: TestSeatSecret, TokenTTL: time.Hour})
	if err != nil {
		panic(err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	app := newWithDependencies(
		store,
		archive.NewMemory(DefaultArchiveCapacity),
		mockClock,
		mockRandom,
		seats,
		rounds.DefaultConfig(),
		assignment.DefaultOptions(),
		logger,
	)

	return &TestApp{
		App:        app,
		MockClock:  mockClock,
		MockRandom: mockRandom,
		Memory:     store,
	}
}
