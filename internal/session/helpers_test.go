package session

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/arcana/internal/catalog"
	"github.com/phrazzld/arcana/internal/domain"
	"github.com/phrazzld/arcana/internal/domain/deck"
	"github.com/phrazzld/arcana/internal/domain/interpretation"
	"github.com/phrazzld/arcana/internal/events"
	"github.com/phrazzld/arcana/internal/gateway"
	"github.com/phrazzld/arcana/internal/task"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.ShuffleDuration = time.Second
	cfg.DealInterval = 150 * time.Millisecond
	cfg.RevealInterval = time.Second
	cfg.ReversalProbability = 0.5
	return cfg
}

// fakeGateway is a gateway.ReadingGateway with overridable behaviour.
type fakeGateway struct {
	mu sync.Mutex

	ListCatalogFn     func(ctx context.Context) ([]domain.Card, error)
	DrawRandomFn      func(ctx context.Context, count int) ([]domain.DrawnCard, error)
	CreateReadingFn   func(ctx context.Context, req gateway.ReadingRequest) (gateway.ReadingResult, error)
	CreateAIReadingFn func(ctx context.Context, req gateway.ReadingRequest) (gateway.ReadingResult, error)
	SaveReadingFn     func(ctx context.Context, id uuid.UUID) error

	CreateReadingCalls   []gateway.ReadingRequest
	CreateAIReadingCalls []gateway.ReadingRequest
	DrawRandomCalls      int
	SavedIDs             []uuid.UUID
}

func (f *fakeGateway) ListCatalog(ctx context.Context) ([]domain.Card, error) {
	if f.ListCatalogFn != nil {
		return f.ListCatalogFn(ctx)
	}
	return catalog.Embedded().ListCatalog(ctx)
}

func (f *fakeGateway) DrawRandom(ctx context.Context, count int) ([]domain.DrawnCard, error) {
	f.mu.Lock()
	f.DrawRandomCalls++
	f.mu.Unlock()
	if f.DrawRandomFn != nil {
		return f.DrawRandomFn(ctx, count)
	}
	cards, _ := catalog.Embedded().ListCatalog(ctx)
	return deck.Draw(cards, count, 0.5, deck.NewSeededRNG(1))
}

func (f *fakeGateway) CreateReading(ctx context.Context, req gateway.ReadingRequest) (gateway.ReadingResult, error) {
	f.mu.Lock()
	f.CreateReadingCalls = append(f.CreateReadingCalls, req)
	f.mu.Unlock()
	if f.CreateReadingFn != nil {
		return f.CreateReadingFn(ctx, req)
	}
	return gateway.ReadingResult{ReadingID: uuid.New()}, nil
}

func (f *fakeGateway) CreateAIReading(ctx context.Context, req gateway.ReadingRequest) (gateway.ReadingResult, error) {
	f.mu.Lock()
	f.CreateAIReadingCalls = append(f.CreateAIReadingCalls, req)
	f.mu.Unlock()
	if f.CreateAIReadingFn != nil {
		return f.CreateAIReadingFn(ctx, req)
	}
	return gateway.ReadingResult{
		ReadingID:      uuid.New(),
		Interpretation: &domain.Interpretation{Combined: "The backend has spoken."},
	}, nil
}

func (f *fakeGateway) SaveReading(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	f.SavedIDs = append(f.SavedIDs, id)
	f.mu.Unlock()
	if f.SaveReadingFn != nil {
		return f.SaveReadingFn(ctx, id)
	}
	return nil
}

// recorder captures emitted events.
type recorder struct {
	mu     sync.Mutex
	events []*events.Event
}

func (r *recorder) HandleEvent(_ context.Context, e *events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recorder) count(t events.Type) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Type == t {
			n++
		}
	}
	return n
}

type harness struct {
	t       *testing.T
	cfg     Config
	clock   *task.ManualClock
	sched   *task.Scheduler
	machine *Machine
	rec     *recorder
	gw      *fakeGateway
	engine  *interpretation.Engine
}

type harnessOption func(cfg *Config, deps *Deps)

func withGateway(gw *fakeGateway) harnessOption {
	return func(_ *Config, deps *Deps) { deps.Gateway = gw }
}

func withCatalog(src catalog.Source) harnessOption {
	return func(_ *Config, deps *Deps) { deps.Catalog = src }
}

func withConfig(mutate func(cfg *Config)) harnessOption {
	return func(cfg *Config, _ *Deps) { mutate(cfg) }
}

func newHarness(t *testing.T, opts ...harnessOption) *harness {
	t.Helper()

	clock := task.NewManualClock(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	sched := task.NewScheduler(clock, testLogger())
	engine, err := interpretation.NewDefaultEngine()
	require.NoError(t, err)

	rec := &recorder{}
	emitter := events.NewInMemoryEventEmitter(testLogger())
	emitter.RegisterHandler(rec)

	cfg := testConfig()
	deps := Deps{
		Catalog:     catalog.Embedded(),
		Interpreter: engine,
		Scheduler:   sched,
		Emitter:     emitter,
		RNG:         deck.NewSeededRNG(42),
		Logger:      testLogger(),
	}
	for _, opt := range opts {
		opt(&cfg, &deps)
	}

	m, err := NewMachine(cfg, deps)
	require.NoError(t, err)

	h := &harness{t: t, cfg: cfg, clock: clock, sched: sched, machine: m, rec: rec, engine: engine}
	if gw, ok := deps.Gateway.(*fakeGateway); ok {
		h.gw = gw
	}
	t.Cleanup(m.Close)
	return h
}

func (h *harness) state() domain.State {
	return h.machine.Snapshot().Session.State
}

// shuffle advances past the shuffle delay, triggering the draw.
func (h *harness) shuffle() {
	h.clock.Advance(h.cfg.ShuffleDuration)
}

// dealAll advances until every working-set card is dealt.
func (h *harness) dealAll() {
	h.clock.Advance(time.Duration(h.cfg.WorkingSetSize) * h.cfg.DealInterval)
}

// toSelecting drives a standard reading in domain d to the selecting state.
func (h *harness) toSelecting(d domain.Domain) {
	h.t.Helper()
	require.NoError(h.t, h.machine.ChooseTopic(domain.ModeStandard, d))
	h.shuffle()
	h.dealAll()
	require.Equal(h.t, domain.StateSelecting, h.state())
}

// selectIndices selects working-set cards by draw index.
func (h *harness) selectIndices(indices ...int) []domain.SelectedCard {
	h.t.Helper()
	ws := h.machine.Snapshot().Session.WorkingSet
	out := make([]domain.SelectedCard, 0, len(indices))
	for _, i := range indices {
		sc, err := h.machine.SelectCard(ws[i].ID)
		require.NoError(h.t, err)
		out = append(out, sc)
	}
	return out
}

// settle runs tasks that are due now, such as the deferred interpretation.
func (h *harness) settle() {
	h.clock.Advance(0)
}
