package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/arcana/internal/catalog"
	"github.com/phrazzld/arcana/internal/domain"
	"github.com/phrazzld/arcana/internal/domain/deck"
	"github.com/phrazzld/arcana/internal/domain/interpretation"
	"github.com/phrazzld/arcana/internal/events"
	"github.com/phrazzld/arcana/internal/gateway"
	"github.com/phrazzld/arcana/internal/task"
)

// Interpreter synthesizes an interpretation locally.
// *interpretation.Engine satisfies it.
type Interpreter interface {
	Interpret(selection []domain.SelectedCard, d domain.Domain, question string) (domain.Interpretation, error)
}

// Deps are the collaborators of a Machine.
type Deps struct {
	// Catalog supplies cards for local draws. Required unless draws are
	// server-authoritative.
	Catalog catalog.Source

	// Gateway is the backend. Optional for standard readings; required for
	// AI-assisted readings and server-authoritative draws.
	Gateway gateway.ReadingGateway

	// Interpreter is the local interpretation engine. Required.
	Interpreter Interpreter

	// Scheduler runs all timed steps. Required.
	Scheduler *task.Scheduler

	// Emitter receives session events. Optional.
	Emitter events.EventEmitter

	// RNG drives local draws and auto-selection. Optional; seeded RNGs must
	// not be shared between machines.
	RNG deck.RNG

	Logger *slog.Logger
}

// Snapshot is a consistent copy of a machine's observable state.
type Snapshot struct {
	Session        domain.ReadingSession  `json:"session"`
	Available      []domain.DrawnCard     `json:"available"`
	Interpretation *domain.Interpretation `json:"interpretation,omitempty"`
	RevealedCount  int                    `json:"revealed_count"`
	AllRevealed    bool                   `json:"all_revealed"`

	// Err is the last failure of a timed step or backend call.
	Err            error  `json:"-"`
	LastError      string `json:"last_error,omitempty"`
	Retryable      bool   `json:"retryable"`
	ReauthRequired bool   `json:"reauth_required"`
}

// Machine is the reading session state machine. All methods are safe for
// concurrent use; mutations are serialized by the machine's lock.
type Machine struct {
	cfg         Config
	catalog     catalog.Source
	gateway     gateway.ReadingGateway
	interpreter Interpreter
	scheduler   *task.Scheduler
	emitter     events.EventEmitter
	rng         deck.RNG
	logger      *slog.Logger
	id          uuid.UUID
	key         string
	revealer    *Revealer

	mu             sync.Mutex
	session        domain.ReadingSession
	interpretation *domain.Interpretation
	lastErr        error
	gen            uint64
	closed         bool
	lastActive     time.Time
	outbox         []*events.Event
}

// NewMachine creates a machine in the topic selection state.
func NewMachine(cfg Config, deps Deps) (*Machine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if deps.Interpreter == nil {
		return nil, errors.New("session: interpreter is required")
	}
	if deps.Scheduler == nil {
		return nil, errors.New("session: scheduler is required")
	}
	if deps.Catalog == nil && (deps.Gateway == nil || !cfg.ServerAuthoritativeDraw) {
		return nil, errors.New("session: catalog is required for local draws")
	}
	if deps.Emitter == nil {
		deps.Emitter = events.NopEmitter{}
	}
	if deps.RNG == nil {
		deps.RNG = deck.DefaultRNG()
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	s := domain.NewReadingSession()
	s.CreatedAt = deps.Scheduler.Clock().Now().UTC()

	m := &Machine{
		cfg:         cfg,
		catalog:     deps.Catalog,
		gateway:     deps.Gateway,
		interpreter: deps.Interpreter,
		scheduler:   deps.Scheduler,
		emitter:     deps.Emitter,
		rng:         deps.RNG,
		id:          s.ID,
		key:         s.ID.String(),
		session:     s,
		lastActive:  s.CreatedAt,
		logger: deps.Logger.With(
			"component", "session",
			"session_id", s.ID.String(),
		),
	}
	m.revealer = NewRevealer(deps.Scheduler, m.key+"/reveal", cfg.RevealInterval, m.onReveal, m.logger)

	m.mu.Lock()
	m.record(events.TypeSessionStarted, nil)
	m.unlock()
	return m, nil
}

// ID returns the session ID. It is stable across restarts.
func (m *Machine) ID() uuid.UUID {
	return m.id
}

// ChooseTopic commits to a mode and domain. AI-assisted readings continue to
// question capture; standard readings start shuffling immediately.
func (m *Machine) ChooseTopic(mode domain.Mode, d domain.Domain) error {
	if _, err := domain.ParseMode(string(mode)); err != nil {
		return err
	}
	if !d.Valid() {
		return fmt.Errorf("%w: %q", domain.ErrInvalidDomain, d)
	}

	m.mu.Lock()
	defer m.unlock()
	if err := m.activeLocked(); err != nil {
		return err
	}
	if m.session.State != domain.StateTopicSelection {
		return m.invalidLocked("choose topic")
	}
	if mode == domain.ModeAI && m.gateway == nil {
		return domain.ErrAIUnavailable
	}

	m.session.Mode = mode
	m.session.Domain = d
	m.lastErr = nil
	if mode == domain.ModeAI {
		m.transitionLocked(domain.StateQuestionCapture)
		return nil
	}
	m.startShuffleLocked()
	return nil
}

// SubmitQuestion records the question for an AI-assisted reading and starts
// shuffling. An empty question is rejected and the state is kept.
func (m *Machine) SubmitQuestion(question string) error {
	m.mu.Lock()
	defer m.unlock()
	if err := m.activeLocked(); err != nil {
		return err
	}
	if m.session.State != domain.StateQuestionCapture {
		return m.invalidLocked("submit question")
	}
	q := strings.TrimSpace(question)
	if q == "" {
		return domain.ErrEmptyQuestion
	}

	m.session.Question = q
	m.startShuffleLocked()
	return nil
}

// SelectCard selects a dealt card. The position is taken from the number of
// cards selected before it. Selection signals (full, already selected, not
// in the working set) leave the session unchanged.
func (m *Machine) SelectCard(cardID string) (domain.SelectedCard, error) {
	m.mu.Lock()
	defer m.unlock()
	if err := m.activeLocked(); err != nil {
		return domain.SelectedCard{}, err
	}
	if err := m.selectableLocked(); err != nil {
		return domain.SelectedCard{}, err
	}

	if m.session.IsSelected(cardID) {
		return domain.SelectedCard{}, fmt.Errorf("%w: %s", domain.ErrAlreadySelected, cardID)
	}
	dc, ok := m.session.FindInWorkingSet(cardID)
	if !ok {
		return domain.SelectedCard{}, fmt.Errorf("%w: %s", domain.ErrCardNotInWorkingSet, cardID)
	}

	sc := m.appendSelectionLocked(dc)
	m.completeSelectionLocked()
	return sc, nil
}

// AutoSelect fills up to n remaining slots by sampling uniformly from the
// unselected working-set cards. n <= 0 fills every remaining slot.
func (m *Machine) AutoSelect(n int) ([]domain.SelectedCard, error) {
	m.mu.Lock()
	defer m.unlock()
	if err := m.activeLocked(); err != nil {
		return nil, err
	}
	if err := m.selectableLocked(); err != nil {
		return nil, err
	}

	remaining := m.cfg.Spread.Size() - len(m.session.Selection)
	if n <= 0 || n > remaining {
		n = remaining
	}

	candidates := make([]domain.DrawnCard, 0, len(m.session.WorkingSet))
	for _, dc := range m.session.WorkingSet {
		if !m.session.IsSelected(dc.ID) {
			candidates = append(candidates, dc)
		}
	}

	picked := make([]domain.SelectedCard, 0, n)
	for i := 0; i < n && len(candidates) > 0; i++ {
		j := m.rng.IntN(len(candidates))
		picked = append(picked, m.appendSelectionLocked(candidates[j]))
		candidates = append(candidates[:j], candidates[j+1:]...)
	}
	m.completeSelectionLocked()
	return picked, nil
}

// Retry repeats whichever step last failed: the draw while shuffling or the
// interpretation while interpreting.
func (m *Machine) Retry() error {
	m.mu.Lock()
	state := m.session.State
	m.mu.Unlock()

	if state == domain.StateInterpreting {
		return m.RetryInterpretation()
	}
	return m.RetryDraw()
}

// RetryDraw re-invokes a failed draw. The session must be shuffling with a
// recorded failure.
func (m *Machine) RetryDraw() error {
	m.mu.Lock()
	defer m.unlock()
	if err := m.activeLocked(); err != nil {
		return err
	}
	if m.session.State != domain.StateShuffling {
		return m.invalidLocked("retry draw")
	}
	if m.lastErr == nil {
		return ErrNothingToRetry
	}
	m.lastErr = nil
	m.scheduleLocked(0, m.runDraw)
	return nil
}

// RetryInterpretation re-invokes a failed interpretation. The session must
// be interpreting with a recorded failure.
func (m *Machine) RetryInterpretation() error {
	m.mu.Lock()
	defer m.unlock()
	if err := m.activeLocked(); err != nil {
		return err
	}
	if m.session.State != domain.StateInterpreting {
		return m.invalidLocked("retry interpretation")
	}
	if m.lastErr == nil {
		return ErrNothingToRetry
	}
	m.lastErr = nil
	m.scheduleLocked(0, m.runInterpretation)
	return nil
}

// Restart cancels every pending task of the session and returns it to topic
// selection with an empty working set and selection. In-flight backend
// responses are discarded when they arrive. Restarting a fresh session is a
// no-op.
func (m *Machine) Restart() error {
	m.mu.Lock()
	defer m.unlock()
	if err := m.activeLocked(); err != nil {
		return err
	}
	if m.session.State == domain.StateTopicSelection && m.session.Mode == "" && m.lastErr == nil {
		return nil
	}
	m.resetLocked()
	m.record(events.TypeSessionRestarted, nil)
	return nil
}

// SaveReading asks the backend to keep the finished reading.
func (m *Machine) SaveReading(ctx context.Context) error {
	m.mu.Lock()
	if err := m.activeLocked(); err != nil {
		m.unlock()
		return err
	}
	if m.session.State != domain.StateResult {
		err := m.invalidLocked("save reading")
		m.unlock()
		return err
	}
	readingID := m.session.ReadingID
	gen := m.gen
	m.unlock()

	if m.gateway == nil || readingID == uuid.Nil {
		return ErrNotPersisted
	}
	err := m.gateway.SaveReading(ctx, readingID)
	if errors.Is(err, domain.ErrAuthExpired) {
		m.mu.Lock()
		if m.gen == gen {
			m.failLocked(err)
		}
		m.unlock()
	}
	return err
}

// Snapshot returns a consistent copy of the machine's state.
func (m *Machine) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := Snapshot{
		Session:       m.session.Clone(),
		Available:     m.session.Available(),
		RevealedCount: m.revealer.RevealedCount(),
		AllRevealed:   m.revealer.AllRevealed(),
		Err:           m.lastErr,
	}
	if m.interpretation != nil {
		in := m.interpretation.Clone()
		snap.Interpretation = &in
	}
	if m.lastErr != nil {
		snap.LastError = m.lastErr.Error()
		snap.Retryable = domain.IsRetryable(m.lastErr)
		snap.ReauthRequired = errors.Is(m.lastErr, domain.ErrAuthExpired)
	}
	return snap
}

// Interpretation returns the finished interpretation, if any.
func (m *Machine) Interpretation() (domain.Interpretation, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.interpretation == nil {
		return domain.Interpretation{}, false
	}
	return m.interpretation.Clone(), true
}

// Revealer returns the machine's reveal sequencer.
func (m *Machine) Revealer() *Revealer {
	return m.revealer
}

// LastActive returns the time of the last operation on the machine.
func (m *Machine) LastActive() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastActive
}

// Close cancels all pending work. Every later operation fails with
// ErrSessionClosed.
func (m *Machine) Close() {
	m.mu.Lock()
	defer m.unlock()
	if m.closed {
		return
	}
	m.closed = true
	m.gen++
	m.scheduler.Cancel(m.key)
	m.revealer.Cancel()
	m.record(events.TypeSessionClosed, nil)
}

// The methods below run with m.mu held unless noted.

func (m *Machine) activeLocked() error {
	if m.closed {
		return ErrSessionClosed
	}
	m.lastActive = m.scheduler.Clock().Now()
	return nil
}

func (m *Machine) invalidLocked(op string) error {
	return fmt.Errorf("%w: cannot %s in state %s", domain.ErrInvalidTransition, op, m.session.State)
}

func (m *Machine) selectableLocked() error {
	switch m.session.State {
	case domain.StateSelecting:
		if len(m.session.Selection) >= m.cfg.Spread.Size() {
			return domain.ErrSelectionFull
		}
		return nil
	case domain.StateInterpreting, domain.StateResult:
		return domain.ErrSelectionFull
	default:
		return m.invalidLocked("select cards")
	}
}

func (m *Machine) appendSelectionLocked(dc domain.DrawnCard) domain.SelectedCard {
	idx := len(m.session.Selection)
	sc := domain.SelectedCard{
		DrawnCard:     dc,
		Position:      m.cfg.Spread.Positions[idx],
		PositionIndex: idx,
	}
	m.session.Selection = append(m.session.Selection, sc)
	m.record(events.TypeCardSelected, map[string]any{
		"card_id":        sc.ID,
		"position":       sc.Position,
		"position_index": sc.PositionIndex,
		"reversed":       sc.Reversed,
	})
	return sc
}

func (m *Machine) completeSelectionLocked() {
	if len(m.session.Selection) < m.cfg.Spread.Size() {
		return
	}
	m.transitionLocked(domain.StateInterpreting)
	m.scheduleLocked(0, m.runInterpretation)
}

func (m *Machine) startShuffleLocked() {
	m.transitionLocked(domain.StateShuffling)
	m.scheduleLocked(m.cfg.ShuffleDuration, m.runDraw)
}

func (m *Machine) transitionLocked(to domain.State) {
	from := m.session.State
	m.session.State = to
	m.record(events.TypeStateChanged, map[string]domain.State{"from": from, "to": to})
	m.logger.Debug("session state changed", "from", from, "to", to)
}

// scheduleLocked runs step under the session key after delay, bound to the
// current generation.
func (m *Machine) scheduleLocked(delay time.Duration, step func(ctx context.Context, gen uint64)) {
	gen := m.gen
	err := m.scheduler.Schedule(m.key, delay, func(ctx context.Context) { step(ctx, gen) })
	if err != nil {
		m.logger.Error("failed to schedule session step", "error", err)
		m.lastErr = err
		m.record(events.TypeSessionError, map[string]string{"error": err.Error()})
	}
}

func (m *Machine) resetLocked() {
	m.gen++
	m.scheduler.Cancel(m.key)
	m.revealer.Cancel()

	m.session = domain.ReadingSession{
		ID:        m.id,
		State:     domain.StateTopicSelection,
		CreatedAt: m.scheduler.Clock().Now().UTC(),
	}
	m.interpretation = nil
	m.lastErr = nil
	m.transitionLocked(domain.StateTopicSelection)
}

// failLocked records err. Authentication failures are fatal to the session:
// it is reset to topic selection and the error is kept so the caller can
// ask the user to sign in again.
func (m *Machine) failLocked(err error) {
	if errors.Is(err, domain.ErrAuthExpired) {
		m.logger.Warn("backend rejected credentials, resetting session")
		m.resetLocked()
	} else {
		m.logger.Warn("session step failed",
			"state", m.session.State,
			"retryable", domain.IsRetryable(err),
			"error", err)
	}
	m.lastErr = err
	m.record(events.TypeSessionError, map[string]any{
		"error":     err.Error(),
		"retryable": domain.IsRetryable(err),
	})
}

func (m *Machine) current(gen uint64, state domain.State) bool {
	return !m.closed && m.gen == gen && m.session.State == state
}

// runDraw is the shuffle-complete step. It runs without the lock.
func (m *Machine) runDraw(ctx context.Context, gen uint64) {
	m.mu.Lock()
	if !m.current(gen, domain.StateShuffling) {
		m.unlock()
		return
	}
	count := m.cfg.WorkingSetSize
	m.unlock()

	cards, err := m.draw(ctx, count)

	m.mu.Lock()
	defer m.unlock()
	if !m.current(gen, domain.StateShuffling) {
		m.logger.Debug("discarding stale draw result")
		return
	}
	if err != nil {
		m.failLocked(err)
		return
	}

	m.session.WorkingSet = cards
	m.session.Dealt = 0
	m.transitionLocked(domain.StateDealing)
	m.scheduleLocked(m.cfg.DealInterval, m.runDeal)
}

func (m *Machine) draw(ctx context.Context, count int) ([]domain.DrawnCard, error) {
	if m.cfg.ServerAuthoritativeDraw && m.gateway != nil {
		cards, err := m.gateway.DrawRandom(ctx, count)
		if err == nil {
			err = checkRemoteDraw(cards, count)
		}
		if err == nil {
			return cards, nil
		}
		if errors.Is(err, domain.ErrAuthExpired) || !m.cfg.LocalFallback || m.catalog == nil {
			return nil, err
		}
		m.logger.Warn("remote draw failed, drawing locally", "error", err)
	}

	cards, err := m.catalog.ListCatalog(ctx)
	if err != nil {
		return nil, err
	}
	return deck.Draw(cards, count, m.cfg.ReversalProbability, m.rng)
}

func checkRemoteDraw(cards []domain.DrawnCard, count int) error {
	if len(cards) != count {
		return fmt.Errorf("%w: backend drew %d of %d cards", domain.ErrInsufficientCatalog, len(cards), count)
	}
	seen := make(map[string]struct{}, count)
	for _, dc := range cards {
		if _, dup := seen[dc.ID]; dup {
			return fmt.Errorf("%w: backend drew %s twice", domain.ErrInsufficientCatalog, dc.ID)
		}
		seen[dc.ID] = struct{}{}
	}
	return nil
}

// runDeal makes the next working-set card available.
func (m *Machine) runDeal(_ context.Context, gen uint64) {
	m.mu.Lock()
	defer m.unlock()
	if !m.current(gen, domain.StateDealing) {
		return
	}

	idx := m.session.Dealt
	m.session.Dealt++
	m.record(events.TypeCardDealt, map[string]any{
		"index":   idx,
		"card_id": m.session.WorkingSet[idx].ID,
	})

	if m.session.Dealt < len(m.session.WorkingSet) {
		m.scheduleLocked(m.cfg.DealInterval, m.runDeal)
		return
	}
	m.transitionLocked(domain.StateSelecting)
}

// runInterpretation produces the interpretation of a full selection. It
// runs without the lock.
func (m *Machine) runInterpretation(ctx context.Context, gen uint64) {
	m.mu.Lock()
	if !m.current(gen, domain.StateInterpreting) {
		m.unlock()
		return
	}
	req := gateway.ReadingRequest{
		Mode:      m.session.Mode,
		Domain:    m.session.Domain,
		Question:  m.session.Question,
		Selection: append([]domain.SelectedCard(nil), m.session.Selection...),
	}
	m.unlock()

	interp, readingID, err := m.interpret(ctx, req)

	m.mu.Lock()
	defer m.unlock()
	if !m.current(gen, domain.StateInterpreting) {
		m.logger.Debug("discarding stale interpretation")
		return
	}
	if err != nil {
		m.failLocked(err)
		return
	}

	m.interpretation = &interp
	m.session.ReadingID = readingID
	m.transitionLocked(domain.StateResult)
	m.record(events.TypeInterpretationReady, map[string]any{
		"reading_id": readingID,
		"sections":   len(interp.Sections),
	})
	m.revealer.Start(len(req.Selection))
}

func (m *Machine) interpret(ctx context.Context, req gateway.ReadingRequest) (domain.Interpretation, uuid.UUID, error) {
	local, err := m.interpreter.Interpret(req.Selection, req.Domain, req.Question)
	if err != nil {
		return domain.Interpretation{}, uuid.Nil, err
	}
	if m.gateway == nil {
		if req.Mode == domain.ModeAI {
			return domain.Interpretation{}, uuid.Nil, domain.ErrAIUnavailable
		}
		return local, uuid.Nil, nil
	}

	var res gateway.ReadingResult
	if req.Mode == domain.ModeAI {
		res, err = m.gateway.CreateAIReading(ctx, req)
		if err == nil && res.Interpretation == nil {
			err = fmt.Errorf("%w: %w: AI reading has no interpretation", domain.ErrNetwork, gateway.ErrMalformedResponse)
		}
	} else {
		req.Interpretation = &local
		res, err = m.gateway.CreateReading(ctx, req)
	}
	if err != nil {
		if errors.Is(err, domain.ErrAuthExpired) || !m.cfg.LocalFallback {
			return domain.Interpretation{}, uuid.Nil, err
		}
		m.logger.Warn("backend interpretation failed, using local engine", "mode", req.Mode, "error", err)
		return local, uuid.Nil, nil
	}

	if res.Interpretation == nil {
		return local, res.ReadingID, nil
	}
	return interpretation.Reconcile(*res.Interpretation, local, req.Selection), res.ReadingID, nil
}

// onReveal is called by the revealer without any lock held. Ticks that race
// a restart find the session out of the result state and are dropped.
func (m *Machine) onReveal(revealed, total int) {
	m.mu.Lock()
	defer m.unlock()
	if m.closed || m.session.State != domain.StateResult {
		return
	}
	m.record(events.TypeCardRevealed, map[string]int{"revealed": revealed, "total": total})
	if revealed == total {
		m.record(events.TypeAllRevealed, nil)
	}
}

// record queues an event for publication once the lock is released.
func (m *Machine) record(t events.Type, payload any) {
	ev, err := events.NewEvent(m.session.ID, t, string(m.session.State), payload)
	if err != nil {
		m.logger.Error("failed to build session event", "type", t, "error", err)
		return
	}
	m.outbox = append(m.outbox, ev)
}

// unlock releases m.mu and then publishes queued events, so handlers never
// run under the machine's lock.
func (m *Machine) unlock() {
	out := m.outbox
	m.outbox = nil
	m.mu.Unlock()

	for _, ev := range out {
		if err := m.emitter.EmitEvent(context.Background(), ev); err != nil {
			m.logger.Warn("session event handler failed", "type", ev.Type, "error", err)
		}
	}
}
