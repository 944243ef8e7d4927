package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/arcana/internal/domain/deck"
	"github.com/phrazzld/arcana/internal/gateway"
)

// ManagerConfig configures a Manager.
type ManagerConfig struct {
	Session Config

	// IdleTimeout closes sessions with no activity for this long. Zero
	// disables eviction.
	IdleTimeout time.Duration

	// SweepInterval is how often Run looks for idle sessions.
	SweepInterval time.Duration
}

// Manager owns one Machine per owner. Starting a new session for an owner
// closes the previous one, so exactly one session is active per owner.
type Manager struct {
	cfg    ManagerConfig
	deps   Deps
	newRNG func() deck.RNG
	logger *slog.Logger

	// gatewayFor binds a backend to an owner. Nil means every machine
	// shares deps.Gateway.
	gatewayFor func(owner string) gateway.ReadingGateway

	mu       sync.Mutex
	machines map[uuid.UUID]*managed
	byOwner  map[string]uuid.UUID
}

type managed struct {
	machine *Machine
	owner   string
}

// NewManager creates a manager. deps.RNG is ignored; each machine gets its
// own RNG from newRNG, or the shared default RNG when newRNG is nil.
func NewManager(cfg ManagerConfig, deps Deps, newRNG func() deck.RNG) (*Manager, error) {
	if err := cfg.Session.Validate(); err != nil {
		return nil, err
	}
	if newRNG == nil {
		newRNG = deck.DefaultRNG
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = time.Minute
	}
	return &Manager{
		cfg:      cfg,
		deps:     deps,
		newRNG:   newRNG,
		logger:   deps.Logger.With("component", "session_manager"),
		machines: make(map[uuid.UUID]*managed),
		byOwner:  make(map[string]uuid.UUID),
	}, nil
}

// SetGatewayResolver makes each new session talk to the backend returned by
// fn for its owner. It must be called before the first Start.
func (mg *Manager) SetGatewayResolver(fn func(owner string) gateway.ReadingGateway) {
	mg.gatewayFor = fn
}

// Start creates a new session for owner, closing any session owner already
// has.
func (mg *Manager) Start(owner string) (*Machine, error) {
	deps := mg.deps
	deps.RNG = mg.newRNG()
	if mg.gatewayFor != nil {
		deps.Gateway = mg.gatewayFor(owner)
	}
	m, err := NewMachine(mg.cfg.Session, deps)
	if err != nil {
		return nil, err
	}

	mg.mu.Lock()
	var previous *Machine
	if id, ok := mg.byOwner[owner]; ok {
		if old, ok := mg.machines[id]; ok {
			previous = old.machine
			delete(mg.machines, id)
		}
	}
	mg.machines[m.ID()] = &managed{machine: m, owner: owner}
	mg.byOwner[owner] = m.ID()
	mg.mu.Unlock()

	if previous != nil {
		previous.Close()
		mg.logger.Debug("replaced active session",
			"owner", owner,
			"previous_session_id", previous.ID().String())
	}
	return m, nil
}

// Get returns owner's session with the given ID.
func (mg *Manager) Get(id uuid.UUID, owner string) (*Machine, error) {
	mg.mu.Lock()
	defer mg.mu.Unlock()
	entry, ok := mg.machines[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if entry.owner != owner {
		return nil, ErrNotOwner
	}
	return entry.machine, nil
}

// Close closes and forgets the session.
func (mg *Manager) Close(id uuid.UUID) {
	mg.mu.Lock()
	entry, ok := mg.machines[id]
	if ok {
		mg.forgetLocked(id, entry.owner)
	}
	mg.mu.Unlock()
	if ok {
		entry.machine.Close()
	}
}

// Len returns the number of open sessions.
func (mg *Manager) Len() int {
	mg.mu.Lock()
	defer mg.mu.Unlock()
	return len(mg.machines)
}

// Sweep closes sessions idle since before now minus the idle timeout and
// returns how many were closed.
func (mg *Manager) Sweep(now time.Time) int {
	if mg.cfg.IdleTimeout <= 0 {
		return 0
	}
	cutoff := now.Add(-mg.cfg.IdleTimeout)

	mg.mu.Lock()
	var idle []*Machine
	for id, entry := range mg.machines {
		if entry.machine.LastActive().Before(cutoff) {
			idle = append(idle, entry.machine)
			mg.forgetLocked(id, entry.owner)
		}
	}
	mg.mu.Unlock()

	for _, m := range idle {
		m.Close()
	}
	if len(idle) > 0 {
		mg.logger.Info("evicted idle sessions", "count", len(idle))
	}
	return len(idle)
}

// Run sweeps idle sessions until ctx is done, then closes every session.
func (mg *Manager) Run(ctx context.Context) error {
	ticker := time.NewTicker(mg.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			mg.CloseAll()
			return nil
		case <-ticker.C:
			mg.Sweep(mg.deps.Scheduler.Clock().Now())
		}
	}
}

// CloseAll closes every session.
func (mg *Manager) CloseAll() {
	mg.mu.Lock()
	all := make([]*Machine, 0, len(mg.machines))
	for _, entry := range mg.machines {
		all = append(all, entry.machine)
	}
	mg.machines = make(map[uuid.UUID]*managed)
	mg.byOwner = make(map[string]uuid.UUID)
	mg.mu.Unlock()

	for _, m := range all {
		m.Close()
	}
}

func (mg *Manager) forgetLocked(id uuid.UUID, owner string) {
	delete(mg.machines, id)
	if mg.byOwner[owner] == id {
		delete(mg.byOwner, owner)
	}
}
