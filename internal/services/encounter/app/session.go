package app

import (
	"context"
	"log"
	"math/rand"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	apperrors "github.com/louisbranch/initiative-engine/internal/platform/errors"
	"github.com/louisbranch/initiative-engine/internal/services/encounter/content"
	"github.com/louisbranch/initiative-engine/internal/services/encounter/domain/character"
	"github.com/louisbranch/initiative-engine/internal/services/encounter/domain/combat"
	"github.com/louisbranch/initiative-engine/internal/services/encounter/domain/command"
	"github.com/louisbranch/initiative-engine/internal/services/encounter/domain/coordination"
	"github.com/louisbranch/initiative-engine/internal/services/encounter/domain/turn"
	"github.com/louisbranch/initiative-engine/internal/services/encounter/storage"
)

// DefaultCollectionTimeout bounds All/Optional collection windows when
// no explicit timeout is configured.
const DefaultCollectionTimeout = 90 * time.Second

const inboundBuffer = 16

var tracer = otel.Tracer("github.com/louisbranch/initiative-engine/internal/services/encounter/app")

// Options configure one session.
type Options struct {
	Name string

	// CollectionTimeout bounds All/Optional collection windows. Zero
	// selects DefaultCollectionTimeout.
	CollectionTimeout time.Duration

	// Seed feeds the session's dice source for synthesized rolls. Zero
	// seeds from the clock.
	Seed int64

	// Condenser summarizes completed sub-turns into their parent. Nil
	// disables condensation.
	Condenser turn.Condenser

	// Characters persists roster members when set.
	Characters storage.CharacterStore

	// TurnLog journals completed root turns when set.
	TurnLog storage.TurnLogStore

	// Bestiary supplies monster templates for spawning.
	Bestiary *content.Bestiary
}

// state is the session's mutable core. Only the worker goroutine
// touches it after NewSession returns.
type state struct {
	turns        *turn.Manager
	combat       *combat.State
	coordinator  *coordination.Coordinator
	orchestrator *command.Orchestrator
	roster       map[string]character.Combatant
	rosterOrder  []string
	rng          *rand.Rand

	// collectGen invalidates stale collection timers; it advances
	// whenever the active expectation changes or resolves.
	collectGen int
	// resolved marks the current collection window closed, which for
	// Optional mode only ever happens by timeout or explicit decision.
	resolved bool
}

type operation struct {
	name   string
	ctx    context.Context
	fn     func(ctx context.Context, st *state) error
	result chan error
}

// Session is the single-writer orchestrator for one table. All public
// methods funnel their work through the worker goroutine, so callers
// may share a Session freely.
type Session struct {
	id        string
	name      string
	createdAt time.Time

	inbound   chan operation
	done      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once

	events *feed

	characters storage.CharacterStore
	turnLog    storage.TurnLogStore
	bestiary   *content.Bestiary

	collectionTimeout time.Duration

	timerMu sync.Mutex
	timer   *time.Timer

	st state
}

// NewSession builds a session and starts its worker.
func NewSession(id string, opts Options) *Session {
	if opts.CollectionTimeout <= 0 {
		opts.CollectionTimeout = DefaultCollectionTimeout
	}
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	s := &Session{
		id:                id,
		name:              opts.Name,
		createdAt:         time.Now().UTC(),
		inbound:           make(chan operation, inboundBuffer),
		done:              make(chan struct{}),
		stopped:           make(chan struct{}),
		events:            newFeed(),
		characters:        opts.Characters,
		turnLog:           opts.TurnLog,
		bestiary:          opts.Bestiary,
		collectionTimeout: opts.CollectionTimeout,
	}

	roster := make(map[string]character.Combatant)
	lookup := func(characterID string) (character.Combatant, bool) {
		member, ok := roster[characterID]
		return member, ok
	}
	s.st = state{
		turns:        turn.NewManager(opts.Condenser),
		combat:       combat.NewState(),
		coordinator:  coordination.NewCoordinator(),
		orchestrator: command.NewOrchestrator(command.NewExecutor(lookup)),
		roster:       roster,
		rng:          rand.New(rand.NewSource(seed)),
	}

	go s.run()
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Name returns the session's display name.
func (s *Session) Name() string { return s.name }

// CreatedAt returns when the session was created.
func (s *Session) CreatedAt() time.Time { return s.createdAt }

// Subscribe registers a watcher on the session's event feed. Slow
// watchers miss events rather than slowing the worker down.
func (s *Session) Subscribe() (<-chan Event, func()) {
	return s.events.subscribe()
}

// Close stops the worker and shuts the event feed. Operations submitted
// after Close fail with CodeSessionClosed.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.stopCollectionTimer()
		close(s.done)
		<-s.stopped
		s.events.close()
	})
}

func (s *Session) run() {
	defer close(s.stopped)
	for {
		select {
		case op := <-s.inbound:
			op.result <- s.dispatch(op)
		case <-s.done:
			return
		}
	}
}

func (s *Session) dispatch(op operation) error {
	ctx, span := tracer.Start(op.ctx, "session."+op.name,
		trace.WithAttributes(attribute.String("session.id", s.id)))
	defer span.End()

	err := op.fn(ctx, &s.st)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

// do runs fn on the worker goroutine and waits for its result. A caller
// whose context expires while the operation is queued may still have it
// applied; only the wait is abandoned.
func (s *Session) do(ctx context.Context, name string, fn func(ctx context.Context, st *state) error) error {
	op := operation{name: name, ctx: ctx, fn: fn, result: make(chan error, 1)}

	select {
	case s.inbound <- op:
	case <-s.done:
		return apperrors.New(apperrors.CodeSessionClosed, "session "+s.id+" is closed")
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-op.result:
		return err
	case <-s.stopped:
		// The worker may have finished this op just before stopping.
		select {
		case err := <-op.result:
			return err
		default:
		}
		return apperrors.New(apperrors.CodeSessionClosed, "session "+s.id+" is closed")
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Session) publish(kind EventKind, payload map[string]any) {
	s.events.publish(Event{
		Session: s.id,
		Kind:    kind,
		At:      time.Now().UTC(),
		Payload: payload,
	})
}

func (s *Session) armCollectionTimer(gen int) {
	s.timerMu.Lock()
	defer s.timerMu.Unlock()

	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.collectionTimeout, func() { s.expireCollection(gen) })
}

func (s *Session) stopCollectionTimer() {
	s.timerMu.Lock()
	defer s.timerMu.Unlock()

	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// expireCollection runs on the timer goroutine and hands resolution to
// the worker, where the generation check drops stale expiries.
func (s *Session) expireCollection(gen int) {
	err := s.do(context.Background(), "collection.expire", func(ctx context.Context, st *state) error {
		if st.collectGen != gen {
			return nil
		}
		_, err := s.closeCollection(st, "timeout")
		return err
	})
	if err != nil && !apperrors.IsCode(err, apperrors.CodeSessionClosed) {
		log.Printf("collection timeout session=%s err=%v", s.id, err)
	}
}

// SessionStatus is a point-in-time view of one session.
type SessionStatus struct {
	ID               string           `json:"session_id"`
	Name             string           `json:"name,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
	Phase            string           `json:"phase"`
	Round            int              `json:"round,omitempty"`
	CurrentCombatant string           `json:"current_combatant,omitempty"`
	CombatMode       bool             `json:"combat_mode"`
	RosterSize       int              `json:"roster_size"`
	Turns            turn.Stats       `json:"turns"`
	Collection       CollectionStatus `json:"collection"`
}

// Status reports the session's current phase, turn counters and
// collection window.
func (s *Session) Status(ctx context.Context) (SessionStatus, error) {
	var status SessionStatus
	err := s.do(ctx, "status", func(ctx context.Context, st *state) error {
		status = SessionStatus{
			ID:               s.id,
			Name:             s.name,
			CreatedAt:        s.createdAt,
			Phase:            st.combat.Phase.String(),
			Round:            st.combat.Round,
			CurrentCombatant: st.combat.CurrentParticipantID(),
			CombatMode:       st.coordinator.CombatMode(),
			RosterSize:       len(st.roster),
			Turns:            st.turns.Stats(),
			Collection:       collectionStatus(st),
		}
		return nil
	})
	return status, err
}
