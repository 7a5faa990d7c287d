package app

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/louisbranch/initiative-engine/internal/platform/errors"
	"github.com/louisbranch/initiative-engine/internal/services/encounter/content"
	"github.com/louisbranch/initiative-engine/internal/services/encounter/domain/turn"
	"github.com/louisbranch/initiative-engine/internal/services/encounter/storage"
)

// RegistryConfig carries the shared dependencies every new session
// receives.
type RegistryConfig struct {
	CollectionTimeout time.Duration
	Condenser         turn.Condenser
	Characters        storage.CharacterStore
	TurnLog           storage.TurnLogStore
	Bestiary          *content.Bestiary
}

// Registry tracks live sessions. Owners create one at startup and pass
// it to the service and gateway; there are no package-level sessions.
type Registry struct {
	mu       sync.Mutex
	config   RegistryConfig
	sessions map[string]*Session
	order    []string
}

// NewRegistry returns an empty registry.
func NewRegistry(config RegistryConfig) *Registry {
	return &Registry{
		config:   config,
		sessions: make(map[string]*Session),
	}
}

// CreateOptions name a new session.
type CreateOptions struct {
	// ID is optional; a UUID is assigned when empty.
	ID   string
	Name string
	// Seed feeds the session's dice source. Zero seeds from the clock.
	Seed int64
}

// Create starts a new session worker. A configured character store
// seeds the roster with every persisted record.
func (r *Registry) Create(ctx context.Context, opts CreateOptions) (*Session, error) {
	id := strings.TrimSpace(opts.ID)
	if id == "" {
		id = uuid.NewString()
	}

	r.mu.Lock()
	if _, exists := r.sessions[id]; exists {
		r.mu.Unlock()
		return nil, apperrors.Newf(apperrors.CodeSessionAlreadyExists, "session %q already exists", id)
	}
	session := NewSession(id, Options{
		Name:              opts.Name,
		Seed:              opts.Seed,
		CollectionTimeout: r.config.CollectionTimeout,
		Condenser:         r.config.Condenser,
		Characters:        r.config.Characters,
		TurnLog:           r.config.TurnLog,
		Bestiary:          r.config.Bestiary,
	})
	r.sessions[id] = session
	r.order = append(r.order, id)
	r.mu.Unlock()

	if r.config.Characters != nil {
		if err := session.loadRoster(ctx); err != nil {
			_ = r.Close(id)
			return nil, fmt.Errorf("load roster for session %s: %w", id, err)
		}
	}
	return session, nil
}

// loadRoster seeds the roster from the character store. Stores return
// independent copies, so each session owns its records outright.
func (s *Session) loadRoster(ctx context.Context) error {
	return s.do(ctx, "session.load", func(ctx context.Context, st *state) error {
		records, err := s.characters.List(ctx)
		if err != nil {
			return err
		}
		for _, record := range records {
			if _, exists := st.roster[record.CombatantID()]; exists {
				continue
			}
			addToRoster(st, record)
		}
		return nil
	})
}

// Get returns a live session by id.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.sessions[id]
	if !ok {
		return nil, apperrors.Newf(apperrors.CodeSessionNotFound, "no session with id %q", id)
	}
	return session, nil
}

// List returns live sessions in creation order.
func (r *Registry) List() []*Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	sessions := make([]*Session, 0, len(r.order))
	for _, id := range r.order {
		sessions = append(sessions, r.sessions[id])
	}
	return sessions
}

// Close stops one session and forgets it.
func (r *Registry) Close(id string) error {
	r.mu.Lock()
	session, ok := r.sessions[id]
	if ok {
		delete(r.sessions, id)
		for i, existing := range r.order {
			if existing == id {
				r.order = append(r.order[:i], r.order[i+1:]...)
				break
			}
		}
	}
	r.mu.Unlock()

	if !ok {
		return apperrors.Newf(apperrors.CodeSessionNotFound, "no session with id %q", id)
	}
	session.Close()
	return nil
}

// CloseAll stops every session, for process shutdown.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	sessions := make([]*Session, 0, len(r.order))
	for _, id := range r.order {
		sessions = append(sessions, r.sessions[id])
	}
	r.sessions = make(map[string]*Session)
	r.order = nil
	r.mu.Unlock()

	for _, session := range sessions {
		session.Close()
	}
}
