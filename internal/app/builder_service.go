package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"trivia-builder-service/internal/builder"
	"trivia-builder-service/internal/domain"
)

// SetRepository abstracts the document store holding sets and categories
// (in-memory, Postgres, optionally fronted by a cache).
type SetRepository interface {
	// SaveSet writes the set, its categories, and deletes orphaned categories
	// as one atomic step.
	SaveSet(ctx context.Context, set domain.CustomSet, categories []domain.Category, orphaned []string) error
	GetSet(ctx context.Context, setID string) (domain.CustomSet, error)
	GetCategory(ctx context.Context, categoryID string) (domain.Category, error)
	DeleteSet(ctx context.Context, setID string) error
	ListSets(ctx context.Context, ownerID string, status domain.SetStatus) ([]domain.CustomSet, error)
	// SearchSets finds public published sets by tag or category keyword.
	SearchSets(ctx context.Context, keyword string) ([]domain.CustomSet, error)
}

// SessionRepository abstracts where live builder sessions are kept.
type SessionRepository interface {
	GetOrCreate(sessionID string, create func() *Session) *Session
	Get(sessionID string) (*Session, bool)
	DeleteIfIdle(sessionID string)
}

// IdentityProvider resolves the calling user.
type IdentityProvider interface {
	UserID(ctx context.Context) (string, error)
}

// Snapshot is what clients see of a session.
type Snapshot struct {
	SessionID string        `json:"sessionId"`
	State     builder.State `json:"state"`
}

// BuilderService contains the set builder use cases.
type BuilderService struct {
	sets     SetRepository
	sessions SessionRepository
	identity IdentityProvider
	now      func() time.Time
	newID    func() string
	source   func() rand.Source
}

// Option customizes a BuilderService.
type Option func(*BuilderService)

// WithClock is test-only for deterministic timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *BuilderService) { s.now = now }
}

// WithIDGenerator replaces uuid generation.
func WithIDGenerator(newID func() string) Option {
	return func(s *BuilderService) { s.newID = newID }
}

// WithRandSource seeds the daily double picker of every new session.
func WithRandSource(source func() rand.Source) Option {
	return func(s *BuilderService) { s.source = source }
}

func NewBuilderService(sets SetRepository, sessions SessionRepository, identity IdentityProvider, opts ...Option) *BuilderService {
	s := &BuilderService{
		sets:     sets,
		sessions: sessions,
		identity: identity,
		now:      time.Now,
		newID:    uuid.NewString,
	}
	s.source = func() rand.Source { return rand.NewSource(s.now().UnixNano()) }
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start opens a builder session on a new, empty set.
func (s *BuilderService) Start(ctx context.Context) (Snapshot, error) {
	userID, err := s.identity.UserID(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	id := s.newID()
	session := s.sessions.GetOrCreate(id, func() *Session {
		return s.newSession(id, userID, builder.NewState(userID))
	})
	return Snapshot{SessionID: session.ID(), State: session.Snapshot()}, nil
}

// Open loads an existing set for editing. The session id is the set id, so
// every device opening the same set joins the same session.
func (s *BuilderService) Open(ctx context.Context, setID string) (Snapshot, error) {
	userID, err := s.identity.UserID(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	if session, ok := s.sessions.Get(setID); ok {
		if session.OwnerID() != userID {
			return Snapshot{}, domain.ErrNotOwner
		}
		return Snapshot{SessionID: session.ID(), State: session.Snapshot()}, nil
	}

	set, cats, err := s.load(ctx, setID)
	if err != nil {
		return Snapshot{}, err
	}
	if set.OwnerID != userID {
		return Snapshot{}, domain.ErrNotOwner
	}
	state, err := builder.Hydrate(set, cats)
	if err != nil {
		log.Printf("hydrate set %s: %v", setID, err)
		return Snapshot{}, err
	}

	session := s.sessions.GetOrCreate(setID, func() *Session {
		return s.newSession(setID, userID, state)
	})
	return Snapshot{SessionID: session.ID(), State: session.Snapshot()}, nil
}

// Dispatch applies an intent to a session. When the intent completes the
// wizard the set is saved and the save result returned alongside the state.
func (s *BuilderService) Dispatch(ctx context.Context, sessionID string, in builder.Intent) (builder.State, *domain.SaveResult, error) {
	session, err := s.ownedSession(ctx, sessionID)
	if err != nil {
		return builder.State{}, nil, err
	}
	state, err := session.dispatch(in)
	if err != nil {
		return builder.State{}, nil, err
	}
	if !state.Completed {
		return state, nil, nil
	}

	result, err := s.save(ctx, session)
	return session.Snapshot(), &result, err
}

// Save persists the session's set as a draft or a published set, whichever its
// completeness allows.
func (s *BuilderService) Save(ctx context.Context, sessionID string) (domain.SaveResult, error) {
	session, err := s.ownedSession(ctx, sessionID)
	if err != nil {
		return domain.SaveResult{}, err
	}
	return s.save(ctx, session)
}

func (s *BuilderService) save(ctx context.Context, session *Session) (domain.SaveResult, error) {
	session.saveMu.Lock()
	defer session.saveMu.Unlock()

	prepared, err := session.prepareSave(s.newID)
	if err != nil {
		return domain.SaveResult{Status: domain.SaveValidationFailure, Message: err.Error()}, err
	}

	set, cats := builder.Finalize(prepared)
	now := s.now()
	if set.CreatedAt.IsZero() {
		set.CreatedAt = now
	}
	set.UpdatedAt = now

	if err := s.sets.SaveSet(ctx, set, cats, prepared.Orphaned); err != nil {
		log.Printf("save set %s: %v", set.ID, err)
		return domain.SaveResult{
			Status:  domain.SaveIOFailure,
			SetID:   set.ID,
			IsDraft: set.IsDraft,
			Message: err.Error(),
		}, fmt.Errorf("save set %s: %w", set.ID, err)
	}

	session.commitSave(prepared, set)
	return domain.SaveResult{
		Status:   domain.SaveOK,
		SetID:    set.ID,
		IsDraft:  set.IsDraft,
		NumClues: set.NumClues,
	}, nil
}

// Subscribe returns a channel that receives every new state of a session.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *BuilderService) Subscribe(ctx context.Context, sessionID string) (<-chan builder.State, func(), error) {
	session, err := s.ownedSession(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	ch, cancel := session.subscribe()
	return ch, cancel, nil
}

// Close drops the session once nobody is watching it. Unsaved edits are lost.
func (s *BuilderService) Close(_ context.Context, sessionID string) {
	s.sessions.DeleteIfIdle(sessionID)
}

// GetSet returns a set with its categories to its owner, or to anyone when the
// set is published and public.
func (s *BuilderService) GetSet(ctx context.Context, setID string) (domain.CustomSet, []domain.Category, error) {
	userID, err := s.identity.UserID(ctx)
	if err != nil {
		return domain.CustomSet{}, nil, err
	}
	set, cats, err := s.load(ctx, setID)
	if err != nil {
		return domain.CustomSet{}, nil, err
	}
	if set.OwnerID != userID && (set.IsDraft || !set.IsPublic) {
		return domain.CustomSet{}, nil, domain.ErrNotOwner
	}
	return set, cats, nil
}

// ListSets lists the caller's drafts or published sets.
func (s *BuilderService) ListSets(ctx context.Context, status domain.SetStatus) ([]domain.CustomSet, error) {
	userID, err := s.identity.UserID(ctx)
	if err != nil {
		return nil, err
	}
	return s.sets.ListSets(ctx, userID, status)
}

// DeleteSet removes one of the caller's sets and its categories.
func (s *BuilderService) DeleteSet(ctx context.Context, setID string) error {
	userID, err := s.identity.UserID(ctx)
	if err != nil {
		return err
	}
	set, err := s.sets.GetSet(ctx, setID)
	if err != nil {
		return err
	}
	if set.OwnerID != userID {
		return domain.ErrNotOwner
	}
	if err := s.sets.DeleteSet(ctx, setID); err != nil {
		log.Printf("delete set %s: %v", setID, err)
		return fmt.Errorf("delete set %s: %w", setID, err)
	}
	s.sessions.DeleteIfIdle(setID)
	return nil
}

// Search finds public published sets whose tags or category names contain keyword.
func (s *BuilderService) Search(ctx context.Context, keyword string) ([]domain.CustomSet, error) {
	keyword = strings.ToUpper(strings.TrimSpace(keyword))
	if keyword == "" {
		return nil, nil
	}
	return s.sets.SearchSets(ctx, keyword)
}

// load fetches a set and all of its in-scope categories. Categories are
// fetched concurrently and only returned once every fetch has succeeded.
func (s *BuilderService) load(ctx context.Context, setID string) (domain.CustomSet, []domain.Category, error) {
	set, err := s.sets.GetSet(ctx, setID)
	if err != nil {
		if !errors.Is(err, domain.ErrSetNotFound) {
			log.Printf("load set %s: %v", setID, err)
		}
		return domain.CustomSet{}, nil, err
	}

	ids := append([]string(nil), set.Round1CategoryIDs...)
	if set.HasTwoRounds {
		ids = append(ids, set.Round2CategoryIDs...)
	}
	cats := make([]domain.Category, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			c, err := s.sets.GetCategory(gctx, id)
			if err != nil {
				return fmt.Errorf("load category %s: %w", id, err)
			}
			cats[i] = c
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Printf("load set %s: %v", setID, err)
		return domain.CustomSet{}, nil, err
	}
	return set, cats, nil
}

func (s *BuilderService) ownedSession(ctx context.Context, sessionID string) (*Session, error) {
	userID, err := s.identity.UserID(ctx)
	if err != nil {
		return nil, err
	}
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	if session.OwnerID() != userID {
		return nil, domain.ErrNotOwner
	}
	return session, nil
}

func (s *BuilderService) newSession(id, ownerID string, state builder.State) *Session {
	return NewSession(id, ownerID, state, builder.NewMachine(s.source()), s.now)
}
