package app_test

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"trivia-builder-service/internal/app"
	"trivia-builder-service/internal/auth"
	"trivia-builder-service/internal/builder"
	"trivia-builder-service/internal/domain"
	"trivia-builder-service/internal/infra/memory"
)

func TestSingleRoundSetPublishesOnCompletion(t *testing.T) {
	store := memory.NewSetStore()
	service := newTestService(store, memory.NewSessionStore())
	ctx := userCtx("u1")

	snap, err := service.Start(ctx)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	id := snap.SessionID
	dispatchAll(t, service, ctx, id,
		builder.SetTitle{Title: "Quiz"},
		builder.AddTag{Tag: "fun"},
		builder.SetPublic{Public: true},
	)
	fillRound(t, service, ctx, id, 1, 3)
	dispatchAll(t, service, ctx, id,
		builder.SetDailyDouble{Round: 1, Cell: domain.Cell{Category: 2, Row: 4}},
		builder.SetFinalCategory{Category: "Space"},
		builder.SetFinalClue{Clue: "Closest star to Earth"},
		builder.SetFinalResponse{Response: "The Sun"},
	)

	var result *domain.SaveResult
	for i := 0; i < 4; i++ {
		_, result, err = service.Dispatch(ctx, id, builder.Advance{})
		if err != nil {
			t.Fatalf("advance %d: %v", i, err)
		}
	}
	if result == nil {
		t.Fatalf("expected completion to save")
	}
	if result.Status != domain.SaveOK || result.IsDraft || result.NumClues != 15 || result.SetID != id {
		t.Fatalf("unexpected save result %+v", result)
	}

	published, _ := service.ListSets(ctx, domain.StatusPublished)
	drafts, _ := service.ListSets(ctx, domain.StatusDraft)
	if len(published) != 1 || len(drafts) != 0 {
		t.Fatalf("expected one published set and no drafts, got %d/%d", len(published), len(drafts))
	}
	set := published[0]
	if len(set.Round1CategoryIDs) != 3 || set.RoundOneDaily == nil || *set.RoundOneDaily != (domain.Cell{Category: 2, Row: 4}) {
		t.Fatalf("unexpected stored set %+v", set)
	}
	for _, catID := range set.Round1CategoryIDs {
		if _, err := store.GetCategory(context.Background(), catID); err != nil {
			t.Fatalf("expected category %s stored: %v", catID, err)
		}
	}

	state, _, _ := service.Dispatch(ctx, id, builder.SetTitle{Title: "Quiz"})
	if state.Dirty != 1 {
		t.Fatalf("expected dirty reset by save, got %d", state.Dirty)
	}
}

func TestDraftMovesToPublished(t *testing.T) {
	service := newTestService(memory.NewSetStore(), memory.NewSessionStore())
	ctx := userCtx("u1")

	snap, _ := service.Start(ctx)
	id := snap.SessionID
	dispatchAll(t, service, ctx, id, builder.SetTitle{Title: "Half done"}, builder.AddTag{Tag: "space"})
	result, err := service.Save(ctx, id)
	if err != nil || !result.IsDraft {
		t.Fatalf("expected draft save, got %+v err=%v", result, err)
	}
	if drafts, _ := service.ListSets(ctx, domain.StatusDraft); len(drafts) != 1 {
		t.Fatalf("expected one draft, got %d", len(drafts))
	}

	fillRound(t, service, ctx, id, 1, 3)
	dispatchAll(t, service, ctx, id,
		builder.RandomDailyDouble{Round: 1},
		builder.SetFinalCategory{Category: "Space"},
		builder.SetFinalClue{Clue: "Red planet"},
		builder.SetFinalResponse{Response: "Mars"},
	)
	result, err = service.Save(ctx, id)
	if err != nil || result.IsDraft {
		t.Fatalf("expected published save, got %+v err=%v", result, err)
	}

	drafts, _ := service.ListSets(ctx, domain.StatusDraft)
	published, _ := service.ListSets(ctx, domain.StatusPublished)
	if len(drafts) != 0 || len(published) != 1 || published[0].ID != id {
		t.Fatalf("expected the set to move collections, drafts=%d published=%d", len(drafts), len(published))
	}
}

func TestSaveFailureKeepsDirty(t *testing.T) {
	store := &flakyStore{SetStore: memory.NewSetStore(), fail: true}
	service := newTestService(store, memory.NewSessionStore())
	ctx := userCtx("u1")

	snap, _ := service.Start(ctx)
	dispatchAll(t, service, ctx, snap.SessionID, builder.SetTitle{Title: "A"}, builder.SetDescription{Description: "B"})

	result, err := service.Save(ctx, snap.SessionID)
	if err == nil || result.Status != domain.SaveIOFailure {
		t.Fatalf("expected io failure, got %+v err=%v", result, err)
	}
	state, _, _ := service.Dispatch(ctx, snap.SessionID, builder.Retreat{})
	if state.Dirty != 2 {
		t.Fatalf("expected dirty kept after failed save, got %d", state.Dirty)
	}

	store.fail = false
	result, err = service.Save(ctx, snap.SessionID)
	if err != nil || result.Status != domain.SaveOK {
		t.Fatalf("expected retry to succeed, got %+v err=%v", result, err)
	}
	state, _, _ = service.Dispatch(ctx, snap.SessionID, builder.Retreat{})
	if state.Dirty != 0 {
		t.Fatalf("expected clean after save, got %d", state.Dirty)
	}
}

func TestSaveRejectsInvalidSet(t *testing.T) {
	sessions := memory.NewSessionStore()
	service := newTestService(memory.NewSetStore(), sessions)
	ctx := userCtx("u1")

	broken := builder.NewState("u1")
	broken.Set.Round1Len = domain.MaxRoundLen + 1
	sessions.GetOrCreate("broken", func() *app.Session {
		return app.NewSession("broken", "u1", broken, builder.NewMachine(rand.NewSource(1)), time.Now)
	})

	result, err := service.Save(ctx, "broken")
	if !errors.Is(err, domain.ErrInvalidSet) || result.Status != domain.SaveValidationFailure {
		t.Fatalf("expected validation failure, got %+v err=%v", result, err)
	}
}

func TestOpenHydratesAndChecksOwner(t *testing.T) {
	service := newTestService(memory.NewSetStore(), memory.NewSessionStore())
	ctx := userCtx("u1")

	snap, _ := service.Start(ctx)
	id := snap.SessionID
	dispatchAll(t, service, ctx, id, builder.SetTitle{Title: "Rivers"}, builder.AddTag{Tag: "geo"}, builder.AddCategory{Round: 1})
	fillRound(t, service, ctx, id, 1, 4)
	if _, err := service.Save(ctx, id); err != nil {
		t.Fatalf("save: %v", err)
	}
	service.Close(ctx, id)

	if _, err := service.Open(userCtx("u2"), id); !errors.Is(err, domain.ErrNotOwner) {
		t.Fatalf("expected not owner, got %v", err)
	}
	if _, err := service.Open(ctx, "missing"); !errors.Is(err, domain.ErrSetNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	opened, err := service.Open(ctx, id)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	state := opened.State
	if opened.SessionID != id || state.Set.Title != "Rivers" || len(state.Visible(1)) != 4 {
		t.Fatalf("unexpected hydrated state %+v", state.Set)
	}
	if state.Round1[3].Clues[0] == "" || state.Dirty != 0 {
		t.Fatalf("expected stored clues and a clean state, got %+v", state.Round1[3])
	}
	if state.MostAdvanced != domain.StageRound1DailyDouble {
		t.Fatalf("expected watermark at daily double stage, got %s", state.MostAdvanced)
	}
}

func TestDowngradeDeletesRoundTwoCategories(t *testing.T) {
	store := memory.NewSetStore()
	service := newTestService(store, memory.NewSessionStore())
	ctx := userCtx("u1")

	snap, _ := service.Start(ctx)
	id := snap.SessionID
	dispatchAll(t, service, ctx, id, builder.SetHasTwoRounds{TwoRounds: true})
	fillRound(t, service, ctx, id, 2, 3)
	if _, err := service.Save(ctx, id); err != nil {
		t.Fatalf("save: %v", err)
	}
	saved, _ := store.GetSet(context.Background(), id)
	if len(saved.Round2CategoryIDs) != 3 {
		t.Fatalf("expected round 2 ids, got %v", saved.Round2CategoryIDs)
	}

	dispatchAll(t, service, ctx, id, builder.SetHasTwoRounds{TwoRounds: false})
	if _, err := service.Save(ctx, id); err != nil {
		t.Fatalf("save 2: %v", err)
	}
	for _, catID := range saved.Round2CategoryIDs {
		if _, err := store.GetCategory(context.Background(), catID); !errors.Is(err, domain.ErrCategoryNotFound) {
			t.Fatalf("expected orphan %s deleted, got %v", catID, err)
		}
	}
	after, _ := store.GetSet(context.Background(), id)
	if after.HasTwoRounds || len(after.Round2CategoryIDs) != 0 || after.RoundTwoDaily1 != nil {
		t.Fatalf("expected single-round document, got %+v", after)
	}
}

func TestSubscribersShareSession(t *testing.T) {
	service := newTestService(memory.NewSetStore(), memory.NewSessionStore())
	ctx := userCtx("u1")

	snap, _ := service.Start(ctx)
	phone, cancelPhone, err := service.Subscribe(ctx, snap.SessionID)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer cancelPhone()
	tablet, cancelTablet, _ := service.Subscribe(ctx, snap.SessionID)
	defer cancelTablet()
	<-phone
	<-tablet

	if _, _, err := service.Subscribe(userCtx("u2"), snap.SessionID); !errors.Is(err, domain.ErrNotOwner) {
		t.Fatalf("expected stranger rejected, got %v", err)
	}

	dispatchAll(t, service, ctx, snap.SessionID, builder.SetTitle{Title: "Shared"})
	for name, ch := range map[string]<-chan builder.State{"phone": phone, "tablet": tablet} {
		select {
		case state := <-ch:
			if state.Set.Title != "Shared" {
				t.Fatalf("%s got stale state %q", name, state.Set.Title)
			}
		case <-time.After(time.Second):
			t.Fatalf("%s timed out waiting for update", name)
		}
	}
}

func TestSearchFindsPublicPublishedSets(t *testing.T) {
	service := newTestService(memory.NewSetStore(), memory.NewSessionStore())
	owner := userCtx("u1")

	publicID := publishSet(t, service, owner, true)
	publishSet(t, service, owner, false)

	found, err := service.Search(userCtx("u2"), "  science ")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(found) != 1 || found[0].ID != publicID {
		t.Fatalf("expected only the public set, got %d results", len(found))
	}
	byCategory, _ := service.Search(userCtx("u2"), "topic")
	if len(byCategory) != 1 {
		t.Fatalf("expected category keyword match, got %d", len(byCategory))
	}

	if _, _, err := service.GetSet(userCtx("u2"), publicID); err != nil {
		t.Fatalf("expected public set readable, got %v", err)
	}
	if err := service.DeleteSet(userCtx("u2"), publicID); !errors.Is(err, domain.ErrNotOwner) {
		t.Fatalf("expected stranger delete rejected, got %v", err)
	}
}

func TestRequiresIdentity(t *testing.T) {
	service := newTestService(memory.NewSetStore(), memory.NewSessionStore())
	if _, err := service.Start(context.Background()); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected unauthenticated, got %v", err)
	}
	if _, _, err := service.Dispatch(userCtx("u1"), "nope", builder.Advance{}); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected session not found, got %v", err)
	}
}

func newTestService(sets app.SetRepository, sessions app.SessionRepository) *app.BuilderService {
	n := 0
	return app.NewBuilderService(sets, sessions, auth.ContextIdentity{},
		app.WithIDGenerator(func() string {
			n++
			return fmt.Sprintf("id-%d", n)
		}),
		app.WithRandSource(func() rand.Source { return rand.NewSource(7) }),
	)
}

func userCtx(userID string) context.Context {
	return auth.WithUserID(context.Background(), userID)
}

func dispatchAll(t *testing.T, service *app.BuilderService, ctx context.Context, sessionID string, intents ...builder.Intent) {
	t.Helper()
	for _, in := range intents {
		if _, _, err := service.Dispatch(ctx, sessionID, in); err != nil {
			t.Fatalf("dispatch %s: %v", in.Kind(), err)
		}
	}
}

// fillRound names the first n categories of a round and fills every slot.
func fillRound(t *testing.T, service *app.BuilderService, ctx context.Context, sessionID string, round, n int) {
	t.Helper()
	for cat := 0; cat < n; cat++ {
		dispatchAll(t, service, ctx, sessionID, builder.SetCategoryName{Round: round, Category: cat, Name: fmt.Sprintf("Topic %d", cat)})
		for row := 0; row < domain.CluesPerCategory; row++ {
			dispatchAll(t, service, ctx, sessionID,
				builder.SetClue{Round: round, Category: cat, Row: row, Clue: fmt.Sprintf("clue %d.%d", cat, row)},
				builder.SetResponse{Round: round, Category: cat, Row: row, Response: fmt.Sprintf("response %d.%d", cat, row)},
			)
		}
	}
}

func publishSet(t *testing.T, service *app.BuilderService, ctx context.Context, public bool) string {
	t.Helper()
	snap, err := service.Start(ctx)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	id := snap.SessionID
	dispatchAll(t, service, ctx, id,
		builder.SetTitle{Title: "Lab"},
		builder.AddTag{Tag: "science"},
		builder.SetPublic{Public: public},
	)
	fillRound(t, service, ctx, id, 1, 3)
	dispatchAll(t, service, ctx, id,
		builder.RandomDailyDouble{Round: 1},
		builder.SetFinalCategory{Category: "Elements"},
		builder.SetFinalClue{Clue: "Symbol Au"},
		builder.SetFinalResponse{Response: "Gold"},
	)
	result, err := service.Save(ctx, id)
	if err != nil || result.IsDraft {
		t.Fatalf("expected published set, got %+v err=%v", result, err)
	}
	return id
}

type flakyStore struct {
	*memory.SetStore
	fail bool
}

func (s *flakyStore) SaveSet(ctx context.Context, set domain.CustomSet, categories []domain.Category, orphaned []string) error {
	if s.fail {
		return errors.New("disk unavailable")
	}
	return s.SetStore.SaveSet(ctx, set, categories, orphaned)
}
