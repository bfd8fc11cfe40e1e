package memory

import (
	"math/rand"
	"testing"
	"time"

	"trivia-builder-service/internal/app"
	"trivia-builder-service/internal/builder"
)

func TestSessionStoreLifecycle(t *testing.T) {
	store := NewSessionStore()
	created := 0
	create := func() *app.Session {
		created++
		return app.NewSession("set-1", "u1", builder.NewState("u1"), builder.NewMachine(rand.NewSource(1)), time.Now)
	}

	session := store.GetOrCreate("set-1", create)
	if session == nil {
		t.Fatalf("expected session")
	}
	if again := store.GetOrCreate("set-1", create); again != session || created != 1 {
		t.Fatalf("expected shared session, created %d", created)
	}
	if _, ok := store.Get("set-1"); !ok {
		t.Fatalf("expected session present")
	}

	store.DeleteIfIdle("set-1")
	if _, ok := store.Get("set-1"); ok {
		t.Fatalf("expected session removed when idle")
	}
}
