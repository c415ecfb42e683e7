package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/isl-lang/chaoscore/pkg/chaos"
	"github.com/isl-lang/chaoscore/pkg/session"
)

func exportedSession(t *testing.T, seed uint32) *session.Session {
	t.Helper()
	at := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	r := session.NewRecorder(seed).WithClock(func() time.Time { return at })
	r.RecordEvent(chaos.NewEvent("e1", chaos.FaultError, at, chaos.Payload{"code": "E500"}))
	r.RecordScenarioResult("s1", true, 10)
	return r.ExportSession()
}

func TestMemoryStore_SaveLoad(t *testing.T) {
	ctx := context.Background()
	ms := NewMemoryStore()
	s := exportedSession(t, 1)

	require.NoError(t, ms.Save(ctx, s))
	loaded, err := ms.Load(ctx, s.ID)
	require.NoError(t, err)
	require.Equal(t, s, loaded)
}

func TestMemoryStore_LoadMissing(t *testing.T) {
	ms := NewMemoryStore()
	_, err := ms.Load(context.Background(), "nope")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_SaveRejectsAnonymous(t *testing.T) {
	ms := NewMemoryStore()
	require.Error(t, ms.Save(context.Background(), nil))
	require.Error(t, ms.Save(context.Background(), &session.Session{}))
}

func TestMemoryStore_ListSorted(t *testing.T) {
	ctx := context.Background()
	ms := NewMemoryStore()
	require.NoError(t, ms.Save(ctx, exportedSession(t, 2)))
	require.NoError(t, ms.Save(ctx, exportedSession(t, 1)))

	ids, err := ms.List(ctx)
	require.NoError(t, err)
	require.Len(t, ids, 2)
	require.Less(t, ids[0], ids[1])
}

func TestMemoryStore_Delete(t *testing.T) {
	ctx := context.Background()
	ms := NewMemoryStore()
	s := exportedSession(t, 3)
	require.NoError(t, ms.Save(ctx, s))

	ok, err := ms.Delete(ctx, s.ID)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = ms.Delete(ctx, s.ID)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestMemoryStore_IsolatesStoredState(t *testing.T) {
	ctx := context.Background()
	ms := NewMemoryStore()
	s := exportedSession(t, 4)
	require.NoError(t, ms.Save(ctx, s))

	// Mutating the caller's copy after save changes nothing stored.
	s.ScenarioResults[0].Name = "mutated"
	loaded, err := ms.Load(ctx, s.ID)
	require.NoError(t, err)
	require.Equal(t, "s1", loaded.ScenarioResults[0].Name)

	// Mutating a loaded copy changes nothing stored either.
	loaded.ScenarioResults[0].Passed = false
	again, err := ms.Load(ctx, loaded.ID)
	require.NoError(t, err)
	require.True(t, again.ScenarioResults[0].Passed)
}
