package sandbox

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakeklinvexgloo/phosra-sub003/internal/category"
	"github.com/jakeklinvexgloo/phosra-sub003/internal/enforce"
	"github.com/jakeklinvexgloo/phosra-sub003/internal/errors"
	"github.com/jakeklinvexgloo/phosra-sub003/internal/provider"
)

var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newMachine(t *testing.T, id string, limit int) *Machine {
	t.Helper()
	p, err := provider.Get(id)
	require.NoError(t, err)
	n := 0
	return NewMachine(p, Options{
		HistoryLimit: limit,
		Now:          func() time.Time { return fixedNow },
		NewID: func() string {
			n++
			return fmt.Sprintf("snap-%d", n)
		},
	})
}

func mustDispatch(t *testing.T, m *Machine, s State, a Action) State {
	t.Helper()
	next, err := m.Dispatch(s, a)
	require.NoError(t, err, a.Name())
	return next
}

// preview runs the engine the way Session.Preview does, synchronously.
func preview(t *testing.T, m *Machine, s State) State {
	t.Helper()
	s = mustDispatch(t, m, s, PreviewStart{})
	res, err := enforce.Apply(m.Provider(), s.Rules, s.Profiles, s.Overrides)
	require.NoError(t, err)
	return mustDispatch(t, m, s, PreviewComplete{Result: res})
}

func TestInitialState(t *testing.T) {
	m := newMachine(t, "netflix", 0)
	s := m.Initial()

	assert.Equal(t, Idle, s.Phase)
	assert.Nil(t, s.Preview)
	assert.Empty(t, s.History)
	assert.Len(t, s.Rules, len(category.All()))
	assert.Len(t, s.Profiles, 3)
}

func TestInvalidTransitions(t *testing.T) {
	m := newMachine(t, "netflix", 0)
	idle := m.Initial()

	for _, a := range []Action{Commit{}, Discard{}, PreviewComplete{}} {
		_, err := m.Dispatch(idle, a)
		assert.True(t, errors.Is(err, errors.ErrInvalidTransition), a.Name())
	}

	computing := mustDispatch(t, m, idle, PreviewStart{})
	assert.True(t, computing.IsComputing())
	for _, a := range []Action{PreviewStart{}, Commit{}, Discard{}} {
		_, err := m.Dispatch(computing, a)
		assert.True(t, errors.Is(err, errors.ErrInvalidTransition), a.Name())
	}

	previewing := preview(t, m, idle)
	for _, a := range []Action{PreviewStart{}, PreviewComplete{}} {
		_, err := m.Dispatch(previewing, a)
		assert.True(t, errors.Is(err, errors.ErrInvalidTransition), a.Name())
	}
}

func TestRuleEditsAllowedWhilePreviewing(t *testing.T) {
	m := newMachine(t, "netflix", 0)
	s := preview(t, m, m.Initial())

	next := mustDispatch(t, m, s, ToggleRule{Category: category.ContentRating})
	assert.Equal(t, Previewing, next.Phase)
	assert.Equal(t, s.Preview, next.Preview)
	assert.Equal(t, s.Profiles, next.Profiles)
	assert.True(t, next.Rules[0].Enabled)
}

func TestUnknownCategoryAndProfile(t *testing.T) {
	m := newMachine(t, "netflix", 0)
	s := m.Initial()

	_, err := m.Dispatch(s, ToggleRule{Category: "nope"})
	assert.True(t, errors.Is(err, errors.ErrUnknownCategory))

	_, err = m.Dispatch(s, UpdateProfileRuleConfig{ProfileID: "nf-kid", Category: "nope"})
	assert.True(t, errors.Is(err, errors.ErrUnknownCategory))

	_, err = m.Dispatch(s, UpdateProfileRuleConfig{ProfileID: "ghost", Category: category.ContentRating})
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestDispatchDoesNotMutateInput(t *testing.T) {
	m := newMachine(t, "netflix", 0)
	s := m.Initial()

	_ = mustDispatch(t, m, s, ToggleRule{Category: category.ContentRating})
	_ = mustDispatch(t, m, s, UpdateRuleConfig{Category: category.ContentRating, Config: category.Config{"maxRating": "R"}})
	assert.False(t, s.Rules[0].Enabled)
	assert.Equal(t, "PG-13", s.Rules[0].Config["maxRating"])
}

// Kid profile at 18+, content_rating at PG-13: one delta to 13+, then one
// history entry on commit.
func TestScenario_ContentRatingCommit(t *testing.T) {
	m := newMachine(t, "netflix", 0)
	s := m.Initial()
	s.Profiles = []provider.Profile{s.Profiles[2]}

	s = mustDispatch(t, m, s, ToggleRule{Category: category.ContentRating})
	s = preview(t, m, s)

	require.NotNil(t, s.Preview)
	require.Len(t, s.Preview.Changes, 1)
	d := s.Preview.Changes[0]
	assert.Equal(t, "maturity_rating", d.Field)
	assert.Equal(t, "18+", d.OldValue)
	assert.Equal(t, "13+", d.NewValue)
	assert.Equal(t, 1, s.Preview.Applied)
	assert.Equal(t, 0, s.Preview.Skipped)
	assert.Equal(t, "18+", s.Preview.PreviousProfiles[0].MaturityRating)

	s = mustDispatch(t, m, s, Commit{})
	require.Len(t, s.History, 1)
	assert.Equal(t, "snap-1", s.History[0].ID)
	assert.Equal(t, fixedNow, s.History[0].Timestamp)
	assert.Equal(t, "13+", s.Profiles[0].MaturityRating)
	assert.Nil(t, s.Preview)
	assert.Equal(t, Idle, s.Phase)
}

func TestScenario_TimeLimitFallback(t *testing.T) {
	m := newMachine(t, "netflix", 0)
	s := mustDispatch(t, m, m.Initial(), ToggleRule{Category: category.TimeDailyLimit})
	s = preview(t, m, s)

	assert.Equal(t, 1, s.Preview.Applied)
	assert.Equal(t, 0, s.Preview.Skipped)
	assert.Equal(t, 1, s.Preview.PlatformManaged)
	assert.Len(t, s.Preview.Changes, 2)
}

func TestScenario_PurchaseApprovalTwoCycles(t *testing.T) {
	m := newMachine(t, "netflix", 0)
	s := mustDispatch(t, m, m.Initial(), ToggleRule{Category: category.PurchaseApproval})

	s = preview(t, m, s)
	require.Len(t, s.Preview.Changes, 1)
	assert.Equal(t, "profile_lock", s.Preview.Changes[0].Field)
	s = mustDispatch(t, m, s, Commit{})

	s = preview(t, m, s)
	assert.Empty(t, s.Preview.Changes)
	s = mustDispatch(t, m, s, Commit{})
	assert.Len(t, s.History, 2)
}

func TestDiscardLeavesProfilesAndHistory(t *testing.T) {
	m := newMachine(t, "disneyplus", 0)
	s := mustDispatch(t, m, m.Initial(), ToggleRule{Category: category.ContentRating})
	before := s

	s = preview(t, m, s)
	require.NotEmpty(t, s.Preview.Changes)
	s = mustDispatch(t, m, s, Discard{})

	assert.Equal(t, Idle, s.Phase)
	assert.Nil(t, s.Preview)
	assert.Equal(t, before.Profiles, s.Profiles)
	assert.Equal(t, before.History, s.History)
}

func TestHistoryIsBounded(t *testing.T) {
	m := newMachine(t, "netflix", 2)
	s := m.Initial()
	for i := 0; i < 3; i++ {
		s = preview(t, m, s)
		s = mustDispatch(t, m, s, Commit{})
	}
	require.Len(t, s.History, 2)
	assert.Equal(t, "snap-2", s.History[0].ID)
	assert.Equal(t, "snap-3", s.History[1].ID)

	snap, ok := s.Snapshot("snap-3")
	require.True(t, ok)
	assert.Equal(t, provider.Netflix, snap.Provider)
	_, ok = s.Snapshot("snap-1")
	assert.False(t, ok)
}

func TestResetFromAnyPhase(t *testing.T) {
	m := newMachine(t, "netflix", 0)
	s := mustDispatch(t, m, m.Initial(), ToggleRule{Category: category.ContentRating})
	s = preview(t, m, s)
	s = mustDispatch(t, m, s, Commit{})
	s = preview(t, m, s)

	s = mustDispatch(t, m, s, Reset{})
	assert.Equal(t, m.Initial(), s)
}

func TestSeedProfilesSurviveReset(t *testing.T) {
	p, err := provider.Get("netflix")
	require.NoError(t, err)
	seed := []provider.Profile{{ID: "solo", Name: "Solo", Type: provider.Kids, MaturityRating: "18+"}}
	m := NewMachine(p, Options{Profiles: seed})
	seed[0].Name = "changed"

	s := mustDispatch(t, m, m.Initial(), ToggleRule{Category: category.ContentRating})
	s = preview(t, m, s)
	require.Len(t, s.Preview.Changes, 1)
	s = mustDispatch(t, m, s, Commit{})
	assert.Equal(t, "13+", s.Profiles[0].MaturityRating)

	s = mustDispatch(t, m, s, Reset{})
	require.Len(t, s.Profiles, 1)
	assert.Equal(t, "Solo", s.Profiles[0].Name)
	assert.Equal(t, "18+", s.Profiles[0].MaturityRating)
}

func TestSessionPreview(t *testing.T) {
	sess := NewSession("s1", newMachine(t, "netflix", 0))
	_, err := sess.Dispatch(ToggleRule{Category: category.ContentRating})
	require.NoError(t, err)

	s, err := sess.Preview(context.Background(), time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, Previewing, s.Phase)
	assert.Len(t, s.Preview.Changes, 2)

	_, err = sess.Preview(context.Background(), 0)
	assert.True(t, errors.Is(err, errors.ErrInvalidTransition))
}

func TestSessionPreviewCancelledRollsBack(t *testing.T) {
	sess := NewSession("s1", newMachine(t, "netflix", 0))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s, err := sess.Preview(ctx, time.Hour)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, Idle, s.Phase)
	assert.Equal(t, Idle, sess.State().Phase)
}

func TestSessionStateReadableDuringPreviewDelay(t *testing.T) {
	sess := NewSession("s1", newMachine(t, "netflix", 0))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		_, err := sess.Preview(ctx, time.Hour)
		done <- err
	}()

	require.Eventually(t, func() bool { return sess.State().IsComputing() }, 5*time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("preview did not return after cancel")
	}
	assert.Equal(t, Idle, sess.State().Phase)
	assert.Nil(t, sess.State().Preview)
}

func TestSessionPreviewSupersededByReset(t *testing.T) {
	sess := NewSession("s1", newMachine(t, "netflix", 0))

	done := make(chan error, 1)
	go func() {
		_, err := sess.Preview(context.Background(), 300*time.Millisecond)
		done <- err
	}()
	require.Eventually(t, func() bool { return sess.State().IsComputing() }, 5*time.Second, time.Millisecond)

	_, err := sess.Dispatch(Reset{})
	require.NoError(t, err)

	err = <-done
	assert.True(t, errors.Is(err, errors.ErrInvalidTransition), "got %v", err)
	assert.Equal(t, Idle, sess.State().Phase)
}

func TestStateEncodesEmptyListsAsArrays(t *testing.T) {
	sess := NewSession("s1", newMachine(t, "netflix", 0))

	data, err := json.Marshal(sess.State())
	require.NoError(t, err)
	assert.Contains(t, string(data), `"history":[]`)

	s, err := sess.Preview(context.Background(), 0)
	require.NoError(t, err)
	require.NotNil(t, s.Preview)
	assert.NotNil(t, s.Preview.Changes)

	data, err = json.Marshal(sess.State())
	require.NoError(t, err)
	assert.Contains(t, string(data), `"changes":[]`)
}

func TestSessionPreviewEngineErrorRollsBack(t *testing.T) {
	sess := NewSession("s1", newMachine(t, "netflix", 0))
	_, err := sess.Dispatch(ToggleRule{Category: category.ContentRating})
	require.NoError(t, err)
	_, err = sess.Dispatch(UpdateRuleConfig{Category: category.ContentRating, Config: category.Config{"maxRating": "X"}})
	require.NoError(t, err)

	_, err = sess.Preview(context.Background(), 0)
	assert.True(t, errors.Is(err, errors.ErrInvalidConfig))
	assert.Equal(t, Idle, sess.State().Phase)
}

func TestSessionStateIsACopy(t *testing.T) {
	sess := NewSession("s1", newMachine(t, "netflix", 0))
	s := sess.State()
	s.Profiles[0].Name = "changed"
	s.Rules[0].Enabled = true
	assert.Equal(t, "Parent", sess.State().Profiles[0].Name)
	assert.False(t, sess.State().Rules[0].Enabled)
}
