package state

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMachine() *Machine {
	m := New()
	AddSubState[MenuPage](m)
	AddSubState[PlayingState](m)
	m.Init()
	return m
}

func TestDefaults(t *testing.T) {
	m := newMachine()
	assert.Equal(t, Loading, m.Phase())

	_, ok := Get[MenuPage](m)
	assert.False(t, ok, "menu page must be absent outside MainMenu")
	_, ok = Get[PlayingState](m)
	assert.False(t, ok, "playing state must be absent outside InGame")
}

func TestRequestsAreQueuedUntilApply(t *testing.T) {
	m := newMachine()
	m.SetPhase(MainMenu)
	assert.Equal(t, Loading, m.Phase())

	transitions := m.Apply()
	require.Len(t, transitions, 1)
	assert.Equal(t, Transition{From: Loading, To: MainMenu}, transitions[0])
	assert.Equal(t, MainMenu, m.Phase())

	page, ok := Get[MenuPage](m)
	require.True(t, ok)
	assert.Equal(t, TitleScreen, page)

	assert.True(t, Set(m, Credits))
	page, _ = Get[MenuPage](m)
	assert.Equal(t, TitleScreen, page)
	m.Apply()
	page, _ = Get[MenuPage](m)
	assert.Equal(t, Credits, page)
}

func TestSubStateRequestAgainstWrongPhaseIsNoop(t *testing.T) {
	m := newMachine()
	assert.False(t, Set(m, Paused(PauseMenu)))
	assert.False(t, Set(m, FileSelect))
	assert.Empty(t, m.Apply())

	_, ok := Get[PlayingState](m)
	assert.False(t, ok)
}

func TestPausedResetsToPlayingOnReentry(t *testing.T) {
	m := newMachine()
	m.SetPhase(InGame)
	m.Apply()

	ps, ok := Get[PlayingState](m)
	require.True(t, ok)
	assert.Equal(t, Playing(), ps)

	require.True(t, Set(m, Paused(InCutscene)))
	m.Apply()
	ps, _ = Get[PlayingState](m)
	reason, paused := ps.IsPaused()
	assert.True(t, paused)
	assert.Equal(t, InCutscene, reason)

	m.SetPhase(MainMenu)
	m.Apply()
	_, ok = Get[PlayingState](m)
	assert.False(t, ok)

	m.SetPhase(InGame)
	m.Apply()
	ps, ok = Get[PlayingState](m)
	require.True(t, ok)
	assert.Equal(t, Playing(), ps)
	_, paused = ps.IsPaused()
	assert.False(t, paused)
}

func TestMenuPageResetsOnReentry(t *testing.T) {
	m := newMachine()
	m.SetPhase(MainMenu)
	m.Apply()
	Set(m, SettingsPage)
	m.Apply()

	m.SetPhase(InGame)
	m.Apply()
	m.SetPhase(MainMenu)
	m.Apply()

	page, ok := Get[MenuPage](m)
	require.True(t, ok)
	assert.Equal(t, TitleScreen, page)
}

func TestPendingSubStateDiscardedOnExit(t *testing.T) {
	m := newMachine()
	m.SetPhase(InGame)
	m.Apply()

	require.True(t, Set(m, Paused(Unfocused)))
	m.SetPhase(Closing)
	m.Apply()
	m.SetPhase(InGame)
	m.Apply()

	ps, ok := Get[PlayingState](m)
	require.True(t, ok)
	assert.Equal(t, Playing(), ps)
}

func TestSamePhaseRequestIsNoop(t *testing.T) {
	m := newMachine()
	entered := 0
	m.OnEnter(Loading, func() { entered++ })
	m.SetPhase(Loading)
	assert.Empty(t, m.Apply())
	assert.Equal(t, 0, entered)
}

func TestHooksOrder(t *testing.T) {
	m := New()
	var got []string
	m.OnEnter(Loading, func() { got = append(got, "enter:Loading") })
	m.OnExit(Loading, func() { got = append(got, "exit:Loading") })
	m.OnEnter(InGame, func() { got = append(got, "enter:InGame") })
	m.OnTransition(func(tr Transition) { got = append(got, "transition:"+tr.String()) })
	m.Init()
	m.Init()

	m.SetPhase(InGame)
	m.Apply()

	assert.Equal(t, []string{
		"enter:Loading",
		"exit:Loading",
		"enter:InGame",
		"transition:Loading -> InGame",
	}, got)
}

func TestLastPhaseRequestWins(t *testing.T) {
	m := newMachine()
	m.SetPhase(MainMenu)
	m.SetPhase(Closing)
	m.SetPhase(Phase(42))
	m.Apply()
	assert.Equal(t, Closing, m.Phase())
}

func TestLateRegistrationUnderCurrentPhase(t *testing.T) {
	m := New()
	m.Init()
	m.SetPhase(InGame)
	m.Apply()

	AddSubState[PlayingState](m)
	AddSubState[PlayingState](m)
	ps, ok := Get[PlayingState](m)
	require.True(t, ok)
	assert.Equal(t, Playing(), ps)
}

func TestConcurrentRequests(t *testing.T) {
	m := newMachine()
	m.SetPhase(InGame)
	m.Apply()

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			Set(m, Paused(PauseReason(i%4)))
			_ = m.Phase()
			_, _ = Get[PlayingState](m)
		}(i)
	}
	wg.Wait()
	m.Apply()

	ps, ok := Get[PlayingState](m)
	require.True(t, ok)
	_, paused := ps.IsPaused()
	assert.True(t, paused)
}

func TestStringers(t *testing.T) {
	assert.Equal(t, "InGame", InGame.String())
	assert.Equal(t, "Paused{InInventory}", Paused(InInventory).String())
	assert.Equal(t, "Playing", Playing().String())
	assert.Equal(t, "FileSelect", FileSelect.String())
	assert.Equal(t, "Phase(9)", Phase(9).String())
	assert.Equal(t, InGame, Playing().Source())
	assert.Equal(t, MainMenu, Credits.Source())
}
