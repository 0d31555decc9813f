package phases

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeusync/gamestate/internal/app"
	"github.com/zeusync/gamestate/internal/config"
	"github.com/zeusync/gamestate/internal/core/state"
	"github.com/zeusync/gamestate/internal/core/system"
)

func TestStatePlugin(t *testing.T) {
	a := app.New(config.Default(), nil).AddPlugins(State)
	assert.Equal(t, state.Loading, a.State.Phase())

	a.State.SetPhase(state.MainMenu)
	a.Update(time.Millisecond)
	page, ok := state.Get[state.MenuPage](a.State)
	require.True(t, ok)
	assert.Equal(t, state.TitleScreen, page)

	a.State.SetPhase(state.InGame)
	a.Update(time.Millisecond)
	playing, ok := state.Get[state.PlayingState](a.State)
	require.True(t, ok)
	assert.Equal(t, state.Playing(), playing)
	_, ok = state.Get[state.MenuPage](a.State)
	assert.False(t, ok)
}

func TestEachSetRunsOnlyInItsPhase(t *testing.T) {
	a := app.New(config.Default(), nil).AddPlugins(All()...)

	runs := map[system.Set]int{}
	for _, set := range []system.Set{LoadSet, MenuSet, GameSet, CloseSet} {
		a.Scheduler.AddSystem(system.Update, system.Func(string(set), func(*system.Context) error {
			runs[set]++
			return nil
		}), system.InSet(set))
	}

	expect := map[system.Set]int{}
	for _, step := range []struct {
		phase state.Phase
		set   system.Set
	}{
		{state.Loading, LoadSet},
		{state.MainMenu, MenuSet},
		{state.InGame, GameSet},
		{state.MainMenu, MenuSet},
		{state.Closing, CloseSet},
	} {
		a.State.SetPhase(step.phase)
		a.Update(time.Millisecond)
		expect[step.set]++
		assert.Equal(t, expect, runs, "after entering %s", step.phase)
	}
}
