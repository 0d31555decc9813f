// Package phases installs the state machine and one gated system set per
// top-level phase. The sets are empty until gameplay systems are added to
// them with system.InSet.
package phases

import (
	"github.com/zeusync/gamestate/internal/app"
	"github.com/zeusync/gamestate/internal/core/state"
	"github.com/zeusync/gamestate/internal/core/system"
)

const (
	LoadSet  system.Set = "load"
	MenuSet  system.Set = "menu"
	GameSet  system.Set = "game"
	CloseSet system.Set = "close"
)

// State registers the menu and playing sub-states and enters Loading.
func State(a *app.App) {
	state.AddSubState[state.MenuPage](a.State)
	state.AddSubState[state.PlayingState](a.State)
	a.State.Init()
}

func Load(a *app.App)  { a.Scheduler.ConfigureStatedSet(LoadSet, state.Loading) }
func Menu(a *app.App)  { a.Scheduler.ConfigureStatedSet(MenuSet, state.MainMenu) }
func Game(a *app.App)  { a.Scheduler.ConfigureStatedSet(GameSet, state.InGame) }
func Close(a *app.App) { a.Scheduler.ConfigureStatedSet(CloseSet, state.Closing) }

// All returns every plugin of this package, State first.
func All() []app.Plugin {
	return []app.Plugin{State, Menu, Game, Load, Close}
}
