package state

import "fmt"

// Phase is the top-level application state.
type Phase uint8

const (
	Loading Phase = iota
	MainMenu
	InGame
	Closing
)

// Phases lists every Phase in declaration order.
var Phases = [...]Phase{Loading, MainMenu, InGame, Closing}

func (p Phase) String() string {
	switch p {
	case Loading:
		return "Loading"
	case MainMenu:
		return "MainMenu"
	case InGame:
		return "InGame"
	case Closing:
		return "Closing"
	default:
		return fmt.Sprintf("Phase(%d)", uint8(p))
	}
}

// Valid reports whether p is one of the declared phases.
func (p Phase) Valid() bool {
	return p <= Closing
}

// SubState is a state nested under one parent Phase. Its zero value is the
// default the machine resets to whenever the parent is entered.
type SubState interface {
	comparable
	fmt.Stringer
	Source() Phase
}

// MenuPage is the sub-state of MainMenu.
type MenuPage uint8

const (
	TitleScreen MenuPage = iota
	SettingsPage
	FileSelect
	Credits
)

func (MenuPage) Source() Phase { return MainMenu }

func (m MenuPage) String() string {
	switch m {
	case TitleScreen:
		return "TitleScreen"
	case SettingsPage:
		return "SettingsPage"
	case FileSelect:
		return "FileSelect"
	case Credits:
		return "Credits"
	default:
		return fmt.Sprintf("MenuPage(%d)", uint8(m))
	}
}

// PauseReason says why InGame is paused.
type PauseReason uint8

const (
	PauseMenu PauseReason = iota
	Unfocused
	InCutscene
	InInventory
)

func (r PauseReason) String() string {
	switch r {
	case PauseMenu:
		return "PauseMenu"
	case Unfocused:
		return "Unfocused"
	case InCutscene:
		return "InCutscene"
	case InInventory:
		return "InInventory"
	default:
		return fmt.Sprintf("PauseReason(%d)", uint8(r))
	}
}

// PlayingState is the sub-state of InGame: either Playing or Paused with a
// reason. The zero value is Playing.
type PlayingState struct {
	paused bool
	reason PauseReason
}

// Playing returns the running PlayingState.
func Playing() PlayingState { return PlayingState{} }

// Paused returns a paused PlayingState carrying reason.
func Paused(reason PauseReason) PlayingState {
	return PlayingState{paused: true, reason: reason}
}

func (PlayingState) Source() Phase { return InGame }

// IsPaused returns the pause reason and true when s is Paused.
func (s PlayingState) IsPaused() (PauseReason, bool) {
	return s.reason, s.paused
}

func (s PlayingState) String() string {
	if s.paused {
		return fmt.Sprintf("Paused{%s}", s.reason)
	}
	return "Playing"
}

// Transition records one applied phase change.
type Transition struct {
	From Phase
	To   Phase
}

func (t Transition) String() string {
	return fmt.Sprintf("%s -> %s", t.From, t.To)
}
