package server

import (
	"github.com/zeusync/gamestate/internal/core/state"
	"github.com/zeusync/gamestate/internal/core/validation"
)

// EventMessage is the JSON form of a validation failure sent over /ws.
type EventMessage struct {
	Check       string `json:"check"`
	Kind        string `json:"kind"`
	Found       *int   `json:"found,omitempty"`
	Message     string `json:"message"`
	Entity      string `json:"entity,omitempty"`
	Component   string `json:"component,omitempty"`
	ComponentID uint32 `json:"component_id,omitempty"`
}

func newEventMessage(e validation.ValidationErrorEvent) EventMessage {
	msg := EventMessage{
		Check:       e.Check.String(),
		Kind:        e.Check.Kind().String(),
		Message:     e.Message,
		Component:   e.Component,
		ComponentID: uint32(e.ComponentID),
	}
	if n, ok := e.Check.Found(); ok {
		msg.Found = &n
	}
	if !e.Entity.IsZero() {
		msg.Entity = e.Entity.String()
	}
	return msg
}

// StateMessage is served by /state. Sub-states are omitted while their phase
// is not current.
type StateMessage struct {
	Phase    string `json:"phase"`
	MenuPage string `json:"menu_page,omitempty"`
	Playing  string `json:"playing,omitempty"`
}

func newStateMessage(m *state.Machine) StateMessage {
	msg := StateMessage{Phase: m.Phase().String()}
	if page, ok := state.Get[state.MenuPage](m); ok {
		msg.MenuPage = page.String()
	}
	if playing, ok := state.Get[state.PlayingState](m); ok {
		msg.Playing = playing.String()
	}
	return msg
}
