package domain

import "planar/internal/api"

// StateGroup is the lifecycle bucket of a workflow state.
type StateGroup string

const (
	StateGroupBacklog   StateGroup = "backlog"
	StateGroupUnstarted StateGroup = "unstarted"
	StateGroupStarted   StateGroup = "started"
	StateGroupCompleted StateGroup = "completed"
	StateGroupCancelled StateGroup = "cancelled"
)

// State is a lightweight workflow state used for column titles and filters.
type State struct {
	ID    string
	Name  string
	Group StateGroup
	Color string
}

// NewStateFromPayload converts a wire state.
func NewStateFromPayload(p api.StatePayload) State {
	return State{ID: p.ID, Name: p.Name, Group: StateGroup(p.Group), Color: p.Color}
}

// FindState returns the state with id, if present.
func FindState(states []State, id string) (State, bool) {
	for _, s := range states {
		if s.ID == id {
			return s, true
		}
	}
	return State{}, false
}
