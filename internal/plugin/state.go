package plugin

import "fmt"

// StateKind identifies the readiness of a plugin.
type StateKind string

const (
	// StateReady means the plugin can serve queries.
	StateReady StateKind = "ready"

	// StateSetupRequired means the user has to act before queries return data.
	StateSetupRequired StateKind = "setup_required"
)

// ActionKind identifies how the host should perform a setup action.
type ActionKind string

const (
	// ActionOpenURL opens Target in a browser.
	ActionOpenURL ActionKind = "open_url"

	// ActionRunCommand runs Target as a command line.
	ActionRunCommand ActionKind = "run_command"
)

// SetupAction is the remedy the host offers for a SetupRequired state.
type SetupAction struct {
	Kind   ActionKind `json:"kind"`
	Target string     `json:"target"`
}

// State is the readiness state reported by a plugin.
type State struct {
	Kind StateKind `json:"state"`

	// Message and Action are only set when Kind is StateSetupRequired.
	Message string       `json:"message,omitempty"`
	Action  *SetupAction `json:"action,omitempty"`
}

// Ready returns the ready state.
func Ready() State {
	return State{Kind: StateReady}
}

// SetupRequired returns a state asking the user to perform action.
func SetupRequired(message string, action SetupAction) State {
	return State{
		Kind:    StateSetupRequired,
		Message: message,
		Action:  &action,
	}
}

// IsReady reports whether the plugin can serve queries.
func (s State) IsReady() bool {
	return s.Kind == StateReady
}

// String returns a short human-readable description of the state.
func (s State) String() string {
	if s.IsReady() {
		return string(StateReady)
	}
	if s.Action == nil {
		return fmt.Sprintf("%s: %s", s.Kind, s.Message)
	}
	return fmt.Sprintf("%s: %s (%s %s)", s.Kind, s.Message, s.Action.Kind, s.Action.Target)
}
