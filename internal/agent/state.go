package agent

// State is a point in the turn lifecycle.
type State int

const (
	Idle State = iota
	AwaitingModelResponse
	DispatchingTool
	Done
	Aborted
)

var stateNames = map[State]string{
	Idle:                  "idle",
	AwaitingModelResponse: "awaiting_model_response",
	DispatchingTool:       "dispatching_tool",
	Done:                  "done",
	Aborted:               "aborted",
}

func (s State) String() string {
	if n, ok := stateNames[s]; ok {
		return n
	}
	return "unknown"
}

// Terminal reports whether no further transitions are possible.
func (s State) Terminal() bool { return s == Done || s == Aborted }

// MarshalText renders the state by name for JSON responses.
func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// allowed lists the legal transitions.
var allowed = map[State][]State{
	Idle:                  {AwaitingModelResponse},
	AwaitingModelResponse: {DispatchingTool, Done, Aborted},
	DispatchingTool:       {AwaitingModelResponse, Aborted},
}

func canTransition(from, to State) bool {
	for _, s := range allowed[from] {
		if s == to {
			return true
		}
	}
	return false
}
