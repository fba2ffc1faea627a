package matchmaking

// ActivityState is the ephemeral, TTL-bound tag describing what a user
// is currently doing. A missing cache key reads as StateIdle.
type ActivityState string

const (
	StateIdle     ActivityState = "idle"
	StateWaiting  ActivityState = "waiting"
	StateChatting ActivityState = "chatting"
)

// transitions is the explicit table of allowed state changes. Waiting
// to waiting is a self-loop: re-enqueueing refreshes the bucket and the
// TTL. Chatting to waiting is absent on purpose; a chat must be ended
// before searching again.
var transitions = map[ActivityState]map[ActivityState]bool{
	StateIdle: {
		StateWaiting:  true,
		StateChatting: true, // force-pair by an admin skips the queue
	},
	StateWaiting: {
		StateWaiting:  true,
		StateChatting: true,
		StateIdle:     true,
	},
	StateChatting: {
		StateIdle: true,
	},
}

// ParseActivityState maps a raw cache value to a state. Unknown values
// read as idle: the tag is disposable and must never poison a flow.
func ParseActivityState(raw string) ActivityState {
	switch ActivityState(raw) {
	case StateWaiting:
		return StateWaiting
	case StateChatting:
		return StateChatting
	}
	return StateIdle
}

// CanTransition reports whether moving from one state to another is
// allowed.
func CanTransition(from, to ActivityState) bool {
	return transitions[from][to]
}
