package navigator

// State is the navigator's mode.
type State int

const (
	// Idle means no application is open.
	Idle State = iota
	// Browsing means a tree is open and the navigator awaits commands.
	Browsing
	// Loading is held while children are fetched from the provider.
	Loading
	// Terminated is final; every later command fails.
	Terminated
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Browsing:
		return "browsing"
	case Loading:
		return "loading"
	case Terminated:
		return "terminated"
	}
	return "unknown"
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
