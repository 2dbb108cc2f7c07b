package simpledv

import "fmt"

// TimerKind distinguishes the protocol timers.
type TimerKind int

const (
	HelloTimer TimerKind = iota
	HoldTimer
)

func (k TimerKind) String() string {
	if k == HelloTimer {
		return "hello"
	}
	return "hold"
}

// Timer is a protocol timer armed for one interface. Generation is compared with
// the neighbor entry on expiry; a mismatch means the timer is stale.
type Timer struct {
	Kind       TimerKind
	Interface  InterfaceID
	Generation uint64
}

func (t Timer) String() string {
	return fmt.Sprintf("%s-timer{%s gen=%d}", t.Kind, t.Interface, t.Generation)
}
