package listate

import (
	"log/slog"
	"time"

	"github.com/roach88/listate/internal/ident"
)

// Store is the observable state container a listener is attached to.
//
// Subscribe registers fn for change notifications and returns a function
// that removes it. The returned function must tolerate repeated calls.
type Store interface {
	GetState() any
	Dispatch(action any) any
	Subscribe(fn func()) func()
}

// Unlisten detaches a registration from its store. Safe to call more than once.
type Unlisten func()

// Filter reduces the full state to the value tracked for change detection.
type Filter func(state any) any

// Predicate decides whether the transition from prev to current should be reported.
type Predicate func(current, prev any, p *Param) bool

// Handler is invoked when a tracked change qualifies.
type Handler func(p *Param)

// Param describes one qualifying notification.
//
// A debounced handler receives the Param built for the notification that
// scheduled it, not a later one.
type Param struct {
	// Current is the filtered value of State.
	Current any

	// Prev is the filtered value the registration compared Current against.
	Prev any

	// State is the full state read on this notification.
	State any

	// PrevState is the full state read on the previous notification.
	PrevState any

	// Data is Settings.Data, passed through verbatim.
	Data any

	Store    Store
	Dispatch func(action any) any

	// Unlisten detaches the registration; handlers may call it.
	Unlisten Unlisten

	// Receiver is the object the handler was bound to, if any.
	Receiver any
}

// Delay selects between immediate and debounced invocation.
// The zero value is Immediate.
type Delay struct {
	d         time.Duration
	scheduled bool
}

// Immediate invokes the handler synchronously inside the notification.
var Immediate = Delay{}

// After debounces the handler by d. A negative d is the same as Immediate.
// After(0) still defers the call to the scheduler.
func After(d time.Duration) Delay {
	if d < 0 {
		return Immediate
	}
	return Delay{d: d, scheduled: true}
}

// Scheduled reports whether the handler is deferred.
func (d Delay) Scheduled() bool { return d.scheduled }

// Duration returns the debounce window, or -1 for Immediate.
func (d Delay) Duration() time.Duration {
	if !d.scheduled {
		return -1
	}
	return d.d
}

func (d Delay) String() string {
	if !d.scheduled {
		return "immediate"
	}
	return d.d.String()
}

// Settings configures a registration.
type Settings struct {
	// Handle is called on qualifying changes. A nil Handle keeps the
	// bookkeeping running without invoking anything.
	Handle Handler

	// Receiver is exposed to the handler as Param.Receiver.
	Receiver any

	// ReceiveSettings binds the handler to its own normalized settings;
	// Param.Receiver is then a *Settings. Takes precedence over Receiver.
	ReceiveSettings bool

	// Data is copied into every Param.
	Data any

	// Delay debounces the handler. Defaults to Immediate.
	Delay Delay

	// Filter reduces the state before comparison. Defaults to identity.
	Filter Filter

	// Once removes the registration after the handler has run.
	Once bool

	// When gates the handler. Defaults to BaseWhen.
	When Predicate

	// ID names the registration in logs. Defaults to a UUIDv7.
	ID string

	// Logger receives per-notification debug records. Defaults to slog.Default().
	Logger *slog.Logger

	// Scheduler runs debounced handlers. Defaults to wall-clock timers.
	Scheduler Scheduler
}

// Listener is either a Handler or a Settings value.
type Listener interface {
	listenerSettings() Settings
}

func (h Handler) listenerSettings() Settings { return Settings{Handle: h} }

func (s Settings) listenerSettings() Settings { return s }

// BaseWhen reports whether current and prev are different values or references.
func BaseWhen(current, prev any, _ *Param) bool {
	return !ident.Same(current, prev)
}
