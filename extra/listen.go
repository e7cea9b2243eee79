package extra

import (
	"log/slog"

	"github.com/roach88/listate"
)

// FilterSpec describes the filter of an extra registration.
// Implemented by Path, Fields, Parts and Func.
type FilterSpec interface {
	filter() listate.Filter
}

// Func wraps a plain filter function.
type Func listate.Filter

func (p Path) filter() listate.Filter   { return FieldFilter(string(p)) }
func (f Fields) filter() listate.Filter { return PartFilter(f) }
func (p Parts) filter() listate.Filter  { return PartFilter(p) }
func (f Func) filter() listate.Filter   { return listate.Filter(f) }

// Handler is a bare handler accepted by Listen.
type Handler func(p *listate.Param)

// Settings mirrors listate.Settings with a FilterSpec in place of the
// filter function. See listate.Settings for field semantics.
type Settings struct {
	Handle          listate.Handler
	Receiver        any
	ReceiveSettings bool
	Data            any
	Delay           listate.Delay
	Filter          FilterSpec
	Once            bool

	// When defaults to Unlike in shallow mode.
	When listate.Predicate

	ID        string
	Logger    *slog.Logger
	Scheduler listate.Scheduler
}

// Listener is either a Handler or a Settings value.
type Listener interface {
	extraSettings() Settings
}

func (h Handler) extraSettings() Settings { return Settings{Handle: listate.Handler(h)} }

func (s Settings) extraSettings() Settings { return s }

// Listen registers listener on store like listate.Listen, resolving the
// FilterSpec into a filter function and defaulting When to Unlike.
//
// With ReceiveSettings, Param.Receiver is the normalized *listate.Settings.
func Listen(store listate.Store, listener Listener) listate.Unlisten {
	var s Settings
	if listener != nil {
		s = listener.extraSettings()
	}

	base := listate.Settings{
		Handle:          s.Handle,
		Receiver:        s.Receiver,
		ReceiveSettings: s.ReceiveSettings,
		Data:            s.Data,
		Delay:           s.Delay,
		Once:            s.Once,
		When:            s.When,
		ID:              s.ID,
		Logger:          s.Logger,
		Scheduler:       s.Scheduler,
	}
	if base.When == nil {
		base.When = unlikeWhen
	}
	if s.Filter != nil {
		base.Filter = s.Filter.filter()
	}

	return listate.Listen(store, base)
}

func unlikeWhen(current, prev any, _ *listate.Param) bool {
	return Unlike(current, prev, false)
}
