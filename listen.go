package listate

import (
	"log/slog"
	"sync"
)

// Listen registers listener on store and returns the function that removes it.
//
// listener is a Handler or a Settings value; a nil listener registers
// bookkeeping only. The tracked value and the previous state are seeded
// from store.GetState() before subscribing.
func Listen(store Store, listener Listener) Unlisten {
	var s Settings
	if listener != nil {
		s = listener.listenerSettings()
	}

	r := &registration{store: store, settings: normalize(s)}
	r.logger = r.settings.Logger.With("listener", r.settings.ID)
	if r.settings.ReceiveSettings {
		r.receiver = &r.settings
	} else {
		r.receiver = r.settings.Receiver
	}
	r.unlisten = r.detach

	r.prevState = store.GetState()
	r.prev = r.settings.Filter(r.prevState)

	unsubscribe := store.Subscribe(r.notify)

	r.mu.Lock()
	if r.detached {
		r.mu.Unlock()
		unsubscribe()
		return r.unlisten
	}
	r.unsubscribe = unsubscribe
	r.mu.Unlock()

	r.logger.Debug("listener registered",
		"delay", r.settings.Delay.String(),
		"once", r.settings.Once,
	)
	return r.unlisten
}

func identity(state any) any { return state }

// normalize fills defaults so the notification path never re-checks them.
func normalize(s Settings) Settings {
	if s.Filter == nil {
		s.Filter = identity
	}
	if s.When == nil {
		s.When = BaseWhen
	}
	if s.ID == "" {
		s.ID = defaultIDs.Generate()
	}
	if s.Logger == nil {
		s.Logger = slog.Default()
	}
	if s.Scheduler == nil {
		s.Scheduler = WallClock{}
	}
	return s
}

// registration is the state owned by a single Listen call.
//
// INVARIANTS:
//   - prev and prevState advance exactly once per delivered notification
//   - at most one timer is pending; generation identifies it
//   - mu is never held while Filter, When or Handle run
type registration struct {
	store    Store
	settings Settings
	receiver any
	logger   *slog.Logger
	unlisten Unlisten

	mu          sync.Mutex
	prev        any
	prevState   any
	pending     Timer
	generation  uint64
	fired       bool
	detached    bool
	unsubscribe func()
}

// notify is the store subscription callback.
func (r *registration) notify() {
	if r.isDetached() {
		return
	}

	state := r.store.GetState()
	current := r.settings.Filter(state)

	r.mu.Lock()
	if r.detached {
		r.mu.Unlock()
		return
	}
	prev, prevState := r.prev, r.prevState
	r.prevState = state
	r.mu.Unlock()

	p := &Param{
		Current:   current,
		Prev:      prev,
		State:     state,
		PrevState: prevState,
		Data:      r.settings.Data,
		Store:     r.store,
		Dispatch:  r.store.Dispatch,
		Unlisten:  r.unlisten,
		Receiver:  r.receiver,
	}
	qualifies := r.settings.When(current, prev, p)

	r.mu.Lock()
	r.prev = current
	if !qualifies || r.settings.Handle == nil || r.detached || (r.settings.Once && r.fired) {
		r.mu.Unlock()
		r.logger.Debug("listener skipped", "qualifies", qualifies)
		return
	}

	if !r.settings.Delay.Scheduled() {
		r.fired = true
		r.mu.Unlock()
		r.invoke(p)
		return
	}

	r.schedule(p)
	r.mu.Unlock()
}

// schedule replaces any pending call with one carrying p. Caller holds mu.
func (r *registration) schedule(p *Param) {
	if r.pending != nil {
		r.pending.Stop()
	}
	r.generation++
	gen := r.generation
	r.pending = r.settings.Scheduler.AfterFunc(r.settings.Delay.d, func() {
		r.fireScheduled(gen, p)
	})
	r.logger.Debug("listener scheduled", "delay", r.settings.Delay.String(), "generation", gen)
}

// fireScheduled runs a debounced call unless a newer one replaced it or the
// registration was detached in the meantime.
func (r *registration) fireScheduled(gen uint64, p *Param) {
	r.mu.Lock()
	if r.detached || gen != r.generation || (r.settings.Once && r.fired) {
		r.mu.Unlock()
		return
	}
	r.pending = nil
	r.fired = true
	r.mu.Unlock()

	r.invoke(p)
}

func (r *registration) invoke(p *Param) {
	r.logger.Debug("listener fired", "delay", r.settings.Delay.String())
	r.settings.Handle(p)
	if r.settings.Once {
		r.unlisten()
	}
}

func (r *registration) isDetached() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.detached
}

// detach is the Unlisten capability. Only the first call has an effect.
func (r *registration) detach() {
	r.mu.Lock()
	if r.detached {
		r.mu.Unlock()
		return
	}
	r.detached = true
	if r.pending != nil {
		r.pending.Stop()
		r.pending = nil
	}
	unsubscribe := r.unsubscribe
	r.unsubscribe = nil
	r.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	r.logger.Debug("listener detached")
}
