package dom

import "context"

// Event types dispatched by this package.
const (
	EventClick = "click"
)

// Event describes a dispatched event.
type Event struct {
	Type   string
	Target *Element
}

// Listener receives events. Listener values are compared with == when they
// are added and removed, so implementations must be comparable; pointer
// types are the usual choice.
type Listener interface {
	HandleEvent(ctx context.Context, ev Event)
}

// AddEventListener registers l for events of type typ. Adding a listener
// that is already registered for typ has no effect.
func (e *Element) AddEventListener(typ string, l Listener) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	for _, have := range e.listeners[typ] {
		if have == l {
			return
		}
	}
	if e.listeners == nil {
		e.listeners = make(map[string][]Listener)
	}
	e.listeners[typ] = append(e.listeners[typ], l)
}

// RemoveEventListener unregisters l for events of type typ.
func (e *Element) RemoveEventListener(typ string, l Listener) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	ls := e.listeners[typ]
	for i, have := range ls {
		if have == l {
			e.listeners[typ] = append(ls[:i:i], ls[i+1:]...)
			return
		}
	}
}

// ListenerCount returns the number of listeners registered for typ.
func (e *Element) ListenerCount(typ string) int {
	e.doc.mu.RLock()
	defer e.doc.mu.RUnlock()
	return len(e.listeners[typ])
}

// Dispatch calls the listeners registered for typ in registration order.
// Listeners run on the calling goroutine without any document lock held.
func (e *Element) Dispatch(ctx context.Context, typ string) {
	e.doc.mu.RLock()
	ls := append([]Listener(nil), e.listeners[typ]...)
	e.doc.mu.RUnlock()

	ev := Event{Type: typ, Target: e}
	for _, l := range ls {
		l.HandleEvent(ctx, ev)
	}
}

// Click dispatches a click event.
func (e *Element) Click(ctx context.Context) {
	e.Dispatch(ctx, EventClick)
}
