package telemetry

import (
	"sync"
	"time"

	"github.com/signalsfoundry/spacecraft-simulator/model"
)

// EventType indicates which transition happened between two frames.
type EventType int

const (
	EventEclipseEntered EventType = iota
	EventEclipseExited
	EventAnomalyInjected
	EventPayloadOverheated
	EventPayloadRecovered
	EventPayloadOff
	EventCommOffline
	EventSolarBoost
)

func (t EventType) String() string {
	switch t {
	case EventEclipseEntered:
		return "eclipse_entered"
	case EventEclipseExited:
		return "eclipse_exited"
	case EventAnomalyInjected:
		return "anomaly_injected"
	case EventPayloadOverheated:
		return "payload_overheated"
	case EventPayloadRecovered:
		return "payload_recovered"
	case EventPayloadOff:
		return "payload_off"
	case EventCommOffline:
		return "comm_offline"
	case EventSolarBoost:
		return "solar_boost"
	default:
		return "unknown"
	}
}

// Event is emitted to subscribers when a frame differs from its predecessor
// in an interesting way.
type Event struct {
	Type    EventType
	Tick    int
	Elapsed time.Duration
	// Anomaly is set for EventAnomalyInjected.
	Anomaly model.AnomalyKind
}

type subscription struct {
	id int
	fn func(Event)
}

// Store is an in-memory history of telemetry frames for one run.
type Store struct {
	mu sync.RWMutex

	prev   model.Telemetry
	frames []model.Telemetry
	events []Event

	subs   []subscription
	nextID int
}

// NewStore constructs an empty store. initial is the state before the first
// tick and is used as the baseline for the first diff.
func NewStore(initial model.Telemetry) *Store {
	return &Store{prev: initial}
}

// Record appends a frame, derives transition events against the previous
// frame and notifies subscribers. It returns the derived events.
func (s *Store) Record(frame model.Telemetry) []Event {
	s.mu.Lock()
	events := Diff(s.prev, frame)
	s.prev = frame
	s.frames = append(s.frames, frame)
	s.events = append(s.events, events...)
	subs := append([]subscription(nil), s.subs...)
	s.mu.Unlock()

	// Notify subscribers outside the lock to avoid deadlocks.
	for _, ev := range events {
		for _, sub := range subs {
			sub.fn(ev)
		}
	}
	return events
}

// Frames returns a copy of all recorded frames in tick order.
func (s *Store) Frames() []model.Telemetry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Telemetry(nil), s.frames...)
}

// Latest returns the most recent frame, or false if nothing was recorded.
func (s *Store) Latest() (model.Telemetry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.frames) == 0 {
		return model.Telemetry{}, false
	}
	return s.frames[len(s.frames)-1], true
}

// Events returns a copy of all derived events in order.
func (s *Store) Events() []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Event(nil), s.events...)
}

// Subscribe registers a callback for derived events. It returns an
// unsubscribe function.
func (s *Store) Subscribe(fn func(Event)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.subs = append(s.subs, subscription{id: id, fn: fn})

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, sub := range s.subs {
			if sub.id == id {
				s.subs = append(s.subs[:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

// Diff returns the transitions between two consecutive frames.
func Diff(prev, cur model.Telemetry) []Event {
	var out []Event
	add := func(t EventType) {
		out = append(out, Event{Type: t, Tick: cur.Tick, Elapsed: cur.Elapsed})
	}

	if !prev.InEclipse && cur.InEclipse {
		add(EventEclipseEntered)
	}
	if prev.InEclipse && !cur.InEclipse {
		add(EventEclipseExited)
	}
	if cur.AnomalyDue && cur.Anomaly != model.AnomalyNone {
		out = append(out, Event{Type: EventAnomalyInjected, Tick: cur.Tick, Elapsed: cur.Elapsed, Anomaly: cur.Anomaly})
	}
	if !prev.Payload.Overheated && cur.Payload.Overheated {
		add(EventPayloadOverheated)
	}
	if prev.Payload.Overheated && !cur.Payload.Overheated {
		add(EventPayloadRecovered)
	}
	if prev.Payload.Active && !cur.Payload.Active {
		add(EventPayloadOff)
	}
	if prev.Comm.Active && !cur.Comm.Active {
		add(EventCommOffline)
	}
	if cur.SolarBoostApplied {
		add(EventSolarBoost)
	}
	return out
}
