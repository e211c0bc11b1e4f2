package creature

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gocarina/gocsv"
)

// timeNow is swappable so tests can pin event timestamps.
var timeNow = time.Now

// EventKind identifies a lifecycle event.
type EventKind string

const (
	EventMutation                EventKind = "mutation"
	EventEvolution               EventKind = "evolution"
	EventThemeAcquisition        EventKind = "theme_acquisition"
	EventEnvironmentalAdaptation EventKind = "environmental_adaptation"
	EventTraitEmergence          EventKind = "trait_emergence"
	EventStressThreshold         EventKind = "stress_threshold"
	EventConflict                EventKind = "conflict"
	EventValidationFailure       EventKind = "validation_failure"
)

// Event is one lifecycle occurrence on a creature.
type Event struct {
	Kind       EventKind `json:"kind" csv:"kind"`
	CreatureID string    `json:"creature_id" csv:"creature_id"`
	Detail     string    `json:"detail" csv:"detail"`
	Stage      int       `json:"stage" csv:"stage"`
	Timestamp  time.Time `json:"timestamp" csv:"timestamp"`
}

// Handler receives lifecycle events.
type Handler func(Event)

// Bus dispatches lifecycle events to registered handlers. Not safe for
// concurrent registration; the owning orchestrator serializes access.
type Bus struct {
	handlers map[EventKind][]Handler
	all      []Handler
}

// NewBus creates an empty event bus.
func NewBus() *Bus {
	return &Bus{handlers: make(map[EventKind][]Handler)}
}

// On registers a handler for one event kind.
func (b *Bus) On(kind EventKind, h Handler) {
	b.handlers[kind] = append(b.handlers[kind], h)
}

// OnAll registers a handler for every event kind.
func (b *Bus) OnAll(h Handler) {
	b.all = append(b.all, h)
}

// Off drops every handler registered for one event kind.
func (b *Bus) Off(kind EventKind) {
	delete(b.handlers, kind)
}

// Emit dispatches an event to every matching handler.
func (b *Bus) Emit(ev Event) {
	for _, h := range b.handlers[ev.Kind] {
		h(ev)
	}
	for _, h := range b.all {
		h(ev)
	}
}

// EventLog appends lifecycle events to a CSV file. Returns nil when dir is
// empty (logging disabled); a nil log is safe to use.
type EventLog struct {
	file          *os.File
	headerWritten bool
}

// NewEventLog opens events.csv under dir.
func NewEventLog(dir string) (*EventLog, error) {
	if dir == "" {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating event log directory: %w", err)
	}
	f, err := os.Create(filepath.Join(dir, "events.csv"))
	if err != nil {
		return nil, fmt.Errorf("creating events.csv: %w", err)
	}
	return &EventLog{file: f}, nil
}

// Write appends one event record.
func (l *EventLog) Write(ev Event) error {
	if l == nil {
		return nil
	}
	records := []Event{ev}
	if !l.headerWritten {
		if err := gocsv.Marshal(records, l.file); err != nil {
			return fmt.Errorf("writing event: %w", err)
		}
		l.headerWritten = true
		return nil
	}
	if err := gocsv.MarshalWithoutHeaders(records, l.file); err != nil {
		return fmt.Errorf("writing event: %w", err)
	}
	return nil
}

// Close closes the underlying file.
func (l *EventLog) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	return l.file.Close()
}
