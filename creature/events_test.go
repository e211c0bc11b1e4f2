package creature

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestBusDispatch(t *testing.T) {
	bus := NewBus()

	var mutations, all int
	bus.On(EventMutation, func(Event) { mutations++ })
	bus.OnAll(func(Event) { all++ })

	bus.Emit(Event{Kind: EventMutation})
	bus.Emit(Event{Kind: EventEvolution})

	if mutations != 1 {
		t.Errorf("mutation handler ran %d times, want 1", mutations)
	}
	if all != 2 {
		t.Errorf("catch-all handler ran %d times, want 2", all)
	}

	bus.Off(EventMutation)
	bus.Emit(Event{Kind: EventMutation})
	if mutations != 1 {
		t.Errorf("handler ran after Off, count = %d", mutations)
	}
}

func TestEventLogWritesCSV(t *testing.T) {
	dir := t.TempDir()
	log, err := NewEventLog(dir)
	if err != nil {
		t.Fatalf("NewEventLog: %v", err)
	}

	events := []Event{
		{Kind: EventMutation, CreatureID: "c1", Detail: "physical:elongated_fangs", Timestamp: time.Unix(0, 0)},
		{Kind: EventEvolution, CreatureID: "c1", Detail: "Serpentine_Base/toxic_miasma", Stage: 1, Timestamp: time.Unix(1, 0)},
	}
	for _, ev := range events {
		if err := log.Write(ev); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}
	if err := log.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "events.csv"))
	if err != nil {
		t.Fatal(err)
	}
	content := string(data)

	lines := strings.Split(strings.TrimSpace(content), "\n")
	if len(lines) != 3 {
		t.Fatalf("lines = %d, want header plus two records", len(lines))
	}
	if !strings.Contains(lines[0], "kind") {
		t.Errorf("header = %q, want csv column names", lines[0])
	}
	if !strings.Contains(content, "mutation") || !strings.Contains(content, "evolution") {
		t.Errorf("content missing event kinds:\n%s", content)
	}
	// Header must not repeat on subsequent writes
	if strings.Count(content, "creature_id") != 1 {
		t.Error("header written more than once")
	}
}

func TestNilEventLogIsSafe(t *testing.T) {
	var log *EventLog
	if err := log.Write(Event{Kind: EventConflict}); err != nil {
		t.Errorf("nil log Write: %v", err)
	}
	if err := log.Close(); err != nil {
		t.Errorf("nil log Close: %v", err)
	}
}

func TestDisabledEventLog(t *testing.T) {
	log, err := NewEventLog("")
	if err != nil {
		t.Fatalf("NewEventLog(\"\"): %v", err)
	}
	if log != nil {
		t.Error("empty dir should disable logging")
	}
}
