package status

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/sweeney/scryfall-thermal/internal/logic"
)

func TestNewTracker(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cfg := Config{PollMs: 1, SettleMs: 5, MinValue: 0, MaxValue: 16, Broker: "tcp://localhost:1883", HTTPAddr: ":8080"}
	tr := NewTracker(start, cfg)

	snap := tr.Snapshot()
	if !snap.StartTime.Equal(start) {
		t.Errorf("StartTime: got %v, want %v", snap.StartTime, start)
	}
	if snap.Mode != logic.ModeIdle {
		t.Errorf("Mode: got %q, want IDLE", snap.Mode)
	}
	if snap.Value != 0 {
		t.Errorf("Value: got %d, want MinValue", snap.Value)
	}
	if snap.Config.HTTPAddr != ":8080" {
		t.Errorf("Config.HTTPAddr: got %q, want %q", snap.Config.HTTPAddr, ":8080")
	}
	if snap.MQTTConnected {
		t.Error("expected MQTTConnected=false initially")
	}
}

func TestUpdateAndSnapshot(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})

	tr.Update(logic.ModePrinting, 7, 3)

	snap := tr.Snapshot()
	if snap.Mode != logic.ModePrinting {
		t.Errorf("Mode: got %q, want PRINTING", snap.Mode)
	}
	if snap.Value != 7 {
		t.Errorf("Value: got %d, want 7", snap.Value)
	}
	if snap.Counts.Discarded != 3 {
		t.Errorf("Counts.Discarded: got %d, want 3", snap.Counts.Discarded)
	}
}

func TestRecordPrintAndFailure(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})

	tr.RecordPrint("Shivan Dragon")
	tr.RecordPrint("Grizzly Bears")
	tr.RecordFailure("lookup: no cards matched")

	snap := tr.Snapshot()
	if snap.Counts.Prints != 2 {
		t.Errorf("Counts.Prints: got %d, want 2", snap.Counts.Prints)
	}
	if snap.Counts.Failures != 1 {
		t.Errorf("Counts.Failures: got %d, want 1", snap.Counts.Failures)
	}
	if snap.LastCard != "Grizzly Bears" {
		t.Errorf("LastCard: got %q, want Grizzly Bears", snap.LastCard)
	}
	if snap.LastError != "lookup: no cards matched" {
		t.Errorf("LastError: got %q", snap.LastError)
	}
}

func TestSetMQTTConnected(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})

	tr.SetMQTTConnected(true)
	if !tr.Snapshot().MQTTConnected {
		t.Error("expected MQTTConnected=true")
	}

	tr.SetMQTTConnected(false)
	if tr.Snapshot().MQTTConnected {
		t.Error("expected MQTTConnected=false")
	}
}

func TestSnapshotUptime(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	snap := Snapshot{
		StartTime: start,
		Now:       start.Add(15 * time.Minute),
	}

	if snap.Uptime() != 15*time.Minute {
		t.Errorf("Uptime: got %v, want 15m", snap.Uptime())
	}
}

func TestSnapshotIsCopy(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})
	tr.Update(logic.ModeFetching, 5, 0)

	snap1 := tr.Snapshot()

	tr.Update(logic.ModeIdle, 9, 1)

	// snap1 should still reflect old state
	if snap1.Mode != logic.ModeFetching {
		t.Error("snapshot should be a copy; Mode was modified")
	}
	if snap1.Value != 5 {
		t.Error("snapshot should be a copy; Value was modified")
	}
}

func TestFormatJSON(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	snap := Snapshot{
		Mode:          logic.ModeIdle,
		Value:         12,
		LastCard:      "Colossal Dreadmaw",
		Counts:        Counts{Prints: 4, Failures: 1, Discarded: 2},
		StartTime:     start,
		Now:           start.Add(15 * time.Minute),
		MQTTConnected: true,
		Config: Config{
			PollMs: 1, SettleMs: 5, RefreshHz: 150,
			MinValue: 0, MaxValue: 16, WidthPx: 384,
			Printer: "usb:04b8:0e15", Broker: "tcp://localhost:1883", HTTPAddr: ":8080",
		},
	}

	data := FormatJSON(snap)

	var parsed StatusJSON
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if parsed.Status.Mode != "IDLE" {
		t.Errorf("Mode: got %q, want IDLE", parsed.Status.Mode)
	}
	if parsed.Status.ManaValue != 12 {
		t.Errorf("ManaValue: got %d, want 12", parsed.Status.ManaValue)
	}
	if parsed.Status.LastCard != "Colossal Dreadmaw" {
		t.Errorf("LastCard: got %q", parsed.Status.LastCard)
	}
	if parsed.Status.UptimeSeconds != 900 {
		t.Errorf("UptimeSeconds: got %d, want 900", parsed.Status.UptimeSeconds)
	}
	if !parsed.Status.MQTT.Connected {
		t.Error("expected MQTT.Connected=true")
	}
	if parsed.Status.Counts.Prints != 4 {
		t.Errorf("Counts.Prints: got %d, want 4", parsed.Status.Counts.Prints)
	}
	if parsed.Status.Config.Printer != "usb:04b8:0e15" {
		t.Errorf("Config.Printer: got %q", parsed.Status.Config.Printer)
	}
	// Event and Reason should be omitted
	if parsed.Status.Event != "" {
		t.Errorf("expected empty Event for web format, got %q", parsed.Status.Event)
	}
	if parsed.Status.Reason != "" {
		t.Errorf("expected empty Reason for web format, got %q", parsed.Status.Reason)
	}
}

func TestFormatJSONUnknownMode(t *testing.T) {
	snap := Snapshot{
		StartTime: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Now:       time.Date(2026, 1, 1, 0, 0, 1, 0, time.UTC),
	}

	data := FormatJSON(snap)

	var parsed StatusJSON
	json.Unmarshal(data, &parsed)

	if parsed.Status.Mode != "UNKNOWN" {
		t.Errorf("Mode: got %q, want UNKNOWN", parsed.Status.Mode)
	}
}

func TestFormatStatusEvent(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	snap := Snapshot{
		Mode:      logic.ModeIdle,
		Value:     3,
		StartTime: start,
		Now:       start.Add(30 * time.Minute),
		Config:    Config{Broker: "tcp://localhost:1883"},
	}

	data := FormatStatusEvent(snap, "SHUTDOWN", "SIGTERM")

	var parsed StatusJSON
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if parsed.Status.Event != "SHUTDOWN" {
		t.Errorf("Event: got %q, want SHUTDOWN", parsed.Status.Event)
	}
	if parsed.Status.Reason != "SIGTERM" {
		t.Errorf("Reason: got %q, want SIGTERM", parsed.Status.Reason)
	}
	if parsed.Status.UptimeSeconds != 1800 {
		t.Errorf("UptimeSeconds: got %d, want 1800", parsed.Status.UptimeSeconds)
	}
}

func TestFormatStatusEventOmitsReasonWhenEmpty(t *testing.T) {
	snap := Snapshot{
		StartTime: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Now:       time.Date(2026, 1, 1, 0, 0, 1, 0, time.UTC),
	}

	data := FormatStatusEvent(snap, "STARTUP", "")

	// Verify "reason" is not in the raw JSON output
	var raw map[string]interface{}
	json.Unmarshal(data, &raw)
	statusObj := raw["status"].(map[string]interface{})
	if _, exists := statusObj["reason"]; exists {
		t.Error("reason should be omitted when empty")
	}
	if statusObj["event"] != "STARTUP" {
		t.Errorf("event: got %v, want STARTUP", statusObj["event"])
	}
}

func TestConcurrentAccess(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})
	var wg sync.WaitGroup

	// Writer
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			tr.Update(logic.ModeIdle, i%17, i)
			tr.SetMQTTConnected(i%2 == 0)
			tr.RecordPrint("x")
		}
	}()

	// Reader
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			snap := tr.Snapshot()
			_ = snap.Uptime()
		}
	}()

	wg.Wait()
}
