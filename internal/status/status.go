// Package status provides a thread-safe status tracker for the kiosk
// daemon. It is designed to be read by HTTP handlers and the MQTT
// system-event publisher.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/scryfall-thermal/internal/logic"
)

// Counts accumulates job outcomes over the daemon's lifetime.
type Counts struct {
	Prints    int // receipts delivered to the transport
	Failures  int // jobs that ended in Error
	Discarded int // encoder steps dropped while a job was in flight
}

// Config contains daemon configuration for display.
type Config struct {
	PollMs    int64
	SettleMs  int64
	RefreshHz int
	MinValue  int
	MaxValue  int
	WidthPx   int
	Printer   string // transport spec, or "file" for dry runs
	Broker    string
	HTTPAddr  string
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type — safe to use after the lock is released.
type Snapshot struct {
	Mode          logic.Mode
	Value         int
	LastCard      string // name of the most recently printed card
	LastError     string // detail of the most recent failure
	Counts        Counts
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			Mode:      logic.ModeIdle,
			Value:     cfg.MinValue,
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// Update sets the mode, selected value, and discarded-step count.
// Called from the polling loop on every tick.
func (t *Tracker) Update(mode logic.Mode, value, discarded int) {
	t.mu.Lock()
	t.snap.Mode = mode
	t.snap.Value = value
	t.snap.Counts.Discarded = discarded
	t.mu.Unlock()
}

// RecordPrint records a successful print of the named card.
func (t *Tracker) RecordPrint(card string) {
	t.mu.Lock()
	t.snap.LastCard = card
	t.snap.Counts.Prints++
	t.mu.Unlock()
}

// RecordFailure records a failed job with its detail string.
func (t *Tracker) RecordFailure(detail string) {
	t.mu.Lock()
	t.snap.LastError = detail
	t.snap.Counts.Failures++
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
