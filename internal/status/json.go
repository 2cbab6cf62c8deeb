package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string     `json:"event,omitempty"`
	Reason        string     `json:"reason,omitempty"`
	Mode          string     `json:"mode"`
	ManaValue     int        `json:"mana_value"`
	LastCard      string     `json:"last_card,omitempty"`
	LastError     string     `json:"last_error,omitempty"`
	UptimeSeconds int64      `json:"uptime_seconds"`
	StartTime     string     `json:"start_time"`
	Timestamp     string     `json:"timestamp"`
	MQTT          MQTTStatus `json:"mqtt"`
	Counts        CountsJSON `json:"job_counts"`
	Config        ConfigJSON `json:"config"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of job counts.
type CountsJSON struct {
	Prints    int `json:"prints"`
	Failures  int `json:"failures"`
	Discarded int `json:"discarded_steps"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	PollMs    int64  `json:"poll_ms"`
	SettleMs  int64  `json:"settle_ms"`
	RefreshHz int    `json:"refresh_hz"`
	MinValue  int    `json:"min_mv"`
	MaxValue  int    `json:"max_mv"`
	WidthPx   int    `json:"width_px"`
	Printer   string `json:"printer"`
	Broker    string `json:"broker"`
	HTTPAddr  string `json:"http_addr"`
}

func buildInner(snap Snapshot) StatusInner {
	mode := string(snap.Mode)
	if mode == "" {
		mode = "UNKNOWN"
	}

	return StatusInner{
		Mode:          mode,
		ManaValue:     snap.Value,
		LastCard:      snap.LastCard,
		LastError:     snap.LastError,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			Prints:    snap.Counts.Prints,
			Failures:  snap.Counts.Failures,
			Discarded: snap.Counts.Discarded,
		},
		Config: ConfigJSON{
			PollMs:    snap.Config.PollMs,
			SettleMs:  snap.Config.SettleMs,
			RefreshHz: snap.Config.RefreshHz,
			MinValue:  snap.Config.MinValue,
			MaxValue:  snap.Config.MaxValue,
			WidthPx:   snap.Config.WidthPx,
			Printer:   snap.Config.Printer,
			Broker:    snap.Config.Broker,
			HTTPAddr:  snap.Config.HTTPAddr,
		},
	}
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	inner := buildInner(snap)

	data, _ := json.MarshalIndent(StatusJSON{Status: inner}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
