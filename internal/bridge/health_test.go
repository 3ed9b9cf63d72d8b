package bridge

import (
	"context"
	"encoding/json"
	"testing"
	"time"
)

func TestHealthReporter_DetermineStatus(t *testing.T) {
	tests := []struct {
		name       string
		mqttUp     bool
		deviceUp   bool
		wantStatus HealthStatus
		wantReason string
	}{
		{"both connected", true, true, HealthHealthy, ""},
		{"broker down", false, true, HealthDegraded, "MQTT disconnected"},
		{"controller down", true, false, HealthDegraded, "controller disconnected"},
		{"both down", false, false, HealthDegraded, "MQTT disconnected"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mq := NewMockMQTTClient()
			mq.connected = tt.mqttUp
			dev := NewMockConnector()
			dev.connected = tt.deviceUp

			h := NewHealthReporter(HealthReporterConfig{Publisher: mq, Device: dev})
			status, reason := h.determineStatus()
			if status != tt.wantStatus || reason != tt.wantReason {
				t.Errorf("determineStatus() = %q, %q, want %q, %q", status, reason, tt.wantStatus, tt.wantReason)
			}
		})
	}
}

func TestHealthReporter_BuildMessage(t *testing.T) {
	h := NewHealthReporter(HealthReporterConfig{
		Version:  "1.2.3",
		Address:  "10.0.0.25:10006",
		Device:   NewMockConnector(),
		Counters: func() (uint64, uint64) { return 9, 2 },
	})

	msg := h.buildMessage(HealthHealthy, "")
	if msg.Version != "1.2.3" || msg.Status != HealthHealthy {
		t.Errorf("message = %+v", msg)
	}
	if msg.Controller == nil || msg.Controller.Status != "connected" || msg.Controller.Address != "10.0.0.25:10006" {
		t.Fatalf("Controller = %+v", msg.Controller)
	}
	if msg.Controller.LastActivity == nil {
		t.Error("LastActivity missing for a connected controller")
	}
	s := msg.Statistics
	if s.FramesReceived != 7 || s.FramesSent != 3 {
		t.Errorf("frames = %d/%d, want 7/3", s.FramesReceived, s.FramesSent)
	}
	if s.CommandsReceived != 9 || s.CommandsRejected != 2 {
		t.Errorf("commands = %d/%d, want 9/2", s.CommandsReceived, s.CommandsRejected)
	}
}

func TestHealthReporter_DisconnectedController(t *testing.T) {
	dev := NewMockConnector()
	dev.connected = false
	h := NewHealthReporter(HealthReporterConfig{Device: dev})

	msg := h.buildMessage(HealthDegraded, "controller disconnected")
	if msg.Controller.Status != "disconnected" {
		t.Errorf("Controller.Status = %q", msg.Controller.Status)
	}
	if msg.Controller.LastActivity != nil {
		t.Error("LastActivity set for a disconnected controller")
	}
}

func TestHealthReporter_StartStop(t *testing.T) {
	mq := NewMockMQTTClient()
	h := NewHealthReporter(HealthReporterConfig{
		Topic:     "lync/health",
		Publisher: mq,
		Device:    NewMockConnector(),
	})

	h.Start(context.Background())
	h.Stop()
	h.Stop()

	if n := mq.count("lync/health"); n != 2 {
		t.Fatalf("health published %d times, want 2", n)
	}

	mq.mu.Lock()
	first, last := mq.published[0], mq.published[len(mq.published)-1]
	mq.mu.Unlock()

	var msg HealthMessage
	if err := json.Unmarshal(first.payload, &msg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if msg.Status != HealthStarting {
		t.Errorf("first status = %q, want starting", msg.Status)
	}
	if !first.retained {
		t.Error("health not retained")
	}
	if err := json.Unmarshal(last.payload, &msg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if msg.Status != HealthStopping {
		t.Errorf("last status = %q, want stopping", msg.Status)
	}
}

func TestHealthReporter_PeriodicReports(t *testing.T) {
	mq := NewMockMQTTClient()
	h := NewHealthReporter(HealthReporterConfig{
		Topic:     "lync/health",
		Interval:  10 * time.Millisecond,
		Publisher: mq,
		Device:    NewMockConnector(),
	})

	h.Start(context.Background())
	defer h.Stop()

	waitFor(t, "periodic reports", func() bool { return mq.count("lync/health") >= 3 })

	msg, _ := mq.last("lync/health")
	var report HealthMessage
	if err := json.Unmarshal(msg.payload, &report); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if report.Status != HealthHealthy {
		t.Errorf("status = %q, want healthy", report.Status)
	}
}

func TestHealthReporter_Snapshot(t *testing.T) {
	mq := NewMockMQTTClient()
	dev := NewMockConnector()
	dev.connected = false
	h := NewHealthReporter(HealthReporterConfig{Topic: "lync/health", Publisher: mq, Device: dev})

	msg := h.Snapshot()
	if msg.Status != HealthDegraded || msg.Reason != "controller disconnected" {
		t.Errorf("Snapshot() = %q, %q", msg.Status, msg.Reason)
	}
	if n := mq.count("lync/health"); n != 0 {
		t.Errorf("Snapshot published %d messages, want 0", n)
	}
}
