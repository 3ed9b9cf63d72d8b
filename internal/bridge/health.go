package bridge

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/enobrev/htd-lync-mqtt/internal/lync"
)

// HealthStatus represents the operational status of the bridge.
type HealthStatus string

const (
	// HealthHealthy indicates both the controller and the broker are connected.
	HealthHealthy HealthStatus = "healthy"

	// HealthDegraded indicates one side of the bridge is down.
	HealthDegraded HealthStatus = "degraded"

	// HealthStarting indicates the bridge is starting up.
	HealthStarting HealthStatus = "starting"

	// HealthStopping indicates the bridge is shutting down.
	HealthStopping HealthStatus = "stopping"
)

// HealthMessage is the retained document on {prefix}/health.
type HealthMessage struct {
	Timestamp     time.Time         `json:"timestamp"`
	Status        HealthStatus      `json:"status"`
	Version       string            `json:"version"`
	UptimeSeconds int64             `json:"uptime_seconds"`
	Controller    *ControllerStatus `json:"controller,omitempty"`
	Statistics    *Statistics       `json:"statistics,omitempty"`
	Reason        string            `json:"reason,omitempty"`
}

// ControllerStatus describes the controller link.
type ControllerStatus struct {
	// Status is "connected" or "disconnected".
	Status       string     `json:"status"`
	Address      string     `json:"address"`
	LastActivity *time.Time `json:"last_activity,omitempty"`
}

// Statistics contains operational counters.
type Statistics struct {
	FramesReceived   uint64 `json:"frames_received"`
	FramesSent       uint64 `json:"frames_sent"`
	FramesInvalid    uint64 `json:"frames_invalid"`
	Errors           uint64 `json:"errors"`
	Reconnects       uint64 `json:"reconnects"`
	CommandsReceived uint64 `json:"commands_received"`
	CommandsRejected uint64 `json:"commands_rejected"`
}

// HealthPublisher is the interface for publishing health messages.
type HealthPublisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	IsConnected() bool
}

// HealthReporterConfig holds configuration for the health reporter.
type HealthReporterConfig struct {
	Topic   string
	Version string

	// Address is the controller address shown in reports.
	Address string

	// Interval is how often to publish. Zero disables periodic reports;
	// starting and stopping reports are still sent.
	Interval time.Duration

	QoS       byte
	Publisher HealthPublisher
	Device    lync.Connector

	// Counters supplies the bridge's own command counters. Optional.
	Counters func() (received, rejected uint64)
}

// HealthReporter periodically publishes a HealthMessage.
type HealthReporter struct {
	cfg       HealthReporterConfig
	startTime time.Time

	done     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once

	logger   Logger
	loggerMu sync.RWMutex
}

// NewHealthReporter creates a health reporter. Call Start to begin reporting.
func NewHealthReporter(cfg HealthReporterConfig) *HealthReporter {
	return &HealthReporter{
		cfg:       cfg,
		startTime: time.Now(),
		done:      make(chan struct{}),
	}
}

// SetLogger sets the logger for this reporter.
func (h *HealthReporter) SetLogger(logger Logger) {
	h.loggerMu.Lock()
	h.logger = logger
	h.loggerMu.Unlock()
}

// Start publishes a "starting" report and begins periodic reporting.
func (h *HealthReporter) Start(ctx context.Context) {
	if err := h.publishStatus(HealthStarting, "bridge starting"); err != nil {
		h.logError("failed to publish starting health", err)
	}
	if h.cfg.Interval <= 0 {
		return
	}
	h.wg.Add(1)
	go h.reportLoop(ctx)
}

// Stop ends periodic reporting and publishes a final "stopping" report.
// Safe to call multiple times.
func (h *HealthReporter) Stop() {
	h.stopOnce.Do(func() {
		close(h.done)
		h.wg.Wait()

		//nolint:errcheck // best-effort during shutdown
		h.publishStatus(HealthStopping, "")
	})
}

// PublishNow publishes the current health immediately.
func (h *HealthReporter) PublishNow() error {
	status, reason := h.determineStatus()
	return h.publishStatus(status, reason)
}

// Snapshot returns the current health without publishing it.
func (h *HealthReporter) Snapshot() HealthMessage {
	status, reason := h.determineStatus()
	return h.buildMessage(status, reason)
}

func (h *HealthReporter) reportLoop(ctx context.Context) {
	defer h.wg.Done()

	ticker := time.NewTicker(h.cfg.Interval)
	defer ticker.Stop()

	if err := h.PublishNow(); err != nil {
		h.logError("failed to publish initial health", err)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-h.done:
			return
		case <-ticker.C:
			if err := h.PublishNow(); err != nil {
				h.logError("failed to publish health", err)
			}
		}
	}
}

func (h *HealthReporter) determineStatus() (HealthStatus, string) {
	if h.cfg.Publisher == nil || !h.cfg.Publisher.IsConnected() {
		return HealthDegraded, "MQTT disconnected"
	}
	if h.cfg.Device == nil || !h.cfg.Device.IsConnected() {
		return HealthDegraded, "controller disconnected"
	}
	return HealthHealthy, ""
}

// buildMessage assembles a report for status.
func (h *HealthReporter) buildMessage(status HealthStatus, reason string) HealthMessage {
	msg := HealthMessage{
		Timestamp:     time.Now().UTC(),
		Status:        status,
		Version:       h.cfg.Version,
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
		Reason:        reason,
	}

	var stats lync.Stats
	if h.cfg.Device != nil {
		stats = h.cfg.Device.Stats()
	}

	msg.Controller = &ControllerStatus{Status: "disconnected", Address: h.cfg.Address}
	if stats.Connected {
		msg.Controller.Status = "connected"
		last := stats.LastActivity.UTC()
		msg.Controller.LastActivity = &last
	}

	msg.Statistics = &Statistics{
		FramesReceived: stats.FramesRx,
		FramesSent:     stats.FramesTx,
		FramesInvalid:  stats.FramesInvalid,
		Errors:         stats.ErrorsTotal,
		Reconnects:     stats.ReconnectsTotal,
	}
	if h.cfg.Counters != nil {
		msg.Statistics.CommandsReceived, msg.Statistics.CommandsRejected = h.cfg.Counters()
	}
	return msg
}

func (h *HealthReporter) publishStatus(status HealthStatus, reason string) error {
	if h.cfg.Publisher == nil || h.cfg.Topic == "" {
		return nil
	}
	payload, err := json.Marshal(h.buildMessage(status, reason))
	if err != nil {
		return err
	}
	return h.cfg.Publisher.Publish(h.cfg.Topic, payload, h.cfg.QoS, true)
}

func (h *HealthReporter) logError(msg string, err error) {
	h.loggerMu.RLock()
	logger := h.logger
	h.loggerMu.RUnlock()

	if logger != nil {
		logger.Error(msg, "error", err)
	}
}
