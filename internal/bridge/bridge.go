package bridge

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/enobrev/htd-lync-mqtt/internal/infrastructure/mqtt"
	"github.com/enobrev/htd-lync-mqtt/internal/lync"
	"github.com/enobrev/htd-lync-mqtt/internal/mirror"
	"github.com/enobrev/htd-lync-mqtt/internal/sequencer"
)

// MQTTClient is the interface for MQTT operations.
// This allows mocking in tests.
type MQTTClient interface {
	// Publish sends a message to a topic.
	Publish(topic string, payload []byte, qos byte, retained bool) error

	// Subscribe registers a handler for a topic pattern.
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error

	// IsConnected returns true if connected to the broker.
	IsConnected() bool
}

// DiscoveryPublisher publishes Home Assistant manifests.
type DiscoveryPublisher interface {
	PublishAll() error
	UpdateSourceOptions(zone int, names map[int]string) error
}

// Logger interface for optional logging.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Options holds configuration for creating a bridge.
type Options struct {
	// TopicPrefix is the root of every state and command topic.
	TopicPrefix string

	// QoS for state publishes and subscriptions.
	QoS byte

	// Version is reported in health messages.
	Version string

	// DeviceAddress is reported in health messages.
	DeviceAddress string

	// HealthInterval is the health publish period. Zero disables
	// periodic reports.
	HealthInterval time.Duration

	// LaneQueueSize is the per-zone intent backlog.
	LaneQueueSize int

	MQTT      MQTTClient
	Device    lync.Connector
	Discovery DiscoveryPublisher // optional
	Logger    Logger             // optional
}

// Bridge connects the controller to MQTT.
//
// It owns the state mirror and the command sequencer:
//   - controller events are applied to the mirror on one dispatcher goroutine
//   - mirror changes are published as retained state on that same goroutine
//   - inbound commands become sequencer intents, queued per zone
//
// Thread Safety: HandleMessage and NotifyMQTTConnected may be called from
// any goroutine. Run must be called once.
type Bridge struct {
	opts   Options
	topics mqtt.Topics

	mirror *mirror.Mirror
	seq    *sequencer.Sequencer
	health *HealthReporter

	// mqttUp coalesces broker (re)connect notifications for the dispatcher.
	mqttUp chan struct{}

	commandsReceived atomic.Uint64
	commandsRejected atomic.Uint64
}

// New creates a bridge. Call Run to start it.
func New(opts Options) (*Bridge, error) {
	if opts.MQTT == nil {
		return nil, fmt.Errorf("%w: MQTT client is required", ErrInvalidOptions)
	}
	if opts.Device == nil {
		return nil, fmt.Errorf("%w: controller connection is required", ErrInvalidOptions)
	}
	if opts.TopicPrefix == "" {
		return nil, fmt.Errorf("%w: topic prefix is required", ErrInvalidOptions)
	}

	b := &Bridge{
		opts:   opts,
		topics: mqtt.Topics{Prefix: opts.TopicPrefix},
		mqttUp: make(chan struct{}, 1),
	}

	b.mirror = mirror.New(b, opts.Logger)
	b.seq = sequencer.New(opts.Device, b.mirror, opts.Logger,
		sequencer.WithLaneQueueSize(opts.LaneQueueSize))

	b.health = NewHealthReporter(HealthReporterConfig{
		Topic:     b.topics.Health(),
		Version:   opts.Version,
		Address:   opts.DeviceAddress,
		Interval:  opts.HealthInterval,
		QoS:       opts.QoS,
		Publisher: opts.MQTT,
		Device:    opts.Device,
		Counters:  b.counters,
	})
	if opts.Logger != nil {
		b.health.SetLogger(opts.Logger)
	}

	return b, nil
}

// Mirror returns the bridge's state mirror.
func (b *Bridge) Mirror() *mirror.Mirror {
	return b.mirror
}

// Sequencer returns the bridge's command sequencer.
func (b *Bridge) Sequencer() *sequencer.Sequencer {
	return b.seq
}

// Health returns the current health report.
func (b *Bridge) Health() HealthMessage {
	return b.health.Snapshot()
}

// Run subscribes to command topics and runs the dispatcher, the sequencer
// lanes and the health reporter until ctx is cancelled or the controller
// event stream ends.
func (b *Bridge) Run(ctx context.Context) error {
	if err := b.subscribe(); err != nil {
		return err
	}

	b.health.Start(ctx)
	defer b.health.Stop()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return b.seq.Run(ctx)
	})
	g.Go(func() error {
		// The lanes have nothing left to do once the dispatcher exits.
		defer cancel()
		b.dispatch(ctx)
		return nil
	})

	b.logInfo("bridge started", "prefix", b.opts.TopicPrefix)
	err := g.Wait()
	b.logInfo("bridge stopped")
	return err
}

// subscribe registers every command pattern.
func (b *Bridge) subscribe() error {
	patterns := make([]string, 0, len(mp3Actions)+len(zoneFields))
	for _, action := range mp3Actions {
		patterns = append(patterns, b.topics.Mp3Command(string(action)))
	}
	for _, field := range zoneFields {
		patterns = append(patterns, b.topics.AllZonesCommand(field))
	}

	for _, topic := range patterns {
		if err := b.opts.MQTT.Subscribe(topic, b.opts.QoS, b.HandleMessage); err != nil {
			return fmt.Errorf("subscribe %s: %w", topic, err)
		}
	}
	b.logInfo("subscribed to commands", "patterns", len(patterns))
	return nil
}

// dispatch is the single consumer of controller events and broker
// connect notifications. Mirror applies and state publishes happen here.
// It returns when ctx ends or the controller event stream closes.
func (b *Bridge) dispatch(ctx context.Context) {
	events := b.opts.Device.Events()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				b.logInfo("controller event stream closed")
				return
			}
			b.handleDeviceEvent(ev)
		case <-b.mqttUp:
			b.handleMQTTConnected()
		}
	}
}

// NotifyMQTTConnected tells the dispatcher the broker connection is
// (re)established. Intended as the MQTT client's on-connect callback.
func (b *Bridge) NotifyMQTTConnected() {
	select {
	case b.mqttUp <- struct{}{}:
	default:
	}
}

// handleDeviceEvent applies one controller event.
func (b *Bridge) handleDeviceEvent(ev lync.Event) {
	switch ev := ev.(type) {
	case lync.Connected:
		b.logInfo("controller connected", "address", ev.Address)
		b.publishLiveness()
		b.requestRefresh()

	case lync.ConnectionError:
		b.logWarn("controller connection error", "error", ev.Err)

	case lync.SystemFlags:
		b.mirror.ApplySystem(mirror.SystemState{
			AllOn:     ev.AllOn,
			AllOff:    ev.AllOff,
			PartyMode: ev.PartyMode,
		})

	case lync.ZoneStatus:
		//nolint:errcheck // the decoder only yields zones 1..12; the mirror logs anything else
		b.mirror.ApplyZone(ev.Zone, mirror.ZonePatch{
			Power:        &ev.Power,
			Mute:         &ev.Mute,
			DoNotDisturb: &ev.DoNotDisturb,
			ActiveSource: &ev.Source,
			Volume:       &ev.Volume,
			Treble:       &ev.Treble,
			Bass:         &ev.Bass,
			Balance:      &ev.Balance,
		})

	case lync.ZoneName:
		//nolint:errcheck // logged by the mirror
		b.mirror.ApplyZoneName(ev.Zone, ev.Name)

	case lync.SourceName:
		//nolint:errcheck // logged by the mirror
		b.mirror.ApplySourceName(ev.Zone, ev.Source, ev.Name)

	case lync.Identity:
		b.mirror.ApplyIdentity(ev.ID)

	case lync.Mp3Repeat:
		b.mirror.ApplyMp3Repeat(ev.Repeat)

	case lync.Mp3Artist:
		b.mirror.ApplyMp3Artist(ev.Artist)

	case lync.Mp3File:
		b.mirror.ApplyMp3File(ev.File)

	default:
		b.logDebug("ignoring controller event", "type", fmt.Sprintf("%T", ev))
	}
}

// handleMQTTConnected republishes discovery, marks liveness and asks the
// controller for fresh state. The mirror itself is left as is, and source
// selects are refilled from the names it already holds.
func (b *Bridge) handleMQTTConnected() {
	if b.opts.Discovery != nil {
		if err := b.opts.Discovery.PublishAll(); err != nil {
			b.logWarn("discovery publish incomplete", "error", err)
		}
		for _, z := range b.mirror.Zones() {
			if err := b.opts.Discovery.UpdateSourceOptions(z.Number, z.SourceNames); err != nil {
				b.logWarn("source options update failed", "zone", z.Number, "error", err)
			}
		}
	}
	b.publishLiveness()
	b.requestRefresh()
}

func (b *Bridge) requestRefresh() {
	if _, err := b.seq.Submit(sequencer.Intent{Op: sequencer.OpRefresh}); err != nil {
		b.logWarn("refresh not queued", "error", err)
	}
}

// =============================================================================
// Inbound commands
// =============================================================================

// HandleMessage handles one message on a command topic. It never blocks on
// controller I/O: the resulting intent is queued on the zone's lane.
func (b *Bridge) HandleMessage(topic string, payload []byte) error {
	b.commandsReceived.Add(1)

	cmd, err := ParseCommandTopic(b.opts.TopicPrefix, topic)
	if err != nil {
		return b.reject(topic, err)
	}

	in, err := intentFor(cmd, payload, b.mirror)
	if err != nil {
		return b.reject(topic, err)
	}

	id, err := b.seq.Submit(in)
	if err != nil {
		return b.reject(topic, err)
	}
	b.logDebug("command accepted", "topic", topic, "intent_id", id)
	return nil
}

// reject counts a dropped command. The returned error is logged by the
// MQTT client; unknown source names are dropped quietly.
func (b *Bridge) reject(topic string, err error) error {
	b.commandsRejected.Add(1)
	if errors.Is(err, ErrSourceNotFound) {
		b.logDebug("command dropped", "topic", topic, "error", err)
		return nil
	}
	return err
}

func (b *Bridge) counters() (received, rejected uint64) {
	return b.commandsReceived.Load(), b.commandsRejected.Load()
}

// =============================================================================
// Outbound state
// =============================================================================

// MirrorChanged publishes a mirror change. It runs on the dispatcher
// goroutine, in the order the mirror applied changes.
func (b *Bridge) MirrorChanged(c mirror.Change) {
	switch c := c.(type) {
	case mirror.ZoneChanged:
		b.publishZone(c.Zone)
	case mirror.SourceCatalogChanged:
		b.publish(b.topics.CatalogSource(c.Source), c.Name, true)
	case mirror.SystemChanged:
		b.publish(b.topics.SystemState("all_on"), encodeBool(c.System.AllOn), true)
		b.publish(b.topics.SystemState("all_off"), encodeBool(c.System.AllOff), true)
		b.publish(b.topics.SystemState("party_mode"), encodeBool(c.System.PartyMode), true)
	case mirror.Mp3Changed:
		b.publish(b.topics.Mp3State("repeat"), encodeBool(c.Mp3.Repeat), true)
		b.publish(b.topics.Mp3State("artist"), c.Mp3.Artist, true)
		b.publish(b.topics.Mp3State("file"), c.Mp3.File, true)
	case mirror.IdentityChanged:
		b.publish(b.topics.SystemState("id"), c.Identity.DeviceID, true)
	}
}

func (b *Bridge) publishZone(z mirror.ZoneState) {
	n := z.Number
	b.publish(b.topics.ZoneState(n, "number"), strconv.Itoa(n), true)
	b.publish(b.topics.ZoneState(n, FieldName), z.Name, true)
	b.publish(b.topics.ZoneState(n, FieldPower), encodeBool(z.Power), true)
	b.publish(b.topics.ZoneState(n, FieldMute), encodeBool(z.Mute), true)
	b.publish(b.topics.ZoneState(n, FieldDND), encodeBool(z.DoNotDisturb), true)
	b.publish(b.topics.ZoneState(n, FieldSource), strconv.Itoa(z.ActiveSource), true)
	b.publish(b.topics.ZoneState(n, FieldVolume), strconv.Itoa(z.Volume), true)
	b.publish(b.topics.ZoneState(n, FieldTreble), strconv.Itoa(z.Treble), true)
	b.publish(b.topics.ZoneState(n, FieldBass), strconv.Itoa(z.Bass), true)
	b.publish(b.topics.ZoneState(n, FieldBalance), strconv.Itoa(z.Balance), true)
	b.publish(b.topics.ZoneState(n, FieldSourceName), z.SourceDisplayName(), true)

	sources := make([]int, 0, len(z.SourceNames))
	for src := range z.SourceNames {
		sources = append(sources, src)
	}
	slices.Sort(sources)
	for _, src := range sources {
		b.publish(b.topics.ZoneSource(n, src), z.SourceNames[src], false)
	}

	if b.opts.Discovery != nil {
		if err := b.opts.Discovery.UpdateSourceOptions(n, z.SourceNames); err != nil {
			b.logWarn("source options update failed", "zone", n, "error", err)
		}
	}
}

func (b *Bridge) publishLiveness() {
	b.publish(b.topics.Connected(), "1", false)
}

// publish sends one state value. Failures are logged; the next controller
// refresh republishes everything.
func (b *Bridge) publish(topic, value string, retained bool) {
	if err := b.opts.MQTT.Publish(topic, []byte(value), b.opts.QoS, retained); err != nil {
		if errors.Is(err, mqtt.ErrNotConnected) {
			b.logDebug("state not published, broker offline", "topic", topic)
			return
		}
		b.logWarn("state publish failed", "topic", topic, "error", err)
	}
}

func encodeBool(v bool) string {
	if v {
		return "1"
	}
	return "0"
}

func (b *Bridge) logDebug(msg string, keysAndValues ...any) {
	if b.opts.Logger != nil {
		b.opts.Logger.Debug(msg, keysAndValues...)
	}
}

func (b *Bridge) logInfo(msg string, keysAndValues ...any) {
	if b.opts.Logger != nil {
		b.opts.Logger.Info(msg, keysAndValues...)
	}
}

func (b *Bridge) logWarn(msg string, keysAndValues ...any) {
	if b.opts.Logger != nil {
		b.opts.Logger.Warn(msg, keysAndValues...)
	}
}
