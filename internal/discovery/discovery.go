package discovery

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/enobrev/htd-lync-mqtt/internal/infrastructure/mqtt"
	"github.com/enobrev/htd-lync-mqtt/internal/lync"
)

// Publisher sends retained discovery documents.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// Logger interface for optional logging.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
}

// Options configures a discovery Publisher.
type Options struct {
	// Enabled turns discovery on. When false every method is a no-op.
	Enabled bool

	// Prefix is the Home Assistant discovery prefix. Default: homeassistant.
	Prefix string

	// DeviceGroup identifies the parent device and prefixes every unique ID.
	// Default: htd_lync.
	DeviceGroup string

	// DeviceName is the parent device's display name.
	DeviceName string

	// Topics builds the bridge's state and command topics.
	Topics mqtt.Topics

	// QoS for discovery publishes.
	QoS byte

	Publisher Publisher
	Logger    Logger
}

// Discovery publishes Home Assistant MQTT discovery manifests for the
// twelve zones and the mp3 player.
type Discovery struct {
	opts Options

	// lastOptions remembers the source list last published per zone.
	lastOptions map[int][]string
	mu          sync.Mutex
}

// New creates a discovery publisher.
func New(opts Options) *Discovery {
	if opts.Prefix == "" {
		opts.Prefix = "homeassistant"
	}
	if opts.DeviceGroup == "" {
		opts.DeviceGroup = "htd_lync"
	}
	if opts.DeviceName == "" {
		opts.DeviceName = "HTD Lync Audio System"
	}
	return &Discovery{
		opts:        opts,
		lastOptions: make(map[int][]string),
	}
}

// Enabled reports whether discovery publishing is on.
func (d *Discovery) Enabled() bool {
	return d.opts.Enabled
}

// PublishAll publishes every zone and mp3 manifest. Zone source selects go
// out with an empty option list; UpdateSourceOptions fills them in later.
//
// Publishing continues past individual failures; the first error is returned.
func (d *Discovery) PublishAll() error {
	if !d.opts.Enabled {
		return nil
	}

	var firstErr error
	publish := func(entities []entity) {
		for _, e := range entities {
			if err := d.publish(e); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}

	for zone := 1; zone <= lync.ZoneCount; zone++ {
		publish(d.zoneEntities(zone))
	}
	publish(d.mp3Entities())

	d.mu.Lock()
	clear(d.lastOptions)
	d.mu.Unlock()

	return firstErr
}

// UpdateSourceOptions republishes a zone's source select with the zone's
// non-blank source names ordered by source number. Nothing is published
// when the list is empty or unchanged since the last publish.
func (d *Discovery) UpdateSourceOptions(zone int, names map[int]string) error {
	if !d.opts.Enabled {
		return nil
	}

	options := sourceOptions(names)
	if len(options) == 0 {
		return nil
	}

	d.mu.Lock()
	if slices.Equal(d.lastOptions[zone], options) {
		d.mu.Unlock()
		return nil
	}
	d.lastOptions[zone] = options
	d.mu.Unlock()

	if err := d.publish(d.sourceSelect(zone, options)); err != nil {
		d.mu.Lock()
		delete(d.lastOptions, zone)
		d.mu.Unlock()
		return err
	}
	return nil
}

// sourceOptions returns the non-blank names ordered by source number.
func sourceOptions(names map[int]string) []string {
	keys := make([]int, 0, len(names))
	for k, name := range names {
		if strings.TrimSpace(name) != "" {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)

	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, names[k])
	}
	return out
}

func (d *Discovery) publish(e entity) error {
	payload, err := json.Marshal(e.manifest)
	if err != nil {
		return fmt.Errorf("marshal %s manifest: %w", e.manifest.UniqueID, err)
	}
	topic := fmt.Sprintf("%s/%s/%s/%s/config", d.opts.Prefix, e.kind, e.node, e.control)
	if err := d.opts.Publisher.Publish(topic, payload, d.opts.QoS, true); err != nil {
		if d.opts.Logger != nil {
			d.opts.Logger.Warn("discovery publish failed", "topic", topic, "error", err)
		}
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	if d.opts.Logger != nil {
		d.opts.Logger.Debug("discovery published", "topic", topic)
	}
	return nil
}

// =============================================================================
// Manifest builders
// =============================================================================

func (d *Discovery) parentDevice() Device {
	return Device{
		Identifiers:  []string{d.opts.DeviceGroup},
		Name:         d.opts.DeviceName,
		Manufacturer: "HTD",
		Model:        "Lync",
	}
}

func (d *Discovery) zoneNode(zone int) string {
	return fmt.Sprintf("%s_zone_%d", d.opts.DeviceGroup, zone)
}

func (d *Discovery) zoneDevice(zone int) Device {
	dev := d.parentDevice()
	dev.Identifiers = []string{d.zoneNode(zone)}
	dev.Name = fmt.Sprintf("HTD Lync Zone %d", zone)
	dev.ViaDevice = d.opts.DeviceGroup
	return dev
}

func (d *Discovery) mp3Node() string {
	return d.opts.DeviceGroup + "_mp3"
}

func (d *Discovery) mp3Device() Device {
	dev := d.parentDevice()
	dev.Identifiers = []string{d.mp3Node()}
	dev.Name = "HTD Lync MP3 Player"
	dev.ViaDevice = d.opts.DeviceGroup
	return dev
}

// base fills the fields every manifest shares.
func (d *Discovery) base(node, control, name string, dev Device) Manifest {
	return Manifest{
		Name:                 name,
		UniqueID:             node + "_" + control,
		AvailabilityTopic:    d.opts.Topics.Status(),
		AvailabilityTemplate: "{{ value_json.status }}",
		Device:               dev,
	}
}

func (d *Discovery) zoneEntities(zone int) []entity {
	node := d.zoneNode(zone)
	dev := d.zoneDevice(zone)
	t := d.opts.Topics

	toggle := func(control, name string) entity {
		m := d.base(node, control, name, dev)
		m.StateTopic = t.ZoneState(zone, control)
		m.CommandTopic = t.ZoneCommand(zone, control)
		m.PayloadOn = "1"
		m.PayloadOff = "0"
		return entity{kind: kindSwitch, node: node, control: control, manifest: m}
	}
	number := func(control, name string, lo, hi int) entity {
		m := d.base(node, control, name, dev)
		m.StateTopic = t.ZoneState(zone, control)
		m.CommandTopic = t.ZoneCommand(zone, control)
		m.Min = intPtr(lo)
		m.Max = intPtr(hi)
		return entity{kind: kindNumber, node: node, control: control, manifest: m}
	}

	nameSensor := d.base(node, "name", "Zone Name", dev)
	nameSensor.StateTopic = t.ZoneState(zone, "name")

	return []entity{
		toggle("power", "Power"),
		toggle("mute", "Mute"),
		toggle("dnd", "Do Not Disturb"),
		number("volume", "Volume", lync.MinVolume, lync.MaxVolume),
		number("treble", "Treble", lync.MinTone, lync.MaxTone),
		number("bass", "Bass", lync.MinTone, lync.MaxTone),
		number("balance", "Balance", lync.MinTone, lync.MaxTone),
		d.sourceSelect(zone, []string{}),
		{kind: kindSensor, node: node, control: "name", manifest: nameSensor},
	}
}

func (d *Discovery) sourceSelect(zone int, options []string) entity {
	node := d.zoneNode(zone)
	m := d.base(node, "source", "Source", d.zoneDevice(zone))
	m.StateTopic = d.opts.Topics.ZoneState(zone, "source_name")
	m.CommandTopic = d.opts.Topics.ZoneCommand(zone, "source_name")
	m.Options = &options
	return entity{kind: kindSelect, node: node, control: "source", manifest: m}
}

func (d *Discovery) mp3Entities() []entity {
	node := d.mp3Node()
	dev := d.mp3Device()
	t := d.opts.Topics

	button := func(action lync.Mp3Action, name string) entity {
		control := string(action)
		m := d.base(node, control, name, dev)
		m.CommandTopic = t.Mp3Command(control)
		return entity{kind: kindButton, node: node, control: control, manifest: m}
	}
	sensor := func(control, name string) entity {
		m := d.base(node, control, name, dev)
		m.StateTopic = t.Mp3State(control)
		return entity{kind: kindSensor, node: node, control: control, manifest: m}
	}

	repeat := d.base(node, "repeat", "Repeat", dev)
	repeat.StateTopic = t.Mp3State("repeat")
	repeat.PayloadOn = "1"
	repeat.PayloadOff = "0"

	return []entity{
		button(lync.Mp3Play, "Play"),
		button(lync.Mp3Stop, "Stop"),
		button(lync.Mp3Forward, "Next Track"),
		button(lync.Mp3Back, "Previous Track"),
		{kind: kindSwitch, node: node, control: "repeat", manifest: repeat},
		sensor("artist", "Artist"),
		sensor("file", "File"),
	}
}
