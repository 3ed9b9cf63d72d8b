package discovery

import (
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/enobrev/htd-lync-mqtt/internal/infrastructure/mqtt"
)

// MockPublisher records publishes.
type MockPublisher struct {
	mu        sync.Mutex
	published map[string][]byte
	order     []string
	retained  map[string]bool
	err       error
}

func NewMockPublisher() *MockPublisher {
	return &MockPublisher{
		published: make(map[string][]byte),
		retained:  make(map[string]bool),
	}
}

func (m *MockPublisher) Publish(topic string, payload []byte, _ byte, retained bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.published[topic] = payload
	m.retained[topic] = retained
	m.order = append(m.order, topic)
	return nil
}

func (m *MockPublisher) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.order)
}

func (m *MockPublisher) manifest(t *testing.T, topic string) map[string]any {
	t.Helper()
	m.mu.Lock()
	payload, ok := m.published[topic]
	m.mu.Unlock()
	if !ok {
		t.Fatalf("nothing published on %s", topic)
	}
	var out map[string]any
	if err := json.Unmarshal(payload, &out); err != nil {
		t.Fatalf("manifest on %s is not JSON: %v", topic, err)
	}
	return out
}

func newTestDiscovery(pub Publisher) *Discovery {
	return New(Options{
		Enabled:   true,
		Topics:    mqtt.Topics{Prefix: "lync"},
		Publisher: pub,
	})
}

func TestPublishAll_Counts(t *testing.T) {
	pub := NewMockPublisher()
	d := newTestDiscovery(pub)

	if err := d.PublishAll(); err != nil {
		t.Fatalf("PublishAll() error = %v", err)
	}

	// 9 entities per zone, 7 for the mp3 player.
	if got, want := pub.count(), 12*9+7; got != want {
		t.Errorf("published %d manifests, want %d", got, want)
	}
	for topic, retained := range pub.retained {
		if !retained {
			t.Errorf("%s not retained", topic)
		}
	}
}

func TestPublishAll_ZoneManifests(t *testing.T) {
	pub := NewMockPublisher()
	d := newTestDiscovery(pub)
	if err := d.PublishAll(); err != nil {
		t.Fatal(err)
	}

	power := pub.manifest(t, "homeassistant/switch/htd_lync_zone_3/power/config")
	checks := map[string]any{
		"name":          "Power",
		"unique_id":     "htd_lync_zone_3_power",
		"state_topic":   "lync/zones/3/power",
		"command_topic": "lync/set/zones/3/power",
		"payload_on":    "1",
		"payload_off":   "0",
	}
	for k, want := range checks {
		if power[k] != want {
			t.Errorf("power[%s] = %v, want %v", k, power[k], want)
		}
	}

	dev := power["device"].(map[string]any)
	if dev["via_device"] != "htd_lync" || dev["name"] != "HTD Lync Zone 3" || dev["manufacturer"] != "HTD" {
		t.Errorf("device = %v", dev)
	}
	if ids := dev["identifiers"].([]any); len(ids) != 1 || ids[0] != "htd_lync_zone_3" {
		t.Errorf("identifiers = %v", ids)
	}

	volume := pub.manifest(t, "homeassistant/number/htd_lync_zone_3/volume/config")
	if volume["min"] != float64(0) || volume["max"] != float64(60) {
		t.Errorf("volume range = %v..%v", volume["min"], volume["max"])
	}
	treble := pub.manifest(t, "homeassistant/number/htd_lync_zone_3/treble/config")
	if treble["min"] != float64(-10) || treble["max"] != float64(10) {
		t.Errorf("treble range = %v..%v", treble["min"], treble["max"])
	}

	sel := pub.manifest(t, "homeassistant/select/htd_lync_zone_3/source/config")
	opts, ok := sel["options"].([]any)
	if !ok || len(opts) != 0 {
		t.Errorf("source options = %v, want empty list", sel["options"])
	}
	if sel["command_topic"] != "lync/set/zones/3/source_name" {
		t.Errorf("select command_topic = %v", sel["command_topic"])
	}

	name := pub.manifest(t, "homeassistant/sensor/htd_lync_zone_3/name/config")
	if name["state_topic"] != "lync/zones/3/name" {
		t.Errorf("name state_topic = %v", name["state_topic"])
	}
	if _, has := name["command_topic"]; has {
		t.Error("sensor has a command_topic")
	}
}

func TestPublishAll_Mp3Manifests(t *testing.T) {
	pub := NewMockPublisher()
	d := newTestDiscovery(pub)
	if err := d.PublishAll(); err != nil {
		t.Fatal(err)
	}

	buttons := map[string]string{
		"play":    "Play",
		"stop":    "Stop",
		"forward": "Next Track",
		"back":    "Previous Track",
	}
	for control, name := range buttons {
		m := pub.manifest(t, "homeassistant/button/htd_lync_mp3/"+control+"/config")
		if m["name"] != name {
			t.Errorf("%s name = %v, want %s", control, m["name"], name)
		}
		if m["command_topic"] != "lync/set/mp3/"+control {
			t.Errorf("%s command_topic = %v", control, m["command_topic"])
		}
	}

	repeat := pub.manifest(t, "homeassistant/switch/htd_lync_mp3/repeat/config")
	if repeat["state_topic"] != "lync/mp3/repeat" {
		t.Errorf("repeat state_topic = %v", repeat["state_topic"])
	}
	if _, has := repeat["command_topic"]; has {
		t.Error("repeat switch has a command_topic")
	}

	artist := pub.manifest(t, "homeassistant/sensor/htd_lync_mp3/artist/config")
	dev := artist["device"].(map[string]any)
	if dev["name"] != "HTD Lync MP3 Player" {
		t.Errorf("mp3 device name = %v", dev["name"])
	}
}

func TestPublishAll_Disabled(t *testing.T) {
	pub := NewMockPublisher()
	d := New(Options{Enabled: false, Publisher: pub})
	if d.Enabled() {
		t.Fatal("Enabled() = true, want false")
	}

	if err := d.PublishAll(); err != nil {
		t.Fatalf("PublishAll() error = %v", err)
	}
	if err := d.UpdateSourceOptions(1, map[int]string{1: "Radio"}); err != nil {
		t.Fatalf("UpdateSourceOptions() error = %v", err)
	}
	if pub.count() != 0 {
		t.Errorf("published %d manifests while disabled", pub.count())
	}
}

func TestPublishAll_ReturnsFirstError(t *testing.T) {
	pub := NewMockPublisher()
	pub.err = errors.New("not connected")
	d := newTestDiscovery(pub)

	if err := d.PublishAll(); err == nil || !strings.Contains(err.Error(), "not connected") {
		t.Errorf("PublishAll() error = %v", err)
	}
}

func TestUpdateSourceOptions(t *testing.T) {
	pub := NewMockPublisher()
	d := newTestDiscovery(pub)
	topic := "homeassistant/select/htd_lync_zone_2/source/config"

	names := map[int]string{3: "Tuner", 1: "Sonos", 2: "  ", 10: "Apple TV"}
	if err := d.UpdateSourceOptions(2, names); err != nil {
		t.Fatalf("UpdateSourceOptions() error = %v", err)
	}

	m := pub.manifest(t, topic)
	got := m["options"].([]any)
	want := []string{"Sonos", "Tuner", "Apple TV"}
	if len(got) != len(want) {
		t.Fatalf("options = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("options[%d] = %v, want %s", i, got[i], want[i])
		}
	}

	// Same list again: suppressed.
	if err := d.UpdateSourceOptions(2, names); err != nil {
		t.Fatal(err)
	}
	if pub.count() != 1 {
		t.Errorf("published %d times, want 1 (unchanged list suppressed)", pub.count())
	}

	// Changed list: republished.
	names[4] = "Vinyl"
	if err := d.UpdateSourceOptions(2, names); err != nil {
		t.Fatal(err)
	}
	if pub.count() != 2 {
		t.Errorf("published %d times, want 2", pub.count())
	}
}

func TestUpdateSourceOptions_EmptyNotPublished(t *testing.T) {
	pub := NewMockPublisher()
	d := newTestDiscovery(pub)

	if err := d.UpdateSourceOptions(1, map[int]string{1: "", 2: " "}); err != nil {
		t.Fatal(err)
	}
	if err := d.UpdateSourceOptions(1, nil); err != nil {
		t.Fatal(err)
	}
	if pub.count() != 0 {
		t.Errorf("published %d manifests for empty option lists", pub.count())
	}
}

func TestPublishAll_ResetsSuppression(t *testing.T) {
	pub := NewMockPublisher()
	d := newTestDiscovery(pub)
	names := map[int]string{1: "Sonos"}

	if err := d.UpdateSourceOptions(1, names); err != nil {
		t.Fatal(err)
	}
	if err := d.PublishAll(); err != nil {
		t.Fatal(err)
	}
	before := pub.count()

	// PublishAll overwrote the select with empty options, so the same list
	// must go out again.
	if err := d.UpdateSourceOptions(1, names); err != nil {
		t.Fatal(err)
	}
	if pub.count() != before+1 {
		t.Errorf("UpdateSourceOptions after PublishAll published %d, want 1", pub.count()-before)
	}
}

func TestCustomPrefixAndGroup(t *testing.T) {
	pub := NewMockPublisher()
	d := New(Options{
		Enabled:     true,
		Prefix:      "ha",
		DeviceGroup: "den_amp",
		DeviceName:  "Den Amp",
		Topics:      mqtt.Topics{Prefix: "audio"},
		Publisher:   pub,
	})
	if err := d.PublishAll(); err != nil {
		t.Fatal(err)
	}

	m := pub.manifest(t, "ha/number/den_amp_zone_12/bass/config")
	if m["unique_id"] != "den_amp_zone_12_bass" {
		t.Errorf("unique_id = %v", m["unique_id"])
	}
	if m["state_topic"] != "audio/zones/12/bass" {
		t.Errorf("state_topic = %v", m["state_topic"])
	}
	if m["availability_topic"] != "audio/status" {
		t.Errorf("availability_topic = %v", m["availability_topic"])
	}
	dev := m["device"].(map[string]any)
	if dev["via_device"] != "den_amp" {
		t.Errorf("via_device = %v", dev["via_device"])
	}
}
