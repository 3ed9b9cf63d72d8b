package mirror

import (
	"fmt"
	"maps"
	"sync"
)

// Logger interface for optional logging.
type Logger interface {
	Warn(msg string, keysAndValues ...any)
}

// Mirror is the authoritative in-memory copy of controller state.
//
// Thread Safety:
//   - All methods are safe for concurrent use.
//   - Changes reach the sink after the lock is released, so a sink may
//     call back into the mirror.
type Mirror struct {
	mu       sync.RWMutex
	zones    [ZoneCount]ZoneState
	catalog  map[int]string
	system   SystemState
	mp3      Mp3State
	identity Identity
	haveID   bool

	sink   ChangeSink
	logger Logger
}

// New creates a mirror with twelve default zones. sink and logger may be nil.
func New(sink ChangeSink, logger Logger) *Mirror {
	m := &Mirror{
		catalog: map[int]string{},
		sink:    sink,
		logger:  logger,
	}
	for i := range m.zones {
		m.zones[i] = newZone(i + 1)
	}
	return m
}

// ApplySystem overwrites the system flags.
func (m *Mirror) ApplySystem(s SystemState) {
	m.mu.Lock()
	m.system = s
	m.mu.Unlock()

	m.emit(SystemChanged{System: s})
}

// ApplyZone merges a partial zone notification.
func (m *Mirror) ApplyZone(zone int, patch ZonePatch) error {
	m.mu.Lock()
	z, err := m.zoneLocked(zone)
	if err != nil {
		m.mu.Unlock()
		m.logUnknown(zone, "zone status")
		return err
	}
	patch.apply(z)
	snapshot := z.clone()
	m.mu.Unlock()

	m.emit(ZoneChanged{Zone: snapshot})
	return nil
}

// ApplyZoneName sets a zone's label.
func (m *Mirror) ApplyZoneName(zone int, name string) error {
	return m.ApplyZone(zone, ZonePatch{Name: &name})
}

// ApplySourceName records a zone's label for one source. Labels reported
// for zone 1 also populate the global catalog.
func (m *Mirror) ApplySourceName(zone, source int, name string) error {
	m.mu.Lock()
	z, err := m.zoneLocked(zone)
	if err != nil {
		m.mu.Unlock()
		m.logUnknown(zone, "source name")
		return err
	}
	z.SourceNames[source] = name
	snapshot := z.clone()
	if zone == 1 {
		m.catalog[source] = name
	}
	m.mu.Unlock()

	if zone == 1 {
		m.emit(SourceCatalogChanged{Source: source, Name: name})
	}
	m.emit(ZoneChanged{Zone: snapshot})
	return nil
}

// ApplyMp3Repeat sets the mp3 repeat flag.
func (m *Mirror) ApplyMp3Repeat(repeat bool) {
	m.updateMp3(func(s *Mp3State) { s.Repeat = repeat })
}

// ApplyMp3File sets the current mp3 file name.
func (m *Mirror) ApplyMp3File(file string) {
	m.updateMp3(func(s *Mp3State) { s.File = file })
}

// ApplyMp3Artist sets the current mp3 artist.
func (m *Mirror) ApplyMp3Artist(artist string) {
	m.updateMp3(func(s *Mp3State) { s.Artist = artist })
}

func (m *Mirror) updateMp3(fn func(*Mp3State)) {
	m.mu.Lock()
	fn(&m.mp3)
	s := m.mp3
	m.mu.Unlock()

	m.emit(Mp3Changed{Mp3: s})
}

// ApplyIdentity records the controller identity. Only the first report
// is kept; later ones are ignored without an event.
func (m *Mirror) ApplyIdentity(id string) {
	m.mu.Lock()
	if m.haveID {
		m.mu.Unlock()
		return
	}
	m.identity = Identity{DeviceID: id}
	m.haveID = true
	m.mu.Unlock()

	m.emit(IdentityChanged{Identity: Identity{DeviceID: id}})
}

// Zone returns a copy of one zone.
func (m *Mirror) Zone(zone int) (ZoneState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if zone < 1 || zone > ZoneCount {
		return ZoneState{}, fmt.Errorf("%w: %d", ErrUnknownZone, zone)
	}
	return m.zones[zone-1].clone(), nil
}

// Zones returns copies of all twelve zones in order.
func (m *Mirror) Zones() []ZoneState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]ZoneState, ZoneCount)
	for i := range m.zones {
		out[i] = m.zones[i].clone()
	}
	return out
}

// ActiveSource returns the last source the controller reported for a zone.
func (m *Mirror) ActiveSource(zone int) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if zone < 1 || zone > ZoneCount {
		return 0, fmt.Errorf("%w: %d", ErrUnknownZone, zone)
	}
	return m.zones[zone-1].ActiveSource, nil
}

// System returns the system flags.
func (m *Mirror) System() SystemState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.system
}

// Mp3 returns the mp3 player state.
func (m *Mirror) Mp3() Mp3State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.mp3
}

// Identity returns the controller identity and whether one was reported.
func (m *Mirror) Identity() (Identity, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.identity, m.haveID
}

// SourceCatalog returns a copy of the global source catalog.
func (m *Mirror) SourceCatalog() map[int]string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return maps.Clone(m.catalog)
}

// zoneLocked returns the record for zone. Caller must hold mu.
func (m *Mirror) zoneLocked(zone int) (*ZoneState, error) {
	if zone < 1 || zone > ZoneCount {
		return nil, fmt.Errorf("%w: %d", ErrUnknownZone, zone)
	}
	return &m.zones[zone-1], nil
}

func (m *Mirror) emit(c Change) {
	if m.sink != nil {
		m.sink.MirrorChanged(c)
	}
}

func (m *Mirror) logUnknown(zone int, what string) {
	if m.logger != nil {
		m.logger.Warn("ignoring notification for unknown zone", "zone", zone, "kind", what)
	}
}
