package mirror

import (
	"fmt"
	"maps"
)

// ZoneCount is the fixed number of zone records.
const ZoneCount = 12

// ZoneState is one zone's last known status.
type ZoneState struct {
	Number       int
	Name         string
	Power        bool
	Mute         bool
	DoNotDisturb bool
	ActiveSource int
	Volume       int
	Treble       int
	Bass         int
	Balance      int

	// SourceNames maps source number to this zone's label for it.
	SourceNames map[int]string
}

// SourceDisplayName returns the zone's label for its active source, or
// "Source N" when the controller never named it.
func (z ZoneState) SourceDisplayName() string {
	if name, ok := z.SourceNames[z.ActiveSource]; ok && name != "" {
		return name
	}
	return fmt.Sprintf("Source %d", z.ActiveSource)
}

func (z ZoneState) clone() ZoneState {
	z.SourceNames = maps.Clone(z.SourceNames)
	if z.SourceNames == nil {
		z.SourceNames = map[int]string{}
	}
	return z
}

func newZone(n int) ZoneState {
	return ZoneState{
		Number:       n,
		Name:         fmt.Sprintf("Zone %d", n),
		ActiveSource: 1,
		SourceNames:  map[int]string{},
	}
}

// ZonePatch is a partial zone notification. Nil fields are left unchanged.
type ZonePatch struct {
	Name         *string
	Power        *bool
	Mute         *bool
	DoNotDisturb *bool
	ActiveSource *int
	Volume       *int
	Treble       *int
	Bass         *int
	Balance      *int
}

// apply merges the set fields of p into z.
func (p ZonePatch) apply(z *ZoneState) {
	if p.Name != nil {
		z.Name = *p.Name
	}
	if p.Power != nil {
		z.Power = *p.Power
	}
	if p.Mute != nil {
		z.Mute = *p.Mute
	}
	if p.DoNotDisturb != nil {
		z.DoNotDisturb = *p.DoNotDisturb
	}
	if p.ActiveSource != nil {
		z.ActiveSource = *p.ActiveSource
	}
	if p.Volume != nil {
		z.Volume = *p.Volume
	}
	if p.Treble != nil {
		z.Treble = *p.Treble
	}
	if p.Bass != nil {
		z.Bass = *p.Bass
	}
	if p.Balance != nil {
		z.Balance = *p.Balance
	}
}

// SystemState is the controller-wide flag set.
type SystemState struct {
	AllOn     bool
	AllOff    bool
	PartyMode bool
}

// Mp3State is the built-in mp3 player's status. Fields update independently.
type Mp3State struct {
	Repeat bool
	File   string
	Artist string
}

// Identity is the controller's self-reported identification.
type Identity struct {
	DeviceID string
}
