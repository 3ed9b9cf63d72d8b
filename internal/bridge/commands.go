package bridge

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/enobrev/htd-lync-mqtt/internal/infrastructure/mqtt"
	"github.com/enobrev/htd-lync-mqtt/internal/lync"
	"github.com/enobrev/htd-lync-mqtt/internal/mirror"
	"github.com/enobrev/htd-lync-mqtt/internal/sequencer"
)

// Zone parameters accepted on {prefix}/set/zones/{n}/{field}.
const (
	FieldName       = "name"
	FieldPower      = "power"
	FieldMute       = "mute"
	FieldDND        = "dnd"
	FieldSource     = "source"
	FieldSourceName = "source_name"
	FieldVolume     = "volume"
	FieldTreble     = "treble"
	FieldBass       = "bass"
	FieldBalance    = "balance"
)

// zoneFields lists every settable zone parameter in subscription order.
var zoneFields = []string{
	FieldName, FieldPower, FieldMute, FieldDND, FieldSource,
	FieldSourceName, FieldVolume, FieldTreble, FieldBass, FieldBalance,
}

var mp3Actions = []lync.Mp3Action{lync.Mp3Stop, lync.Mp3Play, lync.Mp3Forward, lync.Mp3Back}

// Command is a parsed command topic. Exactly one of Field (with Zone) or
// Mp3 is set.
type Command struct {
	Zone  int
	Field string
	Mp3   lync.Mp3Action
}

// ParseCommandTopic recovers the target of a command topic.
//
// Examples (prefix "lync"):
//
//	lync/set/zones/3/volume  → Command{Zone: 3, Field: "volume"}
//	lync/set/mp3/play        → Command{Mp3: "play"}
//
// A well-formed zone topic for a zone outside 1..12 returns an error
// wrapping sequencer.ErrUnknownZone; anything else unrecognised returns
// ErrUnknownTopic.
func ParseCommandTopic(prefix, topic string) (Command, error) {
	rest, ok := strings.CutPrefix(topic, mqtt.Topics{Prefix: prefix}.CommandRoot())
	if !ok {
		return Command{}, fmt.Errorf("%w: %s", ErrUnknownTopic, topic)
	}
	parts := strings.Split(rest, "/")

	switch {
	case len(parts) == 2 && parts[0] == "mp3":
		action := lync.Mp3Action(parts[1])
		if !slices.Contains(mp3Actions, action) {
			return Command{}, fmt.Errorf("%w: %s", ErrUnknownTopic, topic)
		}
		return Command{Mp3: action}, nil

	case len(parts) == 3 && parts[0] == "zones":
		zone, ok := parseZoneSegment(parts[1])
		if !ok || !slices.Contains(zoneFields, parts[2]) {
			return Command{}, fmt.Errorf("%w: %s", ErrUnknownTopic, topic)
		}
		if zone < 1 || zone > lync.ZoneCount {
			return Command{}, fmt.Errorf("%w: %d", sequencer.ErrUnknownZone, zone)
		}
		return Command{Zone: zone, Field: parts[2]}, nil
	}

	return Command{}, fmt.Errorf("%w: %s", ErrUnknownTopic, topic)
}

// parseZoneSegment accepts one or two ASCII digits. Signs, spaces and
// longer numbers are not zone segments.
func parseZoneSegment(s string) (int, bool) {
	if len(s) == 0 || len(s) > 2 {
		return 0, false
	}
	n := 0
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
		n = n*10 + int(s[i]-'0')
	}
	return n, true
}

// parseBool accepts "1"/"0" and, case-insensitively, on/off and true/false.
func parseBool(payload []byte) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(string(payload))) {
	case "1", "on", "true":
		return true, nil
	case "0", "off", "false":
		return false, nil
	}
	return false, fmt.Errorf("%w: %q is not a boolean", ErrPayloadParse, payload)
}

func parseInt(payload []byte) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(string(payload)))
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not an integer", ErrPayloadParse, payload)
	}
	return n, nil
}

// lookupSource finds the source number whose zone label equals name.
// Lowest source number wins if labels repeat.
func lookupSource(zone mirror.ZoneState, name string) (int, error) {
	found := 0
	for num, label := range zone.SourceNames {
		if label == name && (found == 0 || num < found) {
			found = num
		}
	}
	if found == 0 {
		return 0, fmt.Errorf("%w: zone %d has no source %q", ErrSourceNotFound, zone.Number, name)
	}
	return found, nil
}

// intentFor turns a parsed command and its payload into a sequencer intent.
func intentFor(cmd Command, payload []byte, state *mirror.Mirror) (sequencer.Intent, error) {
	if cmd.Mp3 != "" {
		return sequencer.Intent{Op: sequencer.OpMp3, Mp3: cmd.Mp3}, nil
	}

	in := sequencer.Intent{Zone: cmd.Zone}
	var err error

	switch cmd.Field {
	case FieldName:
		in.Op = sequencer.OpName
		in.Text = string(payload)
	case FieldPower:
		in.Op = sequencer.OpPower
		in.Flag, err = parseBool(payload)
	case FieldMute:
		in.Op = sequencer.OpMute
		in.Flag, err = parseBool(payload)
	case FieldDND:
		in.Op = sequencer.OpDND
		in.Flag, err = parseBool(payload)
	case FieldSource:
		in.Op = sequencer.OpSource
		in.Value, err = parseInt(payload)
	case FieldVolume:
		in.Op = sequencer.OpVolume
		in.Value, err = parseInt(payload)
	case FieldTreble:
		in.Op = sequencer.OpTreble
		in.Value, err = parseInt(payload)
	case FieldBass:
		in.Op = sequencer.OpBass
		in.Value, err = parseInt(payload)
	case FieldBalance:
		in.Op = sequencer.OpBalance
		in.Value, err = parseInt(payload)
	case FieldSourceName:
		// Selecting by display name routes the matching source.
		in.Op = sequencer.OpSource
		var zone mirror.ZoneState
		if zone, err = state.Zone(cmd.Zone); err == nil {
			in.Value, err = lookupSource(zone, string(payload))
		}
	default:
		err = fmt.Errorf("%w: field %s", ErrUnknownTopic, cmd.Field)
	}

	return in, err
}
