package lync

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Frame layout shared by both directions:
//
//	0x02 0x00 <zone> <code> <data...> <checksum>
//
// checksum is the low byte of the sum of every preceding byte.
const (
	frameStart    byte = 0x02
	frameReserved byte = 0x00
	headerLen          = 4
)

// Controller limits.
const (
	// ZoneCount is the number of zones on a Lync 12.
	ZoneCount = 12

	// SourceCount is the number of selectable sources (12 zone inputs + 6 extended).
	SourceCount = 18

	MinVolume = 0
	MaxVolume = 60

	// MinTone and MaxTone bound treble, bass and balance.
	MinTone = -10
	MaxTone = 10

	// maxNameLen is the longest zone or source label the controller stores.
	maxNameLen = 11
)

// Host to controller command codes.
const (
	cmdCommon     byte = 0x04
	cmdZoneName   byte = 0x06
	cmdSourceName byte = 0x07
	cmdQueryAll   byte = 0x0C
	cmdVolume     byte = 0x15
	cmdBalance    byte = 0x16
	cmdTreble     byte = 0x17
	cmdBass       byte = 0x18
	cmdEchoMode   byte = 0x19
)

// Data codes carried by cmdCommon.
const (
	opMp3Back         byte = 0x0A
	opMp3Play         byte = 0x0B
	opMp3Forward      byte = 0x0C
	opMp3Stop         byte = 0x0D
	opSourceBase      byte = 0x10 // sources 1..12
	opSourceExtBase   byte = 0x63 // sources 13..18
	opMuteOn          byte = 0x1E
	opMuteOff         byte = 0x1F
	opPartyBase       byte = 0x36 // party source 1..18
	opPowerOn         byte = 0x57
	opPowerOff        byte = 0x58
	opDoNotDisturbOn  byte = 0x59
	opDoNotDisturbOff byte = 0x5A
)

// Mp3Action identifies an mp3 player transport button.
type Mp3Action string

// Mp3 transport actions.
const (
	Mp3Stop    Mp3Action = "stop"
	Mp3Play    Mp3Action = "play"
	Mp3Forward Mp3Action = "forward"
	Mp3Back    Mp3Action = "back"
)

// Command is one encoded request for the controller.
type Command struct {
	// Op names the command for logs, e.g. "volume".
	Op   string
	Zone byte
	Code byte
	Data []byte
}

// Encode returns the wire frame for the command.
func (c Command) Encode() []byte {
	frame := make([]byte, 0, headerLen+len(c.Data)+1)
	frame = append(frame, frameStart, frameReserved, c.Zone, c.Code)
	frame = append(frame, c.Data...)
	return append(frame, checksum(frame))
}

// String implements fmt.Stringer for log output.
func (c Command) String() string {
	return fmt.Sprintf("%s(zone=%d code=0x%02X data=% X)", c.Op, c.Zone, c.Code, c.Data)
}

// checksum sums the given bytes modulo 256.
func checksum(parts ...[]byte) byte {
	var sum byte
	for _, p := range parts {
		for _, b := range p {
			sum += b
		}
	}
	return sum
}

// =============================================================================
// Command builders
// =============================================================================

// EchoMode turns unsolicited status pushes on or off.
func EchoMode(on bool) Command {
	data := byte(0x00)
	if on {
		data = 0xFF
	}
	return Command{Op: "echo_mode", Code: cmdEchoMode, Data: []byte{data}}
}

// QueryAll asks the controller to report every zone, name and system flag.
func QueryAll() Command {
	return Command{Op: "query_all", Code: cmdQueryAll, Data: []byte{0x00}}
}

// Power switches a zone on or off.
func Power(zone int, on bool) (Command, error) {
	return toggle("power", zone, on, opPowerOn, opPowerOff)
}

// Mute mutes or unmutes a zone.
func Mute(zone int, on bool) (Command, error) {
	return toggle("mute", zone, on, opMuteOn, opMuteOff)
}

// DoNotDisturb sets a zone's do-not-disturb flag.
func DoNotDisturb(zone int, on bool) (Command, error) {
	return toggle("dnd", zone, on, opDoNotDisturbOn, opDoNotDisturbOff)
}

func toggle(op string, zone int, on bool, onCode, offCode byte) (Command, error) {
	if err := checkZone(zone); err != nil {
		return Command{}, err
	}
	code := offCode
	if on {
		code = onCode
	}
	return Command{Op: op, Zone: byte(zone), Code: cmdCommon, Data: []byte{code}}, nil
}

// Source routes a source to a zone.
func Source(zone, source int) (Command, error) {
	if err := checkZone(zone); err != nil {
		return Command{}, err
	}
	if err := checkSource(source); err != nil {
		return Command{}, err
	}
	code := opSourceBase + byte(source-1)
	if source > 12 {
		code = opSourceExtBase + byte(source-13)
	}
	return Command{Op: "source", Zone: byte(zone), Code: cmdCommon, Data: []byte{code}}, nil
}

// PartyMode routes one source to every zone.
func PartyMode(source int) (Command, error) {
	if err := checkSource(source); err != nil {
		return Command{}, err
	}
	return Command{Op: "party_mode", Code: cmdCommon, Data: []byte{opPartyBase + byte(source-1)}}, nil
}

// Volume sets a zone's volume (0..60).
func Volume(zone, volume int) (Command, error) {
	if err := checkZone(zone); err != nil {
		return Command{}, err
	}
	if volume < MinVolume || volume > MaxVolume {
		return Command{}, fmt.Errorf("%w: volume %d outside %d..%d", ErrInvalidValue, volume, MinVolume, MaxVolume)
	}
	return Command{Op: "volume", Zone: byte(zone), Code: cmdVolume, Data: []byte{byte(volume)}}, nil
}

// Treble sets a zone's treble (-10..10).
func Treble(zone, level int) (Command, error) {
	return tone("treble", cmdTreble, zone, level)
}

// Bass sets a zone's bass (-10..10).
func Bass(zone, level int) (Command, error) {
	return tone("bass", cmdBass, zone, level)
}

// Balance sets a zone's balance (-10..10, negative is left).
func Balance(zone, level int) (Command, error) {
	return tone("balance", cmdBalance, zone, level)
}

func tone(op string, code byte, zone, level int) (Command, error) {
	if err := checkZone(zone); err != nil {
		return Command{}, err
	}
	if level < MinTone || level > MaxTone {
		return Command{}, fmt.Errorf("%w: %s %d outside %d..%d", ErrInvalidValue, op, level, MinTone, MaxTone)
	}
	return Command{Op: op, Zone: byte(zone), Code: code, Data: []byte{byte(int8(level))}}, nil
}

// SetZoneName renames a zone. Names longer than the controller's label width
// are truncated on a rune boundary.
func SetZoneName(zone int, name string) (Command, error) {
	if err := checkZone(zone); err != nil {
		return Command{}, err
	}
	return Command{Op: "zone_name", Zone: byte(zone), Code: cmdZoneName, Data: encodeName(name)}, nil
}

// SetSourceName sets the label a zone shows for one of its sources.
func SetSourceName(zone, source int, name string) (Command, error) {
	if err := checkZone(zone); err != nil {
		return Command{}, err
	}
	if err := checkSource(source); err != nil {
		return Command{}, err
	}
	data := append(encodeName(name), byte(source-1))
	return Command{Op: "source_name", Zone: byte(zone), Code: cmdSourceName, Data: data}, nil
}

// Mp3 presses an mp3 player transport button.
func Mp3(action Mp3Action) (Command, error) {
	var code byte
	switch action {
	case Mp3Stop:
		code = opMp3Stop
	case Mp3Play:
		code = opMp3Play
	case Mp3Forward:
		code = opMp3Forward
	case Mp3Back:
		code = opMp3Back
	default:
		return Command{}, fmt.Errorf("%w: mp3 action %q", ErrInvalidValue, action)
	}
	return Command{Op: "mp3_" + string(action), Code: cmdCommon, Data: []byte{code}}, nil
}

func checkZone(zone int) error {
	if zone < 1 || zone > ZoneCount {
		return fmt.Errorf("%w: zone %d outside 1..%d", ErrInvalidValue, zone, ZoneCount)
	}
	return nil
}

func checkSource(source int) error {
	if source < 1 || source > SourceCount {
		return fmt.Errorf("%w: source %d outside 1..%d", ErrInvalidValue, source, SourceCount)
	}
	return nil
}

// encodeName returns a NUL-padded label field of maxNameLen+1 bytes.
func encodeName(name string) []byte {
	out := make([]byte, maxNameLen+1)
	n := 0
	for _, r := range name {
		size := utf8.RuneLen(r)
		if size < 0 || n+size > maxNameLen {
			break
		}
		utf8.EncodeRune(out[n:], r)
		n += size
	}
	return out
}

// decodeName reads a NUL-terminated label field.
func decodeName(b []byte) string {
	if i := strings.IndexByte(string(b), 0); i >= 0 {
		b = b[:i]
	}
	return strings.TrimSpace(strings.ToValidUTF8(string(b), ""))
}
