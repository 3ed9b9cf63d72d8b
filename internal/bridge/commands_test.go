package bridge

import (
	"errors"
	"testing"

	"github.com/enobrev/htd-lync-mqtt/internal/lync"
	"github.com/enobrev/htd-lync-mqtt/internal/mirror"
	"github.com/enobrev/htd-lync-mqtt/internal/sequencer"
)

func TestParseCommandTopic(t *testing.T) {
	tests := []struct {
		name    string
		topic   string
		want    Command
		wantErr error
	}{
		{name: "zone volume", topic: "lync/set/zones/3/volume", want: Command{Zone: 3, Field: "volume"}},
		{name: "zone 12 source_name", topic: "lync/set/zones/12/source_name", want: Command{Zone: 12, Field: "source_name"}},
		{name: "mp3 play", topic: "lync/set/mp3/play", want: Command{Mp3: lync.Mp3Play}},
		{name: "mp3 back", topic: "lync/set/mp3/back", want: Command{Mp3: lync.Mp3Back}},
		{name: "zone 0", topic: "lync/set/zones/0/power", wantErr: sequencer.ErrUnknownZone},
		{name: "zone 13", topic: "lync/set/zones/13/power", wantErr: sequencer.ErrUnknownZone},
		{name: "zone not a number", topic: "lync/set/zones/x/power", wantErr: ErrUnknownTopic},
		{name: "zone leading zero", topic: "lync/set/zones/03/mute", want: Command{Zone: 3, Field: "mute"}},
		{name: "zone with plus sign", topic: "lync/set/zones/+3/power", wantErr: ErrUnknownTopic},
		{name: "zone with minus sign", topic: "lync/set/zones/-1/power", wantErr: ErrUnknownTopic},
		{name: "zone three digits", topic: "lync/set/zones/100/power", wantErr: ErrUnknownTopic},
		{name: "zone empty", topic: "lync/set/zones//power", wantErr: ErrUnknownTopic},
		{name: "unknown field", topic: "lync/set/zones/1/loudness", wantErr: ErrUnknownTopic},
		{name: "unknown mp3 action", topic: "lync/set/mp3/rewind", wantErr: ErrUnknownTopic},
		{name: "other prefix", topic: "other/set/zones/1/power", wantErr: ErrUnknownTopic},
		{name: "state topic", topic: "lync/zones/1/power", wantErr: ErrUnknownTopic},
		{name: "too deep", topic: "lync/set/zones/1/power/extra", wantErr: ErrUnknownTopic},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCommandTopic("lync", tt.topic)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseCommandTopic() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseBool(t *testing.T) {
	tests := []struct {
		in      string
		want    bool
		wantErr bool
	}{
		{in: "1", want: true},
		{in: "0", want: false},
		{in: " 1\n", want: true},
		{in: "ON", want: true},
		{in: "off", want: false},
		{in: "True", want: true},
		{in: "false", want: false},
		{in: "yes", wantErr: true},
		{in: "", wantErr: true},
		{in: "2", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseBool([]byte(tt.in))
			if tt.wantErr {
				if !errors.Is(err, ErrPayloadParse) {
					t.Errorf("error = %v, want ErrPayloadParse", err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("parseBool(%q) = %v, %v, want %v", tt.in, got, err, tt.want)
			}
		})
	}
}

func TestParseInt(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{in: "30", want: 30},
		{in: "-7", want: -7},
		{in: " 12 ", want: 12},
		{in: "abc", wantErr: true},
		{in: "1.5", wantErr: true},
		{in: "0x10", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseInt([]byte(tt.in))
			if tt.wantErr {
				if !errors.Is(err, ErrPayloadParse) {
					t.Errorf("error = %v, want ErrPayloadParse", err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("parseInt(%q) = %d, %v, want %d", tt.in, got, err, tt.want)
			}
		})
	}
}

func TestIntentFor(t *testing.T) {
	state := mirror.New(nil, nil)
	if err := state.ApplySourceName(4, 2, "Vinyl"); err != nil {
		t.Fatal(err)
	}
	if err := state.ApplySourceName(4, 6, "Vinyl"); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		cmd     Command
		payload string
		want    sequencer.Intent
		wantErr error
	}{
		{name: "power", cmd: Command{Zone: 1, Field: FieldPower}, payload: "1",
			want: sequencer.Intent{Op: sequencer.OpPower, Zone: 1, Flag: true}},
		{name: "mute off", cmd: Command{Zone: 2, Field: FieldMute}, payload: "0",
			want: sequencer.Intent{Op: sequencer.OpMute, Zone: 2}},
		{name: "dnd", cmd: Command{Zone: 2, Field: FieldDND}, payload: "1",
			want: sequencer.Intent{Op: sequencer.OpDND, Zone: 2, Flag: true}},
		{name: "name passes text through", cmd: Command{Zone: 3, Field: FieldName}, payload: " Den ",
			want: sequencer.Intent{Op: sequencer.OpName, Zone: 3, Text: " Den "}},
		{name: "volume", cmd: Command{Zone: 3, Field: FieldVolume}, payload: "42",
			want: sequencer.Intent{Op: sequencer.OpVolume, Zone: 3, Value: 42}},
		{name: "treble", cmd: Command{Zone: 3, Field: FieldTreble}, payload: "-3",
			want: sequencer.Intent{Op: sequencer.OpTreble, Zone: 3, Value: -3}},
		{name: "bass", cmd: Command{Zone: 3, Field: FieldBass}, payload: "3",
			want: sequencer.Intent{Op: sequencer.OpBass, Zone: 3, Value: 3}},
		{name: "balance", cmd: Command{Zone: 3, Field: FieldBalance}, payload: "0",
			want: sequencer.Intent{Op: sequencer.OpBalance, Zone: 3}},
		{name: "source", cmd: Command{Zone: 3, Field: FieldSource}, payload: "14",
			want: sequencer.Intent{Op: sequencer.OpSource, Zone: 3, Value: 14}},
		{name: "source name lowest match", cmd: Command{Zone: 4, Field: FieldSourceName}, payload: "Vinyl",
			want: sequencer.Intent{Op: sequencer.OpSource, Zone: 4, Value: 2}},
		{name: "source name missing", cmd: Command{Zone: 4, Field: FieldSourceName}, payload: "CD Player",
			wantErr: ErrSourceNotFound},
		{name: "source name is case sensitive", cmd: Command{Zone: 4, Field: FieldSourceName}, payload: "vinyl",
			wantErr: ErrSourceNotFound},
		{name: "mp3", cmd: Command{Mp3: lync.Mp3Forward}, payload: "ignored",
			want: sequencer.Intent{Op: sequencer.OpMp3, Mp3: lync.Mp3Forward}},
		{name: "bad volume", cmd: Command{Zone: 1, Field: FieldVolume}, payload: "loud",
			wantErr: ErrPayloadParse},
		{name: "bad power", cmd: Command{Zone: 1, Field: FieldPower}, payload: "maybe",
			wantErr: ErrPayloadParse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := intentFor(tt.cmd, []byte(tt.payload), state)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("intentFor() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
