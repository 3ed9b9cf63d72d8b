package lync

import (
	"bytes"
	"errors"
	"testing"
)

func TestCommandEncode(t *testing.T) {
	tests := []struct {
		name string
		cmd  func() (Command, error)
		want []byte
	}{
		{
			name: "power on zone 1",
			cmd:  func() (Command, error) { return Power(1, true) },
			want: []byte{0x02, 0x00, 0x01, 0x04, 0x57, 0x5E},
		},
		{
			name: "power off zone 12",
			cmd:  func() (Command, error) { return Power(12, false) },
			want: []byte{0x02, 0x00, 0x0C, 0x04, 0x58, 0x6A},
		},
		{
			name: "mute on zone 2",
			cmd:  func() (Command, error) { return Mute(2, true) },
			want: []byte{0x02, 0x00, 0x02, 0x04, 0x1E, 0x26},
		},
		{
			name: "dnd off zone 3",
			cmd:  func() (Command, error) { return DoNotDisturb(3, false) },
			want: []byte{0x02, 0x00, 0x03, 0x04, 0x5A, 0x63},
		},
		{
			name: "volume 30 zone 4",
			cmd:  func() (Command, error) { return Volume(4, 30) },
			want: []byte{0x02, 0x00, 0x04, 0x15, 0x1E, 0x39},
		},
		{
			name: "treble -2 zone 1",
			cmd:  func() (Command, error) { return Treble(1, -2) },
			want: []byte{0x02, 0x00, 0x01, 0x17, 0xFE, 0x18},
		},
		{
			name: "bass 5 zone 1",
			cmd:  func() (Command, error) { return Bass(1, 5) },
			want: []byte{0x02, 0x00, 0x01, 0x18, 0x05, 0x20},
		},
		{
			name: "balance 0 zone 1",
			cmd:  func() (Command, error) { return Balance(1, 0) },
			want: []byte{0x02, 0x00, 0x01, 0x16, 0x00, 0x19},
		},
		{
			name: "source 1 zone 1",
			cmd:  func() (Command, error) { return Source(1, 1) },
			want: []byte{0x02, 0x00, 0x01, 0x04, 0x10, 0x17},
		},
		{
			name: "source 12 zone 1",
			cmd:  func() (Command, error) { return Source(1, 12) },
			want: []byte{0x02, 0x00, 0x01, 0x04, 0x1B, 0x22},
		},
		{
			name: "source 13 uses extended range",
			cmd:  func() (Command, error) { return Source(1, 13) },
			want: []byte{0x02, 0x00, 0x01, 0x04, 0x63, 0x6A},
		},
		{
			name: "source 18",
			cmd:  func() (Command, error) { return Source(1, 18) },
			want: []byte{0x02, 0x00, 0x01, 0x04, 0x68, 0x6F},
		},
		{
			name: "party mode source 3",
			cmd:  func() (Command, error) { return PartyMode(3) },
			want: []byte{0x02, 0x00, 0x00, 0x04, 0x38, 0x3E},
		},
		{
			name: "mp3 play",
			cmd:  func() (Command, error) { return Mp3(Mp3Play) },
			want: []byte{0x02, 0x00, 0x00, 0x04, 0x0B, 0x11},
		},
		{
			name: "echo on",
			cmd:  func() (Command, error) { return EchoMode(true), nil },
			want: []byte{0x02, 0x00, 0x00, 0x19, 0xFF, 0x1A},
		},
		{
			name: "query all",
			cmd:  func() (Command, error) { return QueryAll(), nil },
			want: []byte{0x02, 0x00, 0x00, 0x0C, 0x00, 0x0E},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := tt.cmd()
			if err != nil {
				t.Fatalf("build error = %v", err)
			}
			got := cmd.Encode()
			if !bytes.Equal(got, tt.want) {
				t.Errorf("Encode() = % X, want % X", got, tt.want)
			}
		})
	}
}

func TestCommandBuilders_Validation(t *testing.T) {
	tests := []struct {
		name string
		call func() (Command, error)
	}{
		{"zone 0", func() (Command, error) { return Power(0, true) }},
		{"zone 13", func() (Command, error) { return Mute(13, true) }},
		{"volume negative", func() (Command, error) { return Volume(1, -1) }},
		{"volume 61", func() (Command, error) { return Volume(1, 61) }},
		{"treble 11", func() (Command, error) { return Treble(1, 11) }},
		{"bass -11", func() (Command, error) { return Bass(1, -11) }},
		{"balance bad zone", func() (Command, error) { return Balance(0, 0) }},
		{"source 0", func() (Command, error) { return Source(1, 0) }},
		{"source 19", func() (Command, error) { return Source(1, 19) }},
		{"party source 19", func() (Command, error) { return PartyMode(19) }},
		{"source name bad source", func() (Command, error) { return SetSourceName(1, 0, "x") }},
		{"zone name bad zone", func() (Command, error) { return SetZoneName(0, "x") }},
		{"mp3 unknown", func() (Command, error) { return Mp3("rewind") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.call()
			if !errors.Is(err, ErrInvalidValue) {
				t.Errorf("error = %v, want ErrInvalidValue", err)
			}
		})
	}
}

func TestSetSourceName_Layout(t *testing.T) {
	cmd, err := SetSourceName(2, 5, "Kitchen TV")
	if err != nil {
		t.Fatalf("SetSourceName() error = %v", err)
	}
	if cmd.Code != cmdSourceName || cmd.Zone != 2 {
		t.Errorf("header = zone %d code 0x%02X", cmd.Zone, cmd.Code)
	}
	if len(cmd.Data) != maxNameLen+2 {
		t.Fatalf("len(Data) = %d, want %d", len(cmd.Data), maxNameLen+2)
	}
	if got := decodeName(cmd.Data[:maxNameLen+1]); got != "Kitchen TV" {
		t.Errorf("name = %q", got)
	}
	if cmd.Data[maxNameLen+1] != 4 {
		t.Errorf("source index = %d, want 4 (zero-based)", cmd.Data[maxNameLen+1])
	}
}

func TestEncodeName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"short", "Den", "Den"},
		{"exact", "Living Room", "Living Room"},
		{"truncated", "Master Bedroom", "Master Bedr"},
		{"multibyte not split", "Caféééééé", "Caféééé"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enc := encodeName(tt.in)
			if len(enc) != maxNameLen+1 {
				t.Fatalf("len = %d, want %d", len(enc), maxNameLen+1)
			}
			if enc[maxNameLen] != 0 {
				t.Error("field is not NUL terminated")
			}
			if got := decodeName(enc); got != tt.want {
				t.Errorf("round trip = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDecodeName(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want string
	}{
		{"nul terminated", []byte("Patio\x00junk"), "Patio"},
		{"space padded", []byte("Den   \x00\x00"), "Den"},
		{"no terminator", []byte("Office"), "Office"},
		{"invalid utf8 dropped", []byte{'A', 0xFF, 'B', 0}, "AB"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := decodeName(tt.in); got != tt.want {
				t.Errorf("decodeName() = %q, want %q", got, tt.want)
			}
		})
	}
}
