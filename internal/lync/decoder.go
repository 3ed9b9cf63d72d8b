package lync

import (
	"bufio"
	"fmt"
	"io"
)

// Controller to host response codes.
const (
	respZoneStatus byte = 0x05
	respSystem     byte = 0x06
	respZoneName   byte = 0x0D
	respSourceName byte = 0x0E
	respIdentity   byte = 0x11
	respMp3File    byte = 0x12
	respMp3Artist  byte = 0x13
	respMp3Repeat  byte = 0x14
)

// responseDataLen is the fixed data length of each response, excluding
// header and checksum.
var responseDataLen = map[byte]int{
	respZoneStatus: 9,
	respSystem:     1,
	respZoneName:   maxNameLen + 1,
	respSourceName: maxNameLen + 2,
	respIdentity:   16,
	respMp3File:    64,
	respMp3Artist:  64,
	respMp3Repeat:  1,
}

// Status flag bits.
const (
	flagPower        byte = 1 << 0
	flagMute         byte = 1 << 1
	flagDoNotDisturb byte = 1 << 2

	flagAllOn     byte = 1 << 0
	flagAllOff    byte = 1 << 1
	flagPartyMode byte = 1 << 2
)

// Decoder splits a controller byte stream into events.
//
// Errors wrapping ErrInvalidFrame are recoverable: the offending frame is
// skipped and the next call resumes at the following header. Any other
// error comes from the underlying reader and ends the stream.
type Decoder struct {
	r *bufio.Reader
}

// NewDecoder returns a Decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: bufio.NewReader(r)}
}

// Next returns the next decoded event.
func (d *Decoder) Next() (Event, error) {
	if err := d.syncHeader(); err != nil {
		return nil, err
	}

	var hdr [2]byte
	if _, err := io.ReadFull(d.r, hdr[:]); err != nil {
		return nil, err
	}
	zone, code := hdr[0], hdr[1]

	n, ok := responseDataLen[code]
	if !ok {
		return nil, fmt.Errorf("%w: unknown response code 0x%02X", ErrInvalidFrame, code)
	}

	body := make([]byte, n+1)
	if _, err := io.ReadFull(d.r, body); err != nil {
		return nil, err
	}
	data, sum := body[:n], body[n]

	if want := checksum([]byte{frameStart, frameReserved, zone, code}, data); sum != want {
		return nil, fmt.Errorf("%w: %w: code 0x%02X got 0x%02X want 0x%02X", ErrInvalidFrame, ErrChecksum, code, sum, want)
	}

	return parseResponse(int(zone), code, data)
}

// syncHeader discards bytes until the two-byte frame header has been consumed.
func (d *Decoder) syncHeader() error {
	for {
		b, err := d.r.ReadByte()
		if err != nil {
			return err
		}
		if b != frameStart {
			continue
		}
		next, err := d.r.Peek(1)
		if err != nil {
			return err
		}
		if next[0] != frameReserved {
			continue
		}
		_, _ = d.r.ReadByte()
		return nil
	}
}

// parseResponse turns a checked frame into a typed event.
func parseResponse(zone int, code byte, data []byte) (Event, error) {
	switch code {
	case respZoneStatus:
		if zone < 1 || zone > ZoneCount {
			return nil, fmt.Errorf("%w: zone status for zone %d", ErrInvalidFrame, zone)
		}
		flags := data[0]
		return ZoneStatus{
			Zone:         zone,
			Power:        flags&flagPower != 0,
			Mute:         flags&flagMute != 0,
			DoNotDisturb: flags&flagDoNotDisturb != 0,
			Source:       int(data[4]) + 1,
			Volume:       int(data[5]),
			Treble:       int(int8(data[6])),
			Bass:         int(int8(data[7])),
			Balance:      int(int8(data[8])),
		}, nil

	case respSystem:
		flags := data[0]
		return SystemFlags{
			AllOn:     flags&flagAllOn != 0,
			AllOff:    flags&flagAllOff != 0,
			PartyMode: flags&flagPartyMode != 0,
		}, nil

	case respZoneName:
		return ZoneName{Zone: zone, Name: decodeName(data)}, nil

	case respSourceName:
		return SourceName{
			Zone:   zone,
			Source: int(data[maxNameLen+1]) + 1,
			Name:   decodeName(data[:maxNameLen+1]),
		}, nil

	case respIdentity:
		return Identity{ID: decodeName(data)}, nil

	case respMp3File:
		return Mp3File{File: decodeName(data)}, nil

	case respMp3Artist:
		return Mp3Artist{Artist: decodeName(data)}, nil

	case respMp3Repeat:
		return Mp3Repeat{Repeat: data[0] != 0}, nil
	}

	return nil, fmt.Errorf("%w: unhandled response code 0x%02X", ErrInvalidFrame, code)
}
