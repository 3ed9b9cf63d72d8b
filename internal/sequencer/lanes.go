package sequencer

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/enobrev/htd-lync-mqtt/internal/lync"
)

// Op identifies what an Intent does.
type Op int

// Intent operations.
const (
	OpPower Op = iota + 1
	OpMute
	OpDND
	OpName
	OpSource
	OpSourceName
	OpVolume
	OpTreble
	OpBass
	OpBalance
	OpPartyMode
	OpMp3
	OpRefresh
)

var opNames = map[Op]string{
	OpPower:      "power",
	OpMute:       "mute",
	OpDND:        "dnd",
	OpName:       "name",
	OpSource:     "source",
	OpSourceName: "source_name",
	OpVolume:     "volume",
	OpTreble:     "treble",
	OpBass:       "bass",
	OpBalance:    "balance",
	OpPartyMode:  "party_mode",
	OpMp3:        "mp3",
	OpRefresh:    "refresh",
}

// String implements fmt.Stringer.
func (o Op) String() string {
	if name, ok := opNames[o]; ok {
		return name
	}
	return fmt.Sprintf("op(%d)", int(o))
}

// zoneScoped reports whether the op targets a single zone.
func (o Op) zoneScoped() bool {
	switch o {
	case OpPartyMode, OpMp3, OpRefresh:
		return false
	}
	return true
}

// Intent is a queued request for the sequencer. Which fields matter
// depends on Op:
//
//	OpPower, OpMute, OpDND           Zone, Flag
//	OpName                           Zone, Text
//	OpSource                         Zone, Value (source number)
//	OpSourceName                     Zone, Value (source number), Text
//	OpVolume, OpTreble, OpBass,
//	OpBalance                        Zone, Value
//	OpPartyMode                      Value (source number)
//	OpMp3                            Mp3
//	OpRefresh                        none
type Intent struct {
	// ID correlates log lines. Submit assigns one when empty.
	ID string

	Op    Op
	Zone  int
	Flag  bool
	Value int
	Text  string
	Mp3   lync.Mp3Action
}

// Submit queues an intent on its lane and returns its ID. It never waits:
// a full lane yields ErrQueueFull and the intent is dropped.
func (s *Sequencer) Submit(in Intent) (string, error) {
	lane := 0
	if in.Op.zoneScoped() {
		if err := checkZone(in.Zone); err != nil {
			return "", err
		}
		lane = in.Zone
	}
	if in.ID == "" {
		in.ID = uuid.NewString()
	}

	select {
	case s.lanes[lane] <- in:
		s.logDebug("intent queued", "intent_id", in.ID, "op", in.Op.String(), "zone", in.Zone)
		return in.ID, nil
	default:
		s.logWarn("intent dropped, lane full", "intent_id", in.ID, "op", in.Op.String(), "zone", in.Zone)
		return in.ID, fmt.Errorf("%w: lane %d", ErrQueueFull, lane)
	}
}

// Run drains every lane until ctx is cancelled. Each lane runs on its own
// goroutine and executes its intents in submission order.
func (s *Sequencer) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for i := range s.lanes {
		lane := s.lanes[i]
		g.Go(func() error {
			s.drain(ctx, lane)
			return nil
		})
	}
	s.logInfo("sequencer lanes started", "lanes", len(s.lanes))
	return g.Wait()
}

func (s *Sequencer) drain(ctx context.Context, lane <-chan Intent) {
	for {
		select {
		case <-ctx.Done():
			return
		case in := <-lane:
			start := time.Now()
			if err := s.Execute(ctx, in); err != nil {
				s.logError("intent failed",
					"intent_id", in.ID,
					"op", in.Op.String(),
					"zone", in.Zone,
					"error", err,
				)
				continue
			}
			s.logDebug("intent done",
				"intent_id", in.ID,
				"op", in.Op.String(),
				"zone", in.Zone,
				"duration_ms", time.Since(start).Milliseconds(),
			)
		}
	}
}

// Execute performs an intent synchronously on the caller's goroutine.
func (s *Sequencer) Execute(ctx context.Context, in Intent) error {
	switch in.Op {
	case OpPower:
		return s.SetZonePower(ctx, in.Zone, in.Flag)
	case OpMute:
		return s.SetZoneMute(ctx, in.Zone, in.Flag)
	case OpDND:
		return s.SetZoneDND(ctx, in.Zone, in.Flag)
	case OpName:
		return s.SetZoneName(ctx, in.Zone, in.Text)
	case OpSource:
		return s.SetZoneSource(ctx, in.Zone, in.Value)
	case OpSourceName:
		return s.SetZoneSourceName(ctx, in.Zone, in.Value, in.Text)
	case OpVolume:
		return s.SetZoneVolume(ctx, in.Zone, in.Value)
	case OpTreble:
		return s.SetZoneTreble(ctx, in.Zone, in.Value)
	case OpBass:
		return s.SetZoneBass(ctx, in.Zone, in.Value)
	case OpBalance:
		return s.SetZoneBalance(ctx, in.Zone, in.Value)
	case OpPartyMode:
		return s.SetPartyMode(ctx, in.Value)
	case OpMp3:
		return s.mp3(ctx, in.Mp3)
	case OpRefresh:
		return s.RequestRefresh(ctx)
	}
	return fmt.Errorf("%w: unknown op %s", ErrOutOfRange, in.Op)
}
