package sequencer

import (
	"context"
	"fmt"
	"sync"

	"github.com/enobrev/htd-lync-mqtt/internal/lync"
)

// Writer sends one command to the controller.
type Writer interface {
	Send(ctx context.Context, cmd lync.Command) error
}

// SourceReader reports a zone's last known source.
type SourceReader interface {
	ActiveSource(zone int) (int, error)
}

// Logger interface for optional logging.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// DefaultLaneQueueSize is the per-lane buffer used when none is configured.
const DefaultLaneQueueSize = 16

// Sequencer turns intents into ordered controller writes.
//
// Writes for one zone never interleave: each zone has a mutex held for the
// whole intent, including the follow-up source write. Different zones
// proceed independently.
type Sequencer struct {
	writer Writer
	state  SourceReader
	logger Logger

	zoneMu [lync.ZoneCount]sync.Mutex

	// lanes[0] carries system-wide intents; lanes[n] carries zone n.
	lanes [lync.ZoneCount + 1]chan Intent
}

// Option configures a Sequencer.
type Option func(*Sequencer)

// WithLaneQueueSize sets how many intents each lane buffers before Submit
// starts refusing.
func WithLaneQueueSize(n int) Option {
	return func(s *Sequencer) {
		if n > 0 {
			for i := range s.lanes {
				s.lanes[i] = make(chan Intent, n)
			}
		}
	}
}

// New creates a sequencer. logger may be nil.
func New(writer Writer, state SourceReader, logger Logger, opts ...Option) *Sequencer {
	s := &Sequencer{
		writer: writer,
		state:  state,
		logger: logger,
	}
	for i := range s.lanes {
		s.lanes[i] = make(chan Intent, DefaultLaneQueueSize)
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// =============================================================================
// Zone intents with source follow-up
// =============================================================================

// SetZonePower switches a zone on or off.
func (s *Sequencer) SetZonePower(ctx context.Context, zone int, on bool) error {
	return s.withFollowUp(ctx, zone, "power", func() (lync.Command, error) {
		return lync.Power(zone, on)
	})
}

// SetZoneMute mutes or unmutes a zone.
func (s *Sequencer) SetZoneMute(ctx context.Context, zone int, on bool) error {
	return s.withFollowUp(ctx, zone, "mute", func() (lync.Command, error) {
		return lync.Mute(zone, on)
	})
}

// SetZoneDND sets a zone's do-not-disturb flag.
func (s *Sequencer) SetZoneDND(ctx context.Context, zone int, on bool) error {
	return s.withFollowUp(ctx, zone, "dnd", func() (lync.Command, error) {
		return lync.DoNotDisturb(zone, on)
	})
}

// SetZoneName renames a zone.
func (s *Sequencer) SetZoneName(ctx context.Context, zone int, name string) error {
	return s.withFollowUp(ctx, zone, "name", func() (lync.Command, error) {
		return lync.SetZoneName(zone, name)
	})
}

// SetZoneVolume sets a zone's volume (0..60).
func (s *Sequencer) SetZoneVolume(ctx context.Context, zone, volume int) error {
	if err := checkRange("volume", volume, lync.MinVolume, lync.MaxVolume); err != nil {
		return err
	}
	return s.withFollowUp(ctx, zone, "volume", func() (lync.Command, error) {
		return lync.Volume(zone, volume)
	})
}

// SetZoneTreble sets a zone's treble (-10..10).
func (s *Sequencer) SetZoneTreble(ctx context.Context, zone, level int) error {
	if err := checkRange("treble", level, lync.MinTone, lync.MaxTone); err != nil {
		return err
	}
	return s.withFollowUp(ctx, zone, "treble", func() (lync.Command, error) {
		return lync.Treble(zone, level)
	})
}

// SetZoneBass sets a zone's bass (-10..10).
func (s *Sequencer) SetZoneBass(ctx context.Context, zone, level int) error {
	if err := checkRange("bass", level, lync.MinTone, lync.MaxTone); err != nil {
		return err
	}
	return s.withFollowUp(ctx, zone, "bass", func() (lync.Command, error) {
		return lync.Bass(zone, level)
	})
}

// SetZoneBalance sets a zone's balance (-10..10).
func (s *Sequencer) SetZoneBalance(ctx context.Context, zone, level int) error {
	if err := checkRange("balance", level, lync.MinTone, lync.MaxTone); err != nil {
		return err
	}
	return s.withFollowUp(ctx, zone, "balance", func() (lync.Command, error) {
		return lync.Balance(zone, level)
	})
}

// withFollowUp writes the primary command, then re-selects the zone's
// active source.
//
// Controller firmware drops the zone's audio routing after some settings
// changes (observed for volume, tone and name writes). Re-sending the
// source the controller last reported restores it. The source is read
// only after the primary write succeeds so it reflects any status that
// arrived in between.
func (s *Sequencer) withFollowUp(ctx context.Context, zone int, op string, build func() (lync.Command, error)) error {
	if err := checkZone(zone); err != nil {
		return err
	}
	cmd, err := build()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrOutOfRange, err)
	}

	mu := &s.zoneMu[zone-1]
	mu.Lock()
	defer mu.Unlock()

	if err := s.writer.Send(ctx, cmd); err != nil {
		return s.writeFailed(op, zone, err)
	}

	source, err := s.state.ActiveSource(zone)
	if err != nil {
		return fmt.Errorf("%w: %s zone %d: read active source: %w", ErrWriteFailed, op, zone, err)
	}
	follow, err := lync.Source(zone, source)
	if err != nil {
		return fmt.Errorf("%w: %s zone %d: active source %d: %w", ErrWriteFailed, op, zone, source, err)
	}
	if err := s.writer.Send(ctx, follow); err != nil {
		return s.writeFailed(op+" source follow-up", zone, err)
	}

	s.logDebug("zone intent applied", "op", op, "zone", zone, "source", source)
	return nil
}

// =============================================================================
// Single-write intents
// =============================================================================

// SetZoneSource routes a source to a zone. The mirror is not touched; it
// learns the new source from the controller's status echo.
func (s *Sequencer) SetZoneSource(ctx context.Context, zone, source int) error {
	if err := checkZone(zone); err != nil {
		return err
	}
	cmd, err := lync.Source(zone, source)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrOutOfRange, err)
	}

	mu := &s.zoneMu[zone-1]
	mu.Lock()
	defer mu.Unlock()

	if err := s.writer.Send(ctx, cmd); err != nil {
		return s.writeFailed("source", zone, err)
	}
	return nil
}

// SetZoneSourceName sets the label a zone shows for one source. A failed
// write is logged and returned; it is never retried.
func (s *Sequencer) SetZoneSourceName(ctx context.Context, zone, source int, name string) error {
	if err := checkZone(zone); err != nil {
		return err
	}
	cmd, err := lync.SetSourceName(zone, source, name)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrOutOfRange, err)
	}

	mu := &s.zoneMu[zone-1]
	mu.Lock()
	defer mu.Unlock()

	return s.fireAndForget(ctx, cmd, zone)
}

// SetPartyMode routes one source to every zone.
func (s *Sequencer) SetPartyMode(ctx context.Context, source int) error {
	cmd, err := lync.PartyMode(source)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrOutOfRange, err)
	}
	return s.fireAndForget(ctx, cmd, 0)
}

// Mp3Stop presses the mp3 player's stop button.
func (s *Sequencer) Mp3Stop(ctx context.Context) error {
	return s.mp3(ctx, lync.Mp3Stop)
}

// Mp3Play presses the mp3 player's play button.
func (s *Sequencer) Mp3Play(ctx context.Context) error {
	return s.mp3(ctx, lync.Mp3Play)
}

// Mp3Forward skips to the next track.
func (s *Sequencer) Mp3Forward(ctx context.Context) error {
	return s.mp3(ctx, lync.Mp3Forward)
}

// Mp3Back returns to the previous track.
func (s *Sequencer) Mp3Back(ctx context.Context) error {
	return s.mp3(ctx, lync.Mp3Back)
}

func (s *Sequencer) mp3(ctx context.Context, action lync.Mp3Action) error {
	cmd, err := lync.Mp3(action)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrOutOfRange, err)
	}
	return s.fireAndForget(ctx, cmd, 0)
}

// RequestRefresh enables status echo and asks the controller for a full
// status dump. Issued after every (re)connect.
func (s *Sequencer) RequestRefresh(ctx context.Context) error {
	if err := s.writer.Send(ctx, lync.EchoMode(true)); err != nil {
		return s.writeFailed("echo_mode", 0, err)
	}
	if err := s.writer.Send(ctx, lync.QueryAll()); err != nil {
		return s.writeFailed("query_all", 0, err)
	}
	return nil
}

func (s *Sequencer) fireAndForget(ctx context.Context, cmd lync.Command, zone int) error {
	if err := s.writer.Send(ctx, cmd); err != nil {
		err = s.writeFailed(cmd.Op, zone, err)
		s.logWarn("command dropped", "op", cmd.Op, "zone", zone, "error", err)
		return err
	}
	return nil
}

func (s *Sequencer) writeFailed(op string, zone int, err error) error {
	if zone == 0 {
		return fmt.Errorf("%w: %s: %w", ErrWriteFailed, op, err)
	}
	return fmt.Errorf("%w: %s zone %d: %w", ErrWriteFailed, op, zone, err)
}

func checkZone(zone int) error {
	if zone < 1 || zone > lync.ZoneCount {
		return fmt.Errorf("%w: %d", ErrUnknownZone, zone)
	}
	return nil
}

func checkRange(name string, v, lo, hi int) error {
	if v < lo || v > hi {
		return fmt.Errorf("%w: %s %d outside %d..%d", ErrOutOfRange, name, v, lo, hi)
	}
	return nil
}

func (s *Sequencer) logDebug(msg string, keysAndValues ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, keysAndValues...)
	}
}

func (s *Sequencer) logInfo(msg string, keysAndValues ...any) {
	if s.logger != nil {
		s.logger.Info(msg, keysAndValues...)
	}
}

func (s *Sequencer) logWarn(msg string, keysAndValues ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, keysAndValues...)
	}
}

func (s *Sequencer) logError(msg string, keysAndValues ...any) {
	if s.logger != nil {
		s.logger.Error(msg, keysAndValues...)
	}
}
