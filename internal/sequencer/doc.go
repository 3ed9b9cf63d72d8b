// Package sequencer turns user intents into ordered controller writes.
//
// Most zone settings are sent as two frames: the setting itself, then a
// re-selection of the zone's current source (see withFollowUp). Both frames
// are written under a per-zone mutex so intents for one zone never
// interleave.
//
// Intents can be executed directly (SetZoneVolume and friends) or queued
// with Submit. Queued intents run on one lane per zone plus a system lane
// for party mode, mp3 transport and refresh. Run starts the lanes:
//
//	seq := sequencer.New(client, mirror, logger)
//	g.Go(func() error { return seq.Run(ctx) })
//	seq.Submit(sequencer.Intent{Op: sequencer.OpVolume, Zone: 3, Value: 30})
package sequencer
