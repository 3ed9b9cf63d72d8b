package mirror

// Change is a mirror mutation. The concrete types form a closed set.
type Change interface {
	isChange()
}

// ZoneChanged carries a full snapshot of the zone after the mutation.
type ZoneChanged struct {
	Zone ZoneState
}

// SourceCatalogChanged reports a new or renamed global catalog entry.
type SourceCatalogChanged struct {
	Source int
	Name   string
}

// SystemChanged carries the new system flags.
type SystemChanged struct {
	System SystemState
}

// Mp3Changed carries the mp3 player state after the mutation.
type Mp3Changed struct {
	Mp3 Mp3State
}

// IdentityChanged reports the controller identity, once.
type IdentityChanged struct {
	Identity Identity
}

func (ZoneChanged) isChange()          {}
func (SourceCatalogChanged) isChange() {}
func (SystemChanged) isChange()        {}
func (Mp3Changed) isChange()           {}
func (IdentityChanged) isChange()      {}

// ChangeSink receives mirror changes. It is called synchronously, after the
// mirror's lock has been released, in the order mutations were applied.
type ChangeSink interface {
	MirrorChanged(Change)
}

// SinkFunc adapts a function to ChangeSink.
type SinkFunc func(Change)

// MirrorChanged calls f(c).
func (f SinkFunc) MirrorChanged(c Change) { f(c) }
