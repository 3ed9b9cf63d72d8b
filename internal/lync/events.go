package lync

// Event is a notification from the controller connection. The concrete
// types below form a closed set; consumers switch on them.
type Event interface {
	isEvent()
}

// Connected reports that the TCP link to the controller is up.
type Connected struct {
	Address string
}

// ConnectionError reports a failed dial or a dropped link. The client
// keeps retrying on its own.
type ConnectionError struct {
	Err error
}

// SystemFlags carries the controller-wide status byte.
type SystemFlags struct {
	AllOn     bool
	AllOff    bool
	PartyMode bool
}

// ZoneStatus carries one zone's complete status block.
type ZoneStatus struct {
	Zone         int
	Power        bool
	Mute         bool
	DoNotDisturb bool
	Source       int
	Volume       int
	Treble       int
	Bass         int
	Balance      int
}

// Identity carries the controller's identification string.
type Identity struct {
	ID string
}

// SourceName carries one zone's label for one source.
type SourceName struct {
	Zone   int
	Source int
	Name   string
}

// ZoneName carries a zone's label.
type ZoneName struct {
	Zone int
	Name string
}

// Mp3Repeat carries the mp3 player's repeat flag.
type Mp3Repeat struct {
	Repeat bool
}

// Mp3Artist carries the current track's artist.
type Mp3Artist struct {
	Artist string
}

// Mp3File carries the current track's file name.
type Mp3File struct {
	File string
}

func (Connected) isEvent()       {}
func (ConnectionError) isEvent() {}
func (SystemFlags) isEvent()     {}
func (ZoneStatus) isEvent()      {}
func (Identity) isEvent()        {}
func (SourceName) isEvent()      {}
func (ZoneName) isEvent()        {}
func (Mp3Repeat) isEvent()       {}
func (Mp3Artist) isEvent()       {}
func (Mp3File) isEvent()         {}
