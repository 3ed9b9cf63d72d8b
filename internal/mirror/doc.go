// Package mirror holds the bridge's in-memory view of the audio controller.
//
// A Mirror owns exactly twelve zone records plus the system flags, the mp3
// player state, the controller identity and the global source catalog. It
// is fed by controller notifications (Apply*) and reports every mutation to
// a ChangeSink as a typed Change value. Readers get copies; nothing outside
// the package can alias the mirror's maps.
//
// Notifications are partial: a ZonePatch only changes the fields it sets.
// ActiveSource always reflects the last source the controller reported.
package mirror
