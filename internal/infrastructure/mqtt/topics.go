package mqtt

import (
	"fmt"
	"strconv"
)

// Topics provides builders for the bridge's MQTT topic hierarchy.
// Using these helpers keeps the inbound parser, the outbound publisher and
// the discovery manifests agreeing on topic names.
//
//	topics := mqtt.Topics{Prefix: "lync"}
//	topics.ZoneState(3, "volume")    // "lync/zones/3/volume"
//	topics.ZoneCommand(3, "volume")  // "lync/set/zones/3/volume"
type Topics struct {
	Prefix string
}

// =============================================================================
// State Topics (retained unless noted)
// =============================================================================

// ZoneState returns the state topic for one zone field.
//
// Example: lync/zones/3/volume
func (t Topics) ZoneState(zone int, field string) string {
	return fmt.Sprintf("%s/zones/%d/%s", t.Prefix, zone, field)
}

// ZoneSource returns the (non-retained) per-zone source name topic.
//
// Example: lync/zones/3/sources/2
func (t Topics) ZoneSource(zone, source int) string {
	return fmt.Sprintf("%s/zones/%d/sources/%d", t.Prefix, zone, source)
}

// CatalogSource returns the global source catalog topic for one source.
//
// Example: lync/source/2
func (t Topics) CatalogSource(source int) string {
	return t.Prefix + "/source/" + strconv.Itoa(source)
}

// Mp3State returns the state topic for one mp3 player field.
//
// Example: lync/mp3/artist
func (t Topics) Mp3State(field string) string {
	return fmt.Sprintf("%s/mp3/%s", t.Prefix, field)
}

// SystemState returns the state topic for a controller-wide field.
//
// Example: lync/system/party_mode
func (t Topics) SystemState(field string) string {
	return fmt.Sprintf("%s/system/%s", t.Prefix, field)
}

// Connected returns the non-retained liveness marker topic.
//
// Example: lync/connected/lync
func (t Topics) Connected() string {
	return fmt.Sprintf("%s/connected/%s", t.Prefix, t.Prefix)
}

// Status returns the retained availability topic used for the LWT.
//
// Example: lync/status
func (t Topics) Status() string {
	return t.Prefix + "/status"
}

// Health returns the retained health report topic.
//
// Example: lync/health
func (t Topics) Health() string {
	return t.Prefix + "/health"
}

// =============================================================================
// Command Topics
// =============================================================================

// ZoneCommand returns the command topic for one zone field.
//
// Example: lync/set/zones/3/volume
func (t Topics) ZoneCommand(zone int, field string) string {
	return fmt.Sprintf("%s/set/zones/%d/%s", t.Prefix, zone, field)
}

// Mp3Command returns the command topic for an mp3 transport action.
//
// Example: lync/set/mp3/play
func (t Topics) Mp3Command(action string) string {
	return fmt.Sprintf("%s/set/mp3/%s", t.Prefix, action)
}

// =============================================================================
// Wildcard Patterns for Subscriptions
// =============================================================================

// AllZonesCommand returns a pattern matching one field's commands for every zone.
//
// Pattern: lync/set/zones/+/volume
func (t Topics) AllZonesCommand(field string) string {
	return fmt.Sprintf("%s/set/zones/+/%s", t.Prefix, field)
}

// CommandRoot returns the common prefix of every command topic.
//
// Example: lync/set/
func (t Topics) CommandRoot() string {
	return t.Prefix + "/set/"
}
