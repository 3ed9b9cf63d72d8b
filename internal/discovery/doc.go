// Package discovery publishes Home Assistant MQTT discovery manifests so
// each zone and the mp3 player appear as devices with ready-made entities.
//
// Every zone gets power, mute and do-not-disturb switches, volume and tone
// numbers, a zone name sensor and a source select. The select's options
// start empty and are filled from the zone's source names as the
// controller reports them. All manifests are retained.
//
// Topics follow the Home Assistant layout:
//
//	homeassistant/<kind>/htd_lync_zone_<n>/<control>/config
//	homeassistant/<kind>/htd_lync_mp3/<control>/config
package discovery
