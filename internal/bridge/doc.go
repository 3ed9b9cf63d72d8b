// Package bridge connects the HTD Lync controller to MQTT.
//
// Inbound, it subscribes to the command topics
//
//	{prefix}/set/zones/{1-12}/{name|power|mute|dnd|source|source_name|volume|treble|bass|balance}
//	{prefix}/set/mp3/{stop|play|forward|back}
//
// parses topic and payload, and queues a sequencer intent. Outbound, it
// applies controller events to the state mirror and publishes each change
// as retained state under {prefix}/zones, {prefix}/mp3, {prefix}/source and
// {prefix}/system. Booleans are "1" or "0".
//
// All controller events and broker connect notifications are handled on a
// single dispatcher goroutine, so mirror updates and the publishes they
// cause are strictly ordered.
package bridge
