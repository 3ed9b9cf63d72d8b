// Package lync talks to an HTD Lync 6/12 whole-house audio controller over
// its TCP gateway.
//
// The package has three layers:
//
//   - protocol.go builds command frames (power, volume, source, names, mp3)
//   - decoder.go splits the controller's byte stream into typed Events
//   - client.go keeps the TCP link up and serialises writes
//
// # Wire Format
//
// Both directions use the same frame:
//
//	0x02 0x00 <zone> <code> <data...> <checksum>
//
// The checksum is the sum of all preceding bytes modulo 256. Response data
// lengths are fixed per code, so the decoder needs no length field and can
// resynchronise on the next 0x02 0x00 header after a bad frame.
//
// # Usage
//
//	client := lync.NewClient(lync.Config{Address: "10.0.0.25:10006"})
//	go client.Run(ctx)
//
//	for ev := range client.Events() {
//	    switch ev := ev.(type) {
//	    case lync.Connected:
//	        client.Send(ctx, lync.EchoMode(true))
//	        client.Send(ctx, lync.QueryAll())
//	    case lync.ZoneStatus:
//	        fmt.Println(ev.Zone, ev.Volume)
//	    }
//	}
package lync
