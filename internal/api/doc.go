// Package api provides the read-only HTTP status server for lync2mqtt.
//
// It exposes the state mirror and the bridge health report as JSON so an
// operator can inspect the bridge without an MQTT client. Control stays on
// MQTT; the only write is a refresh request.
//
//	GET  /api/v1/health
//	GET  /api/v1/zones
//	GET  /api/v1/zones/{zone}
//	GET  /api/v1/system
//	GET  /api/v1/mp3
//	GET  /api/v1/sources
//	POST /api/v1/refresh
//
// The server follows the same lifecycle pattern as other infrastructure components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
package api
