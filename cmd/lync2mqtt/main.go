// lync2mqtt bridges an HTD Lync 6/12 whole-home audio controller to MQTT.
//
// It keeps a mirror of the controller's zone state, publishes it as retained
// MQTT topics, turns command topics into serialised controller writes, and
// optionally announces every zone to Home Assistant via MQTT discovery.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}
