// Command mctp-serial-endpoint wires the mctp core to a real UART and runs
// its cooperative poll loop. This binary is a collaborator, not part of the
// core: it owns the platform, decides when to call Update, and dispatches
// control packets as they become available.
package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/go-mctp/mctp-serial/config"
	"github.com/go-mctp/mctp-serial/mctp"
	"github.com/go-mctp/mctp-serial/platform"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file (optional)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logrus.Fatalf("load config: %v", err)
	}

	log := logrus.New()
	if level, lerr := logrus.ParseLevel(cfg.Log.Level); lerr == nil {
		log.SetLevel(level)
	}

	port, err := platform.Open(cfg.Serial.Device, cfg.Serial.BaudRate)
	if err != nil {
		logrus.Fatalf("open %s: %v", cfg.Serial.Device, err)
	}
	defer port.Close()

	opts := []mctp.Option{
		mctp.WithBTU(cfg.Serial.BTU),
		mctp.WithEndpointID(cfg.Serial.EndpointID),
		mctp.WithLogger(log),
	}
	if cfg.Event.Enabled {
		opts = append(opts, mctp.WithEventSlot(cfg.Event.BufSize))
	}
	if cfg.PLDM.Enabled {
		opts = append(opts, mctp.WithPLDM())
	}

	endpoint := mctp.NewEndpoint(port, opts...)
	if err := endpoint.Init(); err != nil {
		logrus.Fatalf("init endpoint: %v", err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	log.WithFields(logrus.Fields{
		"device":      cfg.Serial.Device,
		"baud":        cfg.Serial.BaudRate,
		"endpoint_id": cfg.Serial.EndpointID,
	}).Info("mctp serial endpoint starting")

	for {
		select {
		case <-sigCh:
			log.Info("shutting down")
			return
		default:
		}

		if endpoint.IsEventQueueEmpty() && !endpoint.IsPacketAvailable() && !endpoint.HasTransmitWork() {
			// Nothing queued to transmit, no frame waiting on dispatch, and
			// no response stalled behind an event: yield instead of
			// spinning the CPU until the port has something to read.
			_ = port.Idle(2 * time.Millisecond)
		}

		if err := endpoint.Update(); err != nil {
			log.WithError(err).Warn("platform error")
			continue
		}

		if endpoint.IsPacketAvailable() {
			switch {
			case endpoint.IsControlPacket():
				endpoint.ProcessControlMessage()
			default:
				// Non-control message types (e.g. PLDM) are out of scope
				// for this endpoint's core; drop without responding.
				endpoint.IgnorePacket()
			}
		}
	}
}
