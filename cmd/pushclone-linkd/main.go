// Command pushclone-linkd is the host-side daemon for a bit-packed
// control-surface protocol: it owns the serial port, frames the byte
// stream, drives the connection handshake, and dispatches decoded frames
// into the in-memory shadow of the device's visible 8x4 window.
package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"

	"github.com/jdavidguerrero/pushclone-linkd/internal/bus"
	"github.com/jdavidguerrero/pushclone-linkd/internal/config"
	"github.com/jdavidguerrero/pushclone-linkd/internal/dispatch"
	"github.com/jdavidguerrero/pushclone-linkd/internal/linkfsm"
	"github.com/jdavidguerrero/pushclone-linkd/internal/port"
	"github.com/jdavidguerrero/pushclone-linkd/internal/wire"
)

// meterTickInterval is the cadence at which mixer meters decay toward
// silence between incoming MixerMeter frames.
const meterTickInterval = 33 * time.Millisecond

func main() {
	cfg, err := config.Parse(os.Args[1:])
	if err != nil {
		if !errors.Is(err, pflag.ErrHelp) {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
		return
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Level:           log.InfoLevel,
	})
	if cfg.Verbose {
		logger.SetLevel(log.DebugLevel)
	}

	if err := run(cfg, logger); err != nil {
		logger.Fatal("exiting", "err", err)
	}
}

func run(cfg config.Config, logger *log.Logger) error {
	b := bus.New()
	b.OnAny(func(c bus.Change) {
		logger.Debug("shadow change", "model", c.Model, "row", c.Row, "fields", c.Fields, "bulk", c.Bulk)
	})

	framer := wire.NewFramer(func(msg string, args ...any) {
		logger.Warn(msg, args...)
	})

	var p *port.Port

	fsm := linkfsm.New(linkfsm.Callbacks{
		Open: func() error {
			opened, err := port.Open(cfg.Device, cfg.Baud)
			if err != nil {
				return err
			}
			p = opened
			return nil
		},
		Close: func() {
			if p != nil {
				p.Close()
			}
		},
		Send: func(cmd byte, payload []byte) {
			if p == nil {
				return
			}
			frame, err := wire.EncodeFrame(cmd, payload)
			if err != nil {
				logger.Error("encode outgoing frame", "cmd", cmd, "err", err)
				return
			}
			if _, err := p.Write(frame); err != nil {
				logger.Error("write outgoing frame", "cmd", cmd, "err", err)
			}
		},
		OnStateChange: func(s linkfsm.State) {
			logger.Info("connection state", "state", s.String())
		},
	})

	d := dispatch.New(b, fsm, logger)

	fsm.Start()

	ticker := time.NewTicker(meterTickInterval)
	defer ticker.Stop()

	pollTicker := time.NewTicker(5 * time.Millisecond)
	defer pollTicker.Stop()

	lastTick := time.Now()
	for {
		select {
		case now := <-ticker.C:
			d.Mixer.DecayMeters(now.Sub(lastTick))
			lastTick = now
		case <-pollTicker.C:
			if p == nil {
				continue
			}
			if chunk := p.PollRead(); chunk != nil {
				for _, fr := range framer.Feed(chunk) {
					d.Dispatch(fr.Cmd, fr.Payload)
				}
			}
			select {
			case err := <-p.Errors():
				logger.Error("port error", "err", err)
				fsm.PortError(err)
				p = nil
			default:
			}
		case <-d.Reaper.Ready():
			d.Reaper.Fire()
		case i := <-d.Scenes.Ready():
			d.Scenes.Fire(i)
		case <-fsm.ReconnectReady():
			fsm.Reconnect()
		}
	}
}
