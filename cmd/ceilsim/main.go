// ceilsim emulates a ceiling-sensor field unit on a serial line or a TCP
// bench socket.
//
// The emulator answers the classic maintenance-terminal command set ('!'
// start, '?' stop, '&' identify, 'A'..'Z' poll, '*X' query) and, in
// continuous mode, streams framed data lines at a fixed interval. Data
// lines come from a file cycled end over end, or from a built-in sample
// set.
//
// Configuration merges three layers: built-in defaults, a TOML profile
// (-profile), and command-line flags, the later overriding the earlier.
//
//	ceilsim -listen :5000 -site K -checksum crc16
//	ceilsim -profile ct25k.toml -data soundings.txt
//	ceilsim -transport serial -device /dev/ttyUSB0 -baud 2400
//
// The process exits 0 on operator shutdown (SIGINT/SIGTERM/SIGHUP, or
// "quit" on stdin) and on peer disconnect, 1 when the transport cannot be
// opened.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/wxline/ceilsim/checksum"
	"github.com/wxline/ceilsim/engine"
	"github.com/wxline/ceilsim/feed"
	"github.com/wxline/ceilsim/internal/profile"
	"github.com/wxline/ceilsim/logger"
	"github.com/wxline/ceilsim/transport"
)

var log logger.Logger

// builtinLines seed the data source when no data file is given.
var builtinLines = []string{
	"00 01230 105 +23 FF",
	"00 01540 098 +22 FF",
	"00 02110 087 +21 FE",
	"30 ///// 042 +19 FD",
}

func main() {
	os.Exit(run())
}

func run() int {
	profilePath := flag.String("profile", "", "TOML device profile path")
	flag.String("transport", "", "transport kind: serial or tcp")
	flag.String("device", "", "serial device path")
	flag.Int("baud", 0, "serial baud rate")
	flag.String("listen", "", "TCP bind address")
	flag.String("site", "", "site identifier letter, A to Z")
	flag.String("checksum", "", "checksum algorithm: xor, sum8, crc16, crc16-rolling, xor-masked")
	flag.Duration("interval", 0, "continuous transmission interval")
	flag.String("data", "", "data line file, cycled end over end")
	flag.String("log-level", "", "log level: debug, info, warn, error")
	flag.Parse()

	log = logger.NewSlog(logger.InfoLevel, false)

	p := profile.Default()

	if *profilePath != "" {
		loaded, err := profile.Load(*profilePath)
		if err != nil {
			log.Error("failed to load profile", "path", *profilePath, "error", err)
			return 1
		}
		p = loaded
	}

	if err := applyFlags(&p); err != nil {
		log.Error("bad command line", "error", err)
		return 1
	}

	log.SetLevel(p.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	exitSig := make(chan os.Signal, 1)
	signal.Notify(exitSig, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM)

	stop := make(chan struct{})
	go func() {
		sig := <-exitSig
		log.Info("exit signal received", "signal", sig.String())
		cancel()
		close(stop)
	}()

	tr, err := openTransport(ctx, p)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			log.Info("startup interrupted")
			return 0
		}

		log.Error("failed to open transport", "error", err)

		return 1
	}

	src, closeFeed, err := openFeed(p)
	if err != nil {
		log.Error("failed to open data source", "error", err)
		_ = tr.Close()

		return 1
	}
	defer closeFeed()

	cfg, err := engine.NewConfig(
		engine.WithSiteID(p.SiteID),
		engine.WithAlgorithm(p.Checksum),
		engine.WithFraming(p.Framing),
		engine.WithInterval(p.Interval),
		engine.WithLogger(log),
	)
	if err != nil {
		log.Error("failed to build engine config", "error", err)
		_ = tr.Close()

		return 1
	}

	eng, err := engine.New(ctx, cfg, tr, src)
	if err != nil {
		log.Error("failed to create engine", "error", err)
		_ = tr.Close()

		return 1
	}

	if err := eng.Run(); err != nil {
		log.Error("failed to run engine", "error", err)
		_ = eng.Close()

		return 1
	}

	done := make(chan struct{})
	go func() {
		eng.Wait()
		close(done)
	}()

	select {
	case <-stop:
	case <-watchStdin():
		log.Info("quit requested on stdin")
	case <-done:
		log.Info("engine terminated")
	}

	_ = eng.Close()
	cancel()

	log.Info("shutdown finished")

	return 0
}

// applyFlags lays the flags the user actually set over the profile, then
// re-validates the merged result.
func applyFlags(p *profile.Profile) error {
	var err error

	flag.Visit(func(f *flag.Flag) {
		if err != nil {
			return
		}

		switch f.Name {
		case "transport":
			p.TransportKind = strings.ToLower(f.Value.String())
		case "device":
			p.Device = f.Value.String()
		case "baud":
			p.SerialMode.BaudRate, err = strconv.Atoi(f.Value.String())
		case "listen":
			p.Listen = f.Value.String()
		case "site":
			v := f.Value.String()
			if len(v) != 1 {
				err = fmt.Errorf("site %q must be a single letter", v)
				return
			}
			p.SiteID = v[0]
		case "checksum":
			p.Checksum, err = checksum.ParseAlgorithm(f.Value.String())
		case "interval":
			p.Interval, err = time.ParseDuration(f.Value.String())
		case "data":
			p.DataFile = f.Value.String()
		case "log-level":
			p.LogLevel, err = logger.ParseLevel(f.Value.String())
		}
	})
	if err != nil {
		return err
	}

	return p.Validate()
}

// openTransport opens the serial device or waits for one TCP peer.
func openTransport(ctx context.Context, p profile.Profile) (transport.Transport, error) {
	if p.TransportKind == profile.KindSerial {
		log.Info("opening serial device", "device", p.Device)

		return transport.OpenSerial(p.Device, p.SerialMode)
	}

	return transport.Listen(ctx, p.Listen, log)
}

// openFeed opens the configured data file, or falls back to the built-in
// sample lines.
func openFeed(p profile.Profile) (feed.Source, func(), error) {
	if p.DataFile == "" {
		return feed.Lines(builtinLines...), func() {}, nil
	}

	f, err := feed.Open(p.DataFile)
	if err != nil {
		return nil, nil, err
	}

	return f, func() { _ = f.Close() }, nil
}

// watchStdin resolves the returned channel when the operator types quit or
// exit. EOF on stdin is ignored so daemonized runs are unaffected.
func watchStdin() <-chan struct{} {
	quit := make(chan struct{})

	go func() {
		sc := bufio.NewScanner(os.Stdin)
		for sc.Scan() {
			switch strings.ToLower(strings.TrimSpace(sc.Text())) {
			case "quit", "exit":
				close(quit)
				return
			}
		}
	}()

	return quit
}
