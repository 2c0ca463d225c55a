// Package profile loads TOML device profiles: everything a ceilsim
// instance needs to impersonate one field unit, from site letter to wire
// framing. Values omitted from the file keep their defaults, so a profile
// only states what differs from a stock device.
package profile

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/wxline/ceilsim/checksum"
	"github.com/wxline/ceilsim/engine"
	"github.com/wxline/ceilsim/frame"
	"github.com/wxline/ceilsim/logger"
	"github.com/wxline/ceilsim/transport"
)

// Transport kinds accepted by a profile.
const (
	KindSerial = "serial"
	KindTCP    = "tcp"
)

// DefaultListen is the TCP bind address used when a profile names neither
// a listen address nor a serial device.
const DefaultListen = ":5000"

// Profile is a fully resolved device profile.
type Profile struct {
	SiteID byte

	TransportKind string
	Device        string
	SerialMode    transport.Mode
	Listen        string

	Checksum checksum.Algorithm
	Framing  frame.Style
	Interval time.Duration

	DataFile string

	LogLevel logger.Level
}

// Default returns the profile of a stock device on a TCP bench transport.
// A zero SerialMode defers to the transport package's 2400 7E1 defaults.
func Default() Profile {
	return Profile{
		SiteID:        engine.DefaultSiteID,
		TransportKind: KindTCP,
		Listen:        DefaultListen,
		Checksum:      checksum.AlgoXORFold,
		Framing:       frame.StyleChecksum,
		Interval:      engine.DefaultInterval,
		LogLevel:      logger.InfoLevel,
	}
}

// fileConfig mirrors the TOML layout of a profile file.
type fileConfig struct {
	Site struct {
		ID string `toml:"id"`
	} `toml:"site"`

	Transport struct {
		Kind     string `toml:"kind"`
		Device   string `toml:"device"`
		Baud     int    `toml:"baud"`
		DataBits int    `toml:"data_bits"`
		Parity   string `toml:"parity"`
		StopBits int    `toml:"stop_bits"`
		Listen   string `toml:"listen"`
	} `toml:"transport"`

	Protocol struct {
		Checksum string `toml:"checksum"`
		Framing  string `toml:"framing"`
		Interval string `toml:"interval"`
	} `toml:"protocol"`

	Data struct {
		File string `toml:"file"`
	} `toml:"data"`

	Log struct {
		Level string `toml:"level"`
	} `toml:"log"`
}

// Load reads a profile file and lays it over the defaults. Only keys the
// file actually defines override; it then validates the result.
func Load(path string) (Profile, error) {
	p := Default()

	var raw fileConfig

	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Profile{}, fmt.Errorf("profile: load %s: %w", path, err)
	}

	if meta.IsDefined("site", "id") {
		id := strings.TrimSpace(raw.Site.ID)
		if len(id) != 1 {
			return Profile{}, fmt.Errorf("profile: site id %q must be a single letter", raw.Site.ID)
		}
		p.SiteID = id[0]
	}

	if meta.IsDefined("transport", "kind") {
		p.TransportKind = strings.ToLower(strings.TrimSpace(raw.Transport.Kind))
	}
	if meta.IsDefined("transport", "device") {
		p.Device = strings.TrimSpace(raw.Transport.Device)
	}
	if meta.IsDefined("transport", "baud") {
		p.SerialMode.BaudRate = raw.Transport.Baud
	}
	if meta.IsDefined("transport", "data_bits") {
		p.SerialMode.DataBits = raw.Transport.DataBits
	}
	if meta.IsDefined("transport", "parity") {
		p.SerialMode.Parity = strings.ToUpper(strings.TrimSpace(raw.Transport.Parity))
	}
	if meta.IsDefined("transport", "stop_bits") {
		p.SerialMode.StopBits = raw.Transport.StopBits
	}
	if meta.IsDefined("transport", "listen") {
		p.Listen = strings.TrimSpace(raw.Transport.Listen)
	}

	if meta.IsDefined("protocol", "checksum") {
		algo, err := checksum.ParseAlgorithm(raw.Protocol.Checksum)
		if err != nil {
			return Profile{}, fmt.Errorf("profile: %w (one of xor, sum8, crc16, crc16-rolling, xor-masked)", err)
		}
		p.Checksum = algo
	}
	if meta.IsDefined("protocol", "framing") {
		st, err := frame.ParseStyle(raw.Protocol.Framing)
		if err != nil {
			return Profile{}, fmt.Errorf("profile: %w (one of checksum, plain)", err)
		}
		p.Framing = st
	}
	if meta.IsDefined("protocol", "interval") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.Protocol.Interval))
		if err != nil {
			return Profile{}, fmt.Errorf("profile: parse interval: %w", err)
		}
		p.Interval = d
	}

	if meta.IsDefined("data", "file") {
		p.DataFile = strings.TrimSpace(raw.Data.File)
	}

	if meta.IsDefined("log", "level") {
		level, err := logger.ParseLevel(raw.Log.Level)
		if err != nil {
			return Profile{}, fmt.Errorf("profile: %w", err)
		}
		p.LogLevel = level
	}

	if err := p.Validate(); err != nil {
		return Profile{}, err
	}

	return p, nil
}

// Validate checks cross-field consistency. It runs again after flag
// overlays, so the command line shares the same rules.
func (p *Profile) Validate() error {
	if p.SiteID < 'A' || p.SiteID > 'Z' {
		return fmt.Errorf("profile: site id %q outside ['A', 'Z']", p.SiteID)
	}

	switch p.TransportKind {
	case KindSerial:
		if p.Device == "" {
			return errors.New("profile: serial transport needs a device path")
		}

		switch p.SerialMode.Parity {
		case "", "N", "E", "O":
		default:
			return fmt.Errorf("profile: parity %q not in [N, E, O]", p.SerialMode.Parity)
		}

		switch p.SerialMode.StopBits {
		case 0, 1, 2:
		default:
			return fmt.Errorf("profile: stop bits %d not in [1, 2]", p.SerialMode.StopBits)
		}

	case KindTCP:
		if p.Listen == "" {
			return errors.New("profile: tcp transport needs a listen address")
		}

	default:
		return fmt.Errorf("profile: transport kind %q not in [serial, tcp]", p.TransportKind)
	}

	if p.Interval < engine.MinInterval || p.Interval > engine.MaxInterval {
		return fmt.Errorf("profile: interval %v out of range [%v, %v]",
			p.Interval, engine.MinInterval, engine.MaxInterval)
	}

	return nil
}
