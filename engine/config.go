package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/wxline/ceilsim/checksum"
	"github.com/wxline/ceilsim/frame"
	"github.com/wxline/ceilsim/logger"
)

// Default engine parameters.
const (
	DefaultSiteID byte = 'A' // single-character site identifier

	DefaultInterval     = 2 * time.Second       // pause between continuous transmissions
	DefaultPollTimeout  = 50 * time.Millisecond // per-read timeout of the receiver loop
	DefaultCloseTimeout = 3 * time.Second       // timeout for Close to drain the tasks
)

// Parameter range limits.
const (
	MinInterval = 100 * time.Millisecond
	MaxInterval = 10 * time.Minute

	MinPollTimeout = 10 * time.Millisecond
	MaxPollTimeout = 1 * time.Second
)

// Config holds all configuration for an emulator engine.
type Config struct {
	// siteID is the single uppercase letter reported by the identify command
	// and embedded in the built-in queries.
	siteID byte

	// algo selects the checksum appended to framed output.
	algo checksum.Algorithm

	// framing selects how outgoing payloads are wrapped on the wire.
	framing frame.Style

	// interval is the pause between transmissions in continuous mode.
	interval time.Duration

	// pollTimeout bounds each receiver read so termination stays observable
	// on an idle line.
	pollTimeout time.Duration

	closeTimeout time.Duration

	logger logger.Logger
}

// NewConfig creates an engine configuration.
//
// opts are functional options applied in order; see the With* functions.
// Without options the engine emulates site 'A' with XOR-fold checksum
// framing and a 2-second continuous interval.
func NewConfig(opts ...Option) (*Config, error) {
	cfg := &Config{
		siteID:       DefaultSiteID,
		algo:         checksum.AlgoXORFold,
		framing:      frame.StyleChecksum,
		interval:     DefaultInterval,
		pollTimeout:  DefaultPollTimeout,
		closeTimeout: DefaultCloseTimeout,
		logger:       logger.GetLogger(),
	}

	for _, opt := range opts {
		if err := opt.apply(cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// --- Getters ---

// SiteID returns the configured site identifier letter.
func (cfg *Config) SiteID() byte { return cfg.siteID }

// Algorithm returns the configured frame checksum algorithm.
func (cfg *Config) Algorithm() checksum.Algorithm { return cfg.algo }

// Framing returns the configured framing style.
func (cfg *Config) Framing() frame.Style { return cfg.framing }

// Interval returns the pause between continuous-mode transmissions.
func (cfg *Config) Interval() time.Duration { return cfg.interval }

// PollTimeout returns the per-read timeout of the receiver loop.
func (cfg *Config) PollTimeout() time.Duration { return cfg.pollTimeout }

// CloseTimeout returns the timeout Close has to drain the engine tasks.
func (cfg *Config) CloseTimeout() time.Duration { return cfg.closeTimeout }

// GetLogger returns the configured logger.
func (cfg *Config) GetLogger() logger.Logger { return cfg.logger }

// --- Option ---

// Option is a functional option for configuring an engine Config.
type Option interface {
	apply(*Config) error
}

type optFunc func(*Config) error

func (f optFunc) apply(cfg *Config) error { return f(cfg) }

// WithSiteID sets the site identifier letter. Must be 'A' to 'Z'.
func WithSiteID(id byte) Option {
	return optFunc(func(cfg *Config) error {
		if id < 'A' || id > 'Z' {
			return fmt.Errorf("engine: site ID %q outside ['A', 'Z']", id)
		}
		cfg.siteID = id

		return nil
	})
}

// WithAlgorithm sets the checksum algorithm for framed output.
func WithAlgorithm(a checksum.Algorithm) Option {
	return optFunc(func(cfg *Config) error {
		if a > checksum.AlgoXORFoldMasked {
			return fmt.Errorf("engine: %w: %d", checksum.ErrUnknownAlgorithm, uint8(a))
		}
		cfg.algo = a

		return nil
	})
}

// WithFraming sets the framing style for outgoing payloads.
func WithFraming(st frame.Style) Option {
	return optFunc(func(cfg *Config) error {
		if st > frame.StylePlain {
			return fmt.Errorf("engine: %w: %d", frame.ErrUnknownStyle, uint8(st))
		}
		cfg.framing = st

		return nil
	})
}

// WithInterval sets the pause between continuous-mode transmissions.
// Must be in [100ms, 10m].
func WithInterval(d time.Duration) Option {
	return optFunc(func(cfg *Config) error {
		if d < MinInterval || d > MaxInterval {
			return fmt.Errorf("engine: interval %v out of range [%v, %v]", d, MinInterval, MaxInterval)
		}
		cfg.interval = d

		return nil
	})
}

// WithPollTimeout sets the per-read timeout of the receiver loop. Shorter
// timeouts make shutdown snappier at the cost of more idle wakeups.
// Must be in [10ms, 1s].
func WithPollTimeout(d time.Duration) Option {
	return optFunc(func(cfg *Config) error {
		if d < MinPollTimeout || d > MaxPollTimeout {
			return fmt.Errorf("engine: poll timeout %v out of range [%v, %v]", d, MinPollTimeout, MaxPollTimeout)
		}
		cfg.pollTimeout = d

		return nil
	})
}

// WithCloseTimeout sets the timeout Close has to drain the engine tasks.
func WithCloseTimeout(d time.Duration) Option {
	return optFunc(func(cfg *Config) error {
		if d <= 0 {
			return errors.New("engine: close timeout must be positive")
		}
		cfg.closeTimeout = d

		return nil
	})
}

// WithLogger sets the logger for the engine.
func WithLogger(l logger.Logger) Option {
	return optFunc(func(cfg *Config) error {
		if l == nil {
			return errors.New("engine: logger must not be nil")
		}
		cfg.logger = l

		return nil
	})
}
