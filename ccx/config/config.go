/*
NAME
  config.go

DESCRIPTION
  config.go defines the configuration settings for a ccx orchestrator
  instance, modeled directly on revid/config.Config: a flat struct of
  exported fields, int/uint8 enums for mode selection, a Logger/
  LogLevel pair, and a Validate method that defaults unset fields.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package config contains the configuration settings for a ccx
// orchestrator instance.
package config

import (
	"time"

	"github.com/pkg/errors"

	"github.com/ausocean/utils/logging"
)

// Enums defining input and output kinds.
const (
	NothingDefined = iota

	InputFile
	InputUDP
	InputHTTP

	OutputSRT
	OutputWebVTT
	OutputStdout
)

// Config provides parameters relevant to a ccx orchestrator instance.
// A new Config must be passed to the constructor; default values for
// unset fields are applied by Validate.
type Config struct {
	// Input defines the input data source. See the Input* enums.
	Input uint8

	// InputPath defines the input file location for InputFile. Must be
	// set if InputFile is used.
	InputPath string

	// InputAddress defines the listen or dial address for InputUDP and
	// InputHTTP.
	InputAddress string

	// Loop restarts reading of InputPath after io.EOF.
	Loop bool

	// IdleTimeout is how long a live input may go without producing
	// data before it counts as stalled. Validate fills in a default;
	// the orchestrator does not read it and never stops on a stall.
	IdleTimeout time.Duration

	// ProgramNumber selects which MPEG-TS program's caption streams to
	// decode. A value of 0 means decode the first program whose PMT is
	// found to carry a caption stream.
	ProgramNumber uint16

	// Output defines the cue output format. See the Output* enums.
	Output uint8

	// OutputPath defines the output destination file, if applicable to
	// the selected Output.
	OutputPath string

	// SegmentDuration is the wall-clock interval at which the output
	// stage logs a segment boundary. Output is not split into separate
	// files. A value of 0 disables the boundary log.
	SegmentDuration time.Duration

	// SentenceCase converts all-caps Teletext rows to sentence case.
	SentenceCase bool

	// MergeTypos merges a page with its predecessor on the same
	// magazine when they differ by only a minor correction.
	MergeTypos bool

	// WatchedPage restricts Teletext decoding to a single page, given
	// as magazine*100+page (e.g. 888 for magazine 8 page 88). A value
	// of 0 leaves the page unset: the decoder locks onto the first
	// page whose header announces the subtitle flag.
	WatchedPage int

	// EndAt clips the timeline: once a caption's own frame timestamp
	// reaches EndAt, the orchestrator stops after flushing whatever cue
	// that caption's arrival already closed out, without emitting the
	// caption itself. A value of 0 disables clipping.
	EndAt time.Duration

	// MetricsAddress is a Prometheus listen address. Nothing in this
	// module reads it; no metrics endpoint is served from it.
	MetricsAddress string

	// Logger holds an implementation of the Logger interface used
	// throughout the orchestrator and its components.
	Logger logging.Logger

	// LogLevel is the orchestrator's logging verbosity level. Valid
	// values are the logging.Debug/Info/Warning/Error/Fatal enums.
	LogLevel int8
}

// Validate checks for configuration errors and applies defaults for
// unset fields.
func (c *Config) Validate() error {
	if c.Logger == nil {
		return errors.New("config: Logger must be set")
	}
	switch c.Input {
	case InputFile:
		if c.InputPath == "" {
			return errors.New("config: InputPath must be set for InputFile")
		}
	case InputUDP, InputHTTP:
		if c.InputAddress == "" {
			return errors.New("config: InputAddress must be set for network input")
		}
	case NothingDefined:
		return errors.New("config: Input must be set")
	}

	if c.IdleTimeout == 0 {
		c.IdleTimeout = 10 * time.Second
		c.LogInvalidField("IdleTimeout", c.IdleTimeout)
	}

	return nil
}

// LogInvalidField logs that a field was bad or unset and what default
// was applied in its place.
func (c *Config) LogInvalidField(name string, def interface{}) {
	c.Logger.Info(name+" bad or unset, defaulting", name, def)
}
