package parser

import (
	"io"
	"log/slog"
	"time"
)

// Option represents a parser configuration option
type Option func(*Config)

// TelemetryMode controls telemetry collection (production-safe)
type TelemetryMode int

const (
	TelemetryOff    TelemetryMode = iota // Zero overhead (default)
	TelemetryBasic                       // Counts only
	TelemetryTiming                      // Counts + timing
)

// DebugLevel controls debug tracing (development only)
type DebugLevel int

const (
	DebugOff      DebugLevel = iota // No debug info (default)
	DebugPaths                      // Construct entry tracing
	DebugDetailed                   // Construct entry and exit tracing
)

// Default achievement budget enforced by the ChoiceScript interpreter.
const (
	DefaultMaxAchievements      = 100
	DefaultMaxAchievementPoints = 1000
)

// Config holds parser configuration
type Config struct {
	telemetry TelemetryMode
	debug     DebugLevel
	logger    *slog.Logger

	// startup is nil when it should be inferred from the document URI.
	startup *bool

	maxAchievements      int
	maxAchievementPoints int
}

func newConfig(opts []Option) *Config {
	c := &Config{
		logger:               slog.New(slog.NewTextHandler(io.Discard, nil)),
		maxAchievements:      DefaultMaxAchievements,
		maxAchievementPoints: DefaultMaxAchievementPoints,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithTelemetryBasic enables basic telemetry (counts only)
func WithTelemetryBasic() Option {
	return func(c *Config) {
		c.telemetry = TelemetryBasic
	}
}

// WithTelemetryTiming enables timing telemetry (counts + timing)
func WithTelemetryTiming() Option {
	return func(c *Config) {
		c.telemetry = TelemetryTiming
	}
}

// WithDebugPaths enables debug path tracing (development only)
func WithDebugPaths() Option {
	return func(c *Config) {
		c.debug = DebugPaths
	}
}

// WithDebugDetailed enables detailed debug tracing (development only)
func WithDebugDetailed() Option {
	return func(c *Config) {
		c.debug = DebugDetailed
	}
}

// WithLogger sets the logger used for parser debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithStartup overrides whether the document is treated as startup.txt,
// which is otherwise decided from its scene name.
func WithStartup(isStartup bool) Option {
	return func(c *Config) {
		c.startup = &isStartup
	}
}

// WithAchievementLimits sets the maximum achievement count and total points.
func WithAchievementLimits(maxCount, maxPoints int) Option {
	return func(c *Config) {
		c.maxAchievements = maxCount
		c.maxAchievementPoints = maxPoints
	}
}

// Telemetry holds parser performance metrics (production-safe)
type Telemetry struct {
	ParseTime    time.Duration // Time spent scanning the document
	LineCount    int           // Number of lines in the document
	CommandCount int           // Number of *commands seen
	EventCount   int           // Number of callbacks invoked
	ErrorCount   int           // Number of Error-severity diagnostics
}

// DebugEvent holds debug tracing information (development only)
type DebugEvent struct {
	Timestamp time.Time
	Event     string // "enter_choice", "exit_if", etc.
	Line      int    // Zero-based line the construct starts on
	Context   string // Enclosing block kinds
}
