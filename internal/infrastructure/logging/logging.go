// Package logging builds the zap loggers used by the CLI and services.
package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ersonp/uniao/internal/infrastructure/config"
)

// Redacted replaces the value of sensitive fields.
const Redacted = "[REDACTED]"

// New builds a logger from the log configuration. The json format uses the
// production encoder, anything else the development console encoder.
func New(cfg config.LogConfig) (*zap.Logger, error) {
	var zc zap.Config
	switch strings.ToLower(strings.TrimSpace(cfg.Format)) {
	case "json", "prod", "production":
		zc = zap.NewProductionConfig()
	default:
		zc = zap.NewDevelopmentConfig()
		zc.DisableStacktrace = true
	}

	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.OutputPaths = []string{"stderr"}
	zc.ErrorOutputPaths = []string{"stderr"}

	logger, err := zc.Build(zap.WrapCore(Redact))
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}
	return logger, nil
}

// ParseLevel maps a configured level name to a zap level. Empty means info.
func ParseLevel(name string) (zapcore.Level, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return zapcore.InfoLevel, nil
	}
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(strings.ToLower(name))); err != nil {
		return zapcore.InfoLevel, fmt.Errorf("invalid log level %q: %w", name, err)
	}
	return level, nil
}

// Redact wraps a core so that sensitive string fields are masked before encoding.
func Redact(core zapcore.Core) zapcore.Core {
	return &redactingCore{Core: core}
}

type redactingCore struct {
	zapcore.Core
}

func (c *redactingCore) With(fields []zapcore.Field) zapcore.Core {
	return &redactingCore{Core: c.Core.With(sanitizeFields(fields))}
}

func (c *redactingCore) Check(entry zapcore.Entry, checked *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(entry.Level) {
		return checked.AddCore(entry, c)
	}
	return checked
}

func (c *redactingCore) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	return c.Core.Write(entry, sanitizeFields(fields))
}

func sanitizeFields(fields []zapcore.Field) []zapcore.Field {
	var out []zapcore.Field
	for i, f := range fields {
		if f.Type != zapcore.StringType || f.String == "" {
			continue
		}
		masked, ok := sanitizeValue(strings.ToLower(f.Key), f.String)
		if !ok {
			continue
		}
		if out == nil {
			out = make([]zapcore.Field, len(fields))
			copy(out, fields)
		}
		out[i] = zap.String(f.Key, masked)
	}
	if out == nil {
		return fields
	}
	return out
}

func sanitizeValue(key, val string) (string, bool) {
	switch {
	case isRedactKey(key):
		return Redacted, true
	case strings.Contains(key, "wallet"), strings.Contains(key, "address"):
		return MaskAddress(val), true
	default:
		return val, false
	}
}

func isRedactKey(key string) bool {
	switch {
	case strings.Contains(key, "password"),
		strings.Contains(key, "secret"),
		strings.Contains(key, "token"),
		strings.Contains(key, "document"):
		return true
	default:
		return false
	}
}

// MaskAddress keeps the first six and last four characters of a wallet
// address or location. Short values are fully redacted.
func MaskAddress(addr string) string {
	addr = strings.TrimSpace(addr)
	if len(addr) <= 12 {
		return Redacted
	}
	return addr[:6] + "..." + addr[len(addr)-4:]
}
