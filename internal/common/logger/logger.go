package logger

import (
	"os"
	"sort"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger writes one JSON line per action, tagged with the owning service.
type Logger struct {
	service string
	z       *zap.Logger
}

var base = build("info")

// SetLevel rebuilds the process-wide sink; services created afterwards use the new level.
func SetLevel(level string) { base = build(level) }

func build(level string) *zap.Logger {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	enc := zap.NewProductionEncoderConfig()
	enc.TimeKey = "timestamp"
	enc.MessageKey = "message"
	enc.EncodeTime = zapcore.RFC3339NanoTimeEncoder
	enc.EncodeLevel = zapcore.CapitalLevelEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(enc), zapcore.Lock(os.Stderr), lvl)
	return zap.New(core).With(zap.String("hostname", hostname()))
}

func New(service string) *Logger {
	return &Logger{service: service, z: base.With(zap.String("service", service))}
}

// Nop discards everything; used by tests.
func Nop() *Logger { return &Logger{z: zap.NewNop()} }

// FromZap lets tests plug in an observer core.
func FromZap(service string, z *zap.Logger) *Logger {
	return &Logger{service: service, z: z.With(zap.String("service", service))}
}

// WithRequest returns a child logger stamped with request_id.
func (l *Logger) WithRequest(id string) *Logger {
	return &Logger{service: l.service, z: l.z.With(zap.String("request_id", id))}
}

func (l *Logger) fields(action string, fields map[string]any, err error) []zap.Field {
	out := make([]zap.Field, 0, len(fields)+2)
	out = append(out, zap.String("action", action))
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		out = append(out, zap.Any(k, fields[k]))
	}
	if err != nil {
		out = append(out, zap.Error(err))
	}
	return out
}

func (l *Logger) Info(action string, fields map[string]any) {
	l.z.Info(action, l.fields(action, fields, nil)...)
}

func (l *Logger) Debug(action string, fields map[string]any) {
	l.z.Debug(action, l.fields(action, fields, nil)...)
}

func (l *Logger) Warn(action string, fields map[string]any) {
	l.z.Warn(action, l.fields(action, fields, nil)...)
}

func (l *Logger) Error(action string, err error, fields map[string]any) {
	l.z.Error(action, l.fields(action, fields, err)...)
}

func (l *Logger) Sync() { _ = l.z.Sync() }

func hostname() string {
	h, _ := os.Hostname()
	return h
}
