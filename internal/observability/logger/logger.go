package logger

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config is the slice of observability settings the logger needs.
type Config struct {
	ServiceName string
	Environment string
	Version     string

	Level  string
	Format string
	Debug  bool
}

// New builds the process-wide zap logger. JSON output in production,
// console output otherwise, with service metadata attached to every entry.
func New(cfg Config) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zcfg zap.Config
	if cfg.Format == "console" || cfg.Debug {
		zcfg = zap.NewDevelopmentConfig()
		zcfg.Encoding = "console"
	} else {
		zcfg = zap.NewProductionConfig()
		zcfg.EncoderConfig.TimeKey = "ts"
		zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)

	log, err := zcfg.Build(zap.AddCallerSkip(0))
	if err != nil {
		return nil, err
	}

	fields := []zap.Field{
		zap.String("service", cfg.ServiceName),
	}
	if env := strings.TrimSpace(cfg.Environment); env != "" {
		fields = append(fields, zap.String("env", env))
	}
	if v := strings.TrimSpace(cfg.Version); v != "" {
		fields = append(fields, zap.String("version", v))
	}

	return log.With(fields...), nil
}
