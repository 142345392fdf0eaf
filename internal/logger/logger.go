package logger

import (
	"os"

	"service-hub/internal/config"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const serviceName = "service-hub"

var log = zap.NewNop()

// Initialize replaces the process logger. An unknown level logs at info.
func Initialize(cfg config.LoggerConfig) error {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	core := zapcore.NewCore(newEncoder(cfg.Env), zapcore.Lock(os.Stdout), level)
	log = zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)).
		With(zap.String("service", serviceName))
	return nil
}

// newEncoder emits JSON for log shipping in production and readable lines
// everywhere else.
func newEncoder(env string) zapcore.Encoder {
	ec := zap.NewProductionEncoderConfig()
	ec.TimeKey = "ts"
	ec.EncodeTime = zapcore.RFC3339TimeEncoder
	ec.EncodeDuration = zapcore.MillisDurationEncoder
	if env == "production" {
		return zapcore.NewJSONEncoder(ec)
	}
	ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
	return zapcore.NewConsoleEncoder(ec)
}

// Get is a no-op logger until Initialize runs.
func Get() *zap.Logger {
	return log
}

func Sync() error {
	return log.Sync()
}
