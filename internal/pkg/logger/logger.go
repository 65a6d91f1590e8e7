package logger

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const logFileName = "bikeworkshop.log"

// New builds a logger writing to stdout and, when dir is set, to a rotated
// file inside dir.
func New(dir string, debug bool) (*zap.Logger, error) {
	encoderConfig := zap.NewProductionEncoderConfig()
	if debug {
		encoderConfig = zap.NewDevelopmentEncoderConfig()
	}
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.CallerKey = "caller"
	encoderConfig.EncodeCaller = zapcore.ShortCallerEncoder

	encoder := zapcore.NewJSONEncoder(encoderConfig)
	if debug {
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	}

	level := zap.InfoLevel
	if debug {
		level = zap.DebugLevel
	}

	cores := []zapcore.Core{
		zapcore.NewCore(encoder, zapcore.AddSync(os.Stdout), level),
	}

	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
		fileWriter := zapcore.AddSync(&lumberjack.Logger{
			Filename:   filepath.Join(dir, logFileName),
			MaxSize:    10, // MB
			MaxBackups: 7,
			MaxAge:     28, // days
			Compress:   true,
		})
		// files always get JSON so they stay machine-readable
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), fileWriter, level))
	}

	return zap.New(zapcore.NewTee(cores...), zap.AddCaller()), nil
}
