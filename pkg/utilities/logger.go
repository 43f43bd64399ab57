package utilities

import (
	"fmt"
	"os"
	"strings"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type LogConfig struct {
	Level string
	Dev   bool
	// File, when set, receives a copy of every entry in JSON, rotated daily.
	File string
}

func levelFromString(l string, dev bool) zapcore.Level {
	switch strings.ToLower(l) {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	case "":
		if dev {
			return zapcore.DebugLevel
		}
		return zapcore.InfoLevel
	default:
		return zapcore.InfoLevel
	}
}

func jsonEncoder() zapcore.Encoder {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	return zapcore.NewJSONEncoder(encoderCfg)
}

func rotatingWriter(path string) (zapcore.WriteSyncer, error) {
	w, err := rotatelogs.New(
		path+".%Y%m%d",
		rotatelogs.WithLinkName(path),
		rotatelogs.WithRotationTime(24*time.Hour),
		rotatelogs.WithMaxAge(7*24*time.Hour),
	)
	if err != nil {
		return nil, fmt.Errorf("rotatelogs %s: %w", path, err)
	}
	return zapcore.AddSync(w), nil
}

// InitLogger builds the process logger. Dev mode writes human readable
// console output; otherwise JSON goes to stdout.
func InitLogger(cfg LogConfig) (*zap.Logger, error) {
	lvl := levelFromString(cfg.Level, cfg.Dev)

	var stdout zapcore.Core
	if cfg.Dev {
		encCfg := zap.NewDevelopmentEncoderConfig()
		stdout = zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.Lock(os.Stdout), lvl)
	} else {
		stdout = zapcore.NewCore(jsonEncoder(), zapcore.Lock(os.Stdout), lvl)
	}

	core := stdout
	if cfg.File != "" {
		ws, err := rotatingWriter(cfg.File)
		if err != nil {
			return nil, err
		}
		core = zapcore.NewTee(stdout, zapcore.NewCore(jsonEncoder(), ws, lvl))
	}

	opts := []zap.Option{zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)}
	if cfg.Dev {
		opts = append(opts, zap.Development())
	}
	return zap.New(core, opts...), nil
}
