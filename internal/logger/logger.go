// Package logger owns the process-wide zap logger and the field helpers the
// rest of the service uses to tag log lines with request, user, post and
// upload identity.
package logger

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Log is a no-op logger until Initialize runs, so packages and tests can log unconditionally.
var Log = zap.NewNop()

const (
	defaultLevel = "info"
	defaultFile  = "snapshare.log"
)

var levels = map[string]zapcore.Level{
	"debug":   zapcore.DebugLevel,
	"info":    zapcore.InfoLevel,
	"warn":    zapcore.WarnLevel,
	"warning": zapcore.WarnLevel,
	"error":   zapcore.ErrorLevel,
}

// Initialize replaces Log with a logger that writes human-readable lines to
// stdout and rotated JSON lines to logFile. Empty arguments select info and
// snapshare.log.
func Initialize(logLevel string, logFile string) error {
	if logLevel == "" {
		logLevel = defaultLevel
	}
	if logFile == "" {
		logFile = defaultFile
	}
	level := parseLogLevel(logLevel)

	Log = zap.New(
		zapcore.NewTee(consoleCore(level), rotatingCore(logFile, level)),
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
	)

	Log.Info("Logger initialized", zap.String("level", level.String()), zap.String("file", logFile))
	return nil
}

func consoleCore(level zapcore.Level) zapcore.Core {
	return zapcore.NewCore(
		zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
		zapcore.AddSync(os.Stdout),
		level,
	)
}

func rotatingCore(path string, level zapcore.Level) zapcore.Core {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder

	sink := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    50, // MB
		MaxBackups: 3,
		MaxAge:     14, // days
		Compress:   true,
	}
	return zapcore.NewCore(zapcore.NewJSONEncoder(cfg), zapcore.AddSync(sink), level)
}

// Close flushes buffered entries
func Close() error {
	return Log.Sync()
}

func parseLogLevel(s string) zapcore.Level {
	if level, ok := levels[strings.ToLower(strings.TrimSpace(s))]; ok {
		return level
	}
	return zapcore.InfoLevel
}

// Error logs msg at error level with err attached when non-nil
func Error(msg string, err error, fields ...zap.Field) {
	Log.Error(msg, withErr(err, fields)...)
}

// Fatal logs msg with err attached and exits
func Fatal(msg string, err error, fields ...zap.Field) {
	Log.Fatal(msg, withErr(err, fields)...)
}

func withErr(err error, fields []zap.Field) []zap.Field {
	if err == nil {
		return fields
	}
	return append(fields, zap.Error(err))
}

func WithRequestID(requestID string) zap.Field {
	return zap.String("request_id", requestID)
}

func WithUserID(userID string) zap.Field {
	return zap.String("user_id", userID)
}

func WithPostID(postID string) zap.Field {
	return zap.String("post_id", postID)
}

// WithReaction tags a like or favorite toggle
func WithReaction(kind string) zap.Field {
	return zap.String("reaction", kind)
}

// WithUpload describes a stored or rejected media file
func WithUpload(backend, filename string, size int) zap.Field {
	return zap.Dict("upload",
		zap.String("backend", backend),
		zap.String("filename", filename),
		zap.Int("size", size),
	)
}

func WithIP(ip string) zap.Field {
	return zap.String("ip", ip)
}

func WithStatus(status int) zap.Field {
	return zap.Int("status", status)
}
