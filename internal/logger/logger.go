/**
 * @description
 * Structured logger for the PriceBet Backend.
 * Wraps a zap SugaredLogger behind printf-style helpers so call sites stay terse.
 * Info goes to stdout, errors to stderr, so the platform labels streams correctly.
 *
 * @dependencies
 * - go.uber.org/zap
 */

package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var sugar *zap.SugaredLogger

func init() {
	Configure("development")
}

// Configure rebuilds the underlying zap logger for the given environment.
// Called once at startup after config is loaded; the init() default keeps
// early log lines (config loading itself) from being dropped.
func Configure(env string) {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoder := zapcore.NewJSONEncoder(encCfg)
	level := zapcore.InfoLevel

	if env == "development" {
		devCfg := zap.NewDevelopmentEncoderConfig()
		devCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		encoder = zapcore.NewConsoleEncoder(devCfg)
		level = zapcore.DebugLevel
	}

	core := zapcore.NewTee(
		zapcore.NewCore(encoder, zapcore.Lock(os.Stdout), zap.LevelEnablerFunc(func(l zapcore.Level) bool {
			return l >= level && l < zapcore.ErrorLevel
		})),
		zapcore.NewCore(encoder, zapcore.Lock(os.Stderr), zap.LevelEnablerFunc(func(l zapcore.Level) bool {
			return l >= zapcore.ErrorLevel
		})),
	)

	sugar = zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1)).Sugar()
}

// Info logs an info message to stdout
func Info(format string, v ...interface{}) {
	sugar.Infof(format, v...)
}

// Error logs an error message to stderr
func Error(format string, v ...interface{}) {
	sugar.Errorf(format, v...)
}

// Fatal logs an error and exits
func Fatal(format string, v ...interface{}) {
	sugar.Fatalf(format, v...)
}

// Sync flushes buffered log entries. Call on shutdown.
func Sync() {
	_ = sugar.Sync()
}
