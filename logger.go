package main

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var combatLogger *zap.Logger

// initLogger sets up combatLogger. Debug mode logs every round in a
// readable format; otherwise info and above are written as JSON.
func initLogger(debug bool) error {
	var cfg zap.Config
	if debug {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		cfg = zap.NewProductionConfig()
	}
	logger, err := cfg.Build()
	if err != nil {
		return err
	}
	combatLogger = logger
	return nil
}

func closeLogger() {
	if combatLogger != nil {
		_ = combatLogger.Sync()
	}
}

// logger returns combatLogger, or a no-op logger before initLogger ran.
func logger() *zap.Logger {
	if combatLogger == nil {
		return zap.NewNop()
	}
	return combatLogger
}
