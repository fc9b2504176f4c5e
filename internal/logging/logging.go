// Package logging builds the process-wide zap logger.
package logging

import (
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ppiankov/newsguard/internal/model"
)

// New builds a logger from cfg. Console format uses zap's development
// encoder; anything else is JSON. Logs always go to stderr so that report
// output on stdout stays machine readable.
func New(cfg model.LogConfig, verbose bool) (*zap.Logger, error) {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.DisableStacktrace = true
	} else {
		zapCfg = zap.NewProductionConfig()
	}
	zapCfg.OutputPaths = []string{"stderr"}
	zapCfg.ErrorOutputPaths = []string{"stderr"}

	levelName := cfg.Level
	if levelName == "" {
		levelName = "info"
	}
	level, err := zapcore.ParseLevel(levelName)
	if err != nil {
		return nil, eris.Wrap(err, "logging: parse level")
	}
	if verbose {
		level = zapcore.DebugLevel
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, eris.Wrap(err, "logging: build logger")
	}
	return logger, nil
}

// Init builds a logger and installs it as the zap global.
func Init(cfg model.LogConfig, verbose bool) error {
	logger, err := New(cfg, verbose)
	if err != nil {
		return err
	}
	zap.ReplaceGlobals(logger)
	return nil
}
