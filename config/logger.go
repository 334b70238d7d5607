package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"
)

// LoggerConfig describes one log sink.
type LoggerConfig struct {
	Level       string `yaml:"level" validate:"required,oneof=none debug normal"`
	Destination string `yaml:"destination,omitempty" sanitize:"path_clean,assure_dir_exists_for_file" validate:"omitempty,filepath"`
	Mode        string `yaml:"mode,omitempty" validate:"omitempty,oneof=append overwrite"`
}

type LoggingConfig struct {
	FileLogger    LoggerConfig `yaml:"file"`
	ConsoleLogger LoggerConfig `yaml:"console"`
}

// minLevel maps a configured level name to the lowest enabled zap level.
// "none" and unknown names disable the sink.
func minLevel(name string) (zapcore.Level, bool) {
	switch name {
	case "debug":
		return zapcore.DebugLevel, true
	case "normal":
		return zapcore.InfoLevel, true
	}
	return zapcore.InvalidLevel, false
}

// Prepare returns the program logger. Console messages below error level
// go to stdout, errors to stderr; the file sink, when enabled, receives
// everything at its level and the Go runtime crash output is sent next to
// it.
func (conf *LoggingConfig) Prepare() (*zap.Logger, error) {
	cores := make([]zapcore.Core, 0, 3)

	if lvl, ok := minLevel(conf.ConsoleLogger.Level); ok {
		cores = append(cores,
			consoleCore(os.Stdout, func(l zapcore.Level) bool { return lvl <= l && l < zapcore.ErrorLevel }),
			consoleCore(os.Stderr, func(l zapcore.Level) bool { return l >= zapcore.ErrorLevel }),
		)
	}

	if lvl, ok := minLevel(conf.FileLogger.Level); ok {
		f, err := openLog(conf.FileLogger.Destination, conf.FileLogger.Mode)
		if err != nil {
			return nil, fmt.Errorf("unable to access file log destination (%s): %w", conf.FileLogger.Destination, err)
		}
		// crash output is best effort
		if pf, err := openLog(PanicLogName(conf.FileLogger.Destination), conf.FileLogger.Mode); err == nil {
			debug.SetCrashOutput(pf, debug.CrashOptions{})
			pf.Close()
		}
		enc := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
		cores = append(cores, zapcore.NewCore(enc, zapcore.Lock(f), lvl))
	}

	if len(cores) == 0 {
		return zap.NewNop(), nil
	}
	return zap.New(zapcore.NewTee(cores...), zap.AddCaller()).Named(AppName), nil
}

// consoleCore writes to stream, colouring levels when it is a terminal.
func consoleCore(stream *os.File, enabled zap.LevelEnablerFunc) zapcore.Core {
	ec := zap.NewDevelopmentEncoderConfig()
	ec.EncodeCaller = nil
	ec.EncodeLevel = zapcore.CapitalLevelEncoder
	if term.IsTerminal(int(stream.Fd())) {
		ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
		ec.TimeKey = zapcore.OmitKey
	}
	return zapcore.NewCore(zapcore.NewConsoleEncoder(ec), zapcore.Lock(stream), enabled)
}

func openLog(name, mode string) (*os.File, error) {
	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if mode == "append" {
		flags = os.O_CREATE | os.O_WRONLY | os.O_APPEND
	}
	return os.OpenFile(name, flags, 0644)
}

// PanicLogName returns the crash output file kept next to the file log.
func PanicLogName(destination string) string {
	return filepath.Join(filepath.Dir(destination), AppName+"-panic.log")
}
