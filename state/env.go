// Package state carries the program environment through the command
// context.
package state

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/simp-lee/epubnav/config"
)

type envKey struct{}

// LocalEnv is the configuration and logger shared by all commands.
type LocalEnv struct {
	Cfg *config.Config
	Log *zap.Logger

	start      time.Time
	undoStdLog func()
}

// ContextWithEnv returns ctx carrying a fresh LocalEnv.
func ContextWithEnv(ctx context.Context) context.Context {
	return context.WithValue(ctx, envKey{}, &LocalEnv{start: time.Now()})
}

// EnvFromContext returns the LocalEnv stored by ContextWithEnv. It panics
// when there is none.
func EnvFromContext(ctx context.Context) *LocalEnv {
	env, ok := ctx.Value(envKey{}).(*LocalEnv)
	if !ok {
		panic("state: no environment in context")
	}
	return env
}

func (e *LocalEnv) Uptime() time.Duration {
	return time.Since(e.start)
}

// Logger returns the program logger, or a no-op one before UseLogger.
func (e *LocalEnv) Logger() *zap.Logger {
	if e.Log == nil {
		return zap.NewNop()
	}
	return e.Log
}

// UseLogger installs log as the program logger and routes the standard
// library logger into it until Shutdown.
func (e *LocalEnv) UseLogger(log *zap.Logger) {
	if e.undoStdLog != nil {
		e.undoStdLog()
	}
	e.Log = log
	e.undoStdLog = zap.RedirectStdLog(log)
}

// Shutdown flushes the logger and restores the standard library logger.
// It is safe to call more than once.
func (e *LocalEnv) Shutdown() {
	if e.Log != nil {
		_ = e.Log.Sync()
	}
	if e.undoStdLog != nil {
		e.undoStdLog()
		e.undoStdLog = nil
	}
}
