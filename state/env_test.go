package state

import (
	"context"
	stdlog "log"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/simp-lee/epubnav/config"
)

func TestContextWithEnv(t *testing.T) {
	env := EnvFromContext(ContextWithEnv(context.Background()))
	if env == nil {
		t.Fatal("EnvFromContext() returned nil")
	}
	if env.start.IsZero() {
		t.Error("Environment start time not set")
	}
}

func TestEnvFromContext_Missing(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected panic when env not in context")
		}
	}()
	EnvFromContext(context.Background())
}

func TestLocalEnv_Uptime(t *testing.T) {
	env := EnvFromContext(ContextWithEnv(context.Background()))
	time.Sleep(10 * time.Millisecond)
	if uptime := env.Uptime(); uptime < 10*time.Millisecond {
		t.Errorf("Uptime() = %v, expected at least 10ms", uptime)
	}
}

func TestLocalEnv_Logger(t *testing.T) {
	env := &LocalEnv{}
	if env.Logger() == nil {
		t.Fatal("Logger() returned nil without a configured logger")
	}
	log := zaptest.NewLogger(t)
	env.Log = log
	if env.Logger() != log {
		t.Error("Logger() did not return the configured logger")
	}
}

func TestLocalEnv_UseLogger(t *testing.T) {
	env := &LocalEnv{}
	env.Shutdown() // nothing installed yet

	log := zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller(), zap.AddCallerSkip(1)))
	env.UseLogger(log)
	if env.Logger() != log || env.undoStdLog == nil {
		t.Fatal("UseLogger() did not install the logger")
	}
	stdlog.Print("routed through zap")

	env.UseLogger(log)
	env.Shutdown()
	if env.undoStdLog != nil {
		t.Error("Shutdown() left the standard logger redirected")
	}
	env.Shutdown()
}

func TestLocalEnv_Integration(t *testing.T) {
	env := EnvFromContext(ContextWithEnv(context.Background()))

	cfg, err := config.LoadConfiguration("")
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	env.Cfg = cfg
	env.UseLogger(zaptest.NewLogger(t))
	defer env.Shutdown()

	env.Log.Debug("Program started", zap.Float64("scale", env.Cfg.Reader.Scale))
	if env.Cfg.Gesture.TapWindow <= 0 {
		t.Errorf("TapWindow = %v, want positive default", env.Cfg.Gesture.TapWindow)
	}
}
