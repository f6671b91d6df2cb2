package bridge

import (
	"fmt"
	"os"
	"strconv"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/chazu/meshbridge/pkg/kernel"
	"github.com/chazu/meshbridge/pkg/kernel/manifold"
	"github.com/chazu/meshbridge/pkg/kernel/sdfx"
	"github.com/chazu/meshbridge/pkg/kernel/sweep"
)

// Environment variables read by ConfigFromEnv.
const (
	EnvKernel     = "MESHBRIDGE_KERNEL"
	EnvCheck      = "MESHBRIDGE_HANDLECHECK"
	EnvLogLevel   = "MESHBRIDGE_LOG_LEVEL"
	DefaultKernel = "sweep"
)

// Config selects the geometry backend and the debug aids.
type Config struct {
	Kernel       string // sweep, sdfx or manifold
	CheckHandles bool   // enable the liveness registry
	LogLevel     string // zap level name; empty keeps logging off
}

// ConfigFromEnv reads a Config from the MESHBRIDGE_* environment. Builds
// tagged handlecheck start with CheckHandles set.
func ConfigFromEnv() Config {
	cfg := Config{
		Kernel:       DefaultKernel,
		CheckHandles: checkByDefault,
		LogLevel:     os.Getenv(EnvLogLevel),
	}
	if k := os.Getenv(EnvKernel); k != "" {
		cfg.Kernel = k
	}
	if v, err := strconv.ParseBool(os.Getenv(EnvCheck)); err == nil {
		cfg.CheckHandles = v
	}
	return cfg
}

// NewKernel returns the backend with the given name.
func NewKernel(name string) (kernel.Kernel, error) {
	switch name {
	case "", "sweep":
		return sweep.New(), nil
	case "sdfx":
		return sdfx.New(), nil
	case "manifold":
		return manifold.New()
	default:
		return nil, fmt.Errorf("bridge: unknown kernel %q", name)
	}
}

var activeKernel atomic.Pointer[kernelBox]

type kernelBox struct{ k kernel.Kernel }

// CurrentKernel returns the configured backend, the sweep kernel if
// Configure was never called.
func CurrentKernel() kernel.Kernel {
	if b := activeKernel.Load(); b != nil {
		return b.k
	}
	return sweep.New()
}

// SetKernel replaces the backend used by CreateCube.
func SetKernel(k kernel.Kernel) {
	activeKernel.Store(&kernelBox{k: k})
}

// Configure applies cfg. It is meant to run once, before the first
// handle is handed out.
func Configure(cfg Config) error {
	if cfg.LogLevel != "" {
		lvl, err := zap.ParseAtomicLevel(cfg.LogLevel)
		if err != nil {
			return fmt.Errorf("bridge: log level: %w", err)
		}
		zc := zap.NewProductionConfig()
		zc.Level = lvl
		l, err := zc.Build()
		if err != nil {
			return fmt.Errorf("bridge: logger: %w", err)
		}
		SetLogger(l.Named("meshbridge"))
	}

	k, err := NewKernel(cfg.Kernel)
	if err != nil {
		return err
	}
	SetKernel(k)

	if cfg.CheckHandles {
		if _, err := EnableLivenessCheck(); err != nil {
			return err
		}
	} else {
		DisableLivenessCheck()
	}

	Logger().Info("configured",
		zap.String("kernel", k.Name()),
		zap.Bool("check_handles", cfg.CheckHandles))
	return nil
}
