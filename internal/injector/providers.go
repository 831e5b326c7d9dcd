package injector

import (
	"github.com/google/wire"
	"github.com/zeusync/scenecore/internal/config"
	"github.com/zeusync/scenecore/internal/core/observability/log"
	"github.com/zeusync/scenecore/internal/core/world"
)

// Runtime is what a process needs before it builds worlds.
type Runtime struct {
	Config *config.Config
	Logger *log.Logger
}

var RuntimeSet = wire.NewSet(
	ProvideConfig,
	ProvideLogger,
	wire.Struct(new(Runtime), "*"),
)

var WorldSet = wire.NewSet(
	ProvideWorldConfig,
	ProvideWorld,
)

// ProvideConfig loads path, or returns the defaults when path is empty.
func ProvideConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

// ProvideLogger builds the process logger; the cleanup flushes it.
func ProvideLogger(cfg *config.Config) (*log.Logger, func(), error) {
	logger, err := cfg.Logger()
	if err != nil {
		return nil, nil, err
	}
	return logger, func() { _ = logger.Sync() }, nil
}

func ProvideWorldConfig(cfg *config.Config) world.Config {
	return cfg.ToWorld()
}

// ProvideWorld builds and initializes a world; the cleanup shuts it down.
func ProvideWorld(cfg world.Config, logger log.Log) (*world.World, func()) {
	w := world.New(cfg, logger)
	w.Initialize()
	return w, w.Shutdown
}
