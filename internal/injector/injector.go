//go:build wireinject
// +build wireinject

// The build tag makes sure the stub is not built in the final build.

package injector

import (
	"github.com/google/wire"
	"github.com/zeusync/scenecore/internal/config"
	"github.com/zeusync/scenecore/internal/core/observability/log"
	"github.com/zeusync/scenecore/internal/core/world"
)

func InitializeRuntime(path string) (*Runtime, func(), error) {
	wire.Build(RuntimeSet)
	return nil, nil, nil
}

func InitializeWorld(cfg *config.Config, logger log.Log) (*world.World, func()) {
	wire.Build(WorldSet)
	return nil, nil
}
