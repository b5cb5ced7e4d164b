//go:build wireinject
// +build wireinject

package boot

import (
	"github.com/google/wire"
)

func InitApp(configPath string) (*App, error) {
	wire.Build(ProviderSet)
	return nil, nil
}

func InitConsumer(configPath string) (*ConsumerApp, error) {
	wire.Build(ConsumerSet)
	return nil, nil
}

func InitConsolidator(configPath string) (*Consolidator, error) {
	wire.Build(ConsolidatorSet)
	return nil, nil
}
