package app

import (
	"context"
	"time"

	"github.com/pythia-ide/pythia/src/pythia/gateway"
	"github.com/pythia-ide/pythia/src/pythia/handler"
	"github.com/pythia-ide/pythia/src/pythia/internal/core"
	"github.com/pythia-ide/pythia/src/pythia/internal/executor"
	"github.com/pythia-ide/pythia/src/pythia/internal/fs"
	"github.com/pythia-ide/pythia/src/pythia/internal/jsonrpcfx"
	"github.com/pythia-ide/pythia/src/pythia/internal/pyworker"
	"github.com/pythia-ide/pythia/src/pythia/internal/serverinfofile"
	tally "github.com/uber-go/tally/v4"
	"go.uber.org/fx"
)

// Module defines the pythia daemon application module.
var Module = fx.Options(
	gateway.Module, // outbounds
	handler.Module, // inbounds
	jsonrpcfx.Module,
	fs.Module,
	executor.Module,
	pyworker.Module,
	serverinfofile.Module,
	core.ConfigModule,
	core.LoggerModule,
	fx.Provide(func(lc fx.Lifecycle) tally.Scope {
		rs, closer := tally.NewRootScope(tally.ScopeOptions{
			Tags: map[string]string{
				"service": "pythia",
			},
		}, 1*time.Second)

		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				return closer.Close()
			},
		})

		return rs
	}),
	fx.Decorate(decorateEnvContext),
	fx.Decorate(decorateConfigProvider),
	fx.Provide(func() Context {
		return Context{
			Environment:        "local",
			RuntimeEnvironment: "local",
		}
	}),
)
