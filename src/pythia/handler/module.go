package handler

import (
	controller "github.com/pythia-ide/pythia/src/pythia/controller"
	pythiadaemon "github.com/pythia-ide/pythia/src/pythia/controller/daemon"
	handler "github.com/pythia-ide/pythia/src/pythia/handler/daemon"
	"github.com/pythia-ide/pythia/src/pythia/repository/session"
	"github.com/pythia-ide/pythia/src/pythia/repository/workers"
	"go.uber.org/fx"
)

// Module provides the pythia daemon server into an Fx application.
var Module = fx.Options(
	controller.Module,
	workers.Module,
	fx.Provide(session.New),
	fx.Provide(handler.New),
	fx.Invoke(outputProcessInfo),
	fx.Invoke(func(m handler.Handler) {}),
	fx.Invoke(func(m pythiadaemon.Controller) {}),
)
