package controller

import (
	"github.com/pythia-ide/pythia/src/pythia/controller/completion"
	"github.com/pythia-ide/pythia/src/pythia/controller/daemon"
	docsync "github.com/pythia-ide/pythia/src/pythia/controller/doc-sync"
	"github.com/pythia-ide/pythia/src/pythia/controller/lint"
	"github.com/pythia-ide/pythia/src/pythia/controller/supervisor"
	"go.uber.org/fx"
)

var Module = fx.Options(
	fx.Provide(daemon.New),
	fx.Provide(docsync.New),
	fx.Provide(completion.New),
	fx.Provide(lint.New),
	fx.Provide(supervisor.New),
)
