package gateway

import (
	notifier "github.com/pythia-ide/pythia/src/pythia/gateway/ide-client"
	"go.uber.org/fx"
)

// Module provides the daemon's outbound gateways to an Fx application.
var Module = fx.Options(
	fx.Provide(notifier.New),
)
