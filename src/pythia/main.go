package main

import (
	"github.com/pythia-ide/pythia/src/pythia/app"
	"go.uber.org/fx"
)

// Stamped at build time via -ldflags "-X main._version=...".
var _version = "development"

func opts() fx.Option {
	return fx.Options(
		app.Module,
	)
}

func main() {
	// New to Fx? Brush up at https://uber-go.github.io/fx/.
	fx.New(opts()).Run()
}
