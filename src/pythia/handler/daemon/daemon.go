// Package daemon implements the pythia daemon's JSON-RPC handlers.
package daemon

import (
	"context"
	"fmt"

	"github.com/gofrs/uuid"
	controller "github.com/pythia-ide/pythia/src/pythia/controller/daemon"
	"github.com/pythia-ide/pythia/src/pythia/entity"
	"github.com/pythia-ide/pythia/src/pythia/internal/jsonrpcfx"
	tally "github.com/uber-go/tally/v4"
	"go.lsp.dev/jsonrpc2"
)

// Handler accepts inbound JSON-RPC connections for the pythia daemon.
type Handler interface {
	jsonrpcfx.ConnectionManager
}

// New constructs a new daemon Handler and registers it to receive inbound connections.
func New(ctrl controller.Controller, jsonrpcmod jsonrpcfx.JSONRPCModule, stats tally.Scope) (Handler, error) {
	c := jsonRPCConnectionManager{
		ctrl:  ctrl,
		stats: stats.SubScope("json_rpc"),
	}
	if err := jsonrpcmod.RegisterConnectionManager(&c); err != nil {
		return nil, err
	}

	return &c, nil
}

type jsonRPCConnectionManager struct {
	ctrl  controller.Controller
	stats tally.Scope
}

// NewConnection will store a new connection and return a router that includes its UUID.
func (c *jsonRPCConnectionManager) NewConnection(ctx context.Context, conn *jsonrpc2.Conn) (router jsonrpcfx.Router, err error) {
	id, err := c.ctrl.InitSession(ctx, conn)
	if err != nil {
		return nil, fmt.Errorf("error while creating new connection: %w", err)
	}

	r := jsonRPCRouter{
		daemon: c.ctrl,
		uuid:   id,
		stats:  c.stats,
	}

	return &r, nil
}

// RemoveConnection cleans up a closed connection.
func (c *jsonRPCConnectionManager) RemoveConnection(ctx context.Context, id uuid.UUID) {
	// Ensure session is removed even if no Exit call has been received.
	ctx = context.WithValue(ctx, entity.SessionContextKey, id)
	c.ctrl.EndSession(ctx, id)
}
