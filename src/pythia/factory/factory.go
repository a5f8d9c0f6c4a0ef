package factory

import (
	"context"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/pythia-ide/pythia/src/pythia/entity/plugin"
	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
)

// UUID is a user-defined factory for a random uuid.UUID.
func UUID() uuid.UUID {
	return uuid.Must(uuid.NewV4())
}

// JSONRPCRequest is a user-defined factory for a JSON-RPC request containing the specified method and parameters.
func JSONRPCRequest(method string, params interface{}) jsonrpc2.Request {
	req, _ := jsonrpc2.NewCall(jsonrpc2.NewNumberID(5), method, params)
	return req
}

// PluginInfoValid is a factory for plugin.Info that passes validation.
func PluginInfoValid(id int) plugin.Info {
	sampleDidOpenFunc := func(ctx context.Context, params *protocol.DidOpenTextDocumentParams) error {
		return nil
	}
	return plugin.Info{
		Priorities: map[string]plugin.Priority{
			protocol.MethodTextDocumentDidOpen: plugin.PriorityHigh,
		},
		Methods: &plugin.Methods{
			PluginNameKey: fmt.Sprintf("test-plugin-%v", id),

			DidOpen: sampleDidOpenFunc,
		},
		NameKey: fmt.Sprintf("test-plugin-%v", id),
	}
}

// PluginInfoInvalid is a factory for plugin.Info that fails validation.
func PluginInfoInvalid(id int) plugin.Info {
	return plugin.Info{
		Priorities: map[string]plugin.Priority{
			protocol.MethodTextDocumentDidOpen: plugin.PriorityHigh,
		},
		Methods: &plugin.Methods{},
		NameKey: fmt.Sprintf("test-plugin-%v", id),
	}
}
