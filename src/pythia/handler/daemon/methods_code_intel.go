package daemon

import (
	"context"

	"github.com/pythia-ide/pythia/src/pythia/mapper"
	"go.lsp.dev/jsonrpc2"
)

func (r *jsonRPCRouter) Completion(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	params, err := mapper.RequestToCompletionParams(req)
	if err != nil {
		return reply(ctx, nil, err)
	}

	result, err := r.daemon.Completion(ctx, params)
	return reply(ctx, result, err)
}
