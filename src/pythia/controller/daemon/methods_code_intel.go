package daemon

import (
	"context"
	"fmt"

	"github.com/pythia-ide/pythia/src/pythia/entity/plugin"
	"go.lsp.dev/protocol"
)

func (c *controller) Completion(ctx context.Context, params *protocol.CompletionParams) (*protocol.CompletionList, error) {
	result := &protocol.CompletionList{
		Items: []protocol.CompletionItem{},
	}

	callSync := func(ctx context.Context, m *plugin.Methods) {
		if err := m.Completion(ctx, params, result); err != nil {
			c.logger.Errorf(_errPluginReturnedError, m.PluginNameKey, err)
		}
	}
	callAsync := func(ctx context.Context, m *plugin.Methods) {
		if err := m.Completion(ctx, params, nil); err != nil {
			c.logger.Errorf(_errPluginReturnedError, m.PluginNameKey, err)
		}
	}

	if err := c.executePluginMethods(ctx, protocol.MethodTextDocumentCompletion, callSync, callAsync); err != nil {
		return nil, fmt.Errorf(_errBadPluginCall, err)
	}

	return result, nil
}
