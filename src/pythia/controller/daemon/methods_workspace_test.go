package daemon

import (
	"context"
	"errors"
	"testing"

	"github.com/gofrs/uuid"
	"github.com/pythia-ide/pythia/src/pythia/entity"
	"github.com/pythia-ide/pythia/src/pythia/entity/plugin"
	"github.com/pythia-ide/pythia/src/pythia/factory"
	"github.com/stretchr/testify/assert"
	"go.lsp.dev/protocol"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestWorkspaceMethods(t *testing.T) {
	s := &entity.Session{
		UUID: factory.UUID(),
	}
	ctx := context.WithValue(context.Background(), entity.SessionContextKey, s.UUID)

	observedCore, recorded := observer.New(zap.ErrorLevel)
	c := controller{
		logger:        zap.New(observedCore).Sugar(),
		pluginMethods: map[uuid.UUID]plugin.RuntimePrioritizedMethods{s.UUID: sampleWorkspaceMethods()},
	}

	t.Run(protocol.MethodWorkspaceDidChangeConfiguration, func(t *testing.T) {
		err := c.DidChangeConfiguration(ctx, &protocol.DidChangeConfigurationParams{})
		c.wg.Wait()
		assert.NoError(t, err)
		assert.Equal(t, 2, len(recorded.TakeAll()))
	})

	t.Run(protocol.MethodWorkspaceExecuteCommand, func(t *testing.T) {
		result, err := c.ExecuteCommand(ctx, &protocol.ExecuteCommandParams{})
		c.wg.Wait()
		assert.NoError(t, err)
		assert.Nil(t, result)
		assert.Equal(t, 2, len(recorded.TakeAll()))
	})
}

// sampleWorkspaceMethods a sample of RuntimePrioritizedMethods to be used for testing.
// For each method, simulates two assigned plugins: the first returns nil and the second returns an error.
func sampleWorkspaceMethods() plugin.RuntimePrioritizedMethods {
	success := &plugin.Methods{
		PluginNameKey: "sample1",
		DidChangeConfiguration: func(ctx context.Context, params *protocol.DidChangeConfigurationParams) error {
			return nil
		},
		ExecuteCommand: func(ctx context.Context, params *protocol.ExecuteCommandParams) error {
			return nil
		},
	}
	failure := &plugin.Methods{
		PluginNameKey: "sample2",
		DidChangeConfiguration: func(ctx context.Context, params *protocol.DidChangeConfigurationParams) error {
			return errors.New("sample")
		},
		ExecuteCommand: func(ctx context.Context, params *protocol.ExecuteCommandParams) error {
			return errors.New("sample")
		},
	}

	m := []*plugin.Methods{success, failure}
	return plugin.RuntimePrioritizedMethods{
		protocol.MethodWorkspaceDidChangeConfiguration: plugin.MethodLists{
			Sync:  m,
			Async: m,
		},
		protocol.MethodWorkspaceExecuteCommand: plugin.MethodLists{
			Sync:  m,
			Async: m,
		},
	}
}
