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

func TestCompletion(t *testing.T) {
	s := &entity.Session{
		UUID: factory.UUID(),
	}
	ctx := context.WithValue(context.Background(), entity.SessionContextKey, s.UUID)

	observedCore, recorded := observer.New(zap.ErrorLevel)
	c := controller{
		logger:        zap.New(observedCore).Sugar(),
		pluginMethods: map[uuid.UUID]plugin.RuntimePrioritizedMethods{s.UUID: sampleCodeIntelMethods()},
	}

	result, err := c.Completion(ctx, &protocol.CompletionParams{})
	c.wg.Wait()
	assert.NoError(t, err)
	assert.Equal(t, 2, len(recorded.TakeAll()))

	// Only the synchronous pass receives the shared result.
	assert.Len(t, result.Items, 3)
}

// sampleCodeIntelMethods a sample of RuntimePrioritizedMethods to be used for testing.
// Simulates two assigned plugins: the first fills the result and the second returns an error.
func sampleCodeIntelMethods() plugin.RuntimePrioritizedMethods {
	success := &plugin.Methods{
		PluginNameKey: "sample1",
		Completion: func(ctx context.Context, params *protocol.CompletionParams, result *protocol.CompletionList) error {
			if result == nil {
				return nil
			}
			result.Items = append(result.Items,
				protocol.CompletionItem{Label: "join\tos.path", InsertText: "join"},
				protocol.CompletionItem{Label: "exists\tos.path", InsertText: "exists"},
				protocol.CompletionItem{Label: "dirname\tos.path", InsertText: "dirname"},
			)
			return nil
		},
	}
	failure := &plugin.Methods{
		PluginNameKey: "sample2",
		Completion: func(ctx context.Context, params *protocol.CompletionParams, result *protocol.CompletionList) error {
			return errors.New("sample")
		},
	}

	m := []*plugin.Methods{success, failure}
	return plugin.RuntimePrioritizedMethods{
		protocol.MethodTextDocumentCompletion: plugin.MethodLists{
			Sync:  m,
			Async: m,
		},
	}
}
