package plugin

import (
	"context"
	"testing"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"go.lsp.dev/protocol"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name       string
		priorities []map[string]Priority
		methods    *Methods
		nameKey    string
		wantErr    bool
	}{
		{
			name: "valid info",
			priorities: []map[string]Priority{
				{
					protocol.MethodInitialize:                      PriorityHigh,
					protocol.MethodInitialized:                     PriorityHigh,
					protocol.MethodShutdown:                        PriorityHigh,
					protocol.MethodExit:                            PriorityHigh,
					protocol.MethodTextDocumentDidOpen:             PriorityHigh,
					protocol.MethodTextDocumentDidChange:           PriorityHigh,
					protocol.MethodTextDocumentDidClose:            PriorityHigh,
					protocol.MethodTextDocumentDidSave:             PriorityHigh,
					protocol.MethodTextDocumentCompletion:          PriorityHigh,
					protocol.MethodWorkspaceDidChangeConfiguration: PriorityHigh,
					protocol.MethodWorkspaceExecuteCommand:         PriorityHigh,
					MethodEndSession:                               PriorityHigh,
				},
			},
			methods: &Methods{
				PluginNameKey: "sample-plugin",
				Initialize: func(ctx context.Context, params *protocol.InitializeParams, result *protocol.InitializeResult) error {
					return nil
				},
				Initialized: func(ctx context.Context, params *protocol.InitializedParams) error { return nil },
				Shutdown:    func(ctx context.Context) error { return nil },
				Exit:        func(ctx context.Context) error { return nil },
				DidOpen:     func(ctx context.Context, params *protocol.DidOpenTextDocumentParams) error { return nil },
				DidChange:   func(ctx context.Context, params *protocol.DidChangeTextDocumentParams) error { return nil },
				DidClose:    func(ctx context.Context, params *protocol.DidCloseTextDocumentParams) error { return nil },
				DidSave:     func(ctx context.Context, params *protocol.DidSaveTextDocumentParams) error { return nil },
				Completion: func(ctx context.Context, params *protocol.CompletionParams, result *protocol.CompletionList) error {
					return nil
				},
				DidChangeConfiguration: func(ctx context.Context, params *protocol.DidChangeConfigurationParams) error { return nil },
				ExecuteCommand:         func(ctx context.Context, params *protocol.ExecuteCommandParams) error { return nil },
				EndSession:             func(ctx context.Context, uuid uuid.UUID) error { return nil },
			},
			nameKey: "sample-plugin",
			wantErr: false,
		},
		{
			name: "nil method",
			priorities: []map[string]Priority{
				{
					protocol.MethodInitialize: PriorityHigh,
				},
				{
					protocol.MethodInitialized: PriorityHigh,
				},
				{
					protocol.MethodShutdown: PriorityHigh,
				},
				{
					protocol.MethodExit: PriorityHigh,
				},
				{
					protocol.MethodTextDocumentDidOpen: PriorityHigh,
				},
				{
					protocol.MethodTextDocumentDidChange: PriorityHigh,
				},
				{
					protocol.MethodTextDocumentDidClose: PriorityHigh,
				},
				{
					protocol.MethodTextDocumentDidSave: PriorityHigh,
				},
				{
					protocol.MethodTextDocumentCompletion: PriorityHigh,
				},
				{
					protocol.MethodWorkspaceDidChangeConfiguration: PriorityHigh,
				},
				{
					protocol.MethodWorkspaceExecuteCommand: PriorityHigh,
				},
				{
					MethodEndSession: PriorityHigh,
				},
			},
			methods: &Methods{PluginNameKey: "sample-plugin"},
			nameKey: "sample-plugin",
			wantErr: true,
		},
		{
			name: "empty priorities",
			priorities: []map[string]Priority{
				{},
			},
			methods: &Methods{PluginNameKey: "sample-plugin"},
			nameKey: "sample-plugin",
			wantErr: true,
		},
		{
			name: "missing all methods",
			priorities: []map[string]Priority{
				{
					protocol.MethodTextDocumentDidOpen: PriorityHigh,
				},
			},
			nameKey: "sample-plugin",
			wantErr: true,
		},
		{
			name: "unknown method name",
			priorities: []map[string]Priority{
				{
					"invalidMethodName": PriorityHigh,
				},
			},
			nameKey: "sample-plugin",
			methods: &Methods{PluginNameKey: "sample-plugin"},
			wantErr: true,
		},
		{
			name: "missing name key",
			priorities: []map[string]Priority{
				{
					protocol.MethodTextDocumentDidOpen: PriorityHigh,
				},
			},
			methods: &Methods{PluginNameKey: "sample-plugin"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, p := range tt.priorities {
				info := Info{
					Priorities: p,
					Methods:    tt.methods,
					NameKey:    tt.nameKey,
				}

				err := info.Validate()
				if tt.wantErr {
					assert.Error(t, err)
				} else {
					assert.NoError(t, err)
				}
			}
		})
	}
}
