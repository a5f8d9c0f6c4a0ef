package plugin

import (
	"context"
	"fmt"

	"github.com/gofrs/uuid"
	"go.lsp.dev/protocol"
)

const (
	_errorUnrecognizedMethod = "%q included in priority config, but is not a recognized method. Method name must be a valid LSP method. If method is new to pythia, ensure that plugin.Validate is updated."
	_errorMissingMethod      = "%q is included in the priority configuration, but is nil in Methods"
	_errorMissingField       = "missing %q field for this plugin"

	// MethodEndSession is an additional method outside of LSP protocol, which is called when the JSON-RPC connection has been closed.
	// This should be used to ensure cleanup of resources even if the client exits before calling 'shutdown' and 'exit'.
	MethodEndSession = "end_session"
)

// RuntimePrioritizedMethods represents ordered list of modules to run for a given method.
type RuntimePrioritizedMethods map[string]MethodLists

// MethodLists maintains ordered list of modules to run, segmented by sync and async.
type MethodLists struct {
	Sync  []*Methods
	Async []*Methods
}

// Priority represents the ranked priority in which a plugin method will be run for a given method.
type Priority int64

const (
	// PriorityHigh for plugin methods that should be run in the highest priority group.
	PriorityHigh Priority = iota
	// PriorityRegular for plugins methods that should be run with regular priority.
	PriorityRegular
	// PriorityAsync for plugin methods that should be run asynchronously and won't be included in the response.
	PriorityAsync
)

// Plugin defines a plugin which contributes a portion of the daemon's functionality.
type Plugin interface {
	StartupInfo(ctx context.Context) (Info, error)
}

// Methods defines methods which can be optionally implemented by a module, based on the protocol.Server interface.
type Methods struct {
	// PluginNameKey identifies the name of the plugin that provides these method implementations.
	PluginNameKey string

	// Lifecycle related methods.
	Initialize  func(ctx context.Context, params *protocol.InitializeParams, result *protocol.InitializeResult) error
	Initialized func(ctx context.Context, params *protocol.InitializedParams) error
	Shutdown    func(ctx context.Context) error
	Exit        func(ctx context.Context) error

	// Document related methods.
	DidOpen   func(ctx context.Context, params *protocol.DidOpenTextDocumentParams) error
	DidChange func(ctx context.Context, params *protocol.DidChangeTextDocumentParams) error
	DidClose  func(ctx context.Context, params *protocol.DidCloseTextDocumentParams) error
	DidSave   func(ctx context.Context, params *protocol.DidSaveTextDocumentParams) error

	// Codeintel related methods.
	Completion func(ctx context.Context, params *protocol.CompletionParams, result *protocol.CompletionList) error

	// Workspace related methods.
	DidChangeConfiguration func(ctx context.Context, params *protocol.DidChangeConfigurationParams) error
	ExecuteCommand         func(ctx context.Context, params *protocol.ExecuteCommandParams) error

	// Connection related methods outside of the LSP protocol.
	EndSession func(ctx context.Context, uuid uuid.UUID) error
}

// Info provides both prioritization for each method, as well as access to call each method implemented by this plugin.
type Info struct {
	Priorities map[string]Priority
	Methods    *Methods
	NameKey    string
}

// Validate provides runtime validation that a Plugin implementation returns valid Info.
func (m *Info) Validate() error {
	// Required fields.
	if len(m.Priorities) == 0 {
		return fmt.Errorf(_errorMissingField, "Priorities")
	} else if m.Methods == nil {
		return fmt.Errorf(_errorMissingField, "Methods")
	} else if m.NameKey == "" {
		return fmt.Errorf(_errorMissingField, "NameKey")
	} else if m.Methods.PluginNameKey != m.NameKey {
		return fmt.Errorf(_errorMissingField, "Methods.PluginNameKey")
	}

	// Each configuration key must have a matching entry in Methods.
	for key := range m.Priorities {
		switch key {
		// Lifecycle related methods.
		case protocol.MethodInitialize:
			if m.Methods.Initialize == nil {
				return fmt.Errorf(_errorMissingMethod, key)
			}
		case protocol.MethodInitialized:
			if m.Methods.Initialized == nil {
				return fmt.Errorf(_errorMissingMethod, key)
			}
		case protocol.MethodShutdown:
			if m.Methods.Shutdown == nil {
				return fmt.Errorf(_errorMissingMethod, key)
			}
		case protocol.MethodExit:
			if m.Methods.Exit == nil {
				return fmt.Errorf(_errorMissingMethod, key)
			}
		// Document related methods.
		case protocol.MethodTextDocumentDidOpen:
			if m.Methods.DidOpen == nil {
				return fmt.Errorf(_errorMissingMethod, key)
			}
		case protocol.MethodTextDocumentDidChange:
			if m.Methods.DidChange == nil {
				return fmt.Errorf(_errorMissingMethod, key)
			}
		case protocol.MethodTextDocumentDidClose:
			if m.Methods.DidClose == nil {
				return fmt.Errorf(_errorMissingMethod, key)
			}
		case protocol.MethodTextDocumentDidSave:
			if m.Methods.DidSave == nil {
				return fmt.Errorf(_errorMissingMethod, key)
			}
		// Codeintel related methods.
		case protocol.MethodTextDocumentCompletion:
			if m.Methods.Completion == nil {
				return fmt.Errorf(_errorMissingMethod, key)
			}
		// Workspace related methods.
		case protocol.MethodWorkspaceDidChangeConfiguration:
			if m.Methods.DidChangeConfiguration == nil {
				return fmt.Errorf(_errorMissingMethod, key)
			}
		case protocol.MethodWorkspaceExecuteCommand:
			if m.Methods.ExecuteCommand == nil {
				return fmt.Errorf(_errorMissingMethod, key)
			}

		case MethodEndSession:
			if m.Methods.EndSession == nil {
				return fmt.Errorf(_errorMissingMethod, key)
			}

		default:
			return fmt.Errorf(_errorUnrecognizedMethod, key)
		}
	}
	return nil
}
