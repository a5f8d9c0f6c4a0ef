package mapper

import (
	"fmt"

	"go.lsp.dev/protocol"
)

// InitializeResultEnsureCompletionProvider ensures the completion provider capability is set,
// combining trigger characters from all plugins that request them.
func InitializeResultEnsureCompletionProvider(initResult *protocol.InitializeResult, triggerCharacters []string) {
	if initResult == nil {
		return
	}
	if initResult.Capabilities.CompletionProvider == nil {
		initResult.Capabilities.CompletionProvider = &protocol.CompletionOptions{}
	}

	seen := map[string]struct{}{}
	for _, c := range initResult.Capabilities.CompletionProvider.TriggerCharacters {
		seen[c] = struct{}{}
	}
	for _, c := range triggerCharacters {
		if _, ok := seen[c]; !ok {
			initResult.Capabilities.CompletionProvider.TriggerCharacters = append(initResult.Capabilities.CompletionProvider.TriggerCharacters, c)
		}
	}
}

// InitializeResultAppendExecuteCommandProvider appends ExecuteCommandOptions into an existing InitializeResult.
// Commands must be unique across all plugins, and this function will fail if a duplicate is found.
func InitializeResultAppendExecuteCommandProvider(initResult *protocol.InitializeResult, newOptions *protocol.ExecuteCommandOptions) error {
	if initResult.Capabilities.ExecuteCommandProvider == nil {
		initResult.Capabilities.ExecuteCommandProvider = newOptions
		return nil
	}

	if newOptions.Commands == nil {
		return nil
	}

	if initResult.Capabilities.ExecuteCommandProvider.Commands == nil {
		initResult.Capabilities.ExecuteCommandProvider.Commands = newOptions.Commands
	} else {
		seen := map[string]interface{}{}
		combined := []string{}
		for _, cmd := range initResult.Capabilities.ExecuteCommandProvider.Commands {
			seen[cmd] = struct{}{}
			combined = append(combined, cmd)
		}
		for _, cmd := range newOptions.Commands {
			if _, ok := seen[cmd]; ok {
				return fmt.Errorf("command %q in ExecuteCommandOptions already exists and cannot be duplicated", cmd)
			}
			combined = append(combined, cmd)
		}
		initResult.Capabilities.ExecuteCommandProvider.Commands = combined
	}

	return nil
}
