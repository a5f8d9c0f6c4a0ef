package mapper

import (
	"github.com/pythia-ide/pythia/src/pythia/entity"
	"go.lsp.dev/protocol"
)

const _diagnosticSource = "pythia"

// LintRequestFromDocument builds a backend lint request for a document's
// current text. Settings are forwarded to the backend untouched.
func LintRequestFromDocument(doc protocol.TextDocumentItem, settings map[string]interface{}) entity.LintRequest {
	return entity.LintRequest{
		Code:     doc.Text,
		Settings: settings,
		Filename: URIToFilename(doc.URI),
	}
}

// IssuesToDiagnostics maps backend lint findings to LSP diagnostics.
func IssuesToDiagnostics(issues []entity.LintIssue) []protocol.Diagnostic {
	diagnostics := make([]protocol.Diagnostic, 0, len(issues))
	for _, issue := range issues {
		line := issue.Line - 1
		if line < 0 {
			line = 0
		}
		offset := issue.Offset
		if offset < 0 {
			offset = 0
		}
		pos := protocol.Position{Line: uint32(line), Character: uint32(offset)}
		diagnostic := protocol.Diagnostic{
			Range:    protocol.Range{Start: pos, End: pos},
			Severity: severityFromLevel(issue.Level),
			Source:   _diagnosticSource,
			Message:  issue.Message,
		}
		// PyFlakes findings carry no code; leave the field unset rather
		// than sending an empty string.
		if issue.Code != "" {
			diagnostic.Code = issue.Code
		}
		diagnostics = append(diagnostics, diagnostic)
	}
	return diagnostics
}

// severityFromLevel maps the backend's severity letters to LSP severities.
// "E" marks errors, "W" warnings; anything else (style violations) maps to
// information.
func severityFromLevel(level string) protocol.DiagnosticSeverity {
	switch level {
	case "E":
		return protocol.DiagnosticSeverityError
	case "W":
		return protocol.DiagnosticSeverityWarning
	default:
		return protocol.DiagnosticSeverityInformation
	}
}
