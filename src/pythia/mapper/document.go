package mapper

import (
	"strings"

	"go.lsp.dev/protocol"
	"go.lsp.dev/uri"
)

const _languageIDPython = "python"

// IsPythonDocument reports whether a document should be routed to a Python backend.
// The language identifier wins when the editor supplies one; otherwise the
// file extension decides.
func IsPythonDocument(doc protocol.TextDocumentItem) bool {
	if doc.LanguageID != "" {
		return doc.LanguageID == _languageIDPython
	}
	return hasPythonExtension(string(doc.URI))
}

// IsPythonURI reports whether a document URI points at a Python source file.
func IsPythonURI(u uri.URI) bool {
	return hasPythonExtension(string(u))
}

func hasPythonExtension(s string) bool {
	return strings.HasSuffix(s, ".py") || strings.HasSuffix(s, ".pyi")
}

// URIToFilename converts a document URI to a local path, or returns an empty
// string for untitled and other non-file schemes. The backend treats an
// empty filename as an in-memory buffer.
func URIToFilename(u uri.URI) string {
	if !strings.HasPrefix(string(u), "file://") {
		return ""
	}
	return u.Filename()
}

// ContentChangesToText returns the document text after applying a didChange
// event stream. The daemon registers full document sync, so every event
// carries the complete text and the last one wins.
func ContentChangesToText(current string, changes []protocol.TextDocumentContentChangeEvent) string {
	text := current
	for _, change := range changes {
		text = change.Text
	}
	return text
}
