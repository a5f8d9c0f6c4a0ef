package mapper

import (
	"strings"

	"github.com/pythia-ide/pythia/src/pythia/entity"
	"go.lsp.dev/protocol"
)

// CompletionQueryFromDocument builds a backend completion query for a cursor
// position in a document. The backend expects a 1-based line and a 0-based
// rune column, while LSP positions count UTF-16 code units.
func CompletionQueryFromDocument(doc protocol.TextDocumentItem, pos protocol.Position) entity.CompletionQuery {
	return entity.CompletionQuery{
		Source:   doc.Text,
		Line:     int(pos.Line) + 1,
		Offset:   runeColumn(lineAt(doc.Text, int(pos.Line)), int(pos.Character)),
		Filename: URIToFilename(doc.URI),
	}
}

// CompletionsToList maps backend completions to an LSP completion list.
// The backend's display string may carry a tab-separated annotation, which
// becomes the item detail.
func CompletionsToList(completions []entity.Completion) *protocol.CompletionList {
	items := make([]protocol.CompletionItem, 0, len(completions))
	for _, c := range completions {
		label, detail, _ := strings.Cut(c.Display, "\t")
		insert := c.Insertion
		if insert == "" {
			insert = label
		}
		items = append(items, protocol.CompletionItem{
			Label:      label,
			Detail:     detail,
			InsertText: insert,
		})
	}
	return &protocol.CompletionList{
		IsIncomplete: false,
		Items:        items,
	}
}

// lineAt returns the i-th line (0-based) of text, without its terminator.
func lineAt(text string, i int) string {
	lines := strings.Split(text, "\n")
	if i < 0 || i >= len(lines) {
		return ""
	}
	return strings.TrimSuffix(lines[i], "\r")
}

// runeColumn converts a 0-based UTF-16 offset within a line to a rune column.
// Offsets beyond the end of the line clamp to its rune length.
func runeColumn(line string, utf16Offset int) int {
	col := 0
	units := 0
	for _, r := range line {
		if units >= utf16Offset {
			return col
		}
		units++
		if r > 0xFFFF {
			units++
		}
		col++
	}
	return col
}
