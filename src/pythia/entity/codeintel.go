package entity

// CompletionQuery carries one completion request against a window's backend.
// Line and Offset follow the backend's convention: lines are 1-based, the
// offset is the 0-based column of the cursor in runes.
type CompletionQuery struct {
	Source   string
	Line     int
	Offset   int
	Filename string
}

// Completion is a single proposal returned by the backend. Display is the
// label shown to the user and may include a tab-separated annotation suffix;
// Insertion is the text to insert on accept.
type Completion struct {
	Display   string
	Insertion string
}

// LintRequest carries one lint pass over a document's current text.
// Settings is forwarded to the backend linters untouched.
type LintRequest struct {
	Code     string
	Settings map[string]interface{}
	Filename string
}

// LintIssue is one finding reported by a backend linter.
type LintIssue struct {
	// Level is the backend's severity letter: "E" (error), "W" (warning)
	// or "V" (violation, style level).
	Level   string
	Code    string
	Message string
	// Line is 1-based, Offset is the 0-based column where the issue starts.
	Line   int
	Offset int
}
