package backend

import (
	"encoding/json"
	"fmt"
)

// Response is a single reply line from the backend worker.
// Exactly one of Completions or Errors is populated on success,
// depending on the requested method.
type Response struct {
	Success     bool             `json:"success"`
	Completions []CompletionPair `json:"completions,omitempty"`
	Errors      []LintError      `json:"errors,omitempty"`
	Error       string           `json:"error,omitempty"`
}

// CompletionPair is one completion entry. The backend sends either a plain
// string or a [display, insertion] pair.
type CompletionPair struct {
	Display   string
	Insertion string
}

// UnmarshalJSON accepts both wire shapes.
func (c *CompletionPair) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		c.Display = single
		c.Insertion = single
		return nil
	}

	var pair []string
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("completion entry is neither string nor pair: %w", err)
	}
	if len(pair) > 0 {
		c.Display = pair[0]
		c.Insertion = pair[0]
	}
	if len(pair) > 1 {
		c.Insertion = pair[1]
	}
	return nil
}

// MarshalJSON always emits the pair form.
func (c CompletionPair) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]string{c.Display, c.Insertion})
}

// LintError is one linter finding as sent by the backend.
// Line numbers are 1-based, offsets are 0-based columns.
type LintError struct {
	Level    string `json:"level"`
	Code     string `json:"code,omitempty"`
	Message  string `json:"message"`
	Line     int    `json:"lineno"`
	Offset   int    `json:"offset"`
	RawError string `json:"raw_error,omitempty"`
}
