// Package entity contains the domain types for the pythia daemon.
package entity

import (
	"github.com/gofrs/uuid"
	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
)

type keyType string

// SessionContextKey indicates the key to be used to identify the session UUID in the context.
const SessionContextKey keyType = "SessionUUID"

// Session represents a single editor window connected to the daemon.
// Each window holds exactly one JSON-RPC connection, so the session UUID
// doubles as the window identity for all worker bookkeeping.
type Session struct {
	UUID             uuid.UUID                  `json:"uuid" zap:"uuid"`
	InitializeParams *protocol.InitializeParams `json:"-" zap:"-"`
	Conn             *jsonrpc2.Conn             `json:"-" zap:"-"`
	ProjectFile      string                     `json:"projectFile" zap:"projectFile"`
	Folders          []string                   `json:"folders" zap:"folders"`
	Env              PythonEnv                  `json:"env" zap:"env"`
}

// PythonEnv holds the interpreter settings effective for one window.
// Zero values fall back to the daemon-wide configuration.
type PythonEnv struct {
	Interpreter string   `json:"interpreter" yaml:"interpreter"`
	ExtraPaths  []string `json:"extraPaths" yaml:"extraPaths"`
}

// Merge overlays o on top of e, with o taking precedence field by field.
func (e PythonEnv) Merge(o PythonEnv) PythonEnv {
	out := e
	if o.Interpreter != "" {
		out.Interpreter = o.Interpreter
	}
	if len(o.ExtraPaths) > 0 {
		out.ExtraPaths = o.ExtraPaths
	}
	return out
}

// Equal reports whether two settings blocks carry the same values.
func (e PythonEnv) Equal(o PythonEnv) bool {
	if e.Interpreter != o.Interpreter || len(e.ExtraPaths) != len(o.ExtraPaths) {
		return false
	}
	for i := range e.ExtraPaths {
		if e.ExtraPaths[i] != o.ExtraPaths[i] {
			return false
		}
	}
	return true
}

// InitializationOptions are the pythia-specific options an editor may pass
// in the initialize request.
type InitializationOptions struct {
	// ProjectFile is the path of the editor's project file for this window,
	// when one exists. Only its base name is used, for worker naming.
	ProjectFile string `json:"projectFile"`
}
