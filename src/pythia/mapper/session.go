package mapper

import (
	"context"
	"encoding/json"

	"github.com/gofrs/uuid"
	"github.com/pythia-ide/pythia/src/pythia/entity"
	"github.com/pythia-ide/pythia/src/pythia/internal/errors"
	"github.com/pythia-ide/pythia/src/pythia/model"
	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
	"go.lsp.dev/uri"
)

// SessionToModel maps a Session entity to its model equivalent.
func SessionToModel(f *entity.Session) *model.Session {
	return &model.Session{
		UUID:             f.UUID,
		InitializeParams: f.InitializeParams,
		Conn:             f.Conn,
		ProjectFile:      f.ProjectFile,
		Folders:          f.Folders,
		Interpreter:      f.Env.Interpreter,
		ExtraPaths:       f.Env.ExtraPaths,
	}
}

// ModelToSession maps a model Session to its entity equivalent.
func ModelToSession(f *model.Session) (*entity.Session, error) {
	return &entity.Session{
		UUID:             f.UUID,
		InitializeParams: f.InitializeParams,
		Conn:             f.Conn,
		ProjectFile:      f.ProjectFile,
		Folders:          f.Folders,
		Env: entity.PythonEnv{
			Interpreter: f.Interpreter,
			ExtraPaths:  f.ExtraPaths,
		},
	}, nil
}

// UUIDToSession initializes a new Session entity with the assigned uuid and connection.
func UUIDToSession(u uuid.UUID, c *jsonrpc2.Conn) *entity.Session {
	return &entity.Session{
		UUID: u,
		Conn: c,
	}
}

// InitializeParamsToSession fills the window metadata of a session from the initialize request.
func InitializeParamsToSession(params *protocol.InitializeParams, s *entity.Session) {
	s.InitializeParams = params

	s.Folders = make([]string, 0, len(params.WorkspaceFolders))
	for _, f := range params.WorkspaceFolders {
		s.Folders = append(s.Folders, uri.New(f.URI).Filename())
	}
	if len(s.Folders) == 0 && params.RootURI != "" {
		s.Folders = append(s.Folders, params.RootURI.Filename())
	}

	if params.InitializationOptions == nil {
		return
	}
	raw, err := json.Marshal(params.InitializationOptions)
	if err != nil {
		return
	}
	var opts entity.InitializationOptions
	if err := json.Unmarshal(raw, &opts); err != nil {
		return
	}
	s.ProjectFile = opts.ProjectFile
}

// ContextToSessionUUID extracts the UUID from a context.
func ContextToSessionUUID(c context.Context) (uuid.UUID, error) {
	s, ok := c.Value(entity.SessionContextKey).(uuid.UUID)
	if !ok {
		return uuid.Nil, &errors.NoSessionFoundError{}
	}
	return s, nil
}
