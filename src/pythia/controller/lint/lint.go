// Package lint runs the backend linters over saved documents and publishes
// the findings as diagnostics.
package lint

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/gofrs/uuid"
	docsync "github.com/pythia-ide/pythia/src/pythia/controller/doc-sync"
	"github.com/pythia-ide/pythia/src/pythia/entity/plugin"
	ideclient "github.com/pythia-ide/pythia/src/pythia/gateway/ide-client"
	pythiaerrors "github.com/pythia-ide/pythia/src/pythia/internal/errors"
	"github.com/pythia-ide/pythia/src/pythia/mapper"
	"github.com/pythia-ide/pythia/src/pythia/repository/session"
	"github.com/pythia-ide/pythia/src/pythia/repository/workers"
	tally "github.com/uber-go/tally/v4"
	"go.lsp.dev/protocol"
	"go.lsp.dev/uri"
	"go.uber.org/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	_nameKey   = "lint"
	_configKey = "lint"

	// CommandRunLinter requests an immediate lint pass over one document.
	// The single argument is {"uri": "<document uri>"}.
	CommandRunLinter = "pythia.runLinter"
)

// Config is the lint block of the daemon configuration. Settings is handed
// to the backend linters untouched.
type Config struct {
	OnSave   bool                   `yaml:"onSave"`
	Settings map[string]interface{} `yaml:"settings"`
}

// Controller defines the interface for the lint plugin.
type Controller interface {
	StartupInfo(ctx context.Context) (plugin.Info, error)
}

// Params are inbound parameters to initialize a new plugin.
type Params struct {
	fx.In

	Sessions   session.Repository
	Documents  docsync.Controller
	Workers    workers.Registry
	IdeGateway ideclient.Gateway
	Logger     *zap.SugaredLogger
	Stats      tally.Scope
	Config     config.Provider
}

// diagnosticStore remembers what was last published per document, so that
// edits and closes can clear stale findings without a backend round trip.
type diagnosticStore map[uuid.UUID]map[uri.URI][]protocol.Diagnostic

type controller struct {
	sessions   session.Repository
	documents  docsync.Controller
	workers    workers.Registry
	ideGateway ideclient.Gateway
	logger     *zap.SugaredLogger
	stats      tally.Scope
	onSave     bool
	settings   map[string]interface{}

	publishedMu sync.Mutex
	published   diagnosticStore
}

// New creates a new controller for lint runs.
func New(p Params) Controller {
	cfg := Config{OnSave: true}
	if err := p.Config.Get(_configKey).Populate(&cfg); err != nil {
		panic(fmt.Errorf("unable to load lint configuration: %w", err))
	}

	return &controller{
		sessions:   p.Sessions,
		documents:  p.Documents,
		workers:    p.Workers,
		ideGateway: p.IdeGateway,
		logger:     p.Logger.With("plugin", _nameKey),
		stats:      p.Stats.SubScope(_nameKey),
		onSave:     cfg.OnSave,
		settings:   cfg.Settings,
		published:  make(diagnosticStore),
	}
}

// StartupInfo returns plugin.Info for this controller.
func (c *controller) StartupInfo(ctx context.Context) (plugin.Info, error) {
	// Lint passes run asynchronously so that a slow backend never delays
	// the editor's own requests. Results arrive as publishDiagnostics
	// notifications rather than replies.
	priorities := map[string]plugin.Priority{
		protocol.MethodInitialize: plugin.PriorityRegular,

		protocol.MethodTextDocumentDidOpen:   plugin.PriorityAsync,
		protocol.MethodTextDocumentDidChange: plugin.PriorityAsync,
		protocol.MethodTextDocumentDidSave:   plugin.PriorityAsync,
		protocol.MethodTextDocumentDidClose:  plugin.PriorityAsync,

		protocol.MethodWorkspaceExecuteCommand: plugin.PriorityAsync,
		plugin.MethodEndSession:                plugin.PriorityRegular,
	}

	methods := &plugin.Methods{
		PluginNameKey: _nameKey,

		Initialize: c.initialize,

		DidOpen:   c.didOpen,
		DidChange: c.didChange,
		DidSave:   c.didSave,
		DidClose:  c.didClose,

		ExecuteCommand: c.executeCommand,
		EndSession:     c.endSession,
	}

	return plugin.Info{
		Priorities: priorities,
		Methods:    methods,
		NameKey:    _nameKey,
	}, nil
}

// initialize advertises the lint command for this server.
func (c *controller) initialize(ctx context.Context, params *protocol.InitializeParams, result *protocol.InitializeResult) error {
	return mapper.InitializeResultAppendExecuteCommandProvider(result, &protocol.ExecuteCommandOptions{
		Commands: []string{CommandRunLinter},
	})
}

// didOpen lints a document as soon as it is opened.
func (c *controller) didOpen(ctx context.Context, params *protocol.DidOpenTextDocumentParams) error {
	return c.lintAndPublish(ctx, protocol.TextDocumentIdentifier{URI: params.TextDocument.URI})
}

// didChange clears previously published findings, which refer to positions
// in text that no longer exists. The next save produces a fresh set.
func (c *controller) didChange(ctx context.Context, params *protocol.DidChangeTextDocumentParams) error {
	return c.clearPublished(ctx, params.TextDocument.TextDocumentIdentifier.URI, false)
}

// didSave lints the saved document when lint-on-save is enabled.
func (c *controller) didSave(ctx context.Context, params *protocol.DidSaveTextDocumentParams) error {
	if !c.onSave {
		return nil
	}
	return c.lintAndPublish(ctx, params.TextDocument)
}

// didClose retracts any findings for the closed document.
func (c *controller) didClose(ctx context.Context, params *protocol.DidCloseTextDocumentParams) error {
	return c.clearPublished(ctx, params.TextDocument.URI, true)
}

// executeCommand serves explicit lint requests from the editor.
func (c *controller) executeCommand(ctx context.Context, params *protocol.ExecuteCommandParams) error {
	if params.Command != CommandRunLinter {
		return nil
	}

	if len(params.Arguments) != 1 {
		return fmt.Errorf("%s expects a single {\"uri\": ...} argument", CommandRunLinter)
	}
	raw, ok := params.Arguments[0].([]byte)
	if !ok {
		return fmt.Errorf("%s argument should be provided as raw json", CommandRunLinter)
	}
	var arg struct {
		URI uri.URI `json:"uri"`
	}
	if err := json.Unmarshal(raw, &arg); err != nil {
		return fmt.Errorf("decoding %s argument: %w", CommandRunLinter, err)
	}

	return c.lintAndPublish(ctx, protocol.TextDocumentIdentifier{URI: arg.URI})
}

// endSession drops the published state for a closed window.
func (c *controller) endSession(ctx context.Context, uuid uuid.UUID) error {
	c.publishedMu.Lock()
	defer c.publishedMu.Unlock()
	delete(c.published, uuid)
	return nil
}

// lintAndPublish runs the backend linters over the document's current text
// and pushes the findings to the editor. Backend trouble of any kind keeps
// whatever was last published rather than surfacing an error.
func (c *controller) lintAndPublish(ctx context.Context, docID protocol.TextDocumentIdentifier) error {
	doc, err := c.documents.GetTextDocument(ctx, docID)
	if err != nil {
		// Untracked documents, such as those over the size limit, are not linted.
		c.logger.Debugw("skipping lint for untracked document", "uri", docID.URI, "error", err)
		return nil
	}

	if !mapper.IsPythonDocument(doc) {
		return nil
	}

	s, err := c.sessions.GetFromContext(ctx)
	if err != nil {
		return err
	}

	c.stats.Counter("requests").Inc(1)
	sw := c.stats.Timer("latency").Start()
	defer sw.Stop()

	w, err := c.workers.Lookup(ctx, s)
	if err != nil {
		c.countFailure(err)
		c.logger.Warnw("lint unavailable, no backend worker", "uri", docID.URI, "error", err)
		return nil
	}

	issues, err := w.RunLinter(ctx, mapper.LintRequestFromDocument(doc, c.settings))
	if err != nil {
		c.countFailure(err)
		c.logger.Warnw("lint request failed", "uri", docID.URI, "error", err)
		return nil
	}

	// An empty issue list is still published so that resolved findings
	// disappear from the editor.
	diagnostics := mapper.IssuesToDiagnostics(issues)
	if err := c.ideGateway.PublishDiagnostics(ctx, &protocol.PublishDiagnosticsParams{
		URI:         doc.URI,
		Diagnostics: diagnostics,
	}); err != nil {
		c.logger.Warnw("publishing diagnostics failed", "uri", doc.URI, "error", err)
		return nil
	}

	c.setPublished(s.UUID, doc.URI, diagnostics)
	return nil
}

// clearPublished retracts the findings for one document when any were
// previously published. With forget set the document is dropped entirely.
func (c *controller) clearPublished(ctx context.Context, docURI uri.URI, forget bool) error {
	s, err := c.sessions.GetFromContext(ctx)
	if err != nil {
		return err
	}

	c.publishedMu.Lock()
	last, hadFindings := c.published[s.UUID][docURI]
	if forget {
		delete(c.published[s.UUID], docURI)
	} else if hadFindings {
		c.published[s.UUID][docURI] = nil
	}
	c.publishedMu.Unlock()

	if !hadFindings || len(last) == 0 {
		return nil
	}

	return c.ideGateway.PublishDiagnostics(ctx, &protocol.PublishDiagnosticsParams{
		URI:         docURI,
		Diagnostics: []protocol.Diagnostic{},
	})
}

func (c *controller) setPublished(id uuid.UUID, docURI uri.URI, diagnostics []protocol.Diagnostic) {
	c.publishedMu.Lock()
	defer c.publishedMu.Unlock()
	if _, ok := c.published[id]; !ok {
		c.published[id] = make(map[uri.URI][]protocol.Diagnostic)
	}
	c.published[id][docURI] = diagnostics
}

func (c *controller) countFailure(err error) {
	c.stats.Counter("failures").Inc(1)
	if pythiaerrors.IsRequestTimeout(err) {
		c.stats.Counter("timeouts").Inc(1)
	}
}
