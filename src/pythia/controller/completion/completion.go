// Package completion serves textDocument/completion requests from a window's backend worker.
package completion

import (
	"context"

	docsync "github.com/pythia-ide/pythia/src/pythia/controller/doc-sync"
	"github.com/pythia-ide/pythia/src/pythia/entity/plugin"
	pythiaerrors "github.com/pythia-ide/pythia/src/pythia/internal/errors"
	"github.com/pythia-ide/pythia/src/pythia/mapper"
	"github.com/pythia-ide/pythia/src/pythia/repository/session"
	"github.com/pythia-ide/pythia/src/pythia/repository/workers"
	tally "github.com/uber-go/tally/v4"
	"go.lsp.dev/protocol"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const _nameKey = "completion"

// Controller defines the interface for the completion plugin.
type Controller interface {
	StartupInfo(ctx context.Context) (plugin.Info, error)
}

// Params are inbound parameters to initialize a new plugin.
type Params struct {
	fx.In

	Sessions  session.Repository
	Documents docsync.Controller
	Workers   workers.Registry
	Logger    *zap.SugaredLogger
	Stats     tally.Scope
}

type controller struct {
	sessions  session.Repository
	documents docsync.Controller
	workers   workers.Registry
	logger    *zap.SugaredLogger
	stats     tally.Scope
}

// New creates a new controller for completion requests.
func New(p Params) Controller {
	return &controller{
		sessions:  p.Sessions,
		documents: p.Documents,
		workers:   p.Workers,
		logger:    p.Logger.With("plugin", _nameKey),
		stats:     p.Stats.SubScope(_nameKey),
	}
}

// StartupInfo returns plugin.Info for this controller.
func (c *controller) StartupInfo(ctx context.Context) (plugin.Info, error) {
	priorities := map[string]plugin.Priority{
		protocol.MethodInitialize:             plugin.PriorityRegular,
		protocol.MethodTextDocumentCompletion: plugin.PriorityRegular,
	}

	methods := &plugin.Methods{
		PluginNameKey: _nameKey,

		Initialize: c.initialize,
		Completion: c.completion,
	}

	return plugin.Info{
		Priorities: priorities,
		Methods:    methods,
		NameKey:    _nameKey,
	}, nil
}

// initialize advertises the completion capability for this server.
func (c *controller) initialize(ctx context.Context, params *protocol.InitializeParams, result *protocol.InitializeResult) error {
	mapper.InitializeResultEnsureCompletionProvider(result, []string{"."})
	return nil
}

// completion asks the window's backend for proposals at the cursor position.
// Backend trouble of any kind leaves the result empty rather than surfacing
// an error, so a dead or slow worker degrades to no proposals.
func (c *controller) completion(ctx context.Context, params *protocol.CompletionParams, result *protocol.CompletionList) error {
	doc, err := c.documents.GetTextDocument(ctx, params.TextDocument)
	if err != nil {
		// Untracked documents, such as those over the size limit, get no proposals.
		c.logger.Debugw("skipping completion for untracked document", "uri", params.TextDocument.URI, "error", err)
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
		c.logger.Warnw("completion unavailable, no backend worker", "uri", params.TextDocument.URI, "error", err)
		return nil
	}

	completions, err := w.Autocomplete(ctx, mapper.CompletionQueryFromDocument(doc, params.Position))
	if err != nil {
		c.countFailure(err)
		c.logger.Warnw("completion request failed", "uri", params.TextDocument.URI, "error", err)
		return nil
	}

	*result = *mapper.CompletionsToList(completions)
	return nil
}

func (c *controller) countFailure(err error) {
	c.stats.Counter("failures").Inc(1)
	if pythiaerrors.IsRequestTimeout(err) {
		c.stats.Counter("timeouts").Inc(1)
	}
}
