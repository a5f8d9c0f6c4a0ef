// Package docsync tracks the authoritative text of the documents open in each editor window.
package docsync

import (
	"context"
	"fmt"
	"sync"

	"github.com/gofrs/uuid"
	"github.com/pythia-ide/pythia/src/pythia/entity/plugin"
	pythiaerrors "github.com/pythia-ide/pythia/src/pythia/internal/errors"
	"github.com/pythia-ide/pythia/src/pythia/mapper"
	"github.com/pythia-ide/pythia/src/pythia/repository/session"
	tally "github.com/uber-go/tally/v4"
	"go.lsp.dev/protocol"
	"go.uber.org/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	_nameKey        = "doc-sync"
	_maxFileSizeKey = "maxFileSizeBytes"
)

// Controller defines the interface for a document sync controller.
type Controller interface {
	StartupInfo(ctx context.Context) (plugin.Info, error)

	// Returns the current version of the text document as of the last received DidChange event.
	// Backend requests read buffer contents from here rather than from disk.
	GetTextDocument(ctx context.Context, doc protocol.TextDocumentIdentifier) (protocol.TextDocumentItem, error)
}

// Params are inbound parameters to initialize a new plugin.
type Params struct {
	fx.In

	Sessions session.Repository
	Logger   *zap.SugaredLogger
	Stats    tally.Scope
	Config   config.Provider
}

type documentStore map[uuid.UUID]map[protocol.TextDocumentIdentifier]protocol.TextDocumentItem

type controller struct {
	sessions         session.Repository
	logger           *zap.SugaredLogger
	documents        documentStore
	documentsMu      sync.RWMutex
	stats            tally.Scope
	maxFileSizeBytes int64
}

// New creates a new controller for document sync.
func New(p Params) Controller {
	var maxFileSizeBytes int64
	if err := p.Config.Get(_maxFileSizeKey).Populate(&maxFileSizeBytes); err != nil || maxFileSizeBytes == 0 {
		panic(fmt.Errorf("unable to get maximum file size from config: %w", err))
	}

	c := &controller{
		sessions:         p.Sessions,
		logger:           p.Logger.With("plugin", _nameKey),
		documents:        make(documentStore),
		stats:            p.Stats.SubScope("doc_sync"),
		maxFileSizeBytes: maxFileSizeBytes,
	}
	defer c.updateMetrics(context.Background())
	return c
}

// StartupInfo returns plugin.Info for this controller.
func (c *controller) StartupInfo(ctx context.Context) (plugin.Info, error) {
	// Set a priority for each method that this module provides.
	// Document updates run at high priority so that plugins reading
	// buffer contents within the same request observe the new text.
	priorities := map[string]plugin.Priority{
		protocol.MethodInitialize: plugin.PriorityHigh,
		protocol.MethodShutdown:   plugin.PriorityAsync,

		protocol.MethodTextDocumentDidOpen:   plugin.PriorityHigh,
		protocol.MethodTextDocumentDidChange: plugin.PriorityHigh,
		protocol.MethodTextDocumentDidClose:  plugin.PriorityAsync,
		protocol.MethodTextDocumentDidSave:   plugin.PriorityHigh,
		plugin.MethodEndSession:              plugin.PriorityRegular,
	}

	// Assign method keys to implementations.
	methods := &plugin.Methods{
		PluginNameKey: _nameKey,

		Initialize: c.initialize,
		Shutdown:   c.shutdown,

		DidOpen:   c.didOpen,
		DidChange: c.didChange,
		DidClose:  c.didClose,
		DidSave:   c.didSave,

		EndSession: c.endSession,
	}

	return plugin.Info{
		Priorities: priorities,
		Methods:    methods,
		NameKey:    _nameKey,
	}, nil
}

func (c *controller) GetTextDocument(ctx context.Context, doc protocol.TextDocumentIdentifier) (protocol.TextDocumentItem, error) {
	s, err := c.sessions.GetFromContext(ctx)
	if err != nil {
		return protocol.TextDocumentItem{}, err
	}

	c.documentsMu.RLock()
	defer c.documentsMu.RUnlock()

	if _, ok := c.documents[s.UUID]; !ok {
		return protocol.TextDocumentItem{}, &pythiaerrors.UUIDNotFoundError{UUID: s.UUID}
	}

	item, ok := c.documents[s.UUID][doc]
	if !ok {
		return protocol.TextDocumentItem{}, &pythiaerrors.DocumentNotFoundError{Document: doc}
	}
	return item, nil
}

// initialize adds an entry to keep track of this session's documents.
func (c *controller) initialize(ctx context.Context, params *protocol.InitializeParams, result *protocol.InitializeResult) error {
	defer c.updateMetrics(ctx)
	s, err := c.sessions.GetFromContext(ctx)
	if err != nil {
		return err
	}

	c.documentsMu.Lock()
	defer c.documentsMu.Unlock()
	c.documents[s.UUID] = make(map[protocol.TextDocumentIdentifier]protocol.TextDocumentItem)
	return nil
}

// shutdown removes this session's documents.
func (c *controller) shutdown(ctx context.Context) error {
	defer c.updateMetrics(ctx)
	s, err := c.sessions.GetFromContext(ctx)
	if err != nil {
		return err
	}

	return c.disposeSession(ctx, s.UUID)
}

// endSession removes this session's documents in the event that no shutdown request is received.
func (c *controller) endSession(ctx context.Context, uuid uuid.UUID) error {
	defer c.updateMetrics(ctx)
	return c.disposeSession(ctx, uuid)
}

// didOpen adds an entry for a newly opened document and stores its initial contents.
func (c *controller) didOpen(ctx context.Context, params *protocol.DidOpenTextDocumentParams) error {
	defer c.updateMetrics(ctx)
	s, err := c.sessions.GetFromContext(ctx)
	if err != nil {
		return err
	}

	c.documentsMu.Lock()
	defer c.documentsMu.Unlock()
	if c.documents[s.UUID] == nil {
		return &pythiaerrors.UUIDNotFoundError{UUID: s.UUID}
	}

	if err := c.validateSize(ctx, params.TextDocument.Text); err != nil {
		// It is expected that some documents will exceed the configured size limit. Log a warning which can be used to monitor and adjust the threshold.
		// If there are future attempts to access this document, those will result in errors.
		c.logger.Warnf("unable to track open document %q: %v", params.TextDocument.URI, err)
		return nil
	}

	c.documents[s.UUID][protocol.TextDocumentIdentifier{URI: params.TextDocument.URI}] = params.TextDocument
	return nil
}

// didChange replaces the document text with the latest incoming content.
// The daemon registers full document sync, so each event carries the complete text.
func (c *controller) didChange(ctx context.Context, params *protocol.DidChangeTextDocumentParams) error {
	s, err := c.sessions.GetFromContext(ctx)
	if err != nil {
		return err
	}

	c.documentsMu.Lock()
	defer c.documentsMu.Unlock()
	item, ok := c.documents[s.UUID][params.TextDocument.TextDocumentIdentifier]
	if !ok {
		return &pythiaerrors.DocumentNotFoundError{Document: params.TextDocument.TextDocumentIdentifier}
	}

	text := mapper.ContentChangesToText(item.Text, params.ContentChanges)
	if err := c.validateSize(ctx, text); err != nil {
		return fmt.Errorf("unable to add changes to document %q: %w", item.URI, err)
	}

	item.Text = text
	item.Version = params.TextDocument.Version
	c.documents[s.UUID][params.TextDocument.TextDocumentIdentifier] = item
	return nil
}

// didClose deletes the entry for a closed document.
func (c *controller) didClose(ctx context.Context, params *protocol.DidCloseTextDocumentParams) error {
	defer c.updateMetrics(ctx)
	s, err := c.sessions.GetFromContext(ctx)
	if err != nil {
		return err
	}

	c.documentsMu.Lock()
	defer c.documentsMu.Unlock()
	delete(c.documents[s.UUID], protocol.TextDocumentIdentifier{URI: params.TextDocument.URI})
	return nil
}

// didSave reconciles the stored text with the saved content when the editor includes it.
func (c *controller) didSave(ctx context.Context, params *protocol.DidSaveTextDocumentParams) error {
	defer c.updateMetrics(ctx)
	s, err := c.sessions.GetFromContext(ctx)
	if err != nil {
		return err
	}

	c.documentsMu.Lock()
	defer c.documentsMu.Unlock()

	item, ok := c.documents[s.UUID][params.TextDocument]
	if !ok {
		return &pythiaerrors.DocumentNotFoundError{Document: params.TextDocument}
	}

	// Document text should already be updated by didChange, but a save with
	// includeText reconciles it in case something got out of sync.
	if params.Text != "" {
		item.Text = params.Text
		c.documents[s.UUID][params.TextDocument] = item
	}
	return nil
}

// disposeSession removes a session's documents based on the session UUID.
func (c *controller) disposeSession(ctx context.Context, uuid uuid.UUID) error {
	c.documentsMu.Lock()
	defer c.documentsMu.Unlock()
	delete(c.documents, uuid)
	return nil
}

func (c *controller) updateMetrics(ctx context.Context) {
	c.documentsMu.RLock()
	defer c.documentsMu.RUnlock()

	openDocs := 0
	openBytes := 0
	for _, sessionDocs := range c.documents {
		openDocs += len(sessionDocs)
		for _, item := range sessionDocs {
			openBytes += len(item.Text)
		}
	}
	c.stats.Gauge("open_docs").Update(float64(openDocs))
	c.stats.Gauge("open_bytes").Update(float64(openBytes))
}

func (c *controller) validateSize(ctx context.Context, text string) error {
	size := int64(len(text))
	if size > c.maxFileSizeBytes {
		return &pythiaerrors.DocumentSizeLimitError{Size: size}
	}
	return nil
}
