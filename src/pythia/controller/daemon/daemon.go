// Package daemon implements the pythia daemon business logic.
package daemon

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gofrs/uuid"
	"github.com/pythia-ide/pythia/src/pythia/controller/completion"
	docsync "github.com/pythia-ide/pythia/src/pythia/controller/doc-sync"
	"github.com/pythia-ide/pythia/src/pythia/controller/lint"
	"github.com/pythia-ide/pythia/src/pythia/controller/supervisor"
	"github.com/pythia-ide/pythia/src/pythia/entity"
	"github.com/pythia-ide/pythia/src/pythia/entity/plugin"
	ideclient "github.com/pythia-ide/pythia/src/pythia/gateway/ide-client"
	"github.com/pythia-ide/pythia/src/pythia/mapper"
	"github.com/pythia-ide/pythia/src/pythia/repository/session"
	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
	"go.uber.org/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	// Error templates
	_errBadPluginCall       = "calling plugin: %s"
	_errPluginReturnedError = "plugin %q returned error: %s"

	// Configuration keys
	_idleTimeoutMinutesKey = "idleTimeoutMinutes"
	_pluginsKey            = "plugins"

	// _contextTimeoutSecondsAsync bounds asynchronous plugin work. Backend
	// requests carry their own much shorter per-request budget, so this only
	// catches plugins that hang outside of a backend call.
	_contextTimeoutSecondsAsync = 60

	_serverName = "Pythia Daemon"
)

// Controller orchestrates the business logic for each request.
type Controller interface {
	// LSP Methods defined per protocol.
	Initialize(ctx context.Context, params *protocol.InitializeParams) (*protocol.InitializeResult, error)
	Initialized(ctx context.Context, params *protocol.InitializedParams) (err error)
	Shutdown(ctx context.Context) (err error)
	Exit(ctx context.Context) error

	// Document related methods.
	DidOpen(ctx context.Context, params *protocol.DidOpenTextDocumentParams) error
	DidChange(ctx context.Context, params *protocol.DidChangeTextDocumentParams) error
	DidClose(ctx context.Context, params *protocol.DidCloseTextDocumentParams) error
	DidSave(ctx context.Context, params *protocol.DidSaveTextDocumentParams) error

	// Codeintel related methods.
	Completion(ctx context.Context, params *protocol.CompletionParams) (*protocol.CompletionList, error)

	// Workspace related methods.
	DidChangeConfiguration(ctx context.Context, params *protocol.DidChangeConfigurationParams) error
	ExecuteCommand(ctx context.Context, params *protocol.ExecuteCommandParams) (interface{}, error)

	// Custom methods for use within this service.
	RequestFullShutdown(ctx context.Context) error
	InitSession(ctx context.Context, conn *jsonrpc2.Conn) (uuid.UUID, error)
	EndSession(ctx context.Context, uuid uuid.UUID) error
}

// Params are inbound parameters to initialize a new controller.
type Params struct {
	fx.In

	Shutdowner fx.Shutdowner
	Sessions   session.Repository
	IdeGateway ideclient.Gateway
	Logger     *zap.SugaredLogger
	Config     config.Provider

	PluginDocSync    docsync.Controller
	PluginCompletion completion.Controller
	PluginLint       lint.Controller
	PluginSupervisor supervisor.Controller
}

type controller struct {
	sessions           session.Repository
	shutdowner         fx.Shutdowner
	fullShutdown       bool
	idleTimer          *time.Timer
	idleTimerMu        sync.Mutex
	idleTimeoutMinutes time.Duration
	logger             *zap.SugaredLogger
	ideGateway         ideclient.Gateway
	pluginMethods      map[uuid.UUID]plugin.RuntimePrioritizedMethods
	pluginConfig       map[string]bool
	pluginsAll         []plugin.Plugin
	wg                 sync.WaitGroup
}

// New constructs a new top-level controller for the service.
func New(p Params) (Controller, error) {
	ctx := context.Background()

	var timeoutMinutesRaw int64
	if err := p.Config.Get(_idleTimeoutMinutesKey).Populate(&timeoutMinutesRaw); err != nil || timeoutMinutesRaw == 0 {
		return nil, fmt.Errorf("unable to get idle timeout from config: %w", err)
	}
	var pluginConfig map[string]bool
	if err := p.Config.Get(_pluginsKey).Populate(&pluginConfig); err != nil {
		return nil, fmt.Errorf("unable to get plugin keys from config: %w", err)
	}

	// When creating a new plugin, add it as a dependency in Params, then add it to the list of available plugins here.
	availablePlugins := []plugin.Plugin{p.PluginDocSync, p.PluginCompletion, p.PluginLint, p.PluginSupervisor}

	c := &controller{
		sessions:   p.Sessions,
		shutdowner: p.Shutdowner,
		logger:     p.Logger,
		ideGateway: p.IdeGateway,

		idleTimeoutMinutes: time.Duration(timeoutMinutesRaw) * time.Minute,
		pluginMethods:      map[uuid.UUID]plugin.RuntimePrioritizedMethods{},
		pluginConfig:       pluginConfig,
		pluginsAll:         availablePlugins,
	}
	c.refreshIdleTimer(ctx)

	return c, nil
}

func (c *controller) registerSessionPlugins(ctx context.Context) error {
	s, err := c.sessions.GetFromContext(ctx)
	if err != nil {
		return fmt.Errorf("getting session from context: %w", err)
	}

	enabledPlugins := []plugin.Info{}
	for _, p := range c.pluginsAll {
		if p == nil {
			continue
		}
		info, err := p.StartupInfo(ctx)
		if err != nil {
			return fmt.Errorf("getting plugin startup info: %w", err)
		}

		if isEnabled := c.pluginConfig[info.NameKey]; isEnabled {
			c.logger.Infow("plugin registration", "plugin", info.NameKey, "status", "enabled")
			enabledPlugins = append(enabledPlugins, info)
		} else {
			c.logger.Infow("plugin registration", "plugin", info.NameKey, "status", "disabled")
		}
	}
	c.pluginMethods[s.UUID], err = mapper.PluginInfoToRuntimePrioritizedMethods(enabledPlugins)
	if err != nil {
		return fmt.Errorf("prioritizing plugin methods: %w", err)
	}
	return nil
}

// executePluginMethods will execute modules in the order defined for the given method.
// The caller is responsible for defining and providing a handlerSync and handlerAsync function, which should call the corresponding method with proper arguments.
// The same function may be passed in for both sync and async if no difference is needed.
func (c *controller) executePluginMethods(ctx context.Context, method string, handlerSync func(ctx context.Context, m *plugin.Methods), handlerAsync func(ctx context.Context, m *plugin.Methods)) error {
	if handlerSync == nil || handlerAsync == nil {
		return fmt.Errorf("handlers cannot be nil")
	}

	id, err := mapper.ContextToSessionUUID(ctx)
	if err != nil {
		return fmt.Errorf("getting session from context: %w", err)
	}

	if _, ok := c.pluginMethods[id]; !ok {
		return nil
	}

	methodLists, ok := c.pluginMethods[id][method]
	if !ok {
		// No need to execute if this method has no registered plugins.
		return nil
	}

	for _, current := range methodLists.Sync {
		handlerSync(ctx, current)
	}

	// Outer goroutine will spawn a goroutine for each asynchronous plugin method, then wait for them to complete with a timeout.
	// Plugins that implement asynchronous methods are responsible for respecting the context timeout or cancellation signal.
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()

		// New context with its own timeout for asynchronous calls.
		asyncCtx := context.WithValue(context.Background(), entity.SessionContextKey, ctx.Value(entity.SessionContextKey))
		asyncCtx, cancel := context.WithTimeout(asyncCtx, _contextTimeoutSecondsAsync*time.Second)
		defer cancel()

		// Spawn a separate goroutine for each method's context, then wait for them all to complete.
		var innerWg sync.WaitGroup
		for _, current := range methodLists.Async {
			currentMethods := current
			innerWg.Add(1)
			go func() {
				defer innerWg.Done()
				handlerAsync(asyncCtx, currentMethods)
			}()
		}

		innerWg.Wait()
	}()

	return nil
}
