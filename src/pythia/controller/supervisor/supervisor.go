// Package supervisor manages the backend worker lifecycle for each editor
// window: interpreter settings changes, explicit restarts, and eviction when
// a window goes away.
package supervisor

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gofrs/uuid"
	"github.com/pythia-ide/pythia/src/pythia/entity"
	"github.com/pythia-ide/pythia/src/pythia/entity/plugin"
	ideclient "github.com/pythia-ide/pythia/src/pythia/gateway/ide-client"
	"github.com/pythia-ide/pythia/src/pythia/internal/core"
	"github.com/pythia-ide/pythia/src/pythia/internal/pyworker"
	"github.com/pythia-ide/pythia/src/pythia/mapper"
	"github.com/pythia-ide/pythia/src/pythia/repository/session"
	"github.com/pythia-ide/pythia/src/pythia/repository/workers"
	tally "github.com/uber-go/tally/v4"
	"go.lsp.dev/protocol"
	"go.uber.org/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	_nameKey = "supervisor"

	_pythiaConfigKey = "pythia"

	// _reloadDebounce coalesces bursty file events from editors that write
	// configuration files in several steps.
	_reloadDebounce = 250 * time.Millisecond

	// CommandRestartWorkers restarts every backend worker. Each backend
	// comes back on a freshly allocated port.
	CommandRestartWorkers = "pythia.restartWorkers"

	// CommandWorkerStatus reports the window's backend state to the editor log.
	CommandWorkerStatus = "pythia.workerStatus"
)

// Controller defines the interface for the supervisor plugin.
type Controller interface {
	StartupInfo(ctx context.Context) (plugin.Info, error)
}

// Params are inbound parameters to initialize a new plugin.
type Params struct {
	fx.In

	Sessions   session.Repository
	Workers    workers.Registry
	Factory    pyworker.Factory
	IdeGateway ideclient.Gateway
	Lifecycle  fx.Lifecycle
	Logger     *zap.SugaredLogger
	Stats      tally.Scope
	Config     config.Provider
}

type controller struct {
	sessions   session.Repository
	workers    workers.Registry
	factory    pyworker.Factory
	ideGateway ideclient.Gateway
	logger     *zap.SugaredLogger
	stats      tally.Scope

	watcher *fsnotify.Watcher
	once    sync.Once

	debounceMu  sync.Mutex
	reloadTimer *time.Timer

	envMu   sync.Mutex
	lastEnv entity.PythonEnv
}

// New creates a new controller for worker supervision and starts watching the
// configuration directory for interpreter settings edits.
func New(p Params) (Controller, error) {
	lastEnv, err := defaultEnv(p.Config)
	if err != nil {
		return nil, fmt.Errorf("reading interpreter configuration: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating configuration watcher: %w", err)
	}

	c := &controller{
		sessions:   p.Sessions,
		workers:    p.Workers,
		factory:    p.Factory,
		ideGateway: p.IdeGateway,
		logger:     p.Logger.With("plugin", _nameKey),
		stats:      p.Stats.SubScope(_nameKey),
		watcher:    watcher,
		lastEnv:    lastEnv,
	}

	if err := watcher.Add(core.ConfigDir()); err != nil {
		c.logger.Warnw("configuration directory not watchable", "error", err)
	}

	// Closing the watcher ends the event loop through its closed channels.
	p.Lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return c.closeWatcher()
		},
	})

	return c, nil
}

// StartupInfo returns plugin.Info for this controller.
func (c *controller) StartupInfo(ctx context.Context) (plugin.Info, error) {
	priorities := map[string]plugin.Priority{
		// Session metadata recorded here is read by the other plugins.
		protocol.MethodInitialize: plugin.PriorityHigh,

		protocol.MethodShutdown:                        plugin.PriorityAsync,
		protocol.MethodWorkspaceDidChangeConfiguration: plugin.PriorityAsync,
		protocol.MethodWorkspaceExecuteCommand:         plugin.PriorityAsync,
		plugin.MethodEndSession:                        plugin.PriorityRegular,
	}

	methods := &plugin.Methods{
		PluginNameKey: _nameKey,

		Initialize: c.initialize,
		Shutdown:   c.shutdown,

		DidChangeConfiguration: c.didChangeConfiguration,
		ExecuteCommand:         c.executeCommand,
		EndSession:             c.endSession,
	}

	return plugin.Info{
		Priorities: priorities,
		Methods:    methods,
		NameKey:    _nameKey,
	}, nil
}

// initialize records the window's workspace metadata on the session and
// advertises the worker commands. Workers stay lazy, the first completion or
// lint request spawns them.
func (c *controller) initialize(ctx context.Context, params *protocol.InitializeParams, result *protocol.InitializeResult) error {
	s, err := c.sessions.GetFromContext(ctx)
	if err != nil {
		return fmt.Errorf("getting session: %w", err)
	}

	mapper.InitializeParamsToSession(params, s)
	if err := c.sessions.Set(ctx, s); err != nil {
		return fmt.Errorf("storing session: %w", err)
	}

	c.once.Do(func() {
		go c.watchSettings()
	})

	return mapper.InitializeResultAppendExecuteCommandProvider(result, &protocol.ExecuteCommandOptions{
		Commands: []string{CommandRestartWorkers, CommandWorkerStatus},
	})
}

// shutdown stops the window's backend when the editor leaves politely.
func (c *controller) shutdown(ctx context.Context) error {
	s, err := c.sessions.GetFromContext(ctx)
	if err != nil {
		return err
	}
	return c.workers.Evict(ctx, s.UUID)
}

// endSession stops the window's backend. Covers editors that drop the
// connection without the shutdown handshake.
func (c *controller) endSession(ctx context.Context, id uuid.UUID) error {
	return c.workers.Evict(ctx, id)
}

// didChangeConfiguration applies editor-supplied interpreter overrides to
// the window and replaces its backend when they changed.
func (c *controller) didChangeConfiguration(ctx context.Context, params *protocol.DidChangeConfigurationParams) error {
	env, ok := mapper.SettingsToPythonEnv(params.Settings)
	if !ok {
		return nil
	}

	s, err := c.sessions.GetFromContext(ctx)
	if err != nil {
		return err
	}

	merged := s.Env.Merge(env)
	if merged.Equal(s.Env) {
		return nil
	}
	s.Env = merged
	if err := c.sessions.Set(ctx, s); err != nil {
		return err
	}

	c.logger.Infow("interpreter settings changed, replacing backend",
		"session", s.UUID.String(), "interpreter", merged.Interpreter)
	c.stats.Counter("settings_changes").Inc(1)

	// The running backend was spawned from the old settings. Evict it and
	// spawn a replacement from the updated session.
	if err := c.workers.Evict(ctx, s.UUID); err != nil {
		c.logger.Warnw("stopping backend for settings change", "error", err)
	}
	if _, err := c.workers.Lookup(ctx, s); err != nil {
		c.logger.Warnw("respawning backend after settings change", "error", err)
	}
	return nil
}

// executeCommand serves the worker commands advertised in initialize.
func (c *controller) executeCommand(ctx context.Context, params *protocol.ExecuteCommandParams) error {
	switch params.Command {
	case CommandRestartWorkers:
		c.logger.Infow("restarting all backend workers on request")
		return c.workers.RestartAll(ctx)

	case CommandWorkerStatus:
		s, err := c.sessions.GetFromContext(ctx)
		if err != nil {
			return err
		}
		return c.ideGateway.LogMessage(ctx, &protocol.LogMessageParams{
			Type:    protocol.MessageTypeInfo,
			Message: c.statusMessage(s.UUID),
		})

	default:
		return nil
	}
}

func (c *controller) statusMessage(id uuid.UUID) string {
	w, ok := c.workers.Get(id)
	if !ok {
		return "no backend worker running for this window"
	}
	return fmt.Sprintf("backend worker for %s: port=%d alive=%t", w.ProjectName(), w.Port(), w.Alive())
}

// watchSettings consumes configuration directory events until the watcher is
// closed. YAML edits schedule a debounced settings reload.
func (c *controller) watchSettings() {
	if c.watcher == nil {
		c.logger.Warn("configuration watcher unavailable, continuing without watching for settings changes")
		return
	}
	for {
		select {
		case event, ok := <-c.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if !strings.HasSuffix(event.Name, ".yaml") {
				continue
			}
			c.scheduleReload()

		case err, ok := <-c.watcher.Errors:
			if !ok {
				return
			}
			c.logger.Warnf("configuration watcher: %v", err)
		}
	}
}

func (c *controller) scheduleReload() {
	c.debounceMu.Lock()
	defer c.debounceMu.Unlock()
	if c.reloadTimer != nil {
		c.reloadTimer.Stop()
	}
	c.reloadTimer = time.AfterFunc(_reloadDebounce, c.reloadSettings)
}

// reloadSettings re-reads the configuration files and restarts every backend
// when the daemon-wide interpreter settings changed on disk. Session and
// workspace overrides are unaffected and reapply on the respawn.
func (c *controller) reloadSettings() {
	provider, err := core.NewConfig()
	if err != nil {
		c.logger.Warnw("reloading configuration", "error", err)
		return
	}
	env, err := defaultEnv(provider)
	if err != nil {
		c.logger.Warnw("reloading configuration", "error", err)
		return
	}

	c.envMu.Lock()
	changed := !env.Equal(c.lastEnv)
	c.lastEnv = env
	c.envMu.Unlock()
	if !changed {
		return
	}

	c.logger.Infow("interpreter settings changed on disk, restarting backend workers",
		"interpreter", env.Interpreter)
	c.stats.Counter("config_reloads").Inc(1)

	c.factory.SetEnvDefaults(env)
	if err := c.workers.RestartAll(context.Background()); err != nil {
		c.logger.Warnw("restarting backend workers", "error", err)
	}
}

func (c *controller) closeWatcher() error {
	c.debounceMu.Lock()
	if c.reloadTimer != nil {
		c.reloadTimer.Stop()
	}
	c.debounceMu.Unlock()
	return c.watcher.Close()
}

// defaultEnv reads the daemon-wide interpreter settings block.
func defaultEnv(provider config.Provider) (entity.PythonEnv, error) {
	var cfg struct {
		Interpreter string   `yaml:"interpreter"`
		ExtraPaths  []string `yaml:"extraPaths"`
	}
	if err := provider.Get(_pythiaConfigKey).Populate(&cfg); err != nil {
		return entity.PythonEnv{}, err
	}
	return entity.PythonEnv{Interpreter: cfg.Interpreter, ExtraPaths: cfg.ExtraPaths}, nil
}
