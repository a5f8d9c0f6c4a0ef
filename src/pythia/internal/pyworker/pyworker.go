// Package pyworker supervises the per-window backend processes that serve
// completion and lint requests. Each Worker owns exactly one backend process
// and the request channel bound to its port.
package pyworker

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/gofrs/uuid"
	"github.com/pythia-ide/pythia/src/pythia/entity"
	"github.com/pythia-ide/pythia/src/pythia/gateway/backend"
	"github.com/pythia-ide/pythia/src/pythia/internal/executor"
	"github.com/pythia-ide/pythia/src/pythia/internal/fs"
	"github.com/pythia-ide/pythia/src/pythia/internal/logfilewriter"
	"github.com/pythia-ide/pythia/src/pythia/internal/projectfile"
	"github.com/pythia-ide/pythia/src/pythia/internal/serverinfofile"
	"github.com/pythia-ide/pythia/src/pythia/mapper"
	tally "github.com/uber-go/tally/v4"
	"go.uber.org/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Module provides a module to inject using fx.
var Module = fx.Options(
	fx.Provide(NewFactory),
)

const (
	_configKey = "pythia"

	// Name under which the combined backend output log is registered.
	_outputName = "backend"

	_defaultInterpreter    = "python"
	_defaultBackendEntry   = "backend/jsonserver.py"
	_defaultRequestTimeout = 1500 * time.Millisecond
	_defaultReadyTimeout   = 4 * time.Second
	_defaultProbeInterval  = 50 * time.Millisecond
	_defaultStopGrace      = 2 * time.Second
)

// Worker pairs one backend process with one editor window. Lifecycle
// transitions on a Worker are serialized; request operations observe either
// the previous backend or the next one, never a torn state.
type Worker interface {
	// ID returns the window identity this worker serves.
	ID() uuid.UUID

	// ProjectName returns the name the backend process was started under.
	ProjectName() string

	// Port returns the port of the live backend, 0 when stopped.
	Port() int

	// Alive reports whether the backend process is currently running.
	Alive() bool

	// Autocomplete asks the backend for completion proposals at a cursor position.
	Autocomplete(ctx context.Context, query entity.CompletionQuery) ([]entity.Completion, error)

	// RunLinter asks the backend to lint one document.
	RunLinter(ctx context.Context, request entity.LintRequest) ([]entity.LintIssue, error)

	// Restart tears down the current backend and starts a fresh one.
	// The new backend always listens on a newly allocated port.
	Restart(ctx context.Context) error

	// Stop terminates the backend and releases its channel, leaving the worker
	// unusable until Restart. Safe to call repeatedly.
	Stop(ctx context.Context) error
}

// Factory creates Workers.
type Factory interface {
	// New spawns a backend process for the given session and returns the
	// Worker supervising it. A worker is only returned once its backend
	// accepts connections.
	New(ctx context.Context, session *entity.Session) (Worker, error)

	// SetEnvDefaults replaces the daemon-wide interpreter settings used for
	// subsequent spawns. Running backends keep their settings until restarted.
	SetEnvDefaults(env entity.PythonEnv)
}

// Config is the backend process configuration block.
type Config struct {
	Interpreter      string      `yaml:"interpreter"`
	ExtraPaths       []string    `yaml:"extraPaths"`
	BackendEntry     string      `yaml:"backendEntry"`
	RequestTimeoutMs int         `yaml:"requestTimeoutMs"`
	Spawn            SpawnConfig `yaml:"spawn"`
}

// SpawnConfig bounds the wait for a newly spawned backend to accept connections.
type SpawnConfig struct {
	ReadyTimeoutMs  int `yaml:"readyTimeoutMs"`
	ProbeIntervalMs int `yaml:"probeIntervalMs"`
}

// Params defines the dependencies of this package.
type Params struct {
	fx.In

	Config         config.Provider
	Executor       executor.Executor
	FS             fs.PythiaFS
	Lifecycle      fx.Lifecycle
	Logger         *zap.SugaredLogger
	ServerInfoFile serverinfofile.ServerInfoFile
	Stats          tally.Scope
}

// Option defines options to customize the factory's behavior.
type Option func(*factory)

// WithClientFunc overrides how request channels to backends are opened.
func WithClientFunc(fn func(addr string) backend.Client) Option {
	return func(f *factory) {
		f.clientFunc = fn
	}
}

// WithStopGrace overrides the wait between a termination request and a kill.
func WithStopGrace(d time.Duration) Option {
	return func(f *factory) {
		f.stopGrace = d
	}
}

type factory struct {
	cfg      Config
	executor executor.Executor
	fs       fs.PythiaFS
	logger   *zap.SugaredLogger
	stats    tally.Scope
	output   io.Writer

	// envMu guards env, the daemon-wide interpreter settings. Everything
	// else on the factory is immutable after construction.
	envMu sync.RWMutex
	env   entity.PythonEnv

	clientFunc     func(addr string) backend.Client
	requestTimeout time.Duration
	readyTimeout   time.Duration
	probeInterval  time.Duration
	stopGrace      time.Duration
}

// NewFactory creates a Factory from the daemon configuration.
func NewFactory(p Params, opts ...Option) (Factory, error) {
	var cfg Config
	if err := p.Config.Get(_configKey).Populate(&cfg); err != nil {
		return nil, fmt.Errorf("reading %q config: %w", _configKey, err)
	}
	if cfg.Interpreter == "" {
		cfg.Interpreter = _defaultInterpreter
	}
	if cfg.BackendEntry == "" {
		cfg.BackendEntry = _defaultBackendEntry
	}

	output, err := logfilewriter.SetupOutputWriter(logfilewriter.Params{
		FS:             p.FS,
		Lifecycle:      p.Lifecycle,
		ServerInfoFile: p.ServerInfoFile,
	}, _outputName)
	if err != nil {
		return nil, fmt.Errorf("setting up backend output log: %w", err)
	}

	f := &factory{
		cfg:            cfg,
		executor:       p.Executor,
		fs:             p.FS,
		logger:         p.Logger,
		stats:          p.Stats.SubScope("workers"),
		output:         output,
		env:            entity.PythonEnv{Interpreter: cfg.Interpreter, ExtraPaths: cfg.ExtraPaths},
		requestTimeout: durationOrDefault(cfg.RequestTimeoutMs, _defaultRequestTimeout),
		readyTimeout:   durationOrDefault(cfg.Spawn.ReadyTimeoutMs, _defaultReadyTimeout),
		probeInterval:  durationOrDefault(cfg.Spawn.ProbeIntervalMs, _defaultProbeInterval),
		stopGrace:      _defaultStopGrace,
	}
	f.clientFunc = func(addr string) backend.Client {
		return backend.New(addr, backend.WithLogger(p.Logger))
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// New creates a worker for the session and runs its first start sequence.
// The session's window metadata and editor-supplied interpreter settings are
// captured at this point; later changes take effect through a new worker.
func (f *factory) New(ctx context.Context, session *entity.Session) (Worker, error) {
	w := &worker{
		f:           f,
		id:          session.UUID,
		projectName: mapper.ProjectName(session),
		sessionEnv:  session.Env,
	}
	w.logger = f.logger.With("worker", w.id.String(), "project", w.projectName)
	if len(session.Folders) > 0 {
		w.overrides = projectfile.New(projectfile.Params{
			FS:            f.fs,
			Logger:        w.logger,
			WorkspaceRoot: session.Folders[0],
		})
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.startLocked(ctx); err != nil {
		return nil, err
	}
	return w, nil
}

func (f *factory) SetEnvDefaults(env entity.PythonEnv) {
	if env.Interpreter == "" {
		env.Interpreter = _defaultInterpreter
	}
	f.envMu.Lock()
	defer f.envMu.Unlock()
	f.env = env
}

// envDefaults returns the current daemon-wide interpreter settings.
func (f *factory) envDefaults() entity.PythonEnv {
	f.envMu.RLock()
	defer f.envMu.RUnlock()
	return f.env
}

func durationOrDefault(ms int, fallback time.Duration) time.Duration {
	if ms <= 0 {
		return fallback
	}
	return time.Duration(ms) * time.Millisecond
}
