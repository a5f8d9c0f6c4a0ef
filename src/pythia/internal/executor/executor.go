package executor

import (
	"bytes"
	"io"
	"os/exec"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Module provides a module to inject using fx.
var Module = fx.Options(
	fx.Supply(
		fx.Annotate(NewExecutor(
			WithExecFunc(func(cmd *exec.Cmd) error { return cmd.Run() }),
			WithStartFunc(func(cmd *exec.Cmd) error { return cmd.Start() }),
		), fx.As(new(Executor))),
	),
)

// Executor wraps the execution of "os/exec".Cmd's to allow adding logs/metrics to
// each exec and makes it easier to test.
type Executor interface {

	// RunCommand - logs and executes the Cmd specified
	RunCommand(cmd *exec.Cmd, env []string) error
	// Run - logs and executes the Cmd specified overriding its Stdout/Stderr to return their content
	Run(cmd *exec.Cmd) (stdout string, stderr string, exitCode int, err error)
	// StartCommand - logs and starts the Cmd without waiting and returns a Handle to supervise it
	StartCommand(cmd *exec.Cmd, env []string) (Handle, error)
}

// Handle supervises a started process until it exits.
type Handle interface {

	// Pid returns the OS process id.
	Pid() int
	// Wait blocks until the process exits and returns its exit error. Safe to call repeatedly.
	Wait() error
	// Alive reports whether the process has not yet exited.
	Alive() bool
	// Terminate requests a graceful exit. On platforms without signal delivery this kills outright.
	Terminate() error
	// Kill forcibly ends the process.
	Kill() error
}

// executorImp implements Executor
type executorImp struct {
	Logger *zap.SugaredLogger
	// ExecFunc may be nil to use executorImp in tests.
	ExecFunc func(e *exec.Cmd) error
	// StartFunc may be nil to use executorImp in tests.
	StartFunc func(e *exec.Cmd) error
}

// Option defines options to customize executorImp's behavior
type Option func(*executorImp)

// WithLogger overrides the default noop logger
func WithLogger(logger *zap.SugaredLogger) Option {
	return func(executor *executorImp) {
		executor.Logger = logger
	}
}

// WithExecFunc provides customized exec behavior for executorImp
func WithExecFunc(execFunc func(e *exec.Cmd) error) Option {
	return func(executor *executorImp) {
		executor.ExecFunc = execFunc
	}
}

// WithStartFunc provides customized start behavior for executorImp
func WithStartFunc(startFunc func(e *exec.Cmd) error) Option {
	return func(executor *executorImp) {
		executor.StartFunc = startFunc
	}
}

// NewExecutor - creates a new executorImp with logger at the level specified and default exec functions
func NewExecutor(opts ...Option) Executor {
	executor := &executorImp{
		Logger:    zap.NewNop().Sugar(),
		ExecFunc:  func(cmd *exec.Cmd) error { return cmd.Run() },
		StartFunc: func(cmd *exec.Cmd) error { return cmd.Start() },
	}
	for _, opt := range opts {
		opt(executor)
	}
	return executor
}

// RunCommand - logs the Path/Args and calls ExecFunc if it is set.
func (l *executorImp) RunCommand(cmd *exec.Cmd, env []string) error {
	if err := l.logCommand(cmd); err != nil {
		return err
	}

	if l.ExecFunc == nil {
		l.Logger.Warn("missing ExecFunc - skipped execution")
		return nil
	}

	cmd.Env = env
	return l.ExecFunc(cmd)
}

// Run - logs the Path/Args and calls ExecFunc if it is set.
func (l *executorImp) Run(cmd *exec.Cmd) (stdout string, stderr string, exitCode int, err error) {
	if err := l.logCommand(cmd); err != nil {
		return "", "", -1, err
	}

	if l.ExecFunc == nil {
		l.Logger.Warn("missing ExecFunc - skipped execution")
		return "", "", 0, nil
	}

	var stdoutB, stderrB bytes.Buffer
	cmd.Stdout = &stdoutB
	cmd.Stderr = &stderrB
	err = l.ExecFunc(cmd)

	return stdoutB.String(), stderrB.String(), cmd.ProcessState.ExitCode(), err
}

// StartCommand - logs the Path/Args, applies platform spawn attributes and starts the
// process in the background. The returned Handle owns the Wait call.
func (l *executorImp) StartCommand(cmd *exec.Cmd, env []string) (Handle, error) {
	if err := l.logCommand(cmd); err != nil {
		return nil, err
	}

	if l.StartFunc == nil {
		l.Logger.Warn("missing StartFunc - skipped execution")
		return nil, nil
	}

	// A nil env inherits the parent environment.
	if env != nil {
		cmd.Env = env
	}
	setSysProcAttr(cmd)
	if err := l.StartFunc(cmd); err != nil {
		return nil, err
	}
	return newProcessHandle(cmd), nil
}

// Logs the command specified: Path, Dir, Args, Stdin (if available)
func (l *executorImp) logCommand(cmd *exec.Cmd) error {
	logKeysAndValues := []interface{}{
		"Path", cmd.Path,
		"Dir", cmd.Dir,
		"Args", cmd.Args[1:], // First arg is always the command itself
	}

	if cmd.Stdin != nil {
		stdinBytes, err := io.ReadAll(cmd.Stdin)
		if err != nil {
			return err
		}
		logKeysAndValues = append(logKeysAndValues, "Stdin", string(stdinBytes))
		cmd.Stdin = bytes.NewReader(stdinBytes)
	}

	l.Logger.Infow("Exec", logKeysAndValues...)
	return nil
}

// processHandle implements Handle over an exec.Cmd that has been started.
type processHandle struct {
	cmd  *exec.Cmd
	done chan struct{}
	err  error
}

func newProcessHandle(cmd *exec.Cmd) *processHandle {
	h := &processHandle{cmd: cmd, done: make(chan struct{})}
	go func() {
		h.err = cmd.Wait()
		close(h.done)
	}()
	return h
}

func (h *processHandle) Pid() int {
	return h.cmd.Process.Pid
}

func (h *processHandle) Wait() error {
	<-h.done
	return h.err
}

func (h *processHandle) Alive() bool {
	select {
	case <-h.done:
		return false
	default:
		return true
	}
}

func (h *processHandle) Terminate() error {
	return terminateProcess(h.cmd)
}

func (h *processHandle) Kill() error {
	return h.cmd.Process.Kill()
}
