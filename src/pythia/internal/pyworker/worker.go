package pyworker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/uuid"
	"github.com/pythia-ide/pythia/src/pythia/entity"
	"github.com/pythia-ide/pythia/src/pythia/gateway/backend"
	pythiaerrors "github.com/pythia-ide/pythia/src/pythia/internal/errors"
	"github.com/pythia-ide/pythia/src/pythia/internal/executor"
	"github.com/pythia-ide/pythia/src/pythia/internal/freeport"
	"github.com/pythia-ide/pythia/src/pythia/internal/projectfile"
	"go.uber.org/zap"
)

const (
	_methodAutocomplete = "autocomplete"
	_methodRunLinter    = "run_linter"
)

// errWorkerStopped is returned by request operations between Stop and Restart.
var errWorkerStopped = errors.New("backend worker is not running")

// Interface compliance checks.
var _ Worker = (*worker)(nil)

type worker struct {
	f           *factory
	id          uuid.UUID
	projectName string
	sessionEnv  entity.PythonEnv
	logger      *zap.SugaredLogger

	// overrides resolves workspace file settings, nil for folderless windows.
	overrides projectfile.Provider

	// mu serializes lifecycle transitions. Request operations hold it in read
	// mode so they never observe a half-started backend.
	mu           sync.RWMutex
	handle       executor.Handle
	client       backend.Client
	port         int
	lintSettings map[string]interface{}
}

func (w *worker) ID() uuid.UUID {
	return w.id
}

func (w *worker) ProjectName() string {
	return w.projectName
}

func (w *worker) Port() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.port
}

func (w *worker) Alive() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.handle != nil && w.handle.Alive()
}

func (w *worker) Autocomplete(ctx context.Context, query entity.CompletionQuery) ([]entity.Completion, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.client == nil {
		return nil, errWorkerStopped
	}
	resp, err := w.client.Request(ctx, _methodAutocomplete, map[string]interface{}{
		"source":   query.Source,
		"line":     query.Line,
		"offset":   query.Offset,
		"filename": query.Filename,
	}, w.f.requestTimeout)
	if err != nil {
		return nil, err
	}
	if !resp.Success {
		w.logger.Debugw("backend reported completion failure", "error", resp.Error)
		return nil, nil
	}

	completions := make([]entity.Completion, 0, len(resp.Completions))
	for _, c := range resp.Completions {
		completions = append(completions, entity.Completion{Display: c.Display, Insertion: c.Insertion})
	}
	return completions, nil
}

func (w *worker) RunLinter(ctx context.Context, request entity.LintRequest) ([]entity.LintIssue, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.client == nil {
		return nil, errWorkerStopped
	}
	resp, err := w.client.Request(ctx, _methodRunLinter, map[string]interface{}{
		"code":     request.Code,
		"settings": w.mergedSettingsLocked(request.Settings),
		"filename": request.Filename,
	}, w.f.requestTimeout)
	if err != nil {
		return nil, err
	}
	if !resp.Success {
		w.logger.Debugw("backend reported lint failure", "error", resp.Error)
		return nil, nil
	}

	issues := make([]entity.LintIssue, 0, len(resp.Errors))
	for _, e := range resp.Errors {
		message := e.Message
		if message == "" {
			message = e.RawError
		}
		issues = append(issues, entity.LintIssue{
			Level:   e.Level,
			Code:    e.Code,
			Message: message,
			Line:    e.Line,
			Offset:  e.Offset,
		})
	}
	return issues, nil
}

func (w *worker) Restart(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.stopLocked(ctx)
	if err := w.startLocked(ctx); err != nil {
		return err
	}
	w.f.stats.Counter("restarted").Inc(1)
	return nil
}

func (w *worker) Stop(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.stopLocked(ctx)
	return nil
}

// startLocked runs the spawn sequence: allocate a fresh port, assemble the
// command line from the effective interpreter settings, start the process,
// then probe until the backend accepts connections.
func (w *worker) startLocked(ctx context.Context) error {
	port, err := freeport.Allocate()
	if err != nil {
		return err
	}

	env := w.effectiveEnvLocked(ctx)
	installDir, err := w.f.fs.InstallDir()
	if err != nil {
		return &pythiaerrors.ProcessSpawnError{Interpreter: env.Interpreter, Err: err}
	}

	args := []string{"-B", w.f.cfg.BackendEntry, "-p", w.projectName, strconv.Itoa(port)}
	for _, path := range env.ExtraPaths {
		args = append(args, "-e", path)
	}
	// The backend watches the daemon's pid and exits if it disappears.
	args = append(args, strconv.Itoa(os.Getpid()))

	cmd := exec.Command(env.Interpreter, args...)
	// The backend entry script is addressed relative to the install tree.
	cmd.Dir = installDir
	if w.f.output != nil {
		out := &prefixedOutput{w: w.f.output, prefix: "[" + w.projectName + "]"}
		cmd.Stdout = out
		cmd.Stderr = out
	}

	handle, err := w.f.executor.StartCommand(cmd, nil)
	if err != nil {
		return &pythiaerrors.ProcessSpawnError{Interpreter: env.Interpreter, Err: err}
	}

	addr := fmt.Sprintf("127.0.0.1:%d", port)
	if err := w.awaitReady(ctx, handle, addr, env.Interpreter); err != nil {
		return err
	}

	w.handle = handle
	w.client = w.f.clientFunc(addr)
	w.port = port
	w.f.stats.Counter("spawned").Inc(1)
	w.logger.Infow("backend started", "interpreter", env.Interpreter, "port", port, "pid", handle.Pid())
	return nil
}

// stopLocked releases the channel and terminates the process. Stopping an
// already stopped worker is a no-op.
func (w *worker) stopLocked(ctx context.Context) {
	if w.client != nil {
		// Best effort, the process on the other end may already be gone.
		if err := w.client.Close(); err != nil {
			w.logger.Debugw("closing backend channel", "error", err)
		}
		w.client = nil
	}

	if w.handle == nil {
		w.port = 0
		return
	}

	if w.handle.Alive() {
		if err := w.handle.Terminate(); err != nil {
			w.logger.Debugw("terminating backend", "error", err)
		}
		select {
		case <-waitDone(w.handle):
		case <-time.After(w.f.stopGrace):
			w.logger.Warnw("backend ignored termination, killing", "pid", w.handle.Pid())
			w.handle.Kill()
		case <-ctx.Done():
			w.handle.Kill()
		}
	}
	w.handle.Wait()

	w.logger.Infow("backend stopped", "port", w.port)
	w.handle = nil
	w.port = 0
}

// effectiveEnvLocked resolves the interpreter settings for the next spawn:
// daemon configuration first, overlaid with workspace file overrides, then
// with the editor-supplied session settings.
func (w *worker) effectiveEnvLocked(ctx context.Context) entity.PythonEnv {
	env := w.f.envDefaults()

	if w.overrides != nil {
		ov, err := w.overrides.GetOverrides(ctx)
		if err != nil {
			w.logger.Warnw("ignoring unreadable workspace overrides", "error", err)
		} else {
			env = env.Merge(entity.PythonEnv{Interpreter: ov.Interpreter, ExtraPaths: ov.ExtraPaths})
			w.lintSettings = ov.LintSettings
		}
	}

	return env.Merge(w.sessionEnv)
}

// awaitReady probes the backend address until it accepts connections.
// A backend that exits before listening aborts the wait immediately and is
// reported as a spawn failure; one that never listens is killed once the
// ready timeout elapses.
func (w *worker) awaitReady(ctx context.Context, handle executor.Handle, addr string, interpreter string) error {
	readyCtx, cancel := context.WithTimeout(ctx, w.f.readyTimeout)
	defer cancel()
	go func() {
		handle.Wait()
		cancel()
	}()

	err := backend.WaitReady(readyCtx, addr, w.f.probeInterval)
	if err == nil {
		return nil
	}

	if !handle.Alive() {
		spawnErr := errors.New("backend exited before accepting connections")
		if exitErr := handle.Wait(); exitErr != nil {
			spawnErr = fmt.Errorf("backend exited before accepting connections: %w", exitErr)
		}
		return &pythiaerrors.ProcessSpawnError{Interpreter: interpreter, Err: spawnErr}
	}

	handle.Kill()
	handle.Wait()
	return err
}

// mergedSettingsLocked overlays the workspace lint settings on the daemon
// wide block, workspace values winning.
func (w *worker) mergedSettingsLocked(settings map[string]interface{}) map[string]interface{} {
	if len(w.lintSettings) == 0 {
		return settings
	}
	merged := make(map[string]interface{}, len(settings)+len(w.lintSettings))
	for k, v := range settings {
		merged[k] = v
	}
	for k, v := range w.lintSettings {
		merged[k] = v
	}
	return merged
}

// waitDone adapts Handle.Wait to a channel usable in a select.
func waitDone(h executor.Handle) <-chan error {
	done := make(chan error, 1)
	go func() { done <- h.Wait() }()
	return done
}

// prefixedOutput tags each backend output line with the owning project so
// the shared backend log stays attributable.
type prefixedOutput struct {
	w      io.Writer
	prefix string
}

func (p *prefixedOutput) Write(b []byte) (int, error) {
	for _, line := range strings.Split(string(b), "\n") {
		if len(line) == 0 {
			continue
		}
		if _, err := fmt.Fprintf(p.w, "%s %s\n", p.prefix, line); err != nil {
			return 0, err
		}
	}
	return len(b), nil
}
