package projectfile

import (
	"bytes"
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/pythia-ide/pythia/src/pythia/internal/fs"
	"go.uber.org/zap"
)

// Provider resolves workspace level overrides for a single workspace root.
type Provider interface {
	GetOverrides(ctx context.Context) (Overrides, error)
}

// Interface compliance checks.
var _ Provider = (*overridesProvider)(nil)

// Multiple requests within this window will reuse the previous result.
const _reuseTimeout = time.Second * 60

// Params is the configuration for the provider.
type Params struct {
	FS            fs.PythiaFS
	Logger        *zap.SugaredLogger
	WorkspaceRoot string

	// Paths, relative to the workspace root, which will be checked.
	// Once the first match is found, it will be used.
	Paths []string
}

type overridesProvider struct {
	mu sync.Mutex

	fs            fs.PythiaFS
	logger        *zap.SugaredLogger
	workspaceRoot string

	// Paths, relative to the workspace root, which will be checked.
	// Once the first match is found, it will be used.
	paths []string

	// For consistent behavior, the same source file will be used once found.
	selectedSource string

	result      Overrides
	lastChecked time.Time
}

// New creates a new workspace overrides provider.
func New(p Params) Provider {
	paths := p.Paths
	if len(paths) == 0 {
		paths = DefaultPaths
	}
	return &overridesProvider{
		fs:            p.FS,
		logger:        p.Logger,
		workspaceRoot: p.WorkspaceRoot,
		paths:         paths,
	}
}

func (p *overridesProvider) GetOverrides(ctx context.Context) (Overrides, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	defer func() { p.lastChecked = time.Now() }()

	// First check or any other within the timeout window.
	if time.Since(p.lastChecked) < _reuseTimeout {
		return p.result, nil
	}

	p.setSource()
	if p.selectedSource == "" {
		p.result = Overrides{}
		return p.result, nil
	}

	overrides, err := p.parse(p.selectedSource)
	if err != nil {
		p.logger.Warnw("error while reading workspace configuration", "file", p.selectedSource, "error", err)
		return Overrides{}, err
	}

	p.result = overrides
	return p.result, nil
}

func (p *overridesProvider) parse(absPath string) (Overrides, error) {
	contents, err := p.fs.ReadFile(absPath)
	if err != nil {
		return Overrides{}, err
	}

	overrides, err := ParseOverrides(bytes.NewReader(contents), p.workspaceRoot)
	if err != nil {
		return Overrides{}, err
	}
	overrides.Path = absPath
	return overrides, nil
}

func (p *overridesProvider) setSource() {
	if p.selectedSource != "" {
		// If the source is already set, just confirm that it still exists.
		// Search again only if it has been deleted.
		ok, err := p.fs.FileExists(p.selectedSource)
		if ok && err == nil {
			return
		}
		p.selectedSource = ""
	}

	for _, current := range p.paths {
		absPath := filepath.Join(p.workspaceRoot, current)
		ok, err := p.fs.FileExists(absPath)
		if ok {
			p.logger.Infow("selected workspace configuration", "file", absPath)
			p.selectedSource = absPath
			return
		} else if err != nil {
			p.logger.Warnw("skipping workspace configuration candidate", "file", absPath, "error", err)
		}
	}
}
