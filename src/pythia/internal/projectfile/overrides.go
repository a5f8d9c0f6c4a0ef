package projectfile

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Overrides stores workspace level settings from a .pythia.yaml file.
// Values set here take precedence over the daemon's own configuration
// for sessions rooted in that workspace.
type Overrides struct {
	Path         string
	Interpreter  string
	ExtraPaths   []string
	LintSettings map[string]interface{}
}

// DefaultPaths are the file names checked at the workspace root, in order.
var DefaultPaths = []string{".pythia.yaml", ".pythia.yml"}

// ParseOverrides decodes a workspace overrides file. Interpreter and extra
// paths get environment variables and a leading "~" expanded, and relative
// paths are resolved against base.
func ParseOverrides(r io.Reader, base string) (Overrides, error) {
	var content struct {
		Interpreter string   `yaml:"interpreter"`
		ExtraPaths  []string `yaml:"extraPaths"`
		Lint        struct {
			Settings map[string]interface{} `yaml:"settings"`
		} `yaml:"lint"`
	}
	if err := yaml.NewDecoder(r).Decode(&content); err != nil {
		// An empty file is a valid way to express no overrides.
		if errors.Is(err, io.EOF) {
			return Overrides{}, nil
		}
		return Overrides{}, err
	}

	overrides := Overrides{
		Interpreter:  expandPath(content.Interpreter, base),
		LintSettings: content.Lint.Settings,
	}
	for _, p := range content.ExtraPaths {
		overrides.ExtraPaths = append(overrides.ExtraPaths, expandPath(p, base))
	}
	return overrides, nil
}

func expandPath(path string, base string) string {
	if path == "" {
		return ""
	}

	path = os.ExpandEnv(path)
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	if !filepath.IsAbs(path) && base != "" {
		path = filepath.Join(base, path)
	}
	return path
}
