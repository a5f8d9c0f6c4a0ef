package projectfile

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOverrides(t *testing.T) {
	t.Run("full file", func(t *testing.T) {
		contents := `
interpreter: /usr/bin/python3
extraPaths:
  - /abs/lib
  - vendored/lib
lint:
  settings:
    pep8: true
    max-line-length: 120
`
		overrides, err := ParseOverrides(strings.NewReader(contents), "/workspace")
		require.NoError(t, err)

		assert.Equal(t, "/usr/bin/python3", overrides.Interpreter)
		assert.Equal(t, []string{"/abs/lib", filepath.Join("/workspace", "vendored/lib")}, overrides.ExtraPaths)
		assert.Equal(t, map[string]interface{}{"pep8": true, "max-line-length": 120}, overrides.LintSettings)
	})

	t.Run("empty file", func(t *testing.T) {
		overrides, err := ParseOverrides(strings.NewReader(""), "/workspace")
		assert.NoError(t, err)
		assert.Equal(t, Overrides{}, overrides)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		_, err := ParseOverrides(strings.NewReader("interpreter: [\n"), "/workspace")
		assert.Error(t, err)
	})

	t.Run("unknown keys are ignored", func(t *testing.T) {
		contents := `
interpreter: python
somethingElse: 42
`
		overrides, err := ParseOverrides(strings.NewReader(contents), "")
		require.NoError(t, err)
		assert.Equal(t, "python", overrides.Interpreter)
	})
}

func TestExpandPath(t *testing.T) {
	t.Setenv("HOME", "/home/sample")
	t.Setenv("PYTHIA_TEST_DIR", "/opt/envs")

	tests := []struct {
		name string
		path string
		base string
		want string
	}{
		{
			name: "empty",
			path: "",
			base: "/workspace",
			want: "",
		},
		{
			name: "absolute path kept",
			path: "/usr/bin/python3",
			base: "/workspace",
			want: "/usr/bin/python3",
		},
		{
			name: "relative path joined to base",
			path: "venv/bin/python",
			base: "/workspace",
			want: "/workspace/venv/bin/python",
		},
		{
			name: "tilde expansion",
			path: "~/venv/bin/python",
			base: "/workspace",
			want: "/home/sample/venv/bin/python",
		},
		{
			name: "environment variable expansion",
			path: "${PYTHIA_TEST_DIR}/py3/bin/python",
			base: "/workspace",
			want: "/opt/envs/py3/bin/python",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, expandPath(tt.path, tt.base))
		})
	}
}
