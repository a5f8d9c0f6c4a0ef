package mapper

import (
	"testing"

	"github.com/pythia-ide/pythia/src/pythia/entity"
	"github.com/stretchr/testify/assert"
)

func TestSettingsToPythonEnv(t *testing.T) {
	tests := []struct {
		name     string
		settings interface{}
		expected entity.PythonEnv
		found    bool
	}{
		{
			name: "top level keys",
			settings: map[string]interface{}{
				"python_interpreter": "/usr/bin/python3",
				"extra_paths":        []interface{}{"/home/user/lib"},
			},
			expected: entity.PythonEnv{
				Interpreter: "/usr/bin/python3",
				ExtraPaths:  []string{"/home/user/lib"},
			},
			found: true,
		},
		{
			name: "nested pythia block",
			settings: map[string]interface{}{
				"pythia": map[string]interface{}{
					"python_interpreter": "/usr/bin/python3",
				},
			},
			expected: entity.PythonEnv{Interpreter: "/usr/bin/python3"},
			found:    true,
		},
		{
			name: "extra paths as comma separated string",
			settings: map[string]interface{}{
				"extra_paths": "/home/user/lib, /home/user/vendor,",
			},
			expected: entity.PythonEnv{
				ExtraPaths: []string{"/home/user/lib", "/home/user/vendor"},
			},
			found: true,
		},
		{
			name:     "no interpreter keys",
			settings: map[string]interface{}{"color_scheme": "Monokai"},
			expected: entity.PythonEnv{},
			found:    false,
		},
		{
			name:     "nil settings",
			settings: nil,
			expected: entity.PythonEnv{},
			found:    false,
		},
		{
			name:     "unmarshalable settings",
			settings: "notamap",
			expected: entity.PythonEnv{},
			found:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, found := SettingsToPythonEnv(tt.settings)
			assert.Equal(t, tt.found, found)
			assert.Equal(t, tt.expected.Interpreter, env.Interpreter)
			assert.Equal(t, tt.expected.ExtraPaths, env.ExtraPaths)
		})
	}
}
