package mapper

import (
	"encoding/json"
	"strings"

	"github.com/pythia-ide/pythia/src/pythia/entity"
)

// settingsPayload is the shape of a workspace/didChangeConfiguration body.
// The interpreter keys may sit at the top level or inside a "pythia" block,
// depending on the editor's configuration layout.
type settingsPayload struct {
	Pythia *interpreterSettings `json:"pythia"`
	interpreterSettings
}

type interpreterSettings struct {
	PythonInterpreter string      `json:"python_interpreter"`
	ExtraPaths        interface{} `json:"extra_paths"`
}

// SettingsToPythonEnv extracts the interpreter overrides from a
// workspace/didChangeConfiguration payload. The second return is false when
// the payload carries no interpreter keys. extra_paths is accepted both as a
// list and as a comma separated string.
func SettingsToPythonEnv(settings interface{}) (entity.PythonEnv, bool) {
	if settings == nil {
		return entity.PythonEnv{}, false
	}

	raw, err := json.Marshal(settings)
	if err != nil {
		return entity.PythonEnv{}, false
	}
	var payload settingsPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return entity.PythonEnv{}, false
	}

	block := payload.interpreterSettings
	if payload.Pythia != nil {
		block = *payload.Pythia
	}

	env := entity.PythonEnv{
		Interpreter: block.PythonInterpreter,
		ExtraPaths:  extraPathsToSlice(block.ExtraPaths),
	}
	return env, env.Interpreter != "" || block.ExtraPaths != nil
}

func extraPathsToSlice(v interface{}) []string {
	switch paths := v.(type) {
	case string:
		return splitPathList(paths)
	case []interface{}:
		out := make([]string, 0, len(paths))
		for _, p := range paths {
			if s, ok := p.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func splitPathList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
