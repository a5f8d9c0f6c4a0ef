package mapper

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pythia-ide/pythia/src/pythia/entity"
)

// ProjectName derives a human-readable name for a window's backend process.
// Preference order: the base name of the window's project file stripped of
// directory and extension, then the base name of the first workspace folder,
// then a name synthesized from the window identity. The name is passed to
// the backend for logging and namespacing only.
func ProjectName(s *entity.Session) string {
	if s.ProjectFile != "" {
		base := filepath.Base(s.ProjectFile)
		return strings.SplitN(base, ".", 2)[0]
	}
	if len(s.Folders) > 0 {
		return filepath.Base(s.Folders[0])
	}
	return fmt.Sprintf("pythia-%s", s.UUID)
}
