package handler

import (
	"fmt"
	"os"
	"strconv"

	"github.com/pythia-ide/pythia/src/pythia/internal/serverinfofile"
)

const _infoFileKeyPID = "pid"

// Output the daemon's process id, which editor plugins use to check whether a
// discovered daemon is still running before connecting to it.
// Other connection methods (e.g. JSON-RPC) independently add their fields to the Server Info file.
func outputProcessInfo(infofile serverinfofile.ServerInfoFile) error {
	if err := infofile.UpdateField(_infoFileKeyPID, strconv.Itoa(os.Getpid())); err != nil {
		return fmt.Errorf("outputting pid to info file: %w", err)
	}

	return nil
}
