//go:build windows

package executor

import (
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetSysProcAttrHidesConsole(t *testing.T) {
	cmd := exec.Command("cmd", "/c", "exit 0")
	setSysProcAttr(cmd)
	require.NotNil(t, cmd.SysProcAttr)
	assert.True(t, cmd.SysProcAttr.HideWindow)
}
