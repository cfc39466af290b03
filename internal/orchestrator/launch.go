package orchestrator

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
	"syscall"

	"github.com/svcdeck/svcdeck/internal/logger"
	"github.com/svcdeck/svcdeck/internal/registry"
)

// buildCommand constructs an *exec.Cmd for the given command string.
// It avoids invoking a shell when not necessary, and it also respects
// an explicit shell invocation already present in the command string
// (e.g., "sh -c 'npm run dev'"), avoiding double-wrapping with another shell.
func buildCommand(cmdStr string) *exec.Cmd {
	cmdStr = strings.TrimSpace(cmdStr)
	if cmdStr == "" {
		// #nosec G204
		return exec.Command("/bin/true")
	}
	// If the command already explicitly uses a shell, honor it without adding another layer.
	if afterC, ok := parseExplicitShell(cmdStr); ok {
		// #nosec G204
		return exec.Command("/bin/sh", "-c", afterC)
	}
	// Fallback: when metacharacters are present, use /bin/sh -c
	if strings.ContainsAny(cmdStr, "|&;<>*?`$\"'(){}[]~") {
		// #nosec G204
		return exec.Command("/bin/sh", "-c", cmdStr)
	}
	parts := strings.Fields(cmdStr)
	name := parts[0]
	var args []string
	if len(parts) > 1 {
		args = parts[1:]
	}
	// #nosec G204
	return exec.Command(name, args...)
}

// parseExplicitShell detects patterns like "sh -c <ARG>" or "/bin/sh -c <ARG>"
// at the beginning of cmdStr. It preserves the substring after "-c " verbatim
// to avoid breaking quoting, stripping one outer quote pair if present.
func parseExplicitShell(cmdStr string) (string, bool) {
	trim := strings.TrimLeft(cmdStr, " \t")
	candidates := []string{"sh -c ", "/bin/sh -c ", "/usr/bin/sh -c "}
	for _, p := range candidates {
		if strings.HasPrefix(trim, p) {
			after := trim[len(p):]
			if n := len(after); n >= 2 {
				if (after[0] == '\'' && after[n-1] == '\'') || (after[0] == '"' && after[n-1] == '"') {
					after = after[1 : n-1]
				}
			}
			return after, true
		}
	}
	return "", false
}

// launch starts the configured command in its own process group so it
// outlives this process. Stdout and stderr go to a rotated log file when
// the service configures one, otherwise to /dev/null. The spawned process
// is reaped in the background so exited children do not linger as zombies.
func launch(cfg registry.ServiceConfig) (*exec.Cmd, error) {
	cmd := buildCommand(cfg.Command)
	if cfg.WorkDir != "" {
		cmd.Dir = cfg.WorkDir
	}
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	if cfg.LogPath != "" {
		w := logger.Config{Path: cfg.LogPath}.Writer()
		cmd.Stdout = w
		cmd.Stderr = w
	} else {
		null, _ := os.OpenFile(os.DevNull, os.O_RDWR, 0)
		cmd.Stdout = null
		cmd.Stderr = null
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to launch %s: %w", cfg.Name, err)
	}
	go func() { _ = cmd.Wait() }()
	return cmd, nil
}
