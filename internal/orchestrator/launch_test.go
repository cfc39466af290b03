package orchestrator

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/svcdeck/svcdeck/internal/registry"
)

func TestBuildCommandPlain(t *testing.T) {
	cmd := buildCommand("sleep 5")
	if cmd.Args[0] == "/bin/sh" {
		t.Fatalf("plain command must not be shell-wrapped: %v", cmd.Args)
	}
	if len(cmd.Args) != 2 || cmd.Args[1] != "5" {
		t.Fatalf("args = %v", cmd.Args)
	}
}

func TestBuildCommandMetacharactersUseShell(t *testing.T) {
	cmd := buildCommand("npm run dev > out.log 2>&1")
	if cmd.Args[0] != "/bin/sh" || cmd.Args[1] != "-c" {
		t.Fatalf("metacharacter command must go through the shell: %v", cmd.Args)
	}
}

func TestBuildCommandExplicitShellNotDoubleWrapped(t *testing.T) {
	cmd := buildCommand("sh -c 'echo hi > /tmp/x'")
	if cmd.Args[0] != "/bin/sh" || cmd.Args[1] != "-c" {
		t.Fatalf("args = %v", cmd.Args)
	}
	if cmd.Args[2] != "echo hi > /tmp/x" {
		t.Fatalf("outer quotes must be stripped, got %q", cmd.Args[2])
	}
}

func TestBuildCommandEmpty(t *testing.T) {
	cmd := buildCommand("   ")
	if !strings.HasSuffix(cmd.Args[0], "true") {
		t.Fatalf("empty command should be a no-op, got %v", cmd.Args)
	}
}

func TestLaunchWritesServiceLog(t *testing.T) {
	requireUnix(t)
	dir := t.TempDir()
	logPath := filepath.Join(dir, "logs", "web.log")
	cmd, err := launch(registry.ServiceConfig{Name: "web", Command: "echo hello-from-web", LogPath: logPath})
	if err != nil {
		t.Fatalf("launch: %v", err)
	}
	if cmd.Process == nil {
		t.Fatalf("launch must start a process")
	}
	deadline := time.Now().Add(2 * time.Second)
	for {
		b, err := os.ReadFile(logPath)
		if err == nil && strings.Contains(string(b), "hello-from-web") {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("log output missing: read err=%v content=%q", err, string(b))
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestLaunchBadBinaryFails(t *testing.T) {
	requireUnix(t)
	if _, err := launch(registry.ServiceConfig{Name: "bad", Command: "/no/such/binary"}); err == nil {
		t.Fatalf("expected launch failure")
	}
}

func TestLaunchRunsInOwnProcessGroup(t *testing.T) {
	requireUnix(t)
	cmd, err := launch(registry.ServiceConfig{Name: "pg", Command: "sleep 2"})
	if err != nil {
		t.Fatalf("launch: %v", err)
	}
	if cmd.SysProcAttr == nil || !cmd.SysProcAttr.Setpgid {
		t.Fatalf("launched process must get its own process group")
	}
}
