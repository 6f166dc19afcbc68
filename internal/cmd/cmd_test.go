package cmd

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/Iron-Ham/airlift/internal/config"
	"github.com/spf13/cobra"
)

// executeCommand runs a cobra command with args and returns captured output
func executeCommand(root *cobra.Command, args ...string) (output string, err error) {
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err = root.Execute()
	return buf.String(), err
}

// isolateConfig keeps a developer's own config file and environment out of
// the command under test.
func isolateConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", dir)
	return dir
}

func TestRootCommand(t *testing.T) {
	if rootCmd.Use != "airlift" {
		t.Errorf("rootCmd.Use = %q, want %q", rootCmd.Use, "airlift")
	}

	cmdMap := make(map[string]bool)
	for _, cmd := range rootCmd.Commands() {
		cmdMap[cmd.Name()] = true
	}
	for _, expected := range []string{"run", "config"} {
		if !cmdMap[expected] {
			t.Errorf("expected subcommand %q not found", expected)
		}
	}
}

func TestRunCommand_Flags(t *testing.T) {
	for _, f := range runFlags {
		if runCmd.Flags().Lookup(f.flag) == nil {
			t.Errorf("run flag --%s is not defined", f.flag)
		}
	}
}

func TestRunCommand(t *testing.T) {
	dir := isolateConfig(t)
	logPath := filepath.Join(dir, "airlift.log")

	output, err := executeCommand(rootCmd, "run",
		"--passengers", "3",
		"--capacity", "2",
		"--min", "1",
		"--max-flights", "0",
		"--seed", "7",
		"--log", logPath,
		"--debug-dir", dir,
	)
	if err != nil {
		t.Fatalf("run failed: %v\nOutput: %s", err, output)
	}

	for _, want := range []string{"Airlift summary", "3/3", "Flight", "Boarded"} {
		if !strings.Contains(output, want) {
			t.Errorf("run output missing %q:\n%s", want, output)
		}
	}
	if strings.Contains(output, "\x1b[") {
		t.Errorf("run output to a buffer should be unstyled:\n%q", output)
	}

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("state log not written: %v", err)
	}
	for _, want := range []string{"Flight 1 boarding started", "Flight 1 departed"} {
		if !strings.Contains(string(content), want) {
			t.Errorf("state log missing %q", want)
		}
	}

	if _, err := os.Stat(filepath.Join(dir, "debug.log")); err != nil {
		t.Errorf("debug log not written: %v", err)
	}
}

func TestRunCommand_InvalidConfig(t *testing.T) {
	dir := isolateConfig(t)

	_, err := executeCommand(rootCmd, "run",
		"--passengers", "3",
		"--capacity", "2",
		"--min", "5",
		"--log", filepath.Join(dir, "airlift.log"),
		"--debug-dir", dir,
	)
	if err == nil {
		t.Fatal("run with min > capacity error = nil")
	}
	var verrs config.ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("error = %v (%T), want config.ValidationErrors", err, err)
	}
	if !strings.Contains(err.Error(), "simulation.min_passengers") {
		t.Errorf("error = %q, want it to name simulation.min_passengers", err)
	}
}

func TestNewLogger_Disabled(t *testing.T) {
	dir := t.TempDir()

	logger, err := newLogger(config.LoggingConfig{Enabled: false, Dir: dir})
	if err != nil {
		t.Fatalf("newLogger() error = %v", err)
	}
	logger.Error("dropped")
	if err := logger.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "debug.log")); !os.IsNotExist(err) {
		t.Errorf("disabled logger created debug.log (stat err = %v)", err)
	}
}

type fakeFinisher struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakeFinisher) Finish() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.err
}

func (f *fakeFinisher) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestWatchInterrupts(t *testing.T) {
	t.Run("first finishes, second aborts", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		sigs := make(chan os.Signal)
		f := &fakeFinisher{}
		var buf syncBuffer
		done := make(chan struct{})
		go func() {
			watchInterrupts(ctx, sigs, f, cancel, &buf)
			close(done)
		}()

		sigs <- syscall.SIGINT
		if ctx.Err() != nil {
			t.Fatal("first interrupt canceled the run")
		}
		sigs <- syscall.SIGINT

		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("watchInterrupts did not return after the second interrupt")
		}
		if f.Calls() != 1 {
			t.Errorf("Finish() calls = %d, want 1", f.Calls())
		}
		if ctx.Err() == nil {
			t.Error("second interrupt did not cancel the run")
		}
		if !strings.Contains(buf.String(), "Finishing after the current flight") {
			t.Errorf("output = %q", buf.String())
		}
	})

	t.Run("finish failure aborts", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		sigs := make(chan os.Signal, 1)
		sigs <- syscall.SIGTERM
		f := &fakeFinisher{err: errors.New("torn down")}
		var buf syncBuffer
		watchInterrupts(ctx, sigs, f, cancel, &buf)

		if ctx.Err() == nil {
			t.Error("failed finish did not cancel the run")
		}
		if !strings.Contains(buf.String(), "torn down") {
			t.Errorf("output = %q", buf.String())
		}
	})

	t.Run("returns when the run ends", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		f := &fakeFinisher{}
		watchInterrupts(ctx, make(chan os.Signal), f, func() {}, &syncBuffer{})
		if f.Calls() != 0 {
			t.Errorf("Finish() calls = %d, want 0", f.Calls())
		}
	})
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
