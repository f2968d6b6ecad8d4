package localml

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

//go:embed assets/asr.py
var asrScript []byte

//go:embed assets/diarize.py
var diarizeScript []byte

const maxStderrInError = 2000

// Helpers runs the embedded Python helpers. The scripts are unpacked into a
// private temp dir that lives until Close.
type Helpers struct {
	pythonBin string
	dir       string
	runner    commandRunner
	logger    *zap.Logger
}

// NewHelpers unpacks the helper scripts and prepares them to run with pythonBin
func NewHelpers(pythonBin string, logger *zap.Logger) (*Helpers, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	dir, err := os.MkdirTemp("", "todo-maker-helpers-*")
	if err != nil {
		return nil, fmt.Errorf("create helper dir: %w", err)
	}
	for name, script := range map[string][]byte{"asr.py": asrScript, "diarize.py": diarizeScript} {
		if err := os.WriteFile(filepath.Join(dir, name), script, 0o755); err != nil {
			os.RemoveAll(dir)
			return nil, fmt.Errorf("write helper script %s: %w", name, err)
		}
	}
	return newHelpers(pythonBin, dir, &execRunner{}, logger), nil
}

func newHelpers(pythonBin, dir string, runner commandRunner, logger *zap.Logger) *Helpers {
	if pythonBin == "" {
		pythonBin = "python3"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Helpers{pythonBin: pythonBin, dir: dir, runner: runner, logger: logger}
}

// Close removes the unpacked scripts
func (h *Helpers) Close() error {
	return os.RemoveAll(h.dir)
}

// runJSON runs a helper script and decodes its stdout into out
func (h *Helpers) runJSON(ctx context.Context, env []string, script string, out any, args ...string) error {
	argv := append([]string{filepath.Join(h.dir, script)}, args...)
	res, err := h.runner.Run(ctx, env, h.pythonBin, argv...)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("%s interrupted: %w", script, ctx.Err())
		}
		if res.ExitCode < 0 {
			return fmt.Errorf("run %s: %w", script, err)
		}
		return fmt.Errorf("%s exited with code %d: %s", script, res.ExitCode, tail(res.Stderr))
	}
	if err := json.Unmarshal(res.Stdout, out); err != nil {
		return fmt.Errorf("parse %s output: %w", script, err)
	}
	return nil
}

func tail(stderr []byte) string {
	s := strings.TrimSpace(string(stderr))
	if len(s) > maxStderrInError {
		s = "..." + s[len(s)-maxStderrInError:]
	}
	if s == "" {
		return "no stderr output"
	}
	return s
}
