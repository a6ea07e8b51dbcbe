package mermaid

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// CLIEngine renders diagrams with mermaid-cli.
// Requirements:
//
//	npm install -g @mermaid-js/mermaid-cli
type CLIEngine struct {
	exe       string
	theme     string // default, forest, dark, neutral
	listeners []func(cmd string, args ...string)
}

func NewCLIEngine(command string, theme string) (*CLIEngine, error) {
	if command == "" {
		command = "mmdc"
	}
	path, err := exec.LookPath(command)
	if err != nil {
		return nil, fmt.Errorf("executable %q not found in $PATH", command)
	}
	if theme == "" {
		theme = "default"
	}
	return &CLIEngine{
		exe:   path,
		theme: theme,
	}, nil
}

func (e *CLIEngine) OnPreGeneration(fn func(cmd string, args ...string)) {
	e.listeners = append(e.listeners, fn)
}

func (e *CLIEngine) notifyListeners(cmd string, args ...string) {
	for _, fn := range e.listeners {
		fn(cmd, args...)
	}
}

/*
 * mmdc only works with files. Each call gets its own directory
 * named after the render id so that overlapping exports never read
 * each other's output.
 *
 *    $ mmdc -i diagram.mmd -o diagram.svg -t dark -b transparent
 */

func (e *CLIEngine) Render(ctx context.Context, id string, source string) (string, error) {
	dir, err := os.MkdirTemp("", "mermaid-export-"+id+"-")
	if err != nil {
		return "", err
	}
	defer os.RemoveAll(dir)

	srcPath := filepath.Join(dir, id+".mmd")
	destPath := filepath.Join(dir, id+".svg")
	if err := os.WriteFile(srcPath, []byte(source), 0644); err != nil {
		return "", err
	}

	args := []string{
		"--quiet",
		"-i", srcPath,
		"-o", destPath,
		"-t", e.theme,
		"-b", "transparent",
	}
	e.notifyListeners(e.exe, args...)
	cmd := exec.CommandContext(ctx, e.exe, args...)

	// Dump output to troubleshoot
	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("%s failed: %w: %s", filepath.Base(e.exe), err, strings.TrimSpace(string(output)))
	}

	data, err := os.ReadFile(destPath)
	if errors.Is(err, os.ErrNotExist) {
		return "", ErrEmptyOutput
	}
	if err != nil {
		return "", err
	}
	return string(data), nil
}
