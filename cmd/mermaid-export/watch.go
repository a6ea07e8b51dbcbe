package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/julien-sobczak/mermaid-export/internal/core"
	"github.com/julien-sobczak/mermaid-export/internal/dom"
	"github.com/spf13/cobra"
)

// Editors emit several events when saving a file
const reloadDebounce = 200 * time.Millisecond

func init() {
	rootCmd.AddCommand(watchCmd)
}

var watchCmd = &cobra.Command{
	Use:   "watch <note.md>",
	Short: "Watch a note",
	Long: `Keep export controls attached to the diagrams of a note while it is edited.
Type the number of a diagram then Enter to export it.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		config := core.CurrentConfig()

		note, doc, err := openNote(args[0])
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		exporter, err := config.NewExporter(doc, note, core.NewConsoleNotifier(os.Stdout))
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		watcher := core.NewWatcher(exporter).WithDelay(config.RescanDelay())

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		go func() {
			if err := watchNote(ctx, note, doc); err != nil {
				core.CurrentLogger().Warnf("Changes to %s will be ignored: %v", note.Path(), err)
			}
		}()
		go readCommands(ctx, os.Stdin, doc)

		fmt.Printf("Watching %s. Type the number of a diagram then Enter to export it, Ctrl+C to quit.\n", note.Path())
		if err := watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	},
}

// watchNote refreshes the document when the note is saved.
// The parent directory is watched as editors often replace the file.
func watchNote(ctx context.Context, note *core.Note, doc *dom.Document) error {
	path, err := filepath.Abs(note.Path())
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return err
	}

	var reload <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) != 0 {
				// Wait for the last event before reloading
				reload = time.After(reloadDebounce)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			core.CurrentLogger().Warnf("Watcher error: %v", err)
		case <-reload:
			reload = nil
			if _, err := note.Reload(); err != nil {
				core.CurrentLogger().Warnf("Unable to reload %s: %v", path, err)
				continue
			}
			if err := note.Refresh(doc); err != nil {
				core.CurrentLogger().Warnf("Unable to refresh %s: %v", path, err)
				continue
			}
			core.CurrentLogger().Infof("Note %s reloaded", path)
		}
	}
}

// readCommands clicks the control of the diagram whose number is typed.
func readCommands(ctx context.Context, in io.Reader, doc *dom.Document) {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		index, err := parseCommand(line)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			continue
		}
		all := controls(doc)
		if index > len(all) {
			fmt.Fprintf(os.Stderr, "No diagram #%d (%d found)\n", index, len(all))
			continue
		}
		doc.Dispatch(dom.Event{Type: dom.EventClick, Target: all[index-1]})
	}
}

// parseCommand accepts "2" or "#2".
func parseCommand(line string) (int, error) {
	index, err := strconv.Atoi(strings.TrimPrefix(line, "#"))
	if err != nil || index < 1 {
		return 0, fmt.Errorf("unknown command %q: type the number of a diagram", line)
	}
	return index, nil
}
