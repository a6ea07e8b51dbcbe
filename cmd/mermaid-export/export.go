package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/julien-sobczak/mermaid-export/internal/core"
	"github.com/julien-sobczak/mermaid-export/pkg/console"
	"github.com/spf13/cobra"
	"golang.org/x/net/html"
)

var exportFormat string
var exportQuality string
var exportFolder string
var exportFilename string
var exportIndex int
var exportAll bool

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "", "svg, png or jpeg (default from configuration)")
	exportCmd.Flags().StringVarP(&exportQuality, "quality", "q", "", "low, medium, high or maximum (default from configuration)")
	exportCmd.Flags().StringVarP(&exportFolder, "folder", "o", "", "destination folder inside the vault, empty to download")
	exportCmd.Flags().StringVarP(&exportFilename, "filename", "n", "", "file name template ({noteName}, {noteSlug}, {timestamp}, {date}, {time})")
	exportCmd.Flags().IntVarP(&exportIndex, "index", "i", 1, "number of the diagram to export as listed by scan")
	exportCmd.Flags().BoolVarP(&exportAll, "all", "a", false, "export all diagrams of the note")
	rootCmd.AddCommand(exportCmd)
}

var exportCmd = &cobra.Command{
	Use:   "export <note.md>",
	Short: "Export diagrams",
	Long:  `Render diagrams of a note and save them in the vault or in the downloads.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		config := core.CurrentConfig()
		applyExportFlags(cmd, &config.ConfigFile.Export)
		CheckConfig()

		note, doc, err := openNote(args[0])
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		var notifier core.Notifier = core.NewConsoleNotifier(os.Stdout)
		var progress *progressNotifier
		if exportAll {
			progress = &progressNotifier{}
			notifier = progress
		}
		exporter, err := config.NewExporter(doc, note, notifier)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		if exporter.Scan() == 0 {
			fmt.Fprintf(os.Stderr, "No diagram found in %s\n", args[0])
			os.Exit(1)
		}
		nodes, err := selectDiagrams(exporter.Registry().Nodes(), exportIndex, exportAll)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		if progress != nil {
			progress.Begin(len(nodes))
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		failures := 0
		for _, node := range nodes {
			if _, err := exporter.Export(ctx, node); err != nil {
				failures++
			}
		}
		if progress != nil {
			progress.End(len(nodes) - failures)
		}
		if failures > 0 {
			stop()
			os.Exit(1)
		}
	},
}

// applyExportFlags overrides the configured preferences with the flags passed explicitly.
func applyExportFlags(cmd *cobra.Command, export *core.ConfigExport) {
	if cmd.Flags().Changed("format") {
		export.Format = exportFormat
	}
	if cmd.Flags().Changed("quality") {
		export.Quality = exportQuality
	}
	if cmd.Flags().Changed("folder") {
		export.Folder = exportFolder
	}
	if cmd.Flags().Changed("filename") {
		export.Filename = exportFilename
	}
}

// selectDiagrams returns the diagrams to export. Index is 1-based.
func selectDiagrams(nodes []*html.Node, index int, all bool) ([]*html.Node, error) {
	if all {
		return nodes, nil
	}
	if index < 1 || index > len(nodes) {
		return nil, fmt.Errorf("invalid diagram number %d (expected 1 to %d)", index, len(nodes))
	}
	return nodes[index-1 : index], nil
}

// progressNotifier reports exports on a single progress line.
type progressNotifier struct {
	progress *console.ProgressLog
	messages []string
}

func (n *progressNotifier) Begin(total int) {
	n.progress = console.NewProgressLog(total, console.ToWriter(os.Stderr))
	n.progress.Start("Exporting...")
}

func (n *progressNotifier) End(succeeded int) {
	n.progress.Done(fmt.Sprintf("%d diagram(s) exported", succeeded))
	for _, message := range n.messages {
		fmt.Fprintln(os.Stderr, message)
	}
}

func (n *progressNotifier) Started(noteName string) {}

func (n *progressNotifier) Succeeded(location string) {
	n.progress.Step(location)
}

func (n *progressNotifier) Warn(message string) {
	n.messages = append(n.messages, "! "+message)
}

func (n *progressNotifier) Fail(err error) {
	n.messages = append(n.messages, "✘ "+core.FailureMessage(err))
	n.progress.Step(core.FailureMessage(err))
}
