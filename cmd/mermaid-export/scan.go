package main

import (
	"fmt"
	"os"

	"github.com/julien-sobczak/mermaid-export/internal/core"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(scanCmd)
}

var scanCmd = &cobra.Command{
	Use:   "scan [note.md|dir]...",
	Short: "List diagrams",
	Long:  `List the diagrams found in notes and how their source is recovered.`,
	Run: func(cmd *cobra.Command, args []string) {
		paths, err := argsToNotePaths(args)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		for _, path := range paths {
			note, doc, err := openNote(path)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
			// Nothing is rendered: no engine required
			exporter := core.NewExporter(doc, nil, nil).WithEditor(note)
			exporter.Scan()
			fmt.Print(formatScan(path, exporter.Describe()))
		}
	},
}
