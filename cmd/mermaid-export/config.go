package main

import (
	"fmt"
	"os"

	"github.com/julien-sobczak/mermaid-export/internal/core"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(configCmd)
}

func CheckConfig() {
	err := core.CurrentConfig().Check()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Init configuration",
	Long:  `Set up local directory as the root of a vault with the default configuration.`,
	Run: func(cmd *cobra.Command, args []string) {
		cwd, err := os.Getwd()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Unable to read current working directory: %v\n", err)
			os.Exit(1)
		}
		config, err := core.InitConfigFromDirectory(cwd)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error while initializing configuration: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Configuration written in %s/%s/config\n", config.RootDirectory, core.ConfigDirName)
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show configuration",
	Long:  `Print the effective configuration, default values included.`,
	Run: func(cmd *cobra.Command, args []string) {
		config := core.CurrentConfig()
		out, err := toml.Marshal(config.ConfigFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Unable to print configuration: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("# Root directory: %s\n", config.RootDirectory)
		fmt.Print(string(out))
	},
}
