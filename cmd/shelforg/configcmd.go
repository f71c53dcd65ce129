package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"shelforg/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the shelforg configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a commented default config file",
	Long: `Write a commented default config file.

Without a path the file goes to the default location. Refuses to overwrite
an existing file.

Examples:
  shelforg config init
  shelforg config init ./config.toml`,
	Args: cobra.MaximumNArgs(1),
	RunE: runConfigInit,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := config.DefaultPath()
	if len(args) > 0 {
		path = args[0]
	}

	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := config.WriteDefault(path); err != nil {
		return err
	}
	fmt.Printf("Wrote default config to %s\n", path)
	return nil
}
