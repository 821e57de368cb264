package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arti-chat/core/config"
)

var configValidateCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration utilities",
}

var configValidateSubCmd = &cobra.Command{
	Use:   "validate",
	Short: "Load and validate a config file without starting the daemon",
	RunE:  runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configValidateCmd)
	configValidateCmd.AddCommand(configValidateSubCmd)
	configValidateSubCmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to a YAML config file (default: config/<env>.yaml)")
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}
	fmt.Println("config OK")
	fmt.Printf("  environment: %s\n", cfg.Environment)
	fmt.Printf("  data_dir:    %s\n", cfg.Identity.DataDir)
	fmt.Printf("  database:    %s\n", cfg.Database.Path)
	fmt.Printf("  virtual_port: %d\n", cfg.Tor.VirtualPort)
	return nil
}
