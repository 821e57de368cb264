package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/arti-chat/core/internal/store"
)

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Inspect the local identity keypair",
}

var keysShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the local identity's onion address and public signing key",
	Long: `Show opens the local store (creating the file and its schema if
absent) and prints the identity row's onion address, nickname and
hex-encoded public signing key. It never prints the private key.`,
	RunE: runKeysShow,
}

func init() {
	rootCmd.AddCommand(keysCmd)
	keysCmd.AddCommand(keysShowCmd)
	keysShowCmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to a YAML config file (default: config/<env>.yaml)")
}

func runKeysShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	dbPath := cfg.Database.Path
	if !filepath.IsAbs(dbPath) {
		dbPath = filepath.Join(cfg.Identity.DataDir, dbPath)
	}

	db, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	u, err := db.GetUser()
	if err != nil {
		return fmt.Errorf("no identity has been created yet (run artichatd run first): %w", err)
	}

	fmt.Printf("onion_id:   %s\n", u.OnionID)
	fmt.Printf("nickname:   %s\n", u.Nickname)
	fmt.Printf("public_key: %s\n", u.PublicKey)
	return nil
}
