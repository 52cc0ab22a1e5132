package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored API key",
		Long: "Removes the API key from ~/.config/uninest/config.yaml. The key stays valid on the server " +
			"until you revoke it under /api/keys.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogout()
		},
	}
}

func runLogout() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if os.Getenv(envAPIKey) != "" {
		fmt.Fprintf(os.Stderr, "note: %s is set and will still be used.\n", envAPIKey)
	}
	if cfg.APIKey == "" {
		fmt.Println("No stored API key.")
		return nil
	}

	prefix := keyPrefix(cfg.APIKey)
	if err := updateConfig(func(c *CLIConfig) { c.APIKey = "" }); err != nil {
		return err
	}
	if cfg.Email != "" {
		fmt.Printf("Logged out %s (removed key %s...).\n", cfg.Email, prefix)
	} else {
		fmt.Printf("Removed key %s...\n", prefix)
	}
	return nil
}
