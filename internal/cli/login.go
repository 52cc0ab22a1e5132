package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/uninest/uninest/internal/client"
)

const apiKeyPrefix = "un_"

func newLoginCmd() *cobra.Command {
	var server, email string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store an API key",
		Long: "Emails a sign-in link to your address. Opening the link issues an API key for CLI access; " +
			"paste it here to store it.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(server, email, os.Stdin)
		},
	}

	cmd.Flags().StringVar(&server, "server", "", "server URL (default: from config or "+defaultServerURL+")")
	cmd.Flags().StringVar(&email, "email", "", "account email (prompted if omitted)")

	return cmd
}

func runLogin(serverFlag, email string, in io.Reader) error {
	serverURL := serverFlag
	if serverURL == "" {
		serverURL = getServerURL()
	}
	serverURL = strings.TrimRight(serverURL, "/")
	reader := bufio.NewReader(in)

	cfg, err := loadConfig()
	if err != nil {
		cfg = CLIConfig{}
	}

	if email == "" {
		email = cfg.Email
		prompt := "Email: "
		if email != "" {
			prompt = fmt.Sprintf("Email [%s]: ", email)
		}
		fmt.Print(prompt)
		line, err := readLine(reader)
		if err != nil {
			return err
		}
		if line != "" {
			email = line
		}
	}
	if email == "" {
		return fmt.Errorf("no email provided")
	}

	if err := client.New(serverURL, "").RequestCLILogin(email); err != nil {
		return fmt.Errorf("requesting login link: %w", err)
	}

	fmt.Printf("A sign-in link was sent to %s.\n", email)
	fmt.Println("Open it in your browser; the page shows your new API key.")
	fmt.Print("\nPaste your API key: ")
	key, err := readLine(reader)
	if err != nil {
		return err
	}
	if err := validateAPIKey(key); err != nil {
		return err
	}

	err = updateConfig(func(c *CLIConfig) {
		c.APIKey, c.Email = key, email
		if serverFlag != "" {
			c.ServerURL = serverURL
		}
	})
	if err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("Logged in as %s.\n", email)
	return nil
}

func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("reading input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// validateAPIKey checks that the key is non-empty and has the expected prefix.
func validateAPIKey(key string) error {
	if key == "" {
		return fmt.Errorf("no API key provided")
	}
	if !strings.HasPrefix(key, apiKeyPrefix) {
		return fmt.Errorf("invalid API key format (should start with %s)", apiKeyPrefix)
	}
	return nil
}

// keyPrefix returns the start of key for display.
func keyPrefix(key string) string {
	if len(key) > 8 {
		return key[:8]
	}
	return key
}
