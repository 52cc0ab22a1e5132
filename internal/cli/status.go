package cli

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/uninest/uninest/internal/client"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the server and whether the stored key works",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd.OutOrStdout())
		},
	}
}

// runStatus reports connection state. Problems with the server or key are
// printed, not returned.
func runStatus(out io.Writer) error {
	st := currentSettings()
	fmt.Fprintf(out, "Server:  %s\n", st.ServerURL)

	if st.APIKey == "" {
		fmt.Fprintln(out, "API Key: not configured")
		fmt.Fprintln(out, "\nRun 'uninest login' to authenticate.")
		return nil
	}

	source := "config"
	if st.FromEnv {
		source = envAPIKey
	}
	fmt.Fprintf(out, "API Key: %s… (%s)\n", keyPrefix(st.APIKey), source)

	me, err := client.New(st.ServerURL, st.APIKey).Me()
	var apiErr *client.APIError
	switch {
	case err == nil:
		fmt.Fprintf(out, "Status:  connected as %s (%s, %s)\n", me.FullName, me.Email, me.Role)
	case errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized:
		fmt.Fprintln(out, "Status:  invalid API key")
		fmt.Fprintln(out, "\nRun 'uninest login' to re-authenticate.")
	case errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusForbidden:
		fmt.Fprintln(out, "Status:  key is valid but the account has no profile")
	case errors.As(err, &apiErr):
		fmt.Fprintf(out, "Status:  unexpected response (%d)\n", apiErr.StatusCode)
	default:
		fmt.Fprintf(out, "Status:  cannot reach server (%v)\n", err)
	}
	return nil
}
