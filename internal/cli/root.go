// Package cli defines the cobra command tree for uninest.
package cli

import (
	"database/sql"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/uninest/uninest/internal/client"
	"github.com/uninest/uninest/internal/db"
)

var (
	flagFormat string
	flagDB     string
)

// NewRootCmd creates the root cobra command with global flags.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "uninest",
		Short:         "Student accommodation marketplace",
		Long:          "UniNest connects students with landlords. Run the API server, or browse listings, apply and manage tenancies from the command line.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&flagFormat, "format", "text", "output format (text|json)")
	root.PersistentFlags().StringVar(&flagDB, "db", "", "SQLite database path for serve (default: ~/.uninest/uninest.db)")

	root.AddCommand(
		newServeCmd(),
		newLoginCmd(),
		newLogoutCmd(),
		newStatusCmd(),
		newListCmd(),
		newShowCmd(),
		newReviewsCmd(),
		newReviewCmd(),
		newApplyCmd(),
		newInterestsCmd(),
		newInterestStatusCmd(),
		newEnrollCmd(),
		newEnrollmentsCmd(),
		newCheckoutCmd(),
		newVersionCmd(),
	)

	return root
}

// openDB opens the SQLite database using path, the --db flag or the
// default path, in that order.
func openDB(path string) (*sql.DB, error) {
	if path == "" {
		path = flagDB
	}
	if path == "" {
		var err error
		path, err = db.DefaultPath()
		if err != nil {
			return nil, err
		}
	}
	return db.Open(path)
}

// newAPIClient creates an HTTP client for the UniNest API.
func newAPIClient() *client.Client {
	return client.New(getServerURL(), getAPIKey())
}

// isJSON returns true if the --format flag is set to json.
func isJSON() bool {
	return flagFormat == "json"
}

// closeDB closes the database, logging any error to stderr.
func closeDB(database *sql.DB) {
	if err := database.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: closing database: %v\n", err)
	}
}
