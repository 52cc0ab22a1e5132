package cli

import (
	"github.com/spf13/cobra"

	"github.com/uninest/uninest/internal/client"
)

func newListCmd() *cobra.Command {
	var opts client.ListOptions

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List properties",
		Long:  "List property listings, newest first, optionally filtered by city, university or rent.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(opts)
		},
	}

	cmd.Flags().StringVar(&opts.City, "city", "", "only properties in this city")
	cmd.Flags().StringVar(&opts.University, "university", "", "only properties near this university")
	cmd.Flags().StringVar(&opts.Landlord, "landlord", "", "only properties of this landlord uid")
	cmd.Flags().Int64Var(&opts.MaxRent, "max-rent", 0, "maximum monthly rent")
	cmd.Flags().BoolVar(&opts.AvailableOnly, "available", false, "only available properties")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum number of results")

	return cmd
}

func runList(opts client.ListOptions) error {
	props, err := newAPIClient().ListProperties(opts)
	if err != nil {
		return err
	}

	if isJSON() {
		return printJSON(props)
	}

	return printPropertyTable(props)
}
