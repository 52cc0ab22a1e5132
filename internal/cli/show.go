package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show property details",
		Long:  "Show full details for a property, including its reviews. Each call counts as a view.",
		Args:  cobra.ExactArgs(1),
		RunE:  runShow,
	}
}

func runShow(cmd *cobra.Command, args []string) error {
	c := newAPIClient()

	p, err := c.GetProperty(args[0])
	if err != nil {
		return err
	}
	reviews, err := c.ListReviews(p.ID)
	if err != nil {
		return err
	}

	if isJSON() {
		return printJSON(map[string]any{"property": p, "reviews": reviews})
	}

	printPropertySummary(p)
	fmt.Println()
	if len(reviews) > 0 {
		fmt.Printf("Reviews (%d):\n", len(reviews))
	}
	printReviews(reviews)
	return nil
}
