package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

func newReviewsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reviews <property-id>",
		Short: "List reviews of a property",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reviews, err := newAPIClient().ListReviews(args[0])
			if err != nil {
				return err
			}
			if isJSON() {
				return printJSON(reviews)
			}
			printReviews(reviews)
			return nil
		},
	}
}

func newReviewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "review <property-id> <rating> [comment...]",
		Short: "Review a property",
		Long:  "Rate a property from 1 to 5 stars with an optional comment. Students may review each property once.",
		Args:  cobra.MinimumNArgs(2),
		RunE:  runReview,
	}
}

// parseRating validates a star rating.
func parseRating(s string) (int64, error) {
	rating, err := strconv.ParseInt(s, 10, 64)
	if err != nil || rating < 1 || rating > 5 {
		return 0, fmt.Errorf("rating must be a number from 1 to 5, got %q", s)
	}
	return rating, nil
}

func runReview(cmd *cobra.Command, args []string) error {
	rating, err := parseRating(args[1])
	if err != nil {
		return err
	}
	r, err := newAPIClient().AddReview(args[0], rating, strings.Join(args[2:], " "))
	if err != nil {
		return err
	}
	if isJSON() {
		return printJSON(r)
	}
	fmt.Printf("Review %s added: %s\n", r.ID, formatRating(float64(r.Rating)))
	return nil
}
