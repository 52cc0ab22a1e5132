package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/uninest/uninest/internal/rules"
)

func newApplyCmd() *cobra.Command {
	var moveIn string

	cmd := &cobra.Command{
		Use:   "apply <property-id> [message...]",
		Short: "Register interest in a property",
		Long:  "Sends the landlord a booking interest. Your name, email and phone come from your profile.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			i, err := newAPIClient().CreateInterest(args[0], strings.Join(args[1:], " "), moveIn)
			if err != nil {
				return err
			}
			if isJSON() {
				return printJSON(i)
			}
			fmt.Printf("Interest %s sent for %s (status: %s)\n", i.ID, i.PropertyTitle, i.Status)
			return nil
		},
	}

	cmd.Flags().StringVar(&moveIn, "move-in", "", "preferred move-in date (YYYY-MM-DD)")

	return cmd
}

func newInterestsCmd() *cobra.Command {
	var status string

	cmd := &cobra.Command{
		Use:   "interests",
		Short: "List booking interests",
		Long:  "List interests you sent as a student or received as a landlord.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if status != "" && !rules.ValidStatus(status) {
				return fmt.Errorf("invalid status %q", status)
			}
			interests, err := newAPIClient().ListInterests(status)
			if err != nil {
				return err
			}
			if isJSON() {
				return printJSON(interests)
			}
			return printInterestTable(interests)
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "only interests in this status (pending|contacted|rejected|accepted|archived)")

	return cmd
}

func newInterestStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-status <interest-id> <status>",
		Short: "Move a booking interest to a new status",
		Long: "Landlords move interests through contacted, accepted, rejected and archived. " +
			"Students may archive their own interests to withdraw.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !rules.ValidStatus(args[1]) {
				return fmt.Errorf("invalid status %q", args[1])
			}
			i, err := newAPIClient().SetInterestStatus(args[0], args[1])
			if err != nil {
				return err
			}
			if isJSON() {
				return printJSON(i)
			}
			fmt.Printf("Interest %s is now %s\n", i.ID, i.Status)
			return nil
		},
	}
}
