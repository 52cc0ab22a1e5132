package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/uninest/uninest/internal/enrollment"
)

func newEnrollCmd() *cobra.Command {
	var (
		in   enrollment.EnrollInput
		rent int64
	)

	cmd := &cobra.Command{
		Use:   "enroll <interest-id>",
		Short: "Enroll the student behind an interest",
		Long:  "Accepts the interest and opens an active tenancy. Rent defaults to the property's listed rent.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("rent") {
				in.MonthlyRent = &rent
			}
			e, err := newAPIClient().Enroll(args[0], in)
			if err != nil {
				return err
			}
			if isJSON() {
				return printJSON(e)
			}
			fmt.Printf("Enrolled %s at %s (%s)\n", e.StudentName, e.PropertyTitle, formatLease(e))
			return nil
		},
	}

	cmd.Flags().StringVar(&in.LeaseStartDate, "start", "", "lease start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&in.LeaseEndDate, "end", "", "lease end date (YYYY-MM-DD)")
	cmd.Flags().Int64Var(&rent, "rent", 0, "monthly rent (default: the property's rent)")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")

	return cmd
}

func newEnrollmentsCmd() *cobra.Command {
	var active, inactive bool

	cmd := &cobra.Command{
		Use:   "enrollments",
		Short: "List enrollments",
		Long:  "List tenancies you hold as a student or manage as a landlord.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var filter *bool
			switch {
			case active && inactive:
				return fmt.Errorf("--active and --inactive are mutually exclusive")
			case active:
				filter = &active
			case inactive:
				f := false
				filter = &f
			}
			list, err := newAPIClient().ListEnrollments(filter)
			if err != nil {
				return err
			}
			if isJSON() {
				return printJSON(list)
			}
			return printEnrollmentTable(list)
		},
	}

	cmd.Flags().BoolVar(&active, "active", false, "only active tenancies")
	cmd.Flags().BoolVar(&inactive, "inactive", false, "only ended tenancies")

	return cmd
}

func newCheckoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "checkout <enrollment-id>",
		Short: "Check out of a tenancy",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newAPIClient().Checkout(args[0])
			if err != nil {
				return err
			}
			if isJSON() {
				return printJSON(e)
			}
			fmt.Printf("Checked out of %s\n", e.PropertyTitle)
			return nil
		},
	}
}
