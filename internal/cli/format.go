package cli

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/uninest/uninest/internal/booking"
	"github.com/uninest/uninest/internal/enrollment"
	"github.com/uninest/uninest/internal/property"
	"github.com/uninest/uninest/internal/review"
)

const dateLayout = "2006-01-02"

// printJSON marshals v as indented JSON and writes it to stdout.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printPropertySummary prints a single property in text format.
func printPropertySummary(p *property.Property) {
	fmt.Printf("%s\n", p.Title)
	fmt.Printf("  ID:        %s\n", p.ID)
	fmt.Printf("  Address:   %s, %s\n", p.Address, p.City)
	if p.University != "" {
		fmt.Printf("  Near:      %s\n", p.University)
	}
	fmt.Printf("  Type:      %s\n", p.PropertyType)
	fmt.Printf("  Rent:      %s / month\n", formatAmount(p.MonthlyRent))
	fmt.Printf("  Rooms:     %d bed, %d bath, sleeps %d\n", p.Bedrooms, p.Bathrooms, p.Capacity)
	if len(p.Amenities) > 0 {
		fmt.Printf("  Amenities: %s\n", strings.Join(p.Amenities, ", "))
	}
	if p.Available {
		fmt.Println("  Status:    available")
	} else {
		fmt.Println("  Status:    not available")
	}
	if p.LandlordName != "" {
		fmt.Printf("  Landlord:  %s\n", p.LandlordName)
	}
	fmt.Printf("  Rating:    %s (%d reviews)\n", formatRating(p.AverageRating), p.ReviewCount)
	fmt.Printf("  Activity:  %d views, %d interested, %d enrolled\n",
		p.ViewCount, p.InterestedCount, p.EnrolledStudentsCount)
	if p.Description != "" {
		fmt.Printf("\n%s\n", p.Description)
	}
}

// printPropertyTable prints a list of properties as a formatted table.
func printPropertyTable(props []*property.Property) error {
	if len(props) == 0 {
		fmt.Println("No properties found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(w, "ID\tTITLE\tCITY\tTYPE\tRENT\tRATING"); err != nil {
		return fmt.Errorf("writing table header: %w", err)
	}
	if _, err := fmt.Fprintln(w, "--\t-----\t----\t----\t----\t------"); err != nil {
		return fmt.Errorf("writing table separator: %w", err)
	}

	for _, p := range props {
		rating := "-"
		if p.ReviewCount > 0 {
			rating = formatRating(p.AverageRating)
		}
		if _, err := fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			p.ID, truncate(p.Title, 40), p.City, p.PropertyType, formatAmount(p.MonthlyRent), rating); err != nil {
			return fmt.Errorf("writing table row: %w", err)
		}
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("flushing table: %w", err)
	}

	fmt.Printf("\nTotal: %d properties\n", len(props))
	return nil
}

// printReviews prints reviews in text format.
func printReviews(reviews []*review.Review) {
	if len(reviews) == 0 {
		fmt.Println("No reviews.")
		return
	}
	for _, r := range reviews {
		fmt.Printf("[%s] %s %s\n", r.CreatedAt.Format("2006-01-02 15:04"), formatRating(float64(r.Rating)), r.StudentName)
		if r.Comment != "" {
			fmt.Printf("  %s\n", r.Comment)
		}
		fmt.Println()
	}
}

// printInterestTable prints booking interests as a table.
func printInterestTable(interests []*booking.Interest) error {
	if len(interests) == 0 {
		fmt.Println("No interests.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(w, "ID\tPROPERTY\tSTUDENT\tMOVE-IN\tSTATUS"); err != nil {
		return fmt.Errorf("writing table header: %w", err)
	}
	for _, i := range interests {
		moveIn := i.MoveInDate
		if moveIn == "" {
			moveIn = "-"
		}
		if _, err := fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			i.ID, truncate(i.PropertyTitle, 30), i.StudentName, moveIn, i.Status); err != nil {
			return fmt.Errorf("writing table row: %w", err)
		}
	}
	return w.Flush()
}

// printEnrollmentTable prints enrollments as a table.
func printEnrollmentTable(list []*enrollment.Enrollment) error {
	if len(list) == 0 {
		fmt.Println("No enrollments.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(w, "ID\tPROPERTY\tSTUDENT\tLEASE\tRENT\tSTATE"); err != nil {
		return fmt.Errorf("writing table header: %w", err)
	}
	for _, e := range list {
		if _, err := fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			e.ID, truncate(e.PropertyTitle, 30), e.StudentName, formatLease(e),
			formatAmount(e.MonthlyRent), enrollmentState(e)); err != nil {
			return fmt.Errorf("writing table row: %w", err)
		}
	}
	return w.Flush()
}

func formatLease(e *enrollment.Enrollment) string {
	return e.LeaseStartDate.Format(dateLayout) + " → " + e.LeaseEndDate.Format(dateLayout)
}

func enrollmentState(e *enrollment.Enrollment) string {
	if e.IsActive {
		return "active"
	}
	if e.ActualCheckoutDate != nil {
		return "checked out " + e.ActualCheckoutDate.Format(dateLayout)
	}
	return "inactive"
}

// formatAmount formats a whole amount with thousands separators.
func formatAmount(n int64) string {
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}

	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	parts = append([]string{s}, parts...)

	return strings.Join(parts, ",")
}

// formatRating renders a 0-5 average as stars, rounded to the nearest
// whole star, followed by the number.
func formatRating(avg float64) string {
	stars := int(math.Round(avg))
	stars = max(0, min(5, stars))
	return strings.Repeat("★", stars) + strings.Repeat("☆", 5-stars) + fmt.Sprintf(" %.1f", avg)
}

// truncate shortens a string to maxLen, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
