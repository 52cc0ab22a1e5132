// Package enrollment provides tenancies: students enrolled in a property.
package enrollment

import (
	"time"

	"github.com/uninest/uninest/internal/rules"
)

// DateLayout is the wire format of lease dates.
const DateLayout = "2006-01-02"

// Enrollment is an active or past tenancy.
type Enrollment struct {
	ID                 string     `json:"id"`
	PropertyID         string     `json:"propertyId"`
	PropertyTitle      string     `json:"propertyTitle"`
	LandlordID         string     `json:"landlordId"`
	StudentID          string     `json:"studentId"`
	StudentName        string     `json:"studentName"`
	InterestID         string     `json:"interestId"`
	LeaseStartDate     time.Time  `json:"leaseStartDate"`
	LeaseEndDate       time.Time  `json:"leaseEndDate"`
	MonthlyRent        int64      `json:"monthlyRent"`
	IsActive           bool       `json:"isActive"`
	ActualCheckoutDate *time.Time `json:"actualCheckoutDate,omitempty"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`
}

// Doc returns the enrollment as the rule engine sees it.
func (e *Enrollment) Doc() rules.Doc {
	d := rules.Doc{
		"propertyId":     e.PropertyID,
		"propertyTitle":  e.PropertyTitle,
		"landlordId":     e.LandlordID,
		"studentId":      e.StudentID,
		"studentName":    e.StudentName,
		"interestId":     e.InterestID,
		"leaseStartDate": e.LeaseStartDate,
		"leaseEndDate":   e.LeaseEndDate,
		"monthlyRent":    e.MonthlyRent,
		"isActive":       e.IsActive,
		"createdAt":      e.CreatedAt,
		"updatedAt":      e.UpdatedAt,
	}
	if e.ActualCheckoutDate != nil {
		d["actualCheckoutDate"] = *e.ActualCheckoutDate
	}
	return d
}

// ParseDate parses a YYYY-MM-DD lease date as midnight UTC.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.UTC)
}
