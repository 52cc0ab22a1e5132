// Package booking provides booking interests: a student's application to
// rent a property.
package booking

import (
	"time"

	"github.com/uninest/uninest/internal/rules"
)

// Interest is a booking interest document.
type Interest struct {
	ID            string               `json:"id"`
	PropertyID    string               `json:"propertyId"`
	PropertyTitle string               `json:"propertyTitle"`
	LandlordID    string               `json:"landlordId"`
	StudentID     string               `json:"studentId"`
	StudentName   string               `json:"studentName"`
	StudentEmail  string               `json:"studentEmail"`
	StudentPhone  string               `json:"studentPhone"`
	Message       string               `json:"message"`
	MoveInDate    string               `json:"moveInDate"`
	Status        rules.InterestStatus `json:"status"`
	CreatedAt     time.Time            `json:"createdAt"`
	UpdatedAt     time.Time            `json:"updatedAt"`
}

// Doc returns the interest as the rule engine sees it.
func (i *Interest) Doc() rules.Doc {
	return rules.Doc{
		"propertyId":    i.PropertyID,
		"propertyTitle": i.PropertyTitle,
		"landlordId":    i.LandlordID,
		"studentId":     i.StudentID,
		"studentName":   i.StudentName,
		"studentEmail":  i.StudentEmail,
		"studentPhone":  i.StudentPhone,
		"message":       i.Message,
		"moveInDate":    i.MoveInDate,
		"status":        string(i.Status),
		"createdAt":     i.CreatedAt,
		"updatedAt":     i.UpdatedAt,
	}
}
