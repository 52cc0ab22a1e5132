// Package review provides property reviews by students.
package review

import (
	"time"

	"github.com/uninest/uninest/internal/rules"
)

// Review is a student's rating of a property.
type Review struct {
	ID          string    `json:"id"`
	PropertyID  string    `json:"propertyId"`
	StudentID   string    `json:"studentId"`
	StudentName string    `json:"studentName"`
	Rating      int64     `json:"rating"`
	Comment     string    `json:"comment"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Doc returns the review as the rule engine sees it.
func (r *Review) Doc() rules.Doc {
	return rules.Doc{
		"propertyId":  r.PropertyID,
		"studentId":   r.StudentID,
		"studentName": r.StudentName,
		"rating":      r.Rating,
		"comment":     r.Comment,
		"createdAt":   r.CreatedAt,
		"updatedAt":   r.UpdatedAt,
	}
}
