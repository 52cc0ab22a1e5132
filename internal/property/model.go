// Package property provides the property listing model and data access.
package property

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/uninest/uninest/internal/rules"
)

// Type is the kind of accommodation.
type Type string

const (
	TypeApartment Type = "apartment"
	TypeHostel    Type = "hostel"
	TypeHouse     Type = "house"
	TypeRoom      Type = "room"
	TypeStudio    Type = "studio"
)

// ValidType returns true if s is a known property type.
func ValidType(s string) bool {
	switch Type(s) {
	case TypeApartment, TypeHostel, TypeHouse, TypeRoom, TypeStudio:
		return true
	}
	return false
}

// Property is a landlord's accommodation listing.
type Property struct {
	ID                    string    `json:"id"`
	LandlordID            string    `json:"landlordId"`
	LandlordName          string    `json:"landlordName"`
	Title                 string    `json:"title"`
	Description           string    `json:"description"`
	Address               string    `json:"address"`
	City                  string    `json:"city"`
	University            string    `json:"university"`
	PropertyType          Type      `json:"propertyType"`
	MonthlyRent           int64     `json:"monthlyRent"`
	Bedrooms              int64     `json:"bedrooms"`
	Bathrooms             int64     `json:"bathrooms"`
	Capacity              int64     `json:"capacity"`
	Amenities             []string  `json:"amenities"`
	Images                []string  `json:"images"`
	Available             bool      `json:"available"`
	ViewCount             int64     `json:"viewCount"`
	InterestedCount       int64     `json:"interestedCount"`
	EnrolledStudentsCount int64     `json:"enrolledStudentsCount"`
	ReviewCount           int64     `json:"reviewCount"`
	AverageRating         float64   `json:"averageRating"`
	CreatedAt             time.Time `json:"createdAt"`
	UpdatedAt             time.Time `json:"updatedAt"`
}

// Doc returns the property as the rule engine sees it.
func (p *Property) Doc() rules.Doc {
	return rules.Doc{
		"landlordId":            p.LandlordID,
		"landlordName":          p.LandlordName,
		"title":                 p.Title,
		"description":           p.Description,
		"address":               p.Address,
		"city":                  p.City,
		"university":            p.University,
		"propertyType":          string(p.PropertyType),
		"monthlyRent":           p.MonthlyRent,
		"bedrooms":              p.Bedrooms,
		"bathrooms":             p.Bathrooms,
		"capacity":              p.Capacity,
		"amenities":             nonNil(p.Amenities),
		"images":                nonNil(p.Images),
		"available":             p.Available,
		"viewCount":             p.ViewCount,
		"interestedCount":       p.InterestedCount,
		"enrolledStudentsCount": p.EnrolledStudentsCount,
		"reviewCount":           p.ReviewCount,
		"averageRating":         p.AverageRating,
		"createdAt":             p.CreatedAt,
		"updatedAt":             p.UpdatedAt,
	}
}

func (p *Property) clone() *Property {
	c := *p
	c.Amenities = append([]string{}, p.Amenities...)
	c.Images = append([]string{}, p.Images...)
	return &c
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return append([]string{}, s...)
}

// scanProperty scans a property from a database row.
func scanProperty(row interface{ Scan(...any) error }) (*Property, error) {
	var p Property
	var propertyType, amenities, images string
	var available sql.NullBool

	err := row.Scan(
		&p.ID, &p.LandlordID, &p.LandlordName, &p.Title, &p.Description,
		&p.Address, &p.City, &p.University, &propertyType, &p.MonthlyRent,
		&p.Bedrooms, &p.Bathrooms, &p.Capacity, &amenities, &images, &available,
		&p.ViewCount, &p.InterestedCount, &p.EnrolledStudentsCount, &p.ReviewCount,
		&p.AverageRating, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.PropertyType = Type(propertyType)
	p.Available = available.Valid && available.Bool
	if err := json.Unmarshal([]byte(amenities), &p.Amenities); err != nil {
		return nil, fmt.Errorf("decoding amenities: %w", err)
	}
	if err := json.Unmarshal([]byte(images), &p.Images); err != nil {
		return nil, fmt.Errorf("decoding images: %w", err)
	}
	p.Amenities = nonNil(p.Amenities)
	p.Images = nonNil(p.Images)
	return &p, nil
}

func encodeList(s []string) (string, error) {
	b, err := json.Marshal(nonNil(s))
	if err != nil {
		return "", err
	}
	return string(b), nil
}
