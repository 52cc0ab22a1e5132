package web

import (
	"net/http"
	"testing"
)

func TestPropertyListingAndViews(t *testing.T) {
	e := newTestEnv(t)
	lydia := e.landlord()
	amina := e.student("amina@example.com", "Amina")

	id := e.listing(lydia, "Campus Hostel", 12000)
	e.listing(lydia, "Riverside Studio", 30000)

	// Students cannot list property.
	e.expect(request{
		method: http.MethodPost,
		path:   "/api/properties",
		cookie: amina.cookie,
		body:   map[string]any{"title": "Mine", "address": "x", "city": "Nairobi", "propertyType": "room"},
	}, http.StatusForbidden)
	e.expect(request{method: http.MethodPost, path: "/api/properties", body: map[string]any{}}, http.StatusUnauthorized)

	w := e.expect(request{method: http.MethodGet, path: "/api/properties"}, http.StatusOK)
	if got := decode[[]map[string]any](t, w); len(got) != 2 {
		t.Fatalf("listed %d properties, want 2", len(got))
	}
	w = e.expect(request{method: http.MethodGet, path: "/api/properties?max_rent=20000&city=nairobi"}, http.StatusOK)
	if got := decode[[]map[string]any](t, w); len(got) != 1 || got[0]["id"] != id {
		t.Fatalf("filtered list = %v", got)
	}
	e.expect(request{method: http.MethodGet, path: "/api/properties?max_rent=cheap"}, http.StatusBadRequest)

	// Views count anonymous readers.
	e.expect(request{method: http.MethodGet, path: "/api/properties/" + id}, http.StatusOK)
	w = e.expect(request{method: http.MethodGet, path: "/api/properties/" + id, cookie: amina.cookie}, http.StatusOK)
	p := decode[map[string]any](t, w)
	if p["viewCount"] != float64(2) {
		t.Errorf("viewCount = %v, want 2", p["viewCount"])
	}
	if p["landlordName"] != "Lydia Wanjiru" {
		t.Errorf("landlordName = %v, want profile name", p["landlordName"])
	}

	e.expect(request{method: http.MethodGet, path: "/api/properties/missing"}, http.StatusNotFound)
}

func TestPropertyEdits(t *testing.T) {
	e := newTestEnv(t)
	lydia := e.landlord()
	amina := e.student("amina@example.com", "Amina")
	id := e.listing(lydia, "Campus Hostel", 12000)
	path := "/api/properties/" + id

	w := e.expect(request{method: http.MethodPatch, path: path, cookie: lydia.cookie, body: map[string]any{"monthlyRent": 15000}}, http.StatusOK)
	if decode[map[string]any](t, w)["monthlyRent"] != float64(15000) {
		t.Error("rent not updated")
	}

	e.expect(request{method: http.MethodPatch, path: path, cookie: amina.cookie, body: map[string]any{"monthlyRent": 1}}, http.StatusForbidden)
	e.expect(request{method: http.MethodPatch, path: path, cookie: lydia.cookie, body: map[string]any{"viewCount": 1000}}, http.StatusForbidden)
	e.expect(request{method: http.MethodPatch, path: path, cookie: lydia.cookie, body: map[string]any{"propertyType": "castle"}}, http.StatusBadRequest)

	e.expect(request{method: http.MethodDelete, path: path, cookie: amina.cookie}, http.StatusForbidden)
	e.expect(request{method: http.MethodDelete, path: path, cookie: lydia.cookie}, http.StatusNoContent)
	e.expect(request{method: http.MethodGet, path: path}, http.StatusNotFound)
}

func TestReviews(t *testing.T) {
	e := newTestEnv(t)
	lydia := e.landlord()
	amina := e.student("amina@example.com", "Amina")
	brian := e.student("brian@example.com", "Brian")
	id := e.listing(lydia, "Campus Hostel", 12000)
	reviews := "/api/properties/" + id + "/reviews"

	w := e.expect(request{method: http.MethodPost, path: reviews, cookie: amina.cookie, body: map[string]any{"rating": 4, "comment": "Quiet"}}, http.StatusCreated)
	rv := decode[map[string]any](t, w)
	if rv["studentName"] != "Amina" {
		t.Errorf("studentName = %v, want profile name", rv["studentName"])
	}
	e.expect(request{method: http.MethodPost, path: reviews, cookie: amina.cookie, body: map[string]any{"rating": 5}}, http.StatusConflict)
	e.expect(request{method: http.MethodPost, path: reviews, cookie: brian.cookie, body: map[string]any{"rating": 2}}, http.StatusCreated)
	e.expect(request{method: http.MethodPost, path: reviews, cookie: lydia.cookie, body: map[string]any{"rating": 5}}, http.StatusForbidden)
	e.expect(request{method: http.MethodPost, path: reviews, cookie: brian.cookie, body: map[string]any{"rating": 9}}, http.StatusBadRequest)

	w = e.expect(request{method: http.MethodGet, path: "/api/properties/" + id}, http.StatusOK)
	p := decode[map[string]any](t, w)
	if p["reviewCount"] != float64(2) || p["averageRating"] != float64(3) {
		t.Errorf("reviewCount = %v, averageRating = %v", p["reviewCount"], p["averageRating"])
	}

	w = e.expect(request{method: http.MethodGet, path: reviews}, http.StatusOK)
	if got := decode[[]map[string]any](t, w); len(got) != 2 {
		t.Fatalf("listed %d reviews, want 2", len(got))
	}

	rvPath := "/api/reviews/" + rv["id"].(string)
	e.expect(request{method: http.MethodPatch, path: rvPath, cookie: brian.cookie, body: map[string]any{"rating": 1}}, http.StatusForbidden)
	e.expect(request{method: http.MethodPatch, path: rvPath, cookie: amina.cookie, body: map[string]any{"rating": 2}}, http.StatusOK)
	e.expect(request{method: http.MethodDelete, path: rvPath, cookie: amina.cookie}, http.StatusNoContent)

	w = e.expect(request{method: http.MethodGet, path: "/api/properties/" + id}, http.StatusOK)
	p = decode[map[string]any](t, w)
	if p["reviewCount"] != float64(1) || p["averageRating"] != float64(2) {
		t.Errorf("after delete: reviewCount = %v, averageRating = %v", p["reviewCount"], p["averageRating"])
	}
}

func TestInterestToEnrollment(t *testing.T) {
	e := newTestEnv(t)
	lydia := e.landlord()
	amina := e.student("amina@example.com", "Amina")
	id := e.listing(lydia, "Campus Hostel", 12000)

	e.expect(request{method: http.MethodPost, path: "/api/interests", cookie: lydia.cookie, body: map[string]any{"propertyId": id}}, http.StatusForbidden)
	w := e.expect(request{
		method: http.MethodPost,
		path:   "/api/interests",
		cookie: amina.cookie,
		body:   map[string]any{"propertyId": id, "message": "Is there parking?", "moveInDate": "2026-09-01"},
	}, http.StatusCreated)
	interest := decode[map[string]any](t, w)
	if interest["studentName"] != "Amina" || interest["studentEmail"] != "amina@example.com" || interest["studentPhone"] != "+254711111111" {
		t.Errorf("contact fields not filled from profile: %v", interest)
	}
	if interest["status"] != "pending" {
		t.Errorf("status = %v, want pending", interest["status"])
	}
	interestPath := "/api/interests/" + interest["id"].(string)

	w = e.expect(request{method: http.MethodGet, path: "/api/interests?status=pending", cookie: lydia.cookie}, http.StatusOK)
	if got := decode[[]map[string]any](t, w); len(got) != 1 {
		t.Fatalf("landlord sees %d interests, want 1", len(got))
	}
	e.expect(request{method: http.MethodGet, path: "/api/interests?status=bogus", cookie: lydia.cookie}, http.StatusBadRequest)

	e.expect(request{method: http.MethodPatch, path: interestPath, cookie: amina.cookie, body: map[string]string{"status": "accepted"}}, http.StatusForbidden)
	e.expect(request{method: http.MethodPatch, path: interestPath, cookie: lydia.cookie, body: map[string]string{"status": "contacted"}}, http.StatusOK)

	w = e.expect(request{method: http.MethodGet, path: "/api/properties/" + id}, http.StatusOK)
	if n := decode[map[string]any](t, w)["interestedCount"]; n != float64(1) {
		t.Errorf("interestedCount = %v, want 1", n)
	}

	w = e.expect(request{
		method: http.MethodPost,
		path:   interestPath + "/enroll",
		cookie: lydia.cookie,
		body:   map[string]any{"leaseStartDate": "2026-09-01", "leaseEndDate": "2027-06-30"},
	}, http.StatusCreated)
	enr := decode[map[string]any](t, w)
	if enr["monthlyRent"] != float64(12000) || enr["isActive"] != true {
		t.Errorf("enrollment = %v", enr)
	}
	enrPath := "/api/enrollments/" + enr["id"].(string)

	w = e.expect(request{method: http.MethodGet, path: interestPath, cookie: amina.cookie}, http.StatusOK)
	if s := decode[map[string]any](t, w)["status"]; s != "accepted" {
		t.Errorf("interest status = %v, want accepted", s)
	}

	w = e.expect(request{method: http.MethodGet, path: "/api/enrollments?active=true", cookie: amina.cookie}, http.StatusOK)
	if got := decode[[]map[string]any](t, w); len(got) != 1 {
		t.Fatalf("active enrollments = %d, want 1", len(got))
	}

	e.expect(request{method: http.MethodPatch, path: enrPath, cookie: amina.cookie, body: map[string]any{"monthlyRent": 1}}, http.StatusForbidden)
	e.expect(request{method: http.MethodPatch, path: enrPath, cookie: lydia.cookie, body: map[string]any{"leaseEndDate": "2026-08-01"}}, http.StatusForbidden)
	e.expect(request{method: http.MethodPatch, path: enrPath, cookie: lydia.cookie, body: map[string]any{"monthlyRent": 11000}}, http.StatusOK)

	e.expect(request{method: http.MethodPost, path: enrPath + "/checkout", cookie: lydia.cookie}, http.StatusForbidden)
	w = e.expect(request{method: http.MethodPost, path: enrPath + "/checkout", cookie: amina.cookie}, http.StatusOK)
	if decode[map[string]any](t, w)["isActive"] != false {
		t.Error("checkout left enrollment active")
	}

	w = e.expect(request{method: http.MethodGet, path: "/api/enrollments?active=true", cookie: amina.cookie}, http.StatusOK)
	if got := decode[[]map[string]any](t, w); len(got) != 0 {
		t.Errorf("active enrollments after checkout = %d, want 0", len(got))
	}
	e.expect(request{method: http.MethodGet, path: "/api/enrollments?active=maybe", cookie: amina.cookie}, http.StatusBadRequest)
}

func TestStudentArchivesInterest(t *testing.T) {
	e := newTestEnv(t)
	lydia := e.landlord()
	amina := e.student("amina@example.com", "Amina")
	id := e.listing(lydia, "Campus Hostel", 12000)

	w := e.expect(request{method: http.MethodPost, path: "/api/interests", cookie: amina.cookie, body: map[string]any{"propertyId": id}}, http.StatusCreated)
	interestPath := "/api/interests/" + decode[map[string]any](t, w)["id"].(string)

	e.expect(request{method: http.MethodPatch, path: interestPath, cookie: amina.cookie, body: map[string]string{"status": "archived"}}, http.StatusOK)
	w = e.expect(request{method: http.MethodGet, path: "/api/properties/" + id}, http.StatusOK)
	if n := decode[map[string]any](t, w)["interestedCount"]; n != float64(0) {
		t.Errorf("interestedCount = %v, want 0", n)
	}
	e.expect(request{method: http.MethodDelete, path: interestPath, cookie: amina.cookie}, http.StatusForbidden)
}

func TestMeAndSavedProperties(t *testing.T) {
	e := newTestEnv(t)
	lydia := e.landlord()
	amina := e.student("amina@example.com", "Amina")
	id := e.listing(lydia, "Campus Hostel", 12000)

	e.expect(request{method: http.MethodGet, path: "/api/me"}, http.StatusUnauthorized)

	w := e.expect(request{method: http.MethodPatch, path: "/api/me", cookie: amina.cookie, body: map[string]any{"fullName": "Amina Hassan"}}, http.StatusOK)
	if decode[map[string]any](t, w)["fullName"] != "Amina Hassan" {
		t.Error("name not updated")
	}
	e.expect(request{method: http.MethodPatch, path: "/api/me", cookie: amina.cookie, body: map[string]any{"role": "landlord"}}, http.StatusForbidden)
	e.expect(request{method: http.MethodPatch, path: "/api/me", cookie: lydia.cookie, body: map[string]any{"studentId": "S9"}}, http.StatusForbidden)

	w = e.expect(request{method: http.MethodPost, path: "/api/me/saved/" + id, cookie: amina.cookie}, http.StatusOK)
	if saved, _ := decode[map[string]any](t, w)["savedProperties"].([]any); len(saved) != 1 {
		t.Errorf("savedProperties = %v", saved)
	}
	e.expect(request{method: http.MethodPost, path: "/api/me/saved/missing", cookie: amina.cookie}, http.StatusNotFound)
	w = e.expect(request{method: http.MethodDelete, path: "/api/me/saved/" + id, cookie: amina.cookie}, http.StatusOK)
	if saved, _ := decode[map[string]any](t, w)["savedProperties"].([]any); len(saved) != 0 {
		t.Errorf("savedProperties after unsave = %v", saved)
	}

	e.expect(request{method: http.MethodDelete, path: "/api/me", cookie: amina.cookie}, http.StatusForbidden)

	e.expect(request{method: http.MethodGet, path: "/api/users/" + lydia.uid}, http.StatusUnauthorized)
	w = e.expect(request{method: http.MethodGet, path: "/api/users/" + lydia.uid, cookie: amina.cookie}, http.StatusOK)
	if decode[map[string]any](t, w)["role"] != "landlord" {
		t.Error("wrong user returned")
	}
	e.expect(request{method: http.MethodGet, path: "/api/users/nobody", cookie: amina.cookie}, http.StatusNotFound)
}

func TestRouting(t *testing.T) {
	e := newTestEnv(t)
	lydia := e.landlord()

	e.expect(request{method: http.MethodPut, path: "/api/properties", cookie: lydia.cookie}, http.StatusMethodNotAllowed)
	e.expect(request{method: http.MethodGet, path: "/api/properties/a/b/c"}, http.StatusNotFound)
	e.expect(request{method: http.MethodGet, path: "/api/interests/a/b", cookie: lydia.cookie}, http.StatusNotFound)
	e.expect(request{method: http.MethodGet, path: "/api/enrollments/a/checkout", cookie: lydia.cookie}, http.StatusMethodNotAllowed)
	e.expect(request{method: http.MethodGet, path: "/auth/register"}, http.StatusMethodNotAllowed)
}
