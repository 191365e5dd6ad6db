package domain

import (
	"errors"
	"testing"
)

func validTicket() Ticket {
	return Ticket{
		TouristType: TouristDomestic,
		Phone:       "+91 9876543210",
		Visitors:    3,
		FromCity:    "Delhi",
		Country:     "should be cleared",
		State:       "Rajasthan",
		City:        "Jaipur",
		Place:       "Amber Fort",
	}
}

func TestValidateTicketDomesticClearsCountry(t *testing.T) {
	out, err := ValidateTicket(validTicket())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Country != "" {
		t.Errorf("domestic ticket kept country %q", out.Country)
	}
	if out.FromCity != "Delhi" {
		t.Errorf("domestic ticket lost from_city")
	}
}

func TestValidateTicketInternationalClearsFromCity(t *testing.T) {
	in := validTicket()
	in.TouristType = TouristInternational
	in.Country = "Germany"

	out, err := ValidateTicket(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.FromCity != "" {
		t.Errorf("international ticket kept from_city %q", out.FromCity)
	}
	if out.Country != "Germany" {
		t.Errorf("international ticket lost country")
	}
}

func TestValidateTicketCollectsAllReasons(t *testing.T) {
	_, err := ValidateTicket(Ticket{TouristType: "ALIEN", Visitors: 0})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("error does not wrap ErrValidation: %v", err)
	}

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	// tourist_type, visitors, phone, state, city, place
	if len(verr.Reasons) != 6 {
		t.Fatalf("got %d reasons, want 6: %v", len(verr.Reasons), verr.Reasons)
	}
}

func TestSnapshotCrowdStatus(t *testing.T) {
	cases := []struct {
		count int
		want  CrowdStatus
	}{
		{0, CrowdStatusLow},
		{7999, CrowdStatusLow},
		{8000, CrowdStatusHigh},
		{19999, CrowdStatusHigh},
		{20000, CrowdStatusCritical},
	}
	for _, tc := range cases {
		if got := SnapshotCrowdStatus(tc.count); got != tc.want {
			t.Errorf("SnapshotCrowdStatus(%d) = %q, want %q", tc.count, got, tc.want)
		}
	}
}
