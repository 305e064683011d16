package denials

import (
	"testing"
	"time"
)

func TestClassify_Categories(t *testing.T) {
	now := time.Now()
	cases := []struct {
		code string
		want Category
	}{
		{"16", CategoryTechnical},
		{"226", CategoryTechnical},
		{"50", CategoryClinical},
		{"197", CategoryAuthorization},
		{"27", CategoryEligibility},
		{"18", CategoryDuplicate},
		{"9999", CategoryOther},
		{"", CategoryOther},
	}
	for _, tc := range cases {
		if got := Classify(tc.code, now).Category; got != tc.want {
			t.Errorf("Classify(%q).Category = %s, want %s", tc.code, got, tc.want)
		}
	}
}

func TestClassify_OverlappingCodeResolvesToFirstTable(t *testing.T) {
	// "31" sits in the technical table, which is checked before eligibility.
	if got := Classify("31", time.Now()).Category; got != CategoryTechnical {
		t.Errorf("Classify(31).Category = %s, want TECHNICAL", got)
	}
}

func TestClassify_Priorities(t *testing.T) {
	now := time.Now()
	cases := []struct {
		code string
		want Priority
	}{
		{"50", PriorityUrgent},
		{"197", PriorityUrgent},
		{"16", PriorityHigh},
		{"27", PriorityHigh},
		{"18", PriorityMedium},
		{"9999", PriorityMedium},
	}
	for _, tc := range cases {
		if got := Classify(tc.code, now).Priority; got != tc.want {
			t.Errorf("Classify(%q).Priority = %s, want %s", tc.code, got, tc.want)
		}
	}
}

func TestClassify_Deadlines(t *testing.T) {
	denialDate := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	cls := Classify("4", denialDate)

	wantAppeal := denialDate.AddDate(0, 0, 90)
	wantFollowUp := denialDate.AddDate(0, 0, 14)
	if !cls.AppealDeadline.Equal(wantAppeal) {
		t.Errorf("appeal deadline = %v, want %v", cls.AppealDeadline, wantAppeal)
	}
	if !cls.FollowUpDate.Equal(wantFollowUp) {
		t.Errorf("follow-up date = %v, want %v", cls.FollowUpDate, wantFollowUp)
	}
}

func TestIsDenialCode(t *testing.T) {
	for _, code := range []string{"4", "23"} {
		if !IsDenialCode(code) {
			t.Errorf("IsDenialCode(%q) = false, want true", code)
		}
	}
	for _, code := range []string{"1", "2", "19", "25", "99", ""} {
		if IsDenialCode(code) {
			t.Errorf("IsDenialCode(%q) = true, want false", code)
		}
	}
}
