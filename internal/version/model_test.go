// internal/version/model_test.go
//
// Wire-shape tests for the records the admin API returns verbatim.
//
// Run: go test ./internal/version -v

package version

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestRecordJSONUsesSnakeCase(t *testing.T) {
	display := "Spring launch"
	rec := Record{
		ID:          1,
		VersionName: "v1",
		DisplayName: &display,
		IsActive:    true,
		SortOrder:   3,
		CreatedAt:   sampleTime,
	}

	buf, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}
	out := string(buf)

	for _, key := range []string{
		`"id":`, `"version_name":`, `"display_name":"Spring launch"`,
		`"is_active":`, `"sort_order":`, `"visitor_count":`,
		`"last_visit":`, `"activated_at":`, `"created_at":`,
	} {
		if !strings.Contains(out, key) {
			t.Errorf("output missing %s: %s", key, out)
		}
	}
	// Go-cased field names must never leak onto the wire.
	for _, key := range []string{`"VersionName"`, `"String"`, `"Valid"`} {
		if strings.Contains(out, key) {
			t.Errorf("output leaks %s: %s", key, out)
		}
	}
}

func TestRecordJSONNullDisplayName(t *testing.T) {
	buf, err := json.Marshal(Record{ID: 2, VersionName: "v2", CreatedAt: sampleTime})
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}
	if !strings.Contains(string(buf), `"display_name":null`) {
		t.Fatalf("unset display name must encode as null: %s", buf)
	}
}

func TestLabelFallsBackToVersionName(t *testing.T) {
	empty := ""
	cases := []struct {
		rec  Record
		want string
	}{
		{Record{VersionName: "v2"}, "v2"},
		{Record{VersionName: "v2", DisplayName: &empty}, "v2"},
		{Record{VersionName: "v2", DisplayName: ptr("Promo")}, "Promo"},
	}
	for _, c := range cases {
		if got := c.rec.Label(); got != c.want {
			t.Errorf("Label() = %q, want %q", got, c.want)
		}
	}
}

func ptr(s string) *string { return &s }
