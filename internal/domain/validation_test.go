package domain

import (
	"errors"
	"strings"
	"testing"
)

func validProject() ProjectRecord {
	return ProjectRecord{
		ProjectName:  "alpha",
		IPSubtype:    DefaultIPSubtype,
		BusinessUnit: BusinessUnitCN,
		ReuseIP:      ReuseIPYes,
		SpipURL:      "https://spip.example.com/ip/42",
		WikiURL:      "http://wiki.example.com/alpha",
	}
}

func TestValidateProject(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(p *ProjectRecord)
		wantField string
	}{
		{"valid", func(p *ProjectRecord) {}, ""},
		{"empty optional enums", func(p *ProjectRecord) { p.BusinessUnit = ""; p.ReuseIP = "" }, ""},
		{"empty urls", func(p *ProjectRecord) { p.SpipURL = ""; p.WikiURL = "" }, ""},
		{"missing project name", func(p *ProjectRecord) { p.ProjectName = "" }, "project_name"},
		{"blank project name", func(p *ProjectRecord) { p.ProjectName = "   " }, "project_name"},
		{"bad business unit", func(p *ProjectRecord) { p.BusinessUnit = "XX" }, "business_unit"},
		{"lowercase business unit", func(p *ProjectRecord) { p.BusinessUnit = "cn" }, "business_unit"},
		{"bad reuse ip", func(p *ProjectRecord) { p.ReuseIP = "yes" }, "reuse_ip"},
		{"relative spip url", func(p *ProjectRecord) { p.SpipURL = "spip/ip/42" }, "spip_url"},
		{"schemeless wiki url", func(p *ProjectRecord) { p.WikiURL = "wiki.example.com" }, "wiki_url"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validProject()
			tt.mutate(&p)
			err := ValidateProject(&p)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}
			var ves ValidationErrors
			if !errors.As(err, &ves) {
				t.Fatalf("expected ValidationErrors, got %T (%v)", err, err)
			}
			if ves[0].Field != tt.wantField {
				t.Errorf("expected field %q, got %q", tt.wantField, ves[0].Field)
			}
		})
	}
}

func TestValidateProject_CollectsAllFields(t *testing.T) {
	p := validProject()
	p.BusinessUnit = "XX"
	p.ReuseIP = "maybe"

	err := ValidateProject(&p)
	var ves ValidationErrors
	if !errors.As(err, &ves) {
		t.Fatalf("expected ValidationErrors, got %v", err)
	}
	if len(ves) != 2 {
		t.Fatalf("expected 2 field errors, got %d: %v", len(ves), err)
	}
	msg := ves.WithRow(3).Error()
	if !strings.Contains(msg, `row 3: invalid business_unit "XX": must be one of CN, PC`) {
		t.Errorf("unexpected message: %s", msg)
	}
}

func TestValidGitHash(t *testing.T) {
	tests := []struct {
		hash string
		want bool
	}{
		{"", true},
		{"a1b2c3d", true},
		{"v1.2.3-rc", true},
		{"0123456789abcdef0123456789abcdef01234567", true},
		{"0123456789ABCDEF0123456789abcdef01234567", true},
		{"zz23456789abcdef0123456789abcdef01234567", false},
		{"abc123", false},
		{"abcdef01234", false},
	}
	for _, tt := range tests {
		if got := ValidGitHash(tt.hash); got != tt.want {
			t.Errorf("ValidGitHash(%q) = %v, want %v", tt.hash, got, tt.want)
		}
	}
}

func TestValidateCoverage(t *testing.T) {
	f := func(v float64) *float64 { return &v }

	ok := CoverageRecord{ProjectName: "alpha", LineCoverage: f(0), FSMCoverage: f(100), ToggleCoverage: f(87.5)}
	if err := ValidateCoverage(&ok); err != nil {
		t.Fatalf("expected valid coverage, got %v", err)
	}

	bad := CoverageRecord{ProjectName: "alpha", InterfaceToggleCoverage: f(100.5)}
	err := ValidateCoverage(&bad)
	var ves ValidationErrors
	if !errors.As(err, &ves) {
		t.Fatalf("expected ValidationErrors, got %v", err)
	}
	if ves[0].Field != "interface_toggle_coverage" {
		t.Errorf("expected interface_toggle_coverage, got %s", ves[0].Field)
	}
	if ves[0].Value != "100.5" {
		t.Errorf("expected value 100.5, got %q", ves[0].Value)
	}

	if !ValidCoverage(nil) || ValidCoverage(f(-1)) {
		t.Error("ValidCoverage bounds are wrong")
	}
}

func TestValidateVersionControl(t *testing.T) {
	short := "abc"
	vc := VersionControlRecord{ProjectName: "alpha", GitVersion: &short}
	if err := ValidateVersionControl(&vc); !IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}

	vc.GitVersion = nil
	if err := ValidateVersionControl(&vc); err != nil {
		t.Fatalf("nil git version should be valid, got %v", err)
	}
}
