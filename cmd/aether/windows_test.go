package main

import (
	"strings"
	"testing"

	"github.com/aether-shell/aether/internal/apps"
	"github.com/aether-shell/aether/internal/models"
	"github.com/aether-shell/aether/internal/types"
)

func TestMatchWindow(t *testing.T) {
	windows := []models.Window{
		{ID: "3f2a9c10-aaaa", App: apps.Notepad},
		{ID: "3f9b0e22-bbbb", App: apps.Browser},
		{ID: "77c1d0aa-cccc", App: apps.Omni},
	}

	tests := []struct {
		name    string
		arg     string
		want    string
		wantErr string
	}{
		{"exact id", "77c1d0aa-cccc", "77c1d0aa-cccc", ""},
		{"unique prefix", "3f2", "3f2a9c10-aaaa", ""},
		{"app name", "browser", "3f9b0e22-bbbb", ""},
		{"ambiguous prefix", "3f", "", "ambiguous"},
		{"no match", "zz", "", "no window"},
		{"app without window", "studio", "", "no window"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := matchWindow(windows, tt.arg)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("matchWindow(%q) error = %v, want %q", tt.arg, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("matchWindow(%q) error = %v", tt.arg, err)
			}
			if got != tt.want {
				t.Errorf("matchWindow(%q) = %q, want %q", tt.arg, got, tt.want)
			}
		})
	}
}

func TestContextFromFlags(t *testing.T) {
	defer func() { ctxQuery, ctxNote, ctxSetting = "", "", "" }()

	ctxQuery = "weather"
	got, err := contextFromFlags()
	if err != nil || got != models.QueryContext("weather") {
		t.Errorf("contextFromFlags() = %+v, %v", got, err)
	}

	ctxQuery, ctxSetting = "", "wifi"
	got, _ = contextFromFlags()
	if got != models.SettingContext("wifi") {
		t.Errorf("contextFromFlags() = %+v, want setting", got)
	}

	ctxSetting = ""
	got, _ = contextFromFlags()
	if !got.IsEmpty() {
		t.Errorf("contextFromFlags() = %+v, want none", got)
	}
}

func TestParsePoint(t *testing.T) {
	p, err := parsePoint("12.5", "-3")
	if err != nil {
		t.Fatalf("parsePoint() error = %v", err)
	}
	if p != (types.Point{X: 12.5, Y: -3}) {
		t.Errorf("parsePoint() = %v", p)
	}
	if _, err := parsePoint("x", "1"); err == nil {
		t.Error("expected error for non-numeric x")
	}
}
