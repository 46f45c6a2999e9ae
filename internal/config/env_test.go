package config

import (
	"strings"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	e, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if e.DataDir != "./data" {
		t.Fatalf("DataDir = %q, want ./data", e.DataDir)
	}
	if e.AdminHTTP != nil {
		t.Fatalf("AdminHTTP should be unset")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("TERRANIA_DATA_DIR", "/var/terrania")
	t.Setenv("TERRANIA_SEED", "99")
	t.Setenv("TERRANIA_DISABLE_INDEX", "true")
	e, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if e.DataDir != "/var/terrania" || e.Seed != 99 || !e.DisableIndex {
		t.Fatalf("env = %+v", e)
	}
}

func TestLoadError(t *testing.T) {
	t.Setenv("TERRANIA_SEED", "not-an-int")
	_, err := Load()
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env prefix, got %v", err)
	}
}

func TestAdminEnabled(t *testing.T) {
	on, off := true, false
	cases := []struct {
		name string
		env  Env
		want bool
	}{
		{"dev default", Env{}, true},
		{"production", Env{DeployEnv: "Production"}, false},
		{"staging", Env{DeployEnv: "staging"}, false},
		{"forced on", Env{DeployEnv: "production", AdminHTTP: &on}, true},
		{"forced off", Env{AdminHTTP: &off}, false},
	}
	for _, tc := range cases {
		if got := tc.env.AdminEnabled(); got != tc.want {
			t.Errorf("%s: AdminEnabled() = %v, want %v", tc.name, got, tc.want)
		}
	}
}
