package config

import (
	"slices"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestResolve_Order(t *testing.T) {
	cfg := &Config{Modules: map[string]yaml.Node{
		"gateway.http":    {},
		"extra.module":    {},
		"health.check":    {},
		"provider.google": {},
		"usage.sqlite":    {},
		"provider.backup": {},
	}}

	got := Resolve(cfg)
	want := []string{
		"usage.sqlite",
		"provider.backup",
		"provider.google",
		"health.check",
		"gateway.http",
		"extra.module",
	}
	if !slices.Equal(got, want) {
		t.Errorf("Resolve() = %v, want %v", got, want)
	}
}

func TestResolve_Empty(t *testing.T) {
	if got := Resolve(&Config{}); len(got) != 0 {
		t.Errorf("Resolve() = %v, want empty", got)
	}
}
