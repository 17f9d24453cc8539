package config

import (
	"cmp"
	"slices"
	"strings"
)

// namespaceRank orders module namespaces so that service providers are
// provisioned before their consumers.
var namespaceRank = map[string]int{
	"usage":    0,
	"provider": 1,
	"health":   2,
	"gateway":  3,
}

// Resolve returns the configured module IDs in load order: ranked by
// namespace (usage, provider, health, gateway, then anything else), and
// sorted by ID within a namespace.
func Resolve(cfg *Config) []string {
	ids := make([]string, 0, len(cfg.Modules))
	for id := range cfg.Modules {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, func(a, b string) int {
		if c := cmp.Compare(rank(a), rank(b)); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})
	return ids
}

func rank(id string) int {
	ns, _, _ := strings.Cut(id, ".")
	if r, ok := namespaceRank[ns]; ok {
		return r
	}
	return len(namespaceRank)
}
