package ratelimit

import (
	"net/http"
	"strings"
)

// AnyMethod in EndpointConfig.Method matches every request method
const AnyMethod = "*"

// exemptPaths are probed by infrastructure and never throttled
var exemptPaths = []string{"/health", "/metrics"}

// MatchEndpoint picks the endpoint configuration for a request.
// An exact path wins over a prefix; among prefixes (paths ending in "/") the longest wins.
// Probe paths yield a zero-limit config, which Allow treats as unlimited.
// Returns nil when nothing matches.
func MatchEndpoint(path string, method string, configs []EndpointConfig) *EndpointConfig {
	if method == http.MethodGet {
		for _, p := range exemptPaths {
			if p == path {
				return &EndpointConfig{Path: path, Method: method}
			}
		}
	}

	var best *EndpointConfig
	for i := range configs {
		c := &configs[i]
		if c.Method != method && c.Method != AnyMethod {
			continue
		}
		if c.Path == path {
			return c
		}
		if !strings.HasSuffix(c.Path, "/") || !strings.HasPrefix(path, c.Path) {
			continue
		}
		if best == nil || len(c.Path) > len(best.Path) {
			best = c
		}
	}
	return best
}
