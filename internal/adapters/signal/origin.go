package signal

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"
)

// originPolicy is the WebSocket origin allow-list. "*" allows any origin;
// requests without an Origin header (non-browser clients) are allowed.
type originPolicy struct {
	allowAll bool
	allowed  map[string]struct{}
}

func newOriginPolicy(origins []string) originPolicy {
	p := originPolicy{allowed: make(map[string]struct{})}
	for _, o := range origins {
		o = strings.TrimSpace(o)
		switch {
		case o == "":
			continue
		case o == "*":
			p.allowAll = true
		default:
			norm, ok := normalizeOrigin(o)
			if !ok {
				log.Warn().Str("module", "signal").Str("origin", o).Msg("ignoring invalid origin in configuration")
				continue
			}
			p.allowed[norm] = struct{}{}
		}
	}
	if len(origins) == 0 {
		p.allowAll = true
	}
	return p
}

func normalizeOrigin(origin string) (string, bool) {
	u, err := url.Parse(origin)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", false
	}
	return strings.ToLower(u.Scheme) + "://" + strings.ToLower(u.Host), true
}

func (p originPolicy) check(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || p.allowAll {
		return true
	}
	norm, ok := normalizeOrigin(origin)
	if ok {
		if _, ok = p.allowed[norm]; ok {
			return true
		}
	}
	log.Warn().Str("module", "signal").Str("origin", origin).Msg("blocked WebSocket connection from disallowed origin")
	return false
}
