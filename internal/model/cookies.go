package model

import (
	"net/http"
	"strings"
)

// SessionCookieName is the set-cookie name that carries the game session.
const SessionCookieName = "banana-game:user:token"

// FindSetCookie scans raw set-cookie header values for the cookie called name and
// returns it as a "name=value" pair ready for a Cookie request header.
// The session cookie name contains ':' which net/http refuses to parse, so the
// name/value split is done by hand.
func FindSetCookie(values []string, name string) (string, bool) {
	for _, raw := range values {
		pair, _, _ := strings.Cut(raw, ";")
		k, v, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok {
			continue
		}
		if strings.TrimSpace(k) != name {
			continue
		}
		v = strings.Trim(strings.TrimSpace(v), "\"")
		if v == "" {
			return "", false
		}
		return name + "=" + v, true
	}
	return "", false
}

// SetCookieValues returns every Set-Cookie value of h.
func SetCookieValues(h http.Header) []string {
	if h == nil {
		return nil
	}
	return h.Values("Set-Cookie")
}
