package monitor

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// authorized reports whether r carries the configured token, either as a
// bearer token or as the "token" query parameter (browsers cannot set
// headers on websocket upgrades). An empty token disables the check.
func authorized(token string, r *http.Request) bool {
	if token == "" {
		return true
	}
	got := r.URL.Query().Get("token")
	if h := r.Header.Get("Authorization"); h != "" {
		if v, ok := strings.CutPrefix(h, "Bearer "); ok {
			got = v
		}
	}
	return safeEqual(got, token)
}

// safeEqual compares in constant time without leaking the length.
func safeEqual(a, b string) bool {
	lenMatch := subtle.ConstantTimeEq(int32(len(a)), int32(len(b)))
	cmp := subtle.ConstantTimeCompare([]byte(a), []byte(b))
	return subtle.ConstantTimeSelect(lenMatch, cmp, 0) == 1
}

func requireToken(token string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !authorized(token, r) {
			w.Header().Set("WWW-Authenticate", `Bearer realm="discordbridge"`)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
