package middleware

import (
	"net/http"

	"github.com/diewo77/go-bistro/i18n"
	"github.com/diewo77/go-bistro/view"
)

const prefCookieMaxAge = 86400 * 365

// Preferences resolves language and theme from the query string, then the
// cookies, then Accept-Language. A query value is remembered in a cookie.
func Preferences(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lang := i18n.DetectLanguage(r.Header.Get("Accept-Language"))
		if c, err := r.Cookie("lang"); err == nil && i18n.Supported(c.Value) {
			lang = c.Value
		}
		if q := r.URL.Query().Get("lang"); i18n.Supported(q) {
			lang = q
			http.SetCookie(w, &http.Cookie{Name: "lang", Value: q, Path: "/", MaxAge: prefCookieMaxAge, HttpOnly: true})
		}

		theme := "system"
		if c, err := r.Cookie("theme"); err == nil && c.Value != "" {
			theme = c.Value
		}
		if q := r.URL.Query().Get("theme"); q == "light" || q == "dark" || q == "system" {
			theme = q
			http.SetCookie(w, &http.Cookie{Name: "theme", Value: q, Path: "/", MaxAge: prefCookieMaxAge, HttpOnly: true})
		}

		ctx := i18n.WithLang(r.Context(), lang)
		ctx = view.WithTheme(ctx, theme)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
