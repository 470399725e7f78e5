package httpx

import (
	"net/http"
	"time"
)

// SessionCookie describes the cookie a session token travels in. It is
// always HttpOnly, SameSite=Lax and scoped to Path=/.
type SessionCookie struct {
	Name   string
	Domain string

	// Insecure drops the Secure attribute, for plain-http local development.
	Insecure bool
}

// Set writes the token into the cookie, expiring with the token.
func (c SessionCookie) Set(w http.ResponseWriter, token string, expires time.Time) {
	http.SetCookie(w, c.build(token, expires, int(time.Until(expires).Seconds())))
}

// Clear instructs the client to drop the cookie.
func (c SessionCookie) Clear(w http.ResponseWriter) {
	http.SetCookie(w, c.build("", time.Unix(0, 0), -1))
}

// Read returns the cookie value, or "" when absent or empty.
func (c SessionCookie) Read(r *http.Request) string {
	ck, err := r.Cookie(c.Name)
	if err != nil {
		return ""
	}
	return ck.Value
}

func (c SessionCookie) build(value string, expires time.Time, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     c.Name,
		Value:    value,
		Path:     "/",
		Domain:   c.Domain,
		Expires:  expires,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   !c.Insecure,
		SameSite: http.SameSiteLaxMode,
	}
}
