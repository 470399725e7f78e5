package httpx_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/doorman/pkg/httpx"
	"github.com/stretchr/testify/require"
)

func TestChainOrder(t *testing.T) {
	var order []string
	mark := func(name string) httpx.Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := httpx.Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		order = append(order, "handler")
	}), mark("outer"), mark("inner"))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, []string{"outer", "inner", "handler"}, order)
}

func TestRecover(t *testing.T) {
	h := httpx.Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}), httpx.Recover())

	rec := httptest.NewRecorder()
	require.NotPanics(t, func() {
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	})
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.JSONEq(t, `{"error":"Unexpected error"}`, rec.Body.String())
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	httpx.WriteError(rec, http.StatusConflict, "User already exists")

	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	require.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	require.JSONEq(t, `{"error":"User already exists"}`, rec.Body.String())
}

func TestDecodeJSON(t *testing.T) {
	type body struct {
		Email *string `json:"email"`
	}

	decode := func(ct, payload string) (body, error) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(payload))
		if ct != "" {
			req.Header.Set("Content-Type", ct)
		}
		var b body
		err := httpx.DecodeJSON(req, &b)
		return b, err
	}

	t.Run("valid", func(t *testing.T) {
		b, err := decode("application/json; charset=utf-8", `{"email":"a@x.com","extra":1}`)
		require.NoError(t, err)
		require.Equal(t, "a@x.com", *b.Email)
	})

	t.Run("no content type", func(t *testing.T) {
		_, err := decode("", `{}`)
		require.NoError(t, err)
	})

	t.Run("wrong content type", func(t *testing.T) {
		_, err := decode("text/plain", `{}`)
		require.ErrorIs(t, err, httpx.ErrUnsupportedMediaType)
	})

	for name, payload := range map[string]string{
		"syntax":   `{"email":`,
		"type":     `{"email":42}`,
		"trailing": `{} {}`,
		"empty":    ``,
	} {
		t.Run("malformed "+name, func(t *testing.T) {
			_, err := decode("application/json", payload)
			require.ErrorIs(t, err, httpx.ErrMalformedBody)
		})
	}
}

func TestMaxBody(t *testing.T) {
	h := httpx.Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var v map[string]any
		if err := httpx.DecodeJSON(r, &v); err != nil {
			var mbe *http.MaxBytesError
			require.True(t, errors.As(err, &mbe))
			w.WriteHeader(http.StatusRequestEntityTooLarge)
			return
		}
		w.WriteHeader(http.StatusOK)
	}), httpx.MaxBody(16))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"`+strings.Repeat("a", 64)+`"}`)))
	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestSessionCookie(t *testing.T) {
	c := httpx.SessionCookie{Name: "jwt"}

	t.Run("set", func(t *testing.T) {
		rec := httptest.NewRecorder()
		c.Set(rec, "tok", time.Now().Add(time.Hour))

		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		ck := cookies[0]
		require.Equal(t, "jwt", ck.Name)
		require.Equal(t, "tok", ck.Value)
		require.Equal(t, "/", ck.Path)
		require.True(t, ck.HttpOnly)
		require.True(t, ck.Secure)
		require.Equal(t, http.SameSiteLaxMode, ck.SameSite)
		require.Positive(t, ck.MaxAge)
	})

	t.Run("clear", func(t *testing.T) {
		rec := httptest.NewRecorder()
		c.Clear(rec)
		header := rec.Header().Get("Set-Cookie")
		require.Contains(t, header, "jwt=;")
		require.Contains(t, header, "Max-Age=0")
	})

	t.Run("read", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/logout", nil)
		require.Empty(t, c.Read(req))

		req.AddCookie(&http.Cookie{Name: "jwt", Value: "tok"})
		require.Equal(t, "tok", c.Read(req))
	})

	t.Run("insecure", func(t *testing.T) {
		rec := httptest.NewRecorder()
		httpx.SessionCookie{Name: "jwt", Insecure: true}.Set(rec, "tok", time.Now().Add(time.Hour))
		require.False(t, rec.Result().Cookies()[0].Secure)
	})
}

func TestWriteJSONBody(t *testing.T) {
	rec := httptest.NewRecorder()
	httpx.WriteJSON(rec, http.StatusPartialContent, map[string]string{"message": "2FA required"})

	var got map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, "2FA required", got["message"])
}

func TestWriteJSONIsNotCached(t *testing.T) {
	rec := httptest.NewRecorder()
	httpx.WriteJSON(rec, http.StatusOK, nil)
	require.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
}

func TestWriteCacheableJSONKeepsMaxAge(t *testing.T) {
	rec := httptest.NewRecorder()
	httpx.NoCache(rec)
	httpx.WriteCacheableJSON(rec, http.StatusOK, 5*time.Minute, map[string]string{"k": "v"})

	require.Equal(t, "public, max-age=300", rec.Header().Get("Cache-Control"))
	require.Empty(t, rec.Header().Get("Pragma"))
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var got map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, "v", got["k"])
}
