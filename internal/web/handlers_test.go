package web

import (
	"encoding/json"
	"html"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakeklinvexgloo/phosra-sub003/internal/config"
	"github.com/jakeklinvexgloo/phosra-sub003/internal/db"
	"github.com/jakeklinvexgloo/phosra-sub003/internal/metrics"
	"github.com/jakeklinvexgloo/phosra-sub003/internal/ops"
)

// client drives the full handler chain and carries the session cookie.
type client struct {
	t       *testing.T
	handler http.Handler
	env     *ops.Env
	cookie  *http.Cookie
}

func setupTest(t *testing.T) *client {
	t.Helper()
	database, err := db.Init(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	reg := prometheus.NewRegistry()
	env := ops.NewEnv(config.DefaultConfig(), database, metrics.NewMetrics(reg))

	srv, err := NewServer(env, reg, "test", "127.0.0.1", 0)
	require.NoError(t, err)
	return &client{t: t, handler: srv.Handler, env: env}
}

func (c *client) do(method, target string, body string, headers map[string]string) *httptest.ResponseRecorder {
	c.t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	if c.cookie != nil {
		req.AddCookie(c.cookie)
	}

	rec := httptest.NewRecorder()
	c.handler.ServeHTTP(rec, req)

	for _, ck := range rec.Result().Cookies() {
		if ck.Name == sessionCookie {
			c.cookie = ck
		}
	}
	return rec
}

func (c *client) json(method, target string) (*httptest.ResponseRecorder, map[string]any) {
	c.t.Helper()
	rec := c.do(method, target, "", map[string]string{"Accept": "application/json"})
	var out map[string]any
	require.NoError(c.t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return rec, out
}

func TestRootRedirects(t *testing.T) {
	c := setupTest(t)
	rec := c.do("GET", "/", "", nil)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/sandbox", rec.Header().Get("Location"))
}

func TestHandleSandbox_CreatesCookieSession(t *testing.T) {
	c := setupTest(t)

	rec := c.do("GET", "/sandbox", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, c.cookie)
	assert.True(t, c.cookie.HttpOnly)

	body := rec.Body.String()
	assert.Contains(t, body, "Netflix sandbox")
	assert.Contains(t, body, "Content Rating Limit")
	assert.Contains(t, body, "<strong>maximum maturity rating</strong>", "descriptions are rendered as markdown")
	assert.Equal(t, 1, c.env.Sessions.Len())

	first := c.cookie.Value
	c.do("GET", "/sandbox", "", nil)
	assert.Equal(t, first, c.cookie.Value, "cookie session is reused")
	assert.Equal(t, 1, c.env.Sessions.Len())
}

func TestHandleSandbox_SwitchProvider(t *testing.T) {
	c := setupTest(t)
	c.do("GET", "/sandbox", "", nil)
	first := c.cookie.Value

	rec := c.do("GET", "/sandbox?provider=disneyplus", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, html.UnescapeString(rec.Body.String()), "Disney+ sandbox")
	assert.NotEqual(t, first, c.cookie.Value)
	assert.Equal(t, 1, c.env.Sessions.Len(), "old session is closed")
}

func TestHandleSandbox_StaleCookie(t *testing.T) {
	c := setupTest(t)
	c.cookie = &http.Cookie{Name: sessionCookie, Value: "gone"}

	rec := c.do("GET", "/sandbox", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEqual(t, "gone", c.cookie.Value)
}

func TestHandleSandbox_UnknownProvider(t *testing.T) {
	c := setupTest(t)

	rec := c.do("GET", "/sandbox?provider=hulu", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "UNKNOWN_PROVIDER")

	rec, out := c.json("GET", "/sandbox?provider=hulu")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	errObj := out["error"].(map[string]any)
	assert.Equal(t, "UNKNOWN_PROVIDER", errObj["code"])
}

func TestSandboxFlow_JSON(t *testing.T) {
	c := setupTest(t)

	rec, state := c.json("GET", "/sandbox/state")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "idle", state["state"].(map[string]any)["phase"])

	rec, _ = c.json("POST", "/sandbox/rules/content_rating/toggle")
	require.Equal(t, http.StatusOK, rec.Code)

	rec, preview := c.json("POST", "/sandbox/preview")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "previewing", preview["phase"])
	assert.Len(t, preview["changes"], 2)

	rec, _ = c.json("POST", "/sandbox/preview")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec, commit := c.json("POST", "/sandbox/commit")
	require.Equal(t, http.StatusOK, rec.Code)
	snapshotID := commit["snapshot"].(map[string]any)["id"].(string)
	assert.Equal(t, true, commit["archived"])

	rec, doc := c.json("GET", "/sandbox/snapshots/"+snapshotID+"/manifest")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, snapshotID, doc["snapshot_id"])
	assert.Equal(t, "netflix", doc["provider"])

	rec, _ = c.json("GET", "/sandbox/snapshots/nope/manifest")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, reset := c.json("POST", "/sandbox/reset")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, reset["state"].(map[string]any)["history"])
}

func TestHandleManifest_Download(t *testing.T) {
	c := setupTest(t)
	c.json("POST", "/sandbox/rules/content_rating/toggle")
	c.json("POST", "/sandbox/preview")
	_, commit := c.json("POST", "/sandbox/commit")
	snapshotID := commit["snapshot"].(map[string]any)["id"].(string)

	rec := c.do("GET", "/sandbox/snapshots/"+snapshotID+"/manifest?download=true", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")
	assert.Contains(t, rec.Header().Get("Content-Disposition"), ".json")
}

func TestFormActions_RedirectToSandbox(t *testing.T) {
	c := setupTest(t)
	c.do("GET", "/sandbox", "", nil)

	for _, path := range []string{"/sandbox/rules/content_rating/toggle", "/sandbox/preview", "/sandbox/discard", "/sandbox/reset"} {
		rec := c.do("POST", path, "", nil)
		assert.Equal(t, http.StatusSeeOther, rec.Code, path)
		assert.Equal(t, "/sandbox", rec.Header().Get("Location"), path)
	}
}

func TestHTMXAction_RendersContentOnly(t *testing.T) {
	c := setupTest(t)
	c.do("GET", "/sandbox", "", nil)

	rec := c.do("POST", "/sandbox/rules/content_rating/toggle", "", map[string]string{"HX-Request": "true"})
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.NotContains(t, body, "<!DOCTYPE html>")
	assert.Contains(t, body, "Content Rating Limit")

	rec = c.do("POST", "/sandbox/preview", "", map[string]string{"HX-Request": "true"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Pending preview")

	rec = c.do("POST", "/sandbox/preview", "", map[string]string{"HX-Request": "true"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), `class="error-message"`)
}

func TestHandleToggle_UnknownCategory(t *testing.T) {
	c := setupTest(t)
	rec, out := c.json("POST", "/sandbox/rules/bogus/toggle")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "UNKNOWN_CATEGORY", out["error"].(map[string]any)["code"])
}

func TestHandleRuleConfig(t *testing.T) {
	c := setupTest(t)

	rec := c.do("POST", "/sandbox/rules/content_rating/config", `{"maxRating":"PG"}`, map[string]string{
		"Content-Type": "application/json",
		"Accept":       "application/json",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var out ops.StateOutput
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	for _, r := range out.State.Rules {
		if r.Category == "content_rating" {
			assert.Equal(t, "PG", r.Config["maxRating"])
		}
	}

	form := url.Values{"config": {`{"maxRating":"G"}`}, "profile_id": {"nf-teen"}}
	rec = c.do("POST", "/sandbox/rules/content_rating/config", form.Encode(), map[string]string{
		"Content-Type": "application/x-www-form-urlencoded",
		"Accept":       "application/json",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	cfg, ok := out.State.Overrides.Lookup("nf-teen", "content_rating")
	require.True(t, ok)
	assert.Equal(t, "G", cfg["maxRating"])
}

func TestHandleRuleConfig_Invalid(t *testing.T) {
	c := setupTest(t)

	tests := []struct {
		name        string
		body        string
		contentType string
	}{
		{"empty form", "", "application/x-www-form-urlencoded"},
		{"form not an object", url.Values{"config": {`["x"]`}}.Encode(), "application/x-www-form-urlencoded"},
		{"bad json body", `{"maxRating":`, "application/json"},
		{"null json body", `null`, "application/json"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := c.do("POST", "/sandbox/rules/content_rating/config", tt.body, map[string]string{
				"Content-Type": tt.contentType,
				"Accept":       "application/json",
			})
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestHandleCatalog(t *testing.T) {
	c := setupTest(t)

	rec := c.do("GET", "/catalog?provider=disneyplus", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, html.UnescapeString(body), "Capabilities shown for Disney+")
	assert.Contains(t, body, "platform managed")
	assert.Contains(t, body, "<em>violence</em>")

	rec, out := c.json("GET", "/catalog")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "netflix", out["provider"])

	rec = c.do("GET", "/catalog?provider=hulu", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	c := setupTest(t)
	c.do("GET", "/sandbox", "", nil)

	rec := c.do("GET", "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "phosra_sandbox_sessions_active 1")
}

func TestSecurityHeaders(t *testing.T) {
	c := setupTest(t)
	rec := c.do("GET", "/catalog", "", nil)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Contains(t, rec.Header().Get("Content-Security-Policy"), "default-src 'self'")
}

func TestStaticFiles(t *testing.T) {
	c := setupTest(t)
	rec := c.do("GET", "/static/style.css", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/css")
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "none", formatValue(nil))
	assert.Equal(t, `""`, formatValue(""))
	assert.Equal(t, "13+", formatValue("13+"))
	assert.Equal(t, "[]", formatValue([]string{}))
	assert.Equal(t, "a, b", formatValue([]string{"a", "b"}))
	assert.Equal(t, "true", formatValue(true))
	assert.Equal(t, "x, 1", formatValue([]any{"x", 1}))
}

func TestShortID(t *testing.T) {
	assert.Equal(t, "abc", shortID("abc"))
	assert.Equal(t, "0123456789...", shortID("0123456789ABCDEF"))
}
