package web

import (
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/jakeklinvexgloo/phosra-sub003/internal/category"
	"github.com/jakeklinvexgloo/phosra-sub003/internal/errors"
	"github.com/jakeklinvexgloo/phosra-sub003/internal/ops"
	"github.com/jakeklinvexgloo/phosra-sub003/internal/provider"
	"github.com/jakeklinvexgloo/phosra-sub003/internal/score"
)

// sessionCookie binds a browser to its sandbox session.
const sessionCookie = "phosra_session"

// maxConfigBody bounds rule config request bodies.
const maxConfigBody = 64 << 10

// Handlers contains HTTP route handlers for the web UI.
type Handlers struct {
	env      *ops.Env
	renderer *Renderer
}

// session returns the browser's sandbox session, creating one when the
// cookie is missing, stale, or names a different provider than ?provider=.
func (h *Handlers) session(w http.ResponseWriter, r *http.Request) (*ops.StateOutput, error) {
	want := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("provider")))

	if c, err := r.Cookie(sessionCookie); err == nil && c.Value != "" {
		out, err := ops.GetState(h.env, ops.GetStateInput{SessionID: c.Value})
		switch {
		case err == nil && (want == "" || string(out.State.Provider) == want):
			return out, nil
		case err == nil:
			h.env.Sessions.Close(c.Value)
		case !errors.Is(err, errors.ErrNotFound):
			return nil, err
		}
	}

	out, err := ops.CreateSession(h.env, ops.CreateSessionInput{Provider: want})
	if err != nil {
		return nil, err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    out.SessionID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return out, nil
}

// HandleSandbox handles GET /sandbox, the rule editor of the cookie session.
func (h *Handlers) HandleSandbox(w http.ResponseWriter, r *http.Request) {
	out, err := h.session(w, r)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	h.renderer.renderPage(w, r, "sandbox", h.sandboxPage(out))
}

// HandleState handles GET /sandbox/state.
func (h *Handlers) HandleState(w http.ResponseWriter, r *http.Request) {
	out, err := h.session(w, r)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, out)
}

// HandleToggle handles POST /sandbox/rules/{category}/toggle.
func (h *Handlers) HandleToggle(w http.ResponseWriter, r *http.Request) {
	sess, err := h.session(w, r)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	out, err := ops.ToggleRule(h.env, ops.ToggleRuleInput{
		SessionID: sess.SessionID,
		Category:  r.PathValue("category"),
	})
	h.respond(w, r, out, out, err)
}

// HandleRuleConfig handles POST /sandbox/rules/{category}/config.
// The config is a JSON object, sent as the request body or in the "config"
// form field. A "profile_id" form field stores it as a profile override.
func (h *Handlers) HandleRuleConfig(w http.ResponseWriter, r *http.Request) {
	sess, err := h.session(w, r)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	cfg, profileID, err := readRuleConfig(w, r)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	var out *ops.StateOutput
	if profileID != "" {
		out, err = ops.UpdateProfileRuleConfig(h.env, ops.UpdateProfileRuleConfigInput{
			SessionID: sess.SessionID,
			ProfileID: profileID,
			Category:  r.PathValue("category"),
			Config:    cfg,
		})
	} else {
		out, err = ops.UpdateRuleConfig(h.env, ops.UpdateRuleConfigInput{
			SessionID: sess.SessionID,
			Category:  r.PathValue("category"),
			Config:    cfg,
		})
	}
	h.respond(w, r, out, out, err)
}

// HandlePreview handles POST /sandbox/preview.
func (h *Handlers) HandlePreview(w http.ResponseWriter, r *http.Request) {
	sess, err := h.session(w, r)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	out, err := ops.Preview(r.Context(), h.env, ops.PreviewInput{SessionID: sess.SessionID})
	h.respond(w, r, out, nil, err)
}

// HandleCommit handles POST /sandbox/commit.
func (h *Handlers) HandleCommit(w http.ResponseWriter, r *http.Request) {
	sess, err := h.session(w, r)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	out, err := ops.Commit(r.Context(), h.env, ops.CommitInput{SessionID: sess.SessionID})
	h.respond(w, r, out, nil, err)
}

// HandleDiscard handles POST /sandbox/discard.
func (h *Handlers) HandleDiscard(w http.ResponseWriter, r *http.Request) {
	sess, err := h.session(w, r)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	out, err := ops.Discard(h.env, ops.DiscardInput{SessionID: sess.SessionID})
	h.respond(w, r, out, out, err)
}

// HandleReset handles POST /sandbox/reset.
func (h *Handlers) HandleReset(w http.ResponseWriter, r *http.Request) {
	sess, err := h.session(w, r)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	out, err := ops.Reset(h.env, ops.ResetInput{SessionID: sess.SessionID})
	h.respond(w, r, out, out, err)
}

// HandleManifest handles GET /sandbox/snapshots/{id}/manifest.
func (h *Handlers) HandleManifest(w http.ResponseWriter, r *http.Request) {
	sess, err := h.session(w, r)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	out, err := ops.ExportManifest(r.Context(), h.env, ops.ExportManifestInput{
		SessionID:  sess.SessionID,
		SnapshotID: r.PathValue("id"),
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	if r.URL.Query().Get("download") == "true" {
		w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{
			"filename": ops.SanitizeForFilename(string(sess.State.Provider)+"-"+out.Manifest.SnapshotID) + ops.ManifestExt,
		}))
	}
	renderJSON(w, http.StatusOK, out.Manifest)
}

// HandleCatalog handles GET /catalog: every category with its markdown
// description and the chosen provider's capability.
func (h *Handlers) HandleCatalog(w http.ResponseWriter, r *http.Request) {
	out, err := ops.Capabilities(h.env, ops.CapabilitiesInput{Provider: r.URL.Query().Get("provider")})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, out)
		return
	}

	caps := make(map[category.Category]provider.Capability, len(out.Capabilities))
	for _, c := range out.Capabilities {
		caps[c.Category] = c
	}

	byDomain := category.ByDomain()
	domains := make([]CatalogDomain, 0, len(byDomain))
	for _, d := range category.Domains() {
		group := CatalogDomain{Domain: d}
		for _, c := range byDomain[d] {
			info, _ := category.Lookup(c)
			entry := CatalogEntry{Info: info, DescriptionHTML: renderMarkdown(info.Description)}
			if capability, ok := caps[c]; ok {
				entry.Capability = &capability
			}
			group.Entries = append(group.Entries, entry)
		}
		domains = append(domains, group)
	}

	h.renderer.renderPage(w, r, "catalog", CatalogPageData{
		PageData:     h.renderer.page("Catalog", "catalog"),
		Provider:     out.Provider,
		ProviderName: out.Name,
		Providers:    out.Providers,
		Domains:      domains,
	})
}

// respond finishes a state-changing request. JSON clients get jsonOut,
// htmx gets the refreshed page content, and plain forms are redirected back
// to /sandbox. state may be nil, in which case it is reloaded.
func (h *Handlers) respond(w http.ResponseWriter, r *http.Request, jsonOut any, state *ops.StateOutput, err error) {
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, jsonOut)
		return
	}

	if isHTMX(r) {
		if state == nil {
			state, err = h.session(w, r)
			if err != nil {
				h.renderer.renderError(w, r, err)
				return
			}
		}
		h.renderer.renderBlock(w, http.StatusOK, "sandbox", "content", h.sandboxPage(state))
		return
	}

	http.Redirect(w, r, "/sandbox", http.StatusSeeOther)
}

func (h *Handlers) sandboxPage(out *ops.StateOutput) SandboxPageData {
	st := out.State
	rules := make([]RuleView, 0, len(st.Rules))
	for _, rule := range st.Rules {
		cfg, _ := json.Marshal(rule.Config)
		rules = append(rules, RuleView{
			Rule:            rule,
			DescriptionHTML: renderMarkdown(rule.Description),
			ConfigJSON:      string(cfg),
		})
	}

	var scores []score.ProfileScore
	if p, err := provider.Get(string(st.Provider)); err == nil {
		scores = score.All(p, st.Profiles, st.Rules)
	}

	return SandboxPageData{
		PageData:     h.renderer.page("Sandbox", "sandbox"),
		SessionID:    out.SessionID,
		ProviderID:   string(st.Provider),
		ProviderName: out.ProviderName,
		Providers:    provider.IDs(),
		State:        st,
		Rules:        rules,
		Scores:       scores,
	}
}

// readRuleConfig reads a config object from a JSON body or from form fields.
func readRuleConfig(w http.ResponseWriter, r *http.Request) (map[string]any, string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxConfigBody)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		var cfg map[string]any
		if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil && err != io.EOF {
			return nil, "", errors.NewInvalidRequest("config body must be a JSON object")
		}
		if cfg == nil {
			return nil, "", errors.NewInvalidRequest("config is required")
		}
		return cfg, r.URL.Query().Get("profile_id"), nil
	}

	if err := r.ParseForm(); err != nil {
		return nil, "", errors.NewInvalidRequest("invalid form data")
	}
	raw := strings.TrimSpace(r.FormValue("config"))
	if raw == "" {
		return nil, "", errors.NewInvalidRequest("config is required")
	}
	var cfg map[string]any
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil || cfg == nil {
		return nil, "", errors.NewInvalidRequest("config must be a JSON object")
	}
	return cfg, strings.TrimSpace(r.FormValue("profile_id")), nil
}
