package web

import (
	"database/sql"
	"html/template"
	"net/http"
	"net/url"
	"strconv"

	"github.com/hpungsan/jot/internal/capture"
	"github.com/hpungsan/jot/internal/config"
	"github.com/hpungsan/jot/internal/errors"
	"github.com/hpungsan/jot/internal/ops"
)

// Handlers contains HTTP route handlers for the web UI.
type Handlers struct {
	db       *sql.DB
	cfg      *config.Config
	renderer *Renderer
}

// HandleList handles GET /items: filtered item list plus the quick-capture form.
func (h *Handlers) HandleList(w http.ResponseWriter, r *http.Request) {
	h.renderList(w, r, http.StatusOK, r.URL.Query().Get("captured"), "", "")
}

// renderList runs the list query from the request URL and renders the page.
// A failed capture passes its text and message so the form can be refilled.
func (h *Handlers) renderList(w http.ResponseWriter, r *http.Request, status int, toast, text, captureErr string) {
	q := r.URL.Query()
	filters := ListFilters{
		Type:      q.Get("type"),
		Status:    q.Get("status"),
		Project:   q.Get("project"),
		Hashtag:   q.Get("hashtag"),
		Query:     q.Get("q"),
		DueBefore: q.Get("due_before"),
		Deleted:   parseBoolParam(r, "include_deleted"),
		Limit:     parseIntParam(r, "limit", 0),
	}

	limit := filters.Limit
	if limit <= 0 && h.cfg != nil {
		limit = h.cfg.DefaultListLimit
	}

	input := ops.ListInput{
		Project:        ptrString(filters.Project),
		Hashtag:        ptrString(filters.Hashtag),
		Query:          ptrString(filters.Query),
		DueBefore:      ptrString(filters.DueBefore),
		Limit:          limit,
		Offset:         parseIntParam(r, "offset", 0),
		IncludeDeleted: filters.Deleted,
	}
	if filters.Type != "" {
		t := capture.Type(filters.Type)
		input.Type = &t
	}
	if filters.Status != "" {
		s := capture.Status(filters.Status)
		input.Status = &s
	}

	result, err := ops.List(r.Context(), h.db, input)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	h.renderer.renderPageStatus(w, r, status, "list", ListPageData{
		PageData:     h.renderer.page("Items", "items"),
		Items:        result.Items,
		Pagination:   result.Pagination,
		Filters:      filters,
		Types:        allTypes,
		Statuses:     allStatuses,
		Toast:        toast,
		CaptureText:  text,
		CaptureError: captureErr,
	})
}

// HandleCapture handles POST /items: parse and store one quick-capture line.
func (h *Handlers) HandleCapture(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("invalid form data"))
		return
	}

	text := r.PostFormValue("text")
	result, err := ops.Capture(r.Context(), h.db, h.cfg, ops.CaptureInput{
		Text:        text,
		Description: ptrString(r.PostFormValue("description")),
	})
	if err != nil {
		if wantsJSON(r) || isHTMX(r) {
			h.renderer.renderError(w, r, err)
			return
		}
		jErr := errors.As(err)
		if jErr.Code == errors.ErrInternal {
			h.renderer.renderError(w, r, err)
			return
		}
		h.renderList(w, r, jErr.Status, "", text, jErr.Message)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusCreated, result)
		return
	}

	target := "/items?captured=" + url.QueryEscape(result.Item.Title)
	if isHTMX(r) {
		w.Header().Set("HX-Redirect", target)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// HandleDetail handles GET /items/{id}: one item with its rendered description.
func (h *Handlers) HandleDetail(w http.ResponseWriter, r *http.Request) {
	item, err := ops.Fetch(r.Context(), h.db, ops.FetchInput{
		ID:             r.PathValue("id"),
		IncludeDeleted: parseBoolParam(r, "include_deleted"),
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, item)
		return
	}

	var rendered template.HTML
	if item.Description != nil {
		rendered = renderMarkdown(*item.Description)
	}

	h.renderer.renderPage(w, r, "detail", DetailPageData{
		PageData:     h.renderer.page(item.Title, "items"),
		Item:         item,
		RenderedHTML: rendered,
		Statuses:     allStatuses,
	})
}

// HandleStatus handles POST /items/{id}/status: move an item to a new status.
func (h *Handlers) HandleStatus(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("invalid form data"))
		return
	}

	status := r.PostFormValue("status")
	if status == "" {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("status is required"))
		return
	}

	result, err := ops.Update(r.Context(), h.db, h.cfg, ops.UpdateInput{
		ID:     r.PathValue("id"),
		Status: &status,
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, result.Item)
		return
	}

	target := "/items/" + url.PathEscape(result.Item.ID)
	if isHTMX(r) {
		w.Header().Set("HX-Redirect", target)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// HandleDelete handles DELETE /items/{id}: soft-delete an item.
func (h *Handlers) HandleDelete(w http.ResponseWriter, r *http.Request) {
	result, err := ops.Delete(r.Context(), h.db, ops.DeleteInput{ID: r.PathValue("id")})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if isHTMX(r) {
		w.Header().Set("HX-Redirect", "/items")
		w.WriteHeader(http.StatusOK)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, result)
		return
	}

	http.Redirect(w, r, "/items", http.StatusFound)
}

// HandlePurge handles POST /items/purge: permanently remove soft-deleted items.
func (h *Handlers) HandlePurge(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("invalid form data"))
		return
	}

	if r.FormValue("confirm") != "true" {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("confirm parameter must be \"true\""))
		return
	}

	var input ops.PurgeInput
	if typ := r.FormValue("type"); typ != "" {
		t := capture.Type(typ)
		input.Type = &t
	}
	if days := r.FormValue("older_than_days"); days != "" {
		d, err := strconv.Atoi(days)
		if err != nil {
			h.renderer.renderError(w, r, errors.NewInvalidRequest("older_than_days must be an integer"))
			return
		}
		input.OlderThanDays = &d
	}

	result, err := ops.Purge(r.Context(), h.db, input)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if isHTMX(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`<div class="purge-result">` + template.HTMLEscapeString(result.Message) + `</div>`))
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, result)
		return
	}

	http.Redirect(w, r, "/items?include_deleted=true", http.StatusFound)
}

// HandleProjects handles GET /projects: projects with live item counts.
func (h *Handlers) HandleProjects(w http.ResponseWriter, r *http.Request) {
	result, err := ops.Projects(r.Context(), h.db, ops.ProjectsInput{
		Limit:  parseIntParam(r, "limit", 100),
		Offset: parseIntParam(r, "offset", 0),
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, result)
		return
	}

	h.renderer.renderPage(w, r, "projects", ProjectsPageData{
		PageData:   h.renderer.page("Projects", "projects"),
		Projects:   result.Projects,
		Pagination: result.Pagination,
	})
}

// parseIntParam parses an integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	s := r.URL.Query().Get(name)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return v
}

// parseBoolParam parses a boolean query parameter.
func parseBoolParam(r *http.Request, name string) bool {
	s := r.URL.Query().Get(name)
	return s == "true" || s == "1"
}

// ptrString returns a pointer to s if non-empty, nil otherwise.
func ptrString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
