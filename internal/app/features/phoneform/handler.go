package phoneform

import (
	"errors"
	"net/http"

	"github.com/dalemusser/phoneform/form"
	"github.com/dalemusser/phoneform/httputil"
	"github.com/dalemusser/phoneform/metrics"
	"github.com/dalemusser/phoneform/registry"
	"github.com/dalemusser/phoneform/sse"
	"github.com/dalemusser/phoneform/templates"
	"go.uber.org/zap"
)

// CookieName holds the visitor's session id.
const CookieName = "phoneform_sid"

// DefaultTitle heads the page.
const DefaultTitle = "Phone Verification"

const maxFormMemory = 32 << 10

// Options tunes the handlers. Zero values take defaults.
type Options struct {
	Title        string
	CookieSecure bool
	SSE          sse.Config
}

// Handler serves one phone form per visitor session.
type Handler struct {
	reg    *registry.Registry
	tpl    *templates.Engine
	logger *zap.Logger
	opts   Options
}

// NewHandler builds the feature handler.
func NewHandler(reg *registry.Registry, tpl *templates.Engine, logger *zap.Logger, opts Options) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Title == "" {
		opts.Title = DefaultTitle
	}
	if opts.SSE == (sse.Config{}) {
		opts.SSE = sse.DefaultConfig()
	}
	return &Handler{reg: reg, tpl: tpl, logger: logger, opts: opts}
}

// session returns the caller's session, mounting a new form when the
// cookie is missing, malformed or expired.
func (h *Handler) session(w http.ResponseWriter, r *http.Request) *registry.Session {
	var id string
	if c, err := r.Cookie(CookieName); err == nil {
		id = c.Value
	}
	sess, created := h.reg.GetOrCreate(id)
	if created {
		http.SetCookie(w, &http.Cookie{
			Name:     CookieName,
			Value:    sess.ID,
			Path:     "/",
			HttpOnly: true,
			Secure:   h.opts.CookieSecure,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return sess
}

// ServePage renders the full page. Notifications still queued for the
// session are shown inline.
func (h *Handler) ServePage(w http.ResponseWriter, r *http.Request) {
	sess := h.session(w, r)
	h.renderPage(w, sess)
}

// ServeState answers the current view as JSON.
func (h *Handler) ServeState(w http.ResponseWriter, r *http.Request) {
	sess := h.session(w, r)
	httputil.WriteJSON(w, http.StatusOK, sess.Form.Snapshot().View())
}

// ServeInput applies one keystroke's worth of field text.
func (h *Handler) ServeInput(w http.ResponseWriter, r *http.Request) {
	raw, ok := h.phoneField(w, r)
	if !ok {
		return
	}
	sess := h.session(w, r)

	snap, err := sess.Form.Change(raw)
	if errors.Is(err, form.ErrClosed) {
		sessionClosed(w)
		return
	}
	h.respond(w, r, sess, http.StatusOK, snap)
}

// ServeSubmit submits the form. A phone field in the request, if present,
// is applied first so the form also works without the page script.
func (h *Handler) ServeSubmit(w http.ResponseWriter, r *http.Request) {
	raw, ok := h.phoneField(w, r)
	if !ok {
		return
	}
	sess := h.session(w, r)

	if raw != "" && !sess.Form.Snapshot().Submitted {
		if _, err := sess.Form.Change(raw); errors.Is(err, form.ErrClosed) {
			sessionClosed(w)
			return
		}
	}

	snap, err := sess.Form.Submit()
	status := http.StatusOK
	switch {
	case err == nil:
		metrics.ObserveSubmission(metrics.OutcomeAccepted)
		h.logger.Info("phone number submitted", zap.String("session_id", sess.ID))
	case errors.Is(err, form.ErrInvalidPhone):
		metrics.ObserveSubmission(metrics.OutcomeRejected)
		h.logger.Debug("phone number rejected",
			zap.String("session_id", sess.ID), zap.Int("digits", len(snap.Value)))
		status = http.StatusUnprocessableEntity
	case errors.Is(err, form.ErrSubmitDisabled):
		metrics.ObserveSubmission(metrics.OutcomeIgnored)
		status = http.StatusConflict
	case errors.Is(err, form.ErrClosed):
		sessionClosed(w)
		return
	default:
		h.logger.Error("submit failed", zap.String("session_id", sess.ID), zap.Error(err))
		httputil.JSONError(w, http.StatusInternalServerError, "internal", "Submit failed.")
		return
	}
	h.respond(w, r, sess, status, snap)
}

// phoneField reads the "phone" value from a form or JSON body. On a bad
// body it answers 400 and returns ok=false.
func (h *Handler) phoneField(w http.ResponseWriter, r *http.Request) (string, bool) {
	if httputil.IsJSONBody(r) {
		var body struct {
			Phone string `json:"phone"`
		}
		if r.ContentLength == 0 {
			return "", true
		}
		if err := httputil.BindJSON(r, &body); err != nil {
			httputil.JSONError(w, http.StatusBadRequest, "invalid_request", err.Error())
			return "", false
		}
		return body.Phone, true
	}
	err := r.ParseMultipartForm(maxFormMemory)
	if err != nil && !errors.Is(err, http.ErrNotMultipart) {
		httputil.JSONError(w, http.StatusBadRequest, "invalid_request", "Could not read form body.")
		return "", false
	}
	return r.PostFormValue("phone"), true
}

// respond picks the representation: JSON for API clients, the form
// fragment for the page script, or a redirect back to the page for a plain
// browser form post.
func (h *Handler) respond(w http.ResponseWriter, r *http.Request, sess *registry.Session, status int, snap form.Snapshot) {
	switch {
	case httputil.WantsJSON(r):
		httputil.WriteJSON(w, status, snap.View())
	case r.Header.Get("X-Requested-With") != "":
		h.tpl.Respond(w, status, templates.FormTemplate, templates.Page{Title: h.opts.Title, View: snap.View()})
	default:
		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}

func (h *Handler) renderPage(w http.ResponseWriter, sess *registry.Session) {
	w.Header().Set("Cache-Control", "no-store")
	h.tpl.Respond(w, http.StatusOK, templates.PageTemplate, templates.Page{
		Title:  h.opts.Title,
		View:   sess.Form.Snapshot().View(),
		Toasts: sess.Toasts.Drain(),
	})
}

func sessionClosed(w http.ResponseWriter) {
	httputil.JSONError(w, http.StatusGone, "session_closed", "This form has been closed; reload the page.")
}
