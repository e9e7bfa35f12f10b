package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"whatsapp_gateway/internal/app"
	"whatsapp_gateway/internal/domain/action"
	"whatsapp_gateway/internal/domain/message"
	"whatsapp_gateway/internal/domain/store"
	"whatsapp_gateway/internal/domain/thread"
	idb "whatsapp_gateway/internal/infra/database"
)

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	tx              store.Transactor
	resolver        *app.RecipientResolver
	threads         *app.ThreadService
	actions         *app.ActionService
	templates       *app.TemplateService
	defaultAuthorID int64
	logger          *logrus.Entry
}

// Deps groups what New needs.
type Deps struct {
	Tx              store.Transactor
	Resolver        *app.RecipientResolver
	Threads         *app.ThreadService
	Actions         *app.ActionService
	Templates       *app.TemplateService
	DefaultAuthorID int64
	Logger          *logrus.Entry
}

// New creates a new Handler.
func New(d Deps) *Handler {
	return &Handler{
		tx:              d.Tx,
		resolver:        d.Resolver,
		threads:         d.Threads,
		actions:         d.Actions,
		templates:       d.Templates,
		defaultAuthorID: d.DefaultAuthorID,
		logger:          d.Logger.WithField("component", "httpapi"),
	}
}

// Health reports liveness.
// GET /health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type recipientResp struct {
	RecordID     int64  `json:"record_id"`
	PartnerID    *int64 `json:"partner_id,omitempty"`
	Sanitized    string `json:"sanitized"`
	Number       string `json:"number"`
	PartnerStore bool   `json:"partner_store"`
	FieldStore   string `json:"field_store"`
}

// Recipients computes the WhatsApp recipient of one record.
// GET /v1/threads/{model}/{id}/recipients?field=&fallback=
func (h *Handler) Recipients(w http.ResponseWriter, r *http.Request) {
	model := chi.URLParam(r, "model")
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		jsonError(w, "id must be a number", http.StatusBadRequest)
		return
	}
	fallback := true
	if raw := r.URL.Query().Get("fallback"); raw != "" {
		if fallback, err = strconv.ParseBool(raw); err != nil {
			jsonError(w, "fallback must be a boolean", http.StatusBadRequest)
			return
		}
	}

	var rec thread.Record
	err = h.tx.InTx(r.Context(), func(st store.Store) error {
		var err error
		rec, err = app.LoadRecord(r.Context(), st, model, id)
		return err
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	info := h.resolver.Resolve(r.Context(), []thread.Record{rec}, r.URL.Query().Get("field"), fallback)[rec.RecordID()]
	resp := recipientResp{
		RecordID:     info.RecordID,
		Sanitized:    info.Sanitized,
		Number:       info.Number,
		PartnerStore: info.PartnerStore,
		FieldStore:   info.FieldStore,
	}
	if info.Partner != nil {
		resp.PartnerID = &info.Partner.ID
	}
	writeJSON(w, http.StatusOK, resp)
}

type postWhatsAppReq struct {
	Body           string           `json:"body"`
	Subtype        string           `json:"subtype"`
	TemplateID     int64            `json:"template_id"`
	AuthorID       int64            `json:"author_id"`
	PartnerIDs     []int64          `json:"partner_ids"`
	Numbers        []string         `json:"numbers"`
	PartnerNumbers map[int64]string `json:"partner_numbers"`
	NumberField    string           `json:"number_field"`
	ResendExisting bool             `json:"resend_existing"`
	QueueOnly      bool             `json:"queue_only"`
}

type outgoingResp struct {
	ID          int64  `json:"id"`
	UUID        string `json:"uuid"`
	Number      string `json:"number"`
	State       string `json:"state"`
	FailureType string `json:"failure_type,omitempty"`
}

type postResultResp struct {
	MessageID int64          `json:"message_id"`
	ResID     int64          `json:"res_id"`
	Outgoing  []outgoingResp `json:"outgoing"`
}

// PostWhatsApp posts a WhatsApp message on a record.
// POST /v1/threads/{model}/{id}/whatsapp
func (h *Handler) PostWhatsApp(w http.ResponseWriter, r *http.Request) {
	model := chi.URLParam(r, "model")
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		jsonError(w, "id must be a number", http.StatusBadRequest)
		return
	}

	var req postWhatsAppReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Body == "" && req.TemplateID == 0 {
		jsonError(w, "body or template_id is required", http.StatusBadRequest)
		return
	}
	subtype := message.Subtype(req.Subtype)
	if subtype != "" && subtype != message.SubtypeComment && subtype != message.SubtypeNote {
		jsonError(w, "subtype must be comment or note", http.StatusBadRequest)
		return
	}

	post := app.PostWhatsApp{
		Subtype:        subtype,
		PartnerIDs:     req.PartnerIDs,
		Numbers:        req.Numbers,
		PartnerNumbers: req.PartnerNumbers,
		NumberField:    req.NumberField,
		ResendExisting: req.ResendExisting,
		QueueOnly:      req.QueueOnly,
	}

	var result *app.PostResult
	err = h.tx.InTx(r.Context(), func(st store.Store) error {
		rec, err := app.LoadRecord(r.Context(), st, model, id)
		if err != nil {
			return err
		}
		result, err = h.threads.MessageWhatsAppWithTemplate(r.Context(), st, rec, h.author(req.AuthorID), req.TemplateID, req.Body, post)
		return err
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPostResult(result))
}

type massReq struct {
	IDs        []int64 `json:"ids"`
	Body       string  `json:"body"`
	TemplateID int64   `json:"template_id"`
	AuthorID   int64   `json:"author_id"`
}

// ScheduleMass queues the same WhatsApp message on several records.
// POST /v1/threads/{model}/whatsapp-mass
func (h *Handler) ScheduleMass(w http.ResponseWriter, r *http.Request) {
	model := chi.URLParam(r, "model")

	var req massReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if len(req.IDs) == 0 {
		jsonError(w, "ids is required", http.StatusBadRequest)
		return
	}

	var results []*app.PostResult
	err := h.tx.InTx(r.Context(), func(st store.Store) error {
		records, err := app.LoadRecords(r.Context(), st, model, req.IDs)
		if err != nil {
			return err
		}
		results, err = h.threads.ScheduleMass(r.Context(), st, records, h.author(req.AuthorID), req.Body, req.TemplateID)
		return err
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	resp := make([]postResultResp, len(results))
	for i, res := range results {
		resp[i] = toPostResult(res)
	}
	writeJSON(w, http.StatusCreated, resp)
}

// WhatsAppErrors lists the records with a failed WhatsApp notification.
// GET /v1/threads/{model}/whatsapp-errors?ids=1,2&author_id=
func (h *Handler) WhatsAppErrors(w http.ResponseWriter, r *http.Request) {
	model := chi.URLParam(r, "model")
	ids, err := parseIDs(r.URL.Query().Get("ids"))
	if err != nil || len(ids) == 0 {
		jsonError(w, "ids must be a comma separated list of numbers", http.StatusBadRequest)
		return
	}
	authorID, err := queryInt(r, "author_id")
	if err != nil {
		jsonError(w, "author_id must be a number", http.StatusBadRequest)
		return
	}

	var flags map[int64]bool
	err = h.tx.InTx(r.Context(), func(st store.Store) error {
		var err error
		flags, err = h.threads.HasWhatsAppError(r.Context(), st, model, ids, h.author(authorID))
		return err
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	failed := []int64{}
	for _, id := range ids {
		if flags[id] {
			failed = append(failed, id)
		}
	}
	writeJSON(w, http.StatusOK, map[string][]int64{"failed": failed})
}

type authorReq struct {
	AuthorID int64 `json:"author_id"`
}

// CancelWhatsApp dismisses the author's failed WhatsApp notifications.
// POST /v1/whatsapp/cancel
func (h *Handler) CancelWhatsApp(w http.ResponseWriter, r *http.Request) {
	var req authorReq
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			jsonError(w, "invalid request body", http.StatusBadRequest)
			return
		}
	}

	var n int64
	err := h.tx.InTx(r.Context(), func(st store.Store) error {
		var err error
		n, err = h.threads.CancelWhatsAppNotifications(r.Context(), st, h.author(req.AuthorID))
		return err
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"canceled": n})
}

type runActionReq struct {
	ResIDs []int64 `json:"res_ids"`
}

// RunAction runs a WhatsApp server action on records.
// POST /v1/actions/{id}/run
func (h *Handler) RunAction(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		jsonError(w, "id must be a number", http.StatusBadRequest)
		return
	}
	var req runActionReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	n, err := h.actions.Run(r.Context(), id, req.ResIDs)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"processed": n})
}

type resetTemplatesReq struct {
	IDs []int64 `json:"ids"`
}

// ResetTemplates restores the default body of templates.
// POST /v1/templates/reset
func (h *Handler) ResetTemplates(w http.ResponseWriter, r *http.Request) {
	var req resetTemplatesReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if len(req.IDs) == 0 {
		jsonError(w, "ids is required", http.StatusBadRequest)
		return
	}

	var n int64
	err := h.tx.InTx(r.Context(), func(st store.Store) error {
		var err error
		n, err = h.templates.Reset(r.Context(), st, req.IDs)
		return err
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"reset": n})
}

func (h *Handler) author(id int64) int64 {
	if id == 0 {
		return h.defaultAuthorID
	}
	return id
}

// fail maps service errors to HTTP statuses.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	var verr *action.ValidationError
	switch {
	case errors.As(err, &verr):
		jsonError(w, verr.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, app.ErrTemplateModelMismatch):
		jsonError(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, idb.ErrRecordNotFound),
		errors.Is(err, idb.ErrPartnerNotFound),
		errors.Is(err, idb.ErrTemplateNotFound),
		errors.Is(err, idb.ErrActionNotFound):
		jsonError(w, err.Error(), http.StatusNotFound)
	default:
		h.logger.WithError(err).WithField("path", r.URL.Path).Error("Request failed")
		jsonError(w, "internal error", http.StatusInternalServerError)
	}
}

func toPostResult(res *app.PostResult) postResultResp {
	resp := postResultResp{Outgoing: make([]outgoingResp, 0, len(res.Outgoing))}
	if res.Message != nil {
		resp.MessageID = res.Message.ID
		resp.ResID = res.Message.ResID
	}
	for _, m := range res.Outgoing {
		resp.Outgoing = append(resp.Outgoing, outgoingResp{
			ID:          m.ID,
			UUID:        m.UUID,
			Number:      m.Number,
			State:       string(m.State),
			FailureType: string(m.FailureType),
		})
	}
	return resp
}

func parseIDs(raw string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func queryInt(r *http.Request, key string) (int64, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, nil
	}
	return strconv.ParseInt(raw, 10, 64)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, status int) {
	writeJSON(w, status, map[string]string{"error": msg})
}
