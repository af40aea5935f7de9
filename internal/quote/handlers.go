package quote

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"

	"github.com/noah-isme/backend-quote/internal/common"
	"github.com/noah-isme/backend-quote/internal/discount"
	"github.com/noah-isme/backend-quote/internal/fields"
	"github.com/noah-isme/backend-quote/internal/selection"
	"github.com/noah-isme/backend-quote/internal/session"
)

type createRequest struct {
	ClientName  string        `json:"clientName" validate:"max=200"`
	ProjectName string        `json:"projectName" validate:"max=200"`
	PreparedBy  string        `json:"preparedBy" validate:"max=200"`
	Values      fields.Values `json:"values"`
}

type fieldsRequest struct {
	Values fields.Values `json:"values" validate:"required"`
}

type addRowRequest struct {
	ItemID   string `json:"itemId" validate:"required,max=100"`
	Quantity *int   `json:"quantity" validate:"omitempty,min=0"`
}

type updateRowRequest struct {
	Quantity      *int     `json:"quantity" validate:"omitempty,min=0"`
	DiscountValue *float64 `json:"discountValue" validate:"omitempty,min=0"`
	DiscountType  *string  `json:"discountType" validate:"omitempty,oneof=percentage fixed"`
	DiscountScope *string  `json:"discountScope" validate:"omitempty,oneof=unit total"`
	IsFree        *bool    `json:"isFree"`
}

type discountRequest struct {
	Value       float64 `json:"value" validate:"min=0"`
	Type        string  `json:"type" validate:"omitempty,oneof=percentage fixed"`
	Application string  `json:"application" validate:"omitempty,oneof=none both monthly onetime one-time one_time"`
}

// Handler wires the quote service to HTTP.
type Handler struct {
	svc      *Service
	validate *validator.Validate
}

// NewHandler constructs a Handler. A nil validate gets a default instance.
func NewHandler(svc *Service, validate *validator.Validate) *Handler {
	if validate == nil {
		validate = NewValidator()
	}
	return &Handler{svc: svc, validate: validate}
}

// NewValidator returns a validator reporting json field names.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Routes mounts the quote endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.Create)
	r.Route("/{id}", func(q chi.Router) {
		q.Get("/", h.Get)
		q.Delete("/", h.Delete)
		q.Get("/summary", h.Summary)
		q.Patch("/fields", h.UpdateFields)
		q.Put("/discount", h.SetDiscount)
		q.Post("/rows", h.AddRow)
		q.Patch("/rows/{itemId}", h.UpdateRow)
		q.Delete("/rows/{itemId}", h.RemoveRow)
	})
}

// Create handles POST /api/v1/quotes.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if !h.decode(w, r, &req) {
		return
	}
	view, err := h.svc.Create(r.Context(), CreateInput{
		Client: session.Client{ClientName: req.ClientName, ProjectName: req.ProjectName, PreparedBy: req.PreparedBy},
		Values: req.Values,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusCreated, view)
}

// Get handles GET /api/v1/quotes/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	view, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, view)
}

// Delete handles DELETE /api/v1/quotes/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Summary handles GET /api/v1/quotes/{id}/summary.
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.svc.Summary(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, summary)
}

// UpdateFields handles PATCH /api/v1/quotes/{id}/fields.
func (h *Handler) UpdateFields(w http.ResponseWriter, r *http.Request) {
	var req fieldsRequest
	if !h.decode(w, r, &req) {
		return
	}
	view, err := h.svc.UpdateFields(r.Context(), chi.URLParam(r, "id"), req.Values)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, view)
}

// AddRow handles POST /api/v1/quotes/{id}/rows.
func (h *Handler) AddRow(w http.ResponseWriter, r *http.Request) {
	var req addRowRequest
	if !h.decode(w, r, &req) {
		return
	}
	view, err := h.svc.AddRow(r.Context(), chi.URLParam(r, "id"), req.ItemID, req.Quantity)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusCreated, view)
}

// UpdateRow handles PATCH /api/v1/quotes/{id}/rows/{itemId}.
func (h *Handler) UpdateRow(w http.ResponseWriter, r *http.Request) {
	var req updateRowRequest
	if !h.decode(w, r, &req) {
		return
	}
	patch := RowPatch{
		Quantity:      req.Quantity,
		DiscountValue: req.DiscountValue,
		IsFree:        req.IsFree,
	}
	if req.DiscountType != nil {
		t := selection.DiscountType(*req.DiscountType)
		patch.DiscountType = &t
	}
	if req.DiscountScope != nil {
		sc := selection.DiscountScope(*req.DiscountScope)
		patch.DiscountScope = &sc
	}
	view, err := h.svc.UpdateRow(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "itemId"), patch)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, view)
}

// RemoveRow handles DELETE /api/v1/quotes/{id}/rows/{itemId}.
func (h *Handler) RemoveRow(w http.ResponseWriter, r *http.Request) {
	view, err := h.svc.RemoveRow(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "itemId"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, view)
}

// SetDiscount handles PUT /api/v1/quotes/{id}/discount.
func (h *Handler) SetDiscount(w http.ResponseWriter, r *http.Request) {
	var req discountRequest
	if !h.decode(w, r, &req) {
		return
	}
	view, err := h.svc.SetDiscount(r.Context(), chi.URLParam(r, "id"), discount.Config{
		Value:       req.Value,
		Type:        selection.DiscountType(req.Type),
		Application: discount.Application(req.Application),
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, view)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "invalid payload", nil)
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			details := make(map[string]string, len(verrs))
			for _, fe := range verrs {
				details[fe.Field()] = fe.Tag()
			}
			common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "validation failed", details)
			return false
		}
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "invalid payload", nil)
		return false
	}
	return true
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		common.JSONError(w, http.StatusNotFound, common.CodeNotFound, err.Error(), nil)
	case errors.Is(err, ErrInvalidInput):
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, err.Error(), nil)
	case errors.Is(err, ErrConflict):
		common.JSONError(w, http.StatusConflict, common.CodeConflict, err.Error(), nil)
	default:
		common.WriteError(w, err)
	}
}
