package contact

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/redmonkez12/go-contacts-api/internal/httputil"
	"github.com/redmonkez12/go-contacts-api/internal/logging"
	"github.com/redmonkez12/go-contacts-api/internal/user"
)

const (
	DefaultLimit = 100
	MaxLimit     = 100
)

// Handler serves the contact endpoints. Routes must sit behind auth.Middleware.RequireAuth.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// List returns the caller's contacts
// @Summary      List contacts
// @Description  Page through the authenticated user's contacts in creation order
// @Tags         contacts
// @Produce      json
// @Security     BearerAuth
// @Param        skip  query int false "Contacts to skip" default(0)
// @Param        limit query int false "Page size, at most 100" default(100)
// @Success      200 {array}  Contact
// @Failure      401 {object} httputil.ErrorResponse "Unauthenticated"
// @Failure      422 {object} httputil.ErrorResponse "Invalid paging parameters"
// @Failure      429 {object} httputil.ErrorResponse "Too many requests"
// @Router       /contacts [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	owner, ok := ownerID(w, r)
	if !ok {
		return
	}

	skip, err := httputil.QueryInt(r, "skip", 0)
	if err != nil {
		httputil.RespondErrorWithCode(w, err.Error(), httputil.CodeValidationFailed, http.StatusUnprocessableEntity)
		return
	}
	limit, err := httputil.QueryInt(r, "limit", DefaultLimit)
	if err != nil {
		httputil.RespondErrorWithCode(w, err.Error(), httputil.CodeValidationFailed, http.StatusUnprocessableEntity)
		return
	}
	limit = min(limit, MaxLimit)

	contacts, err := h.service.List(r.Context(), owner, skip, limit)
	if err != nil {
		logger.Error("failed to list contacts", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to list contacts", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	httputil.RespondJSON(w, contacts, http.StatusOK)
}

// Get returns one contact
// @Summary      Get contact
// @Tags         contacts
// @Produce      json
// @Security     BearerAuth
// @Param        contactID path int true "Contact ID"
// @Success      200 {object} Contact
// @Failure      401 {object} httputil.ErrorResponse "Unauthenticated"
// @Failure      404 {object} httputil.ErrorResponse "Contact not found"
// @Failure      422 {object} httputil.ErrorResponse "Invalid contact ID"
// @Router       /contacts/{contactID} [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}
	id, ok := contactID(w, r)
	if !ok {
		return
	}

	c, err := h.service.Get(r.Context(), owner, id)
	if err != nil {
		respondServiceError(w, r, err, "failed to get contact")
		return
	}

	httputil.RespondJSON(w, c, http.StatusOK)
}

// Create adds a contact
// @Summary      Create contact
// @Tags         contacts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body CreateInput true "Contact"
// @Success      201 {object} Contact
// @Failure      401 {object} httputil.ErrorResponse "Unauthenticated"
// @Failure      422 {object} httputil.ErrorResponse "Validation error"
// @Failure      429 {object} httputil.ErrorResponse "Too many requests"
// @Router       /contacts [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	owner, ok := ownerID(w, r)
	if !ok {
		return
	}

	var in CreateInput
	if err := httputil.DecodeJSON(w, r, &in); err != nil {
		httputil.RespondErrorWithCode(w, "invalid request body: "+err.Error(), httputil.CodeInvalidRequestBody, http.StatusUnprocessableEntity)
		return
	}

	c, err := h.service.Create(r.Context(), owner, in)
	if err != nil {
		respondServiceError(w, r, err, "failed to create contact")
		return
	}

	logger.Info("contact created", "contact_id", c.ID)
	httputil.RespondJSON(w, c, http.StatusCreated)
}

// Update changes the provided fields of a contact
// @Summary      Update contact
// @Description  Only fields present in the body are changed
// @Tags         contacts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        contactID path int         true "Contact ID"
// @Param        request   body UpdateInput true "Fields to change"
// @Success      200 {object} Contact
// @Failure      401 {object} httputil.ErrorResponse "Unauthenticated"
// @Failure      404 {object} httputil.ErrorResponse "Contact not found"
// @Failure      422 {object} httputil.ErrorResponse "Validation error"
// @Router       /contacts/{contactID} [put]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}
	id, ok := contactID(w, r)
	if !ok {
		return
	}

	var in UpdateInput
	if err := httputil.DecodeJSON(w, r, &in); err != nil {
		httputil.RespondErrorWithCode(w, "invalid request body: "+err.Error(), httputil.CodeInvalidRequestBody, http.StatusUnprocessableEntity)
		return
	}

	c, err := h.service.Update(r.Context(), owner, id, in)
	if err != nil {
		respondServiceError(w, r, err, "failed to update contact")
		return
	}

	httputil.RespondJSON(w, c, http.StatusOK)
}

// Delete removes a contact
// @Summary      Delete contact
// @Description  Returns the contact as it was before deletion
// @Tags         contacts
// @Produce      json
// @Security     BearerAuth
// @Param        contactID path int true "Contact ID"
// @Success      200 {object} Contact
// @Failure      401 {object} httputil.ErrorResponse "Unauthenticated"
// @Failure      404 {object} httputil.ErrorResponse "Contact not found"
// @Router       /contacts/{contactID} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	owner, ok := ownerID(w, r)
	if !ok {
		return
	}
	id, ok := contactID(w, r)
	if !ok {
		return
	}

	c, err := h.service.Delete(r.Context(), owner, id)
	if err != nil {
		respondServiceError(w, r, err, "failed to delete contact")
		return
	}

	logger.Info("contact deleted", "contact_id", c.ID)
	httputil.RespondJSON(w, c, http.StatusOK)
}

func ownerID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	u, ok := user.FromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "Could not validate credentials", httputil.CodeUnauthenticated, http.StatusUnauthorized)
		return uuid.Nil, false
	}
	return u.ID, true
}

func contactID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "contactID"), 10, 64)
	if err != nil {
		httputil.RespondErrorWithCode(w, "contact id must be an integer", httputil.CodeValidationFailed, http.StatusUnprocessableEntity)
		return 0, false
	}
	return id, true
}

func respondServiceError(w http.ResponseWriter, r *http.Request, err error, internalMsg string) {
	var validationErr *ValidationError
	switch {
	case errors.Is(err, ErrNotFound):
		httputil.RespondErrorWithCode(w, "Contact not found", httputil.CodeContactNotFound, http.StatusNotFound)
	case errors.As(err, &validationErr):
		httputil.RespondErrorWithCode(w, validationErr.Error(), httputil.CodeValidationFailed, http.StatusUnprocessableEntity)
	default:
		logging.GetLoggerFromContext(r.Context()).Error(internalMsg, "error", err.Error())
		httputil.RespondErrorWithCode(w, internalMsg, httputil.CodeInternalError, http.StatusInternalServerError)
	}
}
