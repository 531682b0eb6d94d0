package user

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/redmonkez12/go-contacts-api/internal/httputil"
	"github.com/redmonkez12/go-contacts-api/internal/logging"
)

// MaxAvatarBytes caps the size of an uploaded avatar image.
const MaxAvatarBytes = 5 << 20

// Handler serves the current user's profile endpoints.
type Handler struct {
	avatars *AvatarService
}

func NewHandler(avatars *AvatarService) *Handler {
	return &Handler{avatars: avatars}
}

// Me returns the authenticated user
// @Summary      Current user
// @Description  Return the profile of the user owning the access token
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} User
// @Failure      401 {object} httputil.ErrorResponse "Unauthenticated"
// @Router       /contacts/me [get]
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	u, ok := FromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "Could not validate credentials", httputil.CodeUnauthenticated, http.StatusUnauthorized)
		return
	}

	httputil.RespondJSON(w, u, http.StatusOK)
}

// UpdateAvatar handles avatar uploads
// @Summary      Update avatar
// @Description  Upload a new avatar image (multipart field "file", at most 5 MiB)
// @Tags         users
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        file formData file true "Image file"
// @Success      200 {object} User
// @Failure      401 {object} httputil.ErrorResponse "Unauthenticated"
// @Failure      413 {object} httputil.ErrorResponse "File too large"
// @Failure      422 {object} httputil.ErrorResponse "Not an image"
// @Failure      503 {object} httputil.ErrorResponse "Storage not configured"
// @Router       /contacts/avatar [patch]
func (h *Handler) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	u, ok := FromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "Could not validate credentials", httputil.CodeUnauthenticated, http.StatusUnauthorized)
		return
	}

	// multipart framing needs some room on top of the file itself
	r.Body = http.MaxBytesReader(w, r.Body, MaxAvatarBytes+1<<20)
	if err := r.ParseMultipartForm(MaxAvatarBytes); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			httputil.RespondErrorWithCode(w, "avatar must be at most 5 MiB", httputil.CodeFileTooLarge, http.StatusRequestEntityTooLarge)
			return
		}
		httputil.RespondErrorWithCode(w, "expected multipart form with a file field", httputil.CodeInvalidRequestBody, http.StatusUnprocessableEntity)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		httputil.RespondErrorWithCode(w, "file field is required", httputil.CodeInvalidAvatar, http.StatusUnprocessableEntity)
		return
	}
	defer file.Close()

	if header.Size > MaxAvatarBytes {
		httputil.RespondErrorWithCode(w, "avatar must be at most 5 MiB", httputil.CodeFileTooLarge, http.StatusRequestEntityTooLarge)
		return
	}

	sniff := make([]byte, 512)
	n, err := io.ReadFull(file, sniff)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		logger.Error("failed to read avatar upload", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to read file", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}
	sniff = sniff[:n]

	contentType := http.DetectContentType(sniff)
	if !strings.HasPrefix(contentType, "image/") {
		logger.Warn("avatar rejected: not an image", "content_type", contentType)
		httputil.RespondErrorWithCode(w, "file must be an image", httputil.CodeInvalidAvatar, http.StatusUnprocessableEntity)
		return
	}

	updated, err := h.avatars.Update(r.Context(), u, io.MultiReader(bytes.NewReader(sniff), file), contentType)
	if err != nil {
		if errors.Is(err, ErrStorageDisabled) {
			httputil.RespondErrorWithCode(w, "avatar uploads are disabled", httputil.CodeStorageDisabled, http.StatusServiceUnavailable)
			return
		}
		logger.Error("avatar update failed", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to update avatar", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("avatar updated", "user_id", updated.ID)
	httputil.RespondJSON(w, updated, http.StatusOK)
}
