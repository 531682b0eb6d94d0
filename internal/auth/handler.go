package auth

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/redmonkez12/go-contacts-api/internal/httputil"
	"github.com/redmonkez12/go-contacts-api/internal/logging"
	"github.com/redmonkez12/go-contacts-api/internal/ratelimit"
	"github.com/redmonkez12/go-contacts-api/internal/user"
)

const (
	msgSignupDetail      = "User successfully created. Check your email for confirmation."
	msgCheckEmail        = "Check your email for confirmation."
	msgAlreadyConfirmed  = "Your email is already confirmed"
	msgEmailConfirmed    = "Email confirmed"
	msgInvalidRefresh    = "Invalid refresh token"
	msgVerificationError = "Verification error"
)

// Handler contains HTTP handlers for authentication endpoints
type Handler struct {
	service       *Service
	limiter       *ratelimit.Limiter
	emailCooldown time.Duration
	publicBaseURL string
}

// NewHandler builds the auth handlers. A nil limiter disables the request_email cooldown.
func NewHandler(service *Service, limiter *ratelimit.Limiter, emailCooldown time.Duration, publicBaseURL string) *Handler {
	return &Handler{
		service:       service,
		limiter:       limiter,
		emailCooldown: emailCooldown,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}
}

// SignupRequest represents the signup request body
type SignupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignupResponse represents the signup response
type SignupResponse struct {
	User   *user.User `json:"user"`
	Detail string     `json:"detail"`
}

// LoginRequest represents the JSON login request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RequestEmailRequest asks for a new confirmation email
type RequestEmailRequest struct {
	Email string `json:"email"`
}

// Signup handles account creation
// @Summary      Create an account
// @Description  Create an unconfirmed account. A confirmation link is emailed in the background.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body SignupRequest true "Account details"
// @Success      201 {object} SignupResponse
// @Failure      409 {object} httputil.ErrorResponse "User already exists"
// @Failure      422 {object} httputil.ErrorResponse "Validation error"
// @Failure      500 {object} httputil.ErrorResponse "Internal server error"
// @Router       /auth/signup [post]
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req SignupRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		logger.Warn("invalid signup request body", "error", err.Error())
		respondError(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusUnprocessableEntity)
		return
	}

	logger = logger.WithFields(map[string]any{"email": req.Email})

	created, err := h.service.Signup(r.Context(), SignupInput{
		Email:    req.Email,
		Username: req.Username,
		Password: req.Password,
		BaseURL:  h.baseURL(r),
	})
	if err != nil {
		var validationErr *ValidationError
		switch {
		case errors.As(err, &validationErr):
			logger.Warn("signup failed: validation error", "error", err.Error())
			respondError(w, validationErr.Error(), httputil.CodeValidationFailed, http.StatusUnprocessableEntity)
		case errors.Is(err, ErrAccountExists):
			logger.Warn("signup failed: account exists")
			respondError(w, "User already exists", httputil.CodeAccountExists, http.StatusConflict)
		default:
			logger.Error("signup failed: internal error", "error", err.Error())
			respondError(w, "failed to create user", httputil.CodeInternalError, http.StatusInternalServerError)
		}
		return
	}

	logger.Info("user signed up", "user_id", created.ID)

	respondJSON(w, SignupResponse{User: created, Detail: msgSignupDetail}, http.StatusCreated)
}

// Login handles user login
// @Summary      User login
// @Description  Authenticate with email and password. Accepts JSON or the OAuth2 password form (username = email).
// @Tags         auth
// @Accept       json,x-www-form-urlencoded
// @Produce      json
// @Param        request body LoginRequest true "Login credentials"
// @Success      200 {object} TokenPair
// @Failure      401 {object} httputil.ErrorResponse "Invalid email, unconfirmed email or invalid password"
// @Failure      422 {object} httputil.ErrorResponse "Invalid request body"
// @Failure      500 {object} httputil.ErrorResponse "Internal server error"
// @Router       /auth/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	email, password, err := loginCredentials(w, r)
	if err != nil {
		logger.Warn("invalid login request", "error", err.Error())
		respondError(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusUnprocessableEntity)
		return
	}

	logger = logger.WithFields(map[string]any{"email": email})

	pair, err := h.service.Login(r.Context(), email, password)
	if err != nil {
		switch {
		case errors.Is(err, ErrUnknownAccount):
			logger.Warn("login failed: unknown account")
			respondError(w, "Invalid email", httputil.CodeUnknownAccount, http.StatusUnauthorized)
		case errors.Is(err, ErrEmailNotConfirmed):
			logger.Warn("login failed: email not confirmed")
			respondError(w, "Email not confirmed", httputil.CodeEmailNotConfirmed, http.StatusUnauthorized)
		case errors.Is(err, ErrBadCredentials):
			logger.Warn("login failed: bad credentials")
			respondError(w, "Invalid password", httputil.CodeBadCredentials, http.StatusUnauthorized)
		default:
			logger.Error("login failed: internal error", "error", err.Error())
			respondError(w, "failed to login", httputil.CodeInternalError, http.StatusInternalServerError)
		}
		return
	}

	logger.Info("user logged in")

	respondJSON(w, pair, http.StatusOK)
}

// RefreshToken rotates the session
// @Summary      Refresh tokens
// @Description  Exchange the active refresh token (sent as a bearer token) for a new pair. Reusing an old refresh token revokes the session.
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} TokenPair
// @Failure      401 {object} httputil.ErrorResponse "Invalid refresh token"
// @Failure      500 {object} httputil.ErrorResponse "Internal server error"
// @Router       /auth/refresh_token [get]
func (h *Handler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	token, err := bearerToken(r)
	if err != nil {
		respondUnauthenticated(w, err)
		return
	}

	pair, err := h.service.Refresh(r.Context(), token)
	if err != nil {
		switch {
		case errors.Is(err, ErrStaleRefreshToken):
			logger.Warn("refresh failed: stale token, session revoked")
			respondError(w, msgInvalidRefresh, httputil.CodeStaleRefreshToken, http.StatusUnauthorized)
		case isTokenError(err), errors.Is(err, ErrUnknownAccount):
			logger.Warn("refresh failed: token rejected", "error", err.Error())
			respondError(w, msgInvalidRefresh, httputil.CodeInvalidToken, http.StatusUnauthorized)
		default:
			logger.Error("refresh failed: internal error", "error", err.Error())
			respondError(w, "failed to refresh token", httputil.CodeInternalError, http.StatusInternalServerError)
		}
		return
	}

	respondJSON(w, pair, http.StatusOK)
}

// ConfirmedEmail confirms the address a link was sent to
// @Summary      Confirm email
// @Description  Mark the account as confirmed. Confirming twice is not an error.
// @Tags         auth
// @Produce      json
// @Param        token path string true "Confirmation token"
// @Success      200 {object} httputil.MessageResponse
// @Failure      400 {object} httputil.ErrorResponse "Verification error"
// @Failure      500 {object} httputil.ErrorResponse "Internal server error"
// @Router       /auth/confirmed_email/{token} [get]
func (h *Handler) ConfirmedEmail(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	result, err := h.service.ConfirmEmail(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		if errors.Is(err, ErrVerification) {
			logger.Warn("email confirmation failed", "error", err.Error())
			respondError(w, msgVerificationError, httputil.CodeVerificationFailed, http.StatusBadRequest)
			return
		}
		logger.Error("email confirmation failed: internal error", "error", err.Error())
		respondError(w, "failed to confirm email", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	if result == ConfirmResultAlreadyConfirmed {
		httputil.RespondMessage(w, msgAlreadyConfirmed, http.StatusOK)
		return
	}

	logger.Info("email confirmed")
	httputil.RespondMessage(w, msgEmailConfirmed, http.StatusOK)
}

// RequestEmail sends a new confirmation link
// @Summary      Resend confirmation email
// @Description  Queue a fresh confirmation link. Unknown addresses get the same answer as unconfirmed ones.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body RequestEmailRequest true "Email address"
// @Success      200 {object} httputil.MessageResponse
// @Failure      422 {object} httputil.ErrorResponse "Invalid email"
// @Failure      429 {object} httputil.ErrorResponse "Cooldown active"
// @Router       /auth/request_email [post]
func (h *Handler) RequestEmail(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req RequestEmailRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		logger.Warn("invalid request_email body", "error", err.Error())
		respondError(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusUnprocessableEntity)
		return
	}

	email := strings.TrimSpace(req.Email)
	if err := ValidateEmail(email); err != nil {
		respondError(w, err.Error(), httputil.CodeValidationFailed, http.StatusUnprocessableEntity)
		return
	}

	if h.limiter != nil && h.emailCooldown > 0 {
		active, err := h.limiter.Cooldown(r.Context(), "confirm_email:"+strings.ToLower(email), h.emailCooldown)
		if err != nil {
			logger.Error("failed to check email cooldown", "error", err.Error())
		} else if active {
			logger.Warn("confirmation email cooldown active")
			respondError(w, "please wait before requesting another email", httputil.CodeCooldownActive, http.StatusTooManyRequests)
			return
		}
	}

	result, err := h.service.ResendConfirmation(r.Context(), email, h.baseURL(r))
	if err != nil {
		// resend never reveals account state, so fall back to the generic answer
		logger.Error("failed to resend confirmation", "error", err.Error())
	}

	if result == ResendResultAlreadyConfirmed {
		httputil.RespondMessage(w, msgAlreadyConfirmed, http.StatusOK)
		return
	}
	httputil.RespondMessage(w, msgCheckEmail, http.StatusOK)
}

// Logout ends the current session
// @Summary      Logout
// @Description  Revoke the active refresh token of the authenticated user
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} httputil.MessageResponse
// @Failure      401 {object} httputil.ErrorResponse "Not authenticated"
// @Failure      500 {object} httputil.ErrorResponse "Internal server error"
// @Router       /auth/logout [post]
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	u, ok := user.FromContext(r.Context())
	if !ok {
		respondError(w, "Not authenticated", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	if err := h.service.Logout(r.Context(), u); err != nil {
		logger.Error("logout failed", "error", err.Error())
		respondError(w, "failed to logout", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("user logged out")
	httputil.RespondMessage(w, "Logged out", http.StatusOK)
}

func (h *Handler) baseURL(r *http.Request) string {
	if h.publicBaseURL != "" {
		return h.publicBaseURL
	}
	return httputil.BaseURL(r)
}

// loginCredentials reads email and password from a JSON body or an OAuth2 password form.
func loginCredentials(w http.ResponseWriter, r *http.Request) (string, string, error) {
	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "application/x-www-form-urlencoded") {
		r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
		if err := r.ParseForm(); err != nil {
			return "", "", err
		}
		email := strings.TrimSpace(r.PostForm.Get("username"))
		password := r.PostForm.Get("password")
		if email == "" || password == "" {
			return "", "", errors.New("username and password are required")
		}
		return email, password, nil
	}

	var req LoginRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		return "", "", err
	}
	if req.Email == "" || req.Password == "" {
		return "", "", errors.New("email and password are required")
	}
	return strings.TrimSpace(req.Email), req.Password, nil
}

func isTokenError(err error) bool {
	return errors.Is(err, ErrTokenExpired) ||
		errors.Is(err, ErrTokenMalformed) ||
		errors.Is(err, ErrTokenInvalidScope)
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, data any, statusCode int) {
	httputil.RespondJSON(w, data, statusCode)
}

// respondError sends an error response with a machine-readable code
func respondError(w http.ResponseWriter, message string, code string, statusCode int) {
	httputil.RespondErrorWithCode(w, message, code, statusCode)
}
