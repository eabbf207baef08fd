package account

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"

	"referral-api/internal/httputil"
	"referral-api/internal/logging"
	"referral-api/internal/ratelimit"
	"referral-api/internal/session"
	"referral-api/internal/store"
)

// Handler contains HTTP handlers for the signup/referral endpoints
type Handler struct {
	service     *Service
	sessions    *session.Manager
	rateLimiter ratelimit.Limiter
	logger      *logging.Logger
}

func NewHandler(service *Service, sessions *session.Manager, rateLimiter ratelimit.Limiter, logger *logging.Logger) *Handler {
	return &Handler{
		service:     service,
		sessions:    sessions,
		rateLimiter: rateLimiter,
		logger:      logger,
	}
}

// Signup handles user registration
// @Summary      Sign up with an activation code
// @Description  Create an account using a single-use activation code, optionally crediting the referrer named by referralCode. Establishes a session on success.
// @Tags         account
// @Accept       json
// @Produce      json
// @Param        request body RegisterRequest true "Signup payload"
// @Success      200 {object} MessageResponse
// @Failure      400 {object} ErrorResponse "Validation error, duplicate email or bad activation code"
// @Failure      429 {object} ErrorResponse "Too many requests"
// @Failure      500 {object} ErrorResponse "Internal server error"
// @Router       /signup [post]
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	// Rate limit by IP
	ip := getClientIP(r)
	exceeded, err := h.rateLimiter.CheckIPRateLimit(r.Context(), ip, "signup")
	if err != nil {
		logger.Error("failed to check IP rate limit", "error", err.Error())
	} else if exceeded {
		logger.Warn("IP rate limit exceeded for signup", "ip", ip)
		respondError(w, "too many requests, please try again later", httputil.CodeTooManyRequests, http.StatusTooManyRequests)
		return
	}

	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid signup request body", "error", err.Error())
		respondError(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	logger = logger.WithFields(map[string]any{"email": req.Email})

	// Signup is the mail-sending request, so repeat attempts for the same
	// address sit behind a cooldown on top of the IP window.
	onCooldown, err := h.rateLimiter.CheckEmailCooldown(r.Context(), req.Email)
	if err != nil {
		logger.Error("failed to check email cooldown", "error", err.Error())
	} else if onCooldown {
		logger.Warn("email cooldown active for signup")
		respondError(w, "too many requests, please try again later", httputil.CodeTooManyRequests, http.StatusTooManyRequests)
		return
	}

	// Record IP request for rate limiting
	if err := h.rateLimiter.RecordIPRequest(r.Context(), ip, "signup"); err != nil {
		logger.Error("failed to record IP request", "error", err.Error())
	}

	newUser, err := h.service.Register(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, ErrNameRequired),
			errors.Is(err, ErrEmailRequired),
			errors.Is(err, ErrPasswordRequired),
			errors.Is(err, ErrActivationCodeRequired):
			logger.Warn("signup failed: validation error", "error", err.Error())
			respondError(w, err.Error(), httputil.CodeValidationFailed, http.StatusBadRequest)
		case errors.Is(err, ErrInvalidEmailFormat):
			logger.Warn("signup failed: invalid email format")
			respondError(w, err.Error(), httputil.CodeInvalidEmailFormat, http.StatusBadRequest)
		case errors.Is(err, ErrPasswordTooShort):
			logger.Warn("signup failed: password too short")
			respondError(w, err.Error(), httputil.CodePasswordTooShort, http.StatusBadRequest)
		case errors.Is(err, store.ErrDuplicateEmail):
			logger.Warn("signup failed: email already exists")
			respondError(w, "user already exists", httputil.CodeEmailAlreadyExists, http.StatusBadRequest)
		case errors.Is(err, ErrInvalidActivationCode):
			logger.Warn("signup failed: bad activation code")
			respondError(w, "invalid or already used activation code", httputil.CodeInvalidActivationCode, http.StatusBadRequest)
		default:
			logger.Error("signup failed: internal error", "error", err.Error())
			respondError(w, "failed to sign up", httputil.CodeInternalError, http.StatusInternalServerError)
		}
		return
	}

	logger.Info("user signed up successfully", "user_id", newUser.ID)

	if err := h.rateLimiter.SetEmailCooldown(r.Context(), newUser.Email); err != nil {
		logger.Error("failed to set email cooldown", "error", err.Error())
	}

	if _, err := h.sessions.Create(r.Context(), w, newUser.Email); err != nil {
		// The account exists; report success but without a session rather
		// than failing the whole signup.
		logger.Error("failed to establish session after signup", "error", err.Error())
	}

	respondJSON(w, MessageResponse{Message: "Signup successful"}, http.StatusOK)
}

// Login handles user login
// @Summary      User login
// @Description  Authenticate with email and password and establish a session cookie
// @Tags         account
// @Accept       json
// @Produce      json
// @Param        request body LoginRequest true "Login credentials"
// @Success      200 {object} MessageResponse
// @Failure      400 {object} ErrorResponse "Invalid request body"
// @Failure      401 {object} ErrorResponse "Invalid credentials"
// @Failure      500 {object} ErrorResponse "Internal server error"
// @Router       /login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	// Rate limit by IP
	ip := getClientIP(r)
	exceeded, err := h.rateLimiter.CheckIPRateLimit(r.Context(), ip, "login")
	if err != nil {
		logger.Error("failed to check IP rate limit", "error", err.Error())
	} else if exceeded {
		logger.Warn("IP rate limit exceeded for login", "ip", ip)
		respondError(w, "too many requests, please try again later", httputil.CodeTooManyRequests, http.StatusTooManyRequests)
		return
	}

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid login request body", "error", err.Error())
		respondError(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	logger = logger.WithFields(map[string]any{"email": req.Email})

	// Record IP request for rate limiting
	if err := h.rateLimiter.RecordIPRequest(r.Context(), ip, "login"); err != nil {
		logger.Error("failed to record IP request", "error", err.Error())
	}

	u, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			logger.Warn("login failed: invalid credentials")
			respondError(w, "invalid email or password", httputil.CodeInvalidCredentials, http.StatusUnauthorized)
			return
		}
		logger.Error("login failed: internal error", "error", err.Error())
		respondError(w, "failed to login", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	if _, err := h.sessions.Create(r.Context(), w, u.Email); err != nil {
		logger.Error("failed to establish session", "error", err.Error())
		respondError(w, "failed to login", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("user logged in successfully")

	respondJSON(w, MessageResponse{Message: "Login successful"}, http.StatusOK)
}

// Dashboard returns the logged-in user's profile and referral stats
// @Summary      Dashboard
// @Description  Safe profile of the logged-in user plus wallet balance and referral count
// @Tags         account
// @Produce      json
// @Success      200 {object} DashboardResponse
// @Failure      401 {object} ErrorResponse "Not logged in"
// @Failure      404 {object} ErrorResponse "Account no longer exists"
// @Failure      500 {object} ErrorResponse "Internal server error"
// @Router       /dashboard [get]
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	sess, ok := session.FromContext(r.Context())
	if !ok {
		respondError(w, "not logged in", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	dashboard, err := h.service.Dashboard(r.Context(), sess.Email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			logger.Warn("dashboard request for vanished user", "email", sess.Email)
			respondError(w, "user not found", httputil.CodeUserNotFound, http.StatusNotFound)
			return
		}
		logger.Error("dashboard failed: internal error", "error", err.Error())
		respondError(w, "failed to load dashboard", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	respondJSON(w, DashboardResponse{User: *dashboard}, http.StatusOK)
}

// Logout handles user logout
// @Summary      User logout
// @Description  Destroy the current session and clear the cookie
// @Tags         account
// @Produce      json
// @Success      200 {object} MessageResponse
// @Router       /logout [get]
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	if err := h.sessions.Destroy(r.Context(), w, r); err != nil {
		logger.Warn("failed to destroy session", "error", err.Error())
		// Cookie is cleared regardless; treat as logged out.
	}

	logger.Info("user logged out")

	respondJSON(w, MessageResponse{Message: "logged out"}, http.StatusOK)
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, data any, statusCode int) {
	httputil.RespondJSON(w, data, statusCode)
}

// respondError sends an error response with a machine-readable code
func respondError(w http.ResponseWriter, message string, code string, statusCode int) {
	httputil.RespondErrorWithCode(w, message, code, statusCode)
}

// getClientIP extracts the client IP from RemoteAddr. The RealIP middleware
// already resolved forwarding headers into RemoteAddr, which then carries a
// bare IP; a direct connection carries host:port.
func getClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
