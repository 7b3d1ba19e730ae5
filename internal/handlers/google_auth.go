package handlers

import (
	"context"
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	googleOAuth2 "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"

	"FINTRACK_BACK-END/internal/config"
	"FINTRACK_BACK-END/internal/dto"
	"FINTRACK_BACK-END/internal/services"
	"FINTRACK_BACK-END/internal/utils"
)

const (
	oauthStateCookie = "oauth_state"
	oauthStateTTL    = 10 * time.Minute
)

// GoogleAuthHandler handles Google OAuth authentication
type GoogleAuthHandler struct {
	auth         *services.AuthService
	oauth2Config *oauth2.Config
	enabled      bool
}

// NewGoogleAuthHandler creates a new GoogleAuthHandler instance
func NewGoogleAuthHandler(auth *services.AuthService, cfg *config.GoogleOAuthConfig) *GoogleAuthHandler {
	oauth2Config := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Scopes: []string{
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		},
		Endpoint: google.Endpoint,
	}

	return &GoogleAuthHandler{
		auth:         auth,
		oauth2Config: oauth2Config,
		enabled:      cfg.ClientID != "" && cfg.ClientSecret != "",
	}
}

func (h *GoogleAuthHandler) available(w http.ResponseWriter) bool {
	if !h.enabled {
		utils.WriteErrorResponse(w, http.StatusServiceUnavailable, "Service Unavailable", "Google login is not configured")
	}
	return h.enabled
}

// GoogleLogin initiates Google OAuth login
// @Summary Google OAuth login
// @Description Initiate Google OAuth login flow. The state is also set in an oauth_state cookie that the callback checks.
// @Tags authentication
// @Produce json
// @Success 200 {object} dto.GoogleLoginResponse "Google OAuth URL"
// @Failure 503 {object} dto.ErrorResponse "Google login not configured"
// @Router /api/auth/google/login [get]
func (h *GoogleAuthHandler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	if !h.available(w) {
		return
	}

	// Generate state parameter for CSRF protection
	state := uuid.New().String()
	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/api/auth/google",
		MaxAge:   int(oauthStateTTL.Seconds()),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})

	utils.WriteJSONResponse(w, http.StatusOK, dto.GoogleLoginResponse{
		AuthURL: h.oauth2Config.AuthCodeURL(state, oauth2.AccessTypeOffline),
		State:   state,
	})
}

// GoogleCallback handles Google OAuth callback
// @Summary Google OAuth callback
// @Description Handle Google OAuth callback with authorization code
// @Tags authentication
// @Produce json
// @Param code query string true "Authorization code from Google"
// @Param state query string true "State issued by the login endpoint; must match the oauth_state cookie"
// @Success 200 {object} dto.AuthResponse "Login successful"
// @Failure 400 {object} dto.ErrorResponse "Invalid request data"
// @Failure 401 {object} dto.ErrorResponse "Invalid authorization code"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Failure 503 {object} dto.ErrorResponse "Google login not configured"
// @Router /api/auth/google/callback [get]
func (h *GoogleAuthHandler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	if !h.available(w) {
		return
	}

	if !validState(r) {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Invalid state", "OAuth state is missing or does not match")
		return
	}
	http.SetCookie(w, &http.Cookie{Name: oauthStateCookie, Path: "/api/auth/google", MaxAge: -1})

	code := r.URL.Query().Get("code")
	if code == "" {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Missing authorization code", "Authorization code is required")
		return
	}

	// Exchange authorization code for token
	token, err := h.oauth2Config.Exchange(r.Context(), code)
	if err != nil {
		utils.WriteErrorResponse(w, http.StatusUnauthorized, "Invalid authorization code", "Google rejected the authorization code")
		return
	}

	userInfo, err := h.getGoogleUserInfo(r.Context(), token)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if !userInfo.Verified {
		utils.WriteErrorResponse(w, http.StatusUnauthorized, "Unauthorized", "Google email is not verified")
		return
	}

	res, err := h.auth.LoginWithGoogle(r.Context(), userInfo.Email, optional(userInfo.GivenName), optional(userInfo.FamilyName))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	utils.WriteJSONResponse(w, http.StatusOK, dto.AuthResponse{
		User:  dto.NewUserResponse(res.User),
		Token: res.Token,
	})
}

// getGoogleUserInfo fetches user information from Google
func (h *GoogleAuthHandler) getGoogleUserInfo(ctx context.Context, token *oauth2.Token) (*dto.GoogleUserInfo, error) {
	service, err := googleOAuth2.NewService(ctx, option.WithTokenSource(h.oauth2Config.TokenSource(ctx, token)))
	if err != nil {
		return nil, err
	}

	userInfo, err := service.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return nil, err
	}

	verified := false
	if userInfo.VerifiedEmail != nil {
		verified = *userInfo.VerifiedEmail
	}

	return &dto.GoogleUserInfo{
		ID:         userInfo.Id,
		Email:      userInfo.Email,
		Name:       userInfo.Name,
		GivenName:  userInfo.GivenName,
		FamilyName: userInfo.FamilyName,
		Verified:   verified,
	}, nil
}

func validState(r *http.Request) bool {
	state := r.URL.Query().Get("state")
	cookie, err := r.Cookie(oauthStateCookie)
	if err != nil || state == "" || cookie.Value == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(state), []byte(cookie.Value)) == 1
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
