package http

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kunwarabhi7/car-rental/internal/audit"
	"github.com/kunwarabhi7/car-rental/internal/auth"
	"github.com/kunwarabhi7/car-rental/internal/domain"
	"github.com/kunwarabhi7/car-rental/internal/users"
)

var emailPattern = regexp.MustCompile(`^\S+@\S+\.\S+$`)

// AuthHandler orchestrates signup, login, refresh, logout, profile and
// the Google OAuth flow.
type AuthHandler struct {
	Users  users.Repository
	Google *auth.GoogleFederation
	// Audit is optional; nil disables audit logging (tests).
	Audit      *pgxpool.Pool
	Secret     []byte
	ClientURL  string
	Production bool
}

type signupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type updateProfileRequest struct {
	Username   *string `json:"username"`
	Email      *string `json:"email"`
	ProfilePic *string `json:"profile_pic"`
}

func (h *AuthHandler) Signup(c *fiber.Ctx) error {
	var body signupRequest
	if err := c.BodyParser(&body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}
	body.Username = strings.TrimSpace(body.Username)
	body.Email = strings.TrimSpace(body.Email)

	fieldErrors := map[string][]string{}
	if body.Username == "" {
		fieldErrors["username"] = append(fieldErrors["username"], "Username Required")
	}
	if body.Email == "" {
		fieldErrors["email"] = append(fieldErrors["email"], "Email Required")
	} else if !emailPattern.MatchString(body.Email) {
		fieldErrors["email"] = append(fieldErrors["email"], "Please enter a valid email address")
	}
	if len(body.Password) < 6 {
		fieldErrors["password"] = append(fieldErrors["password"], "Password must be at least 6 chars")
	}
	if len(fieldErrors) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message":      "Validation failed",
			"field_errors": fieldErrors,
		})
	}

	ctx := c.UserContext()

	// Friendly pre-check; the unique indexes still win any race.
	if _, err := h.Users.FindByIdentifier(ctx, body.Username); err == nil {
		return fiber.NewError(fiber.StatusBadRequest, "Username or email already exists")
	}
	if _, err := h.Users.FindByEmail(ctx, body.Email); err == nil {
		return fiber.NewError(fiber.StatusBadRequest, "Username or email already exists")
	}

	hashed, err := auth.HashPassword(body.Password)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "internal server error")
	}

	refresh, err := auth.NewRefreshToken()
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "internal server error")
	}

	user, err := h.Users.Create(ctx, &domain.User{
		Username:         body.Username,
		Email:            body.Email,
		PasswordHash:     &hashed,
		RefreshTokenHash: &refresh.Hash,
		Role:             domain.RoleUser,
	})
	if err != nil {
		if errors.Is(err, users.ErrDuplicate) {
			return fiber.NewError(fiber.StatusBadRequest, "Username or email already exists")
		}
		slog.Error("signup: create user", "error", err)
		return fiber.NewError(fiber.StatusInternalServerError, "internal server error")
	}

	token, err := auth.IssueAccessToken(user, h.Secret)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "internal server error")
	}

	c.Cookie(auth.RefreshCookie(auth.EncodeRefreshCookie(user.ID, refresh.Plain), h.Production))
	h.writeAudit(c, audit.ActionSignup, &user.ID)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"token":   token,
		"user":    user,
		"message": "User created successfully",
	})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var body loginRequest
	if err := c.BodyParser(&body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}
	if strings.TrimSpace(body.Identifier) == "" || body.Password == "" {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid credentials")
	}

	ctx := c.UserContext()

	user, err := h.Users.FindByIdentifier(ctx, body.Identifier)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			h.writeAudit(c, audit.ActionLoginFailed, nil)
			return fiber.NewError(fiber.StatusBadRequest, "Invalid credentials")
		}
		slog.Error("login: find user", "error", err)
		return fiber.NewError(fiber.StatusInternalServerError, "internal server error")
	}

	// Accounts created through Google have no password at all; say so
	// instead of pretending the credentials were wrong.
	if !user.HasPassword() {
		return fiber.NewError(fiber.StatusBadRequest, "Please login with Google")
	}

	if !auth.CheckPassword(body.Password, *user.PasswordHash) {
		h.writeAudit(c, audit.ActionLoginFailed, &user.ID)
		return fiber.NewError(fiber.StatusBadRequest, "Invalid credentials")
	}

	token, err := h.startSession(c, user)
	if err != nil {
		slog.Error("login: start session", "error", err)
		return fiber.NewError(fiber.StatusInternalServerError, "internal server error")
	}
	h.writeAudit(c, audit.ActionLogin, &user.ID)

	return c.JSON(fiber.Map{
		"token":   token,
		"user":    user,
		"message": "Login successful",
	})
}

// GoogleStart redirects the browser to the Google consent screen.
func (h *AuthHandler) GoogleStart(c *fiber.Ctx) error {
	if h.Google == nil || !h.Google.Enabled() {
		return h.oauthErrorRedirect(c, "google_not_configured")
	}

	state, err := auth.NewState()
	if err != nil {
		return h.oauthErrorRedirect(c, "auth_failed")
	}

	c.Cookie(&fiber.Cookie{
		Name:     auth.StateCookieName,
		Value:    state,
		Path:     "/api/auth/google",
		MaxAge:   int(10 * time.Minute / time.Second),
		HTTPOnly: true,
		Secure:   h.Production,
		SameSite: fiber.CookieSameSiteLaxMode,
	})

	return c.Redirect(h.Google.AuthCodeURL(state), fiber.StatusFound)
}

// GoogleCallback finishes the OAuth flow. Every failure becomes a
// redirect carrying an error indicator; the browser never sees a raw
// error response here.
func (h *AuthHandler) GoogleCallback(c *fiber.Ctx) error {
	if h.Google == nil || !h.Google.Enabled() {
		return h.oauthErrorRedirect(c, "google_not_configured")
	}

	state := c.Cookies(auth.StateCookieName)
	// The clearing cookie must carry the same attributes as the one set
	// in GoogleStart or browsers may treat it as a different cookie.
	c.Cookie(&fiber.Cookie{
		Name:     auth.StateCookieName,
		Path:     "/api/auth/google",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		Secure:   h.Production,
		SameSite: fiber.CookieSameSiteLaxMode,
	})

	if errCode := c.Query("error"); errCode != "" {
		return h.oauthErrorRedirect(c, "auth_failed")
	}
	if state == "" || c.Query("state") != state {
		return h.oauthErrorRedirect(c, "auth_failed")
	}
	code := c.Query("code")
	if code == "" {
		return h.oauthErrorRedirect(c, "auth_failed")
	}

	ctx := c.UserContext()

	profile, err := h.Google.Exchange(ctx, code)
	if err != nil {
		slog.Error("google callback: exchange", "error", err)
		return h.oauthErrorRedirect(c, "auth_failed")
	}

	user, err := h.Google.ResolveUser(ctx, profile)
	if err != nil {
		slog.Error("google callback: resolve user", "error", err)
		return h.oauthErrorRedirect(c, "auth_failed")
	}

	token, err := h.startSession(c, user)
	if err != nil {
		slog.Error("google callback: start session", "error", err)
		return h.oauthErrorRedirect(c, "auth_failed")
	}
	h.writeAudit(c, audit.ActionOAuthLogin, &user.ID)

	return c.Redirect(h.ClientURL+"/auth/callback?token="+url.QueryEscape(token), fiber.StatusFound)
}

func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	cookie := c.Cookies(auth.RefreshCookieName)
	if cookie == "" {
		return fiber.NewError(fiber.StatusUnauthorized, "No refresh token provided")
	}

	userID, plain, err := auth.DecodeRefreshCookie(cookie)
	if err != nil {
		return fiber.NewError(fiber.StatusForbidden, "Invalid refresh token")
	}

	ctx := c.UserContext()

	user, err := h.Users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return fiber.NewError(fiber.StatusForbidden, "Invalid refresh token")
		}
		slog.Error("refresh: find user", "error", err)
		return fiber.NewError(fiber.StatusInternalServerError, "internal server error")
	}

	if user.RefreshTokenHash == nil || !auth.CheckPassword(plain, *user.RefreshTokenHash) {
		return fiber.NewError(fiber.StatusForbidden, "Invalid refresh token")
	}

	token, err := auth.IssueAccessToken(user, h.Secret)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "internal server error")
	}
	h.writeAudit(c, audit.ActionRefresh, &user.ID)

	return c.JSON(fiber.Map{"token": token, "message": "Token refreshed"})
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	user := auth.UserFromContext(c)
	if user != nil {
		if err := h.Users.SetRefreshTokenHash(c.UserContext(), user.ID, nil); err != nil {
			slog.Error("logout: revoke refresh token", "error", err)
			return fiber.NewError(fiber.StatusInternalServerError, "internal server error")
		}
		h.writeAudit(c, audit.ActionLogout, &user.ID)
	}

	c.Cookie(auth.ClearRefreshCookie(h.Production))
	return c.JSON(fiber.Map{"message": "Logout successful"})
}

// Me returns the authenticated user as resolved by the middleware.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	user := auth.UserFromContext(c)
	if user == nil {
		return fiber.NewError(fiber.StatusUnauthorized, "Access denied, no token provided")
	}
	return c.JSON(fiber.Map{"user": user, "message": "User data fetched"})
}

// MeByID fetches a user by path id.
func (h *AuthHandler) MeByID(c *fiber.Ctx) error {
	user, err := h.Users.FindByID(c.UserContext(), c.Params("id"))
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "User not found")
		}
		slog.Error("get user", "error", err)
		return fiber.NewError(fiber.StatusInternalServerError, "internal server error")
	}
	return c.JSON(fiber.Map{"user": user, "message": "User fetched successfully"})
}

// UpdateMe applies profile changes; callers can only touch their own record.
func (h *AuthHandler) UpdateMe(c *fiber.Ctx) error {
	caller := auth.UserFromContext(c)
	if caller == nil {
		return fiber.NewError(fiber.StatusUnauthorized, "Access denied, no token provided")
	}
	id := c.Params("id")
	if id != caller.ID {
		return fiber.NewError(fiber.StatusForbidden, "Unauthorized")
	}

	var body updateProfileRequest
	if err := c.BodyParser(&body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}

	fieldErrors := map[string][]string{}
	if body.Username != nil {
		trimmed := strings.TrimSpace(*body.Username)
		if trimmed == "" {
			fieldErrors["username"] = append(fieldErrors["username"], "Username Required")
		}
		body.Username = &trimmed
	}
	if body.Email != nil {
		trimmed := strings.TrimSpace(*body.Email)
		if !emailPattern.MatchString(trimmed) {
			fieldErrors["email"] = append(fieldErrors["email"], "Please enter a valid email address")
		}
		body.Email = &trimmed
	}
	if len(fieldErrors) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message":      "Validation failed",
			"field_errors": fieldErrors,
		})
	}

	user, err := h.Users.Update(c.UserContext(), id, users.UserPatch{
		Username:   body.Username,
		Email:      body.Email,
		ProfilePic: body.ProfilePic,
	})
	if err != nil {
		switch {
		case errors.Is(err, users.ErrNotFound):
			return fiber.NewError(fiber.StatusNotFound, "User not found")
		case errors.Is(err, users.ErrDuplicate):
			return fiber.NewError(fiber.StatusBadRequest, "Username or email already exists")
		}
		slog.Error("update profile", "error", err)
		return fiber.NewError(fiber.StatusInternalServerError, "internal server error")
	}
	h.writeAudit(c, audit.ActionProfileUpdate, &user.ID)

	return c.JSON(fiber.Map{"user": user})
}

// startSession rotates the refresh token (revoking any prior one) and
// mints a fresh access token.
func (h *AuthHandler) startSession(c *fiber.Ctx, user *domain.User) (string, error) {
	refresh, err := auth.NewRefreshToken()
	if err != nil {
		return "", err
	}
	if err := h.Users.SetRefreshTokenHash(c.UserContext(), user.ID, &refresh.Hash); err != nil {
		return "", err
	}

	token, err := auth.IssueAccessToken(user, h.Secret)
	if err != nil {
		return "", err
	}

	c.Cookie(auth.RefreshCookie(auth.EncodeRefreshCookie(user.ID, refresh.Plain), h.Production))
	return token, nil
}

func (h *AuthHandler) oauthErrorRedirect(c *fiber.Ctx, code string) error {
	return c.Redirect(h.ClientURL+"/login?error="+url.QueryEscape(code), fiber.StatusFound)
}

// writeAudit records an auth event, best-effort. The insert runs in the
// background so a slow audit table never delays the auth response. The
// fiber context is recycled after the handler returns, so everything it
// holds is copied out before the goroutine starts.
func (h *AuthHandler) writeAudit(c *fiber.Ctx, action string, userID *string) {
	if h.Audit == nil {
		return
	}
	ip := c.IP()
	ua := c.Get("User-Agent")
	entry := audit.Entry{UserID: userID, Action: action, IP: &ip}
	if ua != "" {
		entry.UserAgent = &ua
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := auditWrite(ctx, h.Audit, entry); err != nil {
			slog.Warn("audit write failed", "action", action, "error", err)
		}
	}()
}

// auditWrite is swappable in tests.
var auditWrite = audit.Write
