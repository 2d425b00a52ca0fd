package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	mathrand "math/rand/v2"
	"net/http"
	"strconv"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/kunwarabhi7/car-rental/internal/domain"
	"github.com/kunwarabhi7/car-rental/internal/users"
)

const googleUserinfoURL = "https://openidconnect.googleapis.com/v1/userinfo"

// StateCookieName holds the OAuth CSRF state between the redirect to
// Google and the callback.
const StateCookieName = "oauth_state"

// ErrFederation wraps any failure inside the OAuth exchange; the
// callback handler converts it to an error redirect, never a raw 500.
var ErrFederation = errors.New("google authentication failed")

// GoogleProfile is the verified assertion returned by Google's
// userinfo endpoint.
type GoogleProfile struct {
	Subject       string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// GoogleFederation exchanges a Google identity assertion for a local
// user record, creating one on first login.
type GoogleFederation struct {
	Users       users.Repository
	config      *oauth2.Config
	userinfoURL string
}

func NewGoogleFederation(repo users.Repository, clientID, clientSecret, callbackURL string) *GoogleFederation {
	return &GoogleFederation{
		Users: repo,
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  callbackURL,
			Scopes:       []string{"openid", "profile", "email"},
			Endpoint:     google.Endpoint,
		},
		userinfoURL: googleUserinfoURL,
	}
}

// Enabled reports whether Google credentials were configured.
func (g *GoogleFederation) Enabled() bool {
	return g.config.ClientID != "" && g.config.ClientSecret != ""
}

// AuthCodeURL returns the consent-screen URL for the given CSRF state.
func (g *GoogleFederation) AuthCodeURL(state string) string {
	return g.config.AuthCodeURL(state)
}

// NewState generates the random CSRF state carried in a short-lived cookie.
func NewState() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// Exchange swaps the callback code for a token and fetches the userinfo
// document.
func (g *GoogleFederation) Exchange(ctx context.Context, code string) (*GoogleProfile, error) {
	token, err := g.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: code exchange: %v", ErrFederation, err)
	}

	resp, err := g.config.Client(ctx, token).Get(g.userinfoURL)
	if err != nil {
		return nil, fmt.Errorf("%w: userinfo: %v", ErrFederation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: userinfo status %d: %s", ErrFederation, resp.StatusCode, body)
	}

	var profile GoogleProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("%w: decode userinfo: %v", ErrFederation, err)
	}
	if profile.Subject == "" || profile.Email == "" {
		return nil, fmt.Errorf("%w: incomplete profile", ErrFederation)
	}
	return &profile, nil
}

// ResolveUser maps a verified Google profile onto a local user:
// link the subject id onto an existing account with the same email,
// or create a fresh password-less account.
func (g *GoogleFederation) ResolveUser(ctx context.Context, profile *GoogleProfile) (*domain.User, error) {
	existing, err := g.Users.FindByEmail(ctx, profile.Email)
	if err != nil && !errors.Is(err, users.ErrNotFound) {
		return nil, fmt.Errorf("%w: lookup: %v", ErrFederation, err)
	}

	if existing != nil {
		if existing.GoogleID != nil && *existing.GoogleID != "" {
			return existing, nil
		}
		patch := users.UserPatch{GoogleID: &profile.Subject}
		if existing.ProfilePic == "" && profile.Picture != "" {
			patch.ProfilePic = &profile.Picture
		}
		linked, err := g.Users.Update(ctx, existing.ID, patch)
		if err != nil {
			return nil, fmt.Errorf("%w: link account: %v", ErrFederation, err)
		}
		return linked, nil
	}

	// First login: derive a username from the display name and retry the
	// random suffix on the off chance it collides.
	for attempt := 0; attempt < 3; attempt++ {
		created, err := g.Users.Create(ctx, &domain.User{
			Username:   deriveUsername(profile.Name),
			Email:      profile.Email,
			GoogleID:   &profile.Subject,
			ProfilePic: profile.Picture,
			Role:       domain.RoleUser,
		})
		if errors.Is(err, users.ErrDuplicate) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("%w: create account: %v", ErrFederation, err)
		}
		return created, nil
	}
	return nil, fmt.Errorf("%w: could not allocate username", ErrFederation)
}

// deriveUsername strips whitespace, lowercases and appends a 0-999
// disambiguator, e.g. "Jane Doe" -> "janedoe742".
func deriveUsername(displayName string) string {
	base := strings.ToLower(strings.Join(strings.Fields(displayName), ""))
	if base == "" {
		base = "user"
	}
	return base + strconv.Itoa(mathrand.IntN(1000))
}
