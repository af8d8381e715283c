package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/badoux/checkmail"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"subtrack/internal/cache"
	"subtrack/internal/core"
)

var (
	ErrNotConfigured      = errors.New("sign-in is not configured")
	ErrUnauthorizedOrigin = errors.New("origin is not authorized for sign-in")
	ErrLoginCancelled     = errors.New("login cancelled")
	ErrInvalidState       = errors.New("invalid or expired login state")
)

const (
	googleUserInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"
	stateTTL          = 10 * time.Minute
	maxPendingLogins  = 10000
)

// ProviderConfig holds the Google OAuth client settings.
type ProviderConfig struct {
	ClientID       string
	ClientSecret   string
	RedirectURL    string
	AllowedOrigins []string
}

// Provider runs the Google OAuth2 authorization-code flow.
type Provider struct {
	oauth       *oauth2.Config
	allowed     map[string]struct{}
	states      *cache.LRUCache[string]
	userInfoURL string
}

// NewProvider returns a Provider. With incomplete credentials every login
// attempt fails with ErrNotConfigured.
func NewProvider(cfg ProviderConfig) *Provider {
	p := &Provider{
		allowed:     make(map[string]struct{}),
		states:      cache.NewLRUCache[string](maxPendingLogins, stateTTL),
		userInfoURL: googleUserInfoURL,
	}
	for _, o := range cfg.AllowedOrigins {
		p.allowed[strings.TrimRight(o, "/")] = struct{}{}
	}
	if cfg.ClientID != "" && cfg.ClientSecret != "" && cfg.RedirectURL != "" {
		p.oauth = &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     google.Endpoint,
			Scopes:       []string{"openid", "email", "profile"},
		}
	}
	return p
}

// Configured reports whether logins can be started.
func (p *Provider) Configured() bool {
	return p.oauth != nil
}

// States exposes the pending-login cache for periodic cleanup.
func (p *Provider) States() cache.Cleaner {
	return p.states
}

// CheckOrigin accepts any origin when no allow-list is configured.
func (p *Provider) CheckOrigin(origin string) error {
	if len(p.allowed) == 0 {
		return nil
	}
	if _, ok := p.allowed[strings.TrimRight(origin, "/")]; ok {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrUnauthorizedOrigin, origin)
}

// LoginURL records a one-time state for origin and returns the consent URL.
func (p *Provider) LoginURL(origin string) (string, error) {
	if !p.Configured() {
		return "", ErrNotConfigured
	}
	if err := p.CheckOrigin(origin); err != nil {
		return "", err
	}
	state := uuid.NewString()
	p.states.Set(state, origin)
	return p.oauth.AuthCodeURL(state, oauth2.AccessTypeOnline), nil
}

type userInfo struct {
	Sub     string `json:"sub"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// Exchange completes a login from the callback query and returns the user.
func (p *Provider) Exchange(ctx context.Context, q url.Values) (core.User, error) {
	if !p.Configured() {
		return core.User{}, ErrNotConfigured
	}
	if e := q.Get("error"); e != "" {
		if e == "access_denied" {
			return core.User{}, ErrLoginCancelled
		}
		return core.User{}, fmt.Errorf("provider error: %s", e)
	}
	if _, ok := p.states.Take(q.Get("state")); !ok {
		return core.User{}, ErrInvalidState
	}

	code := q.Get("code")
	if code == "" {
		return core.User{}, errors.New("missing authorization code")
	}
	tok, err := p.oauth.Exchange(ctx, code)
	if err != nil {
		return core.User{}, fmt.Errorf("exchange code: %w", err)
	}

	info, err := p.fetchUserInfo(ctx, tok)
	if err != nil {
		return core.User{}, err
	}
	if err := checkmail.ValidateFormat(info.Email); err != nil {
		return core.User{}, fmt.Errorf("user email %q: %w", info.Email, err)
	}

	u := core.User{
		ID:          info.Sub,
		Email:       info.Email,
		DisplayName: info.Name,
		AvatarURL:   info.Picture,
	}
	if err := u.Validate(); err != nil {
		return core.User{}, err
	}
	return u, nil
}

func (p *Provider) fetchUserInfo(ctx context.Context, tok *oauth2.Token) (userInfo, error) {
	client := p.oauth.Client(ctx, tok)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return userInfo{}, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return userInfo{}, fmt.Errorf("fetch user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return userInfo{}, fmt.Errorf("fetch user info: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	var info userInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return userInfo{}, fmt.Errorf("decode user info: %w", err)
	}
	return info, nil
}
