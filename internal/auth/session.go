package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/google/uuid"

	"subtrack/internal/core"
)

// CookieName is the session cookie set after a successful login.
const CookieName = "subtrack_session"

var (
	ErrNoSession      = errors.New("no session")
	ErrInvalidSession = errors.New("session token is invalid")
	ErrExpiredSession = errors.New("session token is expired")
	ErrSessionRevoked = errors.New("session has been revoked")
	ErrNoSecret       = errors.New("session secret is not configured")
)

// SessionClaims carries the user profile inside the signed cookie.
type SessionClaims struct {
	Email       string `json:"email"`
	DisplayName string `json:"name,omitempty"`
	AvatarURL   string `json:"picture,omitempty"`
	jwt.StandardClaims
}

// SessionManager issues and verifies HS256 session tokens.
type SessionManager struct {
	secret  []byte
	ttl     time.Duration
	secure  bool
	revoker Revoker
	now     func() time.Time
}

func NewSessionManager(secret string, ttl time.Duration, secure bool, revoker Revoker) *SessionManager {
	return &SessionManager{
		secret:  []byte(secret),
		ttl:     ttl,
		secure:  secure,
		revoker: revoker,
		now:     time.Now,
	}
}

// Issue signs a token for u.
func (m *SessionManager) Issue(u core.User) (string, time.Time, error) {
	if len(m.secret) == 0 {
		return "", time.Time{}, ErrNoSecret
	}
	now := m.now()
	expires := now.Add(m.ttl)
	claims := &SessionClaims{
		Email:       u.Email,
		DisplayName: u.DisplayName,
		AvatarURL:   u.AvatarURL,
		StandardClaims: jwt.StandardClaims{
			Id:        uuid.NewString(),
			Subject:   u.ID,
			IssuedAt:  now.Unix(),
			ExpiresAt: expires.Unix(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign session: %w", err)
	}
	return signed, expires, nil
}

// Verify checks the signature, expiry and revocation of tokenString.
func (m *SessionManager) Verify(ctx context.Context, tokenString string) (core.User, *SessionClaims, error) {
	if len(m.secret) == 0 {
		return core.User{}, nil, ErrNoSecret
	}
	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		var validationErr *jwt.ValidationError
		if errors.As(err, &validationErr) && validationErr.Errors&jwt.ValidationErrorExpired != 0 {
			return core.User{}, nil, ErrExpiredSession
		}
		return core.User{}, nil, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}
	if !token.Valid || claims.Subject == "" || claims.Id == "" {
		return core.User{}, nil, ErrInvalidSession
	}

	if m.revoker != nil {
		revoked, err := m.revoker.IsRevoked(ctx, claims.Id)
		if err != nil {
			return core.User{}, nil, fmt.Errorf("check revocation: %w", err)
		}
		if revoked {
			return core.User{}, nil, ErrSessionRevoked
		}
	}

	return core.User{
		ID:          claims.Subject,
		Email:       claims.Email,
		DisplayName: claims.DisplayName,
		AvatarURL:   claims.AvatarURL,
	}, claims, nil
}

// UserFromRequest resolves the session cookie on r.
func (m *SessionManager) UserFromRequest(r *http.Request) (core.User, error) {
	c, err := r.Cookie(CookieName)
	if err != nil || c.Value == "" {
		return core.User{}, ErrNoSession
	}
	u, _, err := m.Verify(r.Context(), c.Value)
	return u, err
}

// Login issues a session for u and sets it as a cookie on w.
func (m *SessionManager) Login(w http.ResponseWriter, u core.User) error {
	token, expires, err := m.Issue(u)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Logout revokes the session on r, if any, and clears the cookie.
func (m *SessionManager) Logout(w http.ResponseWriter, r *http.Request) error {
	var revokeErr error
	if c, err := r.Cookie(CookieName); err == nil && c.Value != "" {
		if _, claims, err := m.Verify(r.Context(), c.Value); err == nil && m.revoker != nil {
			revokeErr = m.revoker.Revoke(r.Context(), claims.Id, time.Unix(claims.ExpiresAt, 0))
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return revokeErr
}

type ctxKey struct{}

// WithUser stores u on ctx.
func WithUser(ctx context.Context, u core.User) context.Context {
	return context.WithValue(ctx, ctxKey{}, u)
}

// UserFrom returns the user stored by WithUser.
func UserFrom(ctx context.Context) (core.User, bool) {
	u, ok := ctx.Value(ctxKey{}).(core.User)
	return u, ok && u.ID != ""
}

// Authenticate attaches the session user to the request context when the
// cookie is valid. Requests without a session pass through untouched.
func Authenticate(m *SessionManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if u, err := m.UserFromRequest(r); err == nil {
				r = r.WithContext(WithUser(r.Context(), u))
			}
			next.ServeHTTP(w, r)
		})
	}
}
