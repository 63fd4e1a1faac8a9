// Package session issues and verifies the signed tokens carried in the
// role-scoped session cookies.
package session

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/shaan-hospital/apiserver/internal/apperr"
	"github.com/shaan-hospital/apiserver/types"
)

const defaultTokenTTL = 7 * 24 * time.Hour

// Kind is a closed set of session kinds. A browser may hold one session of
// each kind at the same time.
type Kind int

const (
	Admin Kind = iota + 1
	Patient
)

// KindForRole maps an identity's role to the session kind it logs into.
// Administrators get an admin session; everyone else a patient session.
func KindForRole(role types.Role) Kind {
	if role == types.RoleAdmin {
		return Admin
	}
	return Patient
}

func (k Kind) String() string {
	switch k {
	case Admin:
		return "admin"
	case Patient:
		return "patient"
	default:
		return "unknown"
	}
}

// CookieName is the cookie that carries this kind of session.
func (k Kind) CookieName() string {
	switch k {
	case Admin:
		return "adminToken"
	case Patient:
		return "patientToken"
	default:
		return ""
	}
}

// Audience is the signing namespace of this kind of session. A token minted
// for one kind never verifies as another.
func (k Kind) Audience() string {
	return "hospital-" + k.String()
}

// RequiredRole is the role a guarded resource of this kind expects.
func (k Kind) RequiredRole() types.Role {
	if k == Admin {
		return types.RoleAdmin
	}
	return types.RolePatient
}

// Claims are the JWT claims of a session token.
type Claims struct {
	Role types.Role `json:"role"`
	jwt.RegisteredClaims
}

// Options configures an Issuer.
type Options struct {
	Secret           string
	TTL              time.Duration
	CookieExpireDays int
	// Production makes cookies Secure and SameSite=None.
	Production bool
}

// Issuer signs and verifies session tokens and builds their cookies.
type Issuer struct {
	secret     []byte
	ttl        time.Duration
	cookieTTL  time.Duration
	production bool
	now        func() time.Time
}

// NewIssuer constructs an Issuer. The secret is required.
func NewIssuer(opts Options) (*Issuer, error) {
	secret := strings.TrimSpace(opts.Secret)
	if secret == "" {
		return nil, errors.New("jwt secret is required")
	}
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	cookieTTL := time.Duration(opts.CookieExpireDays) * 24 * time.Hour
	if cookieTTL <= 0 {
		cookieTTL = ttl
	}
	return &Issuer{
		secret:     []byte(secret),
		ttl:        ttl,
		cookieTTL:  cookieTTL,
		production: opts.Production,
		now:        time.Now,
	}, nil
}

// Issue signs a token for user and returns it with the session kind it
// belongs to.
func (i *Issuer) Issue(user types.User) (string, Kind, error) {
	if strings.TrimSpace(user.ID) == "" {
		return "", 0, errors.New("user id is required")
	}
	kind := KindForRole(user.Role)
	now := i.now()
	claims := Claims{
		Role: user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			Audience:  jwt.ClaimStrings{kind.Audience()},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", 0, err
	}
	return signed, kind, nil
}

// Verify checks the signature, expiry and namespace of a token of the given
// kind. Failures are apperr token errors.
func (i *Issuer) Verify(kind Kind, tokenString string) (Claims, error) {
	claims := Claims{}
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(kind.Audience()),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, apperr.TokenExpired(err)
		}
		return Claims{}, apperr.TokenInvalid(err)
	}
	if !token.Valid {
		return Claims{}, apperr.TokenInvalid(errors.New("invalid token"))
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return Claims{}, apperr.TokenInvalid(errors.New("missing subject"))
	}
	return claims, nil
}

// Cookie builds the session cookie for kind.
func (i *Issuer) Cookie(kind Kind, token string) *http.Cookie {
	cookie := &http.Cookie{
		Name:     kind.CookieName(),
		Value:    token,
		Path:     "/",
		Expires:  i.now().Add(i.cookieTTL),
		MaxAge:   int(i.cookieTTL / time.Second),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if i.production {
		cookie.Secure = true
		cookie.SameSite = http.SameSiteNoneMode
	}
	return cookie
}

// ClearCookie builds a cookie that removes the session of kind.
func (i *Issuer) ClearCookie(kind Kind) *http.Cookie {
	cookie := i.Cookie(kind, "")
	cookie.Expires = i.now()
	cookie.MaxAge = -1
	return cookie
}
