package echoapi

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/core/user"
)

const (
	contextClaimsKey = "claims"
	contextUserKey   = "user"
	audience         = "Campus"
)

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.RegisteredClaims
	OrigIssuedAt int64  `json:"oriat,omitempty"`
	Name         string `json:"name,omitempty"`
	Email        string `json:"email,omitempty"`
	Role         string `json:"role,omitempty"`
}

// tokenIssuer signs and parses the API tokens.
type tokenIssuer struct {
	key        []byte
	issuer     string
	expiration time.Duration
	refresh    time.Duration
}

func newTokenIssuer(conf *core.Config) *tokenIssuer {
	return &tokenIssuer{
		key:        []byte(conf.SecretKey),
		issuer:     conf.AppName,
		expiration: conf.Server.JWTExpirationDelta,
		refresh:    conf.Server.JWTRefreshExpirationDelta,
	}
}

// claims returns the claims of a token for usr. origIat is the issue time of the first token
// of a refresh chain, now when absent.
func (ti *tokenIssuer) claims(usr user.User, origIat ...int64) *Claims {
	now := time.Now()
	oriat := now.Unix()
	if len(origIat) > 0 {
		oriat = origIat[0]
	}
	return &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ti.issuer,
			Subject:   usr.ID,
			Audience:  jwt.ClaimStrings{audience},
			ExpiresAt: jwt.NewNumericDate(now.Add(ti.expiration)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		OrigIssuedAt: oriat,
		Name:         usr.Name,
		Email:        usr.Email,
		Role:         usr.Role,
	}
}

// generate returns the signed token string of claims.
func (ti *tokenIssuer) generate(claims *Claims) (string, error) {
	ss, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(ti.key)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

func (ti *tokenIssuer) parse(tokenStr string) (*Claims, error) {
	claims := new(Claims)
	_, err := jwt.ParseWithClaims(
		tokenStr,
		claims,
		func(*jwt.Token) (interface{}, error) { return ti.key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(ti.issuer),
		jwt.WithAudience(audience),
	)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// authMiddleware requires a valid bearer token, then loads the active user it was issued to.
func (s *server) authMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		authz := ctx.Request().Header.Get(echo.HeaderAuthorization)
		if len(authz) < len("bearer ") || !strings.EqualFold(authz[:len("bearer ")], "bearer ") {
			return errMissingToken
		}
		claims, err := s.tokens.parse(strings.TrimSpace(authz[len("bearer "):]))
		if err != nil {
			return errInvalidToken
		}
		ctx.Set(contextClaimsKey, *claims)

		usr, err := s.deps.UserSvc.GetByID(ctx.Request().Context(), claims.Subject)
		if err != nil {
			if core.IsNotFound(err) {
				return errInvalidToken
			}
			return errors.Wrap(err, "finding token user")
		}
		if !usr.IsActive {
			return errAccountDeactivated
		}
		ctx.Set(contextUserKey, usr)
		return next(ctx)
	}
}

func getContextClaims(ctx echo.Context) (Claims, bool) {
	claims, ok := ctx.Get(contextClaimsKey).(Claims)
	return claims, ok
}

// getContextUser returns the authenticated user. Only valid behind authMiddleware.
func getContextUser(ctx echo.Context) user.User {
	usr, _ := ctx.Get(contextUserKey).(user.User)
	return usr
}

// requireRoles lets through the users having one of roles.
func requireRoles(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			if hasRole(getContextUser(ctx), roles...) {
				return next(ctx)
			}
			return errForbidden
		}
	}
}

func hasRole(usr user.User, roles ...string) bool {
	for _, role := range roles {
		if usr.Role == role {
			return true
		}
	}
	return false
}

// selfOrRoles lets through the user identified by the path param, or users having one of roles.
func selfOrRoles(param string, roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			usr := getContextUser(ctx)
			if usr.ID == ctx.Param(param) || hasRole(usr, roles...) {
				return next(ctx)
			}
			return errForbidden
		}
	}
}

func (s *server) refreshToken(ctx echo.Context) (string, error) {
	claims, ok := getContextClaims(ctx)
	if !ok {
		return "", errMissingToken
	}
	expTime := time.Unix(claims.OrigIssuedAt, 0).Add(s.tokens.refresh)
	if time.Now().After(expTime) {
		return "", errRefreshExpired
	}
	return s.tokens.generate(s.tokens.claims(getContextUser(ctx), claims.OrigIssuedAt))
}
