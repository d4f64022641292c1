package middleware

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/srujana-egov/pgr-on-digit3.0/internal/api/shared"
	"github.com/srujana-egov/pgr-on-digit3.0/internal/platform/logger"
	"github.com/srujana-egov/pgr-on-digit3.0/internal/redact"
)

var realmPattern = regexp.MustCompile(`.*/realms/([^/]+)/*$`)

// ClaimsMiddleware reads the bearer token and stores the caller's tenant,
// roles and subject in the context. It never rejects a request; a missing,
// malformed or badly signed token yields empty claims.
type ClaimsMiddleware struct {
	key    any
	parser *jwt.Parser
}

// Verification selects how token signatures are checked. RSAPublicKey takes
// precedence and accepts either a PEM block or the bare base64 key published
// by a Keycloak realm. With neither set, tokens are read unverified.
type Verification struct {
	HMACSecret   string
	RSAPublicKey string
}

// NewClaimsMiddleware creates the middleware.
func NewClaimsMiddleware(v Verification) (*ClaimsMiddleware, error) {
	switch {
	case strings.TrimSpace(v.RSAPublicKey) != "":
		key, err := jwt.ParseRSAPublicKeyFromPEM(pemPublicKey(v.RSAPublicKey))
		if err != nil {
			return nil, fmt.Errorf("invalid RSA public key: %w", err)
		}
		return &ClaimsMiddleware{
			key:    key,
			parser: jwt.NewParser(jwt.WithValidMethods([]string{"RS256", "RS384", "RS512"})),
		}, nil
	case v.HMACSecret != "":
		return &ClaimsMiddleware{
			key:    []byte(v.HMACSecret),
			parser: jwt.NewParser(jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"})),
		}, nil
	default:
		return &ClaimsMiddleware{parser: jwt.NewParser()}, nil
	}
}

func pemPublicKey(raw string) []byte {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "-----BEGIN") {
		return []byte(raw)
	}
	return []byte("-----BEGIN PUBLIC KEY-----\n" + raw + "\n-----END PUBLIC KEY-----\n")
}

// Handler is the chi middleware.
func (m *ClaimsMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := m.parse(r.Header.Get("Authorization"))
		if err != nil {
			logger.FromContext(r.Context()).Debug("token claims unavailable",
				slog.String("error", redact.Error(err)))
		}
		next.ServeHTTP(w, r.WithContext(shared.WithClaims(r.Context(), claims)))
	})
}

var errNoBearer = errors.New("no bearer token")

func (m *ClaimsMiddleware) parse(header string) (shared.Claims, error) {
	raw, ok := strings.CutPrefix(strings.TrimSpace(header), "Bearer ")
	if !ok || strings.TrimSpace(raw) == "" {
		return shared.Claims{}, errNoBearer
	}

	mc := jwt.MapClaims{}
	var err error
	if m.key == nil {
		_, _, err = m.parser.ParseUnverified(strings.TrimSpace(raw), mc)
	} else {
		_, err = m.parser.ParseWithClaims(strings.TrimSpace(raw), mc, func(*jwt.Token) (any, error) {
			return m.key, nil
		})
	}
	if err != nil {
		return shared.Claims{}, err
	}

	subject, _ := mc.GetSubject()
	issuer, _ := mc.GetIssuer()
	return shared.Claims{
		Subject:  subject,
		TenantID: TenantFromIssuer(issuer),
		Roles:    rolesFrom(mc),
	}, nil
}

// TenantFromIssuer returns the realm segment of an issuer URL such as
// https://auth.example.org/realms/pg, or "" when there is none.
func TenantFromIssuer(issuer string) string {
	match := realmPattern.FindStringSubmatch(issuer)
	if len(match) < 2 {
		return ""
	}
	return match[1]
}

func rolesFrom(mc jwt.MapClaims) []string {
	access, ok := mc["realm_access"].(map[string]any)
	if !ok {
		return []string{}
	}
	list, ok := access["roles"].([]any)
	if !ok {
		return []string{}
	}
	roles := make([]string, 0, len(list))
	for _, v := range list {
		if s, ok := v.(string); ok {
			roles = append(roles, s)
		}
	}
	return roles
}

// RequireTenant rejects requests whose token did not name a tenant.
func RequireTenant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if shared.GetClaims(r.Context()).TenantID == "" {
			shared.RespondWithError(w, r, http.StatusUnauthorized, shared.CodeUnauthorized,
				"A bearer token with a tenant realm is required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
