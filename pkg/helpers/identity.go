package helpers

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/oksasatya/user-directory/internal/domain/entity"
)

// IdentityVerifier validates HS256 identity tokens issued by the identity
// provider and extracts the claims the directory uses.
type IdentityVerifier struct {
	secret        []byte
	issuer        string
	audience      string
	roleClaimPath string
}

// ErrNoIdentitySecret is returned when no signing secret is configured. HMAC
// accepts an empty key, so running without one would accept forged tokens.
var ErrNoIdentitySecret = errors.New("identity token secret is not configured")

func NewIdentityVerifier(secret, issuer, audience, roleClaimPath string) (*IdentityVerifier, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, ErrNoIdentitySecret
	}
	return &IdentityVerifier{
		secret:        []byte(secret),
		issuer:        issuer,
		audience:      audience,
		roleClaimPath: strings.Trim(roleClaimPath, `"`),
	}, nil
}

// Verify fails closed on a verifier built without a secret.
func (v *IdentityVerifier) Verify(token string) (entity.IdentityClaims, error) {
	if v == nil || len(v.secret) == 0 {
		return entity.IdentityClaims{}, ErrNoIdentitySecret
	}
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return entity.IdentityClaims{}, err
	}
	if !parsed.Valid {
		return entity.IdentityClaims{}, errors.New("invalid token")
	}

	sub, _ := claims.GetSubject()
	return entity.IdentityClaims{
		Subject:  sub,
		Name:     stringClaim(claims, "name"),
		Email:    stringClaim(claims, "email"),
		Nickname: stringClaim(claims, "nickname"),
		Picture:  stringClaim(claims, "picture"),
		Roles:    v.roles(claims),
	}, nil
}

// roles reads the role list at the configured claim, accepting a JSON array or
// a space/comma separated string.
func (v *IdentityVerifier) roles(claims jwt.MapClaims) []string {
	raw, ok := claims[v.roleClaimPath]
	if !ok {
		return nil
	}
	switch x := raw.(type) {
	case []interface{}:
		out := make([]string, 0, len(x))
		for _, r := range x {
			out = append(out, fmt.Sprint(r))
		}
		return out
	case string:
		return strings.FieldsFunc(x, func(r rune) bool { return r == ',' || r == ' ' })
	}
	return nil
}

func stringClaim(claims jwt.MapClaims, key string) string {
	s, _ := claims[key].(string)
	return s
}
