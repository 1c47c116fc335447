package auth

import (
	"errors"
	"fmt"
	"strings"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/spec-kit/query-service/internal/domain"
)

var (
	idClaims   = []string{"sub", "id", "_id", "studentId", "userId"}
	nameClaims = []string{"name", "displayName", "fullName", "studentName"}
)

// ErrUnknownRole is returned for tokens whose role is neither student nor admin.
var ErrUnknownRole = errors.New("unknown role")

// PrincipalFromClaims normalizes issuer-specific claim names into a Principal.
func PrincipalFromClaims(claims jwt.MapClaims) (domain.Principal, error) {
	p := domain.Principal{
		ID:          firstString(claims, idClaims),
		DisplayName: firstString(claims, nameClaims),
	}
	if p.ID == "" {
		return domain.Principal{}, errors.New("token carries no subject")
	}

	role, _ := claims["role"].(string)
	switch strings.ToLower(strings.TrimSpace(role)) {
	case "student", "":
		p.Role = domain.RoleStudent
	case "admin", "administrator":
		p.Role = domain.RoleAdmin
	default:
		return domain.Principal{}, fmt.Errorf("%w: %q", ErrUnknownRole, role)
	}
	return p, nil
}

func firstString(claims jwt.MapClaims, keys []string) string {
	for _, key := range keys {
		switch v := claims[key].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case float64:
			// numeric ids survive JSON decoding as float64
			return fmt.Sprintf("%.0f", v)
		}
	}
	return ""
}
