package auth

import (
	"errors"
	"time"

	"github.com/JonathanAlbertoBarrera/casosLegales-Blockchain/core/audit"
)

// ErrForbidden means the token is valid but its role is not allowed.
var ErrForbidden = errors.New("forbidden")

// Authorizer ties the user store, the token issuer and the audit trail.
type Authorizer struct {
	Users       *UserStore
	Tokens      *TokenIssuer
	AuditLogger audit.AuditLogger
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      User      `json:"user"`
}

// Login checks credentials and issues a token.
func (a *Authorizer) Login(username, password string) (LoginResult, error) {
	u, err := a.Users.Authenticate(username, password)
	if err != nil {
		audit.Record(a.AuditLogger, audit.EventLogin, username, "failure", err.Error(), nil)
		return LoginResult{}, err
	}
	token, exp, err := a.Tokens.Issue(u)
	if err != nil {
		return LoginResult{}, err
	}
	audit.Record(a.AuditLogger, audit.EventLogin, username, "success", "", map[string]string{"role": u.Role})
	return LoginResult{Token: token, ExpiresAt: exp, User: u}, nil
}

// Register creates an account on behalf of actor.
func (a *Authorizer) Register(actor string, username, email, password, role, fullName string) (User, error) {
	u, err := a.Users.Register(username, email, password, role, fullName)
	if err != nil {
		audit.Record(a.AuditLogger, audit.EventUserRegistered, username, "failure", err.Error(),
			map[string]string{"actor": actor})
		return User{}, err
	}
	audit.Record(a.AuditLogger, audit.EventUserRegistered, username, "success", "",
		map[string]string{"actor": actor, "role": role})
	return u, nil
}

// Authorize verifies tokenString and, when roles is non-empty, requires the
// caller to hold one of them.
func (a *Authorizer) Authorize(tokenString string, roles ...string) (*Claims, error) {
	claims, err := a.Tokens.Verify(tokenString)
	if err != nil {
		return nil, err
	}
	if len(roles) == 0 {
		return claims, nil
	}
	for _, r := range roles {
		if claims.Role == r {
			return claims, nil
		}
	}
	return nil, ErrForbidden
}
