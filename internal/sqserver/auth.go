package sqserver

import (
	"context"
	"crypto/rand"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// contextKey is a key in a request context populated by requireAuth.
type contextKey int

const (
	ctxCallerID contextKey = iota
)

// callerRegistry tracks the bcrypt hash of each caller's per-session
// secret, the same shape as dao.UserRepository.Password: salting the JWT
// signing key with it means rotating a caller's secret invalidates every
// token issued before the rotation.
type callerRegistry struct {
	secrets map[uuid.UUID][]byte
}

func newCallerRegistry() *callerRegistry {
	return &callerRegistry{secrets: make(map[uuid.UUID][]byte)}
}

// create mints a new caller identity with a random secret and returns its
// id and the secret's bcrypt hash for signing-key salting.
func (r *callerRegistry) create() (uuid.UUID, []byte, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return uuid.UUID{}, nil, fmt.Errorf("generate caller secret: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword(raw, bcrypt.DefaultCost)
	if err != nil {
		return uuid.UUID{}, nil, fmt.Errorf("hash caller secret: %w", err)
	}

	id := uuid.New()
	r.secrets[id] = hash
	return id, hash, nil
}

func (r *callerRegistry) secretHash(id uuid.UUID) ([]byte, bool) {
	h, ok := r.secrets[id]
	return h, ok
}

// generateJWT issues a bearer token for callerID, signed with the server
// secret salted by the caller's own secret hash.
func (a *API) generateJWT(callerID uuid.UUID, secretHash []byte) (string, error) {
	claims := jwt.MapClaims{
		"iss": "sqserver",
		"sub": callerID.String(),
		"exp": time.Now().Add(24 * time.Hour).Unix(),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)

	signKey := append(append([]byte{}, a.Secret...), secretHash...)
	return tok.SignedString(signKey)
}

// validateJWT parses tokStr and returns the caller id it was issued for,
// if it is well-formed, unexpired, and signed with that caller's current
// secret.
func (a *API) validateJWT(tokStr string) (uuid.UUID, error) {
	var subject string
	_, err := jwt.Parse(tokStr, func(tok *jwt.Token) (interface{}, error) {
		claims, ok := tok.Claims.(jwt.MapClaims)
		if !ok {
			return nil, fmt.Errorf("unexpected claims type")
		}
		sub, ok := claims["sub"].(string)
		if !ok {
			return nil, fmt.Errorf("missing subject claim")
		}
		subject = sub

		callerID, err := uuid.Parse(sub)
		if err != nil {
			return nil, fmt.Errorf("subject is not a valid caller id: %w", err)
		}
		hash, ok := a.callers.secretHash(callerID)
		if !ok {
			return nil, fmt.Errorf("unknown caller")
		}
		return append(append([]byte{}, a.Secret...), hash...), nil
	})
	if err != nil {
		return uuid.UUID{}, err
	}

	return uuid.Parse(subject)
}

func bearerToken(req *http.Request) (string, error) {
	header := strings.TrimSpace(req.Header.Get("Authorization"))
	if header == "" {
		return "", fmt.Errorf("no Authorization header present")
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(strings.TrimSpace(parts[0]), "bearer") {
		return "", fmt.Errorf("Authorization header not in Bearer format")
	}

	return strings.TrimSpace(parts[1]), nil
}

// requireAuth wraps next, rejecting any request without a valid bearer
// token and storing the resolved caller id in the request context.
func (a *API) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		tok, err := bearerToken(req)
		if err != nil {
			a.unauthorized(w, err.Error())
			return
		}

		callerID, err := a.validateJWT(tok)
		if err != nil {
			a.unauthorized(w, err.Error())
			return
		}

		ctx := context.WithValue(req.Context(), ctxCallerID, callerID)
		next.ServeHTTP(w, req.WithContext(ctx))
	})
}

func callerFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(ctxCallerID).(uuid.UUID)
	return id, ok
}
