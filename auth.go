package main

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const (
	jwtExpiry        = 12 * time.Hour
	bcryptCost       = 12
	loginRateWindow  = 60 * time.Second
	maxLoginAttempts = 10
	jwtSecretKey     = "jwt_secret"
)

var (
	ErrAdminDisabled  = errors.New("admin login disabled")
	ErrBadCredentials = errors.New("invalid username or password")
	ErrRateLimited    = errors.New("too many login attempts, try again later")
)

// Auth handles operator login for the admin endpoints
type Auth struct {
	user      string
	passHash  []byte // nil disables login
	jwtSecret []byte

	// Rate limiting for login attempts (IP -> attempts)
	rateMu  sync.Mutex
	rateMap map[string]*rateEntry
}

type rateEntry struct {
	Count   int
	ResetAt time.Time
}

// NewAuth creates the admin authenticator. An empty password disables login.
// The signing secret comes from secret, then the database, then is generated.
func NewAuth(user, password, secret string, db *DB) (*Auth, error) {
	a := &Auth{
		user:      user,
		jwtSecret: loadOrCreateSecret(secret, db),
		rateMap:   make(map[string]*rateEntry),
	}
	if password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
		if err != nil {
			return nil, fmt.Errorf("hash admin password: %w", err)
		}
		a.passHash = hash
	}
	return a, nil
}

// loadOrCreateSecret returns the configured secret, or the one persisted in
// the database, or a fresh random one (persisted when a database is present).
func loadOrCreateSecret(configured string, db *DB) []byte {
	if configured != "" {
		return []byte(configured)
	}
	if db != nil {
		if h := db.GetSetting(jwtSecretKey); h != "" {
			if b, err := hex.DecodeString(h); err == nil && len(b) == 32 {
				return b
			}
		}
	}
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		panic("failed to generate JWT secret: " + err.Error())
	}
	if db != nil {
		if err := db.SetSetting(jwtSecretKey, hex.EncodeToString(secret)); err != nil {
			Log.Warnf("could not persist JWT secret: %v", err)
		}
	}
	return secret
}

// Enabled reports whether an admin password is configured
func (a *Auth) Enabled() bool {
	return a.passHash != nil
}

// Login checks the operator credentials and returns a signed token
func (a *Auth) Login(username, password, ip string) (string, error) {
	if !a.Enabled() {
		return "", ErrAdminDisabled
	}
	if !a.checkRate(ip) {
		return "", ErrRateLimited
	}
	if username != a.user {
		return "", ErrBadCredentials
	}
	if err := bcrypt.CompareHashAndPassword(a.passHash, []byte(password)); err != nil {
		return "", ErrBadCredentials
	}
	return a.generateToken(username)
}

// ValidateToken validates a JWT and returns the subject
func (a *Auth) ValidateToken(tokenStr string) (string, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return a.jwtSecret, nil
	})
	if err != nil {
		return "", err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("invalid token")
	}
	sub, err := claims.GetSubject()
	if err != nil || sub != a.user {
		return "", fmt.Errorf("invalid token claims")
	}
	return sub, nil
}

func (a *Auth) generateToken(username string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": username,
		"exp": now.Add(jwtExpiry).Unix(),
		"iat": now.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.jwtSecret)
}

func (a *Auth) checkRate(ip string) bool {
	a.rateMu.Lock()
	defer a.rateMu.Unlock()

	now := time.Now()
	entry, ok := a.rateMap[ip]
	if !ok || now.After(entry.ResetAt) {
		a.rateMap[ip] = &rateEntry{Count: 1, ResetAt: now.Add(loginRateWindow)}
		return true
	}
	entry.Count++
	return entry.Count <= maxLoginAttempts
}

// RequireAdmin rejects requests without a valid bearer token
func (a *Auth) RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h := r.Header.Get("Authorization")
		tok, ok := strings.CutPrefix(h, "Bearer ")
		if !ok || tok == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if _, err := a.ValidateToken(tok); err != nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}
