package auth

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"

	"github.com/audioroom/backend/internal/config"
	"github.com/audioroom/backend/internal/models"
)

// Trust levels, lowest to highest.
const (
	TrustGuest     = "guest"
	TrustMember    = "member"
	TrustModerator = "moderator"
	TrustAdmin     = "admin"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrAccountBlocked     = errors.New("account is blocked")
	ErrRegistrationOff    = errors.New("registration is disabled")
)

// Authenticate resolves a username/password pair to an account. Unknown
// usernames register a fresh account when the server allows it.
func Authenticate(db *sqlx.DB, cfg *config.Config, username, password string) (*models.Account, error) {
	username = strings.TrimSpace(strings.ToLower(username))
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	var acct models.Account
	err := db.Get(&acct, `SELECT id, username, password_hash, display_name, locale, trust_level, is_approved, is_blocked, block_reason, created_at, last_seen FROM accounts WHERE username=$1`, username)
	if err == sql.ErrNoRows {
		if !cfg.AllowRegistration {
			return nil, ErrRegistrationOff
		}
		return register(db, username, password)
	}
	if err != nil {
		return nil, fmt.Errorf("fetch account: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(password)) != nil {
		log.Printf("[AUTH] Bad password for %s", username)
		return nil, ErrInvalidCredentials
	}
	if acct.IsBlocked {
		return nil, ErrAccountBlocked
	}

	if _, err := db.Exec(`UPDATE accounts SET last_seen=NOW() WHERE id=$1`, acct.ID); err != nil {
		log.Printf("[AUTH] Failed to touch last_seen for %s: %v", username, err)
	}
	return &acct, nil
}

func register(db *sqlx.DB, username, password string) (*models.Account, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	var acct models.Account
	err = db.Get(&acct, `
		INSERT INTO accounts (username, password_hash, display_name, locale, trust_level, is_approved, is_blocked, created_at)
		VALUES ($1, $2, $3, 'en', $4, true, false, NOW())
		RETURNING id, username, password_hash, display_name, locale, trust_level, is_approved, is_blocked, block_reason, created_at, last_seen`,
		username, string(hash), username, TrustMember)
	if err != nil {
		return nil, fmt.Errorf("create account: %w", err)
	}
	log.Printf("[AUTH] Registered new account %s (id=%d)", username, acct.ID)
	return &acct, nil
}

// AuthenticateToken resolves a session JWT to its account, the
// password-free reconnect path.
func AuthenticateToken(db *sqlx.DB, cfg *config.Config, token string) (*models.Account, error) {
	accountID, err := VerifyToken(cfg, token)
	if err != nil {
		return nil, err
	}

	var acct models.Account
	err = db.Get(&acct, `SELECT id, username, password_hash, display_name, locale, trust_level, is_approved, is_blocked, block_reason, created_at, last_seen FROM accounts WHERE id=$1`, accountID)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if acct.IsBlocked {
		return nil, ErrAccountBlocked
	}

	if _, err := db.Exec(`UPDATE accounts SET last_seen=NOW() WHERE id=$1`, acct.ID); err != nil {
		log.Printf("[AUTH] Failed to touch last_seen for %s: %v", acct.Username, err)
	}
	return &acct, nil
}

// IssueToken signs a session JWT for the account.
func IssueToken(cfg *config.Config, accountID int) (string, error) {
	exp := time.Now().Add(time.Duration(cfg.SessionTimeoutMin) * time.Minute)
	claims := jwt.MapClaims{"account_id": accountID, "exp": exp.Unix()}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(cfg.JWTSecret))
}

// VerifyToken validates a session JWT and returns the account id.
func VerifyToken(cfg *config.Config, tokenStr string) (int, error) {
	parsed, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method %s", token.Method.Alg())
		}
		return []byte(cfg.JWTSecret), nil
	})
	if err != nil || !parsed.Valid {
		return 0, ErrInvalidCredentials
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return 0, ErrInvalidCredentials
	}
	idf, ok := claims["account_id"].(float64)
	if !ok {
		return 0, ErrInvalidCredentials
	}
	return int(idf), nil
}

// UpdateLocale stores the account's last negotiated locale.
func UpdateLocale(db *sqlx.DB, accountID int, locale string) error {
	_, err := db.Exec(`UPDATE accounts SET locale=$1 WHERE id=$2`, locale, accountID)
	return err
}

// LoadPrefs fetches the account's stored client options, nil when the
// account has never saved any.
func LoadPrefs(db *sqlx.DB, accountID int) (json.RawMessage, error) {
	var pref models.Preference
	err := db.Get(&pref, `SELECT account_id, options, updated_at FROM preferences WHERE account_id=$1`, accountID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetch preferences: %w", err)
	}
	return json.RawMessage(pref.Options), nil
}

// SavePrefs upserts the account's client option snapshot.
func SavePrefs(db *sqlx.DB, accountID int, options json.RawMessage) error {
	_, err := db.Exec(`
		INSERT INTO preferences (account_id, options, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (account_id) DO UPDATE SET options = EXCLUDED.options, updated_at = NOW()`,
		accountID, []byte(options))
	return err
}
