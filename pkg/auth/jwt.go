package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/argon2"
)

// User represents an authenticated user
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// ExtractToken extracts the JWT token from an Authorization header value.
// Supports "Bearer <token>" format.
func ExtractToken(authHeader string) (string, error) {
	if authHeader == "" {
		return "", errors.New("empty authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("invalid authorization header format")
	}

	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", errors.New("empty token")
	}

	return token, nil
}

// JWTAuth issues and verifies HS256 tokens for the app's local accounts.
type JWTAuth struct {
	SecretKey          []byte
	AccessTokenExpiry  time.Duration // Default: 15 minutes
	RefreshTokenExpiry time.Duration // Default: 7 days
}

// NewJWTAuth creates a new JWT auth instance
func NewJWTAuth(secretKey string, accessExpiry, refreshExpiry time.Duration) (*JWTAuth, error) {
	if secretKey == "" {
		return nil, errors.New("JWT secret key cannot be empty")
	}
	if accessExpiry == 0 {
		accessExpiry = 15 * time.Minute
	}
	if refreshExpiry == 0 {
		refreshExpiry = 7 * 24 * time.Hour
	}

	return &JWTAuth{
		SecretKey:          []byte(secretKey),
		AccessTokenExpiry:  accessExpiry,
		RefreshTokenExpiry: refreshExpiry,
	}, nil
}

// Claims represents the JWT token claims
type Claims struct {
	UserID string `json:"sub"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// GenerateTokens generates both access and refresh tokens
func (a *JWTAuth) GenerateTokens(userID, email string) (accessToken, refreshToken string, err error) {
	accessToken, err = a.sign(userID, email, a.AccessTokenExpiry)
	if err != nil {
		return "", "", fmt.Errorf("failed to sign access token: %w", err)
	}
	refreshToken, err = a.sign(userID, email, a.RefreshTokenExpiry)
	if err != nil {
		return "", "", fmt.Errorf("failed to sign refresh token: %w", err)
	}
	return accessToken, refreshToken, nil
}

func (a *JWTAuth) sign(userID, email string, expiry time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    "medremind",
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.SecretKey)
}

// VerifyToken verifies a token and returns the user it was issued to.
func (a *JWTAuth) VerifyToken(tokenString string) (*User, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.SecretKey, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return &User{ID: claims.UserID, Email: claims.Email}, nil
	}

	return nil, errors.New("invalid token")
}

// Argon2 password hashing parameters (OWASP recommended)
const (
	argon2Time      = 3         // Number of iterations
	argon2Memory    = 64 * 1024 // 64MB
	argon2Threads   = 4         // Parallelism
	argon2KeyLength = 32        // 32 bytes (256 bits)
	saltLength      = 16        // 16 bytes salt
)

// HashPassword hashes a password using Argon2id.
// Format: argon2id$<salt>$<hash>, both base64.
func HashPassword(password string) (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	hash := argon2.IDKey([]byte(password), salt, argon2Time, argon2Memory, argon2Threads, argon2KeyLength)

	return fmt.Sprintf("argon2id$%s$%s",
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash)), nil
}

// VerifyPassword verifies a password against an Argon2id hash
func VerifyPassword(hashedPassword, password string) (bool, error) {
	parts := strings.Split(hashedPassword, "$")
	if len(parts) != 3 || parts[0] != "argon2id" {
		return false, errors.New("invalid hash format")
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[1])
	if err != nil {
		return false, fmt.Errorf("failed to decode salt: %w", err)
	}
	expectedHash, err := base64.RawStdEncoding.DecodeString(parts[2])
	if err != nil {
		return false, fmt.Errorf("failed to decode hash: %w", err)
	}

	actualHash := argon2.IDKey([]byte(password), salt, argon2Time, argon2Memory, argon2Threads, argon2KeyLength)

	return subtle.ConstantTimeCompare(actualHash, expectedHash) == 1, nil
}

// ValidatePassword checks if password meets requirements
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return errors.New("password must be at least 8 characters long")
	}

	var hasLetter, hasNumber bool
	for _, char := range password {
		switch {
		case ('a' <= char && char <= 'z') || ('A' <= char && char <= 'Z'):
			hasLetter = true
		case '0' <= char && char <= '9':
			hasNumber = true
		}
	}

	if !hasLetter || !hasNumber {
		return errors.New("password must contain at least one letter and one number")
	}
	return nil
}
