package storage

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const downloadAudience = "portal-export-download"

// ErrInvalidDownloadToken wraps every rejected download token.
var ErrInvalidDownloadToken = errors.New("invalid download token")

// SignedURLSigner issues HS256 tokens naming an export job and its stored
// file. The audience keeps them from being accepted as session tokens.
type SignedURLSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSignedURLSigner builds a signer. A non-positive ttl means 24h.
func NewSignedURLSigner(secret string, ttl time.Duration) *SignedURLSigner {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SignedURLSigner{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// WithClock swaps the clock used for issuing and checking expiry.
func (s *SignedURLSigner) WithClock(now func() time.Time) *SignedURLSigner {
	if now != nil {
		s.now = now
	}
	return s
}

// TTL is the lifetime of generated tokens.
func (s *SignedURLSigner) TTL() time.Duration {
	return s.ttl
}

// Generate signs a token for jobID pointing at name in storage.
func (s *SignedURLSigner) Generate(jobID, name string) (string, time.Time, error) {
	if jobID == "" || name == "" {
		return "", time.Time{}, errors.New("job id and file name are required")
	}
	if len(s.secret) == 0 {
		return "", time.Time{}, errors.New("download signing secret missing")
	}
	issuedAt := s.now()
	expiresAt := issuedAt.Add(s.ttl)
	claims := jwt.RegisteredClaims{
		ID:        jobID,
		Subject:   name,
		Audience:  jwt.ClaimStrings{downloadAudience},
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign download token: %w", err)
	}
	return signed, claims.ExpiresAt.Time, nil
}

// Parse verifies token and returns the job id, file name and expiry. With
// allowExpired the expiry is not enforced; cleanup uses that to locate files.
func (s *SignedURLSigner) Parse(token string, allowExpired bool) (jobID, name string, expiresAt time.Time, err error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	}
	if allowExpired {
		opts = append(opts, jwt.WithoutClaimsValidation())
	} else {
		opts = append(opts, jwt.WithAudience(downloadAudience), jwt.WithExpirationRequired())
	}

	var claims jwt.RegisteredClaims
	if _, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, opts...); err != nil {
		return "", "", time.Time{}, fmt.Errorf("%w: %v", ErrInvalidDownloadToken, err)
	}
	if claims.ID == "" || claims.Subject == "" || claims.ExpiresAt == nil {
		return "", "", time.Time{}, fmt.Errorf("%w: missing claims", ErrInvalidDownloadToken)
	}
	if allowExpired && !hasAudience(claims.Audience) {
		return "", "", time.Time{}, fmt.Errorf("%w: wrong audience", ErrInvalidDownloadToken)
	}
	return claims.ID, claims.Subject, claims.ExpiresAt.Time, nil
}

func hasAudience(aud jwt.ClaimStrings) bool {
	for _, a := range aud {
		if a == downloadAudience {
			return true
		}
	}
	return false
}
