// Package auth is the credential service: password hashing, e-mail
// verification codes and stateless session tokens.
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dmitrijs2005/trackshare/internal/common"
	"golang.org/x/crypto/bcrypt"
)

const (
	verificationCodeMin = 100000
	verificationCodeMax = 999999
)

// Identity is the subject a valid session token speaks for.
type Identity struct {
	UserID   string
	Username string
}

// VerificationCode is a one-time numeric code mailed on signup.
type VerificationCode struct {
	Code      string
	ExpiresAt time.Time
}

// Options configure a Service. Zero durations fall back to 24h.
type Options struct {
	SecretKey                []byte
	BcryptCost               int
	SessionValidity          time.Duration
	VerificationCodeValidity time.Duration
}

// Service is safe for concurrent use; it holds only read-only settings.
type Service struct {
	secretKey       []byte
	cost            int
	sessionValidity time.Duration
	codeValidity    time.Duration
	now             func() time.Time
	randomInRange   func(lo, hi int64) (int64, error)
}

// Option tweaks a Service after construction, mostly for tests.
type Option func(*Service)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService validates opts and returns a ready Service. A missing signing key
// or an out-of-range bcrypt cost is a configuration error.
func NewService(opts Options, extra ...Option) (*Service, error) {
	if len(opts.SecretKey) == 0 {
		return nil, errors.New("auth: session signing key is empty")
	}
	if opts.BcryptCost < bcrypt.MinCost || opts.BcryptCost > bcrypt.MaxCost {
		return nil, fmt.Errorf("auth: bcrypt cost %d outside [%d, %d]", opts.BcryptCost, bcrypt.MinCost, bcrypt.MaxCost)
	}

	s := &Service{
		secretKey:       opts.SecretKey,
		cost:            opts.BcryptCost,
		sessionValidity: opts.SessionValidity,
		codeValidity:    opts.VerificationCodeValidity,
		now:             time.Now,
		randomInRange:   common.RandomIntInRange,
	}
	if s.sessionValidity <= 0 {
		s.sessionValidity = common.DefaultSessionValidity
	}
	if s.codeValidity <= 0 {
		s.codeValidity = common.DefaultVerificationValidity
	}
	for _, o := range extra {
		o(s)
	}
	return s, nil
}

// SessionValidity is the lifetime of tokens issued by this service.
func (s *Service) SessionValidity() time.Duration {
	return s.sessionValidity
}

// HashPassword returns a salted bcrypt hash of plain.
func (s *Service) HashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), s.cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword reports whether plain matches hash. A malformed hash is a
// mismatch, not an error.
func (s *Service) VerifyPassword(plain, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// IssueVerificationCode draws a 6-digit code from crypto/rand.
func (s *Service) IssueVerificationCode() (VerificationCode, error) {
	n, err := s.randomInRange(verificationCodeMin, verificationCodeMax)
	if err != nil {
		return VerificationCode{}, fmt.Errorf("generate verification code: %w", err)
	}
	return VerificationCode{
		Code:      strconv.FormatInt(n, 10),
		ExpiresAt: s.now().Add(s.codeValidity),
	}, nil
}

// IssueSessionToken signs a session token for the subject.
func (s *Service) IssueSessionToken(userID, username string) (string, error) {
	return GenerateToken(userID, username, s.secretKey, s.now(), s.sessionValidity)
}

// ParseSessionToken is ValidateSessionToken with the reason for rejection,
// for callers that want to log it.
func (s *Service) ParseSessionToken(token string) (Identity, error) {
	claims, err := ParseToken(token, s.secretKey, s.now())
	if err != nil {
		return Identity{}, err
	}
	return Identity{UserID: claims.UserID, Username: claims.Username}, nil
}

// ValidateSessionToken returns the identity a token speaks for. Any defect
// (bad signature, expiry, garbage) yields ok=false.
func (s *Service) ValidateSessionToken(token string) (Identity, bool) {
	id, err := s.ParseSessionToken(token)
	if err != nil {
		return Identity{}, false
	}
	return id, true
}
