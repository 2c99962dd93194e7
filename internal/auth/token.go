package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

const roleClaim = "pos_role"

// Roles allowed to manage rules.
const (
	RoleStaff   = "staff"
	RoleManager = "manager"
)

// Staff is the identity carried by a verified token.
type Staff struct {
	ID   string
	Role string
}

// Config configures token verification.
type Config struct {
	Secret    string
	Issuer    string
	Audience  string
	ClockSkew time.Duration
	Now       func() time.Time
}

// Verifier checks HS256 staff tokens.
type Verifier struct {
	secret    []byte
	issuer    string
	audience  string
	clockSkew time.Duration
	now       func() time.Time
}

// NewVerifier constructs a Verifier. The secret must not be blank.
func NewVerifier(cfg Config) (*Verifier, error) {
	if strings.TrimSpace(cfg.Secret) == "" {
		return nil, errors.New("auth: staff token secret is required")
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	skew := cfg.ClockSkew
	if skew <= 0 {
		skew = 30 * time.Second
	}
	return &Verifier{
		secret:    []byte(cfg.Secret),
		issuer:    cfg.Issuer,
		audience:  cfg.Audience,
		clockSkew: skew,
		now:       now,
	}, nil
}

// Verify parses token and returns the staff identity it carries.
func (v *Verifier) Verify(token string) (Staff, error) {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return Staff{}, errors.New("auth: token missing")
	}
	algorithm, err := tokenAlgorithm(trimmed)
	if err != nil {
		return Staff{}, err
	}
	if algorithm != jwa.HS256 {
		return Staff{}, fmt.Errorf("auth: unexpected token algorithm %s", algorithm)
	}
	parsed, err := jwt.ParseString(trimmed, jwt.WithKey(jwa.HS256, v.secret), jwt.WithValidate(false))
	if err != nil {
		return Staff{}, fmt.Errorf("auth: parse token: %w", err)
	}

	opts := []jwt.ValidateOption{
		jwt.WithClock(jwt.ClockFunc(v.now)),
		jwt.WithAcceptableSkew(v.clockSkew),
		jwt.WithRequiredClaim(jwt.SubjectKey),
		jwt.WithRequiredClaim(jwt.ExpirationKey),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}
	if err := jwt.Validate(parsed, opts...); err != nil {
		return Staff{}, fmt.Errorf("auth: validate token: %w", err)
	}

	raw, _ := parsed.Get(roleClaim)
	role, _ := raw.(string)
	if role != RoleStaff && role != RoleManager {
		return Staff{}, fmt.Errorf("auth: role %q may not manage rules", role)
	}
	return Staff{ID: parsed.Subject(), Role: role}, nil
}

// Issue signs a staff token valid for ttl.
func (v *Verifier) Issue(staff Staff, ttl time.Duration) (string, error) {
	now := v.now()
	builder := jwt.NewBuilder().
		Subject(staff.ID).
		IssuedAt(now).
		NotBefore(now).
		Expiration(now.Add(ttl)).
		Claim(roleClaim, staff.Role)
	if v.issuer != "" {
		builder = builder.Issuer(v.issuer)
	}
	if v.audience != "" {
		builder = builder.Audience([]string{v.audience})
	}
	tok, err := builder.Build()
	if err != nil {
		return "", fmt.Errorf("auth: build token: %w", err)
	}
	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256, v.secret))
	if err != nil {
		return "", fmt.Errorf("auth: sign token: %w", err)
	}
	return string(signed), nil
}

// tokenAlgorithm reads the signing algorithm from the protected headers, rejecting
// unsigned tokens and tokens whose signatures disagree.
func tokenAlgorithm(token string) (jwa.SignatureAlgorithm, error) {
	message, err := jws.ParseString(token)
	if err != nil {
		return "", fmt.Errorf("auth: parse jws: %w", err)
	}
	var algorithm jwa.SignatureAlgorithm
	for _, sig := range message.Signatures() {
		headers := sig.ProtectedHeaders()
		if headers == nil {
			return "", errors.New("auth: token missing protected headers")
		}
		alg := headers.Algorithm()
		switch {
		case alg == "":
			return "", errors.New("auth: token missing algorithm")
		case alg == jwa.NoSignature:
			return "", errors.New("auth: token uses none algorithm")
		case algorithm != "" && algorithm != alg:
			return "", errors.New("auth: mixed token algorithms detected")
		}
		algorithm = alg
	}
	if algorithm == "" {
		return "", errors.New("auth: token contains no signatures")
	}
	return algorithm, nil
}
