// Package auth authorizes contract invocations with signed grants.
//
// A grant is an EdDSA JWT signed by the account key. It names the contract
// (aud), the function (fn) and the exact arguments the signer consents to
// (args), and carries a unique id (jti). A grant is consumed when it
// satisfies an authorization check: its id is stored as a nonce entry whose
// lease outlives the grant, so it cannot be replayed.
package auth

import (
	"context"
	"crypto/ed25519"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	apperrors "alpha-duel/internal/errors"
	"alpha-duel/sdk"
)

// DefaultMaxTTL bounds how far in the future a grant may expire.
const DefaultMaxTTL = 10 * time.Minute

// Grant is the consent a signer gives for one invocation.
type Grant struct {
	ID        string
	Contract  sdk.Address
	Function  string
	Args      []string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// grantClaims is the JWT form of a Grant.
type grantClaims struct {
	jwt.RegisteredClaims
	Function string   `json:"fn"`
	Args     []string `json:"args"`
}

// Sign issues a grant token signed by key. The subject is the key's address.
func Sign(key ed25519.PrivateKey, g Grant) (string, error) {
	if len(key) != ed25519.PrivateKeySize {
		return "", errors.New("grant signing key is not configured")
	}
	if strings.TrimSpace(g.ID) == "" {
		return "", errors.New("grant id is required")
	}
	if g.ExpiresAt.IsZero() {
		return "", errors.New("grant expiry is required")
	}
	pub, ok := key.Public().(ed25519.PublicKey)
	if !ok {
		return "", errors.New("grant signing key has no ed25519 public key")
	}
	claims := grantClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   AddressFor(pub).String(),
			Audience:  jwt.ClaimStrings{g.Contract.String()},
			ExpiresAt: jwt.NewNumericDate(g.ExpiresAt),
			ID:        g.ID,
		},
		Function: g.Function,
		Args:     g.Args,
	}
	if !g.IssuedAt.IsZero() {
		claims.IssuedAt = jwt.NewNumericDate(g.IssuedAt)
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims).SignedString(key)
	if err != nil {
		return "", fmt.Errorf("sign grant: %w", err)
	}
	return token, nil
}

// Config defines how grants are verified.
type Config struct {
	Contract sdk.Address
	MaxTTL   time.Duration
	Now      func() time.Time
}

// NewFactory returns the authorizer factory the host uses per invocation.
func NewFactory(cfg Config) sdk.AuthorizerFactory {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.MaxTTL <= 0 {
		cfg.MaxTTL = DefaultMaxTTL
	}
	return func(inv sdk.Invocation, state *sdk.State) sdk.Authorizer {
		return &authorizer{cfg: cfg, inv: inv, state: state}
	}
}

type authorizer struct {
	cfg   Config
	inv   sdk.Invocation
	state *sdk.State
}

// RequireAuth consumes the first unused grant from addr that matches the
// running function and args exactly.
func (a *authorizer) RequireAuth(ctx context.Context, addr sdk.Address, args ...string) error {
	key, err := PublicKeyOf(addr)
	if err != nil {
		return unauthorized(addr, err.Error())
	}
	now := a.cfg.Now().UTC()

	reason := "no grant presented"
	for _, token := range a.inv.Grants {
		claims, err := a.parse(token, key)
		if err != nil {
			// grants from other signers are expected here
			reason = err.Error()
			continue
		}
		if err := a.check(claims, addr, args, now); err != nil {
			reason = err.Error()
			continue
		}
		nonce := sdk.NonceKey(addr.String() + "/" + claims.ID)
		used, err := a.state.Has(ctx, nonce)
		if err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, "check grant nonce", err)
		}
		if used {
			reason = "grant already used"
			continue
		}
		if err := a.consume(ctx, nonce, claims.ExpiresAt.Time.Sub(now)); err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, "consume grant", err)
		}
		return nil
	}
	return unauthorized(addr, reason)
}

func (a *authorizer) parse(token string, key ed25519.PublicKey) (*grantClaims, error) {
	var claims grantClaims
	_, err := jwt.ParseWithClaims(strings.TrimSpace(token), &claims, func(*jwt.Token) (any, error) {
		return key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodEdDSA.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenSignatureInvalid) || errors.Is(err, jwt.ErrEd25519Verification) {
			return nil, errors.New("grant signature is invalid")
		}
		return nil, errors.New("grant is malformed")
	}
	return &claims, nil
}

func (a *authorizer) check(c *grantClaims, addr sdk.Address, args []string, now time.Time) error {
	switch {
	case c.Subject != addr.String():
		return errors.New("grant subject mismatch")
	case !slices.Contains(c.Audience, a.cfg.Contract.String()):
		return errors.New("grant audience mismatch")
	case c.ID == "":
		return errors.New("grant jti is required")
	case c.ExpiresAt == nil:
		return errors.New("grant exp is required")
	case !c.ExpiresAt.Time.After(now):
		return errors.New("grant is expired")
	case c.ExpiresAt.Time.Sub(now) > a.cfg.MaxTTL:
		return errors.New("grant expires too far in the future")
	case c.Function != a.inv.Function:
		return errors.New("grant function mismatch")
	case !slices.Equal(c.Args, args):
		return fmt.Errorf("grant args mismatch: want %q", strings.Join(args, "|"))
	}
	return nil
}

// consume stores the nonce with a lease covering the rest of the grant's life.
func (a *authorizer) consume(ctx context.Context, nonce sdk.Key, remaining time.Duration) error {
	if err := a.state.Set(ctx, nonce, []byte(a.inv.Function)); err != nil {
		return err
	}
	ledgers := sdk.LedgersFor(remaining) + 1
	return a.state.ExtendLease(ctx, nonce, ledgers, ledgers)
}

func unauthorized(addr sdk.Address, reason string) error {
	return apperrors.WithMetadata(apperrors.CodeUnauthorized,
		"authorization missing for "+addr.String()+": "+reason,
		map[string]string{"address": addr.String()})
}
