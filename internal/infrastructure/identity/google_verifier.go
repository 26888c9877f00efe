// Package identity verifies credentials issued by external sign-in providers.
package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/MicahParks/jwkset"
	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"

	appuser "github.com/lllypuk/rollcall/internal/application/user"
)

// ID token validation errors.
var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrTokenExpired     = errors.New("token expired")
	ErrInvalidIssuer    = errors.New("invalid issuer")
	ErrInvalidAudience  = errors.New("invalid audience")
	ErrEmailNotVerified = errors.New("email not verified")
	ErrMissingClaim     = errors.New("missing claim")
	ErrJWKSFetchFailed  = errors.New("failed to fetch JWKS")
)

// Defaults for Google-issued ID tokens.
const (
	DefaultGoogleJWKSURL   = "https://www.googleapis.com/oauth2/v3/certs"
	DefaultLeeway          = 30 * time.Second
	DefaultRefreshInterval = 1 * time.Hour
)

// DefaultGoogleIssuers lists both issuer spellings Google uses.
func DefaultGoogleIssuers() []string {
	return []string{"accounts.google.com", "https://accounts.google.com"}
}

// GoogleVerifierConfig contains configuration for GoogleVerifier.
type GoogleVerifierConfig struct {
	JWKSURL         string
	Issuers         []string
	ClientIDs       []string      // accepted audiences, one per client platform
	Leeway          time.Duration // clock skew tolerance
	RefreshInterval time.Duration // JWKS refresh interval
	Logger          *slog.Logger
}

// GoogleVerifier validates Google ID tokens offline against a cached JWKS.
type GoogleVerifier struct {
	jwks   keyfunc.Keyfunc
	config GoogleVerifierConfig
	logger *slog.Logger
	cancel context.CancelFunc
}

var _ appuser.IdentityVerifier = (*GoogleVerifier)(nil)

// NewGoogleVerifier fetches the key set and starts its background refresh.
func NewGoogleVerifier(config GoogleVerifierConfig) (*GoogleVerifier, error) {
	if len(config.ClientIDs) == 0 {
		return nil, fmt.Errorf("%w: at least one client ID is required", ErrInvalidAudience)
	}
	if config.JWKSURL == "" {
		config.JWKSURL = DefaultGoogleJWKSURL
	}
	if len(config.Issuers) == 0 {
		config.Issuers = DefaultGoogleIssuers()
	}
	if config.Leeway == 0 {
		config.Leeway = DefaultLeeway
	}
	if config.RefreshInterval == 0 {
		config.RefreshInterval = DefaultRefreshInterval
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("initializing Google ID token verifier",
		slog.String("jwks_url", config.JWKSURL),
		slog.Int("client_ids", len(config.ClientIDs)),
		slog.Duration("refresh_interval", config.RefreshInterval),
	)

	ctx, cancel := context.WithCancel(context.Background())

	storage, err := jwkset.NewStorageFromHTTP(config.JWKSURL, jwkset.HTTPClientStorageOptions{
		Ctx:             ctx,
		RefreshInterval: config.RefreshInterval,
		RefreshErrorHandler: func(_ context.Context, err error) {
			logger.Error("failed to refresh JWKS", slog.Any("error", err))
		},
	})
	if err != nil {
		cancel()
		return nil, fmt.Errorf("%w: %w", ErrJWKSFetchFailed, err)
	}

	jwks, err := keyfunc.New(keyfunc.Options{
		Ctx:     ctx,
		Storage: storage,
	})
	if err != nil {
		cancel()
		return nil, fmt.Errorf("%w: %w", ErrJWKSFetchFailed, err)
	}

	return &GoogleVerifier{
		jwks:   jwks,
		config: config,
		logger: logger,
		cancel: cancel,
	}, nil
}

// Verify checks signature, expiry, issuer, audience and email verification.
func (v *GoogleVerifier) Verify(_ context.Context, idToken string) (appuser.Identity, error) {
	if idToken == "" {
		return appuser.Identity{}, ErrInvalidToken
	}

	token, err := jwt.Parse(idToken, v.jwks.Keyfunc,
		jwt.WithLeeway(v.config.Leeway),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return appuser.Identity{}, fmt.Errorf("%w: %w", ErrTokenExpired, err)
		}
		return appuser.Identity{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !token.Valid {
		return appuser.Identity{}, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return appuser.Identity{}, ErrInvalidToken
	}

	return v.identityFromClaims(claims)
}

func (v *GoogleVerifier) identityFromClaims(claims jwt.MapClaims) (appuser.Identity, error) {
	issuer, _ := claims.GetIssuer()
	if !slices.Contains(v.config.Issuers, issuer) {
		return appuser.Identity{}, fmt.Errorf("%w: %q", ErrInvalidIssuer, issuer)
	}

	audiences, _ := claims.GetAudience()
	if !slices.ContainsFunc(audiences, func(aud string) bool {
		return slices.Contains(v.config.ClientIDs, aud)
	}) {
		return appuser.Identity{}, ErrInvalidAudience
	}

	subject, _ := claims.GetSubject()
	if subject == "" {
		return appuser.Identity{}, fmt.Errorf("%w: sub", ErrMissingClaim)
	}

	email, _ := claims["email"].(string)
	if email == "" {
		return appuser.Identity{}, fmt.Errorf("%w: email", ErrMissingClaim)
	}

	// email_verified is a bool, or the string "true" in older tokens
	verified := false
	switch ev := claims["email_verified"].(type) {
	case bool:
		verified = ev
	case string:
		verified = ev == "true"
	}
	if !verified {
		return appuser.Identity{}, ErrEmailNotVerified
	}

	return appuser.Identity{Subject: subject, Email: email}, nil
}

// Close stops background JWKS refresh.
func (v *GoogleVerifier) Close() error {
	v.logger.Info("closing Google ID token verifier")
	if v.cancel != nil {
		v.cancel()
	}
	return nil
}
