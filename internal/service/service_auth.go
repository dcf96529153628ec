package service

import (
	"context"

	"github.com/staylio/villa-onboard/internal/config"
	"github.com/staylio/villa-onboard/internal/logger"
	"github.com/staylio/villa-onboard/internal/utils"
	"github.com/staylio/villa-onboard/models"
)

// authService is the concrete implementation of [AuthService]. The
// onboarding server never issues tokens; it only verifies the signature and
// issuer of tokens minted by the identity service.
type authService struct {
	// tokenSignKey is the HMAC secret used to verify JWT signatures.
	tokenSignKey string

	// tokenIssuer is the "iss" claim expected on every presented token.
	tokenIssuer string

	logger *logger.Logger
}

// NewAuthService constructs an [AuthService] with the verification
// parameters from cfg. The returned service is safe for concurrent use; all
// state is read-only after construction.
func NewAuthService(cfg config.Auth, logger *logger.Logger) AuthService {
	return &authService{
		tokenSignKey: cfg.TokenSignKey,
		tokenIssuer:  cfg.TokenIssuer,
		logger:       logger,
	}
}

// ParseToken validates and parses a raw JWT string.
//
// It delegates to [utils.ValidateAndParseJWTToken], verifying the signature
// and the issuer claim. Any validation failure (expired, wrong issuer,
// malformed, missing subject) is normalised to [ErrTokenIsExpiredOrInvalid]
// so that callers do not need to inspect low-level JWT errors.
func (a *authService) ParseToken(ctx context.Context, tokenString string) (models.Token, error) {
	log := logger.FromContext(ctx)

	token, err := utils.ValidateAndParseJWTToken(tokenString, a.tokenSignKey, a.tokenIssuer)
	if err != nil {
		log.Warn().Err(err).Msg("presented token failed validation")
		return models.Token{}, ErrTokenIsExpiredOrInvalid
	}

	return token, nil
}
