package auth

import (
	"context"

	"github.com/yourname/quittracker/internal"
	"github.com/yourname/quittracker/internal/config"
)

// Provider resolves a bearer token to a user.
type Provider interface {
	Validate(ctx context.Context, token string) (*internal.User, error)
}

// FromConfig builds the provider selected by AUTH_MODE.
func FromConfig(cfg *config.Config, logger internal.Logger) Provider {
	switch cfg.AuthMode {
	case "jwt":
		return NewJWTProvider(cfg.JWTSecret, logger)
	case "remote":
		return NewRemoteProvider(cfg.AuthServiceURL, logger)
	default:
		return NewLocalProvider(cfg.AuthToken, logger)
	}
}
