package auth

import (
	"context"
	"errors"

	"github.com/yourname/quittracker/internal"
)

// LocalProvider accepts a single fixed token; development only.
type LocalProvider struct {
	token  string
	logger internal.Logger
}

func NewLocalProvider(token string, logger internal.Logger) *LocalProvider {
	return &LocalProvider{token: token, logger: logger}
}

func (a *LocalProvider) Validate(ctx context.Context, token string) (*internal.User, error) {
	if token == a.token {
		return &internal.User{ID: "u1", Token: a.token, Name: "Demo User"}, nil
	}
	a.logger.Warnf("invalid token: %s", token)
	return nil, errors.New("invalid token")
}
