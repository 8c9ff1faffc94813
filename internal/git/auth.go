package git

import (
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"

	"git.home.luguber.info/inful/presencewatch/internal/config"
)

// authMethod returns the go-git auth for cfg; nil means anonymous access.
func authMethod(cfg *config.AuthConfig) transport.AuthMethod {
	if cfg == nil {
		return nil
	}
	switch cfg.Type {
	case config.AuthTypeToken:
		user := cfg.Username
		if user == "" {
			user = "token"
		}
		return &http.BasicAuth{Username: user, Password: cfg.Token}
	case config.AuthTypeBasic:
		return &http.BasicAuth{Username: cfg.Username, Password: cfg.Password}
	default:
		return nil
	}
}
