package stripe

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v84"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

const (
	testEnv = "test"
	liveEnv = "live"
)

var errAPIKeyRequired = errors.New("stripe api key is required")

// keyPrefixes lists the accepted secret and publishable key prefixes per env.
var keyPrefixes = map[string]struct {
	secret      []string
	publishable string
}{
	testEnv: {secret: []string{"sk_test_", "rk_test_"}, publishable: "pk_test_"},
	liveEnv: {secret: []string{"sk_live_", "rk_live_"}, publishable: "pk_live_"},
}

// Client holds the storefront's Stripe credentials. Charges go through the
// package-level API, which NewClient keys once at startup.
type Client struct {
	environment    string
	publishableKey string
	signingSecret  string
}

// NewClient checks that every configured key belongs to the configured env, so a
// test publishable key never fronts a live secret key.
func NewClient(ctx context.Context, cfg config.StripeConfig, logg *logger.Logger) (*Client, error) {
	env := cfg.Environment()
	prefixes, ok := keyPrefixes[env]
	if !ok {
		return nil, fmt.Errorf("stripe environment must be %q or %q, got %q", testEnv, liveEnv, env)
	}

	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errAPIKeyRequired
	}
	if !hasAnyPrefix(apiKey, prefixes.secret...) {
		return nil, fmt.Errorf("stripe %s environment requires a %s secret key", env, strings.Join(prefixes.secret, "/"))
	}

	publishable := strings.TrimSpace(cfg.PublicKey)
	if publishable != "" && !strings.HasPrefix(publishable, prefixes.publishable) {
		return nil, fmt.Errorf("stripe %s environment requires a %s publishable key", env, prefixes.publishable)
	}

	stripe.Key = apiKey

	c := &Client{
		environment:    env,
		publishableKey: publishable,
		signingSecret:  strings.TrimSpace(cfg.WebhookSecret),
	}
	if logg != nil {
		logg.Info(logg.WithFields(ctx, map[string]any{
			"stripe_env":       env,
			"webhooks_enabled": c.WebhooksEnabled(),
		}), "stripe.client_ready")
	}
	return c, nil
}

func (c *Client) Environment() string {
	if c == nil {
		return ""
	}
	return c.environment
}

// PublishableKey is handed to the checkout page to tokenize cards.
func (c *Client) PublishableKey() string {
	if c == nil {
		return ""
	}
	return c.publishableKey
}

// WebhooksEnabled reports whether a signing secret was configured.
func (c *Client) WebhooksEnabled() bool {
	return c.SigningSecret() != ""
}

func (c *Client) SigningSecret() string {
	if c == nil {
		return ""
	}
	return c.signingSecret
}

func hasAnyPrefix(value string, prefixes ...string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(value, p) {
			return true
		}
	}
	return false
}
