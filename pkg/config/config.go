package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	FeatureFlags FeatureFlagsConfig
	Session      SessionConfig
	Pricing      PricingConfig
	Checkout     CheckoutConfig
	Payments     PaymentsConfig
	Stripe       StripeConfig
	CORS         CORSConfig
	RateLimit    RateLimitConfig
	Eventing     EventingConfig
	Metrics      MetricsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	if err := cfg.Pricing.validate(); err != nil {
		return nil, err
	}
	if err := cfg.Payments.validate(cfg.Stripe); err != nil {
		return nil, err
	}
	if err := cfg.Checkout.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"STOREFRONT_APP_ENV" required:"true"`
	Port         string `envconfig:"STOREFRONT_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"STOREFRONT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"STOREFRONT_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"STOREFRONT_DB_DSN"`
	Driver string `envconfig:"STOREFRONT_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"STOREFRONT_DB_HOST"`
	Port     int    `envconfig:"STOREFRONT_DB_PORT" default:"5432"`
	User     string `envconfig:"STOREFRONT_DB_USER"`
	Password string `envconfig:"STOREFRONT_DB_PASSWORD"`
	Name     string `envconfig:"STOREFRONT_DB_NAME"`
	SSLMode  string `envconfig:"STOREFRONT_DB_SSLMODE" default:"disable"`

	SQLitePath string `envconfig:"STOREFRONT_SQLITE_PATH" default:"store.db"`

	MaxOpenConns    int           `envconfig:"STOREFRONT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"STOREFRONT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"STOREFRONT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"STOREFRONT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"STOREFRONT_REDIS_URL"`
	Address      string        `envconfig:"STOREFRONT_REDIS_ADDR"`
	Password     string        `envconfig:"STOREFRONT_REDIS_PASSWORD"`
	DB           int           `envconfig:"STOREFRONT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STOREFRONT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"STOREFRONT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"STOREFRONT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type FeatureFlagsConfig struct {
	UseSQLite    bool `envconfig:"STOREFRONT_USE_SQLITE" default:"false"`
	AutoMigrate  bool `envconfig:"STOREFRONT_AUTO_MIGRATE" default:"false"`
	SeedCatalog  bool `envconfig:"STOREFRONT_SEED_CATALOG" default:"false"`
	ReserveStock bool `envconfig:"STOREFRONT_RESERVE_STOCK" default:"true"`
}

type SessionConfig struct {
	TTL    time.Duration `envconfig:"STOREFRONT_SESSION_TTL" default:"720h"`
	Header string        `envconfig:"STOREFRONT_SESSION_HEADER" default:"X-Session-Token"`
}

// PricingConfig holds the storefront markdown and shipping policy.
type PricingConfig struct {
	DiscountFactor string `envconfig:"STOREFRONT_PRICING_DISCOUNT_FACTOR" default:"0.40"`
	ShippingFee    string `envconfig:"STOREFRONT_PRICING_SHIPPING_FEE" default:"0.00"`
	Currency       string `envconfig:"STOREFRONT_PRICING_CURRENCY" default:"usd"`
}

// Factor returns the parsed discount factor. Load has already validated it.
func (p PricingConfig) Factor() decimal.Decimal {
	d, _ := decimal.NewFromString(p.DiscountFactor)
	return d
}

// Shipping returns the parsed flat shipping fee.
func (p PricingConfig) Shipping() decimal.Decimal {
	d, _ := decimal.NewFromString(p.ShippingFee)
	return d
}

func (p PricingConfig) validate() error {
	factor, err := decimal.NewFromString(p.DiscountFactor)
	if err != nil {
		return fmt.Errorf("%s: %w", EnvPricingDiscountFactor, err)
	}
	if !factor.IsPositive() || factor.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("%s must be within (0, 1], got %s", EnvPricingDiscountFactor, p.DiscountFactor)
	}
	shipping, err := decimal.NewFromString(p.ShippingFee)
	if err != nil {
		return fmt.Errorf("%s: %w", EnvPricingShippingFee, err)
	}
	if shipping.IsNegative() {
		return fmt.Errorf("%s must not be negative", EnvPricingShippingFee)
	}
	if strings.TrimSpace(p.Currency) == "" {
		return fmt.Errorf("%s is required", EnvPricingCurrency)
	}
	return nil
}

type CheckoutConfig struct {
	OrderNumberPrefix string        `envconfig:"STOREFRONT_CHECKOUT_ORDER_PREFIX" default:"EQ"`
	LockTTL           time.Duration `envconfig:"STOREFRONT_CHECKOUT_LOCK_TTL" default:"2m"`
	LockWait          time.Duration `envconfig:"STOREFRONT_CHECKOUT_LOCK_WAIT" default:"45s"`
	LockPoll          time.Duration `envconfig:"STOREFRONT_CHECKOUT_LOCK_POLL" default:"100ms"`
	GatewayTimeout    time.Duration `envconfig:"STOREFRONT_CHECKOUT_GATEWAY_TIMEOUT" default:"30s"`
	GatewayMaxRetries uint64        `envconfig:"STOREFRONT_CHECKOUT_GATEWAY_MAX_RETRIES" default:"2"`
	GatewayBackoff    time.Duration `envconfig:"STOREFRONT_CHECKOUT_GATEWAY_BACKOFF" default:"200ms"`
	IdempotencyTTL    time.Duration `envconfig:"STOREFRONT_CHECKOUT_IDEMPOTENCY_TTL" default:"168h"`
	CommitTimeout     time.Duration `envconfig:"STOREFRONT_CHECKOUT_COMMIT_TIMEOUT" default:"15s"`
}

// GatewayBudget is the longest a charge can take: every attempt timing out plus
// the exponential backoff between attempts.
func (c CheckoutConfig) GatewayBudget() time.Duration {
	attempts := time.Duration(c.GatewayMaxRetries + 1)
	var backoff time.Duration
	step := c.GatewayBackoff
	for i := uint64(0); i < c.GatewayMaxRetries; i++ {
		backoff += step
		step *= 2
	}
	return c.GatewayTimeout*attempts + backoff
}

// The session lock is a fixed lease, so it has to outlive the charge and the
// commit that follows it or a second submit could charge the same cart.
func (c CheckoutConfig) validate() error {
	if c.GatewayTimeout <= 0 {
		return fmt.Errorf("%s must be positive", EnvCheckoutGatewayTimeout)
	}
	if c.CommitTimeout <= 0 {
		return fmt.Errorf("%s must be positive", EnvCheckoutCommitTimeout)
	}
	if c.LockWait <= 0 || c.LockPoll <= 0 {
		return fmt.Errorf("%s and %s must be positive", EnvCheckoutLockWait, EnvCheckoutLockPoll)
	}
	needed := c.GatewayBudget() + c.CommitTimeout
	if c.LockTTL <= needed {
		return fmt.Errorf("%s=%s must exceed the gateway budget plus commit timeout (%s)", EnvCheckoutLockTTL, c.LockTTL, needed)
	}
	return nil
}

type PaymentsConfig struct {
	Mode string `envconfig:"STOREFRONT_PAYMENTS_MODE" default:"stripe"`
}

// IsManual reports whether checkout records orders without charging.
func (p PaymentsConfig) IsManual() bool {
	return strings.EqualFold(strings.TrimSpace(p.Mode), PaymentsModeManual)
}

func (p PaymentsConfig) validate(stripe StripeConfig) error {
	switch strings.ToLower(strings.TrimSpace(p.Mode)) {
	case PaymentsModeManual:
		return nil
	case PaymentsModeStripe:
		if strings.TrimSpace(stripe.APIKey) == "" {
			return fmt.Errorf("%s is required when %s=%s", EnvStripeAPIKey, EnvPaymentsMode, PaymentsModeStripe)
		}
		return nil
	default:
		return fmt.Errorf("%s must be %q or %q", EnvPaymentsMode, PaymentsModeStripe, PaymentsModeManual)
	}
}

type StripeConfig struct {
	APIKey        string `envconfig:"STOREFRONT_STRIPE_API_KEY"`
	PublicKey     string `envconfig:"STOREFRONT_STRIPE_PUBLIC_KEY"`
	WebhookSecret string `envconfig:"STOREFRONT_STRIPE_WEBHOOK_SECRET"`
	Env           string `envconfig:"STOREFRONT_STRIPE_ENV" default:"test"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"STOREFRONT_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000,http://localhost:5000"`
}

// RateLimitConfig sets fixed-window limits. A zero limit disables that counter.
type RateLimitConfig struct {
	Window             time.Duration `envconfig:"STOREFRONT_RATE_LIMIT_WINDOW" default:"1m"`
	SessionIssuePerIP  int           `envconfig:"STOREFRONT_RATE_LIMIT_SESSION_PER_IP" default:"30"`
	CheckoutPerIP      int           `envconfig:"STOREFRONT_RATE_LIMIT_CHECKOUT_PER_IP" default:"30"`
	CheckoutPerSession int           `envconfig:"STOREFRONT_RATE_LIMIT_CHECKOUT_PER_SESSION" default:"10"`
}

type MetricsConfig struct {
	Enabled bool   `envconfig:"STOREFRONT_METRICS_ENABLED" default:"true"`
	Path    string `envconfig:"STOREFRONT_METRICS_PATH" default:"/metrics"`
}

type EventingConfig struct {
	WebhookIdempotencyTTL time.Duration `envconfig:"STOREFRONT_EVENTING_WEBHOOK_IDEMPOTENCY_TTL" default:"720h"`
}

func (db *DBConfig) ensureDSN(useSQLite bool) error {
	if useSQLite {
		if strings.TrimSpace(db.SQLitePath) == "" {
			return fmt.Errorf("%s is required when %s is enabled", EnvSQLitePath, EnvUseSQLite)
		}
		return nil
	}
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range discreteDBEnvVars {
		if values[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
