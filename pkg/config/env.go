package config

const EnvPrefix = "STOREFRONT"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	PaymentsModeStripe = "stripe"
	PaymentsModeManual = "manual"
)

const (
	EnvAppEnv = "STOREFRONT_APP_ENV"
	EnvPort   = "STOREFRONT_APP_PORT"

	EnvDBDSN  = "STOREFRONT_DB_DSN"
	EnvDBHost = "STOREFRONT_DB_HOST"
	EnvDBUser = "STOREFRONT_DB_USER"
	EnvDBName = "STOREFRONT_DB_NAME"

	EnvUseSQLite  = "STOREFRONT_USE_SQLITE"
	EnvSQLitePath = "STOREFRONT_SQLITE_PATH"

	EnvRedisURL = "STOREFRONT_REDIS_URL"

	EnvPricingDiscountFactor = "STOREFRONT_PRICING_DISCOUNT_FACTOR"
	EnvPricingShippingFee    = "STOREFRONT_PRICING_SHIPPING_FEE"
	EnvPricingCurrency       = "STOREFRONT_PRICING_CURRENCY"

	EnvCheckoutLockTTL        = "STOREFRONT_CHECKOUT_LOCK_TTL"
	EnvCheckoutLockWait       = "STOREFRONT_CHECKOUT_LOCK_WAIT"
	EnvCheckoutLockPoll       = "STOREFRONT_CHECKOUT_LOCK_POLL"
	EnvCheckoutGatewayTimeout = "STOREFRONT_CHECKOUT_GATEWAY_TIMEOUT"
	EnvCheckoutCommitTimeout  = "STOREFRONT_CHECKOUT_COMMIT_TIMEOUT"

	EnvPaymentsMode = "STOREFRONT_PAYMENTS_MODE"
	EnvStripeAPIKey = "STOREFRONT_STRIPE_API_KEY"
)

var discreteDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
