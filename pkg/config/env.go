package config

const (
	EnvPrefix = "SHOPDESK"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DriverPostgres   = "postgres"
	DriverSQLite     = "sqlite"
	DefaultSQLiteDSN = "file:shopdesk.db?cache=shared&_foreign_keys=on"

	EnvAppEnv   = "SHOPDESK_APP_ENV"
	EnvLogLevel = "SHOPDESK_LOG_LEVEL"

	EnvAPIBaseURL = "SHOPDESK_API_BASE_URL"
	EnvAPITimeout = "SHOPDESK_API_TIMEOUT"

	EnvCustomersPageSize    = "SHOPDESK_CUSTOMERS_PAGE_SIZE"
	EnvManufacturesPageSize = "SHOPDESK_MANUFACTURES_PAGE_SIZE"
	EnvSalesPageSize        = "SHOPDESK_SALES_PAGE_SIZE"
	EnvStocksPageSize       = "SHOPDESK_STOCKS_PAGE_SIZE"

	EnvDemoPort        = "SHOPDESK_DEMO_PORT"
	EnvDemoCORSOrigins = "SHOPDESK_DEMO_CORS_ORIGINS"

	EnvDBDSN    = "SHOPDESK_DB_DSN"
	EnvDBDriver = "SHOPDESK_DB_DRIVER"
	EnvDBHost   = "SHOPDESK_DB_HOST"
	EnvDBUser   = "SHOPDESK_DB_USER"
	EnvDBName   = "SHOPDESK_DB_NAME"

	EnvRedisURL = "SHOPDESK_REDIS_URL"
)

var discreteDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
