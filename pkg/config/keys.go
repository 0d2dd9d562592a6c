package config

// EnvPrefix scopes every environment variable read by Load.
const EnvPrefix = "sithee"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

// Storage backends accepted by SITHEE_STORAGE_BACKEND.
const (
	StorageBackendMemory   = "memory"
	StorageBackendFile     = "file"
	StorageBackendSQLite   = "sqlite"
	StorageBackendPostgres = "postgres"
	StorageBackendRedis    = "redis"
)

const (
	EnvDBDSN  = "SITHEE_DB_DSN"
	EnvDBHost = "SITHEE_DB_HOST"
	EnvDBUser = "SITHEE_DB_USER"
	EnvDBName = "SITHEE_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
