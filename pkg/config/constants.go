package config

const (
	EnvPrefix = "KARIBU"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"

	EnvDBDSN  = "KARIBU_DB_DSN"
	EnvDBHost = "KARIBU_DB_HOST"
	EnvDBUser = "KARIBU_DB_USER"
	EnvDBName = "KARIBU_DB_NAME"
)

var requiredDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
