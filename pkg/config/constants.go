package config

const (
	EnvPrefix = "FUNNELMAIL"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)
