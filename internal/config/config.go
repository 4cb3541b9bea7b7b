package config

type Config interface {
	EnvConfig
}

type EnvConfig interface {
	GetBaseURL() string
	GetAppName() string
	GetHTTPTimeout() string
	GetStateFile() string
	GetCaptchaToken() string
	GetEnv() string
}

type mainConfig struct {
	EnvVars
}

func New() Config {
	return mainConfig{}
}
