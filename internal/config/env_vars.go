package config

import (
	"os"
	"path/filepath"
)

const (
	baseURLVar      = "BASE_URL"
	appNameVar      = "APP_NAME"
	httpTimeoutVar  = "HTTP_TIMEOUT"
	stateFileVar    = "STATE_FILE"
	captchaTokenVar = "CAPTCHA_TOKEN"
)

type EnvVars struct{}

var _ EnvConfig = EnvVars{}

func (EnvVars) GetBaseURL() string {
	return GetEnv(baseURLVar, "https://test.myfamilydoc.it")
}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameVar, "MyFamilyDoc Console")
}

// GetHTTPTimeout returns the outbound request timeout as a duration string.
func (EnvVars) GetHTTPTimeout() string {
	return GetEnv(httpTimeoutVar, "30s")
}

// GetStateFile returns where tokens and local preferences are persisted.
func (EnvVars) GetStateFile() string {
	if path := os.Getenv(stateFileVar); path != "" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "console-state.json"
	}
	return filepath.Join(home, ".config", "myfamilydoc", "state.json")
}

// GetCaptchaToken returns the captcha token the backend requires on OTP
// verification.
func (EnvVars) GetCaptchaToken() string {
	return GetEnv(captchaTokenVar, "")
}

func (EnvVars) GetEnv() string {
	env := os.Getenv("ENV")
	if env == "" {
		return "DEV"
	}
	return env
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}
