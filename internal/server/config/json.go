package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/aquatrack/internal/flagx"
	"github.com/dmitrijs2005/aquatrack/internal/timex"
)

// JsonConfig is the on-disk shape of the optional JSON config file. Durations
// use timex.Duration so both "20m" and integer nanoseconds are accepted.
// Booleans are pointers so an absent key keeps the current value.
type JsonConfig struct {
	EndpointAddrHTTP             string         `json:"endpoint_addr_http"`
	DatabaseDSN                  string         `json:"database_dsn"`
	AccessSecret                 string         `json:"access_secret"`
	RefreshSecret                string         `json:"refresh_secret"`
	ResetSecret                  string         `json:"reset_secret"`
	AccessTokenValidityDuration  timex.Duration `json:"access_token_validity_duration"`
	RefreshTokenValidityDuration timex.Duration `json:"refresh_token_validity_duration"`
	ResetTokenValidityDuration   timex.Duration `json:"reset_token_validity_duration"`
	BcryptCost                   int            `json:"bcrypt_cost"`
	BaseURI                      string         `json:"base_uri"`
	FrontendURL                  string         `json:"frontend_url"`
	CookieSecure                 *bool          `json:"cookie_secure"`
	OAuthAutoVerify              *bool          `json:"oauth_auto_verify"`
	GoogleClientID               string         `json:"google_client_id"`
	GoogleClientSecret           string         `json:"google_client_secret"`
	GoogleRedirectURI            string         `json:"google_redirect_uri"`
	ProviderTimeout              timex.Duration `json:"provider_timeout"`
	SMTPHost                     string         `json:"smtp_host"`
	SMTPPort                     string         `json:"smtp_port"`
	SMTPUser                     string         `json:"smtp_user"`
	SMTPPassword                 string         `json:"smtp_password"`
	SMTPTimeout                  timex.Duration `json:"smtp_timeout"`
	MailFrom                     string         `json:"mail_from"`
	RedisAddr                    string         `json:"redis_addr"`
	CacheTTL                     timex.Duration `json:"cache_ttl"`
	S3RootUser                   string         `json:"s3_root_user"`
	S3RootPassword               string         `json:"s3_root_password"`
	S3Bucket                     string         `json:"s3_bucket"`
	S3Region                     string         `json:"s3_region"`
	S3BaseEndpoint               string         `json:"s3_base_endpoint"`
	S3PublicURL                  string         `json:"s3_public_url"`
	OTLPEndpoint                 string         `json:"otlp_endpoint"`
	MetricsPath                  string         `json:"metrics_path"`
	LogBackend                   string         `json:"log_backend"`
	LogLevel                     string         `json:"log_level"`
	Env                          string         `json:"env"`
}

// parseJson loads the file named by -c/-config, if any, and copies every
// non-empty value into config. Unreadable files or invalid JSON panic.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	c.applyTo(config)
}

func (c *JsonConfig) applyTo(config *Config) {
	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.AccessSecret, c.AccessSecret)
	setString(&config.RefreshSecret, c.RefreshSecret)
	setString(&config.ResetSecret, c.ResetSecret)
	setDuration(&config.AccessTokenValidityDuration, c.AccessTokenValidityDuration)
	setDuration(&config.RefreshTokenValidityDuration, c.RefreshTokenValidityDuration)
	setDuration(&config.ResetTokenValidityDuration, c.ResetTokenValidityDuration)
	if c.BcryptCost != 0 {
		config.BcryptCost = c.BcryptCost
	}
	setString(&config.BaseURI, c.BaseURI)
	setString(&config.FrontendURL, c.FrontendURL)
	if c.CookieSecure != nil {
		config.CookieSecure = *c.CookieSecure
	}
	if c.OAuthAutoVerify != nil {
		config.OAuthAutoVerify = *c.OAuthAutoVerify
	}
	setString(&config.GoogleClientID, c.GoogleClientID)
	setString(&config.GoogleClientSecret, c.GoogleClientSecret)
	setString(&config.GoogleRedirectURI, c.GoogleRedirectURI)
	setDuration(&config.ProviderTimeout, c.ProviderTimeout)
	setString(&config.SMTPHost, c.SMTPHost)
	setString(&config.SMTPPort, c.SMTPPort)
	setString(&config.SMTPUser, c.SMTPUser)
	setString(&config.SMTPPassword, c.SMTPPassword)
	setDuration(&config.SMTPTimeout, c.SMTPTimeout)
	setString(&config.MailFrom, c.MailFrom)
	setString(&config.RedisAddr, c.RedisAddr)
	setDuration(&config.CacheTTL, c.CacheTTL)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.S3PublicURL, c.S3PublicURL)
	setString(&config.OTLPEndpoint, c.OTLPEndpoint)
	setString(&config.MetricsPath, c.MetricsPath)
	setString(&config.LogBackend, c.LogBackend)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.Env, c.Env)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v timex.Duration) {
	if v.Duration != 0 {
		*dst = v.Duration
	}
}
