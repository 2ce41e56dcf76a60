package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_parseEnv(t *testing.T) {
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("ACCESS_TOKEN_TTL", "90s")
	t.Setenv("OAUTH_AUTO_VERIFY", "false")
	t.Setenv("GOOGLE_CLIENT_SECRET", "shh")

	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)

	assert.Equal(t, "from-env", cfg.AccessSecret)
	assert.Equal(t, 90*time.Second, cfg.AccessTokenValidityDuration)
	assert.False(t, cfg.OAuthAutoVerify)
	assert.Equal(t, "shh", cfg.GoogleClientSecret)
	assert.Equal(t, "refreshSecret", cfg.RefreshSecret, "unset variables keep defaults")
}

func Test_parseEnv_Malformed(t *testing.T) {
	t.Setenv("BCRYPT_COST", "ten")

	require.Panics(t, func() { parseEnv(&Config{}) })
}
