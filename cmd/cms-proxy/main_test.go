package main

import (
	"os"
	"testing"

	"github.com/Sternrassler/cms-client/pkg/auth"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("CMS_BASE_URL", "https://cms.example.com/api")
	t.Setenv("CMS_TENANT", "acme")
	t.Setenv("CMS_SCOPES", "content.read,files.read")
	t.Setenv("REQUEST_TIMEOUT", "5s")

	var cfg Config
	require.NoError(t, cleanenv.ReadEnv(&cfg))

	assert.Equal(t, "https://cms.example.com/api", cfg.CMS.BaseURL)
	assert.Equal(t, "acme", cfg.CMS.Tenant)
	assert.Equal(t, []string{"content.read", "files.read"}, cfg.Auth.Scopes)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "5s", cfg.RequestTimeout.String())
}

func TestConfigRequiresBaseURL(t *testing.T) {
	// t.Setenv restores the previous value; an unset variable is what
	// env-required rejects.
	t.Setenv("CMS_BASE_URL", "")
	require.NoError(t, os.Unsetenv("CMS_BASE_URL"))

	var cfg Config
	assert.Error(t, cleanenv.ReadEnv(&cfg))
}

func TestNewClient_ClientCredentials(t *testing.T) {
	_, err := newClient(Config{
		CMS:  CMSConfig{BaseURL: "https://cms.example.com/api"},
		Auth: AuthConfig{TokenURL: "https://id.example.com/token"},
	}, nil)
	assert.Error(t, err)

	c, err := newClient(Config{
		CMS:  CMSConfig{BaseURL: "https://cms.example.com/api"},
		Auth: AuthConfig{TokenURL: "https://id.example.com/token", ClientID: "proxy"},
	}, nil)
	require.NoError(t, err)
	defer c.Close()
	assert.IsType(t, &auth.ClientCredentials{}, c.Config().Auth)
}

func TestNewClient_AppliesConfig(t *testing.T) {
	c, err := newClient(Config{CMS: CMSConfig{
		BaseURL:   "https://cms.example.com/api/",
		Tenant:    "acme",
		UserAgent: "proxy/1.0",
	}}, nil)
	require.NoError(t, err)
	defer c.Close()

	assert.Equal(t, "https://cms.example.com/api", c.Config().BaseURL)
	assert.Equal(t, "acme", c.Config().Tenant)
	assert.Equal(t, "proxy/1.0", c.Config().UserAgent)
	assert.Nil(t, c.GetCache())
}

func TestNewClient_RejectsPlaceholder(t *testing.T) {
	_, err := newClient(Config{CMS: CMSConfig{BaseURL: "${CMS_BASE_URL}"}}, nil)
	assert.Error(t, err)
}
