package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Sternrassler/cms-client/pkg/auth"
	"github.com/Sternrassler/cms-client/pkg/cache"
	"github.com/Sternrassler/cms-client/pkg/client"
	"github.com/Sternrassler/cms-client/pkg/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// cli carries the per-invocation configuration shared by all commands.
type cli struct {
	v *viper.Viper
}

func newRootCommand() *cobra.Command {
	c := &cli{v: viper.New()}

	root := &cobra.Command{
		Use:   "cmsctl",
		Short: "Headless CMS command-line client",
		Long: `A command-line client for a headless CMS.

Lists and aggregates content, fetches single records, resolves asset URLs
and downloads files. Settings come from flags, CMS_* environment variables
or $HOME/.cmsctl/config.yml.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.initConfig()
		},
	}

	flags := root.PersistentFlags()
	flags.StringP("config", "c", "", "config file (default is $HOME/.cmsctl/config.yml)")
	flags.String("base-url", "", "CMS API base URL")
	flags.String("file-base-url", "", "file host base URL")
	flags.String("tenant", "", "tenant sent as X-Tenant")
	flags.String("api-key", "", "API key sent as X-API-Key")
	flags.StringP("token", "t", "", "static bearer token")
	flags.String("token-url", "", "OAuth2 token endpoint for client credentials")
	flags.String("client-id", "", "OAuth2 client ID")
	flags.String("client-secret", "", "OAuth2 client secret")
	flags.String("redis-url", "", "Redis URL for the query cache")
	flags.Duration("timeout", 30*time.Second, "request timeout")
	flags.StringP("output", "o", "table", "output format (table, json, yaml)")
	flags.String("log-level", "warn", "log level (debug, info, warn, error)")

	for _, name := range []string{
		"config", "base-url", "file-base-url", "tenant", "api-key", "token",
		"token-url", "client-id", "client-secret", "redis-url", "timeout",
		"output", "log-level",
	} {
		_ = c.v.BindPFlag(name, flags.Lookup(name))
	}

	root.AddCommand(c.newListCommand())
	root.AddCommand(c.newAllCommand())
	root.AddCommand(c.newGetCommand())
	root.AddCommand(c.newAssetCommand())
	root.AddCommand(c.newDownloadCommand())
	root.AddCommand(c.newCacheCommand())
	root.AddCommand(c.newVersionCommand())

	return root
}

func (c *cli) initConfig() error {
	c.v.SetEnvPrefix("CMS")
	c.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	c.v.AutomaticEnv()

	if cfgFile := c.v.GetString("config"); cfgFile != "" {
		c.v.SetConfigFile(cfgFile)
		if err := c.v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", cfgFile, err)
		}
	} else if home, err := os.UserHomeDir(); err == nil {
		c.v.AddConfigPath(filepath.Join(home, ".cmsctl"))
		c.v.SetConfigType("yml")
		c.v.SetConfigName("config")
		if err := c.v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return fmt.Errorf("read config: %w", err)
			}
		}
	}

	level, err := logging.ParseLevel(c.v.GetString("log-level"))
	if err != nil {
		return err
	}
	logging.Setup(logging.Config{Level: level, Output: os.Stderr})
	return nil
}

// newClient builds a client from the resolved settings. Offline commands
// still need a base URL for resolution. The returned func releases the
// client and its Redis connection.
func (c *cli) newClient() (*client.Client, func(), error) {
	baseURL := c.v.GetString("base-url")
	if strings.TrimSpace(baseURL) == "" {
		return nil, nil, errors.New("no CMS base URL: set --base-url, CMS_BASE_URL or base-url in the config file")
	}

	tokens, err := auth.FromConfig(auth.ClientCredentialsConfig{
		TokenURL:     c.v.GetString("token-url"),
		ClientID:     c.v.GetString("client-id"),
		ClientSecret: c.v.GetString("client-secret"),
	}, c.v.GetString("token"))
	if err != nil {
		return nil, nil, err
	}

	redisClient, err := cache.NewRedisClient(c.v.GetString("redis-url"))
	if err != nil {
		return nil, nil, err
	}

	cfg := client.DefaultConfig(baseURL)
	cfg.FileBaseURL = c.v.GetString("file-base-url")
	cfg.Tenant = c.v.GetString("tenant")
	cfg.APIKey = c.v.GetString("api-key")
	cfg.Auth = tokens
	cfg.Redis = redisClient
	if timeout := c.v.GetDuration("timeout"); timeout > 0 {
		cfg.Timeout = timeout
	}
	cfg.UserAgent = "cmsctl/" + version + " " + cfg.UserAgent

	closeRedis := func() {
		if redisClient != nil {
			_ = redisClient.Close()
		}
	}

	cmsClient, err := client.New(cfg)
	if err != nil {
		closeRedis()
		return nil, nil, err
	}
	return cmsClient, func() {
		_ = cmsClient.Close()
		closeRedis()
	}, nil
}

func (c *cli) output() string {
	return c.v.GetString("output")
}
