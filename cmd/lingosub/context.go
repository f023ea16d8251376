package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"lingosub/internal/api"
	"lingosub/internal/config"
)

type commandContext struct {
	apiFlag    *string
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(apiFlag, configFlag *string) *commandContext {
	return &commandContext{
		apiFlag:    apiFlag,
		configFlag: configFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, _, _, err := config.Load(c.configPath())
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) configValue() *config.Config {
	cfg, _ := c.ensureConfig()
	return cfg
}

func (c *commandContext) configPath() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

// apiAddress prefers the --api flag over the configured bind address.
func (c *commandContext) apiAddress() string {
	if c.apiFlag != nil {
		if addr := strings.TrimSpace(*c.apiFlag); addr != "" {
			return addr
		}
	}
	if cfg := c.configValue(); cfg != nil {
		return cfg.API.Bind
	}
	return ""
}

func (c *commandContext) apiClient() (*api.Client, error) {
	var token string
	if cfg := c.configValue(); cfg != nil {
		token = cfg.API.Token
	}
	client, err := api.NewClient(c.apiAddress(), api.WithToken(token))
	if err != nil {
		return nil, fmt.Errorf("daemon api: %w", err)
	}
	return client, nil
}

// withClient runs fn against the daemon, translating an unreachable API
// into an actionable message.
func (c *commandContext) withClient(fn func(*api.Client) error) error {
	client, err := c.apiClient()
	if err != nil {
		return err
	}
	if err := fn(client); err != nil {
		return wrapAPIError(err, client.BaseURL())
	}
	return nil
}

// daemonReachable reports whether the daemon answers its status endpoint.
func (c *commandContext) daemonReachable(ctx context.Context) (*api.Client, bool) {
	client, err := c.apiClient()
	if err != nil {
		return nil, false
	}
	status, err := client.Status(ctx, false)
	if err != nil || !status.Running {
		return client, false
	}
	return client, true
}

func wrapAPIError(err error, address string) error {
	if errors.Is(err, api.ErrDaemonUnavailable) {
		return fmt.Errorf("connect to daemon: %s did not answer; start the daemon with `lingosub start`", address)
	}
	return err
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
