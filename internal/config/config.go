// Package config defines the necessary types to configure the
// application. An example config file config.yaml is provided in the
// repository.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

type Config struct {
	Application Application `yaml:"application"`
	Logger      Logger      `yaml:"logger"`

	HTTP HTTPServer `yaml:"http"`

	Database  Database  `yaml:"database"`
	ValKey    ValKey    `yaml:"valkey"`
	Directory Directory `yaml:"directory"`
	Providers Providers `yaml:"providers"`
	Usage     Usage     `yaml:"usage"`
	Connect   Connect   `yaml:"connect"`
	Migrate   Migrate   `yaml:"migrate"`
}

type Application struct {
	Name        string `yaml:"name" mapstructure:"name"`
	Environment string `yaml:"environment" mapstructure:"environment"`
	Version     string `yaml:"version" mapstructure:"version"`
}

type Logger struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

type HTTPServer struct {
	Address         string        `yaml:"address" mapstructure:"address"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout" mapstructure:"shutdownTimeout"`
}

type Database struct {
	Name     string    `yaml:"name" mapstructure:"name"`
	Port     string    `yaml:"port" mapstructure:"port"`
	Host     SourceRef `yaml:"host" mapstructure:"host"`
	User     SourceRef `yaml:"user" mapstructure:"user"`
	Password SourceRef `yaml:"password" mapstructure:"password"`
}

type ValKey struct {
	Host     SourceRef `yaml:"host" mapstructure:"host"`
	User     SourceRef `yaml:"user" mapstructure:"user"`
	Password SourceRef `yaml:"password" mapstructure:"password"`
	Prefix   string    `yaml:"prefix" mapstructure:"prefix"`
}

// Directory selects where institution searches are served from: the
// external directory collaborator over HTTP, or the self-hosted table.
type Directory struct {
	Source   string        `yaml:"source" mapstructure:"source"` // http | sql
	BaseURL  string        `yaml:"baseURL" mapstructure:"baseURL"`
	CacheTTL time.Duration `yaml:"cacheTTL" mapstructure:"cacheTTL"`
}

// Providers carries the fixed per-aggregator configuration supplied
// once at process start: application identifiers and environment,
// never per call.
type Providers struct {
	Plaid      Plaid      `yaml:"plaid" mapstructure:"plaid"`
	Teller     Teller     `yaml:"teller" mapstructure:"teller"`
	GoCardless GoCardless `yaml:"gocardless" mapstructure:"gocardless"`
}

type Plaid struct {
	Enabled      bool      `yaml:"enabled" mapstructure:"enabled"`
	ClientID     SourceRef `yaml:"clientID" mapstructure:"clientID"`
	Secret       SourceRef `yaml:"secret" mapstructure:"secret"`
	Environment  string    `yaml:"environment" mapstructure:"environment"`
	ClientName   string    `yaml:"clientName" mapstructure:"clientName"`
	LinkTokenURL string    `yaml:"linkTokenURL" mapstructure:"linkTokenURL"`
}

type Teller struct {
	Enabled       bool          `yaml:"enabled" mapstructure:"enabled"`
	ApplicationID string        `yaml:"applicationID" mapstructure:"applicationID"`
	Environment   string        `yaml:"environment" mapstructure:"environment"`
	SettleDelay   time.Duration `yaml:"settleDelay" mapstructure:"settleDelay"`
}

type GoCardless struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
}

// Usage selects where institution-usage reports go: the analytics
// collaborator over HTTP, the self-hosted popularity counter, or
// nowhere.
type Usage struct {
	Source   string `yaml:"source" mapstructure:"source"` // http | sql | off
	Endpoint string `yaml:"endpoint" mapstructure:"endpoint"`
}

type Connect struct {
	// Store selects where flow params live: memory | valkey.
	Store   string        `yaml:"store" mapstructure:"store"`
	FlowTTL time.Duration `yaml:"flowTTL" mapstructure:"flowTTL"`
}

type Migrate struct {
	Source string `yaml:"source" mapstructure:"source"`
}

// SourceRef points at a configuration value that may live inline, in
// an environment variable, or in a mounted file.
type SourceRef struct {
	Value string `yaml:"value" mapstructure:"value"`
	Env   string `yaml:"env" mapstructure:"env"`
	File  string `yaml:"file" mapstructure:"file"`
}

// Resolve loads the referenced value. Inline values win over the
// environment, the environment over files.
func (r SourceRef) Resolve() (string, error) {
	switch {
	case r.Value != "":
		return r.Value, nil
	case r.Env != "":
		value, ok := os.LookupEnv(r.Env)
		if !ok {
			return "", fmt.Errorf("environment variable %s is not set", r.Env)
		}

		return value, nil
	case r.File != "":
		data, err := os.ReadFile(r.File)
		if err != nil {
			return "", fmt.Errorf("reading value file: %w", err)
		}

		return strings.TrimSpace(string(data)), nil
	default:
		return "", nil
	}
}
