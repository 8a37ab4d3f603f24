// Package config loads w3oracle settings from ~/.w3oracle/config.json with
// environment overrides.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
)

const (
	configFile  = "config.json"
	walletsFile = "wallets.json"
)

// ErrUnknownKey is returned by Set and Get for a key that is not in Keys.
var ErrUnknownKey = errors.New("unknown config key")

// Load reads config from dir, applying defaults and W3ORACLE_* environment
// overrides. An empty dir means $W3ORACLE_CONFIG_DIR, then ~/.w3oracle.
func Load(dir string) (*Config, error) {
	dir, err := resolveDir(dir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("could not create config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(filepath.Join(dir, configFile))
	v.SetConfigType("json")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.configDir = dir
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func resolveDir(dir string) (string, error) {
	if dir != "" {
		return dir, nil
	}
	if env := os.Getenv(EnvConfigDir); env != "" {
		return env, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home dir: %w", err)
	}
	return filepath.Join(home, ".w3oracle"), nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyRPCURLs, []string{DefaultRPCURL})
	v.SetDefault(KeyRPCStrategy, DefaultRPCStrategy)
	v.SetDefault(KeyChainID, DefaultChainID)
	v.SetDefault(KeyDefaultWallet, "")
	v.SetDefault(KeyLogLevel, DefaultLogLevel)
	v.SetDefault(KeyLogFile, "")
	v.SetDefault(KeyCallTimeout, DefaultCallTimeout)
	v.SetDefault(KeyHandshakeTimeout, DefaultHandshakeTimeout)
	v.SetDefault(KeyReceiptTimeout, DefaultReceiptTimeout)
	v.SetDefault(KeyWaitReceipt, DefaultWaitReceipt)
	v.SetDefault(KeyGasLimit, DefaultGasLimit)
}

// Validate checks values that cannot be caught by decoding.
func (c *Config) Validate() error {
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid %s %q", KeyLogLevel, c.LogLevel)
	}
	for _, kv := range []struct {
		key string
		d   time.Duration
	}{
		{KeyCallTimeout, c.CallTimeout},
		{KeyHandshakeTimeout, c.HandshakeTimeout},
		{KeyReceiptTimeout, c.ReceiptTimeout},
	} {
		if kv.d <= 0 {
			return fmt.Errorf("invalid %s %s: must be positive", kv.key, kv.d)
		}
	}
	if !slices.Contains(RPCStrategies, c.RPCStrategy) {
		return fmt.Errorf("invalid %s %q: choose %s", KeyRPCStrategy, c.RPCStrategy, strings.Join(RPCStrategies, " or "))
	}
	if c.ChainID < 0 {
		return fmt.Errorf("invalid %s %d", KeyChainID, c.ChainID)
	}
	return nil
}

// Save writes the config to disk.
func (c *Config) Save() error {
	if err := os.MkdirAll(c.configDir, 0o700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(c.fileView(), "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(c.configDir, configFile), data, 0o600)
}

// fileView is the JSON shape of config.json; durations are written the way
// a user would type them. Run-only overrides are replaced by the values they
// shadow.
func (c *Config) fileView() map[string]any {
	view := c.view()
	for k, v := range c.saved {
		view[k] = v
	}
	return view
}

func (c *Config) view() map[string]any {
	return map[string]any{
		KeyRPCURLs:          c.RPCURLs,
		KeyRPCStrategy:      c.RPCStrategy,
		KeyChainID:          c.ChainID,
		KeyDefaultWallet:    c.DefaultWallet,
		KeyLogLevel:         c.LogLevel,
		KeyLogFile:          c.LogFile,
		KeyCallTimeout:      c.CallTimeout.String(),
		KeyHandshakeTimeout: c.HandshakeTimeout.String(),
		KeyReceiptTimeout:   c.ReceiptTimeout.String(),
		KeyWaitReceipt:      c.WaitReceipt,
		KeyGasLimit:         c.GasLimit,
	}
}

// Get returns the effective value of key formatted for display.
func (c *Config) Get(key string) (string, error) {
	v, ok := c.view()[key]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	if urls, ok := v.([]string); ok {
		return strings.Join(urls, ","), nil
	}
	return fmt.Sprint(v), nil
}

// Override sets key like Set, for this run only: Save keeps writing the
// value the key had before.
func (c *Config) Override(key, value string) error {
	prev, ok := c.view()[key]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	if _, shadowed := c.saved[key]; shadowed {
		prev = c.saved[key]
	}
	if err := c.Set(key, value); err != nil {
		return err
	}
	if c.saved == nil {
		c.saved = map[string]any{}
	}
	c.saved[key] = prev
	return nil
}

// Set parses value for key and stores it. rpc_urls takes a comma-separated
// list. The config is not saved.
func (c *Config) Set(key, value string) error {
	delete(c.saved, key)
	value = strings.TrimSpace(value)
	var err error
	switch key {
	case KeyRPCURLs:
		var urls []string
		for _, u := range strings.Split(value, ",") {
			if u = strings.TrimSpace(u); u != "" {
				urls = append(urls, u)
			}
		}
		c.RPCURLs = urls
	case KeyRPCStrategy:
		c.RPCStrategy = value
	case KeyChainID:
		c.ChainID, err = strconv.ParseInt(value, 10, 64)
	case KeyDefaultWallet:
		c.DefaultWallet = value
	case KeyLogLevel:
		_, err = zapcore.ParseLevel(value)
		if err == nil {
			c.LogLevel = value
		}
	case KeyLogFile:
		c.LogFile = value
	case KeyCallTimeout:
		c.CallTimeout, err = time.ParseDuration(value)
	case KeyHandshakeTimeout:
		c.HandshakeTimeout, err = time.ParseDuration(value)
	case KeyReceiptTimeout:
		c.ReceiptTimeout, err = time.ParseDuration(value)
	case KeyWaitReceipt:
		c.WaitReceipt, err = strconv.ParseBool(value)
	case KeyGasLimit:
		c.GasLimit, err = strconv.ParseUint(value, 10, 64)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	if err != nil {
		return fmt.Errorf("invalid value %q for %s: %w", value, key, err)
	}
	return c.Validate()
}

// AddRPC appends an RPC endpoint to the failover list.
func (c *Config) AddRPC(url string) error {
	if slices.Contains(c.RPCURLs, url) {
		return fmt.Errorf("RPC %s already configured", url)
	}
	c.RPCURLs = append(c.RPCURLs, url)
	return nil
}

// RemoveRPC removes an RPC endpoint from the failover list.
func (c *Config) RemoveRPC(url string) error {
	idx := slices.Index(c.RPCURLs, url)
	if idx == -1 {
		return fmt.Errorf("RPC %s not configured", url)
	}
	c.RPCURLs = slices.Delete(c.RPCURLs, idx, idx+1)
	return nil
}

// Dir returns the config directory.
func (c *Config) Dir() string {
	return c.configDir
}

// WalletsPath returns the path of wallets.json.
func (c *Config) WalletsPath() string {
	return filepath.Join(c.configDir, walletsFile)
}

// KeystoreDir returns the directory of the file-backed keyring.
func (c *Config) KeystoreDir() string {
	return filepath.Join(c.configDir, "keys")
}
