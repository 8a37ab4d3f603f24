package config

import "time"

// Config holds all w3oracle configuration.
type Config struct {
	RPCURLs          []string      `mapstructure:"rpc_urls"`
	RPCStrategy      string        `mapstructure:"rpc_strategy"`
	ChainID          int64         `mapstructure:"chain_id"` // 0 skips the check
	DefaultWallet    string        `mapstructure:"default_wallet"`
	LogLevel         string        `mapstructure:"log_level"`
	LogFile          string        `mapstructure:"log_file"`
	CallTimeout      time.Duration `mapstructure:"call_timeout"`
	HandshakeTimeout time.Duration `mapstructure:"handshake_timeout"`
	ReceiptTimeout   time.Duration `mapstructure:"receipt_timeout"`
	WaitReceipt      bool          `mapstructure:"wait_receipt"`
	GasLimit         uint64        `mapstructure:"gas_limit"`

	// internal: config dir path used for Save()
	configDir string
	// file values of keys overridden for this run only
	saved map[string]any
}

// Key names, as used in config.json, env overrides and `config set`.
const (
	KeyRPCURLs          = "rpc_urls"
	KeyRPCStrategy      = "rpc_strategy"
	KeyChainID          = "chain_id"
	KeyDefaultWallet    = "default_wallet"
	KeyLogLevel         = "log_level"
	KeyLogFile          = "log_file"
	KeyCallTimeout      = "call_timeout"
	KeyHandshakeTimeout = "handshake_timeout"
	KeyReceiptTimeout   = "receipt_timeout"
	KeyWaitReceipt      = "wait_receipt"
	KeyGasLimit         = "gas_limit"
)

// Keys lists every config key in file order.
var Keys = []string{
	KeyRPCURLs, KeyRPCStrategy, KeyChainID, KeyDefaultWallet, KeyLogLevel, KeyLogFile,
	KeyCallTimeout, KeyHandshakeTimeout, KeyReceiptTimeout, KeyWaitReceipt, KeyGasLimit,
}
