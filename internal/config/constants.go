package config

import "time"

// Defaults applied before the config file and environment are read.
const (
	DefaultRPCURL           = "http://127.0.0.1:8545"
	DefaultRPCStrategy      = "failover"
	DefaultChainID          = int64(31337)
	DefaultLogLevel         = "warn"
	DefaultCallTimeout      = 15 * time.Second
	DefaultHandshakeTimeout = 30 * time.Second
	DefaultReceiptTimeout   = 3 * time.Minute
	DefaultWaitReceipt      = true
	DefaultGasLimit         = uint64(300_000) // fallback when the node cannot estimate
)

// EnvPrefix prefixes every environment override, e.g. W3ORACLE_CHAIN_ID.
const EnvPrefix = "W3ORACLE"

// EnvConfigDir overrides the config directory.
const EnvConfigDir = "W3ORACLE_CONFIG_DIR"

// RPCStrategies are the accepted rpc_strategy values.
var RPCStrategies = []string{"failover", "fastest"}

// EnvKeyringPassword, when set, switches key storage to an encrypted file
// keyring under KeystoreDir unlocked with this password.
const EnvKeyringPassword = "W3ORACLE_KEYRING_PASSWORD"
