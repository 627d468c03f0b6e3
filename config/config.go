package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	DefaultRpcUrl = "https://bsc-dataseed.binance.org/"

	DefaultServerPort     = 8000
	DefaultChainId        = 56
	DefaultGasLimit       = 200_000
	DefaultGasPriceGwei   = 5
	DefaultTokenDecimals  = 18
	DefaultRpcTimeoutSecs = 30
)

type Config struct {
	RpcUrl       string `toml:"rpc_url"`
	PrivateKey   string `toml:"private_key"`
	TokenAddress string `toml:"token_address"`

	ServerPort     int    `toml:"server_port"`
	ChainId        int64  `toml:"chain_id"`
	GasLimit       uint64 `toml:"gas_limit"`
	GasPriceGwei   int64  `toml:"gas_price_gwei"`
	TokenDecimals  int    `toml:"token_decimals"`
	RpcTimeoutSecs int    `toml:"rpc_timeout_secs"`

	WinnerAmount float64 `toml:"winner_amount"`
	DrawAmount   float64 `toml:"draw_amount"`
}

// Load reads an optional toml file and overlays environment variables on top
// of it. The credential and the token contract address have no defaults; Load
// fails when they are missing so that the process does not start half-wired.
func Load(path string) (Config, error) {
	cfg := Config{
		RpcUrl:         DefaultRpcUrl,
		ServerPort:     DefaultServerPort,
		ChainId:        DefaultChainId,
		GasLimit:       DefaultGasLimit,
		GasPriceGwei:   DefaultGasPriceGwei,
		TokenDecimals:  DefaultTokenDecimals,
		RpcTimeoutSecs: DefaultRpcTimeoutSecs,
		WinnerAmount:   4,
		DrawAmount:     2,
	}

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("cannot decode config file %s: %w", path, err)
		}
	}

	if v := os.Getenv("RPC_URL"); v != "" {
		cfg.RpcUrl = v
	}
	if v := os.Getenv("PRIVATE_KEY"); v != "" {
		cfg.PrivateKey = v
	}
	if v := os.Getenv("TOKEN_ADDRESS"); v != "" {
		cfg.TokenAddress = v
	}
	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid PORT value %s", v)
		}
		cfg.ServerPort = port
	}

	if cfg.PrivateKey == "" || cfg.TokenAddress == "" {
		return cfg, fmt.Errorf("PRIVATE_KEY and TOKEN_ADDRESS must be set")
	}

	return cfg, nil
}

func (c Config) RpcTimeout() time.Duration {
	return time.Duration(c.RpcTimeoutSecs) * time.Second
}
