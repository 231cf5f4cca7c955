package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"time"

	"simple-ledger-go/hashing"
	"simple-ledger-go/keys"
	"simple-ledger-go/pow"

	"github.com/spf13/viper"
)

const (
	CONFIG_NAME = "ledger"
	ENV_PREFIX  = "LEDGER"
	HOME_DIR    = "$HOME/.ledger"
)

const (
	KEY_HOST               = "host"
	KEY_HTTP_PORT          = "http_port"
	KEY_P2P_PORT           = "p2p_port"
	KEY_P2P_PORT_OFFSET    = "p2p_port_offset"
	KEY_DIFFICULTY         = "difficulty"
	KEY_HASH_ALGORITHM     = "hash_algorithm"
	KEY_MINING_REWARD      = "mining_reward"
	KEY_PEERS              = "peers"
	KEY_AUTO_MINE_INTERVAL = "auto_mine_interval"
	KEY_LOG_LEVEL          = "log_level"
	KEY_NODE_ID            = "node_id"
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	Host             string        `mapstructure:"host"`
	HTTPPort         int           `mapstructure:"http_port"`
	P2PPort          int           `mapstructure:"p2p_port"`
	P2PPortOffset    int           `mapstructure:"p2p_port_offset"`
	Difficulty       int           `mapstructure:"difficulty"`
	HashAlgorithm    string        `mapstructure:"hash_algorithm"`
	MiningReward     float64       `mapstructure:"mining_reward"`
	Peers            []string      `mapstructure:"peers"`
	AutoMineInterval time.Duration `mapstructure:"auto_mine_interval"`
	LogLevel         string        `mapstructure:"log_level"`
	NodeID           string        `mapstructure:"node_id"`
}

func SetDefaults(v *viper.Viper) {
	v.SetDefault(KEY_HOST, "127.0.0.1")
	v.SetDefault(KEY_HTTP_PORT, 5000)
	// 0 means http_port + p2p_port_offset
	v.SetDefault(KEY_P2P_PORT, 0)
	v.SetDefault(KEY_P2P_PORT_OFFSET, 1000)
	v.SetDefault(KEY_DIFFICULTY, pow.DEFAULT_DIFFICULTY)
	v.SetDefault(KEY_HASH_ALGORITHM, string(hashing.DEFAULT_ALGORITHM))
	v.SetDefault(KEY_MINING_REWARD, 1.0)
	v.SetDefault(KEY_PEERS, []string{})
	v.SetDefault(KEY_AUTO_MINE_INTERVAL, time.Duration(0))
	v.SetDefault(KEY_LOG_LEVEL, "info")
	v.SetDefault(KEY_NODE_ID, "")
}

// NewViper layers defaults, an optional config file and LEDGER_* environment
// variables. An explicit file must exist; the default locations may not.
func NewViper(configFile string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(ENV_PREFIX)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(CONFIG_NAME)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(HOME_DIR)
	}

	err := v.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	switch {
	case err == nil:
		slog.Debug("using config file", "path", v.ConfigFileUsed())
	case errors.As(err, &notFound) && configFile == "":
	default:
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return v, nil
}

// Load unmarshals v, fills derived values and validates the result.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if cfg.P2PPort == 0 {
		cfg.P2PPort = cfg.HTTPPort + cfg.P2PPortOffset
	}
	if cfg.NodeID == "" {
		id, err := keys.NewNodeId()
		if err != nil {
			return nil, err
		}
		cfg.NodeID = id
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func validPort(p int) bool {
	return p > 0 && p <= 65535
}

func (c *Config) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("%w: empty host", ErrInvalidConfig)
	}
	if !validPort(c.HTTPPort) {
		return fmt.Errorf("%w: http_port %d", ErrInvalidConfig, c.HTTPPort)
	}
	if !validPort(c.P2PPort) {
		return fmt.Errorf("%w: p2p_port %d", ErrInvalidConfig, c.P2PPort)
	}
	if c.P2PPort == c.HTTPPort {
		return fmt.Errorf("%w: http_port and p2p_port are both %d", ErrInvalidConfig, c.P2PPort)
	}
	if c.Difficulty < 0 || c.Difficulty > pow.MAX_DIFFICULTY {
		return fmt.Errorf("%w: difficulty %d", ErrInvalidConfig, c.Difficulty)
	}
	if _, err := hashing.Parse(c.HashAlgorithm); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.MiningReward < 0 {
		return fmt.Errorf("%w: mining_reward %v", ErrInvalidConfig, c.MiningReward)
	}
	if c.AutoMineInterval < 0 {
		return fmt.Errorf("%w: auto_mine_interval %v", ErrInvalidConfig, c.AutoMineInterval)
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

func (c *Config) Algorithm() hashing.Algorithm {
	algo, _ := hashing.Parse(c.HashAlgorithm)
	return algo
}

func (c *Config) HTTPAddress() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.HTTPPort))
}

func (c *Config) P2PAddress() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.P2PPort))
}

func ParseLogLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("%w: log_level %q", ErrInvalidConfig, s)
	}
	return level, nil
}
