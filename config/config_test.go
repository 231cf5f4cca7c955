package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"simple-ledger-go/hashing"

	"github.com/spf13/viper"
)

func TestDefaults(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	cfg, err := Load(v)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.HTTPAddress() != "127.0.0.1:5000" {
		t.Errorf("HTTPAddress() = %s", cfg.HTTPAddress())
	}
	if cfg.P2PAddress() != "127.0.0.1:6000" {
		t.Errorf("P2PAddress() = %s", cfg.P2PAddress())
	}
	if cfg.Difficulty != 4 || cfg.MiningReward != 1 || cfg.Algorithm() != hashing.SHA256 {
		t.Errorf("consensus defaults = %+v", cfg)
	}
	if cfg.AutoMineInterval != 0 || len(cfg.Peers) != 0 {
		t.Errorf("node defaults = %+v", cfg)
	}
	if cfg.NodeID == "" {
		t.Error("node id was not generated")
	}
}

func TestP2PPortFollowsHTTPPort(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set(KEY_HTTP_PORT, 5001)
	cfg, err := Load(v)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.P2PPort != 6001 {
		t.Errorf("P2PPort = %d, want 6001", cfg.P2PPort)
	}

	v.Set(KEY_P2P_PORT, 7100)
	cfg, err = Load(v)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.P2PPort != 7100 {
		t.Errorf("explicit P2PPort = %d, want 7100", cfg.P2PPort)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		key   string
		value interface{}
	}{
		{KEY_HTTP_PORT, 0},
		{KEY_HTTP_PORT, 70000},
		{KEY_P2P_PORT, 5000},
		{KEY_DIFFICULTY, -1},
		{KEY_DIFFICULTY, 65},
		{KEY_HASH_ALGORITHM, "md5"},
		{KEY_MINING_REWARD, -1},
		{KEY_LOG_LEVEL, "loud"},
		{KEY_HOST, ""},
	}
	for _, tt := range tests {
		v := viper.New()
		SetDefaults(v)
		v.Set(tt.key, tt.value)
		if _, err := Load(v); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("%s = %v: Load() error = %v, want ErrInvalidConfig", tt.key, tt.value, err)
		}
	}
}

func TestNewViperReadsFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.yaml")
	content := []byte(`
http_port: 5100
difficulty: 2
hash_algorithm: blake3
peers:
  - 127.0.0.1:5101
auto_mine_interval: 30s
node_id: fixed
`)
	if err := os.WriteFile(path, content, 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("LEDGER_LOG_LEVEL", "debug")

	v, err := NewViper(path)
	if err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(v)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.HTTPPort != 5100 || cfg.P2PPort != 6100 || cfg.Difficulty != 2 {
		t.Errorf("ports/difficulty = %+v", cfg)
	}
	if cfg.Algorithm() != hashing.BLAKE3 || cfg.NodeID != "fixed" {
		t.Errorf("algorithm/node id = %+v", cfg)
	}
	if len(cfg.Peers) != 1 || cfg.Peers[0] != "127.0.0.1:5101" {
		t.Errorf("Peers = %v", cfg.Peers)
	}
	if cfg.AutoMineInterval != 30*time.Second {
		t.Errorf("AutoMineInterval = %v", cfg.AutoMineInterval)
	}
	if level, _ := ParseLogLevel(cfg.LogLevel); level != slog.LevelDebug {
		t.Errorf("LogLevel = %q", cfg.LogLevel)
	}
}

func TestNewViperMissingExplicitFile(t *testing.T) {
	if _, err := NewViper(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("missing explicit config file accepted")
	}
}
