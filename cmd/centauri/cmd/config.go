package cmd

import (
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"

	"github.com/ComposableFi/centauri/relayer"
	"github.com/ComposableFi/centauri/relayer/chains/simulated"
)

// ConfigFileName is the name of the configuration file in the home directory.
const ConfigFileName = "config.yaml"

// Config is the configuration of the centauri binary.
type Config struct {
	LogLevel string
	// BlockInterval is the wall clock time between blocks of the local chains.
	BlockInterval time.Duration
	Chains        []ChainConfig
	Relayer       RelayerConfig
	Metrics       MetricsConfig
	Transfer      TransferConfig
}

// ChainConfig configures a local chain.
type ChainConfig struct {
	ChainID    string
	ParaID     uint32
	ClientType string
	Voters     int
	// BlockTime is the time between two block timestamps of the chain.
	BlockTime time.Duration
}

type RelayerConfig struct {
	DedupeExpiry time.Duration
}

type MetricsConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Namespace  string `yaml:"namespace"`
	ListenAddr string `yaml:"listen_addr"`
}

// TransferConfig is the demo transfer sent once the local chains are
// connected.
type TransferConfig struct {
	Amount string `yaml:"amount"`
	// TimeoutBlocks is the number of blocks of the destination after which
	// the transfer times out.
	TimeoutBlocks uint64 `yaml:"timeout_blocks"`
}

// DefaultConfig returns the configuration of a GRANDPA and a BEEFY tracked
// chain.
func DefaultConfig() Config {
	return Config{
		LogLevel:      "info",
		BlockInterval: time.Second,
		Chains: []ChainConfig{
			{ChainID: "centauri-1", ParaID: 2087, ClientType: simulated.ClientTypeGrandpa, Voters: 4, BlockTime: 6 * time.Second},
			{ChainID: "centauri-2", ParaID: 2088, ClientType: simulated.ClientTypeBeefy, Voters: 4, BlockTime: 6 * time.Second},
		},
		Relayer: RelayerConfig{DedupeExpiry: relayer.DefaultDedupeExpiry},
		Metrics: MetricsConfig{Namespace: "centauri", ListenAddr: ":26660"},
		Transfer: TransferConfig{
			Amount:        "1000000",
			TimeoutBlocks: 100,
		},
	}
}

// ValidateBasic checks the configuration.
func (cfg Config) ValidateBasic() error {
	if len(cfg.Chains) != 2 {
		return errors.Errorf("expected 2 chains, got %d", len(cfg.Chains))
	}
	if cfg.Chains[0].ChainID == cfg.Chains[1].ChainID {
		return errors.Errorf("chains must have distinct ids, got %s twice", cfg.Chains[0].ChainID)
	}
	for _, chain := range cfg.Chains {
		if err := chain.simulated().Validate(); err != nil {
			return errors.Wrapf(err, "invalid chain %s", chain.ChainID)
		}
	}
	if cfg.BlockInterval <= 0 {
		return errors.New("block interval must be positive")
	}
	if cfg.Relayer.DedupeExpiry <= 0 {
		return errors.New("relayer dedupe expiry must be positive")
	}
	if _, err := cast.ToUint64E(cfg.Transfer.Amount); err != nil {
		return errors.Wrap(err, "invalid transfer amount")
	}
	return nil
}

func (c ChainConfig) simulated() simulated.Config {
	cfg := simulated.DefaultConfig(c.ChainID, c.ParaID)
	cfg.ClientType = c.ClientType
	cfg.Voters = c.Voters
	cfg.BeefyValidators = c.Voters
	cfg.BlockTime = c.BlockTime
	return cfg
}

// MarshalYAML implements yaml.Marshaler.
func (cfg Config) MarshalYAML() (interface{}, error) {
	return newConfigFile(cfg), nil
}

// Bytes renders the configuration file.
func (cfg Config) Bytes() ([]byte, error) {
	return yaml.Marshal(cfg)
}

// configFile mirrors Config with durations as strings so that the file reads
// "6s" rather than nanoseconds.
type configFile struct {
	LogLevel      string         `yaml:"log_level"`
	BlockInterval string         `yaml:"block_interval"`
	Chains        []chainFile    `yaml:"chains"`
	Relayer       relayerFile    `yaml:"relayer"`
	Metrics       MetricsConfig  `yaml:"metrics"`
	Transfer      TransferConfig `yaml:"transfer"`
}

type relayerFile struct {
	DedupeExpiry string `yaml:"dedupe_expiry"`
}

type chainFile struct {
	ChainID    string `yaml:"chain_id"`
	ParaID     uint32 `yaml:"para_id"`
	ClientType string `yaml:"client_type"`
	Voters     int    `yaml:"voters"`
	BlockTime  string `yaml:"block_time"`
}

func newConfigFile(cfg Config) configFile {
	f := configFile{
		LogLevel:      cfg.LogLevel,
		BlockInterval: cfg.BlockInterval.String(),
		Relayer:       relayerFile{DedupeExpiry: cfg.Relayer.DedupeExpiry.String()},
		Metrics:       cfg.Metrics,
		Transfer:      cfg.Transfer,
	}
	for _, c := range cfg.Chains {
		f.Chains = append(f.Chains, chainFile{
			ChainID:    c.ChainID,
			ParaID:     c.ParaID,
			ClientType: c.ClientType,
			Voters:     c.Voters,
			BlockTime:  c.BlockTime.String(),
		})
	}
	return f
}

// ParseConfig reads the configuration from v on top of the defaults. Values
// may come from the configuration file, the environment or flags, so they
// are coerced to the field types.
func ParseConfig(v *viper.Viper) (Config, error) {
	cfg := DefaultConfig()
	var err error

	if v.IsSet("log_level") {
		if cfg.LogLevel, err = cast.ToStringE(v.Get("log_level")); err != nil {
			return Config{}, errors.Wrap(err, "log_level")
		}
	}
	if v.IsSet("block_interval") {
		if cfg.BlockInterval, err = cast.ToDurationE(v.Get("block_interval")); err != nil {
			return Config{}, errors.Wrap(err, "block_interval")
		}
	}
	if v.IsSet("relayer.dedupe_expiry") {
		if cfg.Relayer.DedupeExpiry, err = cast.ToDurationE(v.Get("relayer.dedupe_expiry")); err != nil {
			return Config{}, errors.Wrap(err, "relayer.dedupe_expiry")
		}
	}
	if v.IsSet("metrics.enabled") {
		if cfg.Metrics.Enabled, err = cast.ToBoolE(v.Get("metrics.enabled")); err != nil {
			return Config{}, errors.Wrap(err, "metrics.enabled")
		}
	}
	if v.IsSet("metrics.namespace") {
		cfg.Metrics.Namespace = cast.ToString(v.Get("metrics.namespace"))
	}
	if v.IsSet("metrics.listen_addr") {
		cfg.Metrics.ListenAddr = cast.ToString(v.Get("metrics.listen_addr"))
	}
	if v.IsSet("transfer.amount") {
		cfg.Transfer.Amount = cast.ToString(v.Get("transfer.amount"))
	}
	if v.IsSet("transfer.timeout_blocks") {
		if cfg.Transfer.TimeoutBlocks, err = cast.ToUint64E(v.Get("transfer.timeout_blocks")); err != nil {
			return Config{}, errors.Wrap(err, "transfer.timeout_blocks")
		}
	}

	if v.IsSet("chains") {
		raw, err := cast.ToSliceE(v.Get("chains"))
		if err != nil {
			return Config{}, errors.Wrap(err, "chains")
		}
		cfg.Chains = make([]ChainConfig, len(raw))
		for i, item := range raw {
			if cfg.Chains[i], err = parseChainConfig(item); err != nil {
				return Config{}, errors.Wrapf(err, "chains[%d]", i)
			}
		}
	}
	return cfg, nil
}

func parseChainConfig(item interface{}) (ChainConfig, error) {
	fields, err := cast.ToStringMapE(item)
	if err != nil {
		return ChainConfig{}, err
	}

	chain := ChainConfig{
		ClientType: simulated.ClientTypeGrandpa,
		Voters:     4,
		BlockTime:  6 * time.Second,
	}
	if chain.ChainID, err = cast.ToStringE(fields["chain_id"]); err != nil {
		return ChainConfig{}, errors.Wrap(err, "chain_id")
	}
	if chain.ParaID, err = cast.ToUint32E(fields["para_id"]); err != nil {
		return ChainConfig{}, errors.Wrap(err, "para_id")
	}
	if clientType, ok := fields["client_type"]; ok {
		chain.ClientType = cast.ToString(clientType)
	}
	if voters, ok := fields["voters"]; ok {
		if chain.Voters, err = cast.ToIntE(voters); err != nil {
			return ChainConfig{}, errors.Wrap(err, "voters")
		}
	}
	if blockTime, ok := fields["block_time"]; ok {
		if chain.BlockTime, err = cast.ToDurationE(blockTime); err != nil {
			return ChainConfig{}, errors.Wrap(err, "block_time")
		}
	}
	return chain, nil
}
