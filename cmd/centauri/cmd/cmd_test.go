package cmd_test

import (
	"bytes"
	"io/ioutil"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v2"

	"github.com/ComposableFi/centauri/cmd/centauri/cmd"
	"github.com/ComposableFi/centauri/relayer/chains/simulated"
)

func execute(t *testing.T, args ...string) (string, error) {
	root := cmd.NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestConfigInitAndShow(t *testing.T) {
	home := t.TempDir()

	out, err := execute(t, "config", "init", "--home", home)
	require.NoError(t, err)
	path := filepath.Join(home, cmd.ConfigFileName)
	require.Contains(t, out, path)

	_, err = execute(t, "config", "init", "--home", home)
	require.Error(t, err)
	_, err = execute(t, "config", "init", "--home", home, "--force")
	require.NoError(t, err)

	bz, err := ioutil.ReadFile(path)
	require.NoError(t, err)
	expected, err := cmd.DefaultConfig().Bytes()
	require.NoError(t, err)
	require.Equal(t, string(expected), string(bz))

	// the environment and flags take precedence over the file
	t.Setenv("CENTAURI_BLOCK_INTERVAL", "250ms")
	out, err = execute(t, "config", "show", "--home", home, "--log-level", "debug")
	require.NoError(t, err)

	var shown map[string]interface{}
	require.NoError(t, yaml.Unmarshal([]byte(out), &shown))
	require.Equal(t, "250ms", shown["block_interval"])
	require.Equal(t, "debug", shown["log_level"])
}

func TestParseConfig(t *testing.T) {
	var v *viper.Viper

	testCases := []struct {
		name     string
		malleate func()
		expCfg   func(cfg *cmd.Config)
		expPass  bool
	}{
		{
			"defaults",
			func() {},
			func(*cmd.Config) {},
			true,
		},
		{
			"values given as strings are coerced",
			func() {
				v.Set("block_interval", "2s")
				v.Set("transfer.timeout_blocks", "42")
				v.Set("metrics.enabled", "true")
				v.Set("relayer.dedupe_expiry", "1m")
			},
			func(cfg *cmd.Config) {
				cfg.BlockInterval = 2 * time.Second
				cfg.Transfer.TimeoutBlocks = 42
				cfg.Metrics.Enabled = true
				cfg.Relayer.DedupeExpiry = time.Minute
			},
			true,
		},
		{
			"chains",
			func() {
				v.Set("chains", []interface{}{
					map[interface{}]interface{}{"chain_id": "a", "para_id": 1, "block_time": "12s"},
					map[string]interface{}{"chain_id": "b", "para_id": "2", "client_type": simulated.ClientTypeBeefy, "voters": 7},
				})
			},
			func(cfg *cmd.Config) {
				cfg.Chains = []cmd.ChainConfig{
					{ChainID: "a", ParaID: 1, ClientType: simulated.ClientTypeGrandpa, Voters: 4, BlockTime: 12 * time.Second},
					{ChainID: "b", ParaID: 2, ClientType: simulated.ClientTypeBeefy, Voters: 7, BlockTime: 6 * time.Second},
				}
			},
			true,
		},
		{
			"invalid duration",
			func() { v.Set("block_interval", "soon") },
			nil,
			false,
		},
		{
			"invalid para id",
			func() {
				v.Set("chains", []interface{}{map[string]interface{}{"chain_id": "a", "para_id": "one"}})
			},
			nil,
			false,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			v = viper.New()
			tc.malleate()

			cfg, err := cmd.ParseConfig(v)
			if !tc.expPass {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)

			expected := cmd.DefaultConfig()
			tc.expCfg(&expected)
			require.Equal(t, expected, cfg)
		})
	}
}

func TestConfigValidateBasic(t *testing.T) {
	cfg := cmd.DefaultConfig()
	require.NoError(t, cfg.ValidateBasic())

	cfg.Chains[1].ChainID = cfg.Chains[0].ChainID
	require.Error(t, cfg.ValidateBasic())

	cfg = cmd.DefaultConfig()
	cfg.Chains = cfg.Chains[:1]
	require.Error(t, cfg.ValidateBasic())

	cfg = cmd.DefaultConfig()
	cfg.Transfer.Amount = "lots"
	require.Error(t, cfg.ValidateBasic())
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	require.Equal(t, cmd.Version+"\n", out)

	out, err = execute(t, "version", "--long")
	require.NoError(t, err)
	require.Contains(t, out, "ics20: ics20-1")
}

func TestLocalnet(t *testing.T) {
	home := t.TempDir()
	t.Setenv("CENTAURI_BLOCK_INTERVAL", "20ms")
	t.Setenv("CENTAURI_LOG_LEVEL", "error")

	_, err := execute(t, "localnet", "--home", home, "--exit")
	require.NoError(t, err)
}
