package cmd

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/tendermint/tendermint/libs/log"
)

const (
	flagHome     = "home"
	flagLogLevel = "log-level"

	envPrefix = "CENTAURI"
)

// DefaultHome is the default directory of the configuration file.
var DefaultHome = os.ExpandEnv(filepath.Join("$HOME", ".centauri"))

// NewRootCmd creates the root command of the centauri binary. Every
// subcommand reads its configuration from the same viper instance, loaded
// from the home directory, the environment and flags.
func NewRootCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:          "centauri",
		Short:        "Local IBC network of GRANDPA and BEEFY tracked parachains",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return loadViper(v, cmd)
		},
	}
	cmd.PersistentFlags().String(flagHome, DefaultHome, "directory of the configuration file")
	cmd.PersistentFlags().String(flagLogLevel, "", "log level (debug|info|error|none)")

	cmd.AddCommand(
		NewLocalnetCmd(v),
		NewConfigCmd(v),
		NewVersionCmd(),
	)
	return cmd
}

// loadViper binds the flags of cmd and the environment to v and reads the
// configuration file of the home directory when present.
func loadViper(v *viper.Viper, cmd *cobra.Command) error {
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return err
	}
	// flag names use dashes, configuration keys underscores
	if flag := cmd.Flags().Lookup(flagLogLevel); flag != nil && flag.Changed {
		v.Set("log_level", flag.Value.String())
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetConfigFile(filepath.Join(v.GetString(flagHome), ConfigFileName))
	if err := v.ReadInConfig(); err != nil {
		if _, statErr := os.Stat(v.ConfigFileUsed()); os.IsNotExist(statErr) {
			return nil
		}
		return errors.Wrapf(err, "failed to read %s", v.ConfigFileUsed())
	}
	return nil
}

// newLogger returns a logger writing to stdout at the given level.
func newLogger(level string) (log.Logger, error) {
	option, err := log.AllowLevel(level)
	if err != nil {
		return nil, err
	}
	return log.NewFilter(log.NewTMLogger(log.NewSyncWriter(os.Stdout)), option), nil
}
