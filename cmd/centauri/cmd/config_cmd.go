package cmd

import (
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const flagForce = "force"

// NewConfigCmd returns the commands managing the configuration file.
func NewConfigCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}
	cmd.AddCommand(newConfigInitCmd(), newConfigShowCmd(v))
	return cmd
}

func newConfigInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default configuration to the home directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			home, err := cmd.Flags().GetString(flagHome)
			if err != nil {
				return err
			}
			force, err := cmd.Flags().GetBool(flagForce)
			if err != nil {
				return err
			}

			path := filepath.Join(home, ConfigFileName)
			if _, err := os.Stat(path); err == nil && !force {
				return errors.Errorf("%s already exists, use --%s to overwrite it", path, flagForce)
			}

			bz, err := DefaultConfig().Bytes()
			if err != nil {
				return err
			}
			if err := os.MkdirAll(home, 0o755); err != nil {
				return errors.Wrapf(err, "failed to create %s", home)
			}
			if err := ioutil.WriteFile(path, bz, 0o644); err != nil {
				return errors.Wrapf(err, "failed to write %s", path)
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	cmd.Flags().Bool(flagForce, false, "overwrite an existing configuration file")
	return cmd
}

func newConfigShowCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := ParseConfig(v)
			if err != nil {
				return err
			}
			if err := cfg.ValidateBasic(); err != nil {
				return errors.Wrap(err, "invalid configuration")
			}
			bz, err := cfg.Bytes()
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), string(bz))
			return nil
		},
	}
}
