package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"

	transfertypes "github.com/ComposableFi/centauri/modules/apps/transfer/types"
	connectiontypes "github.com/ComposableFi/centauri/modules/core/03-connection/types"
)

// Version and Commit are set at build time with -ldflags.
var (
	Version = "dev"
	Commit  = ""
)

type versionInfo struct {
	Version     string   `yaml:"version"`
	Commit      string   `yaml:"commit"`
	GoVersion   string   `yaml:"go"`
	IBCVersions []string `yaml:"ibc_versions"`
	ICS20       string   `yaml:"ics20"`
}

func NewVersionCmd() *cobra.Command {
	var long bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version info",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !long {
				fmt.Fprintln(cmd.OutOrStdout(), Version)
				return nil
			}

			info := versionInfo{
				Version:   Version,
				Commit:    Commit,
				GoVersion: runtime.Version(),
				ICS20:     transfertypes.Version,
			}
			for _, v := range connectiontypes.GetCompatibleVersions() {
				info.IBCVersions = append(info.IBCVersions, v.GetIdentifier())
			}
			bz, err := yaml.Marshal(info)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), string(bz))
			return nil
		},
	}
	cmd.Flags().BoolVar(&long, "long", false, "show protocol and build versions")
	return cmd
}
