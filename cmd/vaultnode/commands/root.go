package commands

import (
	"github.com/spf13/cobra"

	"github.com/vaultnet/vaultnode/src/config"
)

var (
	_config = config.NewDefaultConfig()
)

//RootCmd is the root command for vaultnode
var RootCmd = &cobra.Command{
	Use:              "vaultnode",
	Short:            "vaultnode storage node",
	TraverseChildren: true,
}

func init() {
	RootCmd.AddCommand(
		NewRunCmd(),
		NewKeygenCmd(),
		NewVersionCmd(),
	)
}
