package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "predictionxd",
		Short: "predictionx trading and settlement core",
	}
	root.PersistentFlags().String("config", "", "path to a YAML config file")
	_ = viper.BindPFlag("config", root.PersistentFlags().Lookup("config"))

	root.AddCommand(newServeCmd())
	root.AddCommand(newResolveMarketCmd())
	root.AddCommand(newAdminCmd())
	return root
}

// Execute runs the predictionxd CLI.
func Execute() error {
	return newRootCmd().Execute()
}
