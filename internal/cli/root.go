package cli

import "github.com/spf13/cobra"

// NewRootCommand はCLIのルート。
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "store",
		Short: "melhfa storefront API",
		Long:  "Storefront BFF over the commerce platform: catalog, cart, checkout, auth.",
	}

	cmd.AddCommand(NewServeCommand())

	return cmd
}
