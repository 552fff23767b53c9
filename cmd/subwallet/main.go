// subwallet - prepare, sign and broadcast Substrate transactions
package main

import (
	"fmt"
	"os"

	log "github.com/colorfulnotion/subwallet/log"
	"github.com/spf13/cobra"
)

var (
	Version   = "dev"
	Commit    = "none"
	BuildTime = "unknown"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "subwallet",
		Short: "Offline signing wallet for Substrate chains",
		Long: `Builds unsigned transaction batches against a node, signs them offline
and broadcasts the signed batch.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			log.InitLogger(opts.logLevel)
			log.EnableModules(opts.debug)
		},
	}
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringVar(&opts.network, "network", "polkadot", "Builtin network id or path to a network JSON file")
	rootCmd.PersistentFlags().StringVar(&opts.rpc, "rpc", "", "Node websocket endpoint (defaults to the network's)")
	rootCmd.PersistentFlags().StringVar(&opts.dataDir, "datadir", defaultDataDir(), "Directory for the fee cache; empty keeps it in memory")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "Log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&opts.debug, "debug", "", "Comma separated log modules to enable (scale_mod,meta_mod,tx_mod,rpc_mod,store_mod,ctl_mod)")
	rootCmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", defaultTimeout, "Timeout for node requests")

	rootCmd.AddCommand(
		addressCmd(),
		storageKeyCmd(),
		metadataCmd(),
		balanceCmd(),
		prepareCmd(),
		estimateFeesCmd(),
		signCmd(),
		decodeBatchCmd(),
		broadcastCmd(),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Printf("subwallet %s (commit %s, built %s)\n", Version, Commit, BuildTime)
			},
		},
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
