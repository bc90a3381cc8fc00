package cmd

import (
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	configs "github.com/thirdweb-dev/tracecollector/configs"
	"github.com/thirdweb-dev/tracecollector/internal/env"
	customLogger "github.com/thirdweb-dev/tracecollector/internal/log"
)

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   "tracecollector",
		Short: "Collect prestate storage traces for a block range",
		Long:  "Fetches every block of an inclusive range from a node, traces each transaction with the prestateTracer and writes the touched storage slots and receipts to a file",
	}
)

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is none, env and flags only)")
	rootCmd.PersistentFlags().String("rpc-url", "", "RPC Url of the node to trace against")
	rootCmd.PersistentFlags().String("log-level", "", "Log level to use for the application")
	rootCmd.PersistentFlags().Bool("log-prettify", false, "Whether to prettify the log output")
	rootCmd.PersistentFlags().String("metrics-addr", "", "Address to serve Prometheus metrics on, e.g. :2112 (disabled when empty)")
	rootCmd.PersistentFlags().String("output-path", configs.DefaultOutputPath, "File to write the collected data to")
	rootCmd.PersistentFlags().String("output-format", string(configs.OutputFormatJSON), "Output file format: json or parquet")
	rootCmd.PersistentFlags().Bool("legacy", false, "Write the flat [{blockNumber, txHash, storageSlots}] document")
	viper.BindPFlag("rpc.url", rootCmd.PersistentFlags().Lookup("rpc-url"))
	viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log.prettify", rootCmd.PersistentFlags().Lookup("log-prettify"))
	viper.BindPFlag("metrics.addr", rootCmd.PersistentFlags().Lookup("metrics-addr"))
	viper.BindPFlag("output.path", rootCmd.PersistentFlags().Lookup("output-path"))
	viper.BindPFlag("output.format", rootCmd.PersistentFlags().Lookup("output-format"))
	viper.BindPFlag("output.legacy", rootCmd.PersistentFlags().Lookup("legacy"))
	rootCmd.AddCommand(collectCmd)
	rootCmd.AddCommand(statsCmd)
}

func initConfig() {
	env.Load()
	if err := configs.LoadConfig(cfgFile); err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	customLogger.InitLogger()
}
