package main

import (
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:          "tickerdesk",
	Short:        "Stock price history and options chain viewer",
	SilenceUsage: true,
	RunE:         runTUI,
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file (default configs/config.yaml or $CONFIG_PATH)")
	rootCmd.PersistentFlags().String("provider", "", "data provider: yahoo, polygon or mock")
	rootCmd.PersistentFlags().String("log-level", "", "log level override")

	rootCmd.AddCommand(tuiCmd, pricesCmd, optionsCmd, watchCmd, journalCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Errorf("tickerdesk: %v", err)
		os.Exit(1)
	}
}
