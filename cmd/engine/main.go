// Command engine runs the prediction-market trading-intelligence
// pipeline: Signal Detector, Truth-Market Linker, Whale Tracker, Edge
// Detector, Arbitrage Detector and Alert Engine, wired together and
// driven from a single venue feed.
package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

const version = "1.0.0"

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	root := &cobra.Command{
		Use:   "engine",
		Short: "prediction-market trading-intelligence engine",
	}

	root.AddCommand(newRunCmd(log))
	root.AddCommand(newHealthcheckCmd())

	if err := root.Execute(); err != nil {
		log.Fatal().Err(err).Msg("command failed")
	}
}
