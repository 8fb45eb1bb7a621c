package main

import (
	"fmt"
	"os"

	"github.com/alimikegami/crispy-cravings/payment-service/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var Version = "dev"

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.Logger = logger
	zerolog.DefaultContextLogger = &logger

	conf := config.CreateNewConfig()

	rootCmd := &cobra.Command{
		Use:     "paymentctl",
		Short:   "Operate the Crispy Cravings payment service",
		Version: Version,
	}

	rootCmd.AddCommand(verifyCmd(conf))
	rootCmd.AddCommand(sweepCmd(conf))
	rootCmd.AddCommand(unmatchedCmd(conf))
	rootCmd.AddCommand(signCmd(conf))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
