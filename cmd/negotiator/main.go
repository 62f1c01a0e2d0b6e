// cmd/negotiator/main.go
package main

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/unclebandit/creator-negotiator/internal/config"
)

type cli struct {
	envFile string
	cnf     *config.Configuration
}

func recoverPanic() {
	if rec := recover(); rec != nil {
		log.Error(rec)
		os.Exit(1)
	}
}

func (c *cli) preRun(cmd *cobra.Command, args []string) error {
	var files []string
	if c.envFile != "" {
		files = append(files, c.envFile)
	}
	if err := config.InitConfig(files...); err != nil {
		return err
	}
	cnf, err := config.Fetch()
	if err != nil {
		return err
	}
	c.cnf = cnf
	return nil
}

func newRootCommand() *cobra.Command {
	c := &cli{}
	rootCmd := &cobra.Command{
		Use:           "negotiator",
		Short:         "Creator sponsorship outreach and negotiation",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&c.envFile, "env", "", "dotenv file to load before reading the environment")
	rootCmd.PersistentPreRunE = c.preRun

	rootCmd.AddCommand(migrateCommands(c))
	rootCmd.AddCommand(passCommands(c))
	rootCmd.AddCommand(publishCommand(c))
	rootCmd.AddCommand(seedCommand(c))
	return rootCmd
}

func main() {
	defer recoverPanic()

	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
