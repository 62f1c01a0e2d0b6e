// cmd/negotiator/pass.go
package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/unclebandit/creator-negotiator/internal/app"
	"github.com/unclebandit/creator-negotiator/internal/queue"
	"github.com/unclebandit/creator-negotiator/internal/service"
)

// passCommands runs a pass in this process, under the shared run lock.
func passCommands(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pass",
		Short: "Run one pass now and print its report",
	}

	run := func(kind string) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			a, err := app.New(c.cnf)
			if err != nil {
				return err
			}
			defer a.Close()

			report, err := a.Runner.Run(cmd.Context(), kind)
			if err != nil {
				return err
			}
			out, err := json.MarshalIndent(report, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		}
	}

	cmd.AddCommand(&cobra.Command{Use: "reconcile", Short: "Read inboxes and answer replies", RunE: run(service.PassReconcile)})
	cmd.AddCommand(&cobra.Command{Use: "followups", Short: "Nudge creators who have not replied", RunE: run(service.PassFollowups)})
	return cmd
}

// publishCommand queues a pass for the worker.
func publishCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:       "publish [reconcile|followups]",
		Short:     "Queue a pass on the broker for the worker to run",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{service.PassReconcile, service.PassFollowups},
		RunE: func(cmd *cobra.Command, args []string) error {
			job, err := queue.DecodePassJob(service.PassJob{Kind: args[0], RequestedBy: "cli"})
			if err != nil {
				return err
			}
			if c.cnf.AMQP.URL == "" {
				return fmt.Errorf("NEGOTIATOR_AMQP_URL is not set")
			}

			q, err := queue.DialAMQP(c.cnf.AMQP.URL)
			if err != nil {
				return err
			}
			defer q.Close()

			if err := q.Publish(queue.PassTopic, job); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "queued %s pass\n", job.Kind)
			return nil
		},
	}
}
