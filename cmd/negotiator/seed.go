// cmd/negotiator/seed.go
package main

import (
	"context"
	"fmt"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/unclebandit/creator-negotiator/internal/db"
	"github.com/unclebandit/creator-negotiator/internal/model"
	"github.com/unclebandit/creator-negotiator/internal/repository"
	"github.com/unclebandit/creator-negotiator/internal/service"
)

type seedOptions struct {
	mailbox   model.Mailbox
	campaign  service.CampaignInput
	creators  int
	budgetMin float64
	maxOffer  float64
}

func seedCommand(c *cli) *cobra.Command {
	opts := &seedOptions{}
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create a mailbox, a campaign and drafted outreach for fake creators",
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, err := db.Connect(c.cnf.DataSource.Dns)
			if err != nil {
				return err
			}
			defer conn.Close()

			mailboxRepo := &repository.MailboxRepository{DB: conn}
			svc := &service.CampaignService{
				CampaignRepo: &repository.CampaignRepository{DB: conn},
				OutreachRepo: &repository.OutreachRepository{DB: conn},
				ThreadRepo:   &repository.ThreadRepository{DB: conn},
			}
			return seed(cmd.Context(), cmd, mailboxRepo, svc, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.mailbox.Email, "mailbox-email", "", "sending mailbox address (skipped when empty)")
	f.StringVar(&opts.mailbox.Username, "mailbox-user", "", "mailbox login")
	f.StringVar(&opts.mailbox.Password, "mailbox-password", "", "mailbox password")
	f.StringVar(&opts.mailbox.SMTPHost, "smtp-host", "", "SMTP host")
	f.IntVar(&opts.mailbox.SMTPPort, "smtp-port", 587, "SMTP port")
	f.StringVar(&opts.mailbox.IMAPHost, "imap-host", "", "IMAP host")
	f.IntVar(&opts.mailbox.IMAPPort, "imap-port", 993, "IMAP port")
	f.IntVar(&opts.mailbox.DailyLimit, "daily-limit", 50, "emails per mailbox per day")
	f.StringVar(&opts.campaign.Name, "campaign", "Demo Campaign", "campaign name")
	f.StringVar(&opts.campaign.Topic, "topic", "tech", "campaign topic")
	f.Float64Var(&opts.budgetMin, "budget-min", 100, "lowest budget")
	f.Float64Var(&opts.maxOffer, "max-offer", 500, "hard ceiling")
	f.IntVar(&opts.creators, "creators", 5, "number of fake creators to draft outreach for")
	return cmd
}

type mailboxCreator interface {
	Create(ctx context.Context, mb *model.Mailbox) error
}

func seed(ctx context.Context, cmd *cobra.Command, mailboxes mailboxCreator, svc *service.CampaignService, opts *seedOptions) error {
	if opts.mailbox.Email != "" {
		opts.mailbox.IsActive = true
		if err := mailboxes.Create(ctx, &opts.mailbox); err != nil {
			return errors.Wrap(err, "seed mailbox")
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Seeded mailbox %d (%s)\n", opts.mailbox.ID, opts.mailbox.Email)
	}

	opts.campaign.BudgetMin = decimal.NewFromFloat(opts.budgetMin)
	opts.campaign.MaxOffer = decimal.NewFromFloat(opts.maxOffer)
	campaign, err := svc.CreateCampaign(ctx, opts.campaign)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Seeded campaign %d (%s)\n", campaign.ID, campaign.Name)

	for i := 0; i < opts.creators; i++ {
		creator := model.Creator{
			CandidateID:   gofakeit.UUID(),
			DisplayName:   gofakeit.Name(),
			FollowerCount: int64(gofakeit.Number(1000, 500000)),
			Description:   gofakeit.Sentence(10),
			Email:         gofakeit.Email(),
		}
		o, _, err := svc.CreateOutreach(ctx, campaign.ID, creator)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Seeded outreach %d -> %s\n", o.ID, o.RecipientEmail)
	}

	fmt.Fprintln(cmd.OutOrStdout(), "Database seeding completed successfully!")
	return nil
}
