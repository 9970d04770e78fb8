package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/manash/genstate/internal/session"
)

type sessionSummary struct {
	ID          string `json:"id"`
	UpdatedAt   string `json:"updatedAt"`
	Iterations  int    `json:"iterations"`
	Archived    int    `json:"archived"`
	LastPrompt  string `json:"lastPrompt,omitempty"`
	WireframeID string `json:"currentWireframeId,omitempty"`
	HasAsset    bool   `json:"hasAsset"`
}

func summarize(s *session.Session) sessionSummary {
	return sessionSummary{
		ID:          s.ID,
		UpdatedAt:   session.FormatTimestamp(s.UpdatedAt),
		Iterations:  len(s.Iterations),
		Archived:    len(s.Archived),
		LastPrompt:  s.Metadata.LastPrompt,
		WireframeID: s.CurrentWireframeID,
		HasAsset:    s.CurrentAsset != nil,
	}
}

func newSessionsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "sessions",
		Aliases: []string{"session"},
		Short:   "List, show, create and delete sessions",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List sessions, most recently updated first",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return app.withStore(cmd, runSessionsList)
			},
		},
		&cobra.Command{
			Use:   "show <session>",
			Short: "Show one session",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return app.withStore(cmd, func(ctx context.Context, s *session.Store, p *printer) error {
					return runSessionsShow(ctx, s, p, args[0])
				})
			},
		},
		&cobra.Command{
			Use:   "create",
			Short: "Create an empty session",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return app.withStore(cmd, func(ctx context.Context, s *session.Store, p *printer) error {
					sess, err := s.CreateSession(ctx)
					if err != nil {
						return err
					}
					if p.json {
						return p.JSON(summarize(sess))
					}
					p.Linef("Created session %s", sess.ID)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "delete <session>",
			Short: "Delete a session with its wireframes and images",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return app.withStore(cmd, func(ctx context.Context, s *session.Store, p *printer) error {
					if err := s.DeleteSession(ctx, args[0]); err != nil {
						return err
					}
					if p.json {
						return p.JSON(map[string]string{"deleted": args[0]})
					}
					p.Linef("Deleted session %s", args[0])
					return nil
				})
			},
		},
	)
	return cmd
}

func runSessionsList(ctx context.Context, s *session.Store, p *printer) error {
	sessions, err := s.ListSessions(ctx)
	if err != nil {
		return err
	}

	summaries := make([]sessionSummary, len(sessions))
	for i, sess := range sessions {
		summaries[i] = summarize(sess)
	}
	if p.json {
		return p.JSON(summaries)
	}
	if len(summaries) == 0 {
		p.Linef("No sessions.")
		return nil
	}

	tw := p.table("ID", "UPDATED", "ITERATIONS", "LAST PROMPT")
	for _, sum := range summaries {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", sum.ID, sum.UpdatedAt, sum.Iterations, truncate(sum.LastPrompt, 40))
	}
	return tw.Flush()
}

func runSessionsShow(ctx context.Context, s *session.Store, p *printer, id string) error {
	sess, err := s.LoadSession(ctx, id)
	if err != nil {
		return err
	}
	if p.json {
		return p.JSON(sess)
	}

	sum := summarize(sess)
	p.Linef("%s %s", p.bold("Session"), sess.ID)
	p.Linef("  Created:     %s", session.FormatTimestamp(sess.CreatedAt))
	p.Linef("  Updated:     %s", sum.UpdatedAt)
	p.Linef("  Iterations:  %d (%d archived, %d created)", sum.Iterations, sum.Archived, sess.Metadata.TotalIterations)
	if sum.LastPrompt != "" {
		p.Linef("  Last prompt: %s", sum.LastPrompt)
	}
	if sum.WireframeID != "" {
		p.Linef("  Wireframe:   %s", sum.WireframeID)
	}
	if a := sess.CurrentAsset; a != nil {
		p.Linef("  Asset:       %s %q, %d variants, selected %q", a.AssetType, a.Description, len(a.AllVariants), a.SelectedVariantID)
	}
	return nil
}
