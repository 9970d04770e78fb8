package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/manash/genstate/internal/reference"
	"github.com/manash/genstate/internal/session"
	"github.com/manash/genstate/pkg/models"
)

func newHistoryCmd(app *App) *cobra.Command {
	var showArchived bool

	list := &cobra.Command{
		Use:   "list <session>",
		Short: "List the iteration timeline of a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.withStore(cmd, func(ctx context.Context, s *session.Store, p *printer) error {
				return runHistoryList(ctx, s, p, args[0], showArchived)
			})
		},
	}
	list.Flags().BoolVarP(&showArchived, "archived", "a", false, "also list archived iterations")

	step := func(use, short string, move func(s *session.Store, ctx context.Context, id string) (*models.Iteration, error)) *cobra.Command {
		return &cobra.Command{
			Use:   use + " <session>",
			Short: short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return app.withStore(cmd, func(ctx context.Context, s *session.Store, p *printer) error {
					it, err := move(s, ctx, args[0])
					if err != nil {
						return err
					}
					return printIteration(p, it)
				})
			},
		}
	}

	rollback := &cobra.Command{
		Use:   "rollback <session> <index>",
		Short: "Make an earlier iteration the current one",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid index %q: %w", args[1], err)
			}
			return app.withStore(cmd, func(ctx context.Context, s *session.Store, p *printer) error {
				it, err := s.Rollback(ctx, args[0], index)
				if err != nil {
					return err
				}
				return printIteration(p, it)
			})
		},
	}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect and move through a session's iterations",
	}
	cmd.AddCommand(
		list,
		step("undo", "Step back one iteration", (*session.Store).Undo),
		step("redo", "Step forward one iteration", (*session.Store).Redo),
		rollback,
	)
	return cmd
}

func runHistoryList(ctx context.Context, s *session.Store, p *printer, id string, showArchived bool) error {
	iters, err := s.ListIterations(ctx, id)
	if err != nil {
		return err
	}
	var archived []models.Iteration
	if showArchived {
		if archived, err = s.ArchivedIterations(ctx, id); err != nil {
			return err
		}
	}

	if p.json {
		out := map[string]any{"session": id, "iterations": iters}
		if showArchived {
			out["archived"] = archived
		}
		return p.JSON(out)
	}
	if len(iters) == 0 && len(archived) == 0 {
		p.Linef("No iterations.")
		return nil
	}

	tw := p.table("INDEX", "SEQ", "TIME", "PROMPT", "STATUS")
	for _, it := range append(iters, archived...) {
		index := strconv.Itoa(it.Index)
		if it.Status == models.StatusArchived {
			index = "-"
		}
		marker := ""
		if it.RolledBackTo {
			marker = " *"
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s%s\n", index, it.Seq,
			session.FormatTimestamp(it.Timestamp), truncate(it.Prompt, 48), p.status(it.Status), marker)
	}
	return tw.Flush()
}

func printIteration(p *printer, it *models.Iteration) error {
	if p.json {
		return p.JSON(it)
	}
	p.Linef("Current iteration #%d: %s", it.Index, it.Prompt)
	if it.Result.ImageRef != "" {
		p.Linef("  Image: %s", it.Result.ImageRef)
	}
	return nil
}

func newResolveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <session> <reference>",
		Short: `Resolve "latest", "first", an index or prompt text to an iteration`,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.withStore(cmd, func(ctx context.Context, s *session.Store, p *printer) error {
				return runResolve(ctx, s, p, args[0], args[1])
			})
		},
	}
}

func runResolve(ctx context.Context, s *session.Store, p *printer, id, ref string) error {
	res, err := s.ResolveReference(ctx, id, ref)
	var amb *reference.AmbiguousError
	if errors.As(err, &amb) {
		if p.json {
			if jerr := p.JSON(map[string]any{"reference": ref, "candidates": amb.Candidates}); jerr != nil {
				return jerr
			}
			return err
		}
		p.Linef("%q matches %d iterations:", ref, len(amb.Candidates))
		for _, c := range amb.Candidates {
			p.Linef("  #%d %s", c.Index, c.Prompt)
		}
		return err
	}
	if err != nil {
		return err
	}

	it, err := s.GetIteration(ctx, id, res.Index)
	if err != nil {
		return err
	}
	if p.json {
		return p.JSON(map[string]any{"resolution": res, "iteration": it})
	}
	p.Linef("%s -> #%d (%s): %s", ref, res.Index, res.MatchType, it.Prompt)
	return nil
}
