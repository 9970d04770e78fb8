package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/manash/genstate/internal/session"
	"github.com/manash/genstate/pkg/models"
)

func newWireframeCmd(app *App) *cobra.Command {
	var output string

	export := &cobra.Command{
		Use:   "export <session> [wireframe]",
		Short: "Export a wireframe as YAML (defaults to the session's current one)",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.withStore(cmd, func(ctx context.Context, s *session.Store, p *printer) error {
				var wfID string
				if len(args) == 2 {
					wfID = args[1]
				}
				return runWireframeExport(ctx, s, app.Out, args[0], wfID, output)
			})
		},
	}
	export.Flags().StringVarP(&output, "output", "o", "", "write to file instead of stdout")

	cmd := &cobra.Command{
		Use:     "wireframe",
		Aliases: []string{"wireframes"},
		Short:   "Inspect session wireframes",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list <session>",
			Short: "List the wireframes of a session",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return app.withStore(cmd, func(ctx context.Context, s *session.Store, p *printer) error {
					return runWireframeList(ctx, s, p, args[0])
				})
			},
		},
		export,
	)
	return cmd
}

func runWireframeList(ctx context.Context, s *session.Store, p *printer, sessionID string) error {
	wfs, err := s.ListWireframes(ctx, sessionID)
	if err != nil {
		return err
	}
	if p.json {
		return p.JSON(wfs)
	}
	if len(wfs) == 0 {
		p.Linef("No wireframes.")
		return nil
	}

	tw := p.table("ID", "UPDATED", "SIZE", "COMPONENTS", "DESCRIPTION")
	for _, wf := range wfs {
		fmt.Fprintf(tw, "%s\t%s\t%dx%d\t%d\t%s\n", wf.ID, session.FormatTimestamp(wf.Metadata.UpdatedAt),
			wf.Metadata.Width, wf.Metadata.Height, models.CountComponents(wf.Components), truncate(wf.Description, 40))
	}
	return tw.Flush()
}

func runWireframeExport(ctx context.Context, s *session.Store, out io.Writer, sessionID, wireframeID, output string) (err error) {
	var wf *models.Wireframe
	if wireframeID == "" {
		wf, err = s.CurrentWireframe(ctx, sessionID)
	} else {
		wf, err = s.LoadWireframe(ctx, sessionID, wireframeID)
	}
	if err != nil {
		return err
	}

	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", output, err)
		}
		defer func() {
			if cerr := f.Close(); cerr != nil && err == nil {
				err = cerr
			}
		}()
		out = f
	}

	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(wf); err != nil {
		return fmt.Errorf("failed to encode wireframe: %w", err)
	}
	return enc.Close()
}
