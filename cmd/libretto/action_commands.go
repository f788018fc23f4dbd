package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"libretto/internal/api"
	"libretto/internal/export"
)

// actionCommand builds a command that POSTs one bodyless edition action and
// prints the resulting status.
func actionCommand(ctx *commandContext, use, short, path string) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			var resp api.EditionResponse
			if err := ctx.client().post(fmt.Sprintf("/v1/editions/%d/%s", id, path), nil, &resp); err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, resp)
			}
			cmd.Printf("edition %d is now %s\n", resp.ID, resp.Status)
			return nil
		},
	}
}

func newDownloadCommand(ctx *commandContext) *cobra.Command {
	return actionCommand(ctx, "download", "Begin downloading the source video", "download")
}

func newPreviewCommand(ctx *commandContext) *cobra.Command {
	return actionCommand(ctx, "preview", "Dispatch the preview render", "preview")
}

func newApproveCommand(ctx *commandContext) *cobra.Command {
	return actionCommand(ctx, "approve", "Approve the preview and fan out all languages", "approve")
}

func newRenderCommand(ctx *commandContext) *cobra.Command {
	return actionCommand(ctx, "render", "Re-dispatch the full render set", "render")
}

func newSourceReadyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "source-ready <id> <duration>",
		Short: "Record the downloaded source duration",
		Long:  "Duration accepts seconds (187.9) or a timestamp (0:03:07,900).",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			duration, err := parseSeconds(args[1])
			if err != nil {
				return fmt.Errorf("invalid duration %q: %w", args[1], err)
			}
			var resp api.EditionResponse
			if err := ctx.client().post(fmt.Sprintf("/v1/editions/%d/source-ready", id),
				api.SourceReadyRequest{DurationSec: duration}, &resp); err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, resp)
			}
			cmd.Printf("edition %d is now %s\n", resp.ID, resp.Status)
			return nil
		},
	}
}

func newLyricsCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lyrics",
		Short: "Lyric checkpoint actions",
	}
	cmd.AddCommand(actionCommand(ctx, "approve", "Approve the candidate lyrics and start transcription", "lyrics/approve"))
	return cmd
}

func newCutCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "cut <id> [start end]",
		Short: "Adjust the cut window, or re-derive it from segments",
		Args:  cobra.RangeArgs(1, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			var req api.CutRequest
			switch len(args) {
			case 1:
			case 3:
				start, err := parseSeconds(args[1])
				if err != nil {
					return fmt.Errorf("invalid start %q: %w", args[1], err)
				}
				end, err := parseSeconds(args[2])
				if err != nil {
					return fmt.Errorf("invalid end %q: %w", args[2], err)
				}
				req.StartSec = &start
				req.EndSec = &end
			default:
				return fmt.Errorf("cut takes either no boundaries or both")
			}

			var resp api.EditionResponse
			if err := ctx.client().post(fmt.Sprintf("/v1/editions/%d/cut", id), req, &resp); err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, resp)
			}
			if resp.Window != nil {
				cmd.Printf("window set to %s\n", formatWindow(resp.Window))
			}
			return nil
		},
	}
}

func newReviseCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "revise <id> <notes...>",
		Short: "Reject the preview and reopen segment editing",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			notes := strings.Join(args[1:], " ")
			var resp api.EditionResponse
			if err := ctx.client().post(fmt.Sprintf("/v1/editions/%d/revise", id),
				api.ReviseRequest{Notes: notes}, &resp); err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, resp)
			}
			cmd.Printf("edition %d is now %s\n", resp.ID, resp.Status)
			return nil
		},
	}
}

func newRetryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry <id> <lang>",
		Short: "Re-render a single language",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			var resp api.EditionResponse
			if err := ctx.client().post(fmt.Sprintf("/v1/editions/%d/render/%s", id, args[1]), nil, &resp); err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, resp)
			}
			cmd.Printf("edition %d is now %s\n", resp.ID, resp.Status)
			return nil
		},
	}
}

func newRendersCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "renders <id>",
		Short: "List per-language render jobs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			var resp api.RenderJobsResponse
			if err := ctx.client().get(fmt.Sprintf("/v1/editions/%d/renders", id), &resp); err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, resp)
			}
			if len(resp.Jobs) == 0 {
				cmd.Println("no render jobs")
				return nil
			}
			cmd.Println(renderJobsTable(resp.Jobs))
			return nil
		},
	}
}

func newExportCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "export <id>",
		Short: "Print the delivery manifest for a finished edition",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			var manifest export.Manifest
			if err := ctx.client().get(fmt.Sprintf("/v1/editions/%d/export", id), &manifest); err != nil {
				return err
			}
			return writeJSON(cmd, manifest)
		},
	}
}
