package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"libretto/internal/api"
	"libretto/internal/timecode"
)

func newListCommand(ctx *commandContext) *cobra.Command {
	var statusFlag string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List editions",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/v1/editions"
			if statusFlag != "" {
				path += "?status=" + statusFlag
			}
			var resp api.EditionsResponse
			if err := ctx.client().get(path, &resp); err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, resp)
			}

			if len(resp.Editions) == 0 {
				cmd.Println("no editions")
				return nil
			}
			colorize := shouldColorize(cmd.OutOrStdout())
			rows := make([][]string, 0, len(resp.Editions))
			for _, ed := range resp.Editions {
				rows = append(rows, []string{
					strconv.FormatInt(ed.ID, 10),
					ed.Artist,
					ed.Title,
					colorStatus(ed.Status, colorize),
					ed.CaptionLang,
					formatWindow(ed.Window),
				})
			}
			cmd.Println(renderTable([]string{"ID", "ARTIST", "TITLE", "STATUS", "LANG", "WINDOW"}, rows, 1))
			return nil
		},
	}

	cmd.Flags().StringVar(&statusFlag, "status", "", "Filter by status")
	return cmd
}

func newShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one edition with segments and render jobs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			var resp api.EditionDetailResponse
			if err := ctx.client().get(fmt.Sprintf("/v1/editions/%d", id), &resp); err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, resp)
			}

			status := colorStatus(resp.Status, shouldColorize(cmd.OutOrStdout()))
			cmd.Printf("%s - %s [%s]\n", resp.Artist, resp.Title, status)
			if resp.Composer != "" || resp.Work != "" {
				cmd.Printf("  %s / %s\n", resp.Composer, resp.Work)
			}
			cmd.Printf("  source: %s (lang %s)\n", resp.SourceURL, resp.CaptionLang)
			if resp.Window != nil {
				cmd.Printf("  window: %s .. %s (%.1fs)\n",
					timecode.Format(resp.Window.StartSec),
					timecode.Format(resp.Window.EndSec),
					resp.Window.DurationSec)
			}
			if resp.AlignmentRoute != "" {
				cmd.Printf("  alignment: %s (confidence %.2f)\n", resp.AlignmentRoute, resp.AlignmentConfidence)
			}
			if resp.RevisionNotes != "" {
				cmd.Printf("  revision notes: %s\n", resp.RevisionNotes)
			}
			if resp.ErrorMessage != "" {
				cmd.Printf("  error: %s\n", resp.ErrorMessage)
			}

			if len(resp.Segments) > 0 {
				rows := make([][]string, 0, len(resp.Segments))
				for _, seg := range resp.Segments {
					rows = append(rows, []string{
						strconv.Itoa(seg.Position),
						timecode.Format(seg.StartSec),
						timecode.Format(seg.EndSec),
						string(seg.Flag),
						seg.TextFinal,
					})
				}
				cmd.Println(renderTable([]string{"#", "START", "END", "FLAG", "TEXT"}, rows, 1))
			}
			if len(resp.RenderJobs) > 0 {
				cmd.Println(renderJobsTable(resp.RenderJobs))
			}
			return nil
		},
	}
}

func newNewCommand(ctx *commandContext) *cobra.Command {
	var req api.CreateEditionRequest

	cmd := &cobra.Command{
		Use:   "new",
		Short: "Register a new edition",
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp api.EditionResponse
			if err := ctx.client().post("/v1/editions", req, &resp); err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, resp)
			}
			cmd.Printf("edition %d registered (%s - %s)\n", resp.ID, resp.Artist, resp.Title)
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Artist, "artist", "", "Performing artist")
	cmd.Flags().StringVar(&req.Title, "title", "", "Piece title")
	cmd.Flags().StringVar(&req.Composer, "composer", "", "Composer")
	cmd.Flags().StringVar(&req.Work, "work", "", "Parent work (opera, cycle)")
	cmd.Flags().StringVar(&req.Category, "category", "", "Catalog category")
	cmd.Flags().StringVar(&req.SourceURL, "source", "", "Source video URL")
	cmd.Flags().StringVar(&req.CaptionLang, "lang", "", "Original caption language")
	cmd.Flags().BoolVar(&req.Instrumental, "instrumental", false, "Instrumental performance (no lyrics)")
	cobra.CheckErr(cmd.MarkFlagRequired("title"))
	cobra.CheckErr(cmd.MarkFlagRequired("source"))
	return cmd
}

func newDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an edition and all its rows",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := ctx.client().delete(fmt.Sprintf("/v1/editions/%d", id)); err != nil {
				return err
			}
			cmd.Printf("edition %d deleted\n", id)
			return nil
		},
	}
}

func renderJobsTable(jobs []api.RenderJobResponse) string {
	rows := make([][]string, 0, len(jobs))
	for _, job := range jobs {
		detail := job.OutputPath
		if job.ErrorMessage != "" {
			detail = job.ErrorMessage
		}
		rows = append(rows, []string{job.Lang, job.Status, detail})
	}
	return renderTable([]string{"LANG", "STATUS", "DETAIL"}, rows)
}

func formatWindow(window *api.WindowResponse) string {
	if window == nil {
		return "-"
	}
	return timecode.FormatShort(window.StartSec) + ".." + timecode.FormatShort(window.EndSec)
}

func parseID(value string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid edition id %q", value)
	}
	return id, nil
}

// parseSeconds accepts plain seconds or any timestamp form the codec knows.
func parseSeconds(value string) (float64, error) {
	if sec, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
		return sec, nil
	}
	return timecode.Parse(value)
}
