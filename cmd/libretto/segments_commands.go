package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"libretto/internal/api"
	"libretto/internal/segment"
	"libretto/internal/timecode"
)

func newSegmentsCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "segments",
		Short: "Segment editing and submission",
	}
	cmd.AddCommand(newSegmentsSubmitCommand(ctx))
	cmd.AddCommand(newSegmentsSetBoundaryCommand(ctx))
	return cmd
}

func newSegmentsSubmitCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "submit <id> <segments.json>",
		Short: "Submit the validated segment list and derive the cut window",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			segments, err := readSegmentsFile(args[1])
			if err != nil {
				return err
			}
			var resp api.EditionResponse
			if err := ctx.client().put(fmt.Sprintf("/v1/editions/%d/segments", id),
				api.SegmentsRequest{Segments: segments}, &resp); err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, resp)
			}
			cmd.Printf("edition %d is now %s", resp.ID, resp.Status)
			if resp.Window != nil {
				cmd.Printf(" (window %s)", formatWindow(resp.Window))
			}
			cmd.Println()
			return nil
		},
	}
}

// newSegmentsSetBoundaryCommand previews a boundary edit locally, without
// contacting the daemon: the edited list is printed so it can be inspected
// and submitted whole.
func newSegmentsSetBoundaryCommand(ctx *commandContext) *cobra.Command {
	var writeBack bool

	cmd := &cobra.Command{
		Use:   "set-boundary <segments.json> <index> <start|end> <timestamp>",
		Short: "Apply one boundary edit to a local segments file",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			segments, err := readSegmentsFile(args[0])
			if err != nil {
				return err
			}
			index, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid segment index %q", args[1])
			}
			edge, ok := segment.ParseEdge(args[2])
			if !ok {
				return fmt.Errorf("edge must be start or end, got %q", args[2])
			}

			updated, err := segment.UpdateBoundary(segments, index, edge, args[3])
			if err != nil {
				return err
			}

			if writeBack {
				data, err := json.MarshalIndent(updated, "", "  ")
				if err != nil {
					return err
				}
				if err := os.WriteFile(args[0], append(data, '\n'), 0o644); err != nil {
					return fmt.Errorf("write segments file: %w", err)
				}
				cmd.Printf("updated %s\n", args[0])
				return nil
			}

			if ctx.jsonOutput() {
				return writeJSON(cmd, updated)
			}
			for _, seg := range updated {
				cmd.Printf("%3d %s .. %s  %s\n", seg.Position,
					timecode.Format(seg.StartSec), timecode.Format(seg.EndSec), seg.TextFinal)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&writeBack, "write", false, "Write the edited list back to the file")
	return cmd
}

func readSegmentsFile(path string) ([]segment.Segment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read segments file: %w", err)
	}
	var segments []segment.Segment
	if err := json.Unmarshal(data, &segments); err != nil {
		return nil, fmt.Errorf("parse segments file %s: %w", path, err)
	}
	return segments, nil
}
