package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

var (
	timelineQuery domain.TimelineQuery
	timelineJSON  bool
)

var timelineCmd = &cobra.Command{
	Use:   "timeline",
	Short: "Query the extracted timeline",
	Long: `Lists milestones, phase spans and status cards extracted from the slides.

Dates for --from and --to use YYYY-MM-DD. Records whose date could not be
normalised are left out when a date range is given.`,
}

var timelineMilestonesCmd = &cobra.Command{
	Use:   "milestones",
	Short: "List dated milestones",
	Args:  cobra.NoArgs,
	RunE:  runTimelineMilestones,
}

var timelineSpansCmd = &cobra.Command{
	Use:   "spans",
	Short: "List phases with a start and end date",
	Args:  cobra.NoArgs,
	RunE:  runTimelineSpans,
}

var timelineStatusesCmd = &cobra.Command{
	Use:   "statuses",
	Short: "List status cards",
	Args:  cobra.NoArgs,
	RunE:  runTimelineStatuses,
}

func init() {
	f := timelineCmd.PersistentFlags()
	f.StringVar(&timelineQuery.Area, "area", "", "only records for this area")
	f.StringVar(&timelineQuery.Title, "title", "", "only records whose title contains this text")
	f.StringVar(&timelineQuery.From, "from", "", "earliest date (YYYY-MM-DD)")
	f.StringVar(&timelineQuery.To, "to", "", "latest date (YYYY-MM-DD)")
	f.StringVar(&timelineQuery.Status, "status", "", "only status cards with this status")
	f.StringVar(&timelineQuery.Source, "source", "", "only records from this file")
	f.BoolVar(&timelineJSON, "json", false, "output as JSON")

	timelineCmd.AddCommand(timelineMilestonesCmd)
	timelineCmd.AddCommand(timelineSpansCmd)
	timelineCmd.AddCommand(timelineStatusesCmd)
	rootCmd.AddCommand(timelineCmd)
}

// timelineFilter validates flags and makes sure the timeline is loaded.
func timelineFilter(cmd *cobra.Command) (domain.TimelineFilter, error) {
	if timelineService == nil {
		return domain.TimelineFilter{}, errors.New("timeline service not configured")
	}
	filter, err := timelineQuery.Filter()
	if err != nil {
		return domain.TimelineFilter{}, err
	}
	if err := ensureIndex(cmd); err != nil {
		return domain.TimelineFilter{}, err
	}
	return filter, nil
}

func runTimelineMilestones(cmd *cobra.Command, _ []string) error {
	filter, err := timelineFilter(cmd)
	if err != nil {
		return err
	}
	records, err := timelineService.Milestones(cmd.Context(), filter)
	if err != nil {
		return fmt.Errorf("failed to list milestones: %w", err)
	}
	if timelineJSON {
		return printJSON(cmd, records)
	}
	if len(records) == 0 {
		cmd.Println("No milestones found.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tTITLE\tAREA\tSOURCE")
	for _, m := range records {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", dateOrRaw(m.NormalizedDate, m.RawDate), m.Title, m.Area, location(m.SourceFile, m.Slide))
	}
	return w.Flush()
}

func runTimelineSpans(cmd *cobra.Command, _ []string) error {
	filter, err := timelineFilter(cmd)
	if err != nil {
		return err
	}
	records, err := timelineService.Spans(cmd.Context(), filter)
	if err != nil {
		return fmt.Errorf("failed to list spans: %w", err)
	}
	if timelineJSON {
		return printJSON(cmd, records)
	}
	if len(records) == 0 {
		cmd.Println("No spans found.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "START\tEND\tTITLE\tAREA\tSOURCE")
	for _, s := range records {
		title := s.Title
		if s.Inverted() {
			title += " (end before start)"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			dateOrRaw(s.StartNormalized, s.StartRaw), dateOrRaw(s.EndNormalized, s.EndRaw),
			title, s.Area, location(s.SourceFile, s.Slide))
	}
	return w.Flush()
}

func runTimelineStatuses(cmd *cobra.Command, _ []string) error {
	filter, err := timelineFilter(cmd)
	if err != nil {
		return err
	}
	records, err := timelineService.Statuses(cmd.Context(), filter)
	if err != nil {
		return fmt.Errorf("failed to list statuses: %w", err)
	}
	if timelineJSON {
		return printJSON(cmd, records)
	}
	if len(records) == 0 {
		cmd.Println("No status cards found.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STATUS\tAREA\tSOURCE")
	for _, s := range records {
		fmt.Fprintf(w, "%s\t%s\t%s\n", s.Status, s.Area, location(s.SourceFile, s.Slide))
	}
	return w.Flush()
}

func dateOrRaw(t *time.Time, raw string) string {
	if t != nil {
		return t.Format(domain.DateLayout)
	}
	if raw == "" {
		return "-"
	}
	return raw
}

func location(file string, slide int) string {
	return fmt.Sprintf("%s, slide %d", filepath.Base(file), slide)
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
