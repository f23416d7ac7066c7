package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/yourusername/mediafetch/internal/domain"
	"github.com/yourusername/mediafetch/pkg/logger"
)

// printResult writes a batch summary followed by one row per outcome
func printResult(w io.Writer, result *domain.BatchResult) {
	if result == nil {
		fmt.Fprintln(w, "No result")
		return
	}

	fmt.Fprintf(w, "Completed: %d  Skipped: %d  Failed: %d\n", result.Completed, result.Skipped, result.Failed)
	for _, ref := range result.Rejected {
		fmt.Fprintf(w, "Rejected:  %s\n", ref)
	}
	if len(result.Items) == 0 {
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PHASE\tCOLLECTION\tTITLE\tDETAIL")
	for _, item := range result.Items {
		collection := item.Collection
		if collection == "" {
			collection = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			item.Phase,
			truncate(collection, 24),
			truncate(item.Title, 40),
			item.Detail)
	}
	tw.Flush()
}

// printJobs writes one row per job
func printJobs(w io.Writer, jobs []*domain.Job) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tMODE\tREFS\tDONE/SKIP/FAIL\tCREATED")
	for _, j := range jobs {
		counts := "-"
		if j.Result != nil {
			counts = fmt.Sprintf("%d/%d/%d", j.Result.Completed, j.Result.Skipped, j.Result.Failed)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n",
			truncate(j.ID, 8),
			j.Status,
			j.Mode,
			len(j.References),
			counts,
			j.CreatedAt.Format(time.DateTime))
	}
	tw.Flush()
}

// printJob writes job details and, once finished, its result
func printJob(w io.Writer, j *domain.Job) {
	fmt.Fprintf(w, "Job Details:\n")
	fmt.Fprintf(w, "  ID:       %s\n", j.ID)
	fmt.Fprintf(w, "  Status:   %s\n", j.Status)
	fmt.Fprintf(w, "  Mode:     %s\n", j.Mode)
	fmt.Fprintf(w, "  Created:  %s\n", j.CreatedAt.Format(time.DateTime))
	if j.FinishedAt != nil {
		fmt.Fprintf(w, "  Finished: %s\n", j.FinishedAt.Format(time.DateTime))
	}
	if j.ErrorMessage != "" {
		fmt.Fprintf(w, "  Error:    %s\n", j.ErrorMessage)
	}
	for _, ref := range j.References {
		fmt.Fprintf(w, "  Ref:      %s\n", ref)
	}
	if j.Result != nil {
		fmt.Fprintln(w)
		printResult(w, j.Result)
	}
}

// printLogEntries writes log entries one per line
func printLogEntries(w io.Writer, entries []logger.LogEntry) {
	for _, e := range entries {
		line := fmt.Sprintf("%s %-5s %s", e.Timestamp, e.Level, e.Message)
		for _, key := range []string{"job_id", "title", "detail", "error"} {
			if v, ok := e.Fields[key]; ok {
				line += fmt.Sprintf(" %s=%v", key, v)
			}
		}
		fmt.Fprintln(w, line)
	}
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
