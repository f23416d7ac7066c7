package main

import (
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/yourusername/mediafetch/internal/app"
	"github.com/yourusername/mediafetch/internal/domain"
	"github.com/yourusername/mediafetch/pkg/logger"
)

var (
	serverURL   string
	noAutoStart bool
	configPath  string
	rootCmd     = &cobra.Command{
		Use:   "mediafetch",
		Short: "mediafetch CLI - fetch media collections into per-collection folders",
		Long: `A command-line interface for the mediafetch server. Each reference is
either a collection (playlist) or a single item; every item is saved as
<output_dir>/<collection>/<title><ext> and skipped when it already exists.`,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8000", "Server URL")
	rootCmd.PersistentFlags().BoolVar(&noAutoStart, "no-auto-start", false, "Don't auto-start server if not running")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (used by run and config)")

	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(jobsCmd)
	rootCmd.AddCommand(jobCmd)
	rootCmd.AddCommand(cancelCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(logsCmd)
}

// ensureServer checks if server is running and starts it if needed (unless --no-auto-start)
func ensureServer() {
	if noAutoStart {
		return
	}
	if err := ensureServerRunning(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
}

func exitOnError(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var fetchCmd = &cobra.Command{
	Use:   "fetch [url...]",
	Short: "Fetch collections or items through the server",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()
		detachFlag, _ := cmd.Flags().GetBool("detach")

		mode := domain.ModeAwait
		if detachFlag {
			mode = domain.ModeDetach
		}
		req := map[string]interface{}{
			"references": args,
			"mode":       mode,
		}

		client := newAPIClient(serverURL)
		if detachFlag {
			var job domain.Job
			exitOnError(client.do(http.MethodPost, "/api/v1/batches", req, &job))
			fmt.Printf("Job started: %s\n", job.ID)
			fmt.Printf("Follow it with: mediafetch watch, or mediafetch job %s\n", job.ID)
			return
		}

		var result domain.BatchResult
		exitOnError(client.do(http.MethodPost, "/api/v1/batches", req, &result))
		printResult(os.Stdout, &result)
		if result.Failed > 0 {
			os.Exit(2)
		}
	},
}

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "List jobs known to the server",
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()

		var resp struct {
			Jobs []*domain.Job `json:"jobs"`
		}
		exitOnError(newAPIClient(serverURL).do(http.MethodGet, "/api/v1/batches", nil, &resp))
		printJobs(os.Stdout, resp.Jobs)
	},
}

var jobCmd = &cobra.Command{
	Use:   "job [id]",
	Short: "Show job details",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()

		var job domain.Job
		exitOnError(newAPIClient(serverURL).do(http.MethodGet, "/api/v1/batches/"+url.PathEscape(args[0]), nil, &job))
		printJob(os.Stdout, &job)
	},
}

var cancelCmd = &cobra.Command{
	Use:   "cancel [id]",
	Short: "Cancel a running job",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()

		var job domain.Job
		exitOnError(newAPIClient(serverURL).do(http.MethodPost, "/api/v1/batches/"+url.PathEscape(args[0])+"/cancel", nil, &job))
		fmt.Printf("Cancellation requested for job %s\n", job.ID)
	},
}

var logsCmd = &cobra.Command{
	Use:   "logs [category]",
	Short: "Show today's fetch or error log",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()
		limit, _ := cmd.Flags().GetInt("limit")
		query, _ := cmd.Flags().GetString("query")

		category := string(logger.CategoryFetch)
		if len(args) == 1 {
			category = args[0]
		}

		params := url.Values{}
		params.Set("limit", strconv.Itoa(limit))
		if query != "" {
			params.Set("q", query)
		}

		var resp struct {
			Entries []logger.LogEntry `json:"entries"`
		}
		exitOnError(newAPIClient(serverURL).do(http.MethodGet, "/api/v1/logs/"+url.PathEscape(category)+"?"+params.Encode(), nil, &resp))
		printLogEntries(os.Stdout, resp.Entries)
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a config file with default values",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		force, _ := cmd.Flags().GetBool("force")
		exitOnError(writeDefaultConfig(args[0], force))
		fmt.Printf("Config written to %s\n", args[0])
	},
}

// writeDefaultConfig refuses to overwrite an existing file unless force is set
func writeDefaultConfig(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}
	return app.SaveConfig(domain.DefaultConfig(), path)
}

func init() {
	fetchCmd.Flags().BoolP("detach", "d", false, "Return immediately with a job id")
	logsCmd.Flags().IntP("limit", "n", 50, "Number of entries to show")
	logsCmd.Flags().StringP("query", "q", "", "Only show entries containing this text")
	configInitCmd.Flags().Bool("force", false, "Overwrite an existing file")
	configCmd.AddCommand(configInitCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
