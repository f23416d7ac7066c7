package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/mediafetch/internal/domain"
)

// processRunner runs binary with args, wiring its output to the given writers
type processRunner func(ctx context.Context, binary string, args []string, stdout, stderr io.Writer) error

func runProcess(ctx context.Context, binary string, args []string, stdout, stderr io.Writer) error {
	cmd := exec.CommandContext(ctx, binary, args...)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	return cmd.Run()
}

// ytdlpInfo is the part of yt-dlp's -J output we read
type ytdlpInfo struct {
	Type           string       `json:"_type"`
	ID             string       `json:"id"`
	Title          string       `json:"title"`
	URL            string       `json:"url"`
	WebpageURL     string       `json:"webpage_url"`
	Filesize       int64        `json:"filesize"`
	FilesizeApprox int64        `json:"filesize_approx"`
	Entries        []*ytdlpInfo `json:"entries"`
}

func (i *ytdlpInfo) reference() string {
	switch {
	case i.WebpageURL != "":
		return i.WebpageURL
	case i.URL != "":
		return i.URL
	default:
		return i.ID
	}
}

const formatUnavailable = "Requested format is not available"

// YTDLPResolver resolves and downloads through the external yt-dlp binary
type YTDLPResolver struct {
	config  *domain.ResolverConfig
	logsDir string
	logger  *zap.Logger
	run     processRunner
}

// NewYTDLPResolver creates a resolver that shells out to yt-dlp. Transfer
// output is appended to <logsDir>/download-YYYYMMDD.log.
func NewYTDLPResolver(config *domain.ResolverConfig, logsDir string, logger *zap.Logger) *YTDLPResolver {
	return &YTDLPResolver{
		config:  config,
		logsDir: logsDir,
		logger:  logger,
		run:     runProcess,
	}
}

// ResolveCollection lists playlist entries without resolving each one
func (r *YTDLPResolver) ResolveCollection(ctx context.Context, ref string) (*domain.CollectionMetadata, error) {
	info, err := r.dumpJSON(ctx, "-J", "--flat-playlist", ref)
	if err != nil {
		return nil, &domain.ResolutionError{Scope: "collection", Reference: ref, Err: err}
	}
	if info.Type != "playlist" {
		return nil, domain.ErrNotACollection
	}

	meta := &domain.CollectionMetadata{Title: info.Title}
	for _, entry := range info.Entries {
		if entry == nil {
			continue
		}
		meta.Items = append(meta.Items, domain.ItemDescriptor{
			Title:           entry.Title,
			SourceReference: entry.reference(),
		})
	}
	return meta, nil
}

// ResolveItem resolves a single video, ignoring any playlist it belongs to
func (r *YTDLPResolver) ResolveItem(ctx context.Context, ref string) (*domain.ItemDescriptor, error) {
	info, err := r.dumpJSON(ctx, "-J", "--no-playlist", ref)
	if err != nil {
		return nil, &domain.ResolutionError{Scope: "item", Reference: ref, Err: err}
	}
	src := info.WebpageURL
	if src == "" {
		src = ref
	}
	return &domain.ItemDescriptor{Title: info.Title, SourceReference: src}, nil
}

// BestStream asks yt-dlp which format it would download and how large it is
func (r *YTDLPResolver) BestStream(ctx context.Context, item domain.ItemDescriptor) (domain.StreamHandle, error) {
	info, err := r.dumpJSON(ctx, "-J", "--no-playlist", "-f", r.config.YTDLPFormat, item.SourceReference)
	if err != nil {
		if strings.Contains(err.Error(), formatUnavailable) {
			return nil, domain.ErrNoStreamAvailable
		}
		return nil, &domain.ResolutionError{Scope: "stream", Reference: item.SourceReference, Err: err}
	}

	size := info.Filesize
	if size == 0 {
		size = info.FilesizeApprox
	}
	return &ytdlpStream{resolver: r, source: item.SourceReference, size: size}, nil
}

func (r *YTDLPResolver) baseArgs() []string {
	var args []string
	if r.config.CookieFile != "" && fileExists(r.config.CookieFile) {
		args = append(args, "--cookies", r.config.CookieFile)
	}
	return args
}

// dumpJSON runs yt-dlp in JSON mode and decodes its stdout
func (r *YTDLPResolver) dumpJSON(ctx context.Context, args ...string) (*ytdlpInfo, error) {
	args = append(r.baseArgs(), args...)

	var stdout, stderr bytes.Buffer
	r.logger.Debug("Running yt-dlp", zap.String("command", ShellEscapeCommand(r.config.YTDLPBinary, args...)))
	if err := r.run(ctx, r.config.YTDLPBinary, args, &stdout, &stderr); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return nil, fmt.Errorf("yt-dlp failed: %w", err)
		}
		return nil, fmt.Errorf("yt-dlp failed: %s: %w", msg, err)
	}

	var info ytdlpInfo
	if err := json.Unmarshal(stdout.Bytes(), &info); err != nil {
		return nil, fmt.Errorf("failed to parse yt-dlp output: %w", err)
	}
	return &info, nil
}

// download fetches source into destPath, logging process output to the download log
func (r *YTDLPResolver) download(ctx context.Context, source, destPath string) error {
	// yt-dlp treats -o as a template
	template := strings.ReplaceAll(destPath, "%", "%%")
	args := append(r.baseArgs(),
		"-f", r.config.YTDLPFormat,
		"-o", template,
		"--no-part",
		"--force-overwrites",
		"--no-playlist",
		source,
	)

	downloadLog, err := r.openLogFile()
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer downloadLog.Close()

	cmdLine := ShellEscapeCommand(r.config.YTDLPBinary, args...)
	writeLogHeader(downloadLog, filepath.Base(destPath), cmdLine)

	// Redirect both stdout and stderr to the same file (like cmd > file 2>&1)
	if err := r.run(ctx, r.config.YTDLPBinary, args, downloadLog, downloadLog); err != nil {
		writeLogFooter(downloadLog, false, fmt.Sprintf("yt-dlp failed: %v", err))
		return fmt.Errorf("yt-dlp failed: %w", err)
	}

	writeLogFooter(downloadLog, true, fmt.Sprintf("Downloaded: %s", destPath))
	return nil
}

// openLogFile opens today's download log
func (r *YTDLPResolver) openLogFile() (*os.File, error) {
	if err := os.MkdirAll(r.logsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create logs directory: %w", err)
	}

	dateStr := time.Now().Format("20060102")
	downloadPath := filepath.Join(r.logsDir, "download-"+dateStr+".log")
	return os.OpenFile(downloadPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
}

// writeLogHeader writes the download start marker
func writeLogHeader(w io.Writer, name, cmdLine string) {
	timestamp := time.Now().Format("2006-01-02 15:04:05")
	fmt.Fprintf(w, "\n=== [%s] Download: %s ===\n", timestamp, name)
	fmt.Fprintf(w, "$ %s\n", cmdLine)
}

// writeLogFooter writes the download end marker
func writeLogFooter(w io.Writer, success bool, message string) {
	timestamp := time.Now().Format("2006-01-02 15:04:05")
	status := "SUCCESS"
	if !success {
		status = "FAILED"
	}
	fmt.Fprintf(w, "[%s] %s: %s\n", timestamp, status, message)
	fmt.Fprint(w, "=== END ===\n\n")
}

type ytdlpStream struct {
	resolver *YTDLPResolver
	source   string
	size     int64
}

func (s *ytdlpStream) Size() int64 {
	return s.size
}

func (s *ytdlpStream) Transfer(ctx context.Context, destPath string) error {
	if err := s.resolver.download(ctx, s.source, destPath); err != nil {
		return &domain.TransferError{Path: destPath, Err: err}
	}
	return nil
}

// fileExists checks if a file exists
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
