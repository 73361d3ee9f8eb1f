// Package review collects source files from local directories and assembles
// them into a single code-review prompt.
package review

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/raphaelgruber/chatmem-go/internal/models"
)

// ErrAccessDenied means a requested directory lies outside the configured
// allow-list.
var ErrAccessDenied = errors.New("directory not in the allowed review paths")

// FileGateway abstracts filesystem access so the collector can be tested
// against a fake tree.
type FileGateway interface {
	WalkDir(root string, fn fs.WalkDirFunc) error
	ReadFile(path string) ([]byte, error)
}

// OSGateway reads from the real filesystem.
type OSGateway struct{}

func (OSGateway) WalkDir(root string, fn fs.WalkDirFunc) error { return filepath.WalkDir(root, fn) }
func (OSGateway) ReadFile(path string) ([]byte, error)         { return os.ReadFile(path) }

// Directories never descended into.
var skipDirs = map[string]struct{}{
	"node_modules": {},
	".git":         {},
	"vendor":       {},
	"dist":         {},
	"build":        {},
	"target":       {},
	"__pycache__":  {},
	".venv":        {},
	"venv":         {},
	".idea":        {},
	".vscode":      {},
	".cache":       {},
	"coverage":     {},
}

// File extensions excluded as binary, media, or archive content.
var skipExts = map[string]struct{}{
	".png": {}, ".jpg": {}, ".jpeg": {}, ".gif": {}, ".ico": {}, ".webp": {},
	".pdf": {}, ".zip": {}, ".tar": {}, ".gz": {}, ".bz2": {}, ".7z": {},
	".exe": {}, ".dll": {}, ".so": {}, ".dylib": {}, ".bin": {}, ".o": {}, ".a": {},
	".woff": {}, ".woff2": {}, ".ttf": {}, ".otf": {}, ".eot": {},
	".mp3": {}, ".mp4": {}, ".mov": {}, ".avi": {}, ".wav": {},
	".lock": {},
}

// Exact or prefix filename exclusions (case-insensitive).
var skipNames = []string{
	".ds_store",
	"package-lock.json",
	"yarn.lock",
	"go.sum",
	"license",
	"changelog",
}

// Report is the outcome of a collection run.
type Report struct {
	Prompt  string
	Files   []string
	Skipped int
}

// Collector walks allowed directories and builds review prompts.
type Collector struct {
	gateway      FileGateway
	allowed      []string
	maxFileBytes int
	logger       *slog.Logger
}

// DefaultMaxFileBytes caps how much of a single file enters the prompt.
const DefaultMaxFileBytes = 64 * 1024

// NewCollector creates a collector restricted to the allowed roots. An empty
// allow-list denies every request.
func NewCollector(gateway FileGateway, allowed []string, logger *slog.Logger) *Collector {
	roots := make([]string, 0, len(allowed))
	for _, dir := range allowed {
		if abs, err := filepath.Abs(dir); err == nil {
			roots = append(roots, abs)
		}
	}
	return &Collector{
		gateway:      gateway,
		allowed:      roots,
		maxFileBytes: DefaultMaxFileBytes,
		logger:       logger,
	}
}

// Collect gathers every reviewable file under the given directories and
// returns a prompt that starts with the review marker, so conversations
// created from it title themselves accordingly.
func (c *Collector) Collect(ctx context.Context, dirs []string) (*Report, error) {
	if len(dirs) == 0 {
		return nil, errors.New("no directories given")
	}

	report := &Report{}
	var body strings.Builder

	for _, dir := range dirs {
		abs, err := filepath.Abs(dir)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", dir, err)
		}
		if !c.allowedRoot(abs) {
			return nil, fmt.Errorf("%w: %s", ErrAccessDenied, dir)
		}
		if err := c.collectDir(ctx, abs, report, &body); err != nil {
			return nil, err
		}
	}

	if len(report.Files) == 0 {
		return nil, errors.New("no reviewable files found")
	}

	var prompt strings.Builder
	prompt.WriteString(models.ReviewPromptMarker)
	prompt.WriteString("\n\nPlease review the following files. Point out bugs, unclear naming, and anything that would not survive a code review.\n\n")
	prompt.WriteString(body.String())
	report.Prompt = prompt.String()

	c.logger.Info("review collection finished",
		"files", len(report.Files), "skipped", report.Skipped)
	return report, nil
}

func (c *Collector) collectDir(ctx context.Context, root string, report *Report, body *strings.Builder) error {
	return c.gateway.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable entries are skipped, not fatal.
			report.Skipped++
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		if d.IsDir() {
			if _, skip := skipDirs[strings.ToLower(d.Name())]; skip && path != root {
				return fs.SkipDir
			}
			return nil
		}

		if excludedFile(d.Name()) {
			report.Skipped++
			return nil
		}

		data, err := c.gateway.ReadFile(path)
		if err != nil {
			report.Skipped++
			return nil
		}
		if !isText(data) {
			report.Skipped++
			return nil
		}

		content, truncated := trimToLimit(string(data), c.maxFileBytes)

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			rel = path
		}
		report.Files = append(report.Files, rel)

		fmt.Fprintf(body, "## %s\n\n```%s\n%s\n```\n\n",
			rel, fenceLang(path), content)
		if truncated {
			body.WriteString("(file truncated)\n\n")
		}
		return nil
	})
}

func (c *Collector) allowedRoot(abs string) bool {
	for _, root := range c.allowed {
		if abs == root || strings.HasPrefix(abs, root+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

func excludedFile(name string) bool {
	lower := strings.ToLower(name)
	if _, skip := skipExts[filepath.Ext(lower)]; skip {
		return true
	}
	for _, skip := range skipNames {
		if strings.HasPrefix(lower, skip) {
			return true
		}
	}
	return false
}

// isText rejects files containing NUL bytes in their first kilobyte.
func isText(data []byte) bool {
	probe := data
	if len(probe) > 1024 {
		probe = probe[:1024]
	}
	for _, b := range probe {
		if b == 0 {
			return false
		}
	}
	return true
}

func fenceLang(path string) string {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	return strings.ToLower(ext)
}
