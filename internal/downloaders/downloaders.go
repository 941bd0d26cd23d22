// Package downloaders wraps the external download tools (spotdl, yt-dlp,
// scdl) behind one adapter interface.
//
// Adapters build an exec spec for their tool and hand it to a [ToolRunner];
// they never parse tool output beyond exit status and the files the tool
// leaves on disk. A failed link degrades to an unsuccessful [Outcome], it
// never aborts the run.
package downloaders

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"

	"github.com/TC6IDM/SPOTMP3/internal/links"
	"github.com/TC6IDM/SPOTMP3/internal/reconcile"
	"github.com/TC6IDM/SPOTMP3/internal/shared"
)

const (
	// DefaultTimeout bounds one tool invocation.
	DefaultTimeout = time.Hour

	excerptLimit = 2000
	timestampFmt = "20060102150405"
)

// Downloader is the capability set every provider adapter implements.
type Downloader interface {
	Name() string

	// Download invokes the external tool for one link. Tool failures are
	// reported through the Outcome; the error is reserved for infrastructure
	// problems (context cancellation, tool not startable).
	Download(ctx context.Context, link links.Link) (*Outcome, error)

	// FetchMetadata resolves the playlist name for a link, persisting any
	// metadata artifacts as a side effect. Providers whose playlist names are
	// only discoverable from disk return "".
	FetchMetadata(ctx context.Context, link links.Link) (string, error)

	// Cleanup consolidates sidecar metadata and reconciles the playlists this
	// download produced.
	Cleanup(ctx context.Context, playlistName string) ([]*reconcile.Report, error)
}

// Outcome is the result of invoking one provider adapter on one link.
type Outcome struct {
	Provider   links.Provider
	URL        string
	Success    bool
	ExitCode   int
	ErrorsFile string
	Excerpt    string
	Failed     []FailedSong // parsed from the tool's errors file when available
}

// ExecSpec describes one external tool invocation.
type ExecSpec struct {
	Binary  string
	Args    []string
	Dir     string
	Timeout time.Duration
}

// ExecResult carries the exit status and combined output of one invocation.
type ExecResult struct {
	ExitCode int
	Output   string
}

// ToolRunner executes an ExecSpec. A nonzero tool exit is reported through
// the result, not the error.
type ToolRunner interface {
	Run(ctx context.Context, spec ExecSpec) (*ExecResult, error)
}

// Options carries the shared dependencies for adapter construction.
type Options struct {
	FS         afero.Fs
	Runner     ToolRunner
	Logger     *log.Logger
	OutputRoot string
	Timeout    time.Duration
}

func (o *Options) defaults() {
	if o.FS == nil {
		o.FS = afero.NewOsFs()
	}
	if o.Runner == nil {
		o.Runner = NewOSRunner(os.Stdout)
	}
	if o.Logger == nil {
		o.Logger = shared.NewLogger(nil)
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
}

// base holds what every adapter needs: the output tree, the error log
// directory and the reconciliation engine.
type base struct {
	fs      afero.Fs
	runner  ToolRunner
	logger  *log.Logger
	root    string
	timeout time.Duration
	engine  *reconcile.Engine
}

func newBase(opts Options) base {
	opts.defaults()
	return base{
		fs:      opts.FS,
		runner:  opts.Runner,
		logger:  opts.Logger,
		root:    opts.OutputRoot,
		timeout: opts.Timeout,
		engine:  reconcile.NewEngine(opts.FS, opts.Logger),
	}
}

// ErrorsDir returns the per-run error log directory under an output root.
func ErrorsDir(root string) string {
	return filepath.Join(root, ".errors")
}

// errorsFile builds a timestamped error log path, e.g. ".errors/scdl-20240101120000.txt".
func (b *base) errorsFile(prefix string) string {
	return filepath.Join(ErrorsDir(b.root), fmt.Sprintf("%s-%s.txt", prefix, time.Now().Format(timestampFmt)))
}

func (b *base) appendError(path, entry string) {
	if err := b.fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		b.logger.Error("failed to create errors dir", "err", err)
		return
	}
	f, err := b.fs.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		b.logger.Error("failed to open errors file", "path", path, "err", err)
		return
	}
	defer f.Close()
	fmt.Fprintln(f, entry)
}

// run executes one tool invocation and folds the result into an Outcome. Nonzero exits
// append an excerpt to the errors file and are never fatal.
func (b *base) run(ctx context.Context, provider links.Provider, link links.Link, spec ExecSpec, errorsFile string) (*Outcome, error) {
	if err := b.fs.MkdirAll(b.root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output dir: %w", err)
	}

	outcome := &Outcome{Provider: provider, URL: link.URL, ErrorsFile: errorsFile}

	res, err := b.runner.Run(ctx, spec)
	if res != nil {
		outcome.ExitCode = res.ExitCode
		outcome.Excerpt = tail(res.Output, excerptLimit)
	}
	if err != nil {
		if ctx.Err() != nil {
			return outcome, ctx.Err()
		}
		outcome.ExitCode = -1
		outcome.Excerpt = err.Error()
		b.logger.Error("tool failed to run", "tool", spec.Binary, "url", link.CleanURL(), "err", err)
		b.appendError(errorsFile, fmt.Sprintf("%s - %v", link.URL, err))
		return outcome, nil
	}

	if outcome.ExitCode == 0 {
		outcome.Success = true
		b.logger.Info("tool complete", "tool", spec.Binary, "url", link.CleanURL())
	} else {
		b.logger.Warn("tool exited nonzero", "tool", spec.Binary, "url", link.CleanURL(), "code", outcome.ExitCode)
		b.appendError(errorsFile, fmt.Sprintf("%s - exit code %d\n%s", link.URL, outcome.ExitCode, outcome.Excerpt))
	}

	return outcome, nil
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
