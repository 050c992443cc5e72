package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"pkt.systems/version"

	"github.com/novvoo/go-pdfembed/internal/server"
	"github.com/novvoo/go-pdfembed/pkg/dom"
	"github.com/novvoo/go-pdfembed/pkg/embed"
	"github.com/novvoo/go-pdfembed/pkg/engine/fitz"
	"github.com/novvoo/go-pdfembed/pkg/snapshot"
	"github.com/novvoo/go-pdfembed/pkg/viewer"
)

const (
	defaultAddr   = "127.0.0.1:8080"
	defaultOutput = "frames"
)

func init() {
	version.SetDefaultModule("github.com/novvoo/go-pdfembed")
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

type config struct {
	scale     float64
	scaffold  bool
	format    string
	output    string
	addr      string
	logLevel  string
	width     int
	maxSize   int64
	showVer   bool
	page      string
	command   string
	logger    *slog.Logger
	openerFor func(base string) embed.Opener
}

func usage(w io.Writer, flags *pflag.FlagSet) {
	fmt.Fprintln(w, version.Module(), version.Current())
	fmt.Fprintln(w, "Usage: pdfembed <render|serve|view> [flags] <page.html>")
	fmt.Fprintln(w, "\nCommands:")
	fmt.Fprintln(w, "  render   write one frame image per embed to --output")
	fmt.Fprintln(w, "  serve    serve the page, embed state, frames and navigation over HTTP")
	fmt.Fprintln(w, "  view     navigate the embeds from the terminal, rewriting frames after each step")
	fmt.Fprintln(w, "\nFlags:")
	flags.SetOutput(w)
	flags.PrintDefaults()
}

func parseArgs(args []string, stderr io.Writer) (*config, int) {
	cfg := &config{}
	flags := pflag.NewFlagSet("pdfembed", pflag.ContinueOnError)
	flags.SetOutput(io.Discard)
	flags.Float64VarP(&cfg.scale, "scale", "s", viewer.DefaultScale, "Render scale")
	flags.BoolVar(&cfg.scaffold, "scaffold", true, "Create target elements for markers without any")
	flags.StringVarP(&cfg.format, "format", "f", snapshot.FormatPNG, "Frame format: png|jpeg|ppm")
	flags.StringVarP(&cfg.output, "output", "o", defaultOutput, "Frame directory (render, view)")
	flags.StringVar(&cfg.addr, "addr", defaultAddr, "Listen address (serve)")
	flags.StringVar(&cfg.logLevel, "log-level", "info", "Log level: debug|info|warn|error")
	flags.IntVarP(&cfg.width, "width", "w", 0, "Status line width override (0 uses terminal width if available)")
	flags.Int64Var(&cfg.maxSize, "max-size", 0, "Maximum size of a fetched document in bytes (0 uses the engine default)")
	flags.BoolVarP(&cfg.showVer, "version", "v", false, "Print version and exit")
	flags.SetInterspersed(true)

	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			usage(stderr, flags)
			return nil, 0
		}
		fmt.Fprintf(stderr, "%v\n\n", err)
		usage(stderr, flags)
		return nil, 2
	}
	if cfg.showVer {
		fmt.Fprintln(stderr, version.Module(), version.Current())
		return nil, 0
	}

	rest := flags.Args()
	if len(rest) != 2 {
		usage(stderr, flags)
		return nil, 2
	}
	cfg.command, cfg.page = rest[0], rest[1]
	switch cfg.command {
	case "render", "serve", "view":
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n", cfg.command)
		usage(stderr, flags)
		return nil, 2
	}

	format, err := snapshot.NormalizeFormat(cfg.format)
	if err != nil {
		fmt.Fprintf(stderr, "invalid --format: %v\n", err)
		return nil, 2
	}
	cfg.format = format

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.logLevel)); err != nil {
		fmt.Fprintf(stderr, "invalid --log-level %q\n", cfg.logLevel)
		return nil, 2
	}
	cfg.logger = slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
	cfg.openerFor = func(base string) embed.Opener {
		return relativeOpener{
			base: base,
			next: fitz.New(fitz.Options{MaxSize: cfg.maxSize, Logger: cfg.logger}),
		}
	}
	return cfg, -1
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cfg, code := parseArgs(args, stderr)
	if cfg == nil {
		return code
	}
	return execute(cfg, stdin, stdout, stderr)
}

func execute(cfg *config, stdin io.Reader, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	page, err := loadPage(cfg.page)
	if err != nil {
		fmt.Fprintf(stderr, "open page: %v\n", err)
		return 1
	}
	set, bootErr := embed.Bootstrap(ctx, page, cfg.openerFor(filepath.Dir(cfg.page)), embed.Options{
		Scale:    cfg.scale,
		Scaffold: cfg.scaffold,
		Logger:   cfg.logger,
	})
	defer func() {
		if err := set.Close(); err != nil {
			cfg.logger.Warn("close documents", "error", err)
		}
	}()
	if bootErr != nil && len(set.All()) == 0 {
		fmt.Fprintf(stderr, "bootstrap: %v\n", bootErr)
		return 1
	}
	if len(set.All()) == 0 {
		fmt.Fprintln(stderr, "no embeds found")
		return 1
	}

	composer, err := snapshot.NewComposer(snapshot.Options{})
	if err != nil {
		fmt.Fprintf(stderr, "composer: %v\n", err)
		return 1
	}

	switch cfg.command {
	case "render":
		if err := renderFrames(set, composer, cfg.output, cfg.format, stdout); err != nil {
			fmt.Fprintf(stderr, "render: %v\n", err)
			return 1
		}
	case "serve":
		if err := serve(ctx, page, set, composer, cfg); err != nil {
			fmt.Fprintf(stderr, "serve: %v\n", err)
			return 1
		}
	case "view":
		v := &terminalViewer{
			set:      set,
			composer: composer,
			dir:      cfg.output,
			format:   cfg.format,
			width:    resolveWidth(cfg.width, stdout),
			out:      stdout,
		}
		if err := v.run(ctx, stdin); err != nil {
			fmt.Fprintf(stderr, "view: %v\n", err)
			return 1
		}
	}
	if bootErr != nil {
		// Some embeds failed; their frames still show the loader.
		return 1
	}
	return 0
}

func loadPage(path string) (*dom.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return dom.Parse(f)
}

// relativeOpener resolves relative local sources against the page directory.
type relativeOpener struct {
	base string
	next embed.Opener
}

func (o relativeOpener) Open(ctx context.Context, source string) (viewer.Document, error) {
	if !strings.Contains(source, "://") && !filepath.IsAbs(source) {
		source = filepath.Join(o.base, source)
	}
	return o.next.Open(ctx, source)
}

// framePath returns the file name of the frame of embed id.
func framePath(dir, id, format string) string {
	return filepath.Join(dir, id+"."+snapshot.Ext(format))
}

func writeFrame(e *embed.Embed, composer *snapshot.Composer, dir, format string) (string, error) {
	path := framePath(dir, e.ID(), format)
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if err := snapshot.Encode(f, composer.Compose(e.Region.Frame()), format); err != nil {
		_ = f.Close()
		return "", err
	}
	return path, f.Close()
}

func renderFrames(set *embed.Set, composer *snapshot.Composer, dir, format string, stdout io.Writer) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for _, e := range set.All() {
		if e.Region == nil {
			fmt.Fprintf(stdout, "%s: skipped (%v)\n", e.ID(), e.Err)
			continue
		}
		path, err := writeFrame(e, composer, dir, format)
		if err != nil {
			return fmt.Errorf("%s: %w", e.ID(), err)
		}
		fmt.Fprintf(stdout, "%s: %s\n", e.ID(), path)
	}
	return nil
}

func serve(ctx context.Context, page *dom.Document, set *embed.Set, composer *snapshot.Composer, cfg *config) error {
	srv, err := server.New(page, set, composer, server.Options{Format: cfg.format, Logger: cfg.logger})
	if err != nil {
		return err
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.Start(cfg.addr) }()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
