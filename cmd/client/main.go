package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/meetinsight/meeting-insight/internal/pageclient"
	"github.com/meetinsight/meeting-insight/internal/platform/logger"
)

// listFlag collects a repeatable string flag.
type listFlag []string

func (l *listFlag) String() string { return strings.Join(*l, ",") }

func (l *listFlag) Set(v string) error {
	*l = append(*l, v)
	return nil
}

type options struct {
	server  string
	page    string
	files   listFlag
	fields  listFlag
	method  string
	analyze bool
	timeout time.Duration
}

func main() {
	_ = godotenv.Load()

	var opts options
	flag.StringVar(&opts.server, "server", envOr("MEETING_INSIGHT_URL", "http://localhost:8080"), "backend base URL")
	flag.StringVar(&opts.page, "page", "/upload", "path of the upload page")
	flag.Var(&opts.files, "file", "transcript to attach to the upload form (repeatable)")
	flag.Var(&opts.fields, "field", "form field to set, as name=value (repeatable)")
	flag.StringVar(&opts.method, "method", "", "analysis method radio to check before acting")
	flag.BoolVar(&opts.analyze, "analyze", false, "click the analyze button after the upload")
	flag.DurationVar(&opts.timeout, "timeout", 0, "per-request timeout (0 waits indefinitely)")
	flag.Parse()

	log := logger.NewText(os.Stderr, envOr("LOG_LEVEL", "INFO"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, opts, os.Stdout, log); err != nil {
		log.Error("client failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options, out io.Writer, log *slog.Logger) error {
	cfg := pageclient.DefaultConfig(opts.server)
	cfg.Timeout = opts.timeout

	pageURL := strings.TrimRight(opts.server, "/") + opts.page
	doc, err := pageclient.Load(ctx, cfg.HTTPClient, pageURL)
	if err != nil {
		return fmt.Errorf("load %s: %w", pageURL, err)
	}
	b := pageclient.Bind(doc, cfg)

	if opts.method != "" {
		methods := doc.RadioGroup(cfg.Elements.MethodGroup)
		if !slices.Contains(methods.Values(), opts.method) {
			return fmt.Errorf("-method %q: the page offers %s", opts.method, strings.Join(methods.Values(), ", "))
		}
		if err := methods.Select(opts.method); err != nil {
			return err
		}
	}

	if len(opts.files) > 0 || len(opts.fields) > 0 {
		if b.Upload == nil {
			return fmt.Errorf("upload form: %w", pageclient.ErrNotBound)
		}
		if err := fillForm(b.Upload.Form(), opts); err != nil {
			return err
		}
		log.Info("submitting upload form", "files", len(opts.files))
		if err := report(out, "upload", b.SubmitUpload(ctx)); err != nil {
			return err
		}
	}

	if opts.analyze {
		log.Info("clicking analyze button")
		if err := report(out, "analyze", b.ClickAnalyze(ctx)); err != nil {
			return err
		}
	}
	return nil
}

func fillForm(form *pageclient.Form, opts options) error {
	for _, kv := range opts.fields {
		name, value, ok := strings.Cut(kv, "=")
		if !ok {
			return fmt.Errorf("-field %q: want name=value", kv)
		}
		if err := form.SetValue(name, value); err != nil {
			return err
		}
	}
	for _, path := range opts.files {
		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		file := pageclient.File{Name: filepath.Base(path), Content: content}
		if err := form.AttachFile("files", file); err != nil {
			return err
		}
	}
	return nil
}

func report(out io.Writer, action string, o pageclient.Outcome) error {
	if o.Failed() {
		return fmt.Errorf("%s: %w", action, o.Err)
	}
	body, err := json.MarshalIndent(o.Payload, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s: HTTP %d\n%s\n", action, o.StatusCode, body)
	if !o.OK() {
		return errors.New(action + ": backend rejected the request")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
