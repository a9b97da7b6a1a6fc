// Command flatten runs one flattening pipeline: it streams the records of
// a source out of Postgres, flattens them against a schema file, and
// writes a delimited (or xlsx) export to a file or stdout, optionally
// uploading the result to S3.
//
// Usage:
//
//	flatten -schema schema.json -source events -out events.csv
//	flatten -schema schema.json -source events -format xlsx -out events.xlsx -s3-key exports/events.xlsx
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"flatfeed/internal/config"
	"flatfeed/internal/domain"
	"flatfeed/internal/port"
	"flatfeed/internal/repository/postgres"
	"flatfeed/internal/schema"
	"flatfeed/internal/service"
	s3storage "flatfeed/internal/storage/s3"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	var (
		schemaPath  = flag.String("schema", "schema.json", "path to the field mapping schema file")
		source      = flag.String("source", "", "source name to export (required)")
		outPath     = flag.String("out", "-", "output file, or - for stdout")
		format      = flag.String("format", "csv", "output format: csv or xlsx")
		mode        = flag.String("mode", "", "strict or lenient (default from config)")
		delimiter   = flag.String("delimiter", "", "field delimiter (default from config)")
		placeholder = flag.String("placeholder", "", "token rendered for error-tagged fields")
		window      = flag.Int("window", 0, "prefetch window size (default from config)")
		noHeader    = flag.Bool("no-header", false, "omit the header row")
		s3Key       = flag.String("s3-key", "", "upload the finished export to the configured bucket under this key")
		presign     = flag.Bool("presign", false, "print a presigned download URL after uploading")
	)
	flag.Parse()

	if *source == "" {
		flag.Usage()
		return fmt.Errorf("-source is required")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	sch, err := schema.LoadFile(*schemaPath)
	if err != nil {
		return fmt.Errorf("loading schema: %w", err)
	}

	db, err := postgres.NewDB(&cfg.DB)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer func() { _ = db.Close() }()

	var storage port.ObjectStorage
	if *s3Key != "" {
		storage, err = s3storage.NewS3Client(&cfg.S3)
		if err != nil {
			return fmt.Errorf("initializing S3 client: %w", err)
		}
	}

	svc := service.NewExportService(postgres.NewRecordRepo(db), storage, cfg.Run, cfg.S3)

	opts := service.ExportOptions{
		Source:         *source,
		Placeholder:    *placeholder,
		PrefetchWindow: *window,
		Header:         !*noHeader && cfg.Run.Header,
		WriteBOM:       cfg.Run.BOM && *outPath != "-",
	}
	if *mode != "" {
		opts.Mode, err = domain.ParseMode(*mode)
		if err != nil {
			return err
		}
	}
	if *delimiter != "" {
		rc := config.RunConfig{Delimiter: *delimiter}
		opts.Delimiter = rc.DelimiterRune()
	}

	out := os.Stdout
	if *outPath != "-" {
		out, err = os.Create(*outPath)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer func() { _ = out.Close() }()
	}

	// Ctrl-C cancels the run; the sink is still flushed and closed.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var sum *domain.RunSummary
	switch *format {
	case "csv":
		sum, err = svc.ExportDelimited(ctx, out, sch, opts)
	case "xlsx":
		sum, err = svc.ExportXLSX(ctx, out, sch, opts)
	default:
		return fmt.Errorf("unknown format %q", *format)
	}

	if sum != nil {
		printSummary(sum)
	}
	if err != nil {
		if errors.Is(err, domain.ErrRunAborted) {
			return fmt.Errorf("run aborted: %w", err)
		}
		return err
	}

	if *s3Key != "" && *outPath != "-" {
		if err := upload(ctx, svc, *outPath, *s3Key, *format, *presign); err != nil {
			return err
		}
	}
	return nil
}

func printSummary(sum *domain.RunSummary) {
	b, err := json.MarshalIndent(sum, "", "  ")
	if err != nil {
		log.Printf("rendering summary: %v", err)
		return
	}
	fmt.Fprintln(os.Stderr, string(b))
}

func upload(ctx context.Context, svc service.ExportService, path, key, format string, presign bool) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening export for upload: %w", err)
	}
	defer func() { _ = f.Close() }()

	contentType := "text/csv"
	if format == "xlsx" {
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	out, err := svc.Upload(ctx, key, f, contentType)
	if err != nil {
		return err
	}
	log.Printf("uploaded export to %s", out.Location)

	if presign {
		url, err := svc.PresignedURL(ctx, key)
		if err != nil {
			return err
		}
		fmt.Println(url)
	}
	return nil
}
