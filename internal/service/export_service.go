package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"flatfeed/internal/aggregate"
	"flatfeed/internal/config"
	"flatfeed/internal/domain"
	"flatfeed/internal/flatten"
	"flatfeed/internal/port"
	"flatfeed/internal/schema"
	"flatfeed/internal/sink"
	"flatfeed/internal/stream"
)

// ExportOptions parameterizes one run. Zero values fall back to the
// configured defaults.
type ExportOptions struct {
	Source         string
	Mode           domain.Mode
	Delimiter      rune
	Placeholder    string
	Header         bool
	WriteBOM       bool
	PrefetchWindow int

	// GroupBy and StatsColumns enable the aggregation tee.
	GroupBy      []string
	StatsColumns []string
}

// ExportService runs flattening pipelines against the record store.
type ExportService interface {
	// ExportDelimited streams a delimited export for one source into w.
	ExportDelimited(ctx context.Context, w io.Writer, s *schema.Schema, opts ExportOptions) (*domain.RunSummary, error)
	// ExportXLSX writes a spreadsheet export for one source into w.
	ExportXLSX(ctx context.Context, w io.Writer, s *schema.Schema, opts ExportOptions) (*domain.RunSummary, error)
	// Summarize runs the pipeline into a discarding sink, returning the
	// run summary and, when opts enables it, grouped statistics.
	Summarize(ctx context.Context, s *schema.Schema, opts ExportOptions) (*domain.RunSummary, map[string]aggregate.GroupStats, error)
	// Upload stores a finished export artifact in object storage.
	Upload(ctx context.Context, key string, body io.Reader, contentType string) (*port.UploadOutput, error)
	// PresignedURL returns a time-limited download URL for an uploaded
	// export.
	PresignedURL(ctx context.Context, key string) (string, error)
}

type exportService struct {
	store   port.RecordStore
	storage port.ObjectStorage // nil when no bucket is configured
	runCfg  config.RunConfig
	s3Cfg   config.S3Config
}

// NewExportService creates an ExportService. storage may be nil when no
// object storage destination is configured.
func NewExportService(store port.RecordStore, storage port.ObjectStorage, runCfg config.RunConfig, s3Cfg config.S3Config) ExportService {
	return &exportService{store: store, storage: storage, runCfg: runCfg, s3Cfg: s3Cfg}
}

func (s *exportService) ExportDelimited(ctx context.Context, w io.Writer, sch *schema.Schema, opts ExportOptions) (*domain.RunSummary, error) {
	opts = s.withDefaults(opts)
	snk, err := sink.NewDelimited(w, sch, sink.DelimitedOptions{
		Delimiter:   opts.Delimiter,
		Placeholder: opts.Placeholder,
		Header:      opts.Header,
		WriteBOM:    opts.WriteBOM,
	})
	if err != nil {
		return nil, err
	}
	return s.run(ctx, sch, opts, snk, nil)
}

func (s *exportService) ExportXLSX(ctx context.Context, w io.Writer, sch *schema.Schema, opts ExportOptions) (*domain.RunSummary, error) {
	opts = s.withDefaults(opts)
	snk, err := sink.NewXLSX(w, sch, opts.Placeholder)
	if err != nil {
		return nil, err
	}
	return s.run(ctx, sch, opts, snk, nil)
}

func (s *exportService) Summarize(ctx context.Context, sch *schema.Schema, opts ExportOptions) (*domain.RunSummary, map[string]aggregate.GroupStats, error) {
	opts = s.withDefaults(opts)
	var agg *aggregate.Aggregator
	if len(opts.GroupBy) > 0 || len(opts.StatsColumns) > 0 {
		agg = aggregate.New(opts.GroupBy, opts.StatsColumns)
	}
	sum, err := s.run(ctx, sch, opts, sink.NewDiscard(), agg)
	if err != nil {
		return sum, nil, err
	}
	if agg == nil {
		return sum, nil, nil
	}
	return sum, agg.Snapshot(), nil
}

// run wires provider -> prefetch window -> flattener -> sink and
// guarantees the sink and provider are released on every exit path,
// including cancellation and strict-mode abort.
func (s *exportService) run(ctx context.Context, sch *schema.Schema, opts ExportOptions, snk port.OutputSink, tee flatten.Observer) (sum *domain.RunSummary, err error) {
	provider, err := s.store.Stream(ctx, opts.Source)
	if err != nil {
		if cerr := snk.Close(); cerr != nil {
			log.Printf("exportService: closing sink: %v", cerr)
		}
		return nil, fmt.Errorf("opening record stream: %w", err)
	}

	pf := stream.NewPrefetcher(provider, opts.PrefetchWindow)
	pf.Start(ctx)
	defer func() {
		if cerr := pf.Close(); cerr != nil {
			log.Printf("exportService: closing stream: %v", cerr)
		}
	}()
	defer func() {
		cerr := snk.Close()
		if cerr != nil && !errors.Is(cerr, domain.ErrSinkClosed) && err == nil {
			err = fmt.Errorf("closing sink: %w", cerr)
		}
	}()

	fl := &flatten.Flattener{
		Schema:        sch,
		Mode:          opts.Mode,
		Tee:           tee,
		Progress:      s.logProgress(opts.Source),
		ProgressEvery: s.runCfg.ProgressEvery,
	}
	sum, err = fl.Run(ctx, pf, snk)
	return sum, err
}

func (s *exportService) logProgress(source string) func(*domain.RunSummary) {
	return func(sum *domain.RunSummary) {
		log.Printf("exportService: source %s: %d records processed (%d ok, %d skipped)",
			source, sum.TotalRecords, sum.SuccessfulRecords, sum.MalformedSkipped)
	}
}

func (s *exportService) Upload(ctx context.Context, key string, body io.Reader, contentType string) (*port.UploadOutput, error) {
	if s.storage == nil || s.s3Cfg.Bucket == "" {
		return nil, fmt.Errorf("object storage is not configured")
	}
	out, err := s.storage.Upload(ctx, port.UploadInput{
		Bucket:      s.s3Cfg.Bucket,
		Key:         key,
		Body:        body,
		ContentType: contentType,
	})
	if err != nil {
		return nil, fmt.Errorf("uploading export: %w", err)
	}
	return out, nil
}

func (s *exportService) PresignedURL(ctx context.Context, key string) (string, error) {
	if s.storage == nil || s.s3Cfg.Bucket == "" {
		return "", fmt.Errorf("object storage is not configured")
	}
	return s.storage.GetPresignedURL(ctx, s.s3Cfg.Bucket, key, s.s3Cfg.PresignExpiry)
}

// withDefaults fills unset options from configuration.
func (s *exportService) withDefaults(opts ExportOptions) ExportOptions {
	if opts.Mode == "" {
		if m, err := domain.ParseMode(s.runCfg.Mode); err == nil {
			opts.Mode = m
		} else {
			opts.Mode = domain.ModeLenient
		}
	}
	if opts.Delimiter == 0 {
		opts.Delimiter = s.runCfg.DelimiterRune()
	}
	if opts.Placeholder == "" {
		opts.Placeholder = s.runCfg.Placeholder
	}
	if opts.PrefetchWindow == 0 {
		opts.PrefetchWindow = s.runCfg.PrefetchWindow
	}
	return opts
}
