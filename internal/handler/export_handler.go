package handler

import (
	"log"
	"strings"

	"github.com/gin-gonic/gin"

	"flatfeed/internal/config"
	"flatfeed/internal/domain"
	"flatfeed/internal/middleware"
	"flatfeed/internal/schema"
	"flatfeed/internal/service"
	"flatfeed/internal/sink"
)

// ExportHandler serves flattened exports over HTTP. The schema is loaded
// once at startup and shared read-only across requests.
type ExportHandler struct {
	exportService service.ExportService
	schema        *schema.Schema
	runCfg        config.RunConfig
}

// NewExportHandler creates a new ExportHandler.
func NewExportHandler(exportService service.ExportService, s *schema.Schema, runCfg config.RunConfig) *ExportHandler {
	return &ExportHandler{exportService: exportService, schema: s, runCfg: runCfg}
}

// ExportCSV handles GET /api/v1/exports/:source/csv. The delimited body is
// streamed directly to the client; headers are committed before the run
// starts, so a mid-stream abort is logged and truncates the body.
func (h *ExportHandler) ExportCSV(c *gin.Context) {
	opts, ok := h.parseOptions(c)
	if !ok {
		return
	}

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="`+sink.BuildFilename(opts.Source, "csv")+`"`)

	sum, err := h.exportService.ExportDelimited(c.Request.Context(), c.Writer, h.schema, opts)
	requestID := c.GetString(middleware.RequestIDKey)
	if err != nil {
		log.Printf("exportHandler: source %s: %v request_id=%s", opts.Source, err, requestID)
		return
	}
	log.Printf("exportHandler: source %s: exported %d records (%d ok) request_id=%s",
		opts.Source, sum.TotalRecords, sum.SuccessfulRecords, requestID)
}

// ExportXLSX handles GET /api/v1/exports/:source/xlsx.
func (h *ExportHandler) ExportXLSX(c *gin.Context) {
	opts, ok := h.parseOptions(c)
	if !ok {
		return
	}

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", `attachment; filename="`+sink.BuildFilename(opts.Source, "xlsx")+`"`)

	sum, err := h.exportService.ExportXLSX(c.Request.Context(), c.Writer, h.schema, opts)
	requestID := c.GetString(middleware.RequestIDKey)
	if err != nil {
		log.Printf("exportHandler: source %s: %v request_id=%s", opts.Source, err, requestID)
		return
	}
	log.Printf("exportHandler: source %s: exported %d records (%d ok) request_id=%s",
		opts.Source, sum.TotalRecords, sum.SuccessfulRecords, requestID)
}

// Summary handles GET /api/v1/exports/:source/summary. It runs the
// pipeline without producing a file and returns the run summary, plus
// grouped statistics when group_by or stats columns are given.
func (h *ExportHandler) Summary(c *gin.Context) {
	opts, ok := h.parseOptions(c)
	if !ok {
		return
	}
	opts.GroupBy = splitParam(c.Query("group_by"))
	opts.StatsColumns = splitParam(c.Query("stats"))

	sum, groups, err := h.exportService.Summarize(c.Request.Context(), h.schema, opts)
	if err != nil && sum == nil {
		RespondError(c, err)
		return
	}
	payload := gin.H{"summary": sum}
	if groups != nil {
		payload["groups"] = groups
	}
	if err != nil {
		// Aborted strict runs still carry a useful summary.
		payload["error"] = err.Error()
	}
	RespondOK(c, payload)
}

func (h *ExportHandler) parseOptions(c *gin.Context) (service.ExportOptions, bool) {
	opts := service.ExportOptions{
		Source:      c.Param("source"),
		Header:      h.runCfg.Header,
		WriteBOM:    h.runCfg.BOM,
		Placeholder: c.DefaultQuery("placeholder", h.runCfg.Placeholder),
	}
	if opts.Source == "" {
		RespondBadRequest(c, "source is required")
		return opts, false
	}
	if m := c.Query("mode"); m != "" {
		mode, err := domain.ParseMode(m)
		if err != nil {
			RespondBadRequest(c, err.Error())
			return opts, false
		}
		opts.Mode = mode
	}
	if d := c.Query("delimiter"); d != "" {
		rc := config.RunConfig{Delimiter: d}
		opts.Delimiter = rc.DelimiterRune()
	}
	return opts, true
}

func splitParam(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
