package etl

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/athena"
	"github.com/aws/aws-sdk-go-v2/service/glue"
	"github.com/sirupsen/logrus"

	"abalone/internal/capture"
	"abalone/internal/config"
	"abalone/internal/inference"
)

// ExportConfig says where capture is read from and where Parquet goes.
type ExportConfig struct {
	Bucket        string
	CapturePrefix string
	Endpoint      string
	Variant       string
	ExportPrefix  string
	HoursBack     int

	GlueDatabase string
	Table        string
	Athena       config.AthenaConfig
}

func ExportConfigFrom(cfg *config.Config, endpoint string) ExportConfig {
	return ExportConfig{
		Bucket:        cfg.Capture.Bucket,
		CapturePrefix: cfg.Capture.Prefix,
		Endpoint:      endpoint,
		Variant:       cfg.Capture.Variant,
		ExportPrefix:  cfg.Capture.ExportPrefix,
		HoursBack:     cfg.Capture.HoursBack,
		GlueDatabase:  cfg.Capture.GlueDatabase,
		Table:         cfg.Capture.Table,
		Athena:        cfg.Athena,
	}
}

// Location is the S3 root of the exported table.
func (c ExportConfig) Location() string {
	return fmt.Sprintf("s3://%s/%s", c.Bucket, ensureTrailingSlash(c.ExportPrefix))
}

type CaptureExport struct {
	store  *capture.Store
	glue   GlueClient
	athena AthenaClient
	cfg    ExportConfig
	log    logrus.FieldLogger
	now    func() time.Time
}

func NewCaptureExport(awsCfg aws.Config, cfg ExportConfig, log logrus.FieldLogger) *CaptureExport {
	return NewCaptureExportWithClients(
		capture.NewStore(awsCfg, cfg.Bucket),
		glue.NewFromConfig(awsCfg),
		athena.NewFromConfig(awsCfg),
		cfg,
		log,
	)
}

func NewCaptureExportWithClients(store *capture.Store, g GlueClient, a AthenaClient, cfg ExportConfig, log logrus.FieldLogger) *CaptureExport {
	return &CaptureExport{store: store, glue: g, athena: a, cfg: cfg, log: log, now: time.Now}
}

type ExportResult struct {
	OK           bool          `json:"ok"`
	Hours        int           `json:"hours"`
	Records      int           `json:"records"`
	Written      []string      `json:"written"`
	TableCreated bool          `json:"table_created,omitempty"`
	Repair       *RepairResult `json:"repair,omitempty"`
}

// Handle is triggered by an EventBridge schedule.
//
// For each hour in the window it writes the captured records to
//
//	{exportPrefix}dt=YYYY-MM-DD/hour=HH/part-<rand>.parquet
//
// then makes sure the Glue table exists and refreshes its partitions.
func (h *CaptureExport) Handle(ctx context.Context, _ events.CloudWatchEvent) (*ExportResult, error) {
	return h.Run(ctx, h.now())
}

func (h *CaptureExport) Run(ctx context.Context, end time.Time) (*ExportResult, error) {
	if h.cfg.Bucket == "" {
		return nil, fmt.Errorf("missing env CAPTURE_BUCKET")
	}
	if h.cfg.Endpoint == "" {
		return nil, fmt.Errorf("missing endpoint name")
	}

	hours := capture.Hours(end, h.cfg.HoursBack)
	res := &ExportResult{Hours: len(hours), Written: []string{}}

	for _, hour := range hours {
		log := h.log.WithField("hour", hour.Format(time.RFC3339))

		recs, err := h.store.ReadHour(ctx, h.cfg.CapturePrefix, h.cfg.Endpoint, h.cfg.Variant, hour)
		if err != nil {
			return nil, fmt.Errorf("read capture for %s: %w", hour.Format(time.RFC3339), err)
		}
		if len(recs) == 0 {
			log.Debug("no capture for hour")
			continue
		}

		rows, err := ToRows(recs, h.cfg.Endpoint, h.cfg.Variant)
		if err != nil {
			return nil, err
		}
		data, err := encodeParquet(rows)
		if err != nil {
			return nil, fmt.Errorf("encode parquet for %s: %w", hour.Format(time.RFC3339), err)
		}

		key := ExportKey(h.cfg.ExportPrefix, hour, randHex(8))
		if err := h.store.Put(ctx, key, data, "application/octet-stream"); err != nil {
			return nil, err
		}
		log.WithFields(logrus.Fields{"key": key, "rows": len(rows)}).Info("capture exported")

		res.Records += len(rows)
		res.Written = append(res.Written, key)
	}

	if h.cfg.GlueDatabase != "" && h.cfg.Table != "" {
		created, err := EnsureCaptureTable(ctx, h.glue, h.cfg.GlueDatabase, h.cfg.Table, h.cfg.Location())
		if err != nil {
			return nil, err
		}
		res.TableCreated = created

		if len(res.Written) > 0 && h.cfg.Athena.OutputLocation != "" {
			rr, err := RepairPartitions(ctx, h.athena, RepairOptions{
				Database:       h.cfg.GlueDatabase,
				Table:          h.cfg.Table,
				Workgroup:      h.cfg.Athena.Workgroup,
				OutputLocation: h.cfg.Athena.OutputLocation,
			})
			res.Repair = rr
			if err != nil {
				return res, err
			}
		}
	}

	res.OK = true
	return res, nil
}

// ToRows flattens capture records. Outputs that are not a ring count keep
// their raw text and zero rings.
func ToRows(recs []capture.Record, endpoint, variant string) ([]CaptureRow, error) {
	rows := make([]CaptureRow, 0, len(recs))
	for _, r := range recs {
		in, err := r.CaptureData.EndpointInput.Text()
		if err != nil {
			return nil, fmt.Errorf("event %s: %w", r.EventMetadata.EventID, err)
		}
		out, err := r.CaptureData.EndpointOutput.Text()
		if err != nil {
			return nil, fmt.Errorf("event %s: %w", r.EventMetadata.EventID, err)
		}

		row := CaptureRow{
			EventID:       r.EventMetadata.EventID,
			InferenceID:   r.EventMetadata.InferenceID,
			InferenceTime: r.EventMetadata.InferenceTime,
			EndpointName:  endpoint,
			VariantName:   variant,
			InputCSV:      strings.TrimSpace(in),
			OutputRaw:     strings.TrimSpace(out),
		}
		if p, err := inference.ParsePrediction([]byte(out)); err == nil {
			row.Rings = int64(p.Rings)
			row.AgeYears = p.Age
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func ExportKey(prefix string, hour time.Time, part string) string {
	hour = hour.UTC()
	return fmt.Sprintf("%sdt=%s/hour=%s/part-%s.parquet",
		ensureTrailingSlash(prefix),
		hour.Format("2006-01-02"),
		hour.Format("15"),
		part,
	)
}

func ensureTrailingSlash(s string) string {
	if s == "" {
		return ""
	}
	if strings.HasSuffix(s, "/") {
		return s
	}
	return s + "/"
}
