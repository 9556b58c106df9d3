package metrics

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/gridfold/ucommit/core/model"
	"github.com/gridfold/ucommit/infra/logger"
)

// InfluxSink writes build records and result rows to an InfluxDB instance
// using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback pings the InfluxDB instance and returns a
// NopSink if the health check fails.
func NewInfluxSinkWithFallback(cfg Config) Sink {
	sink := NewInfluxSink(cfg.InfluxURL, cfg.InfluxToken, cfg.InfluxOrg, cfg.InfluxBucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return NopSink{}
	}
	return sink
}

// RecordBuild writes one point per model build.
func (s *InfluxSink) RecordBuild(rec BuildRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("ucommit_build").
		AddTag("scenario", rec.Scenario).
		AddTag("fidelity", rec.Fidelity).
		AddField("variables", rec.Variables).
		AddField("constraints", rec.Constraints).
		AddField("duration_ms", rec.Duration.Milliseconds()).
		AddField("build_id", rec.BuildID).
		SetTime(time.Now())
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordResults writes one point per (unit, timepoint) result row.
func (s *InfluxSink) RecordResults(scenario string, rows []model.ResultRow) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	now := time.Now()
	for _, r := range rows {
		p := write.NewPointWithMeasurement("unit_commitment").
			AddTag("scenario", scenario).
			AddTag("unit", r.Unit).
			AddTag("timepoint", strconv.Itoa(r.Timepoint)).
			AddField("gross_power_mw", round3(r.GrossPowerMW)).
			AddField("net_power_mw", round3(r.NetPowerMW)).
			AddField("committed_mw", round3(r.CommittedMW)).
			AddField("commitment", round3(r.Commitment)).
			AddField("startup", round3(r.Startup)).
			AddField("shutdown", round3(r.Shutdown)).
			AddField("active_startup_type", r.ActiveStartup).
			AddField("violation_cost", round3(r.ViolationCost)).
			SetTime(now)
		if err := s.writeAPI.WritePoint(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the underlying HTTP client.
func (s *InfluxSink) Close() {
	s.client.Close()
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
