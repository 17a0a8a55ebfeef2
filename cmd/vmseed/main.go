// vmseed generates a synthetic time series and imports it into
// VictoriaMetrics, optionally replacing whatever the series held before.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/and161185/victoria-client/internal/buildinfo"
	"github.com/and161185/victoria-client/internal/client"
	"github.com/and161185/victoria-client/internal/config"
	"github.com/and161185/victoria-client/internal/generator"
	"github.com/and161185/victoria-client/internal/utils"
	"github.com/and161185/victoria-client/model"
)

func main() {
	buildinfo.PrintBuildInfo()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metricName := flag.String("m", "vmseed_demo", "metric name to import")
	window := flag.Duration("w", time.Hour, "time window ending now to fill with points")
	step := flag.Duration("s", time.Minute, "interval between points")
	maxValue := flag.Int("max", 1000, "upper bound for random values")
	deleteFirst := flag.Bool("replace", true, "delete the existing series before importing")

	cfg := config.NewClientConfig() // parses the remaining flags and env

	zl, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer func() { _ = zl.Sync() }()
	logger := zl.Sugar()

	if err := cfg.Validate(); err != nil {
		logger.Fatal(err)
	}

	logger.Infof("Client config: Addr=%s, Timeout=%ds, BasicAuth=%t",
		cfg.ServerAddr, cfg.ClientTimeout, cfg.Username != "")

	if err := run(ctx, cfg, logger, *metricName, *window, *step, *maxValue, *deleteFirst); err != nil {
		logger.Fatal(err)
	}
}

func run(ctx context.Context, cfg *config.ClientConfig, logger *zap.SugaredLogger,
	metricName string, window, step time.Duration, maxValue int, deleteFirst bool) error {

	hc := &http.Client{Timeout: time.Duration(cfg.ClientTimeout) * time.Second}
	clnt := client.NewClientWithHTTP(cfg, hc, logger)

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	label := model.MetricLabel{
		model.NameLabel: metricName,
		"job":           "vmseed",
		"instance":      hostname,
	}

	end := time.Now()
	timestamps, values, err := generator.Points(end.Add(-window), end, step, generator.Options{MaxValue: maxValue})
	if err != nil {
		return err
	}
	logger.Infof("generated %d points for %s", len(timestamps), label.Selector())

	if deleteFirst {
		if err := clnt.DeleteMetrics(ctx, []string{label.Selector()}); err != nil {
			return err
		}
		// deletes apply asynchronously; wait before re-importing
		if err := clnt.WaitForAbsence(ctx, []string{label.Selector()}); err != nil {
			return err
		}
	}

	onlyUnavailable := func(e error) bool { return errors.Is(e, client.ErrRemoteUnavailable) }
	err = utils.WithRetryIf(ctx, onlyUnavailable, func() error {
		return clnt.ImportConcreteMetric(ctx, label, timestamps, values, false)
	})
	if err != nil {
		return err
	}

	labels, err := clnt.GetMetrics(ctx, []string{label.Selector()})
	if err != nil {
		return err
	}
	logger.Infof("import done, %d matching series", len(labels))
	return nil
}
