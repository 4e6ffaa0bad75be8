// Command score runs the stringency scoring service: it loads the taxonomy
// and item formulas, scores every province's intervention records into daily
// code/item/field tables, writes them to the output directory, optionally
// publishes field scores to Kafka, and serves operational HTTP endpoints
// while doing so.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/covidnpi/stringency-etl/internal/adapter/http"
	kafkaadapter "github.com/covidnpi/stringency-etl/internal/adapter/kafka"
	"github.com/covidnpi/stringency-etl/internal/config"
	"github.com/covidnpi/stringency-etl/internal/observability"
	"github.com/covidnpi/stringency-etl/internal/pipeline"
	"github.com/covidnpi/stringency-etl/internal/rules"
	"github.com/covidnpi/stringency-etl/internal/score"
	"github.com/covidnpi/stringency-etl/internal/store"
	"github.com/covidnpi/stringency-etl/internal/taxonomy"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	tax, err := taxonomy.Load(cfg.TaxonomyDir)
	if err != nil {
		logger.Error("failed to load taxonomy", "error", err)
		os.Exit(1)
	}
	ruleSet := rules.Compile(tax)
	if gaps := ruleSet.CoverageGaps(tax); len(gaps) > 0 {
		logger.Warn("taxonomy codes not covered by any compiled criterion", "codes", gaps)
	}

	formulas, err := score.LoadFormulas(cfg.ItemFormulas)
	if err != nil {
		logger.Error("failed to load item formulas", "error", err)
		os.Exit(1)
	}
	logger.Info("item formulas loaded", "version", formulas.Version, "items", len(formulas.Formulas))

	source := store.NewFileSource(cfg.RecordsDir, logger)
	sink := store.NewFileSink(cfg.OutputDir)
	scorer := score.NewScorer(tax, ruleSet, logger)

	var publisher pipeline.Publisher
	var kafkaWriter *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		kafkaWriter = kafkaadapter.NewWriter(cfg, formulas.Version, logger)
		publisher = kafkaWriter
		logger.Info("kafka publishing enabled", "topic", cfg.KafkaSinkTopic)
	} else {
		logger.Info("kafka publishing disabled")
	}

	p := pipeline.New(source, sink, publisher, scorer, tax, formulas, logger, metrics)

	if cfg.CasesFile != "" {
		cases, err := store.LoadCases(cfg.CasesFile, logger)
		if err != nil {
			logger.Error("failed to load case series", "error", err)
			os.Exit(1)
		}
		p.AttachCases(cases)
		logger.Info("case series loaded", "provinces", len(cases))
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, formulas.Version, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	runErr := p.Run(ctx)
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		logger.Error("scoring run failed", "error", runErr)
	}

	// Keep serving health and metrics until asked to stop, so operators can
	// scrape the run's final state.
	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if kafkaWriter != nil {
		if err := kafkaWriter.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		os.Exit(1)
	}
}
