// Package main provides the blood sugar LINE bot server entry point.
package main

import (
	"context"
	"time"

	"github.com/ZhenYan1214/sugar-linebot-go/internal/dialogue"
	"github.com/ZhenYan1214/sugar-linebot-go/internal/logger"
	"github.com/ZhenYan1214/sugar-linebot-go/internal/metrics"
	"github.com/ZhenYan1214/sugar-linebot-go/internal/r2client"
)

const (
	chartPruneInterval = 24 * time.Hour
	chartRetention     = 7 * 24 * time.Hour

	dialogueMetricsInterval = time.Minute
)

// pruneOldCharts periodically deletes chart images older than the retention
// window. LINE fetches the image right after the reply, so week-old charts
// only cost storage.
func pruneOldCharts(ctx context.Context, client *r2client.Client, log *logger.Logger) {
	log = log.WithModule("chart-prune")

	ticker := time.NewTicker(chartPruneInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("Chart pruning stopped")
			return
		case <-ticker.C:
			pruneCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
			deleted, err := client.PruneCharts(pruneCtx, time.Now().Add(-chartRetention))
			cancel()

			if err != nil {
				log.WithError(err).Warn("Chart pruning failed")
				continue
			}
			if deleted > 0 {
				log.Info("Pruned old chart images", "deleted", deleted)
			}
		}
	}
}

// updateDialogueMetrics keeps the active dialogue gauge in sync with the
// conversation state store.
func updateDialogueMetrics(ctx context.Context, states *dialogue.Store, m *metrics.Metrics, log *logger.Logger) {
	ticker := time.NewTicker(dialogueMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Debug("Dialogue metrics updater stopped")
			return
		case <-ticker.C:
			m.ActiveDialogues.Set(float64(states.Len()))
		}
	}
}
