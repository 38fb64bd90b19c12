package main

import (
	"context"
	"net/http"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"rostercal/internal/config"
	"rostercal/internal/ics"
	appLog "rostercal/internal/log"
	"rostercal/internal/web"
	"rostercal/internal/workset"
)

var serveListen string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the scheduled feed refresh",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if serveListen != "" {
			cfg.Listen = serveListen
		}

		appLog.Info("rostercal starting",
			"version", version,
			"listen", cfg.Listen,
			"timezone", cfg.Timezone,
			"state_path", cfg.StatePath,
			"refresh", cfg.RefreshCron,
			"feeds", len(cfg.Feeds),
		)

		st, err := openState(cfg)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		if len(cfg.Feeds) > 0 {
			stop, err := startRefresh(ctx, cfg, st)
			if err != nil {
				return err
			}
			defer stop()
		}

		return web.StartServer(ctx, cfg, st)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "HTTP listen address (overrides config if set)")
}

// startRefresh runs one refresh right away and then on cfg.RefreshCron.
func startRefresh(ctx context.Context, cfg *config.Config, st *workset.State) (func(), error) {
	fetcher := ics.NewFetcher(cfg.CacheDir, &http.Client{Timeout: 30 * time.Second})

	c := cron.New(cron.WithLocation(cfg.Location()))
	_, err := c.AddFunc(cfg.RefreshCron, func() {
		refreshFeeds(ctx, cfg, fetcher, st, time.Now())
	})
	if err != nil {
		return nil, err
	}

	go refreshFeeds(ctx, cfg, fetcher, st, time.Now())
	c.Start()
	appLog.Info("feed refresh scheduled", "schedule", cfg.RefreshCron)

	return func() {
		<-c.Stop().Done()
	}, nil
}

// refreshFeeds fetches every configured feed and re-uploads it under its file
// name, replacing the previous copy. A feed that fails keeps its last upload.
func refreshFeeds(ctx context.Context, cfg *config.Config, fetcher *ics.Fetcher, st *workset.State, now time.Time) int {
	sources := make([]ics.Source, 0, len(cfg.Feeds))
	names := make(map[string]string, len(cfg.Feeds))
	for _, f := range cfg.Feeds {
		sources = append(sources, ics.Source{ID: f.ID, Name: f.Name, URL: f.URL})
		names[f.ID] = f.FileName()
	}

	results, errs := fetcher.FetchAll(ctx, sources)
	window := ics.Window(now, cfg.BackfillDays, cfg.HorizonDays, cfg.Location())

	updated := 0
	for _, res := range results {
		cols, rows, err := ics.Import(res.Source, res.Body, window)
		if err != nil {
			appLog.Error("feed import failed", err, "feed", res.Source.Label())
			continue
		}
		if _, err := st.UploadFile(names[res.Source.ID], cols, rows); err != nil {
			appLog.Error("feed upload failed", err, "feed", res.Source.Label())
			continue
		}
		updated++
	}

	appLog.Info("feed refresh completed", "feeds", len(sources), "updated", updated, "failed", len(errs)+len(results)-updated)
	return updated
}
