package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/banshee-data/uniformity.report/internal/api"
	"github.com/banshee-data/uniformity.report/internal/fsutil"
	"github.com/banshee-data/uniformity.report/internal/monitoring"
	"github.com/banshee-data/uniformity.report/internal/session"
)

func handleServe(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", "", "Analysis config JSON file")
	listen := fs.String("listen", "", "Listen address (overrides config)")
	origins := fs.String("cors-origins", "", "Comma separated allowed CORS origins (default any)")
	fs.Parse(args)

	cfg, err := loadConfig(fsutil.OSFileSystem{}, *configPath)
	if err != nil {
		log.Fatalf("%v", err)
	}
	addr := cfg.GetListen()
	if *listen != "" {
		addr = *listen
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := monitoring.NewMetrics(reg)

	store := session.NewStore(session.Options{
		TTL:           cfg.GetSessionTTL(),
		CacheEntries:  cfg.GetCacheEntries(),
		ReportWorkers: cfg.GetReportWorkers(),
		Metrics:       metrics,
	})
	defer store.Close()

	var allowed []string
	if *origins != "" {
		for _, o := range strings.Split(*origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				allowed = append(allowed, o)
			}
		}
	}
	srv := api.NewServer(api.Options{
		Store:          store,
		Config:         cfg,
		Metrics:        metrics,
		Gatherer:       reg,
		AllowedOrigins: allowed,
	})

	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// expire idle sessions
	wg.Add(1)
	go func() {
		defer wg.Done()
		store.Run(ctx, time.Minute)
		log.Print("session sweeper terminated")
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()

		server := &http.Server{
			Addr:              addr,
			Handler:           srv.Routes(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		go func() {
			log.Printf("listening on %s", addr)
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("failed to start server: %v", err)
			}
		}()

		<-ctx.Done()
		log.Println("shutting down HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
		}
		log.Printf("HTTP server routine stopped")
	}()

	wg.Wait()
	log.Printf("Graceful shutdown complete")
}
