package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/peterbourgon/ff/v3"

	"github.com/archenova/observatory/cache"
	"github.com/archenova/observatory/feed"
	"github.com/archenova/observatory/fragment"
	"github.com/archenova/observatory/service/aggregator"
	"github.com/archenova/observatory/service/gate"
	"github.com/archenova/observatory/store"
)

type maxBytesHandler struct {
	h http.Handler
	n int64
}

func (h *maxBytesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.n)
	h.h.ServeHTTP(w, r)
}

func main() {
	fs := flag.NewFlagSet("observatory", flag.ExitOnError)
	var (
		environment    = fs.String("environment", "develop", "the environment we are running in")
		port           = fs.String("port", "8080", "the port observatory is running on")
		dbPath         = fs.String("db-path", "observatory.db", "the path to the sqlite database file")
		userAgent      = fs.String("user-agent", "Mozilla/5.0 (compatible; ObservatoryBot/1.0; +https://archenova.org)", "the user agent sent to upstream feeds, hosts tend to reject empty ones")
		fetchTimeout   = fs.Duration("fetch-timeout", 8*time.Second, "the hard timeout for a single upstream fetch")
		summaryMax     = fs.Int("summary-max-chars", 180, "the character budget for item summaries")
		defaultLimit   = fs.Int("default-limit", 30, "the number of items returned when no limit is given")
		maxLimit       = fs.Int("max-limit", 60, "the upper bound on the limit parameter")
		cacheTTL       = fs.Duration("cache-ttl", 10*time.Minute, "how long aggregated responses are cached")
		latestPostUser = fs.String("latest-post-user", "ArcheNova_X", "the X account scraped for the latest-post endpoint")
	)

	ff.Parse(fs, os.Args[1:],
		ff.WithConfigFileFlag("config"),
		ff.WithConfigFileParser(ff.PlainParser),
		ff.WithEnvVarPrefix("OBS"),
	)

	l := log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr))
	switch strings.ToLower(*environment) {
	case "development":
		l = level.NewFilter(l, level.AllowInfo())
	case "prod":
		l = level.NewFilter(l, level.AllowError())
	}
	l = log.With(l, "ts", log.DefaultTimestampUTC, "caller", log.DefaultCaller)

	db, err := store.Open(*dbPath)
	if err != nil {
		level.Error(l).Log("msg", "error opening database", "err", err)
		return
	}
	defer db.Close()

	cr, err := cache.NewRepository(l, db, *cacheTTL)
	if err != nil {
		level.Error(l).Log("msg", "error setting up response cache", "err", err)
		return
	}
	fr, err := fragment.NewRepository(l, db)
	if err != nil {
		level.Error(l).Log("msg", "error setting up fragment store", "err", err)
		return
	}

	fetcher := feed.NewFetcher(l, *userAgent, *fetchTimeout)
	parser := feed.NewParser(l, *summaryMax)
	chain := feed.NewChain(l, fetcher, parser)
	catalog := feed.DefaultCatalog()

	aggregatorService := aggregator.NewService(l, chain, fetcher, catalog, *latestPostUser)
	gateService := gate.NewService(l, fr)

	// Set up HTTP API
	r := chi.NewRouter()
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("observatory"))
	})
	r.Mount("/feeds", aggregator.NewHandler(aggregatorService, cr, *defaultLimit, *maxLimit))
	r.Mount("/gate", gate.NewHandler(gateService))

	level.Info(l).Log("msg", fmt.Sprintf("observatory is running on :%s", *port), "environment", *environment, "sources", len(catalog.Categories()))

	// Set up webserver and cap request bodies at 1MB, the gate endpoint only
	// ever receives a short JSON line
	if err := http.ListenAndServe(fmt.Sprintf(":%s", *port), &maxBytesHandler{h: r, n: 1 * 1024 * 1024}); err != nil {
		level.Error(l).Log("err", err)
		return
	}
}
