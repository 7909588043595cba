// Package metrics exposes the daemon's Prometheus surface (§3.1 of
// the expanded specification). It is additive observability: the
// decision loop updates these after each window and each dry-run or
// commit, and nothing else in the daemon reads them back.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	PmdLoad = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "ncd_pmd_load",
		Help: "Most recently estimated load percentage of a PMD thread.",
	}, []string{"core_id"})

	FleetLoadVariance = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ncd_fleet_load_variance",
		Help: "Population variance of pmd_load across the fleet in the last evaluated window.",
	})

	RebalanceMovesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ncd_rebalance_moves_total",
		Help: "Total rxqs virtually moved by dry-run rebalancers.",
	})

	CommitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ncd_commits_total",
		Help: "Total rxq-affinity commits applied to the switch.",
	})

	SwitchErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ncd_switch_errors_total",
		Help: "Total OsCommandErrors and commit failures observed.",
	})
)

// Serve starts a plain net/http server exposing /metrics on address
// and blocks until ctx is cancelled. The daemon only calls this when
// --metrics-address is non-empty; by default no TCP socket is opened.
func Serve(ctx context.Context, address string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: address, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errC := make(chan error, 1)
	go func() { errC <- srv.ListenAndServe() }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errC:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
