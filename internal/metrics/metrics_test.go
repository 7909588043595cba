package metrics

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPmdLoadAndFleetVarianceObservable(t *testing.T) {
	PmdLoad.WithLabelValues("3").Set(42.5)
	FleetLoadVariance.Set(1.23)

	assert.Equal(t, 42.5, testutil.ToFloat64(PmdLoad.WithLabelValues("3")))
	assert.Equal(t, 1.23, testutil.ToFloat64(FleetLoadVariance))
}

func TestServeExposesMetricsEndpoint(t *testing.T) {
	CommitsTotal.Add(0) // ensure the collector is registered

	ctx, cancel := context.WithCancel(context.Background())
	errC := make(chan error, 1)
	go func() { errC <- Serve(ctx, "127.0.0.1:19091") }()

	var resp *http.Response
	var err error
	for i := 0; i < 20; i++ {
		resp, err = http.Get("http://127.0.0.1:19091/metrics")
		if err == nil {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	require.NoError(t, <-errC)
}
