package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/okian/greenhorn/internal/config"
	"github.com/okian/greenhorn/pkg/logger"
	"github.com/okian/greenhorn/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func TestConfigurationWiring(t *testing.T) {
	convey.Convey("Given environment overrides", t, func() {
		t.Setenv("GREENHORN_CONFIG", "")
		t.Setenv("GREENHORN_ADDR", ":8080")
		t.Setenv("GREENHORN_THRESHOLD", "15")
		t.Setenv("GREENHORN_WATCH_CONFIG", "false")

		convey.Convey("Then the service starts with the configured threshold", func() {
			cfg, err := config.Load(context.Background())
			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.Addr, convey.ShouldEqual, ":8080")

			svc := newService(cfg, logger.Get())
			convey.So(svc.Threshold(), convey.ShouldEqual, 15)
			convey.So(svc.GetStats()["watchingConfig"], convey.ShouldBeFalse)
		})
	})

	convey.Convey("Given an empty listen address", t, func() {
		t.Setenv("GREENHORN_CONFIG", "")
		t.Setenv("GREENHORN_ADDR", "")

		convey.Convey("Then configuration loading fails", func() {
			cfg, err := config.Load(context.Background())
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(cfg, convey.ShouldBeNil)
		})
	})
}

func TestMux(t *testing.T) {
	convey.Convey("Given the assembled mux", t, func() {
		ctx := context.Background()
		cfg := config.New(ctx)
		svc := newService(cfg, logger.Get())
		mux := newMux(ctx, svc, cfg)

		for _, tc := range []struct {
			method, path, body string
			want               int
		}{
			{http.MethodGet, "/healthz", "", http.StatusOK},
			{http.MethodGet, "/stats", "", http.StatusOK},
			{http.MethodGet, "/openapi.yaml", "", http.StatusOK},
			{http.MethodGet, "/api-docs", "", http.StatusOK},
			{http.MethodGet, "/v1/threshold", "", http.StatusOK},
			{http.MethodGet, "/v1/override/capacity?level=3", "", http.StatusOK},
			{http.MethodPost, "/v1/players/p1/login", `{"level":3}`, http.StatusOK},
		} {
			req := httptest.NewRequest(tc.method, tc.path, strings.NewReader(tc.body))
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)
			convey.So(w.Code, convey.ShouldEqual, tc.want)
		}
	})
}

func TestRun(t *testing.T) {
	convey.Convey("Given a config listening on an ephemeral port", t, func() {
		cfg := config.New(context.Background())
		cfg.Addr = "127.0.0.1:0"
		cfg.WatchConfig = false

		convey.Convey("Then run returns cleanly once the context is cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			done := make(chan error, 1)
			go func() { done <- run(ctx, cfg) }()

			time.Sleep(50 * time.Millisecond)
			cancel()

			select {
			case err := <-done:
				convey.So(err, convey.ShouldBeNil)
			case <-time.After(5 * time.Second):
				t.Fatal("run did not stop")
			}
		})
	})

	convey.Convey("Given a custom metrics namespace", t, func() {
		cfg := config.New(context.Background())
		cfg.Addr = "127.0.0.1:0"
		cfg.WatchConfig = false
		cfg.MetricsNamespace = "realm"
		defer metrics.Init()

		convey.Convey("Then run exports metrics under that namespace", func() {
			ctx, cancel := context.WithCancel(context.Background())
			done := make(chan error, 1)
			go func() { done <- run(ctx, cfg) }()
			time.Sleep(50 * time.Millisecond)
			cancel()
			convey.So(<-done, convey.ShouldBeNil)

			families, err := metrics.GetRegistry().Gather()
			convey.So(err, convey.ShouldBeNil)
			names := map[string]bool{}
			for _, f := range families {
				names[f.GetName()] = true
			}
			convey.So(names["realm_override_threshold_level"], convey.ShouldBeTrue)
		})
	})

	convey.Convey("Given an address that cannot be bound", t, func() {
		cfg := config.New(context.Background())
		cfg.Addr = "256.0.0.1:99999"
		cfg.WatchConfig = false

		convey.Convey("Then run reports the listen error", func() {
			err := run(context.Background(), cfg)
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}

func TestMetricsUpdaters(t *testing.T) {
	convey.Convey("Given the metrics updaters", t, func() {
		svc := newService(config.New(context.Background()), logger.Get())

		convey.Convey("Then they stop with their context", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer cancel()

			convey.So(func() { startSystemMetricsUpdater(ctx) }, convey.ShouldNotPanic)
			convey.So(func() { startServiceMetricsUpdater(ctx, svc) }, convey.ShouldNotPanic)
		})

		convey.Convey("Then single updates do not panic", func() {
			convey.So(updateSystemMetrics, convey.ShouldNotPanic)
			convey.So(func() { updateServiceMetrics(svc) }, convey.ShouldNotPanic)
		})

		convey.Convey("Then a private manager can be built alongside the global one", func() {
			manager := metrics.NewManager(metrics.WithPrometheusRegistry(prometheus.NewRegistry()))
			convey.So(manager, convey.ShouldNotBeNil)
		})
	})
}
