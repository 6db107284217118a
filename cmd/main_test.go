package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/snaptrust/internal/adapters/http/api"
	"github.com/okian/snaptrust/internal/adapters/insights"
	service "github.com/okian/snaptrust/internal/app"
	"github.com/okian/snaptrust/internal/config"
	"github.com/okian/snaptrust/internal/datagen"
	"github.com/okian/snaptrust/pkg/logger"
	"github.com/okian/snaptrust/pkg/metrics"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

func TestMainFunction(t *testing.T) {
	convey.Convey("Given the main application", t, func() {
		convey.Convey("When loading configuration from the environment", func() {
			t.Setenv("SNAPTRUST_ADDR", ":8080")
			t.Setenv("SNAPTRUST_MAX_LIMIT", "500")

			convey.Convey("Then the overrides should apply", func() {
				cfg, err := config.Load(context.Background())
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.MaxLimit, convey.ShouldEqual, 500)
			})
		})

		convey.Convey("When creating the HTTP server", func() {
			srv := newHTTPServer(":0", http.NotFoundHandler())

			convey.Convey("Then timeouts should be set", func() {
				convey.So(srv.ReadHeaderTimeout, convey.ShouldEqual, readHeaderTimeout)
				convey.So(srv.WriteTimeout, convey.ShouldEqual, writeTimeout)
				convey.So(srv.IdleTimeout, convey.ShouldEqual, idleTimeout)
			})
		})
	})
}

func TestBuildService(t *testing.T) {
	convey.Convey("Given generated datasets", t, func() {
		dir := t.TempDir()
		gen := datagen.DefaultConfig()
		gen.OutDir = dir
		gen.Payments = 100
		gen.Merchants = 10
		_, err := datagen.Run(context.Background(), gen, datagen.TargetAll)
		convey.So(err, convey.ShouldBeNil)

		cfg := config.New()
		cfg.DataDir = dir
		cfg.ReloadIntervalS = 0

		convey.Convey("When building and starting a local service", func() {
			svc, err := buildService(context.Background(), cfg, logger.Get())
			convey.So(err, convey.ShouldBeNil)
			convey.So(svc.Start(context.Background()), convey.ShouldBeNil)
			defer svc.Stop()

			convey.Convey("Then the API should serve the loaded data", func() {
				h := api.NewServer(svc).Routes()

				w := httptest.NewRecorder()
				h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)

				w = httptest.NewRecorder()
				h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/merchants?limit=3", nil))
				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
				convey.So(w.Body.String(), convey.ShouldContainSubstring, "MerchantID")
				var top []map[string]any
				convey.So(json.Unmarshal(w.Body.Bytes(), &top), convey.ShouldBeNil)
				convey.So(top, convey.ShouldNotBeEmpty)

				w = httptest.NewRecorder()
				h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/customers/dashboard", nil))
				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)

				w = httptest.NewRecorder()
				h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, fmt.Sprintf("/merchants/%v/benchmark", top[0]["MerchantID"]), nil))
				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
				convey.So(w.Body.String(), convey.ShouldContainSubstring, `"field":"TrustScore"`)

				w = httptest.NewRecorder()
				h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/query", strings.NewReader(`{"query":"top 3 merchants"}`)))
				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
				convey.So(w.Body.String(), convey.ShouldContainSubstring, `"entity":"merchant"`)
				convey.So(w.Body.String(), convey.ShouldContainSubstring, `"source":"rules"`)
			})

			convey.Convey("And the metrics updaters should not panic", func() {
				convey.So(func() { updateServiceMetrics(svc) }, convey.ShouldNotPanic)
				convey.So(func() { updateSystemMetrics() }, convey.ShouldNotPanic)
			})
		})

		convey.Convey("When the remote base URL is invalid", func() {
			cfg.SourceMode = config.SourceRemote
			cfg.RemoteBaseURL = "nowhere"

			convey.Convey("Then building should fail", func() {
				_, err := buildService(context.Background(), cfg, logger.Get())
				convey.So(err, convey.ShouldNotBeNil)
			})
		})
	})
}

func TestBuildGenerator(t *testing.T) {
	convey.Convey("Given a configuration without an API key", t, func() {
		cfg := config.New()

		convey.Convey("Then rule-based insights should be used", func() {
			_, ok := buildGenerator(context.Background(), cfg, logger.Get()).(*insights.RuleGenerator)
			convey.So(ok, convey.ShouldBeTrue)
		})
	})
}

func TestMetricsUpdaters(t *testing.T) {
	convey.Convey("Given a short-lived context", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()

		convey.Convey("Then the updaters should return when it ends", func() {
			convey.So(func() { startSystemMetricsUpdater(ctx, 10*time.Millisecond) }, convey.ShouldNotPanic)
			convey.So(func() { startServiceMetricsUpdater(ctx, service.New(), 10*time.Millisecond) }, convey.ShouldNotPanic)
		})
	})
}

func TestMetricsOptions(t *testing.T) {
	convey.Convey("Given metrics settings in the configuration", t, func() {
		cfg := config.New()
		cfg.MetricsNamespace = "trust"
		cfg.MetricsSubsystem = "api"
		cfg.MetricsLabels = map[string]string{"env": "staging"}
		cfg.MetricsRefreshS = 3
		defer metrics.Configure()

		manager := metrics.Configure(metricsOptions(cfg)...)
		metrics.RecordDatasetReload(4)

		convey.Convey("Then the exported names and labels should follow them", func() {
			convey.So(manager.Enabled(), convey.ShouldBeTrue)
			convey.So(manager.RefreshInterval(), convey.ShouldEqual, 3*time.Second)

			families, err := metrics.GetRegistry().Gather()
			convey.So(err, convey.ShouldBeNil)
			found := false
			for _, f := range families {
				if f.GetName() != "trust_api_dataset_reloads_total" {
					continue
				}
				found = true
				convey.So(f.GetMetric()[0].GetLabel()[0].GetValue(), convey.ShouldEqual, "staging")
			}
			convey.So(found, convey.ShouldBeTrue)
		})
	})

	convey.Convey("Given metrics disabled in the configuration", t, func() {
		cfg := config.New()
		cfg.MetricsEnabled = false
		defer metrics.Configure()

		manager := metrics.Configure(metricsOptions(cfg)...)
		metrics.RecordDatasetReload(4)

		convey.Convey("Then nothing should be exported", func() {
			families, err := metrics.GetRegistry().Gather()
			convey.So(err, convey.ShouldBeNil)
			convey.So(manager.Enabled(), convey.ShouldBeFalse)
			convey.So(families, convey.ShouldBeEmpty)
		})
	})
}

func TestMainApplicationErrorHandling(t *testing.T) {
	convey.Convey("Given an invalid configuration", t, func() {
		t.Setenv("SNAPTRUST_SOURCE_MODE", "carrier-pigeon")

		convey.Convey("Then loading should fail", func() {
			cfg, err := config.Load(context.Background())
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(cfg, convey.ShouldBeNil)
		})
	})

	convey.Convey("Given a missing data directory", t, func() {
		cfg := config.New()
		cfg.DataDir = filepath.Join(os.TempDir(), "snaptrust-does-not-exist")
		cfg.ReloadIntervalS = 0

		convey.Convey("Then the service should still start with empty populations", func() {
			svc, err := buildService(context.Background(), cfg, logger.Get())
			convey.So(err, convey.ShouldBeNil)
			convey.So(svc.Start(context.Background()), convey.ShouldBeNil)
			svc.Stop()
		})
	})
}
