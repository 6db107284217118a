package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/snaptrust/internal/adapters/http/api"
	service "github.com/okian/snaptrust/internal/app"
	"github.com/okian/snaptrust/internal/domain/benchmark"
	"github.com/okian/snaptrust/internal/domain/insight"
	"github.com/okian/snaptrust/internal/domain/model"
	"github.com/okian/snaptrust/internal/domain/snapshot"
	"github.com/okian/snaptrust/pkg/logger"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

type mockDependencies struct {
	ready bool
	stats map[string]interface{}

	entities []model.Entity
	avg      model.Averages
	detail   model.Detail
	in       service.Insights
	snap     snapshot.Snapshot
	report   benchmark.Report
	answer   service.QueryResult
	err      error

	gotKind  model.Kind
	gotLimit int
	gotOrder model.Order
	gotID    string
	gotQuery string
}

func (m *mockDependencies) GetStats() map[string]interface{} { return m.stats }

func (m *mockDependencies) Ready() bool { return m.ready }

func (m *mockDependencies) Dashboard(_ context.Context, kind model.Kind) (snapshot.Snapshot, error) {
	m.gotKind = kind
	return m.snap, m.err
}

func (m *mockDependencies) List(_ context.Context, kind model.Kind, limit int, order model.Order) ([]model.Entity, error) {
	m.gotKind, m.gotLimit, m.gotOrder = kind, limit, order
	if m.err != nil {
		return nil, m.err
	}
	return m.entities, nil
}

func (m *mockDependencies) Averages(_ context.Context, kind model.Kind) (model.Averages, error) {
	m.gotKind = kind
	return m.avg, m.err
}

func (m *mockDependencies) Detail(_ context.Context, kind model.Kind, id string) (model.Detail, error) {
	m.gotKind, m.gotID = kind, id
	return m.detail, m.err
}

func (m *mockDependencies) Insights(_ context.Context, kind model.Kind, id string) (service.Insights, error) {
	m.gotKind, m.gotID = kind, id
	return m.in, m.err
}

func (m *mockDependencies) Benchmark(_ context.Context, kind model.Kind, id string) (benchmark.Report, error) {
	m.gotKind, m.gotID = kind, id
	return m.report, m.err
}

func (m *mockDependencies) Query(_ context.Context, text string) (service.QueryResult, error) {
	m.gotQuery = text
	return m.answer, m.err
}

func post(h http.Handler, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func serve(h http.Handler, target string, header ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeError(w *httptest.ResponseRecorder) map[string]string {
	var body map[string]string
	So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
	return body
}

func TestHealthAndStats(t *testing.T) {
	Convey("Given an API server", t, func() {
		deps := &mockDependencies{stats: map[string]interface{}{"mode": "local"}}
		h := api.NewServer(deps).Routes()

		Convey("When scraping /healthz", func() {
			w := serve(h, "/healthz")

			Convey("Then Prometheus metrics should be returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, "snaptrust_")
			})
		})

		Convey("When the dataset is not loaded", func() {
			w := serve(h, "/readyz")

			Convey("Then /readyz should report unavailable", func() {
				So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
				So(decodeError(w)["code"], ShouldEqual, "not_ready")
			})
		})

		Convey("When the dataset is loaded", func() {
			deps.ready = true
			w := serve(h, "/readyz")

			Convey("Then /readyz should report ready", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, `"status":"ready"`)
			})
		})

		Convey("When requesting the API description", func() {
			w := serve(h, "/openapi.yaml")

			Convey("Then the embedded document should be served", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, "openapi: 3.0.3")
			})
		})

		Convey("When requesting /stats", func() {
			w := serve(h, "/stats")

			Convey("Then the statistics map should be returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Content-Type"), ShouldContainSubstring, "application/json")
				So(w.Body.String(), ShouldContainSubstring, `"mode":"local"`)
			})
		})
	})
}

func TestEntityHandler_HandleList(t *testing.T) {
	Convey("Given an API server over two customers", t, func() {
		deps := &mockDependencies{entities: []model.Entity{
			{Kind: model.KindCustomer, ID: "C1", Name: "Alice", TrustScore: model.Num(91), LoyaltyTier: model.StringPtr("Gold")},
			{Kind: model.KindCustomer, ID: "C2", Name: "Bob", TrustScore: model.Num(58)},
		}}
		h := api.NewServer(deps).Routes()

		Convey("When listing without parameters", func() {
			w := serve(h, "/customers")

			Convey("Then the default limit and descending order should be requested", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.gotKind, ShouldEqual, model.KindCustomer)
				So(deps.gotLimit, ShouldEqual, 0)
				So(deps.gotOrder, ShouldEqual, model.OrderDesc)

				var body []map[string]any
				So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
				So(body, ShouldHaveLength, 2)
				So(body[0]["CustomerID"], ShouldEqual, "C1")
				So(body[0]["LoyaltyTier"], ShouldEqual, "Gold")
			})
		})

		Convey("When listing merchants with a limit and ascending order", func() {
			deps.entities = nil
			w := serve(h, "/merchants?limit=5&sort_order=ASC")

			Convey("Then the parameters should be forwarded", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.gotKind, ShouldEqual, model.KindMerchant)
				So(deps.gotLimit, ShouldEqual, 5)
				So(deps.gotOrder, ShouldEqual, model.OrderAsc)
				So(w.Body.String(), ShouldStartWith, "[]")
			})
		})

		Convey("When the limit is not an integer", func() {
			w := serve(h, "/customers?limit=ten")

			Convey("Then a bad request should be returned", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(decodeError(w)["code"], ShouldEqual, "bad_request")
			})
		})

		Convey("When the sort order is unknown", func() {
			w := serve(h, "/customers?sort_order=sideways")

			Convey("Then a bad request should be returned", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When the service rejects the limit", func() {
			deps.err = service.ErrInvalidLimit
			w := serve(h, "/customers?limit=5000")

			Convey("Then a bad request should be returned", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(decodeError(w)["message"], ShouldEqual, service.ErrInvalidLimit.Error())
			})
		})

		Convey("When the kind is unknown", func() {
			w := serve(h, "/widgets")

			Convey("Then not found should be returned", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
				So(decodeError(w)["code"], ShouldEqual, "not_found")
			})
		})
	})
}

func TestEntityHandler_DetailAndInsights(t *testing.T) {
	Convey("Given an API server", t, func() {
		deps := &mockDependencies{
			avg: model.Averages{model.AvgTrustScore: 75.5},
			detail: model.Detail{
				Kind:       model.KindMerchant,
				ID:         "M1",
				Name:       "Acme",
				TrustScore: model.Num(88),
				Fields:     map[string]float64{model.FieldTenureMonths: 12},
				Summary:    json.RawMessage(`"Steady merchant"`),
			},
			in: service.Insights{
				Summary:         []insight.Block{insight.PlainText("Steady merchant")},
				Recommendations: []insight.Block{insight.TitledItem("Consider exclusivity", "Join the program")},
			},
		}
		h := api.NewServer(deps).Routes()

		Convey("When requesting averages", func() {
			w := serve(h, "/merchants/metrics/averages")

			Convey("Then the averages record should be returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.gotKind, ShouldEqual, model.KindMerchant)
				So(w.Body.String(), ShouldContainSubstring, `"AverageTrustScore":75.5`)
			})
		})

		Convey("When requesting a detail record", func() {
			w := serve(h, "/merchants/M1")

			Convey("Then the flat record should be returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.gotID, ShouldEqual, "M1")

				var body map[string]any
				So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
				So(body["MerchantID"], ShouldEqual, "M1")
				So(body["TenureMonths"], ShouldEqual, 12.0)
				So(body["Summary"], ShouldEqual, "Steady merchant")
			})
		})

		Convey("When requesting insights", func() {
			w := serve(h, "/merchants/M1/insights")

			Convey("Then normalized blocks should be returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)

				var body service.Insights
				So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
				So(body.Summary, ShouldHaveLength, 1)
				So(body.Recommendations[0].Title, ShouldEqual, "Consider exclusivity")
			})
		})

		Convey("When the id is unknown", func() {
			deps.err = fmt.Errorf("detail: %w", service.ErrNotFound)
			w := serve(h, "/customers/C404")

			Convey("Then not found should be returned", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
				So(deps.gotKind, ShouldEqual, model.KindCustomer)
			})
		})
	})
}

func TestEntityHandler_HandleBenchmark(t *testing.T) {
	Convey("Given an API server", t, func() {
		deps := &mockDependencies{report: benchmark.Compare(
			model.Detail{Kind: model.KindMerchant, ID: "M1", Name: "Acme", TrustScore: model.Num(88)},
			model.Averages{model.AvgTrustScore: 80.0},
		)}
		h := api.NewServer(deps).Routes()

		Convey("When requesting a merchant benchmark", func() {
			w := serve(h, "/merchants/M1/benchmark")

			Convey("Then the comparison report should be returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.gotKind, ShouldEqual, model.KindMerchant)
				So(deps.gotID, ShouldEqual, "M1")

				var body struct {
					ID          string                 `json:"id"`
					Comparisons []benchmark.Comparison `json:"comparisons"`
				}
				So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
				So(body.ID, ShouldEqual, "M1")
				So(body.Comparisons, ShouldResemble, []benchmark.Comparison{
					{Field: model.FieldTrustScore, Value: 88, Average: 80, Delta: 8, Position: benchmark.Above},
				})
			})
		})

		Convey("When the id is unknown", func() {
			deps.err = service.ErrNotFound
			w := serve(h, "/customers/C404/benchmark")

			Convey("Then not found should be returned", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
			})
		})
	})
}

func TestQueryHandler_HandleQuery(t *testing.T) {
	Convey("Given an API server", t, func() {
		deps := &mockDependencies{answer: service.QueryResult{
			Entity: model.KindMerchant,
			Query:  "best shops",
			Result: []insight.Block{insight.PlainText("Acme leads.")},
			Source: "rules",
		}}
		h := api.NewServer(deps).Routes()

		Convey("When posting a query", func() {
			w := post(h, "/query", `{"query":"best shops"}`)

			Convey("Then the normalized answer should be returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.gotQuery, ShouldEqual, "best shops")
				So(w.Body.String(), ShouldContainSubstring, `"entity":"merchant"`)
				So(w.Body.String(), ShouldContainSubstring, `"result":[{"kind":"text","text":"Acme leads."}]`)
			})
		})

		Convey("When the body is not JSON", func() {
			w := post(h, "/query", `best shops`)

			Convey("Then a bad request should be returned", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(decodeError(w)["code"], ShouldEqual, "bad_request")
			})
		})

		Convey("When the service rejects the query", func() {
			deps.err = fmt.Errorf("%w: query must not be empty", service.ErrInvalidQuery)
			w := post(h, "/query", `{"query":""}`)

			Convey("Then a bad request should be returned", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When the answerer is down", func() {
			deps.err = fmt.Errorf("%w: model down", service.ErrUpstream)
			w := post(h, "/query", `{"query":"who pays late"}`)

			Convey("Then a bad gateway should be returned", func() {
				So(w.Code, ShouldEqual, http.StatusBadGateway)
			})
		})
	})
}

func TestDashboardHandler_HandleDashboard(t *testing.T) {
	Convey("Given an API server", t, func() {
		deps := &mockDependencies{snap: snapshot.Snapshot{Kind: model.KindCustomer, Metrics: []snapshot.Metric{}}}
		h := api.NewServer(deps).Routes()

		Convey("When the snapshot builds", func() {
			w := serve(h, "/customers/dashboard")

			Convey("Then it should be returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, `"kind":"customer"`)
			})
		})

		Convey("When the entity source fails", func() {
			deps.err = fmt.Errorf("fetch customers: %w", service.ErrUpstream)
			w := serve(h, "/customers/dashboard")

			Convey("Then a bad gateway should be returned", func() {
				So(w.Code, ShouldEqual, http.StatusBadGateway)
				So(decodeError(w)["code"], ShouldEqual, "upstream_error")
			})
		})

		Convey("When an unexpected error occurs", func() {
			deps.err = errors.New("boom")
			w := serve(h, "/merchants/dashboard")

			Convey("Then an internal error should be returned", func() {
				So(w.Code, ShouldEqual, http.StatusInternalServerError)
				So(decodeError(w)["code"], ShouldEqual, "internal_error")
			})
		})
	})
}

func TestRequestID(t *testing.T) {
	Convey("Given an API server", t, func() {
		h := api.NewServer(&mockDependencies{}).Routes()

		Convey("When the caller sends a request id", func() {
			w := serve(h, "/stats", api.RequestIDHeader, "req-42")

			Convey("Then it should be echoed", func() {
				So(w.Header().Get(api.RequestIDHeader), ShouldEqual, "req-42")
			})
		})

		Convey("When the caller sends none", func() {
			w := serve(h, "/stats")

			Convey("Then a uuid should be generated", func() {
				So(w.Header().Get(api.RequestIDHeader), ShouldHaveLength, 36)
			})
		})

		Convey("When a handler reads the context", func() {
			var seen string
			wrapped := api.RequestID(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
				seen = logger.RequestID(r.Context())
			}))
			serve(wrapped, "/", api.RequestIDHeader, "ctx-id")

			Convey("Then the id should be on the context", func() {
				So(seen, ShouldEqual, "ctx-id")
			})
		})
	})
}
