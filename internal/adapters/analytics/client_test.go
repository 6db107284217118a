package analytics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/snaptrust/internal/domain/model"
	"github.com/okian/snaptrust/pkg/logger"
)

func newUpstream() *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/customers", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[{"CustomerID":"C1","CustomerName":"Alice","TrustScore":91.2,"LoyaltyTier":"Gold","CreatedDate":"2024-01-02"}]`))
	})
	mux.HandleFunc("/api/merchants/metrics/averages", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"AverageRepaymentRate":0.8754,"AverageTrustScore":"n/a"}`))
	})
	mux.HandleFunc("/api/merchants/M1", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"MerchantID":"M1","MerchantName":"Shop","TrustScore":88,"LoyaltyTier":"Silver","Summary":"ok","Recommendations":["a","b"]}`))
	})
	mux.HandleFunc("/api/merchants/missing", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"code":"not_found"}`, http.StatusNotFound)
	})
	mux.HandleFunc("/api/merchants", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	return httptest.NewServer(mux)
}

func TestNewClient(t *testing.T) {
	Convey("Given base urls", t, func() {
		_, err := NewClient("http://localhost:9080/")
		So(err, ShouldBeNil)

		_, err = NewClient("not a url")
		So(errors.Is(err, ErrInvalidBaseURL), ShouldBeTrue)

		_, err = NewClient("")
		So(errors.Is(err, ErrInvalidBaseURL), ShouldBeTrue)
	})
}

func TestClient(t *testing.T) {
	Convey("Given a remote analytics service", t, func() {
		srv := newUpstream()
		defer srv.Close()

		c, err := NewClient(srv.URL+"/api", WithTimeout(time.Second))
		So(err, ShouldBeNil)
		ctx := logger.WithRequestID(context.Background(), "req-1")

		Convey("When fetching customers", func() {
			es, err := c.Entities(ctx, model.KindCustomer, 25, model.OrderDesc)

			Convey("Then they should be decoded from the wire shape", func() {
				So(err, ShouldBeNil)
				So(es, ShouldHaveLength, 1)
				So(es[0].Kind, ShouldEqual, model.KindCustomer)
				So(es[0].ID, ShouldEqual, "C1")
				So(es[0].TrustScore.Float(), ShouldEqual, 91.2)
				So(es[0].CreatedAt, ShouldEqual, "2024-01-02")
			})
		})

		Convey("When fetching averages", func() {
			avg, err := c.Averages(ctx, model.KindMerchant)

			Convey("Then numeric members should be usable and others rejected", func() {
				So(err, ShouldBeNil)
				v, ok := avg.Lookup(model.AvgRepaymentRate)
				So(ok, ShouldBeTrue)
				So(v, ShouldEqual, 0.8754)
				_, ok = avg.Lookup(model.AvgTrustScore)
				So(ok, ShouldBeFalse)
			})
		})

		Convey("When fetching a detail", func() {
			d, err := c.Detail(ctx, model.KindMerchant, "M1")

			Convey("Then insight content should stay raw", func() {
				So(err, ShouldBeNil)
				So(d.Name, ShouldEqual, "Shop")
				So(string(d.Summary), ShouldEqual, `"ok"`)
				So(string(d.Recommendations), ShouldEqual, `["a","b"]`)
			})
		})

		Convey("When the detail does not exist", func() {
			_, err := c.Detail(ctx, model.KindMerchant, "missing")
			So(errors.Is(err, ErrNotFound), ShouldBeTrue)
		})

		Convey("When the upstream fails", func() {
			_, err := c.Entities(ctx, model.KindMerchant, 10, model.OrderAsc)
			So(errors.Is(err, ErrUpstream), ShouldBeTrue)
		})
	})

	Convey("Given an unreachable service", t, func() {
		srv := newUpstream()
		url := srv.URL
		srv.Close()

		c, err := NewClient(url)
		So(err, ShouldBeNil)
		_, err = c.Averages(context.Background(), model.KindCustomer)
		So(errors.Is(err, ErrUpstream), ShouldBeTrue)
	})
}

func TestClientForwardsRequestID(t *testing.T) {
	Convey("Given a request id on the context", t, func() {
		seen := make(chan string, 1)
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen <- r.Header.Get("X-Request-Id") + " " + r.URL.Query().Get("sort_order")
			_, _ = w.Write([]byte(`[]`))
		}))
		defer srv.Close()

		c, err := NewClient(srv.URL)
		So(err, ShouldBeNil)
		es, err := c.Entities(logger.WithRequestID(context.Background(), "abc"), model.KindMerchant, 5, "")

		So(err, ShouldBeNil)
		So(es, ShouldBeEmpty)
		So(<-seen, ShouldEqual, "abc desc")
	})
}
