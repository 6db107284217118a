package insight_test

import (
	"encoding/json"
	"testing"

	"github.com/okian/snaptrust/internal/domain/insight"
	. "github.com/smartystreets/goconvey/convey"
)

func TestNormalize(t *testing.T) {
	Convey("Given an absent payload", t, func() {
		Convey("Then it should normalize to an empty, non-nil sequence", func() {
			So(insight.NormalizeRaw(nil), ShouldNotBeNil)
			So(insight.NormalizeRaw(nil), ShouldBeEmpty)
			So(insight.NormalizeRaw(json.RawMessage("null")), ShouldBeEmpty)
			So(insight.Normalize(insight.FromValue(nil)), ShouldBeEmpty)
		})
	})

	Convey("Given a plain string", t, func() {
		out := insight.NormalizeRaw(json.RawMessage(`"x"`))

		Convey("Then it should be a single text block", func() {
			So(out, ShouldResemble, []insight.Block{insight.PlainText("x")})
		})
	})

	Convey("Given a list of a titled record and a string", t, func() {
		out := insight.NormalizeRaw(json.RawMessage(`[{"title":"A"},"B"]`))

		Convey("Then each element should be classified independently", func() {
			So(out, ShouldResemble, []insight.Block{
				insight.TitledItem("A", ""),
				insight.PlainText("B"),
			})
		})

		Convey("And the missing description should be absent, not a placeholder", func() {
			So(out[0].HasTitle(), ShouldBeTrue)
			So(out[0].HasBody(), ShouldBeFalse)
		})
	})

	Convey("Given a single record", t, func() {
		out := insight.NormalizeRaw(json.RawMessage(`{"title":"Reduce disputes","description":"Dispute rate is above peers"}`))

		Convey("Then it should be a single titled item", func() {
			So(out, ShouldResemble, []insight.Block{
				insight.TitledItem("Reduce disputes", "Dispute rate is above peers"),
			})
		})
	})

	Convey("Given a record with only a description", t, func() {
		out := insight.NormalizeRaw(json.RawMessage(`{"description":"only body","extra":42}`))

		Convey("Then the title should be omitted", func() {
			So(out, ShouldHaveLength, 1)
			So(out[0].HasTitle(), ShouldBeFalse)
			So(out[0].Body, ShouldEqual, "only body")
		})
	})

	Convey("Given scalar payloads that are not text", t, func() {
		for _, raw := range []string{`42`, `true`, `false`, `3.14`} {
			So(insight.NormalizeRaw(json.RawMessage(raw)), ShouldBeEmpty)
		}
	})

	Convey("Given malformed JSON", t, func() {
		So(insight.NormalizeRaw(json.RawMessage(`{"title":`)), ShouldBeEmpty)
	})

	Convey("Given a list with nested structures", t, func() {
		raw := `[{"title":"outer","description":{"title":"inner"}},["nested"],7,null,"tail"]`
		out := insight.NormalizeRaw(json.RawMessage(raw))

		Convey("Then records should flatten to one level and other shapes should be empty items", func() {
			So(out, ShouldResemble, []insight.Block{
				insight.TitledItem("outer", ""),
				insight.TitledItem("", ""),
				insight.TitledItem("", ""),
				insight.TitledItem("", ""),
				insight.PlainText("tail"),
			})
		})
	})

	Convey("Given records with scalar titles and descriptions", t, func() {
		raw := `[{"title":7,"description":true},{"title":0,"description":false},{"title":2.5,"description":null}]`
		out := insight.NormalizeRaw(json.RawMessage(raw))

		Convey("Then non-zero scalars should render as text", func() {
			So(out[0], ShouldResemble, insight.TitledItem("7", "true"))
			So(out[2], ShouldResemble, insight.TitledItem("2.5", ""))
		})

		Convey("And zero, false and null should be omitted", func() {
			So(out[1].HasTitle(), ShouldBeFalse)
			So(out[1].HasBody(), ShouldBeFalse)
			So(out[2].HasBody(), ShouldBeFalse)
		})
	})

	Convey("Given an empty list", t, func() {
		out := insight.NormalizeRaw(json.RawMessage(`[]`))

		Convey("Then it should be an empty sequence", func() {
			So(out, ShouldNotBeNil)
			So(out, ShouldBeEmpty)
		})
	})
}

func TestParse(t *testing.T) {
	Convey("Given payloads of every shape", t, func() {
		cases := map[string]insight.Kind{
			``:                insight.KindEmpty,
			`null`:            insight.KindEmpty,
			`"summary"`:       insight.KindText,
			`["a"]`:           insight.KindList,
			`{"title":"t"}`:   insight.KindRecord,
			`12`:              insight.KindEmpty,
			`not json at all`: insight.KindEmpty,
		}
		for raw, want := range cases {
			So(insight.Parse(json.RawMessage(raw)).Kind(), ShouldEqual, want)
		}
	})

	Convey("Given content built programmatically", t, func() {
		c := insight.List(
			insight.TextItem("first"),
			insight.RecordItem(insight.Record{Title: "second", Description: "why"}),
		)

		Convey("Then it should normalize like parsed content", func() {
			So(insight.Normalize(c), ShouldResemble, insight.NormalizeRaw(json.RawMessage(`["first",{"title":"second","description":"why"}]`)))
		})
	})
}

func TestBlockJSON(t *testing.T) {
	Convey("Given an item block without a body", t, func() {
		b, err := json.Marshal(insight.TitledItem("only title", ""))

		Convey("Then the body key should be omitted", func() {
			So(err, ShouldBeNil)
			So(string(b), ShouldEqual, `{"kind":"item","title":"only title"}`)
		})
	})
}
