package handler

import (
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestProviderMessage(t *testing.T) {
	Convey("providerMessage picks the most useful text from an error reply", t, func() {
		Convey("detail wins over message", func() {
			So(providerMessage(400, []byte(`{"detail": "bad size", "message": "other"}`), nil), ShouldEqual, "bad size")
		})

		Convey("message is used when detail is empty or missing", func() {
			So(providerMessage(401, []byte(`{"message": "invalid key"}`), nil), ShouldEqual, "invalid key")
			So(providerMessage(401, []byte(`{"detail": null, "message": "invalid key"}`), nil), ShouldEqual, "invalid key")
			So(providerMessage(401, []byte(`{"detail": [], "message": "invalid key"}`), nil), ShouldEqual, "invalid key")
		})

		Convey("escaped strings are decoded", func() {
			So(providerMessage(400, []byte(`{"detail": "say \"cheese\"\n"}`), nil), ShouldEqual, "say \"cheese\"\n")
		})

		Convey("validation lists are joined by their msg fields", func() {
			body := `{"detail": [
				{"loc": ["body", "image_size"], "msg": "unexpected value", "type": "value_error"},
				{"loc": ["body", "num_inference_steps"], "msg": "must be <= 12", "type": "value_error"}
			]}`
			So(providerMessage(422, []byte(body), nil), ShouldEqual, "unexpected value; must be <= 12")
		})

		Convey("other structured details are rendered as compact JSON", func() {
			So(providerMessage(422, []byte(`{"detail": {"field": "prompt"}}`), nil), ShouldEqual, `{"field":"prompt"}`)
			So(providerMessage(422, []byte(`{"detail": [1, 2]}`), nil), ShouldEqual, `[1,2]`)
		})

		Convey("a duplicated key resolves to its first occurrence", func() {
			So(providerMessage(400, []byte(`{"detail": "first", "detail": "second"}`), nil), ShouldEqual, "first")
		})

		Convey("an object with neither field gives the generic message", func() {
			So(providerMessage(500, []byte(`{}`), nil), ShouldEqual, "FAL API error")
			So(providerMessage(500, []byte(`{"detail": "", "message": ""}`), nil), ShouldEqual, "FAL API error")
		})

		Convey("an unparsable or non-object body reports the status code", func() {
			So(providerMessage(502, []byte(`<html>Bad Gateway</html>`), nil), ShouldEqual, "FAL API error: HTTP 502")
			So(providerMessage(404, nil, nil), ShouldEqual, "FAL API error: HTTP 404")
			So(providerMessage(400, []byte(`["detail"]`), nil), ShouldEqual, "FAL API error: HTTP 400")
		})

		Convey("a body that could not be read reports the status code", func() {
			So(providerMessage(500, []byte(`{"detail": "partial`), errors.New("unexpected EOF")), ShouldEqual, "FAL API error: HTTP 500")
		})
	})
}
