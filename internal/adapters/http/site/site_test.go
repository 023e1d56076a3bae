package site

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	. "github.com/smartystreets/goconvey/convey"
)

func get(h http.Handler, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", path, nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestSiteHandler(t *testing.T) {
	Convey("Given a site handler", t, func() {
		ctx := context.Background()
		mux := http.NewServeMux()

		Convey("When registering the site handler", func() {
			Register(ctx, mux)

			Convey("Then it should serve the play page at /", func() {
				w := get(mux, "/")
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Content-Type"), ShouldContainSubstring, "text/html")
				So(w.Body.String(), ShouldContainSubstring, "Hangman History Quiz")
			})

			Convey("And it should serve the script and stylesheet", func() {
				w := get(mux, "/app.js")
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, "/presence/ws")

				w = get(mux, "/style.css")
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Content-Type"), ShouldContainSubstring, "text/css")
			})

			Convey("And unknown assets are a 404", func() {
				w := get(mux, "/some-asset")
				So(w.Code, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("When registering on a chi router", func() {
			r := chi.NewRouter()
			Register(ctx, r)

			Convey("Then only the page and its assets are routed", func() {
				So(get(r, "/").Code, ShouldEqual, http.StatusOK)
				So(get(r, "/app.js").Code, ShouldEqual, http.StatusOK)
				So(get(r, "/games").Code, ShouldEqual, http.StatusNotFound)
			})
		})
	})
}

func TestSiteHandlerWithNilMux(t *testing.T) {
	Convey("Given a nil mux", t, func() {
		ctx := context.Background()

		Convey("When registering the site handler", func() {
			Convey("Then it should panic", func() {
				So(func() {
					Register(ctx, nil)
				}, ShouldPanic)
			})
		})
	})
}
