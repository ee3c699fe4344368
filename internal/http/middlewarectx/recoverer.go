package middlewarectx

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"github.com/chrisminnick/starboard2/internal/http/response"
)

// Recoverer turns a panic into a 500. The panic text is only exposed when
// exposeDetails is set, which is the case outside production.
func Recoverer(log *slog.Logger, exposeDetails bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				log.Error("panic recovered",
					slog.String("request_id", middleware.GetReqID(r.Context())),
					slog.Any("panic", rec),
					slog.String("stack", string(debug.Stack())),
				)

				msg := "something went wrong"
				if exposeDetails {
					msg = fmt.Sprint(rec)
				}
				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, response.Error(msg))
			}()
			next.ServeHTTP(w, r)
		})
	}
}
