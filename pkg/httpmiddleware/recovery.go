package httpmiddleware

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
)

// Recovery turns handler panics into 500 responses. The panic value and
// stack are logged; the client sees only a generic error body.
// http.ErrAbortHandler is re-raised so net/http can abort the connection
// the way it expects to.
func Recovery() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sw := &statusWriter{ResponseWriter: w}
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(rec)
				}
				zctx.From(r.Context()).Error("panic recovered",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Any("panic", rec),
					zap.Stack("stack"),
				)
				// If the handler already started the response there is
				// nothing coherent left to send.
				if sw.status != 0 {
					return
				}
				sw.Header().Set("Connection", "close")
				sw.Header().Set("Content-Type", "application/json")
				sw.WriteHeader(http.StatusInternalServerError)
				_, _ = sw.Write([]byte(`{"error":"internal error"}`))
			}()
			next.ServeHTTP(sw, r)
		})
	}
}
