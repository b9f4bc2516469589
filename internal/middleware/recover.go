package middleware

import (
	"log"
	"net/http"
	"runtime"

	"github.com/brandconnect/brandconnect-be/internal/http/respond"
)

// Recover turns a handler panic into a 500 response and logs the stack.
func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			stack := make([]byte, 8*1024)
			stack = stack[:runtime.Stack(stack, false)]
			log.Printf("panic recovered: %v\n%s", rec, stack)
			respond.Error(w, http.StatusInternalServerError, "internal server error")
		}()
		next.ServeHTTP(w, r)
	})
}
