package middleware

import "net/http"

// Identity extracts the caller identity from the X-User-ID header set by
// the authenticating gateway in front of this service. Authentication
// itself happens upstream; absent a header the caller is anonymous.
func Identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := r.Header.Get("X-User-ID")
		if userID == "" {
			userID = "anonymous"
		}
		next.ServeHTTP(w, r.WithContext(withUserID(r.Context(), userID)))
	})
}
