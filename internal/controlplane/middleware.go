package controlplane

import (
	"context"
	"net/http"

	"github.com/octaspace/transfer-manager/internal/constants"
	"github.com/octaspace/transfer-manager/internal/remote"
	"github.com/octaspace/transfer-manager/internal/version"
)

type userDataKey struct{}

// corsMiddleware answers CORS preflight requests with permissive headers and
// decorates every response the same way, since the control plane is only
// ever called from the local host app's own UI process (SPEC_FULL.md §4.H).
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, farm_host, api_token, qm_auth_token, "+constants.DaemonVersionHeader)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// versionGateMiddleware rejects requests whose Transfer-Manager-Version
// header disagrees with this daemon's build version. A missing header is
// allowed through — only a present, mismatching header is a hard failure
// (SPEC_FULL.md §6, §8: "requests with a mismatching ... header receive 412").
func versionGateMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get(constants.DaemonVersionHeader); got != "" && got != version.Version {
			writeError(w, http.StatusPreconditionFailed, "transfer manager version mismatch")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// userDataMiddleware injects remote.UserData built from request headers into
// the request context, falling back to defaultFarmHost when farm_host is
// absent or the literal string "null" (SPEC_FULL.md §4.H point 3).
func userDataMiddleware(defaultFarmHost string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			farmHost := r.Header.Get("farm_host")
			if farmHost == "" || farmHost == "null" {
				farmHost = defaultFarmHost
			}
			ud := remote.UserData{
				FarmHost:    farmHost,
				APIToken:    r.Header.Get("api_token"),
				QMAuthToken: r.Header.Get("qm_auth_token"),
			}
			ctx := context.WithValue(r.Context(), userDataKey{}, ud)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func userDataFromContext(ctx context.Context) remote.UserData {
	ud, _ := ctx.Value(userDataKey{}).(remote.UserData)
	return ud
}
