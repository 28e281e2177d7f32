// Command targets serves endpoints that reproduce each failure class salvo
// reports, for exercising the tool by hand:
//
//	go run ./scripts/testservers/targets --port 8081
//	salvo -n 200 -c 8 http://localhost:8081/status/503
package main

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
)

func main() {
	port := pflag.Int("port", 8081, "Listening port")
	pflag.Parse()

	addr := fmt.Sprintf(":%d", *port)
	logrus.WithField("addr", addr).Info("target server listening")
	logrus.Fatal(http.ListenAndServe(addr, newTargetMux()))
}

func newTargetMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/ok", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok\n"))
	})
	mux.HandleFunc("/status/", handleStatus)
	mux.HandleFunc("/slow", handleSlow)
	mux.HandleFunc("/redirect/", handleRedirect)
	mux.HandleFunc("/bad-redirect", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Location", "ftp://example.invalid/")
		w.WriteHeader(http.StatusFound)
	})
	mux.HandleFunc("/truncated", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "1024")
		_, _ = w.Write([]byte("short"))
	})
	mux.HandleFunc("/bad-gzip", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Encoding", "gzip")
		_, _ = w.Write([]byte("not gzip"))
	})
	return mux
}

// handleStatus answers /status/{code}.
func handleStatus(w http.ResponseWriter, r *http.Request) {
	code, err := strconv.Atoi(strings.TrimPrefix(r.URL.Path, "/status/"))
	if err != nil || code < 100 || code > 599 {
		http.Error(w, "status must be 100-599", http.StatusBadRequest)
		return
	}
	w.WriteHeader(code)
}

// handleSlow sleeps for ?delay= (default 2s) before answering.
func handleSlow(w http.ResponseWriter, r *http.Request) {
	delay := 2 * time.Second
	if raw := r.URL.Query().Get("delay"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		delay = d
	}
	select {
	case <-time.After(delay):
		_, _ = w.Write([]byte("slow\n"))
	case <-r.Context().Done():
	}
}

// handleRedirect answers /redirect/{n} with n hops before a 200. A negative
// n redirects forever.
func handleRedirect(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.Atoi(strings.TrimPrefix(r.URL.Path, "/redirect/"))
	if err != nil {
		http.Error(w, "hop count must be an integer", http.StatusBadRequest)
		return
	}
	switch {
	case n == 0:
		_, _ = w.Write([]byte("arrived\n"))
	case n < 0:
		http.Redirect(w, r, r.URL.Path, http.StatusFound)
	default:
		http.Redirect(w, r, fmt.Sprintf("/redirect/%d", n-1), http.StatusFound)
	}
}
