// Command chess-relay runs the pairing and forwarding server two chess
// clients meet at.
package main

import (
	"log"
	"net/http"
	"os"

	"github.com/d5h/chess/internal/ledger"
	"github.com/d5h/chess/internal/relay"
)

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	led, mode, err := ledger.NewServiceFromEnv()
	if err != nil {
		log.Fatalf("[Relay] ledger init: %v", err)
	}
	defer led.Close()
	log.Printf("[Relay] session ledger mode: %s", mode)

	mux := http.NewServeMux()
	relay.New(led).Routes(mux)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	addr := ":" + getenv("PORT", "58597")
	cert, key := os.Getenv("TLS_CERT"), os.Getenv("TLS_KEY")
	if cert != "" && key != "" {
		log.Printf("[Relay] listening on %s (TLS)", addr)
		log.Fatal(http.ListenAndServeTLS(addr, cert, key, mux))
	}
	log.Printf("[Relay] listening on %s", addr)
	log.Fatal(http.ListenAndServe(addr, mux))
}
