package relay

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/spf13/cobra"
)

// streamDelay paces the stub's answer so the client's updating line is
// visible. Tests zero it.
var streamDelay = 50 * time.Millisecond

// Serve runs a stub of the interview backend so the listen loop can be
// exercised end to end without the real service. It implements the same
// contract the relay client consumes: a JSON question in, a trickled
// plaintext answer out.
func Serve(port int) error {
	r := chi.NewRouter()
	r.Post("/api/v1/interviews/{id}/start", handleStart)

	log.Info("stub backend", "url", fmt.Sprintf("http://localhost:%d", port))
	return http.ListenAndServe(fmt.Sprintf(":%d", port), r)
}

func handleStart(w http.ResponseWriter, r *http.Request) {
	var q question
	if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	answer := fmt.Sprintf(
		"Interview %s heard: %q. A thoughtful answer would start by restating the question, then walk through an example.",
		chi.URLParam(r, "id"), q.Question,
	)

	flusher, _ := w.(http.Flusher)
	words := strings.Fields(answer)
	for i, word := range words {
		if i > 0 {
			fmt.Fprint(w, " ")
		}
		fmt.Fprint(w, word)
		if flusher != nil {
			flusher.Flush()
		}
		time.Sleep(streamDelay)
	}
}

var ServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve a stub interview backend",
	Long:  `This command serves a local stand-in for the interview backend, streaming a canned answer for every question.`,
	Run: func(cmd *cobra.Command, args []string) {
		port, _ := cmd.Flags().GetInt("port")
		if err := Serve(port); err != nil {
			log.Fatal("start stub backend", "error", err)
		}
	},
}

func init() {
	ServeCmd.Flags().IntP("port", "p", 8000, "Port for the stub backend")
}
