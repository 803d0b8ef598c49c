package relay

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func newTestClient(url string, out io.Writer) *Client {
	return &Client{
		url:    url,
		http:   &http.Client{},
		out:    out,
		logger: log.New(io.Discard),
	}
}

func TestAskPostsQuestionJSON(t *testing.T) {
	var (
		requests int
		gotBody  []byte
		gotType  string
	)
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			requests++
			gotType = r.Header.Get("Content-Type")
			gotBody, _ = io.ReadAll(r.Body)
			io.WriteString(w, "an answer")
		},
	))
	defer srv.Close()

	var out bytes.Buffer
	c := newTestClient(srv.URL, &out)

	if err := c.Ask(context.Background(), "hello world"); err != nil {
		t.Fatalf("Ask() = %v", err)
	}

	if requests != 1 {
		t.Errorf("backend received %d requests, want 1", requests)
	}
	if gotType != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", gotType)
	}
	if want := `{"Question":"hello world"}`; string(gotBody) != want {
		t.Errorf("body = %s, want %s", gotBody, want)
	}
}

func TestAskRendersStreamedAnswerOnOneLine(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			flusher := w.(http.Flusher)
			io.WriteString(w, "first ")
			flusher.Flush()
			io.WriteString(w, "second")
		},
	))
	defer srv.Close()

	var out bytes.Buffer
	c := newTestClient(srv.URL, &out)

	if err := c.Ask(context.Background(), "question"); err != nil {
		t.Fatalf("Ask() = %v", err)
	}

	rendered := out.String()
	if !strings.HasPrefix(rendered, "\r") {
		t.Errorf("answer does not overwrite in place: %q", rendered)
	}
	if !strings.HasSuffix(rendered, "first second\n") {
		t.Errorf("final render = %q, want suffix %q", rendered, "first second\n")
	}
}

func TestAskReportsHTTPErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		},
	))
	defer srv.Close()

	c := newTestClient(srv.URL, io.Discard)
	err := c.Ask(context.Background(), "question")
	if err == nil {
		t.Fatal("Ask() = nil for a 500 response")
	}
	if !strings.Contains(err.Error(), "500") {
		t.Errorf("error %q does not carry the status", err)
	}
}

func TestAskReportsTransportErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {},
	))
	srv.Close()

	c := newTestClient(srv.URL, io.Discard)
	if err := c.Ask(context.Background(), "question"); err == nil {
		t.Fatal("Ask() = nil against a closed server")
	}
}
