package queryapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"bendload/internal/datasource/httpds"
)

func newClient(url string) *Client {
	return New(httpds.NewClient(httpds.Config{MaxRetries: 0}), url)
}

func TestExecute_Success(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %q", ct)
		}
		var req struct {
			SQL string `json:"sql"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.SQL != "SHOW TABLES LIKE 't';" {
			t.Errorf("sql = %q", req.SQL)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"columns": []map[string]string{{"name": "name", "type": "String"}},
			"data":    [][]string{{"t"}},
			"state":   "Succeeded",
		})
	}))
	defer srv.Close()

	res, err := newClient(srv.URL).Execute(context.Background(), "SHOW TABLES LIKE 't';")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !res.HasRows() {
		t.Errorf("result should have rows: %+v", res)
	}
	if res.Columns[0].Name != "name" || res.Data[0][0] != "t" {
		t.Errorf("result = %+v", res)
	}
}

// TestExecute_ServerError verifies a well-formed response carrying an error
// object comes back as ErrStatement with the code and message attached.
func TestExecute_ServerError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"code": 1025, "message": "Unknown table 't'"},
		})
	}))
	defer srv.Close()

	_, err := newClient(srv.URL).Execute(context.Background(), "SELECT 1;")
	if !errors.Is(err, ErrStatement) {
		t.Fatalf("got %v, want ErrStatement", err)
	}
}

func TestExecute_BadStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "bad request", http.StatusBadRequest)
	}))
	defer srv.Close()

	if _, err := newClient(srv.URL).Execute(context.Background(), "SELECT 1;"); err == nil {
		t.Fatal("expected error for non-2xx status")
	}
}

func TestExecute_EmptyResultHasNoRows(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"state": "Succeeded"})
	}))
	defer srv.Close()

	res, err := newClient(srv.URL).Execute(context.Background(), "CREATE TABLE t(a uint8) Engine = Fuse;")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.HasRows() {
		t.Errorf("DDL result should have no rows: %+v", res)
	}
}

func TestExecute_NoEndpoint(t *testing.T) {
	t.Parallel()

	if _, err := newClient("").Execute(context.Background(), "SELECT 1;"); err == nil {
		t.Fatal("expected error for empty endpoint")
	}
}
