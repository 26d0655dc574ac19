package search

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/elastic/go-elasticsearch/v8"

	"github.com/oksasatya/user-directory/internal/domain/entity"
)

func newTestIndex(t *testing.T, handler http.HandlerFunc) *UserIndex {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	es, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	if err != nil {
		t.Fatalf("es client: %v", err)
	}
	return NewUserIndex(es, "users")
}

func TestIndexUserUsesExternalVersion(t *testing.T) {
	var gotPath, gotQuery string
	var gotDoc userDoc
	idx := newTestIndex(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotQuery = r.URL.Path, r.URL.RawQuery
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotDoc)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"result":"created"}`))
	})

	u := &entity.User{ID: "u-1", Version: 3, Name: "Ada", Nickname: "ada-l", Email: "ada@example.com", CreatedAt: time.Now().UTC()}
	if err := idx.IndexUser(context.Background(), u); err != nil {
		t.Fatalf("index: %v", err)
	}
	if gotPath != "/users/_doc/u-1" {
		t.Fatalf("path = %q", gotPath)
	}
	if !strings.Contains(gotQuery, "version=3") || !strings.Contains(gotQuery, "version_type=external_gte") {
		t.Fatalf("query = %q", gotQuery)
	}
	if gotDoc.Nickname != "ada-l" || gotDoc.Version != 3 {
		t.Fatalf("doc = %+v", gotDoc)
	}
}

func TestDeleteUserIgnoresMissingDocument(t *testing.T) {
	idx := newTestIndex(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("method = %s", r.Method)
		}
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"result":"not_found"}`))
	})
	if err := idx.DeleteUser(context.Background(), "u-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
}

func TestSearchDecodesHits(t *testing.T) {
	var query map[string]any
	idx := newTestIndex(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &query)
		_, _ = w.Write([]byte(`{"hits":{"hits":[
			{"_id":"u-1","_source":{"id":"u-1","version":2,"name":"Ada","nickname":"ada-l","email":"ada@example.com","created_at":"2024-03-01T10:00:00Z","updated_at":"2024-03-02T10:00:00Z"}}
		]}}`))
	})

	users, err := idx.Search(context.Background(), "ada", 5)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(users) != 1 || users[0].Nickname != "ada-l" || users[0].Version != 2 {
		t.Fatalf("users = %+v", users)
	}
	if users[0].CreatedAt.Year() != 2024 {
		t.Fatalf("created_at not parsed: %v", users[0].CreatedAt)
	}
	if query["size"].(float64) != 5 {
		t.Fatalf("size not forwarded: %v", query)
	}
}

func TestSearchMissingIndexIsEmpty(t *testing.T) {
	idx := newTestIndex(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"type":"index_not_found_exception"}}`))
	})
	users, err := idx.Search(context.Background(), "ada", 5)
	if err != nil || len(users) != 0 {
		t.Fatalf("expected empty result, got %v %v", users, err)
	}
}

func TestEnsureIndex(t *testing.T) {
	tests := []struct {
		name       string
		existsCode int
		createCode int
		wantCreate bool
		wantErr    bool
	}{
		{"already exists", http.StatusOK, 0, false, false},
		{"created", http.StatusNotFound, http.StatusOK, true, false},
		{"lost race", http.StatusNotFound, http.StatusBadRequest, true, false},
		{"cluster error", http.StatusNotFound, http.StatusForbidden, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			created := false
			idx := newTestIndex(t, func(w http.ResponseWriter, r *http.Request) {
				switch r.Method {
				case http.MethodHead:
					w.WriteHeader(tt.existsCode)
				case http.MethodPut:
					created = true
					body, _ := io.ReadAll(r.Body)
					if !strings.Contains(string(body), `"nickname"`) {
						t.Errorf("mapping missing nickname: %s", body)
					}
					w.WriteHeader(tt.createCode)
					_, _ = w.Write([]byte(`{}`))
				}
			})
			err := idx.EnsureIndex(context.Background())
			if (err != nil) != tt.wantErr || created != tt.wantCreate {
				t.Fatalf("err=%v created=%v", err, created)
			}
		})
	}
}
