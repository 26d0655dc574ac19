// Package search keeps the Elasticsearch projection of the user directory.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/oksasatya/user-directory/internal/domain/entity"
)

const requestTimeout = 3 * time.Second

type UserIndex struct {
	ES    *elasticsearch.Client
	Index string
}

func NewUserIndex(es *elasticsearch.Client, index string) *UserIndex {
	return &UserIndex{ES: es, Index: index}
}

type userDoc struct {
	ID        string `json:"id"`
	Version   int64  `json:"version"`
	Name      string `json:"name"`
	Nickname  string `json:"nickname"`
	Email     string `json:"email"`
	Picture   string `json:"picture,omitempty"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func toDoc(u *entity.User) userDoc {
	return userDoc{
		ID:        u.ID,
		Version:   u.Version,
		Name:      u.Name,
		Nickname:  u.Nickname,
		Email:     u.Email,
		Picture:   u.Picture,
		CreatedAt: u.CreatedAt.Format(time.RFC3339Nano),
		UpdatedAt: u.UpdatedAt.Format(time.RFC3339Nano),
	}
}

func (d userDoc) toUser() *entity.User {
	u := &entity.User{ID: d.ID, Version: d.Version, Name: d.Name, Nickname: d.Nickname, Email: d.Email, Picture: d.Picture}
	u.CreatedAt, _ = time.Parse(time.RFC3339Nano, d.CreatedAt)
	u.UpdatedAt, _ = time.Parse(time.RFC3339Nano, d.UpdatedAt)
	return u
}

const userMapping = `{
  "mappings": {
    "properties": {
      "id":         {"type": "keyword"},
      "version":    {"type": "long"},
      "name":       {"type": "text"},
      "nickname":   {"type": "text", "fields": {"raw": {"type": "keyword"}}},
      "email":      {"type": "text", "fields": {"raw": {"type": "keyword"}}},
      "picture":    {"type": "keyword", "index": false},
      "created_at": {"type": "date"},
      "updated_at": {"type": "date"}
    }
  }
}`

// EnsureIndex creates the index with the user mapping unless it already exists.
func (x *UserIndex) EnsureIndex(ctx context.Context) error {
	c, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	res, err := x.ES.Indices.Exists([]string{x.Index}, x.ES.Indices.Exists.WithContext(c))
	if err != nil {
		return err
	}
	_ = res.Body.Close()
	if res.StatusCode == 200 {
		return nil
	}

	res, err = x.ES.Indices.Create(x.Index,
		x.ES.Indices.Create.WithContext(c),
		x.ES.Indices.Create.WithBody(strings.NewReader(userMapping)),
	)
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()
	// 400 here means another worker created it first.
	if res.IsError() && res.StatusCode != 400 {
		return fmt.Errorf("es create index %s: %s", x.Index, res.Status())
	}
	return nil
}

// IndexUser upserts the document. External versioning keeps an older event
// from overwriting a newer projection.
func (x *UserIndex) IndexUser(ctx context.Context, u *entity.User) error {
	b, err := json.Marshal(toDoc(u))
	if err != nil {
		return err
	}
	req := esapi.IndexRequest{
		Index:       x.Index,
		DocumentID:  u.ID,
		Body:        bytes.NewReader(b),
		Version:     esapi.IntPtr(int(u.Version)),
		VersionType: "external_gte",
		Refresh:     "false",
	}
	c, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	res, err := req.Do(c, x.ES)
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() && res.StatusCode != 409 {
		return fmt.Errorf("es index %s: %s", u.ID, res.Status())
	}
	return nil
}

// DeleteUser removes the document; a missing document is not an error.
func (x *UserIndex) DeleteUser(ctx context.Context, id string) error {
	req := esapi.DeleteRequest{Index: x.Index, DocumentID: id, Refresh: "false"}
	c, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	res, err := req.Do(c, x.ES)
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() && res.StatusCode != 404 {
		return fmt.Errorf("es delete %s: %s", id, res.Status())
	}
	return nil
}

// Search runs a multi_match query over nickname, email and name.
func (x *UserIndex) Search(ctx context.Context, q string, size int) ([]*entity.User, error) {
	query := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":  q,
				"fields": []string{"nickname^3", "email^2", "name"},
			},
		},
		"size": size,
	}
	b, err := json.Marshal(query)
	if err != nil {
		return nil, err
	}

	c, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	res, err := x.ES.Search(
		x.ES.Search.WithContext(c),
		x.ES.Search.WithIndex(x.Index),
		x.ES.Search.WithBody(bytes.NewReader(b)),
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		if res.StatusCode == 404 {
			return []*entity.User{}, nil
		}
		return nil, fmt.Errorf("es search: %s", res.Status())
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				Source userDoc `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}

	out := make([]*entity.User, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		out = append(out, h.Source.toUser())
	}
	return out, nil
}
