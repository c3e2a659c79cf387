package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/google/uuid"

	"github.com/Skotchmaster/storefront/internal/models"
)

type ESConfig struct {
	URL      string
	User     string
	Password string
	Index    string
}

func NewClient(cfg ESConfig) (*elasticsearch.Client, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.User,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch: new client: %w", err)
	}

	res, err := client.Info()
	if err != nil {
		return nil, fmt.Errorf("elasticsearch: info: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("elasticsearch: info: %s: %s", res.Status(), body)
	}
	return client, nil
}

type ESSearcher struct {
	Client *elasticsearch.Client
	Index  string
}

type productDoc struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Price       string `json:"price"`
}

func (s *ESSearcher) Search(ctx context.Context, rawQ string, offset, limit int) (Result, error) {
	q := sanitizeQuery(rawQ)
	if q == "" {
		return Result{IDs: []uuid.UUID{}}, nil
	}

	body := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":     q,
				"fields":    []string{"name^2", "description"},
				"fuzziness": "AUTO",
			},
		},
		"_source": []string{"id"},
		"from":    offset,
		"size":    limit,
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return Result{}, fmt.Errorf("elasticsearch: encode query: %w", err)
	}

	res, err := s.Client.Search(
		s.Client.Search.WithContext(ctx),
		s.Client.Search.WithIndex(s.Index),
		s.Client.Search.WithBody(&buf),
	)
	if err != nil {
		return Result{}, fmt.Errorf("elasticsearch: search: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return Result{}, fmt.Errorf("elasticsearch: search: %s", res.Status())
	}

	var r struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				ID string `json:"_id"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return Result{}, fmt.Errorf("elasticsearch: decode: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(r.Hits.Hits))
	for _, hit := range r.Hits.Hits {
		id, err := uuid.Parse(hit.ID)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return Result{Total: r.Hits.Total.Value, IDs: ids}, nil
}

func (s *ESSearcher) Index(ctx context.Context, p *models.Product) error {
	doc := productDoc{
		ID:          p.ID.String(),
		Name:        p.Name,
		Description: p.Description,
		Category:    p.Category,
		Price:       p.Price.StringFixed(2),
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("elasticsearch: encode doc: %w", err)
	}

	res, err := s.Client.Index(s.Index, bytes.NewReader(raw),
		s.Client.Index.WithDocumentID(doc.ID),
		s.Client.Index.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch: index: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("elasticsearch: index %s: %s", doc.ID, res.Status())
	}
	return nil
}

func (s *ESSearcher) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.Client.Delete(s.Index, id.String(), s.Client.Delete.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("elasticsearch: delete: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("elasticsearch: delete %s: %s", id, res.Status())
	}
	return nil
}

// Fallback tries the primary searcher and falls back to secondary on error.
type Fallback struct {
	Primary   Searcher
	Secondary Searcher
	OnError   func(error)
}

func (f *Fallback) Search(ctx context.Context, q string, offset, limit int) (Result, error) {
	res, err := f.Primary.Search(ctx, q, offset, limit)
	if err == nil {
		return res, nil
	}
	if f.OnError != nil {
		f.OnError(err)
	}
	return f.Secondary.Search(ctx, q, offset, limit)
}
