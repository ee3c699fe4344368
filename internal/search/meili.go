package search

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	meili "github.com/meilisearch/meilisearch-go"

	"github.com/chrisminnick/starboard2/internal/lib/sl"
	"github.com/chrisminnick/starboard2/internal/models"
)

const idxProjects = "starboard_projects"

var errUnhealthy = errors.New("meilisearch unhealthy")

// Meili indexes and searches projects in Meilisearch.
type Meili struct {
	log     *slog.Logger
	client  meili.ServiceManager
	healthy atomic.Bool
	done    chan struct{}
}

// NewMeili connects to Meilisearch and configures the project index. An
// unreachable server is not an error: the client reports unhealthy and a
// background loop keeps checking.
func NewMeili(log *slog.Logger, url, apiKey string) *Meili {
	m := &Meili{
		log:    log.With(slog.String("component", "meilisearch")),
		client: meili.New(url, meili.WithAPIKey(apiKey)),
		done:   make(chan struct{}),
	}

	if _, err := m.client.Health(); err != nil {
		m.log.Warn("meilisearch unavailable", slog.String("url", url), sl.Err(err))
		m.healthy.Store(false)
	} else {
		m.healthy.Store(true)
		m.configureIndex()
	}

	go m.healthLoop()
	return m
}

func (m *Meili) configureIndex() {
	if _, err := m.client.CreateIndex(&meili.IndexConfig{
		Uid:        idxProjects,
		PrimaryKey: "id",
	}); err != nil {
		m.log.Debug("create index (may already exist)", sl.Err(err))
	}

	index := m.client.Index(idxProjects)
	filterable := []interface{}{"ownerId"}
	if _, err := index.UpdateFilterableAttributes(&filterable); err != nil {
		m.log.Warn("update filterable attributes", sl.Err(err))
	}
	searchable := []string{"title", "description", "genre"}
	if _, err := index.UpdateSearchableAttributes(&searchable); err != nil {
		m.log.Warn("update searchable attributes", sl.Err(err))
	}
}

func (m *Meili) healthLoop() {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			_, err := m.client.Health()
			wasHealthy := m.healthy.Load()
			m.healthy.Store(err == nil)
			if err == nil && !wasHealthy {
				m.log.Info("meilisearch recovered, reconfiguring index")
				m.configureIndex()
			}
		}
	}
}

// Close stops the health loop.
func (m *Meili) Close() {
	close(m.done)
}

// Healthy reports whether the last health check succeeded.
func (m *Meili) Healthy() bool {
	return m.healthy.Load()
}

// Search runs q against the project index, filtered to the owner.
func (m *Meili) Search(q Query) ([]models.ProjectSummary, int, error) {
	if !m.healthy.Load() {
		return nil, 0, errUnhealthy
	}

	resp, err := m.client.MultiSearch(&meili.MultiSearchRequest{
		Queries: []*meili.SearchRequest{{
			IndexUID: idxProjects,
			Query:    q.Text,
			Limit:    int64(limitOrDefault(q.Limit)),
			Filter:   ownerFilter(q.OwnerID),
		}},
	})
	if err != nil {
		m.healthy.Store(false)
		return nil, 0, fmt.Errorf("meilisearch multi-search: %w", err)
	}

	results := []models.ProjectSummary{}
	total := 0
	for _, sr := range resp.Results {
		total += int(sr.EstimatedTotalHits)
		for _, hit := range sr.Hits {
			rec, err := decodeHit(hit)
			if err != nil {
				m.log.Warn("skipping undecodable hit", sl.Err(err))
				continue
			}
			results = append(results, rec.Summary())
		}
	}
	return results, total, nil
}

// IndexProject adds or replaces the project's document.
func (m *Meili) IndexProject(rec ProjectRecord) error {
	_, err := m.client.Index(idxProjects).AddDocuments([]ProjectRecord{rec}, nil)
	return err
}

// DeleteProject removes the project's document.
func (m *Meili) DeleteProject(id string) error {
	_, err := m.client.Index(idxProjects).DeleteDocument(id, nil)
	return err
}

func ownerFilter(ownerID string) string {
	return fmt.Sprintf("ownerId = %q", ownerID)
}

func limitOrDefault(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	return limit
}

func decodeHit(hit meili.Hit) (ProjectRecord, error) {
	var rec ProjectRecord
	raw, err := json.Marshal(hit)
	if err != nil {
		return rec, err
	}
	if err := json.Unmarshal(raw, &rec); err != nil {
		return rec, err
	}
	if rec.ID == "" {
		return rec, errors.New("hit has no id")
	}
	return rec, nil
}
