package search

import (
	"context"
	"log/slog"
	"sync"

	"github.com/chrisminnick/starboard2/internal/lib/sl"
	"github.com/chrisminnick/starboard2/internal/models"
)

// Engine is a full-text index. *Meili implements it.
type Engine interface {
	Healthy() bool
	Search(q Query) ([]models.ProjectSummary, int, error)
	IndexProject(rec ProjectRecord) error
	DeleteProject(id string) error
}

// Fallback searches the primary store.
type Fallback interface {
	SearchProjects(ctx context.Context, ownerID, query string, limit int) ([]models.ProjectSummary, error)
}

// indexQueueSize bounds the writes waiting for the engine before callers block.
const indexQueueSize = 256

// indexOp is one pending engine write: an upsert when rec is set, a delete otherwise.
type indexOp struct {
	rec      *ProjectRecord
	deleteID string
}

// Service tries the engine first and falls back to the store. Engine writes
// go through a single worker so they reach the index in call order.
type Service struct {
	log      *slog.Logger
	engine   Engine
	fallback Fallback

	ops       chan indexOp
	done      chan struct{}
	closeOnce sync.Once
}

// NewService returns a facade over engine and fallback. engine may be nil.
func NewService(log *slog.Logger, engine Engine, fallback Fallback) *Service {
	s := &Service{log: log, engine: engine, fallback: fallback}
	if engine != nil {
		s.ops = make(chan indexOp, indexQueueSize)
		s.done = make(chan struct{})
		go s.run()
	}
	return s
}

func (s *Service) run() {
	defer close(s.done)
	for op := range s.ops {
		if !s.engine.Healthy() {
			s.log.Warn("search engine unavailable, dropping index write")
			continue
		}
		if op.rec != nil {
			if err := s.engine.IndexProject(*op.rec); err != nil {
				s.log.Warn("index project", slog.String("project_id", op.rec.ID), sl.Err(err))
			}
			continue
		}
		if err := s.engine.DeleteProject(op.deleteID); err != nil {
			s.log.Warn("delete project from index", slog.String("project_id", op.deleteID), sl.Err(err))
		}
	}
}

// Close waits for queued index writes to finish. The service must not be
// written to afterwards.
func (s *Service) Close() {
	if s.ops == nil {
		return
	}
	s.closeOnce.Do(func() {
		close(s.ops)
		<-s.done
	})
}

func (s *Service) engineReady() bool {
	return s.engine != nil && s.engine.Healthy()
}

// Search never fails: store errors yield an empty response.
func (s *Service) Search(ctx context.Context, q Query) Response {
	q.Limit = limitOrDefault(q.Limit)

	if s.engineReady() {
		results, total, err := s.engine.Search(q)
		if err == nil {
			return Response{Results: results, Total: total, Query: q.Text}
		}
		s.log.Warn("search engine failed, falling back to postgres", sl.Err(err))
	}

	results, err := s.fallback.SearchProjects(ctx, q.OwnerID, q.Text, q.Limit)
	if err != nil {
		s.log.Error("postgres search failed", sl.Err(err))
		return Response{Results: []models.ProjectSummary{}, Total: 0, Query: q.Text}
	}
	if results == nil {
		results = []models.ProjectSummary{}
	}
	return Response{Results: results, Total: len(results), Query: q.Text}
}

// IndexProject queues p for the engine.
func (s *Service) IndexProject(p *models.Project) {
	if s.ops == nil {
		return
	}
	rec := RecordFromProject(p)
	s.ops <- indexOp{rec: &rec}
}

// DeleteProject queues the removal of the project from the engine.
func (s *Service) DeleteProject(id string) {
	if s.ops == nil {
		return
	}
	s.ops <- indexOp{deleteID: id}
}
