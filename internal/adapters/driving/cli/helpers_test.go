package cli

import (
	"context"
	"sort"

	"github.com/trander-25/23521801-vuthevinh-lab06/internal/core/domain"
	"github.com/trander-25/23521801-vuthevinh-lab06/internal/core/ports/driving"
	"github.com/trander-25/23521801-vuthevinh-lab06/internal/core/services"
)

// setupTestServices wires mock services into the command tree and returns a
// cleanup function restoring the previous state.
func setupTestServices() func() {
	prevQuery, prevIngest, prevDocs, prevConfig := queryService, ingestService, documentService, configStore

	SetServices(Services{
		Query:    &stubQueryService{},
		Ingest:   &stubIngestService{},
		Document: newStubDocumentService(),
		Config:   newStubConfigStore(),
	})

	return func() {
		queryService = prevQuery
		ingestService = prevIngest
		documentService = prevDocs
		configStore = prevConfig
	}
}

type stubQueryService struct {
	contextBlock string
	results      []domain.SimilarityResult
}

func (s *stubQueryService) Context(ctx context.Context, query string) (string, []domain.SimilarityResult, error) {
	if s.contextBlock == "" {
		return services.NoContext, nil, nil
	}
	return s.contextBlock, s.results, nil
}

type stubIngestService struct {
	report driving.IngestReport
	err    error
}

func (s *stubIngestService) IngestPending(ctx context.Context) (driving.IngestReport, error) {
	if s.err != nil {
		return driving.IngestReport{}, s.err
	}
	if s.report.RunID == "" {
		s.report.RunID = "test-run"
	}
	return s.report, nil
}

type stubDocumentService struct {
	docs   map[string]*domain.Document
	nextID int64
}

func newStubDocumentService() *stubDocumentService {
	return &stubDocumentService{docs: make(map[string]*domain.Document)}
}

func (s *stubDocumentService) Add(ctx context.Context, title, slug, content string) (*domain.Document, error) {
	if slug == "" {
		slug = domain.Slugify(title)
	}
	if _, ok := s.docs[slug]; ok {
		return nil, domain.ErrAlreadyExists
	}
	s.nextID++
	doc := &domain.Document{ID: s.nextID, Title: title, Slug: slug, Content: content}
	s.docs[slug] = doc
	return doc, nil
}

func (s *stubDocumentService) Update(ctx context.Context, id int64, title, content string) (*domain.Document, error) {
	for _, doc := range s.docs {
		if doc.ID == id {
			doc.Title = title
			doc.Content = content
			return doc, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *stubDocumentService) Get(ctx context.Context, slug string) (*domain.Document, error) {
	doc, ok := s.docs[slug]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return doc, nil
}

func (s *stubDocumentService) List(ctx context.Context) ([]domain.Document, error) {
	var out []domain.Document
	for _, doc := range s.docs {
		out = append(out, *doc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s *stubDocumentService) Delete(ctx context.Context, id int64) error {
	for slug, doc := range s.docs {
		if doc.ID == id {
			delete(s.docs, slug)
			return nil
		}
	}
	return domain.ErrNotFound
}

type stubConfigStore struct {
	data map[string]any
}

func newStubConfigStore() *stubConfigStore {
	return &stubConfigStore{data: make(map[string]any)}
}

func (s *stubConfigStore) Get(key string) (any, bool) {
	v, ok := s.data[key]
	return v, ok
}

func (s *stubConfigStore) GetString(key string) string {
	if v, ok := s.data[key].(string); ok {
		return v
	}
	return ""
}

func (s *stubConfigStore) GetInt(key string) int {
	if v, ok := s.data[key].(int); ok {
		return v
	}
	return 0
}

func (s *stubConfigStore) GetBool(key string) bool {
	if v, ok := s.data[key].(bool); ok {
		return v
	}
	return false
}

func (s *stubConfigStore) Set(key string, value any) error {
	s.data[key] = value
	return nil
}

func (s *stubConfigStore) Save() error { return nil }
func (s *stubConfigStore) Load() error { return nil }
func (s *stubConfigStore) Path() string {
	return "/tmp/kbase-test/config.toml"
}
