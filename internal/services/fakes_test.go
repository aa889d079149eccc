package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"assessment-backend/internal/models"
	"assessment-backend/internal/repository"
)

// ─── Generator ───

type fakeResponse struct {
	Text string
	Err  error
}

// fakeGenerator returns canned responses in FIFO order and records prompts.
type fakeGenerator struct {
	mu        sync.Mutex
	responses []fakeResponse
	Prompts   []string
}

func newFakeGenerator(responses ...fakeResponse) *fakeGenerator {
	return &fakeGenerator{responses: responses}
}

func (g *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.Prompts = append(g.Prompts, prompt)
	if len(g.responses) == 0 {
		return "", &UpstreamError{Err: errors.New("no canned response")}
	}
	resp := g.responses[0]
	g.responses = g.responses[1:]
	return resp.Text, resp.Err
}

func (g *fakeGenerator) CallCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.Prompts)
}

// ─── Content & notifications ───

type fakeContent map[int64]string

func (c fakeContent) GetContent(_ context.Context, documentID int64) (string, error) {
	text, ok := c[documentID]
	if !ok {
		return "", &NotFoundError{Message: "Document not found"}
	}
	return text, nil
}

type fakeNotifier struct {
	mu       sync.Mutex
	Messages []models.WSMessage
}

func (n *fakeNotifier) Notify(_ context.Context, _ uuid.UUID, msg models.WSMessage) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Messages = append(n.Messages, msg)
}

// ─── In-memory store ───

// memStore keeps everything in slices. WithTx snapshots state and restores
// it when fn fails, so rollback is observable.
type memStore struct {
	mu           sync.Mutex
	documents    map[int64]models.Document
	questions    []models.Question
	progress     []models.ProgressRecord
	history      []models.QuizHistoryRecord
	completed    []models.CompletedQuiz
	interactions []models.ChatInteraction
	corrupt      map[int64]bool
	nextID       int64
	failOn       string
}

func newMemStore(docs ...models.Document) *memStore {
	s := &memStore{
		documents: make(map[int64]models.Document),
		corrupt:   make(map[int64]bool),
		nextID:    1000,
	}
	for _, d := range docs {
		s.documents[d.ID] = d
	}
	return s
}

func (s *memStore) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *memStore) fail(op string) error {
	switch {
	case s.failOn == op:
		return fmt.Errorf("%s: connection reset", op)
	case s.failOn == "encode:"+op:
		return fmt.Errorf("%w: %s", repository.ErrEncode, op)
	}
	return nil
}

func (s *memStore) GetByID(_ context.Context, id int64) (*models.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.documents[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &d, nil
}

func (s *memStore) ListByCategory(_ context.Context, category string, excludeID int64, limit int) ([]models.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var docs []models.Document
	for _, d := range s.documents {
		if d.Category == category && d.ID != excludeID {
			docs = append(docs, d)
		}
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	if len(docs) > limit {
		docs = docs[:limit]
	}
	return docs, nil
}

func (s *memStore) ListByDocument(_ context.Context, documentID int64) ([]models.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Question
	for _, q := range s.questions {
		if q.DocumentID == documentID {
			out = append(out, q)
		}
	}
	return out, nil
}

func (s *memStore) GetByIDs(_ context.Context, ids []int64) ([]models.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	want := make(map[int64]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []models.Question
	for _, q := range s.questions {
		if want[q.ID] {
			out = append(out, q)
		}
	}
	return out, nil
}

func (s *memStore) WithTx(ctx context.Context, fn func(repository.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	questions := append([]models.Question(nil), s.questions...)
	progress := append([]models.ProgressRecord(nil), s.progress...)
	history := append([]models.QuizHistoryRecord(nil), s.history...)
	completed := append([]models.CompletedQuiz(nil), s.completed...)
	nextID := s.nextID

	if err := fn(&memTx{s: s}); err != nil {
		s.questions, s.progress, s.history, s.completed, s.nextID = questions, progress, history, completed, nextID
		return err
	}
	return nil
}

// addQuestions seeds a question set directly.
func (s *memStore) addQuestions(qs ...models.Question) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.questions = append(s.questions, qs...)
}

type memTx struct {
	s *memStore
}

func (t *memTx) ReplaceQuestions(_ context.Context, documentID int64, questions []models.Question) ([]models.Question, error) {
	kept := t.s.questions[:0:0]
	for _, q := range t.s.questions {
		if q.DocumentID != documentID {
			kept = append(kept, q)
		}
	}
	t.s.questions = kept

	if err := t.s.fail("ReplaceQuestions"); err != nil {
		return nil, err
	}

	saved := make([]models.Question, len(questions))
	for i, q := range questions {
		q.ID = t.s.id()
		q.DocumentID = documentID
		q.CreatedAt = time.Now()
		saved[i] = q
		t.s.questions = append(t.s.questions, q)
	}
	return saved, nil
}

func (t *memTx) CreateProgress(_ context.Context, p *models.ProgressRecord) error {
	if err := t.s.fail("CreateProgress"); err != nil {
		return err
	}
	p.ID = t.s.id()
	p.CompletedAt = time.Now()
	t.s.progress = append(t.s.progress, *p)
	return nil
}

func (t *memTx) CreateQuizHistory(_ context.Context, h *models.QuizHistoryRecord) error {
	if err := t.s.fail("CreateQuizHistory"); err != nil {
		return err
	}
	h.ID = t.s.id()
	h.CompletedAt = time.Now()
	t.s.history = append(t.s.history, *h)
	return nil
}

func (t *memTx) CreateCompletedQuiz(_ context.Context, c *models.CompletedQuiz) error {
	if err := t.s.fail("CreateCompletedQuiz"); err != nil {
		return err
	}
	c.ID = t.s.id()
	c.CreatedAt = time.Now()
	t.s.completed = append(t.s.completed, *c)
	return nil
}

type memProgress struct{ s *memStore }

func (p memProgress) ListByUser(_ context.Context, userID uuid.UUID) ([]models.ProgressRecord, error) {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()
	var out []models.ProgressRecord
	for i := len(p.s.progress) - 1; i >= 0; i-- {
		r := p.s.progress[i]
		if r.UserID != userID {
			continue
		}
		if p.s.corrupt[r.ID] {
			r.Recommendations = nil
			r.RecommendationsCorrupt = true
		}
		out = append(out, r)
	}
	return out, nil
}

type memHistory struct{ s *memStore }

func (h memHistory) ListByUser(_ context.Context, userID uuid.UUID) ([]models.QuizHistoryRecord, error) {
	return h.list(func(r models.QuizHistoryRecord) bool { return r.UserID == userID }), nil
}

func (h memHistory) ListByUserAndDocument(_ context.Context, userID uuid.UUID, documentID int64) ([]models.QuizHistoryRecord, error) {
	return h.list(func(r models.QuizHistoryRecord) bool { return r.UserID == userID && r.DocumentID == documentID }), nil
}

func (h memHistory) list(match func(models.QuizHistoryRecord) bool) []models.QuizHistoryRecord {
	h.s.mu.Lock()
	defer h.s.mu.Unlock()
	var out []models.QuizHistoryRecord
	for i := len(h.s.history) - 1; i >= 0; i-- {
		if match(h.s.history[i]) {
			out = append(out, h.s.history[i])
		}
	}
	return out
}

func (h memHistory) GetByID(_ context.Context, id int64) (*models.QuizHistoryRecord, error) {
	h.s.mu.Lock()
	defer h.s.mu.Unlock()
	for _, r := range h.s.history {
		if r.ID == id {
			return &r, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (h memHistory) GetCompletedQuiz(_ context.Context, historyID int64) (*models.CompletedQuiz, error) {
	h.s.mu.Lock()
	defer h.s.mu.Unlock()
	for _, c := range h.s.completed {
		if c.QuizHistoryID == historyID {
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

type memInteractions struct {
	s   *memStore
	err error
}

func (m memInteractions) Create(_ context.Context, i *models.ChatInteraction) error {
	if m.err != nil {
		return m.err
	}
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	i.ID = m.s.id()
	i.CreatedAt = time.Now()
	m.s.interactions = append(m.s.interactions, *i)
	return nil
}

type studiedKey struct {
	userID     uuid.UUID
	documentID int64
}

type studiedView struct {
	count int
	seq   int
	at    time.Time
}

// memStudied keeps view counts; seq orders views so equal clock readings still sort.
type memStudied struct {
	s     *memStore
	views map[studiedKey]*studiedView
	seq   int
}

func newMemStudied(s *memStore) *memStudied {
	return &memStudied{s: s, views: make(map[studiedKey]*studiedView)}
}

func (m *memStudied) TrackView(_ context.Context, userID uuid.UUID, documentID int64) (int, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	m.seq++
	k := studiedKey{userID, documentID}
	v, ok := m.views[k]
	if !ok {
		v = &studiedView{}
		m.views[k] = v
	}
	v.count++
	v.seq = m.seq
	v.at = time.Now()
	return v.count, nil
}

func (m *memStudied) ListByUser(_ context.Context, userID uuid.UUID) ([]models.StudiedDocument, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	type entry struct {
		doc models.StudiedDocument
		seq int
	}
	var entries []entry
	for k, v := range m.views {
		d, ok := m.s.documents[k.documentID]
		if k.userID != userID || !ok {
			continue
		}
		entries = append(entries, entry{models.StudiedDocument{
			DocumentID:     d.ID,
			Title:          d.Title,
			Category:       d.Category,
			ViewCount:      v.count,
			LastAccessedAt: v.at,
		}, v.seq})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].seq > entries[j].seq })
	var out []models.StudiedDocument
	for _, e := range entries {
		out = append(out, e.doc)
	}
	return out, nil
}

// questionJSON renders a generation reply with n questions.
func questionJSON(n int, prefix string) string {
	out := `{"questions":[`
	for i := 0; i < n; i++ {
		if i > 0 {
			out += ","
		}
		out += fmt.Sprintf(`{"text":"%s question %d","options":["a","b","c","d"],"correctOption":%d,"explanation":"because"}`, prefix, i+1, i%4)
	}
	return out + `]}`
}
