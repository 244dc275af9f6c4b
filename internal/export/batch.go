package export

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// BatchStatus is the state of a batch image save.
type BatchStatus string

const (
	StatusSaving    BatchStatus = "saving"
	StatusCompleted BatchStatus = "completed"
	StatusFailed    BatchStatus = "failed"
)

// Batch tracks one "save all images" request.
type Batch struct {
	mu sync.Mutex

	ID        string
	ArticleID string
	Status    BatchStatus
	Total     int
	Saved     int
	Err       string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func newBatch(articleID string, total int) *Batch {
	now := time.Now()
	return &Batch{
		ID:        uuid.NewString(),
		ArticleID: articleID,
		Status:    StatusSaving,
		Total:     total,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (b *Batch) setSaved(n int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if n > b.Saved {
		b.Saved = n
	}
	b.UpdatedAt = time.Now()
}

func (b *Batch) finish(saved int, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Saved = saved
	b.Status = StatusCompleted
	if err != nil {
		b.Status = StatusFailed
		b.Err = err.Error()
	}
	b.UpdatedAt = time.Now()
}

// BatchSnapshot is a JSON-safe copy of a batch.
type BatchSnapshot struct {
	ID        string      `json:"batch_id"`
	ArticleID string      `json:"article_id,omitempty"`
	Status    BatchStatus `json:"status"`
	Total     int         `json:"total"`
	Saved     int         `json:"saved"`
	Error     string      `json:"error,omitempty"`
}

func (b *Batch) Snapshot() BatchSnapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	return BatchSnapshot{
		ID:        b.ID,
		ArticleID: b.ArticleID,
		Status:    b.Status,
		Total:     b.Total,
		Saved:     b.Saved,
		Error:     b.Err,
	}
}

// BatchStore keeps recent batches in memory, evicting idle ones after ttl.
type BatchStore struct {
	mu      sync.Mutex
	batches map[string]*Batch
	ttl     time.Duration
}

func NewBatchStore(ttl time.Duration) *BatchStore {
	return &BatchStore{
		batches: make(map[string]*Batch),
		ttl:     ttl,
	}
}

func (s *BatchStore) Put(b *Batch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batches[b.ID] = b
}

func (s *BatchStore) Get(id string) *Batch {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.batches[id]
}

// Cleanup removes batches that finished more than ttl ago. Running batches stay.
func (s *BatchStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, b := range s.batches {
		b.mu.Lock()
		expired := b.Status != StatusSaving && now.Sub(b.UpdatedAt) > s.ttl
		b.mu.Unlock()
		if expired {
			delete(s.batches, id)
		}
	}
}
