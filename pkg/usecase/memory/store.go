package memory

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/toolagent/pkg/model"
	"github.com/m-mizutani/toolagent/pkg/repository"
	"github.com/m-mizutani/toolagent/pkg/utils/logging"
)

var (
	ErrNotInitialized = goerr.New("memory system not initialized, provide --memory-file")
	ErrNodeNotFound   = goerr.New("memory node not found")
	ErrEmptyTags      = goerr.New("the 'match_all_tags' parameter cannot be empty for retrieval")
)

// Store keeps memory nodes in memory and writes them through to a repository
// after every mutation. A Store without repository is disabled and every
// operation returns ErrNotInitialized.
type Store struct {
	repo  repository.Repository
	now   func() time.Time
	mu    sync.Mutex
	nodes map[model.NodeID]*model.MemoryNode
}

// Option is a functional option for Store
type Option func(*Store)

// WithClock replaces the clock used for timestamps
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// New creates a Store and loads persisted nodes from repo. A nil repo creates
// a disabled store. Absent data starts an empty store; malformed data is
// logged and also starts an empty store.
func New(ctx context.Context, repo repository.Repository, opts ...Option) *Store {
	s := &Store{
		repo:  repo,
		now:   time.Now,
		nodes: make(map[model.NodeID]*model.MemoryNode),
	}
	for _, opt := range opts {
		opt(s)
	}

	if repo == nil {
		return s
	}

	logger := logging.From(ctx)
	nodes, err := repo.LoadMemory(ctx)
	switch {
	case errors.Is(err, repository.ErrMalformedData):
		logger.Warn("memory data is malformed, initializing fresh memory", "location", repo.Location(), "error", err)
	case err != nil:
		logger.Error("failed to load memory, initializing fresh memory", "location", repo.Location(), "error", err)
	default:
		s.nodes = nodes
		logger.Info("loaded memory nodes", "count", len(nodes), "location", repo.Location())
	}

	return s
}

// Enabled reports whether the store has a backing repository
func (s *Store) Enabled() bool {
	return s != nil && s.repo != nil
}

// Location returns where nodes are persisted, or empty string if disabled
func (s *Store) Location() string {
	if !s.Enabled() {
		return ""
	}
	return s.repo.Location()
}

// Len returns the number of nodes
func (s *Store) Len() int {
	if !s.Enabled() {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.nodes)
}

// Close persists nodes one last time
func (s *Store) Close(ctx context.Context) error {
	if !s.Enabled() {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repo.SaveMemory(ctx, s.nodes); err != nil {
		return goerr.Wrap(err, "failed to save memory on close", goerr.V("location", s.repo.Location()))
	}
	return nil
}

// persist must be called with mu held. A failed write is logged only: the in
// memory state stays authoritative and is written again by the next mutation
// or by Close.
func (s *Store) persist(ctx context.Context) {
	if err := s.repo.SaveMemory(ctx, s.nodes); err != nil {
		logging.From(ctx).Error("failed to save memory", "location", s.repo.Location(), "error", err)
	}
}

// timestamp returns the current time in UTC
func (s *Store) timestamp() time.Time {
	return s.now().UTC()
}

// sortedNodes returns nodes matching all filterTags, most recently updated first.
// Must be called with mu held.
func (s *Store) sortedNodes(filterTags []string) []*model.MemoryNode {
	nodes := make([]*model.MemoryNode, 0, len(s.nodes))
	for _, node := range s.nodes {
		if node.HasAllTags(filterTags) {
			nodes = append(nodes, node)
		}
	}

	slices.SortFunc(nodes, func(a, b *model.MemoryNode) int {
		if c := b.UpdatedAt.Compare(a.UpdatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return nodes
}

func cloneNodes(nodes []*model.MemoryNode) []*model.MemoryNode {
	out := make([]*model.MemoryNode, len(nodes))
	for i, node := range nodes {
		out[i] = node.Clone()
	}
	return out
}
