package app

import (
	"context"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/yourusername/mediafetch/internal/domain"
)

// mockResolver implements domain.Resolver for testing
type mockResolver struct {
	mu              sync.Mutex
	collections     map[string]*domain.CollectionMetadata
	items           map[string]*domain.ItemDescriptor
	collectionErrs  map[string]error
	streams         map[string]*mockStream
	streamCalls     int
	collectionCalls int
}

func newMockResolver() *mockResolver {
	return &mockResolver{
		collections:    make(map[string]*domain.CollectionMetadata),
		items:          make(map[string]*domain.ItemDescriptor),
		collectionErrs: make(map[string]error),
		streams:        make(map[string]*mockStream),
	}
}

// addCollection registers a collection whose items all have a small stream
func (m *mockResolver) addCollection(ref, title string, itemTitles ...string) {
	meta := &domain.CollectionMetadata{Title: title, ResolvedAt: time.Now()}
	for _, t := range itemTitles {
		src := ref + "#" + t
		meta.Items = append(meta.Items, domain.ItemDescriptor{Title: t, SourceReference: src})
		m.streams[src] = &mockStream{data: []byte("payload:" + t)}
	}
	m.collections[ref] = meta
}

func (m *mockResolver) addItem(ref, title string) {
	m.items[ref] = &domain.ItemDescriptor{Title: title, SourceReference: ref}
	m.streams[ref] = &mockStream{data: []byte("payload:" + title)}
}

func (m *mockResolver) ResolveCollection(ctx context.Context, ref string) (*domain.CollectionMetadata, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.collectionCalls++
	if err, ok := m.collectionErrs[ref]; ok {
		return nil, err
	}
	if c, ok := m.collections[ref]; ok {
		return c, nil
	}
	return nil, domain.ErrNotACollection
}

func (m *mockResolver) ResolveItem(ctx context.Context, ref string) (*domain.ItemDescriptor, error) {
	if item, ok := m.items[ref]; ok {
		return item, nil
	}
	return nil, errors.New("video unavailable")
}

func (m *mockResolver) BestStream(ctx context.Context, item domain.ItemDescriptor) (domain.StreamHandle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.streamCalls++
	s, ok := m.streams[item.SourceReference]
	if !ok {
		return nil, domain.ErrNoStreamAvailable
	}
	return s, nil
}

func (m *mockResolver) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.streamCalls
}

// mockStream writes its data to the destination, or fails with err
type mockStream struct {
	data  []byte
	size  int64
	err   error
	delay time.Duration

	// chunkDelay > 0 writes the payload a few bytes at a time, truncating first
	chunkDelay time.Duration

	// shared across streams to observe concurrency
	active  *int32
	maxSeen *int32
}

func (s *mockStream) Size() int64 {
	if s.size > 0 {
		return s.size
	}
	return int64(len(s.data))
}

func (s *mockStream) Transfer(ctx context.Context, destPath string) error {
	if s.active != nil {
		n := atomic.AddInt32(s.active, 1)
		defer atomic.AddInt32(s.active, -1)
		for {
			seen := atomic.LoadInt32(s.maxSeen)
			if n <= seen || atomic.CompareAndSwapInt32(s.maxSeen, seen, n) {
				break
			}
		}
	}
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	if s.err != nil {
		return s.err
	}
	if s.chunkDelay > 0 {
		return s.writeChunked(destPath)
	}
	return os.WriteFile(destPath, s.data, 0644)
}

func (s *mockStream) writeChunked(destPath string) error {
	f, err := os.Create(destPath)
	if err != nil {
		return err
	}
	defer f.Close()
	for off := 0; off < len(s.data); off += 4 {
		end := off + 4
		if end > len(s.data) {
			end = len(s.data)
		}
		if _, err := f.Write(s.data[off:end]); err != nil {
			return err
		}
		time.Sleep(s.chunkDelay)
	}
	return nil
}

// statGate checks the real filesystem
type statGate struct{}

func (statGate) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
