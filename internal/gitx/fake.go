package gitx

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
)

// FakeCommit is one recorded change to a file in a FakeRepo.
type FakeCommit struct {
	ID      string
	Message string
	Content []byte // nil means the file was deleted by this commit
}

// FakeRepo implements Repo in memory for tests.
type FakeRepo struct {
	mu sync.Mutex

	root    string
	history map[string][]FakeCommit // newest first
	ignored map[string]bool
	config  map[string]string
	err     error

	// BlobCalls counts BlobAt invocations.
	BlobCalls int
}

// NewFakeRepo creates a new FakeRepo rooted at root.
func NewFakeRepo(root string) *FakeRepo {
	return &FakeRepo{
		root:    root,
		history: make(map[string][]FakeCommit),
		ignored: make(map[string]bool),
		config:  make(map[string]string),
	}
}

// SetError sets an error to be returned by all methods.
func (g *FakeRepo) SetError(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.err = err
}

// Commit records a new commit for path on top of its history.
func (g *FakeRepo) Commit(path, id, message string, content []byte) {
	g.mu.Lock()
	defer g.mu.Unlock()
	key := filepath.Clean(path)
	g.history[key] = append([]FakeCommit{{ID: id, Message: message, Content: content}}, g.history[key]...)
}

// SetIgnored marks path as ignored or not.
func (g *FakeRepo) SetIgnored(path string, ignored bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.ignored[filepath.Clean(path)] = ignored
}

// SetConfig sets a configuration key.
func (g *FakeRepo) SetConfig(key, value string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.config[key] = value
}

func (g *FakeRepo) Root(ctx context.Context, dir string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return "", g.err
	}
	return g.root, nil
}

func (g *FakeRepo) RevisionList(ctx context.Context, path string) ([]string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return nil, g.err
	}
	var ids []string
	for _, c := range g.history[filepath.Clean(path)] {
		ids = append(ids, c.ID)
	}
	return ids, nil
}

// BlobAt understands "<id>" and "<id>~1".
func (g *FakeRepo) BlobAt(ctx context.Context, path, rev string) ([]byte, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.BlobCalls++
	if g.err != nil {
		return nil, g.err
	}

	id, parent := strings.CutSuffix(rev, "~1")
	commits := g.history[filepath.Clean(path)]
	for i, c := range commits {
		if c.ID != id {
			continue
		}
		if parent {
			if i+1 >= len(commits) {
				return []byte{}, nil
			}
			c = commits[i+1]
		}
		if c.Content == nil {
			return []byte{}, nil
		}
		return append([]byte(nil), c.Content...), nil
	}
	return []byte{}, nil
}

func (g *FakeRepo) LogMessage(ctx context.Context, path, commit string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return "", g.err
	}
	for _, commits := range g.history {
		for _, c := range commits {
			if c.ID == commit {
				return c.Message, nil
			}
		}
	}
	return "", fmt.Errorf("unknown commit %s", commit)
}

func (g *FakeRepo) IsIgnored(ctx context.Context, path string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return false, g.err
	}
	return g.ignored[filepath.Clean(path)], nil
}

func (g *FakeRepo) ConfigGet(ctx context.Context, dir, key string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return "", g.err
	}
	return g.config[key], nil
}
