package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

// Sentinel errors surfaced by the catalog.
var (
	// ErrNotInitialized reports that no refresh has ever succeeded.
	ErrNotInitialized = errors.New("catalog: not initialized")
	// ErrMalformedDescriptor reports a descriptor missing its name or schema.
	ErrMalformedDescriptor = errors.New("catalog: malformed descriptor")
)

// DiscoveryError wraps any failure to fetch or validate the remote
// tool/resource catalog. It is fatal to the turn that triggered the refresh.
type DiscoveryError struct {
	Err error
}

func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("catalog discovery failed: %v", e.Err)
}

func (e *DiscoveryError) Unwrap() error { return e.Err }

// ToolDescriptor describes one remote tool. Immutable once fetched; Name is
// unique within a snapshot.
type ToolDescriptor struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Schema      json.RawMessage `json:"schema,omitempty"`
}

// ResourceDescriptor describes one remote read-only resource.
type ResourceDescriptor struct {
	URI         string `json:"uri"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	MIMEType    string `json:"mime_type,omitempty"`
}

// Snapshot is one successfully fetched descriptor set.
type Snapshot struct {
	Tools     []ToolDescriptor
	Resources []ResourceDescriptor
	FetchedAt time.Time
}

// Tool returns the descriptor for name and whether it exists in the snapshot.
func (s *Snapshot) Tool(name string) (ToolDescriptor, bool) {
	for _, t := range s.Tools {
		if t.Name == name {
			return t, true
		}
	}
	return ToolDescriptor{}, false
}

// Source is the discovery surface of a remote tool provider.
type Source interface {
	ListTools(ctx context.Context) ([]ToolDescriptor, error)
	ListResources(ctx context.Context) ([]ResourceDescriptor, error)
}

// Catalog caches the last successfully fetched snapshot. Refresh cadence is
// the caller's choice; the chat engine refreshes lazily on the first turn
// and keeps the snapshot for the process lifetime.
type Catalog struct {
	mu       sync.RWMutex
	snapshot *Snapshot
	now      func() time.Time
}

// New constructs an empty Catalog.
func New() *Catalog {
	return &Catalog{now: time.Now}
}

// Refresh fetches a fresh descriptor set from src and atomically replaces
// the snapshot. On any fetch or validation failure the previous snapshot is
// kept and a *DiscoveryError is returned.
func (c *Catalog) Refresh(ctx context.Context, src Source) error {
	tools, err := src.ListTools(ctx)
	if err != nil {
		return &DiscoveryError{Err: fmt.Errorf("list tools: %w", err)}
	}
	resources, err := src.ListResources(ctx)
	if err != nil {
		return &DiscoveryError{Err: fmt.Errorf("list resources: %w", err)}
	}
	if err := validateTools(tools); err != nil {
		return &DiscoveryError{Err: err}
	}

	snap := &Snapshot{
		Tools:     tools,
		Resources: resources,
		FetchedAt: c.now().UTC(),
	}
	c.mu.Lock()
	c.snapshot = snap
	c.mu.Unlock()
	return nil
}

// Snapshot returns the last good snapshot, or ErrNotInitialized when no
// refresh has ever succeeded.
func (c *Catalog) Snapshot() (*Snapshot, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.snapshot == nil {
		return nil, ErrNotInitialized
	}
	return c.snapshot, nil
}

// Initialized reports whether a refresh has ever succeeded.
func (c *Catalog) Initialized() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshot != nil
}

func validateTools(tools []ToolDescriptor) error {
	seen := make(map[string]struct{}, len(tools))
	for _, t := range tools {
		name := strings.TrimSpace(t.Name)
		if name == "" {
			return fmt.Errorf("%w: tool with empty name", ErrMalformedDescriptor)
		}
		if len(t.Schema) == 0 {
			return fmt.Errorf("%w: tool %s has no input schema", ErrMalformedDescriptor, name)
		}
		if !json.Valid(t.Schema) {
			return fmt.Errorf("%w: tool %s schema is not valid JSON", ErrMalformedDescriptor, name)
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("%w: duplicate tool name %s", ErrMalformedDescriptor, name)
		}
		seen[name] = struct{}{}
	}
	return nil
}
