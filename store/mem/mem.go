// Package mem implements an in-memory ledger.
//
// Several Stores can share one in-memory network,
// each acting as a different agent,
// which makes it possible to exercise multi-peer behavior in a single process.
// Writes are visible to every Store on the network immediately.
package mem

import (
	"bytes"
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/hummearth/hive"
	"github.com/hummearth/hive/store"
)

var _ hive.Ledger = &Store{}

type linkKey struct {
	base hive.KeyHash
	ns   hive.Namespace
}

type network struct {
	mu        sync.Mutex
	revisions map[hive.Ref]*hive.Revision
	updates   map[hive.Ref][]hive.Ref // original -> updates, in arrival order
	deletes   map[hive.Ref]hive.Ref   // delete action -> target
	links     map[linkKey][]hive.Link
	clocks    map[string]*store.Clock // per agent
}

// Store is a memory-based ledger acting for one agent.
type Store struct {
	n     *network
	agent string
	now   func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithAgent sets the agent a Store acts for.
// The default is "agent".
func WithAgent(agent string) Option {
	return func(s *Store) { s.agent = agent }
}

// WithClock sets the source of action timestamps.
// The default is time.Now.
// Each agent's timestamps are forced to increase strictly,
// but two agents can still produce equal timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New produces a new Store on a new, empty network.
func New(opts ...Option) *Store {
	s := &Store{
		n: &network{
			revisions: make(map[hive.Ref]*hive.Revision),
			updates:   make(map[hive.Ref][]hive.Ref),
			deletes:   make(map[hive.Ref]hive.Ref),
			links:     make(map[linkKey][]hive.Link),
			clocks:    make(map[string]*store.Clock),
		},
		agent: "agent",
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// As produces a Store on the same network as s,
// acting for a different agent.
func (s *Store) As(agent string, opts ...Option) *Store {
	other := &Store{n: s.n, agent: agent, now: s.now}
	for _, opt := range opts {
		opt(other)
	}
	return other
}

// Agent implements hive.Ledger.
func (s *Store) Agent(context.Context) (string, error) {
	return s.agent, nil
}

// Caller must obtain a lock.
func (s *Store) tick() time.Time {
	c, ok := s.n.clocks[s.agent]
	if !ok {
		c = new(store.Clock)
		s.n.clocks[s.agent] = c
	}
	c.Now = s.now
	return c.Next()
}

// Create implements hive.Ledger.
func (s *Store) Create(_ context.Context, entry []byte) (hive.Ref, error) {
	s.n.mu.Lock()
	defer s.n.mu.Unlock()

	at := s.tick()
	ref := hive.RevisionRef(s.agent, at, hive.Zero, entry)
	s.n.revisions[ref] = &hive.Revision{
		Address:   ref,
		Original:  ref,
		Author:    s.agent,
		Timestamp: at,
		Entry:     append([]byte(nil), entry...),
	}
	return ref, nil
}

// Update implements hive.Ledger.
func (s *Store) Update(_ context.Context, previous hive.Ref, entry []byte) (hive.Ref, error) {
	s.n.mu.Lock()
	defer s.n.mu.Unlock()

	prev, ok := s.n.revisions[previous]
	if !ok || prev.Deleted {
		return hive.Zero, errors.Wrapf(hive.ErrNotFound, "updating %s", previous)
	}

	at := s.tick()
	ref := hive.RevisionRef(s.agent, at, previous, entry)
	s.n.revisions[ref] = &hive.Revision{
		Address:   ref,
		Original:  prev.Original,
		Previous:  previous,
		Author:    s.agent,
		Timestamp: at,
		Entry:     append([]byte(nil), entry...),
	}
	s.n.updates[prev.Original] = append(s.n.updates[prev.Original], ref)
	return ref, nil
}

// Get implements hive.Ledger.
func (s *Store) Get(_ context.Context, ref hive.Ref, _ hive.Freshness) (*hive.Revision, error) {
	s.n.mu.Lock()
	defer s.n.mu.Unlock()

	rev, ok := s.n.revisions[ref]
	if !ok || rev.Deleted {
		return nil, hive.ErrNotFound
	}
	out := *rev
	return &out, nil
}

// Details implements hive.Ledger.
func (s *Store) Details(_ context.Context, ref hive.Ref, _ hive.Freshness) (*hive.Details, error) {
	s.n.mu.Lock()
	defer s.n.mu.Unlock()

	rev, ok := s.n.revisions[ref]
	if !ok {
		return nil, hive.ErrNotFound
	}
	d := &hive.Details{
		Revision: *rev,
		Live:     !rev.Deleted,
	}
	for _, u := range s.n.updates[ref] {
		d.Updates = append(d.Updates, *s.n.revisions[u])
	}
	return d, nil
}

// Delete implements hive.Ledger.
func (s *Store) Delete(_ context.Context, ref hive.Ref) (hive.Ref, error) {
	s.n.mu.Lock()
	defer s.n.mu.Unlock()

	rev, ok := s.n.revisions[ref]
	if !ok {
		return hive.Zero, errors.Wrapf(hive.ErrNotFound, "deleting %s", ref)
	}
	rev.Deleted = true

	del := hive.DeleteRef(s.agent, s.tick(), ref)
	s.n.deletes[del] = ref
	return del, nil
}

// CreateLink implements hive.Ledger.
func (s *Store) CreateLink(_ context.Context, base hive.KeyHash, target hive.Ref, ns hive.Namespace, tag []byte) (hive.Ref, error) {
	if !ns.Valid() {
		return hive.Zero, errors.Errorf("invalid namespace %s", ns)
	}

	s.n.mu.Lock()
	defer s.n.mu.Unlock()

	at := s.tick()
	link := hive.Link{
		Address:   hive.LinkRef(s.agent, at, base, target, ns, tag),
		Base:      base,
		Target:    target,
		Namespace: ns,
		Tag:       append([]byte(nil), tag...),
		Author:    s.agent,
		Timestamp: at,
	}
	k := linkKey{base: base, ns: ns}
	s.n.links[k] = append(s.n.links[k], link)
	return link.Address, nil
}

// Links implements hive.Ledger.
func (s *Store) Links(_ context.Context, base hive.KeyHash, ns hive.Namespace, tagPrefix []byte) ([]hive.Link, error) {
	s.n.mu.Lock()
	defer s.n.mu.Unlock()

	var out []hive.Link
	for _, link := range s.n.links[linkKey{base: base, ns: ns}] {
		if bytes.HasPrefix(link.Tag, tagPrefix) {
			out = append(out, link)
		}
	}
	return out, nil
}

func init() {
	store.Register("mem", func(_ context.Context, conf map[string]interface{}) (hive.Ledger, error) {
		agent, err := store.Agent(conf)
		if err != nil {
			return nil, err
		}
		return New(WithAgent(agent)), nil
	})
}
