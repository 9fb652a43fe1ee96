package pool

import (
	"fmt"
	"log/slog"

	"github.com/pthm-cable/landgen/scatter"
)

// Spec declares one pool: Size objects of Prefab, spawned by Tag.
type Spec struct {
	Tag    string `yaml:"tag"`
	Prefab string `yaml:"prefab"`
	Size   int    `yaml:"size"`
}

// Spawner owns the pooled objects.
type Spawner interface {
	// Instantiate creates one inactive pooled object.
	Instantiate(tag, prefab string) scatter.Handle
	// Place activates h at t.
	Place(h scatter.Handle, t scatter.Transform)
}

type ring struct {
	objs []scatter.Handle
	next int
}

// Pooler cycles a fixed ring of pre-instantiated objects per tag. All
// objects are created by NewPooler; Spawn never allocates.
type Pooler struct {
	spawner Spawner
	rings   map[string]*ring
	tags    []string
}

// NewPooler warms up every pool.
func NewPooler(sp Spawner, specs []Spec) (*Pooler, error) {
	p := &Pooler{spawner: sp, rings: make(map[string]*ring, len(specs))}
	for _, s := range specs {
		if s.Size <= 0 {
			return nil, fmt.Errorf("pool %q: size must be > 0 (got %d)", s.Tag, s.Size)
		}
		if _, dup := p.rings[s.Tag]; dup {
			return nil, fmt.Errorf("pool %q: duplicate tag", s.Tag)
		}
		r := &ring{objs: make([]scatter.Handle, s.Size)}
		for i := range r.objs {
			r.objs[i] = sp.Instantiate(s.Tag, s.Prefab)
		}
		p.rings[s.Tag] = r
		p.tags = append(p.tags, s.Tag)
	}
	return p, nil
}

// Tags returns the pool tags in declaration order.
func (p *Pooler) Tags() []string { return p.tags }

// Size returns the ring size for tag, or 0 if unknown.
func (p *Pooler) Size(tag string) int {
	if r, ok := p.rings[tag]; ok {
		return len(r.objs)
	}
	return 0
}

// Spawn moves the least recently spawned object of tag to t. Unknown tags
// log a warning and return false.
func (p *Pooler) Spawn(tag string, t scatter.Transform) (scatter.Handle, bool) {
	r, ok := p.rings[tag]
	if !ok {
		slog.Warn("pool with tag does not exist",
			"tag", tag,
			"did_you_mean", scatter.ClosestName(tag, p.tags),
		)
		return 0, false
	}
	h := r.objs[r.next]
	r.next = (r.next + 1) % len(r.objs)
	p.spawner.Place(h, t)
	return h, true
}

// SpawnAll spawns every record and returns how many succeeded.
func (p *Pooler) SpawnAll(records []Record) int {
	n := 0
	for i := range records {
		if _, ok := p.Spawn(records[i].Tag, records[i].Transform); ok {
			n++
		}
	}
	return n
}
