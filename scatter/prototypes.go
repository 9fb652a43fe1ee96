package scatter

import (
	"log/slog"

	"github.com/agnivade/levenshtein"
)

// PrototypeRegistry resolves vegetation prefabs to terrain prototype slots.
type PrototypeRegistry interface {
	RegisterPrototypes(prefabs []*Prefab)
	IndexOf(p *Prefab) int
}

// PrototypeTable is an append-only prototype list.
type PrototypeTable struct {
	protos []*Prefab
}

// Reset drops every registered prototype.
func (t *PrototypeTable) Reset() {
	t.protos = t.protos[:0]
}

// RegisterPrototypes appends prefabs in order.
func (t *PrototypeTable) RegisterPrototypes(prefabs []*Prefab) {
	t.protos = append(t.protos, prefabs...)
}

// Prototypes returns the registered prefabs in slot order.
func (t *PrototypeTable) Prototypes() []*Prefab {
	return t.protos
}

// IndexOf returns the slot holding p. Unknown prefabs log an error and
// resolve to slot 0.
func (t *PrototypeTable) IndexOf(p *Prefab) int {
	if len(t.protos) == 0 {
		slog.Error("prototype table is empty", "prefab", p.Name)
		return 0
	}
	for i, proto := range t.protos {
		if proto == p {
			return i
		}
	}

	names := make([]string, len(t.protos))
	for i, proto := range t.protos {
		names[i] = proto.Name
	}
	slog.Error("could not find prototype index, using 0",
		"prefab", p.Name,
		"did_you_mean", ClosestName(p.Name, names),
	)
	return 0
}

// ClosestName returns the candidate with the smallest edit distance to
// name, or "" when there are no candidates or nothing is reasonably close.
func ClosestName(name string, candidates []string) string {
	best := ""
	bestDist := -1
	for _, c := range candidates {
		d := levenshtein.ComputeDistance(name, c)
		if bestDist < 0 || d < bestDist {
			best, bestDist = c, d
		}
	}
	if bestDist < 0 || bestDist > max(2, len(name)/2) {
		return ""
	}
	return best
}
