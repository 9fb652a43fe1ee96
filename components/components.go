// Package components defines ECS components for materialized placements.
package components

import (
	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r3"
)

// Transform is an entity's world placement. Rotation is euler degrees.
type Transform struct {
	Position r3.Vec
	Rotation r3.Vec
	Scale    r3.Vec
}

// Placement identifies what a scattered root entity shows.
type Placement struct {
	Prefab string
	Mesh   string
	Spec   string // Name of the placement spec that produced it
}

// Static marks placements that never move after emission.
type Static struct{}

// Child links a cluster member to its root placement.
type Child struct {
	Parent ecs.Entity
	Name   string
}

// Pooled is a recycled object owned by a pool.
type Pooled struct {
	Tag    string
	Prefab string
	Active bool
	Spawns int // Times this object was repositioned
}

// Anchor marks the single agent placed on the terrain before scattering.
type Anchor struct{}
