// Package genreg implements the generator-factory registry and the
// CPU-bound worker pool that runs generator invocations. Concrete
// terrain-generation algorithms are supplied by the embedding host; this
// package only hosts and dispatches them.
package genreg

import (
	"errors"

	"github.com/voxelterra/server/internal/voxel"
	"github.com/voxelterra/server/internal/wireproto"
)

// ErrGeneratorNotFound reports that no recipe is registered under the
// requested name. LookupRegion and LookupBrush signal a miss with their
// bool result rather than this error.
var ErrGeneratorNotFound = errors.New("genreg: no generator registered under that name")

// GenerationContext is passed to a Generator's Generate call. It carries
// the recipe's registered height bounds and default voxel (so a generator
// can pre-fill below its floor) plus the identifiers needed to correlate
// the eventual completion event back to its request.
type GenerationContext struct {
	RequestID     uint32
	GeneratorName string
	MinHeight     int64
	MaxHeight     int64
	DefaultVoxel  voxel.BlockId
	HasDefault    bool
}

// RegionGenerator fills a bounded volume representing an axis-aligned
// region request.
type RegionGenerator interface {
	Generate(volume *voxel.VoxelVolume, ctx GenerationContext) error
}

// RegionGeneratorFactory names and constructs RegionGenerator instances.
// Implementations are supplied by the embedding host and held behind this
// interface boundary rather than a closed, tagged variant, since the set
// of recipes is open-ended.
type RegionGeneratorFactory interface {
	Name() string
	NewGenerator(params wireproto.Parameters) (RegionGenerator, error)
}

// BrushGenerator fills an unbounded volume anchored at a world point.
type BrushGenerator interface {
	Generate(pos voxel.IVec3, volume *voxel.VoxelVolume, ctx GenerationContext) error
}

// BrushGeneratorFactory is the brush-request counterpart of
// RegionGeneratorFactory.
type BrushGeneratorFactory interface {
	Name() string
	NewGenerator(params wireproto.Parameters) (BrushGenerator, error)
}
