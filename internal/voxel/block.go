// Package voxel implements the server's voxel/chunk data model: block
// identifiers, tagged voxel slots, the 16x16x16 chunk type in its
// positioned and unpositioned forms, and sparse chunk-grid volumes.
package voxel

// BlockId is an opaque identifier for a voxel kind. Zero is a valid id;
// absence of a block is represented separately by VoxelSlot/Empty.
type BlockId uint32

// Size is the side length of a chunk on every axis.
const Size int64 = 16

// Volume is the number of voxel slots in a chunk.
const Volume int = 16 * 16 * 16
