package transform

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/zeusync/scenecore/internal/core/entity"
)

// LocalTransform is the authored placement of an entity relative to its parent.
// Anchor is the pivot that rotation and scale are applied around.
type LocalTransform struct {
	Position mgl32.Vec3
	Rotation mgl32.Quat
	Scale    mgl32.Vec3
	Anchor   mgl32.Vec3
}

// WorldTransform is derived by the Registry and never authored directly.
// Matrix is column-major and transforms column vectors, as mgl32 does.
type WorldTransform struct {
	Matrix mgl32.Mat4
}

// Identity returns a transform with no translation, identity rotation and
// unit scale.
func Identity() LocalTransform {
	return LocalTransform{
		Rotation: mgl32.QuatIdent(),
		Scale:    mgl32.Vec3{1, 1, 1},
	}
}

// DefaultLocal is the initial-value factory of LocalTransform.
func DefaultLocal(entity.Entity) LocalTransform { return Identity() }

// LocalMatrix composes the local matrix of t.
//
// In row-vector notation the composition is
//
//	Translate(-Anchor) · Scale · Rotate · Translate(Anchor) · Translate(Position)
//
// evaluated left to right. mgl32 uses column vectors, so the same product is
// built as its transpose, one factor at a time in the same order, so the
// grouping of the products never changes.
func LocalMatrix(t LocalTransform) mgl32.Mat4 {
	a, p, s := t.Anchor, t.Position, t.Scale
	m := mgl32.Scale3D(s[0], s[1], s[2]).Mul4(mgl32.Translate3D(-a[0], -a[1], -a[2]))
	m = t.Rotation.Mat4().Mul4(m)
	m = mgl32.Translate3D(a[0], a[1], a[2]).Mul4(m)
	return mgl32.Translate3D(p[0], p[1], p[2]).Mul4(m)
}

// Compose returns the world matrix of a node with local matrix local under a
// parent whose world matrix is parent: Local · ParentWorld in row-vector
// notation.
func Compose(local, parent mgl32.Mat4) mgl32.Mat4 {
	return parent.Mul4(local)
}
