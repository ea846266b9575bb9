package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMask_SetTestClear(t *testing.T) {
	m := NewMask(16)
	assert.False(t, m.Test(1))
	m.Set(1)
	assert.True(t, m.Test(1))
	m.Clear(1)
	assert.False(t, m.Test(1))
}

func TestMask_OutOfRangeIsNoOp(t *testing.T) {
	m := NewMask(8)
	m.Set(0)
	m.Set(9)
	assert.Equal(t, 0, m.CountOnes())
	assert.False(t, m.Test(0))
	assert.False(t, m.Test(9))
}

func TestMask_FirstSetEmptyReturnsZero(t *testing.T) {
	m := NewMask(32)
	assert.Equal(t, 0, m.FirstSet())
	assert.Equal(t, 0, m.HighestSet())
}

func TestMask_FirstAndHighestSet(t *testing.T) {
	m := NewMask(32)
	m.Set(5)
	m.Set(17)
	m.Set(3)
	assert.Equal(t, 3, m.FirstSet())
	assert.Equal(t, 17, m.HighestSet())
	assert.Equal(t, 3, m.CountOnes())
}

func TestMask_BitwiseOps(t *testing.T) {
	a := NewMask(16)
	a.Set(1)
	a.Set(2)
	b := NewMask(16)
	b.Set(2)
	b.Set(3)

	or := NewMask(16)
	or.AssignFrom(a)
	or.OrAssign(b)
	assert.True(t, or.Test(1))
	assert.True(t, or.Test(2))
	assert.True(t, or.Test(3))

	and := NewMask(16)
	and.AssignFrom(a)
	and.AndAssign(b)
	assert.False(t, and.Test(1))
	assert.True(t, and.Test(2))
	assert.False(t, and.Test(3))

	andNot := NewMask(16)
	andNot.AssignFrom(a)
	andNot.AndNotAssign(b)
	assert.True(t, andNot.Test(1))
	assert.False(t, andNot.Test(2))
}

func TestMask_Invert(t *testing.T) {
	m := NewMask(8)
	m.Set(1)
	m.Invert()
	assert.False(t, m.Test(1))
	for bit := 2; bit <= 8; bit++ {
		assert.True(t, m.Test(bit), "bit %d", bit)
	}
}

func TestMask_FirstClear(t *testing.T) {
	m := NewMask(4)
	m.Set(1)
	m.Set(2)
	assert.Equal(t, 3, m.FirstClear())
	m.Set(3)
	m.Set(4)
	assert.Equal(t, 0, m.FirstClear())
}

func TestLogicalPortKey_PackUnpack(t *testing.T) {
	k := MakeLogicalPortKey(42, 7, KindLogical)
	assert.EqualValues(t, 42, k.PhysPort())
	assert.EqualValues(t, 7, k.Slot())
	assert.Equal(t, KindLogical, k.Kind())
	assert.True(t, k.Valid())
}

func TestLogicalPortKey_IterateSentinelInvalid(t *testing.T) {
	assert.False(t, IterateCursor.Valid())
	assert.False(t, LogicalPortKey(0).Valid())
}
