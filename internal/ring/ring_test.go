// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package ring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufferEvictsOldest(t *testing.T) {
	b := New[int](3)
	for i := 1; i <= 3; i++ {
		_, ok := b.Push(i)
		assert.False(t, ok)
	}
	require.True(t, b.Full())

	ev, ok := b.Push(4)
	require.True(t, ok)
	assert.Equal(t, 1, ev)
	assert.Equal(t, []int{2, 3, 4}, b.Slice())

	assert.Equal(t, 2, b.At(0))
	assert.Equal(t, 4, b.At(b.Len()-1))
}

func TestBufferCapacityOne(t *testing.T) {
	b := New[string](0)
	assert.Equal(t, 1, b.Cap())

	b.Push("a")
	ev, ok := b.Push("b")
	assert.True(t, ok)
	assert.Equal(t, "a", ev)
	assert.Equal(t, []string{"b"}, b.Slice())
}

func TestBufferReset(t *testing.T) {
	b := New[int](2)
	b.Push(1)
	b.Push(2)
	b.Reset()

	assert.Equal(t, 0, b.Len())
	assert.Empty(t, b.Slice())

	b.Push(7)
	assert.Equal(t, []int{7}, b.Slice())
}
