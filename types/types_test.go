// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSet(t *testing.T) {
	// Sets are created empty.
	s := MakeSet[string](10)
	assert.Len(t, s, 0)

	s.Insert("gelu", "linear1")
	assert.Len(t, s, 2)
	assert.True(t, s.Has("gelu"))
	assert.True(t, s.Has("linear1"))
	assert.False(t, s.Has("x"))

	s2 := SetWith("x", "linear2")
	assert.Len(t, s2, 2)
	assert.True(t, s2.Has("x"))
	assert.False(t, s2.Has("gelu"))

	assert.True(t, s2.InsertIfAbsent("gelu"))
	assert.False(t, s2.InsertIfAbsent("gelu"))
	assert.Len(t, s2, 3)

	assert.Equal(t, []string{"gelu", "linear2", "x"}, Sorted(s2))
	assert.Empty(t, Sorted(MakeSet[int]()))
}
