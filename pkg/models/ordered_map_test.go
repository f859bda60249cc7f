package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderedMap_MarshalKeepsInsertionOrder(t *testing.T) {
	m := NewOrderedMap[int](3)
	m.Set("zeta", 1)
	m.Set("alpha", 2)
	m.Set("mid", 3)
	m.Set("zeta", 4) // replace keeps position

	data, err := json.Marshal(m)
	require.NoError(t, err)
	assert.Equal(t, `{"zeta":4,"alpha":2,"mid":3}`, string(data))
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, m.Keys())
}

func TestOrderedMap_ZeroValue(t *testing.T) {
	var m OrderedMap[string]
	data, err := json.Marshal(m)
	require.NoError(t, err)
	assert.Equal(t, `{}`, string(data))
	assert.Equal(t, 0, m.Len())

	_, ok := m.Get("missing")
	assert.False(t, ok)

	m.Set("a", "b")
	assert.True(t, m.Has("a"))
}

func TestOrderedMap_UnmarshalPreservesDocumentOrder(t *testing.T) {
	var m ColumnProfiles
	err := json.Unmarshal([]byte(`{"b":{"inferred_type":"integer","sample_values":[1],"null_count":0},"a":{"inferred_type":"textual","sample_values":["x"],"null_count":2}}`), &m)
	require.NoError(t, err)

	assert.Equal(t, []string{"b", "a"}, m.Keys())
	a, ok := m.Get("a")
	require.True(t, ok)
	assert.Equal(t, TypeTextual, a.InferredType)
	assert.Equal(t, 2, a.NullCount)
}

func TestOrderedMap_UnmarshalRejectsNonObject(t *testing.T) {
	var m OrderedMap[int]
	assert.Error(t, json.Unmarshal([]byte(`[1,2]`), &m))
	require.NoError(t, json.Unmarshal([]byte(`null`), &m))
	assert.Equal(t, 0, m.Len())
}

func TestOrderedMap_CloneIsIndependent(t *testing.T) {
	m := NewOrderedMap[int](1)
	m.Set("a", 1)
	c := m.Clone()
	c.Set("b", 2)
	assert.Equal(t, 1, m.Len())
	assert.Equal(t, 2, c.Len())
}
