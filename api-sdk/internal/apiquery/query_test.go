package apiquery

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMarshal(t *testing.T) {
	limit := 15
	params := struct {
		Cursor string   `query:"cursor,omitempty"`
		Limit  *int     `query:"limit,omitempty"`
		Query  string   `query:"query"`
		Tags   []string `query:"tags,omitempty"`
		hidden string
	}{
		Limit: &limit,
		Query: "go nuts",
		Tags:  []string{"a", "b"},
	}

	q := Marshal(params)
	assert.Equal(t, "15", q.Get("limit"))
	assert.Equal(t, "go nuts", q.Get("query"))
	assert.Equal(t, "a,b", q.Get("tags"))
	assert.False(t, q.Has("cursor"))
	assert.Equal(t, "limit=15&query=go+nuts&tags=a%2Cb", q.Encode())
}

func TestMarshalNil(t *testing.T) {
	var p *struct {
		A string `query:"a"`
	}
	assert.Empty(t, Marshal(p))
	assert.Empty(t, Marshal(42))
}
