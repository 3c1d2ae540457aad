package client

import (
	"testing"

	"github.com/Ayush94-1708/music-glass/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestPickNext(t *testing.T) {
	catalog := []string{"t0", "t1", "t2", "t3"}

	assert.Equal(t, 2, PickNext(catalog, 1, domain.Likes{}), "sequential without likes")
	assert.Equal(t, 0, PickNext(catalog, 3, domain.Likes{}), "wraps around")

	likes := domain.Likes{}
	likes.Toggle("t1", "a")
	likes.Toggle("t1", "b")
	assert.Equal(t, 1, PickNext(catalog, 3, likes), "liked track beats sequential next")

	likes.Toggle("t3", "a")
	likes.Toggle("t3", "b")
	assert.Equal(t, 1, PickNext(catalog, 0, likes), "ties go to catalog order")

	assert.Equal(t, 3, PickNext(catalog, 1, likes), "current track is never picked")

	only := domain.Likes{}
	only.Toggle("t2", "a")
	assert.Equal(t, 3, PickNext(catalog, 2, only), "likes on current only fall back to sequential")

	empty := domain.Likes{}
	empty.Toggle("t0", "a")
	empty.Toggle("t0", "a")
	assert.Equal(t, 2, PickNext(catalog, 1, empty), "zero-count entries do not count")

	assert.Equal(t, 0, PickNext(nil, 5, likes))
}

func TestPickPrev(t *testing.T) {
	catalog := []string{"t0", "t1", "t2"}
	assert.Equal(t, 2, PickPrev(catalog, 0))
	assert.Equal(t, 0, PickPrev(catalog, 1))
}
