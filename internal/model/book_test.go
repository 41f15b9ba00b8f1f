package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBook_Clone(t *testing.T) {
	b := &Book{
		ID:       "b1",
		Name:     []string{"Dune"},
		Tags:     map[string][]string{"genre": {"scifi"}},
		Contents: []BookContent{{ID: 1, Sources: []string{"scan"}}},
	}

	c := b.Clone()
	c.Name[0] = "changed"
	c.Tags["genre"][0] = "changed"
	c.Contents[0].Sources[0] = "changed"
	c.Contents[0].PageCount = 10

	assert.Equal(t, "Dune", b.Name[0])
	assert.Equal(t, "scifi", b.Tags["genre"][0])
	assert.Equal(t, "scan", b.Contents[0].Sources[0])
	assert.Zero(t, b.Contents[0].PageCount)
}

func TestBook_VoteTarget(t *testing.T) {
	var target VoteTarget = &Book{ID: "b1", Score: 1}

	assert.Equal(t, "b1", target.TargetID())
	assert.Equal(t, EntityBook, target.TargetType())
	assert.Equal(t, 0.5, target.AddScore(-0.5))
}

func TestBook_ContentIndex(t *testing.T) {
	b := &Book{Contents: []BookContent{{ID: 10}, {ID: 20}}}

	assert.Equal(t, 1, b.ContentIndex(20))
	assert.Equal(t, -1, b.ContentIndex(30))
}

func TestPageKeys(t *testing.T) {
	b := &Book{ID: "b1", Contents: []BookContent{{ID: 5, PageCount: 2}, {ID: 6, PageCount: 1}}}

	assert.Equal(t, []string{"b1/5/0", "b1/5/1"}, PageKeys(b.ID, b.Contents[0]))
	assert.Equal(t, []string{"b1/5/0", "b1/5/1", "b1/6/0"}, BookFiles(b))
	assert.Empty(t, PageKeys("b1", BookContent{ID: 7}))
}

func TestBookUpdate_Apply(t *testing.T) {
	b := &Book{Name: []string{"old"}, Category: "novel", Rating: "safe"}
	rating := "explicit"

	BookUpdate{Rating: &rating}.Apply(b)
	assert.Equal(t, []string{"old"}, b.Name)
	assert.Equal(t, "novel", b.Category)
	assert.Equal(t, "explicit", b.Rating)

	name := []string{"new"}
	BookUpdate{Name: name, Tags: map[string][]string{"a": {"b"}}}.Apply(b)
	name[0] = "aliased"
	assert.Equal(t, []string{"new"}, b.Name)
	assert.Equal(t, map[string][]string{"a": {"b"}}, b.Tags)
}

func TestBookContentUpdate_Apply(t *testing.T) {
	c := &BookContent{ID: 1, PageCount: 3, Language: "en"}
	color := true

	BookContentUpdate{IsColor: &color, Sources: []string{"web"}}.Apply(c)
	assert.Equal(t, BookContent{ID: 1, PageCount: 3, Language: "en", IsColor: true, Sources: []string{"web"}}, *c)
}
