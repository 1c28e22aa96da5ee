package jenkins

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSerializeFlatAndNested(t *testing.T) {
	tree := Tree{
		{Name: "name"},
		{Name: "lastBuild", Children: []Field{{Name: "id"}}},
	}
	assert.Equal(t, `name,lastBuild\[id\]`, tree.Serialize())
}

func TestSerializeDeepNesting(t *testing.T) {
	tree := Tree{
		{Name: "changeSet", Children: []Field{
			{Name: "items", Children: []Field{{Name: "msg"}, {Name: "commitId"}}},
		}},
	}
	assert.Equal(t, `changeSet\[items\[msg,commitId\]\]`, tree.Serialize())
}

func TestJobTreeShape(t *testing.T) {
	s := JobTree().Serialize()

	assert.True(t, strings.HasPrefix(s, "name,color,lastBuild\\["), "got %s", s)
	assert.Contains(t, s, "lastSuccessfulBuild\\[")
	assert.Contains(t, s, `author\[fullName\]`)
	assert.Contains(t, s, `actions\[lastBuiltRevision\[SHA1\]\]`)
	assert.Contains(t, s, "fullDisplayName")
	assert.Contains(t, s, "timestamp")
	assert.Contains(t, s, "duration")
	assert.Contains(t, s, "building")
}

func TestRootTreeNestsUnderJobs(t *testing.T) {
	s := RootTree().Serialize()
	assert.True(t, strings.HasPrefix(s, `jobs\[name,color,`), "got %s", s)
}
