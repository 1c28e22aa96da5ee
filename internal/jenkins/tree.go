// Package jenkins translates Jenkins job status into the check result
// contract. It is the reference status adapter: the core treats the
// jenkins-status binary as just another check command.
package jenkins

import "strings"

// Field is one node in a Jenkins tree selector. A field with children
// serializes as name\[child1,child2\]; a leaf as its bare name.
type Field struct {
	Name     string
	Children []Field
}

// Tree is an ordered list of fields at one nesting level.
type Tree []Field

// Serialize renders the tree as the compact selector string the Jenkins
// remote API accepts in its tree query parameter. Brackets are
// backslash-escaped so the string survives shell interpolation in
// checkfiles and debug copy-paste.
func (t Tree) Serialize() string {
	parts := make([]string, 0, len(t))
	for _, f := range t {
		if len(f.Children) == 0 {
			parts = append(parts, f.Name)
			continue
		}
		parts = append(parts, f.Name+`\[`+Tree(f.Children).Serialize()+`\]`)
	}
	return strings.Join(parts, ",")
}

// buildFields is the per-build field selection: identity, outcome,
// progress, timing, change set, and the built revision.
func buildFields() []Field {
	return []Field{
		{Name: "id"},
		{Name: "result"},
		{Name: "building"},
		{Name: "fullDisplayName"},
		{Name: "url"},
		{Name: "timestamp"},
		{Name: "duration"},
		{Name: "changeSet", Children: []Field{
			{Name: "items", Children: []Field{
				{Name: "msg"},
				{Name: "commitId"},
				{Name: "author", Children: []Field{{Name: "fullName"}}},
			}},
		}},
		{Name: "actions", Children: []Field{
			{Name: "lastBuiltRevision", Children: []Field{{Name: "SHA1"}}},
		}},
	}
}

// JobTree returns the field selection fetched for one job.
func JobTree() Tree {
	return Tree{
		{Name: "name"},
		{Name: "color"},
		{Name: "lastBuild", Children: buildFields()},
		{Name: "lastSuccessfulBuild", Children: buildFields()},
	}
}

// RootTree returns the job selection nested under jobs, used by the
// aggregate root endpoint.
func RootTree() Tree {
	return Tree{
		{Name: "jobs", Children: JobTree()},
	}
}
