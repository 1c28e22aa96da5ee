// Package checkfile parses check definition files.
//
// A checkfile is a plain UTF-8 text file. Each non-blank line is one of:
//
//	#- Title        open a new section titled "Title"
//	#-              open a new untitled section (visual separator)
//	# anything      comment, ignored
//	name: command   define a check (split on the first ": ")
//
// Anything else is a diagnostic: the line is skipped, the file stays
// usable. Parsing is a pure function of the input text, so the same text
// always yields the same definitions.
package checkfile

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/checkwatch/checkwatch/internal/types"
)

// sectionPrefix marks a section separator line.
const sectionPrefix = "#-"

// File is the parsed form of one checkfile.
type File struct {
	// Path is the path the file was read from.
	Path string
	// RealPath is Path with symlinks resolved; the directory of
	// RealPath is every contained check's working directory.
	RealPath string
	// Hidden marks files whose base name starts with "."; the whole
	// file is excluded from the registry.
	Hidden bool
	// Checks are the definitions in file order.
	Checks []*types.CheckDefinition
	// Diagnostics are the malformed lines that were skipped.
	Diagnostics []types.Diagnostic
}

// Parse parses checkfile text. realPath must already be symlink-resolved
// by the caller (the parser itself touches no filesystem).
func Parse(path, realPath, text string) *File {
	f := &File{
		Path:     path,
		RealPath: realPath,
		Hidden:   strings.HasPrefix(filepath.Base(path), "."),
	}

	dir := filepath.Dir(realPath)
	section := ""

	for i, line := range strings.Split(text, "\n") {
		lineNo := i + 1
		trimmed := strings.TrimSpace(line)

		if trimmed == "" {
			continue
		}

		if trimmed == sectionPrefix {
			section = ""
			continue
		}
		if strings.HasPrefix(trimmed, sectionPrefix+" ") {
			section = strings.TrimSpace(trimmed[len(sectionPrefix):])
			continue
		}

		// Any other #-line is a comment, including "#-like" text.
		if strings.HasPrefix(trimmed, "#") {
			continue
		}

		name, command, ok := splitCheckLine(trimmed)
		if !ok {
			f.Diagnostics = append(f.Diagnostics, types.Diagnostic{
				File:    path,
				Line:    lineNo,
				Message: fmt.Sprintf("expected 'name: command', got %q", trimmed),
			})
			continue
		}

		f.Checks = append(f.Checks, &types.CheckDefinition{
			Name:       name,
			Command:    command,
			SourceFile: path,
			Dir:        dir,
			Section:    section,
		})
	}

	return f
}

// splitCheckLine splits "name: command" on the first colon-space. The
// name may itself contain colons as long as none is followed by a space.
func splitCheckLine(line string) (name, command string, ok bool) {
	idx := strings.Index(line, ": ")
	if idx <= 0 {
		return "", "", false
	}
	name = strings.TrimSpace(line[:idx])
	command = strings.TrimSpace(line[idx+2:])
	if name == "" || command == "" {
		return "", "", false
	}
	return name, command, true
}
