// Package agentrunner turns a markdown project description into files on
// disk: it asks the model for a project scaffold, pulls the file blocks out
// of the reply and writes them under a per-project directory.
package agentrunner

import (
	"regexp"
	"strings"

	"github.com/efebarandurmaz/multillm/internal/llm"
)

// DefaultProjectDir is used when the context has no level-one heading.
const DefaultProjectDir = "output_project"

var (
	headingRe = regexp.MustCompile(`(?m)^# (.+)`)

	// ```path/to/file.ext
	// ...
	// ```
	fencedRe = regexp.MustCompile("```([\\w\\-./]+)\\n([\\s\\S]*?)```")

	// # path/to/file.ext
	sectionHeaderRe = regexp.MustCompile(`#\s*([\w\-./]+)\n`)
)

// File is one file block found in a model reply.
type File struct {
	Path    string
	Content string
}

// ExtractProjectName derives the output directory name from the first
// "# Title" line: "My Shop" becomes "my_shop_output".
func ExtractProjectName(context string) string {
	m := headingRe.FindStringSubmatch(context)
	if m == nil {
		return DefaultProjectDir
	}
	name := strings.TrimSpace(m[1])
	return strings.ToLower(strings.ReplaceAll(name, " ", "_")) + "_output"
}

// ExtractFiles returns the fenced file blocks in reply. When there are none
// it falls back to "# name" sections, each running to the next "\n#" or the
// end of the reply. Reasoning blocks are removed first.
func ExtractFiles(reply string) []File {
	reply = llm.StripThinkingTags(reply)

	var files []File
	for _, m := range fencedRe.FindAllStringSubmatch(reply, -1) {
		files = append(files, File{Path: strings.TrimSpace(m[1]), Content: m[2]})
	}
	if len(files) > 0 {
		return files
	}
	return extractSections(reply)
}

func extractSections(reply string) []File {
	var files []File
	pos := 0
	for pos < len(reply) {
		loc := sectionHeaderRe.FindStringSubmatchIndex(reply[pos:])
		if loc == nil {
			break
		}
		name := reply[pos+loc[2] : pos+loc[3]]
		start := pos + loc[1]
		end := len(reply)
		if i := strings.Index(reply[start:], "\n#"); i >= 0 {
			end = start + i
		}
		files = append(files, File{Path: strings.TrimSpace(name), Content: reply[start:end]})
		pos = end
	}
	return files
}
