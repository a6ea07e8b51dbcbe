package markdown

import (
	"strings"
)

// FencedBlocks returns the content of every fenced code block
// whose info string starts with the given language (case-insensitive).
// Both ``` and ~~~ fences are supported. An unclosed block runs until the end.
func FencedBlocks(md string, language string) []string {
	var result []string

	var fence string // non-empty while inside a block
	var keep bool
	var content []string

	for _, line := range strings.Split(md, "\n") {
		trimmedLine := strings.TrimSpace(line)

		if fence == "" {
			marker := fenceMarker(trimmedLine)
			if marker == "" {
				continue
			}
			fence = marker
			info := strings.Fields(strings.TrimPrefix(trimmedLine, marker))
			keep = len(info) > 0 && strings.EqualFold(info[0], language)
			content = nil
			continue
		}

		if strings.HasPrefix(trimmedLine, fence) && strings.Trim(trimmedLine, fence[:1]) == "" {
			// End of block
			if keep {
				result = append(result, strings.Join(content, "\n"))
			}
			fence = ""
			continue
		}
		content = append(content, strings.TrimSuffix(line, "\r"))
	}

	if fence != "" && keep {
		result = append(result, strings.Join(content, "\n"))
	}
	return result
}

// fenceMarker returns the opening fence (ex: "```", "~~~~") or "".
func fenceMarker(line string) string {
	for _, c := range []string{"`", "~"} {
		if !strings.HasPrefix(line, c+c+c) {
			continue
		}
		n := len(line) - len(strings.TrimLeft(line, c))
		return line[:n]
	}
	return ""
}
