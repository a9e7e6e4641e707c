package main

import (
	"regexp"
	"strings"
)

var (
	boldStarRe  = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	boldUnderRe = regexp.MustCompile(`__([^_]+)__`)
	italicRe    = regexp.MustCompile(`(^|[^*])\*([^*\n]+)\*`)
	codeRe      = regexp.MustCompile("`([^`]+)`")
)

// stripMarkdown removes common markdown formatting from text for terminal display
func stripMarkdown(text string) string {
	text = boldStarRe.ReplaceAllString(text, "$1")
	text = boldUnderRe.ReplaceAllString(text, "$1")
	// Italic (*text*), careful not to match bullet points
	text = italicRe.ReplaceAllString(text, "$1$2")
	text = codeRe.ReplaceAllString(text, "$1")
	return text
}

// wrapText wraps text to a specified width, preserving paragraph breaks
func wrapText(text string, width int) []string {
	if width < 1 {
		width = 1
	}
	var result []string
	paragraphs := strings.Split(text, "\n")

	for _, para := range paragraphs {
		para = strings.TrimSpace(para)
		if para == "" {
			result = append(result, "")
			continue
		}

		words := strings.Fields(para)
		var line string
		for _, word := range words {
			if line == "" {
				line = word
			} else if len(line)+1+len(word) <= width {
				line += " " + word
			} else {
				result = append(result, line)
				line = word
			}
		}
		if line != "" {
			result = append(result, line)
		}
	}

	return result
}
