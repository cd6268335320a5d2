// Package docs embeds the built-in help topics shown by `feisboard docs`.
package docs

import (
	"embed"
	"sort"
	"strings"
)

//go:embed content/*.md
var contentFS embed.FS

// leadTopic heads the topic list; the rest follow alphabetically.
const leadTopic = "getting-started"

// Topics lists every embedded guide, lead topic first.
func Topics() []string {
	entries, err := contentFS.ReadDir("content")
	if err != nil {
		return nil
	}
	topics := []string{leadTopic}
	for _, e := range entries {
		name := strings.TrimSuffix(e.Name(), ".md")
		if name == leadTopic {
			continue
		}
		topics = append(topics, name)
	}
	sort.Strings(topics[1:])
	return topics
}

// Get returns the raw markdown for a topic. Topic names are matched
// case-insensitively.
func Get(topic string) (string, bool) {
	topic = strings.ToLower(strings.TrimSpace(topic))
	if topic == "" {
		return "", false
	}
	b, err := contentFS.ReadFile("content/" + topic + ".md")
	if err != nil {
		return "", false
	}
	return string(b), true
}
