package github

import (
	"encoding/json"
	"fmt"
	"mime"
	"net/url"
	"sort"
	"strings"
)

// PushEvent is the subset of a GitHub push payload the dispatcher needs:
// enough to identify the push and to reconstruct the set of changed files.
type PushEvent struct {
	Ref        string     `json:"ref"`
	Before     string     `json:"before"`
	After      string     `json:"after"`
	Repository Repository `json:"repository"`
	Commits    []Commit   `json:"commits"`
}

type Repository struct {
	FullName string `json:"full_name"`
}

type Commit struct {
	ID       string   `json:"id"`
	Message  string   `json:"message"`
	Added    []string `json:"added"`
	Modified []string `json:"modified"`
	Removed  []string `json:"removed"`
}

// ChangedFiles returns the union of files touched across all commits in the
// push, deduplicated and sorted. A file that is added in one commit and
// modified in another appears once.
func (e *PushEvent) ChangedFiles() []string {
	seen := make(map[string]struct{})
	for _, c := range e.Commits {
		for _, group := range [][]string{c.Added, c.Modified, c.Removed} {
			for _, path := range group {
				seen[path] = struct{}{}
			}
		}
	}

	files := make([]string, 0, len(seen))
	for path := range seen {
		files = append(files, path)
	}
	sort.Strings(files)
	return files
}

// ParsePayload decodes a webhook body into a PushEvent. GitHub delivers either
// raw JSON (application/json) or a form-encoded body whose "payload" field
// holds the JSON (application/x-www-form-urlencoded), selectable per hook.
// Unknown content types are sniffed: JSON first, then form.
func ParsePayload(contentType string, body []byte) (*PushEvent, error) {
	mediaType := ""
	if contentType != "" {
		mt, _, err := mime.ParseMediaType(contentType)
		if err == nil {
			mediaType = strings.ToLower(mt)
		}
	}

	switch mediaType {
	case "application/json":
		return parseJSON(body)
	case "application/x-www-form-urlencoded":
		return parseForm(body)
	default:
		evt, err := parseJSON(body)
		if err == nil {
			return evt, nil
		}
		return parseForm(body)
	}
}

func parseJSON(body []byte) (*PushEvent, error) {
	var evt PushEvent
	if err := json.Unmarshal(body, &evt); err != nil {
		return nil, fmt.Errorf("decode push payload: %w", err)
	}
	return &evt, nil
}

func parseForm(body []byte) (*PushEvent, error) {
	form, err := url.ParseQuery(string(body))
	if err != nil {
		return nil, fmt.Errorf("decode form body: %w", err)
	}

	payload := form.Get("payload")
	if payload == "" {
		return nil, fmt.Errorf("form-encoded webhook missing payload field")
	}

	return parseJSON([]byte(payload))
}
