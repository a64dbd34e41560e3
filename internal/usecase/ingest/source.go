package ingest

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goccy/go-json"

	"github.com/kailas-cloud/poemdex/internal/domain"
	"github.com/kailas-cloud/poemdex/internal/domain/poem"
)

// rawRecord is one element of a source file.
type rawRecord struct {
	ID         *int64     `json:"id"`
	Title      string     `json:"title"`
	Author     string     `json:"author"`
	Paragraphs paragraphs `json:"paragraphs"`
	Type       string     `json:"type"`
}

// paragraphs accepts either a list of lines or a bare string.
type paragraphs []string

func (p *paragraphs) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*p = paragraphs{s}
		return nil
	}
	var lines []string
	if err := json.Unmarshal(data, &lines); err != nil {
		return fmt.Errorf("paragraphs must be a string or a list of strings: %w", err)
	}
	*p = lines
	return nil
}

// listSources returns every *.json file under dir, sorted.
func listSources(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".json") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", dir, err)
	}
	sort.Strings(files)
	return files, nil
}

// readRecords parses one source file into validated records. Any failure matches domain.ErrParse.
func readRecords(path string, policy poem.ParagraphPolicy) ([]poem.Record, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("%w: read: %w", domain.ErrParse, err)
	}

	var raw []rawRecord
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: decode: %w", domain.ErrParse, err)
	}

	records := make([]poem.Record, 0, len(raw))
	for i, r := range raw {
		if r.ID == nil {
			return nil, fmt.Errorf("%w: element %d: id is required", domain.ErrParse, i)
		}
		text, err := policy.Normalize(r.Paragraphs)
		if err != nil {
			return nil, fmt.Errorf("%w: record %d: %w", domain.ErrParse, *r.ID, err)
		}
		rec, err := poem.New(*r.ID, r.Title, r.Author, text, r.Type)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrParse, err)
		}
		records = append(records, rec)
	}
	return records, nil
}
