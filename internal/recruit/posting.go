package recruit

import (
	"context"
	"fmt"

	"github.com/mitchellh/mapstructure"
)

const (
	PostingsPath = "/api/jobs"

	// The service has shipped the max candidates key with a typo.
	maxCandidatesTypoKey = "maxCandidatest"
)

// Posting is a job posting. Threshold and MaxCandidates are configured by an
// administrator and treated as read-only here.
type Posting struct {
	ID            int     `json:"id"`
	Title         string  `json:"Job Title"`
	Description   string  `json:"Job Description"`
	Threshold     float64 `json:"threshold"`
	MaxCandidates int     `json:"maxCandidates"`
	Summary       string  `json:"summary,omitempty"`
}

func (c *Client) getPostings(ctx context.Context) ([]*Posting, error) {
	var items []map[string]any
	if err := c.getJSON(ctx, PostingsPath, &items); err != nil {
		return nil, err
	}

	postings := make([]*Posting, 0, len(items))
	for _, item := range items {
		posting, err := decodePosting(item)
		if err != nil {
			return nil, err
		}
		postings = append(postings, posting)
	}

	return postings, nil
}

func decodePosting(item map[string]any) (*Posting, error) {
	if _, ok := item["maxCandidates"]; !ok {
		if v, ok := item[maxCandidatesTypoKey]; ok {
			fixed := make(map[string]any, len(item))
			for k, val := range item {
				fixed[k] = val
			}
			fixed["maxCandidates"] = v
			item = fixed
		}
	}

	var posting Posting
	cfg := &mapstructure.DecoderConfig{
		Result:           &posting,
		TagName:          "json",
		WeaklyTypedInput: true,
	}
	decoder, err := mapstructure.NewDecoder(cfg)
	if err != nil {
		return nil, err
	}

	if err := decoder.Decode(item); err != nil {
		return nil, fmt.Errorf("decode posting: %w", err)
	}

	return &posting, nil
}

// FindPosting returns the posting with the given id or nil.
func FindPosting(postings []*Posting, id int) *Posting {
	for _, p := range postings {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// PostingTitles lists the titles of postings in order.
func PostingTitles(postings []*Posting) []string {
	titles := make([]string, 0, len(postings))
	for _, p := range postings {
		titles = append(titles, p.Title)
	}
	return titles
}
