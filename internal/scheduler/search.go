package scheduler

import (
	"context"

	"github.com/sells-group/leadscope/internal/model"
	"github.com/sells-group/leadscope/pkg/tavily"
)

// TavilySearcher adapts the Tavily client to the executor's Searcher seam.
type TavilySearcher struct {
	client tavily.Client
}

// NewTavilySearcher wraps a Tavily client.
func NewTavilySearcher(client tavily.Client) *TavilySearcher {
	return &TavilySearcher{client: client}
}

func (s *TavilySearcher) Search(ctx context.Context, query string, maxResults int) ([]model.EvidenceItem, error) {
	resp, err := s.client.Search(ctx, tavily.SearchRequest{
		Query:      query,
		MaxResults: maxResults,
	})
	if err != nil {
		return nil, err
	}

	items := make([]model.EvidenceItem, 0, len(resp.Results))
	for _, r := range resp.Results {
		items = append(items, model.EvidenceItem{
			URL:     r.URL,
			Title:   r.Title,
			Content: r.Content,
		})
	}
	return items, nil
}
