package scheduler

import (
	"context"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadscope/pkg/tavily"
)

type stubTavily struct {
	req  tavily.SearchRequest
	resp *tavily.SearchResponse
	err  error
}

func (s *stubTavily) Search(_ context.Context, req tavily.SearchRequest) (*tavily.SearchResponse, error) {
	s.req = req
	return s.resp, s.err
}

func TestTavilySearcher(t *testing.T) {
	stub := &stubTavily{
		resp: &tavily.SearchResponse{
			Results: []tavily.SearchResult{
				{Title: "Retraction notice", URL: "https://example.org/a", Content: "withdrawn", Score: 0.9},
				{Title: "Press release", URL: "https://example.org/b", Content: "settlement"},
			},
		},
	}

	items, err := NewTavilySearcher(stub).Search(context.Background(), "NCT01234567 fraud", 5)
	require.NoError(t, err)

	assert.Equal(t, "NCT01234567 fraud", stub.req.Query)
	assert.Equal(t, 5, stub.req.MaxResults)
	require.Len(t, items, 2)
	assert.Equal(t, "https://example.org/a", items[0].URL)
	assert.Equal(t, "Retraction notice", items[0].Title)
	assert.Equal(t, "withdrawn", items[0].Content)
}

func TestTavilySearcher_Error(t *testing.T) {
	stub := &stubTavily{err: eris.New("tavily: unexpected status 503")}

	items, err := NewTavilySearcher(stub).Search(context.Background(), "q", 3)
	require.Error(t, err)
	assert.Nil(t, items)
}
