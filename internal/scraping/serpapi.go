package scraping

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
)

// OrganicResult is one Google result as returned by SerpAPI.
type OrganicResult struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	Link    string `json:"link"`
}

type searchResponse struct {
	OrganicResults []OrganicResult `json:"organic_results"`
	Error          string          `json:"error"`
}

// SerpClient queries the SerpAPI Google engine.
type SerpClient struct {
	client *resty.Client
	apiKey string
}

func NewSerpClient(baseURL, apiKey string, timeout time.Duration) *SerpClient {
	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")

	return &SerpClient{client: client, apiKey: apiKey}
}

// Search runs one French-locale Google query and returns its organic
// results with HTML removed from titles and snippets.
func (c *SerpClient) Search(ctx context.Context, query string) ([]OrganicResult, error) {
	var result searchResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"engine":  "google",
			"q":       query,
			"api_key": c.apiKey,
			"num":     "10",
			"hl":      "fr",
			"gl":      "fr",
		}).
		SetResult(&result).
		SetError(&result).
		Get("/search.json")
	if err != nil {
		return nil, fmt.Errorf("failed to query serpapi: %w", err)
	}
	if resp.IsError() {
		if result.Error != "" {
			return nil, fmt.Errorf("serpapi returned %d: %s", resp.StatusCode(), result.Error)
		}
		return nil, fmt.Errorf("serpapi returned %d", resp.StatusCode())
	}

	for i := range result.OrganicResults {
		result.OrganicResults[i].Title = cleanText(result.OrganicResults[i].Title)
		result.OrganicResults[i].Snippet = cleanText(result.OrganicResults[i].Snippet)
	}
	return result.OrganicResults, nil
}

// cleanText strips markup and collapses whitespace.
func cleanText(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return strings.Join(strings.Fields(s), " ")
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.Join(strings.Fields(s), " ")
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}
