package scraping

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/sirupsen/logrus"

	"nexlyon/server/config"
	"nexlyon/server/internal/models"
)

// ErrNoAPIKey is returned by ScrapeLive when no SerpAPI key is configured.
var ErrNoAPIKey = errors.New("no SERPAPI_KEY configured")

var liveQueries = []string{
	"site:seloger.com appartement achat Lyon",
	"site:seloger.com vente appartement Lyon prix",
	"appartement a vendre Lyon seloger",
}

const (
	defaultPrice = 250000
	defaultSize  = 55.0
	defaultRooms = 2
	defaultDPE   = "D"

	maxTitleLength       = 120
	maxDescriptionLength = 300
)

// Store persists scraped listings.
type Store interface {
	CreateSession(source, mode string) (int64, error)
	UpdateSessionCount(sessionID int64, count int) error
	UpsertProperty(p models.Property, sessionID int64) (int64, bool, error)
}

// Searcher runs one web search query.
type Searcher interface {
	Search(ctx context.Context, query string) ([]OrganicResult, error)
}

// Scraper loads listings from SerpAPI, or from the demo dataset when live
// results are unavailable.
type Scraper struct {
	store    Store
	searcher Searcher
	market   *config.MarketData
	logger   *logrus.Logger
}

// NewScraper creates a scraper. A nil searcher means demo mode only.
func NewScraper(store Store, searcher Searcher, market *config.MarketData, logger *logrus.Logger) *Scraper {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}
	if market == nil {
		market = config.DefaultMarketData()
	}

	return &Scraper{
		store:    store,
		searcher: searcher,
		market:   market,
		logger:   logger,
	}
}

// Scrape tries a live scrape and falls back to the demo dataset when it
// fails or finds nothing new. It returns the number of new properties.
func (s *Scraper) Scrape(ctx context.Context) (int, error) {
	if s.searcher == nil {
		s.logger.Info("No SerpAPI key, using demo data")
		return s.ScrapeDemo()
	}

	s.logger.Info("SerpAPI key detected, attempting live scrape")
	count, err := s.ScrapeLive(ctx)
	switch {
	case err != nil:
		s.logger.WithError(err).Warn("Live scrape failed, falling back to demo data")
	case count > 0:
		return count, nil
	default:
		s.logger.Info("No new results from live scrape, adding demo data")
	}

	return s.ScrapeDemo()
}

// ScrapeLive queries SerpAPI and stores every result that can be placed
// in a Lyon arrondissement. Failed queries are logged and skipped.
func (s *Scraper) ScrapeLive(ctx context.Context) (int, error) {
	if s.searcher == nil {
		return 0, ErrNoAPIKey
	}

	sessionID, err := s.store.CreateSession("serpapi", "live")
	if err != nil {
		return 0, err
	}

	inserted := 0
	for _, query := range liveQueries {
		results, err := s.searcher.Search(ctx, query)
		if err != nil {
			if ctx.Err() != nil {
				return inserted, ctx.Err()
			}
			s.logger.WithError(err).WithField("query", query).Warn("Query failed")
			continue
		}

		for _, r := range results {
			p, ok := s.listingFromResult(r)
			if !ok {
				continue
			}
			_, isNew, err := s.store.UpsertProperty(p, sessionID)
			if err != nil {
				return inserted, fmt.Errorf("failed to store listing: %w", err)
			}
			if isNew {
				inserted++
				s.logger.WithField("title", truncate(p.Title, 60)).Debug("New listing")
			}
		}
	}

	if err := s.store.UpdateSessionCount(sessionID, inserted); err != nil {
		return inserted, err
	}
	return inserted, nil
}

// ScrapeDemo loads DemoListings and returns the number of new properties.
func (s *Scraper) ScrapeDemo() (int, error) {
	sessionID, err := s.store.CreateSession("demo", "demo")
	if err != nil {
		return 0, err
	}

	inserted := 0
	for _, item := range DemoListings {
		p := item
		p.PricePerM2 = float64(p.Price) / p.Size
		_, isNew, err := s.store.UpsertProperty(p, sessionID)
		if err != nil {
			return inserted, fmt.Errorf("failed to store demo listing: %w", err)
		}
		if isNew {
			inserted++
		}
	}

	if err := s.store.UpdateSessionCount(sessionID, inserted); err != nil {
		return inserted, err
	}
	s.logger.WithField("new", inserted).Info("Demo data loaded")
	return inserted, nil
}

// listingFromResult builds a property from a search result. Missing price
// or size is estimated from the district average.
func (s *Scraper) listingFromResult(r OrganicResult) (models.Property, bool) {
	combined := r.Title + " " + r.Snippet

	district, ok := ParseArrondissement(combined)
	if !ok {
		return models.Property{}, false
	}

	price, hasPrice := ParsePrice(combined)
	size, hasSize := ParseSize(combined)
	avgM2 := s.market.Market(district).AvgPriceM2

	if !hasPrice && hasSize {
		price = int(size * avgM2)
		hasPrice = price != 0
	}
	if !hasSize && hasPrice && avgM2 != 0 {
		size = math.Round(float64(price)/avgM2*10) / 10
		hasSize = size != 0
	}
	if !hasPrice {
		price = defaultPrice
	}
	if !hasSize {
		size = defaultSize
	}

	rooms, ok := ParseRooms(combined)
	if !ok || rooms == 0 {
		rooms = defaultRooms
	}
	dpe, ok := ParseDPE(combined)
	if !ok {
		dpe = defaultDPE
	}

	return models.Property{
		Title:          truncate(r.Title, maxTitleLength),
		Price:          price,
		Arrondissement: district,
		Size:           size,
		Rooms:          rooms,
		DPE:            dpe,
		Description:    truncate(r.Snippet, maxDescriptionLength),
		URL:            r.Link,
		PricePerM2:     float64(price) / size,
	}, true
}

func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) > limit {
		return string(r[:limit])
	}
	return s
}
