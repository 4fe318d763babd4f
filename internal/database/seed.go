// Herald - News Feed Aggregation and Processing Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/herald

package database

import (
	"context"
	"time"

	"github.com/lib/pq"

	"github.com/tomtom215/herald/internal/logging"
	"github.com/tomtom215/herald/internal/models"
)

// seedSource is one built-in catalog entry: name, feed URL, region,
// country code, language, reliability, poll interval in minutes, and
// topic tags.
type seedSource struct {
	name        string
	url         string
	region      string
	countryCode string
	language    string
	reliability int
	interval    int
	topics      []string
}

// sourceCatalog is the built-in feed catalog. Seeding is keyed on feed
// URL, so one publisher may appear several times with different
// section feeds. Add or remove entries freely; existing rows are never
// touched.
var sourceCatalog = []seedSource{
	// India, general news
	{"The Hindu", "https://www.thehindu.com/feeder/default.rss", "India", "IN", "en", 95, 10, []string{"general", "politics", "india"}},
	{"Indian Express", "https://indianexpress.com/feed/", "India", "IN", "en", 90, 10, []string{"general", "politics", "india"}},
	{"Times of India", "https://timesofindia.indiatimes.com/rssfeedstopstories.cms", "India", "IN", "en", 85, 15, []string{"general", "india"}},
	{"NDTV News", "https://feeds.feedburner.com/NDTV-LatestNews", "India", "IN", "en", 88, 12, []string{"general", "politics", "india"}},
	{"Hindustan Times", "https://www.hindustantimes.com/feeds/rss/india-news/rssfeed.xml", "India", "IN", "en", 87, 15, []string{"general", "india"}},

	// India, business
	{"Economic Times", "https://economictimes.indiatimes.com/rssfeedsdefault.cms", "India", "IN", "en", 92, 10, []string{"business", "economy", "india"}},
	{"Business Standard", "https://www.business-standard.com/rss/home_page_top_stories.rss", "India", "IN", "en", 90, 12, []string{"business", "finance", "india"}},
	{"Mint (Livemint)", "https://www.livemint.com/rss/news", "India", "IN", "en", 91, 10, []string{"business", "technology", "india"}},

	// India, technology and startups
	{"Inc42", "https://inc42.com/feed/", "India", "IN", "en", 88, 15, []string{"technology", "startups", "india"}},
	{"YourStory", "https://yourstory.com/feed", "India", "IN", "en", 85, 20, []string{"startups", "entrepreneurship", "india"}},
	{"Entrepreneur India", "https://www.entrepreneur.com/latest.rss", "India", "IN", "en", 86, 20, []string{"startups", "entrepreneurship", "india"}},

	// India, markets
	{"Moneycontrol Markets", "https://www.moneycontrol.com/rss/business.xml", "India", "IN", "en", 89, 8, []string{"stocks", "markets", "india", "nse", "bse"}},
	{"Economic Times Markets", "https://economictimes.indiatimes.com/markets/rssfeeds/1977021501.cms", "India", "IN", "en", 90, 10, []string{"stocks", "equity", "india"}},

	// Global, general news
	{"BBC News", "https://feeds.bbci.co.uk/news/rss.xml", "Global", "GB", "en", 95, 10, []string{"general", "international", "politics"}},
	{"Reuters", "https://ir.thomsonreuters.com/rss/news-releases.xml?items=15", "Global", "GB", "en", 96, 8, []string{"general", "business", "international"}},
	{"CNN International", "http://rss.cnn.com/rss/edition.rss", "Global", "US", "en", 87, 15, []string{"general", "politics", "international"}},
	{"The Guardian", "https://www.theguardian.com/world/rss", "Global", "GB", "en", 92, 12, []string{"general", "politics", "international"}},

	// Global, technology
	{"TechCrunch", "https://feeds.feedburner.com/TechCrunch", "Global", "US", "en", 90, 15, []string{"technology", "startups", "ai"}},
	{"Ars Technica", "https://feeds.arstechnica.com/arstechnica/index", "Global", "US", "en", 92, 20, []string{"technology", "science"}},
	{"The Verge", "https://www.theverge.com/rss/index.xml", "Global", "US", "en", 89, 15, []string{"technology", "gadgets"}},
	{"Wired", "https://www.wired.com/feed/rss", "Global", "US", "en", 91, 20, []string{"technology", "science", "future"}},
	{"Google Tech Blog", "https://blog.google/technology/rss", "Global", "US", "en", 94, 18, []string{"technology", "google", "research"}},

	// Global, business
	{"Wall Street Journal", "https://feeds.a.dj.com/rss/RSSWorldNews.xml", "Global", "US", "en", 95, 10, []string{"business", "finance", "markets"}},
	{"Financial Times", "https://www.ft.com/rss/home", "Global", "GB", "en", 94, 12, []string{"business", "finance", "global"}},
	{"Bloomberg", "https://feeds.bloomberg.com/markets/news.rss", "Global", "US", "en", 93, 10, []string{"business", "markets", "finance"}},

	// Global, markets
	{"MarketWatch", "https://www.marketwatch.com/rss/topstories", "Global", "US", "en", 90, 8, []string{"stocks", "markets", "trading"}},
	{"Yahoo Finance News", "https://finance.yahoo.com/news/rssindex", "Global", "US", "en", 87, 10, []string{"stocks", "finance", "markets"}},
	{"Yahoo Finance Stocks", "https://feeds.finance.yahoo.com/rss/2.0/headline?s=MSFT,AAPL&region=US&lang=en-US", "Global", "US", "en", 87, 10, []string{"stocks", "finance", "markets"}},
	{"Seeking Alpha", "https://seekingalpha.com/feed.xml", "Global", "US", "en", 85, 15, []string{"stocks", "analysis", "investing"}},

	// Global, startups
	{"Startup Grind", "https://medium.com/feed/@StartupGrind", "Global", "US", "en", 86, 20, []string{"startups", "entrepreneurship", "funding"}},
	{"Crunchbase News", "https://news.crunchbase.com/feed/", "Global", "US", "en", 89, 18, []string{"startups", "venture", "funding"}},
	{"Product Hunt", "https://www.producthunt.com/feed", "Global", "US", "en", 83, 30, []string{"startups", "products", "launches"}},
	{"VentureBeat Startups", "https://venturebeat.com/category/startup/feed/", "Global", "US", "en", 87, 25, []string{"startups", "technology", "venture"}},

	// Global, AI
	{"AI News", "https://www.artificialintelligence-news.com/feed/", "Global", "GB", "en", 91, 12, []string{"ai", "machine learning", "technology"}},
	{"MIT AI News", "https://news.mit.edu/rss/topic/artificial-intelligence2", "Global", "US", "en", 95, 15, []string{"ai", "research", "machine learning"}},
	{"OpenAI Blog", "https://openai.com/blog/rss.xml", "Global", "US", "en", 93, 20, []string{"ai", "gpt", "openai"}},
	{"Google AI Blog", "https://blog.google/technology/ai/rss/", "Global", "US", "en", 94, 18, []string{"ai", "google", "research"}},

	// United States
	{"New York Times", "https://rss.nytimes.com/services/xml/rss/nyt/HomePage.xml", "US", "US", "en", 94, 12, []string{"general", "politics", "us"}},
	{"Mashable All", "https://mashable.com/feeds/rss/all", "US", "US", "en", 84, 20, []string{"technology", "social_media"}},
	{"Mashable Tech", "https://mashable.com/feeds/rss/tech", "US", "US", "en", 84, 20, []string{"general", "social_media"}},
}

// SeedCatalog inserts catalog sources that are not yet registered and
// returns how many rows were added. Already-known feed URLs are left
// untouched, so this is safe to run on every boot. New sources are
// scheduled for an immediate first poll.
func (s *Store) SeedCatalog(ctx context.Context) (int, error) {
	now := time.Now().UTC()
	inserted := 0

	for _, entry := range sourceCatalog {
		if err := ctx.Err(); err != nil {
			return inserted, err
		}

		next := now
		src := &models.Source{
			Name:                entry.name,
			URL:                 entry.url,
			SourceType:          "rss",
			PrimaryRegion:       entry.region,
			CountryCode:         entry.countryCode,
			Language:            entry.language,
			Topics:              pq.StringArray(entry.topics),
			Reliability:         entry.reliability,
			PollIntervalMinutes: entry.interval,
			MaxArticlesPerPoll:  20,
			Enabled:             true,
			NextPollAt:          &next,
		}

		ok, err := s.InsertSource(ctx, src)
		if err != nil {
			logging.Warn().Err(err).Str("source", entry.name).Msg("Failed to seed source")
			continue
		}
		if ok {
			inserted++
		}
	}

	return inserted, nil
}
