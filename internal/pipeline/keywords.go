// Herald - News Feed Aggregation and Processing Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/herald

package pipeline

import "regexp"

// The classification tables are ordered slices, not maps: scoring ties
// resolve to the earlier entry, so table order is part of the contract.
// All keywords and aliases are stored lowercase and matched as
// substrings against lowercased article text.

// topicEntry pairs a topic with its scoring keywords.
type topicEntry struct {
	name     string
	keywords []string
}

var topicTable = []topicEntry{
	{name: "general", keywords: []string{
		"news", "breaking", "update", "report", "announcement", "latest",
		"headline", "story", "coverage", "incident", "event",
	}},
	{name: "technology", keywords: []string{
		"technology", "tech", "software", "hardware", "app", "application",
		"platform", "digital", "internet", "web", "online", "cyber", "data",
		"algorithm", "programming", "developer", "coding", "innovation",
		"gadget", "device", "smartphone", "computer", "laptop", "tablet",
	}},
	{name: "business", keywords: []string{
		"business", "company", "corporation", "enterprise", "firm",
		"industry", "economy", "economic", "market", "finance", "financial",
		"revenue", "profit", "earnings", "sales", "growth", "investment",
		"investor", "banking", "bank", "trade", "trading", "commerce",
		"commercial", "merger", "acquisition", "ipo", "ceo", "executive",
		"board",
	}},
	{name: "politics", keywords: []string{
		"politics", "political", "government", "minister", "prime minister",
		"president", "election", "vote", "voting", "parliament", "congress",
		"senate", "policy", "law", "legislation", "bill", "act",
		"regulation", "democracy", "democratic", "republican", "party",
		"campaign", "debate",
	}},
	{name: "sports", keywords: []string{
		"sports", "sport", "game", "match", "tournament", "championship",
		"league", "team", "player", "athlete", "coach", "football",
		"soccer", "cricket", "basketball", "tennis", "baseball", "hockey",
		"olympics", "fifa", "nba", "nfl", "ipl", "premier league", "score",
		"win", "victory",
	}},
	{name: "entertainment", keywords: []string{
		"entertainment", "movie", "film", "cinema", "bollywood",
		"hollywood", "actor", "actress", "director", "music", "song",
		"album", "concert", "tv", "television", "show", "series",
		"celebrity", "star", "award", "oscar", "grammy", "festival",
		"premiere", "release",
	}},
	{name: "science", keywords: []string{
		"science", "scientific", "research", "study", "discovery",
		"experiment", "laboratory", "university", "academic", "scholar",
		"physics", "chemistry", "biology", "medicine", "space", "nasa",
		"astronomy", "climate", "environment", "vaccine", "drug",
		"treatment", "therapy",
	}},
	{name: "health", keywords: []string{
		"health", "healthcare", "medical", "medicine", "hospital", "doctor",
		"patient", "disease", "illness", "virus", "covid", "pandemic",
		"vaccine", "vaccination", "treatment", "cure", "therapy",
		"diagnosis", "wellness", "fitness", "nutrition", "diet",
		"mental health",
	}},
	{name: "stocks", keywords: []string{
		"stock", "stocks", "share", "shares", "equity", "market",
		"stock market", "trading", "trader", "investor", "investment",
		"portfolio", "dividend", "nasdaq", "nyse", "nse", "bse", "nifty",
		"sensex", "dow jones", "s&p", "bull", "bear", "rally", "crash",
		"volatility", "ipo", "listing", "earnings", "quarterly", "revenue",
		"valuation", "price target",
	}},
	{name: "startups", keywords: []string{
		"startup", "startups", "entrepreneur", "entrepreneurship",
		"founder", "co-founder", "venture", "venture capital", "vc",
		"funding", "investment", "seed", "series a", "series b",
		"angel investor", "accelerator", "incubator", "pitch", "demo day",
		"unicorn", "valuation", "exit", "acquisition", "scale", "scaling",
		"bootstrap", "mvp", "product launch",
	}},
	{name: "ai", keywords: []string{
		"ai", "artificial intelligence", "machine learning", "ml",
		"deep learning", "neural network", "algorithm", "automation",
		"robot", "robotics", "chatbot", "nlp",
		"natural language processing", "computer vision", "openai", "gpt",
		"chatgpt", "llm", "large language model", "tensorflow", "pytorch",
		"data science", "big data", "analytics", "predictive",
		"autonomous", "self-driving", "smart", "intelligent",
	}},
	{name: "finance", keywords: []string{
		"finance", "financial", "bank", "banking", "loan", "credit",
		"debt", "insurance", "mortgage", "interest", "rate",
		"federal reserve", "rbi", "monetary", "fiscal", "budget", "tax",
		"taxation", "currency", "dollar", "rupee", "euro", "bitcoin",
		"cryptocurrency", "forex",
	}},
	{name: "energy", keywords: []string{
		"energy", "oil", "gas", "coal", "renewable", "solar", "wind",
		"nuclear", "power", "electricity", "grid", "battery", "fuel",
		"petroleum", "opec", "crude", "refinery", "pipeline", "carbon",
		"emission", "climate change",
	}},
	{name: "automotive", keywords: []string{
		"car", "auto", "automobile", "vehicle", "electric vehicle", "ev",
		"tesla", "toyota", "honda", "ford", "bmw", "mercedes",
		"automotive", "driving", "self-driving", "autonomous", "uber",
		"lyft", "ride-sharing",
	}},
	{name: "real estate", keywords: []string{
		"real estate", "property", "housing", "home", "house", "apartment",
		"rent", "rental", "mortgage", "construction", "developer",
		"builder", "commercial", "residential", "land", "plot",
		"investment property",
	}},
}

// countryEntry pairs a country with the aliases that mark a mention.
type countryEntry struct {
	name    string
	aliases []string
}

var countryTable = []countryEntry{
	{name: "United States", aliases: []string{
		"usa", "us", "united states", "america", "u.s.a", "u.s.",
		"american", "states", "washington", "new york", "california",
	}},
	{name: "United Kingdom", aliases: []string{
		"uk", "britain", "great britain", "england", "scotland", "wales",
		"british", "london", "u.k.", "united kingdom",
	}},
	{name: "Canada", aliases: []string{
		"canada", "canadian", "toronto", "vancouver", "montreal", "ottawa",
	}},
	{name: "Australia", aliases: []string{
		"australia", "australian", "sydney", "melbourne", "canberra",
		"aussie",
	}},
	{name: "India", aliases: []string{
		"india", "indian", "bharat", "hindustan", "delhi", "mumbai",
		"bangalore", "chennai", "kolkata", "hyderabad", "pune", "new delhi",
	}},
	{name: "China", aliases: []string{
		"china", "chinese", "beijing", "shanghai", "hong kong", "prc",
	}},
	{name: "Japan", aliases: []string{
		"japan", "japanese", "tokyo", "osaka", "nippon",
	}},
	{name: "South Korea", aliases: []string{
		"south korea", "korea", "korean", "seoul", "rok",
	}},
	{name: "Singapore", aliases: []string{
		"singapore", "singaporean",
	}},
	{name: "Germany", aliases: []string{
		"germany", "german", "deutschland", "berlin", "munich",
	}},
	{name: "France", aliases: []string{
		"france", "french", "paris", "lyon",
	}},
	{name: "Russia", aliases: []string{
		"russia", "russian", "moscow", "kremlin",
	}},
	{name: "Italy", aliases: []string{
		"italy", "italian", "rome", "milan",
	}},
	{name: "Spain", aliases: []string{
		"spain", "spanish", "madrid", "barcelona",
	}},
	{name: "Netherlands", aliases: []string{
		"netherlands", "dutch", "holland", "amsterdam",
	}},
	{name: "Switzerland", aliases: []string{
		"switzerland", "swiss", "zurich", "geneva",
	}},
	{name: "Israel", aliases: []string{
		"israel", "israeli", "jerusalem", "tel aviv",
	}},
	{name: "Saudi Arabia", aliases: []string{
		"saudi arabia", "saudi", "riyadh",
	}},
	{name: "UAE", aliases: []string{
		"uae", "emirates", "dubai", "abu dhabi", "united arab emirates",
	}},
	{name: "Brazil", aliases: []string{
		"brazil", "brazilian", "sao paulo", "rio de janeiro",
	}},
	{name: "Mexico", aliases: []string{
		"mexico", "mexican", "mexico city",
	}},
	{name: "Argentina", aliases: []string{
		"argentina", "argentinian", "buenos aires",
	}},
	{name: "South Africa", aliases: []string{
		"south africa", "south african", "cape town", "johannesburg",
	}},
	{name: "Nigeria", aliases: []string{
		"nigeria", "nigerian", "lagos", "abuja",
	}},
	{name: "Taiwan", aliases: []string{
		"taiwan", "taiwanese", "taipei",
	}},
	{name: "Hong Kong", aliases: []string{
		"hong kong", "hk",
	}},
}

// sectorEntry pairs a market sector with its detection keywords.
type sectorEntry struct {
	name     string
	keywords []string
}

var sectorTable = []sectorEntry{
	{name: "Technology", keywords: []string{"tech", "software", "ai", "digital", "app", "platform"}},
	{name: "Finance", keywords: []string{"bank", "finance", "investment", "loan", "credit"}},
	{name: "Healthcare", keywords: []string{"health", "medical", "pharma", "drug", "hospital"}},
	{name: "Energy", keywords: []string{"oil", "gas", "energy", "renewable", "solar"}},
	{name: "Retail", keywords: []string{"retail", "store", "shopping", "consumer", "brand"}},
}

// Importance indicator sets. Counting matches presence per keyword, not
// occurrences.
var (
	breakingKeywords = []string{
		"breaking", "urgent", "alert", "just in", "developing",
		"exclusive", "emergency", "crisis", "disaster", "tragedy",
	}
	importantKeywords = []string{
		"major", "significant", "historic", "unprecedented",
		"announcement", "decision", "ruling", "verdict",
	}
)

// tickerRe matches candidate ticker symbols: 3 to 5 capital letters on
// word boundaries, evaluated against raw (uncased) text.
var tickerRe = regexp.MustCompile(`\b[A-Z]{3,5}\b`)

// tickerBlacklist holds capitalized English words and initialisms that
// the ticker pattern would otherwise pick up.
var tickerBlacklist = map[string]struct{}{
	"THE": {}, "AND": {}, "FOR": {}, "ARE": {}, "BUT": {}, "NOT": {},
	"YOU": {}, "ALL": {}, "CAN": {}, "HER": {}, "WAS": {}, "ONE": {},
	"OUR": {}, "HAD": {}, "HAS": {}, "TWO": {}, "WHO": {}, "ITS": {},
	"DID": {}, "GET": {}, "USA": {}, "CEO": {}, "CTO": {}, "CFO": {},
	"COO": {}, "API": {}, "URL": {}, "PDF": {}, "HTML": {}, "CSS": {},
}
