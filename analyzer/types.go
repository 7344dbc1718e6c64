package analyzer

// PageContent is the compact summary of a fetched page that is handed to the
// generation service. It is the only view of the page the service ever sees.
type PageContent struct {
	Title           string   `json:"title"`
	MetaDescription string   `json:"metaDescription"`
	H1              string   `json:"h1"`
	H2s             []string `json:"h2s"`
	BodySnippet     string   `json:"bodySnippet"`
}

// CacheStats provides statistics about the analyzer's report cache
type CacheStats struct {
	Backend             string         `json:"backend"`
	AnalysisCacheHits   int            `json:"analysisCacheHits"`
	AnalysisCacheMisses int            `json:"analysisCacheMisses"`
	Succeeded           int            `json:"succeeded"`
	Failures            map[string]int `json:"failures"`
}
