package types

// RawProfileRecord is one byline observation extracted from a page. Records
// are ephemeral: produced per page, consumed immediately by the aggregator.
type RawProfileRecord struct {
	Name         string
	RawBeat      string
	ArticleTitle string
	ArticleDate  string // ISO 2006-01-02 when parseable, "" otherwise
	SourceURL    string
}

// JournalistProfile is the aggregated record of one journalist's activity on
// the target site, keyed by normalized name. Owned exclusively by the
// aggregator; never deleted within a job.
type JournalistProfile struct {
	Name            string `json:"name"`
	Beat            string `json:"beat"`
	LatestArticle   string `json:"latest_article"`
	ArticleURL      string `json:"article_url,omitempty"`
	PublicationDate string `json:"publication_date"`
	ArticlesCount   int    `json:"articles_count"`
}

// JobStats summarizes crawl activity for a finished job.
type JobStats struct {
	PagesFetched  int64 `json:"pages_fetched"`
	PagesFailed   int64 `json:"pages_failed"`
	URLsEnqueued  int64 `json:"urls_enqueued"`
	URLsFiltered  int64 `json:"urls_filtered"`
	RecordsMerged int64 `json:"records_merged"`
	Checkpoints   int64 `json:"checkpoints"`
}

// ScrapeResult is the exported outcome of one scrape job. Profiles may be
// empty; array order is unspecified for consumers.
type ScrapeResult struct {
	OutletName string              `json:"outlet_name"`
	Website    string              `json:"website"`
	Profiles   []JournalistProfile `json:"profiles"`
	Reason     string              `json:"reason,omitempty"`
	Stats      *JobStats           `json:"stats,omitempty"`
}
