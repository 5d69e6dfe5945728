package storage

import "strings"

// sourcePlatforms maps URL domains to platform labels. Unknown domains get
// the generic "web" label.
var sourcePlatforms = map[string]string{
	"twitter.com":          "twitter",
	"x.com":                "twitter",
	"reddit.com":           "reddit",
	"youtube.com":          "youtube",
	"youtu.be":             "youtube",
	"github.com":           "github",
	"medium.com":           "medium",
	"linkedin.com":         "linkedin",
	"stackoverflow.com":    "stackoverflow",
	"wikipedia.org":        "wikipedia",
	"news.ycombinator.com": "hackernews",
	"arxiv.org":            "arxiv",
}

// DetectSourcePlatform returns a best-effort origin label for a URL, or ""
// when the URL is empty.
func DetectSourcePlatform(url string) string {
	if url == "" {
		return ""
	}
	lower := strings.ToLower(url)
	for domain, platform := range sourcePlatforms {
		if strings.Contains(lower, domain) {
			return platform
		}
	}
	return "web"
}
