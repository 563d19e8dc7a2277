// Package fileid provides deterministic document IDs for scraped files.
package fileid

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"
)

const webPrefix = "web:"

// URLDocID returns a stable document ID for a downloaded URL, so scraping the
// same link twice overwrites the earlier document instead of duplicating it.
// Scheme and host are case-insensitive; the fragment is ignored.
func URLDocID(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return webPrefix + digest(rawURL)
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.RawFragment = ""
	return webPrefix + digest(u.String())
}

func digest(s string) string {
	hash := sha256.Sum256([]byte(s))
	return hex.EncodeToString(hash[:])
}
