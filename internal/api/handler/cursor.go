package handler

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/fairchancejobs/jobboard-be/internal/api/storage"
)

// Cursors are opaque to clients: base64 of "RFC3339Nano|id" over the keyset
// columns (scraped_at, id).

func encodeCursor(scrapedAt time.Time, id string) string {
	raw := scrapedAt.Format(time.RFC3339Nano) + "|" + id
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

func decodeCursor(cursor string) (*storage.ScrapedJobCursor, error) {
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return nil, fmt.Errorf("invalid cursor: %w", err)
	}

	parts := strings.SplitN(string(raw), "|", 2)
	if len(parts) != 2 || parts[1] == "" {
		return nil, fmt.Errorf("invalid cursor format")
	}

	scrapedAt, err := time.Parse(time.RFC3339Nano, parts[0])
	if err != nil {
		return nil, fmt.Errorf("invalid cursor timestamp: %w", err)
	}

	return &storage.ScrapedJobCursor{ScrapedAt: scrapedAt, ID: parts[1]}, nil
}
