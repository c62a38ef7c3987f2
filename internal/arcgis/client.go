// Package arcgis queries ArcGIS feature-service endpoints page by page.
package arcgis

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/portwatch-cli/internal/feature"
	"github.com/sells-group/portwatch-cli/internal/fetcher"
)

// PortWatch feature-service names.
const (
	PortsService            = "PortWatch_ports_database"
	ChokepointsService      = "PortWatch_chokepoints_database"
	DailyChokepointsService = "Daily_Chokepoints_Data"
	DailyTradeService       = "Daily_Trade_Data"
	DisruptionsService      = "portwatch_disruptions_database"
)

// Response formats.
const (
	FormatJSON    = "json"
	FormatGeoJSON = "geojson"
)

// DefaultPageSize is the feature service's maximum page size.
const DefaultPageSize = 1000

// Query configures a feature-service query.
type Query struct {
	// Where is the filter expression; empty means match all ("1=1").
	Where string
	// Format selects the response shape: FormatJSON (attributes) or
	// FormatGeoJSON (properties + geometry). Empty defaults to FormatJSON.
	Format string
	// DiagnosticRetry enables a single raw re-fetch and second parse on
	// JSON decode failure. Best-effort triage for a known intermittent
	// upstream issue, not a retry policy.
	DiagnosticRetry bool
}

// Client pages through feature-service query endpoints.
type Client struct {
	fetcher  fetcher.Fetcher
	baseURL  string
	pageSize int
}

// NewClient creates a feature-service client. pageSize <= 0 selects the
// default.
func NewClient(f fetcher.Fetcher, baseURL string, pageSize int) *Client {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Client{
		fetcher:  f,
		baseURL:  baseURL,
		pageSize: pageSize,
	}
}

type page struct {
	Features []*feature.Feature `json:"features"`
}

// FetchAll retrieves every feature of a service, paging by OBJECTID from
// offset 0. It stops on an empty page or on a short page, whichever comes
// first; a short non-empty page is the last page and does not cost another
// round trip. Source order is preserved and nothing is deduplicated.
func (c *Client) FetchAll(ctx context.Context, service string, q Query) ([]*feature.Feature, error) {
	var all []*feature.Feature
	offset := 0

	for {
		u := c.queryURL(service, q, offset)
		pg, err := c.fetchPage(ctx, u, q.DiagnosticRetry)
		if err != nil {
			return nil, eris.Wrapf(err, "arcgis: fetch %s offset %d", service, offset)
		}

		if len(pg.Features) == 0 {
			break
		}
		all = append(all, pg.Features...)
		if len(pg.Features) < c.pageSize {
			break
		}
		offset += c.pageSize
	}

	return all, nil
}

func (c *Client) queryURL(service string, q Query, offset int) string {
	where := q.Where
	if where == "" {
		where = "1=1"
	}
	format := q.Format
	if format == "" {
		format = FormatJSON
	}

	params := url.Values{}
	params.Set("where", where)
	params.Set("outFields", "*")
	params.Set("outSR", "4326")
	params.Set("f", format)
	params.Set("orderByFields", "OBJECTID")
	params.Set("resultOffset", strconv.Itoa(offset))
	params.Set("resultRecordCount", strconv.Itoa(c.pageSize))

	return fmt.Sprintf("%s/%s/FeatureServer/0/query?%s", c.baseURL, service, params.Encode())
}

func (c *Client) fetchPage(ctx context.Context, u string, diagnostic bool) (*page, error) {
	body, err := c.fetcher.Download(ctx, u)
	if err != nil {
		return nil, err
	}
	defer body.Close() //nolint:errcheck

	pg, err := fetcher.DecodeJSONObject[page](body)
	if err == nil {
		return pg, nil
	}
	if !diagnostic {
		return nil, err
	}
	return c.refetchPage(ctx, u, err)
}

// refetchPage issues a single raw re-fetch after a parse failure, logs what
// the service actually sent, and tries to parse once more. A second failure
// propagates the original parse error.
func (c *Client) refetchPage(ctx context.Context, u string, parseErr error) (*page, error) {
	log := zap.L().With(zap.String("component", "arcgis"), zap.String("url", u))
	log.Error("page response failed to parse, re-fetching for diagnostics", zap.Error(parseErr))

	raw, err := c.fetcher.DownloadRaw(ctx, u)
	if err != nil {
		log.Error("diagnostic re-fetch failed", zap.Error(err))
		return nil, parseErr
	}

	log.Error("diagnostic re-fetch response",
		zap.Int("status_code", raw.StatusCode),
		zap.String("content_type", raw.ContentType),
		zap.String("body_excerpt", raw.BodyExcerpt(1000)),
	)

	var pg page
	if err := json.Unmarshal(raw.Body, &pg); err != nil {
		log.Error("second parse attempt also failed, giving up", zap.Error(err))
		return nil, eris.Wrapf(parseErr, "second parse attempt also failed: %v", err)
	}
	return &pg, nil
}
