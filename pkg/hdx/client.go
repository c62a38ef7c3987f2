package hdx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Client defines the catalog publishing operations.
type Client interface {
	// CreateOrUpdate publishes the dataset, creating it if it does not
	// exist yet, and uploads its staged resources.
	CreateOrUpdate(ctx context.Context, ds *Dataset) error
}

// Option configures the HDX client.
type Option func(*httpClient)

// WithBaseURL sets a custom site URL (for testing).
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.site = url
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	site   string
	apiKey string
	http   *http.Client
}

// NewClient creates a catalog client for the given site.
func NewClient(site, apiKey string, opts ...Option) Client {
	c := &httpClient{
		site:   site,
		apiKey: apiKey,
		http: &http.Client{
			Timeout: 5 * time.Minute, // resource uploads can be large
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type actionResponse struct {
	Success bool            `json:"success"`
	Result  json.RawMessage `json:"result"`
	Error   json.RawMessage `json:"error"`
}

// CreateOrUpdate publishes the dataset via the CKAN action API.
func (c *httpClient) CreateOrUpdate(ctx context.Context, ds *Dataset) error {
	log := zap.L().With(zap.String("component", "hdx"), zap.String("dataset", ds.Name))

	exists, err := c.datasetExists(ctx, ds.Name)
	if err != nil {
		return eris.Wrapf(err, "hdx: check dataset %s", ds.Name)
	}

	action := "package_create"
	if exists {
		action = "package_update"
	}
	if _, err := c.doAction(ctx, action, packagePayload(ds)); err != nil {
		return eris.Wrapf(err, "hdx: %s %s", action, ds.Name)
	}
	log.Info("dataset metadata published", zap.String("action", action))

	for _, r := range ds.Resources {
		if err := c.uploadResource(ctx, ds.Name, r); err != nil {
			return eris.Wrapf(err, "hdx: upload resource %s", r.Name)
		}
		log.Info("resource uploaded", zap.String("resource", r.Name), zap.String("format", r.Format))
	}

	return nil
}

func (c *httpClient) datasetExists(ctx context.Context, name string) (bool, error) {
	resp, err := c.post(ctx, "package_show", "application/json",
		mustJSON(map[string]string{"id": name}))
	if err != nil {
		return false, err
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode == http.StatusNotFound {
		return false, nil
	}
	var action actionResponse
	if err := json.NewDecoder(resp.Body).Decode(&action); err != nil {
		return false, eris.Wrap(err, "decode package_show response")
	}
	return action.Success, nil
}

func packagePayload(ds *Dataset) []byte {
	tags := make([]map[string]string, 0, len(ds.Tags))
	for _, t := range ds.Tags {
		tags = append(tags, map[string]string{"name": t})
	}
	groups := make([]map[string]string, 0, len(ds.Groups))
	for _, g := range ds.Groups {
		groups = append(groups, map[string]string{"name": g})
	}

	payload := map[string]any{
		"name":         ds.Name,
		"title":        ds.Title,
		"tags":         tags,
		"groups":       groups,
		"dataset_date": ds.DatasetDate,
		"private":      false,
	}
	if ds.OwnerOrg != "" {
		payload["owner_org"] = ds.OwnerOrg
	}
	if ds.Maintainer != "" {
		payload["maintainer"] = ds.Maintainer
	}
	return mustJSON(payload)
}

func (c *httpClient) doAction(ctx context.Context, name string, body []byte) (*actionResponse, error) {
	resp, err := c.post(ctx, name, "application/json", body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close() //nolint:errcheck

	var action actionResponse
	if err := json.NewDecoder(resp.Body).Decode(&action); err != nil {
		return nil, eris.Wrapf(err, "decode %s response", name)
	}
	if !action.Success {
		return nil, eris.Errorf("%s failed: %s", name, string(action.Error))
	}
	return &action, nil
}

func (c *httpClient) uploadResource(ctx context.Context, packageID string, r *Resource) error {
	file, err := os.Open(r.FilePath)
	if err != nil {
		return eris.Wrapf(err, "open %s", r.FilePath)
	}
	defer file.Close() //nolint:errcheck

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range map[string]string{
		"package_id":  packageID,
		"name":        r.Name,
		"description": r.Description,
		"format":      r.Format,
		"url_type":    "upload",
	} {
		if err := mw.WriteField(k, v); err != nil {
			return eris.Wrapf(err, "write field %s", k)
		}
	}

	part, err := mw.CreateFormFile("upload", filepath.Base(r.FilePath))
	if err != nil {
		return eris.Wrap(err, "create form file")
	}
	if _, err := io.Copy(part, file); err != nil {
		return eris.Wrap(err, "copy file")
	}
	if err := mw.Close(); err != nil {
		return eris.Wrap(err, "close multipart writer")
	}

	resp, err := c.post(ctx, "resource_create", mw.FormDataContentType(), buf.Bytes())
	if err != nil {
		return err
	}
	defer resp.Body.Close() //nolint:errcheck

	var action actionResponse
	if err := json.NewDecoder(resp.Body).Decode(&action); err != nil {
		return eris.Wrap(err, "decode resource_create response")
	}
	if !action.Success {
		return eris.Errorf("resource_create failed: %s", string(action.Error))
	}
	return nil
}

func (c *httpClient) post(ctx context.Context, action, contentType string, body []byte) (*http.Response, error) {
	url := fmt.Sprintf("%s/api/3/action/%s", c.site, action)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrapf(err, "create %s request", action)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrapf(err, "%s request", action)
	}
	return resp, nil
}

func mustJSON(v any) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return data
}

// dryRunClient logs what would be published without calling the catalog.
type dryRunClient struct{}

// NewDryRun returns a client that only logs publish operations.
func NewDryRun() Client {
	return dryRunClient{}
}

func (dryRunClient) CreateOrUpdate(_ context.Context, ds *Dataset) error {
	log := zap.L().With(zap.String("component", "hdx"), zap.Bool("dry_run", true))
	log.Info("would publish dataset",
		zap.String("name", ds.Name),
		zap.String("title", ds.Title),
		zap.String("dataset_date", ds.DatasetDate),
		zap.Strings("groups", ds.Groups),
		zap.Int("resources", len(ds.Resources)),
	)
	return nil
}
