package pipeline

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sells-group/portwatch-cli/internal/arcgis"
	"github.com/sells-group/portwatch-cli/internal/config"
	"github.com/sells-group/portwatch-cli/internal/fetcher"
	"github.com/sells-group/portwatch-cli/pkg/hdx"
)

// fakeHDX records published datasets instead of calling the catalog.
type fakeHDX struct {
	published []*hdx.Dataset
	err       error
}

func (f *fakeHDX) CreateOrUpdate(_ context.Context, ds *hdx.Dataset) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, ds)
	return nil
}

// serviceServer routes feature-service queries by service name.
func serviceServer(handlers map[string]http.HandlerFunc) *httptest.Server {
	mux := http.NewServeMux()
	for svc, h := range handlers {
		mux.HandleFunc("/"+svc+"/FeatureServer/0/query", h)
	}
	return httptest.NewServer(mux)
}

func newTestEnv(t *testing.T, baseURL string) (*Env, *fakeHDX) {
	t.Helper()

	f := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		UserAgent:  "test-agent",
		Timeout:    5 * time.Second,
		MaxRetries: 1,
	})
	catalog := &fakeHDX{}

	env := &Env{
		Arc: arcgis.NewClient(f, baseURL, 1000),
		HDX: catalog,
		Cfg: &config.Config{
			Tags:            []string{"ports", "trade"},
			DisruptionsTags: []string{"hazards and risk", "ports", "trade"},
		},
		TempDir: t.TempDir(),
	}
	return env, catalog
}
