package onedrive

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driftline/docsync/internal/core/domain"
)

const testToken = "graph-token"

func testCredentials() json.RawMessage {
	return json.RawMessage(`{"access_token": "` + testToken + `"}`)
}

func newTestConnector(t *testing.T, handler http.Handler) *Connector {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := domain.ConnectorConfig{
		ID:               "od-1",
		Provider:         domain.ProviderOneDrive,
		OAuthCredentials: testCredentials(),
	}
	return New(cfg, WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))
}

func serveJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func TestConnector_ListFiles_PaginatesAndSkipsFolders(t *testing.T) {
	var srvURL string
	mux := http.NewServeMux()
	mux.HandleFunc("/me/drive/root/children", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer "+testToken, r.Header.Get("Authorization"))
		serveJSON(t, w, map[string]any{
			"value": []map[string]any{
				{
					"id": "i1", "name": "report.docx", "size": 4096,
					"lastModifiedDateTime": "2026-01-10T09:00:00Z",
					"file": map[string]any{
						"mimeType": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
						"hashes":   map[string]any{"sha1Hash": "SHA1HASH"},
					},
				},
				{
					"id": "i2", "name": "Projects",
					"folder": map[string]any{"childCount": 3},
				},
			},
			"@odata.nextLink": srvURL + "/page2",
		})
	})
	mux.HandleFunc("/page2", func(w http.ResponseWriter, _ *http.Request) {
		serveJSON(t, w, map[string]any{
			"value": []map[string]any{
				{
					"id": "i3", "name": "notes.txt", "size": 10,
					"lastModifiedDateTime": "2026-01-11T09:00:00Z",
					"file":                 map[string]any{"mimeType": "text/plain"},
				},
			},
		})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	srvURL = srv.URL

	cfg := domain.ConnectorConfig{
		ID:               "od-1",
		Provider:         domain.ProviderOneDrive,
		OAuthCredentials: testCredentials(),
	}
	c := New(cfg, WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))

	files := c.ListFiles(context.Background(), "", nil)
	require.Len(t, files, 2)

	assert.Equal(t, "i1", files[0].ID)
	assert.Equal(t, "SHA1HASH", files[0].ContentHash)
	assert.Equal(t, int64(4096), files[0].SizeBytes)
	assert.Equal(t, domain.ProviderOneDrive, files[0].Source)
	assert.Equal(t, "od-1", files[0].ConnectorID)
	assert.Equal(t, "i3", files[1].ID)
}

func TestConnector_ListFiles_SinceCutoff(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/me/drive/items/folder-1/children", func(w http.ResponseWriter, _ *http.Request) {
		serveJSON(t, w, map[string]any{
			"value": []map[string]any{
				{
					"id": "old", "name": "old.txt",
					"lastModifiedDateTime": "2026-01-01T00:00:00Z",
					"file":                 map[string]any{"mimeType": "text/plain"},
				},
				{
					"id": "new", "name": "new.txt",
					"lastModifiedDateTime": "2026-02-01T00:00:00Z",
					"file":                 map[string]any{"mimeType": "text/plain"},
				},
			},
		})
	})

	c := newTestConnector(t, mux)
	since := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)

	files := c.ListFiles(context.Background(), "folder-1", &since)
	require.Len(t, files, 1)
	assert.Equal(t, "new", files[0].ID)
}

func TestConnector_ListFiles_ServerErrorReturnsEmpty(t *testing.T) {
	c := newTestConnector(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))

	files := c.ListFiles(context.Background(), "", nil)
	assert.NotNil(t, files)
	assert.Empty(t, files)
}

func TestConnector_DownloadFile_FollowsRedirect(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/me/drive/items/i1/content", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/signed/i1", http.StatusFound)
	})
	mux.HandleFunc("/signed/i1", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("item body"))
	})

	c := newTestConnector(t, mux)
	dest := filepath.Join(t.TempDir(), "i1.docx")

	require.True(t, c.DownloadFile(context.Background(), "i1", dest))

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "item body", string(data))
}

func TestConnector_DownloadFile_MissingFile(t *testing.T) {
	c := newTestConnector(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	dest := filepath.Join(t.TempDir(), "missing.txt")

	assert.False(t, c.DownloadFile(context.Background(), "nope", dest))

	_, err := os.Stat(dest)
	assert.True(t, os.IsNotExist(err))
}

func TestConnector_Authenticate(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/me/drive", func(w http.ResponseWriter, _ *http.Request) {
		serveJSON(t, w, map[string]any{"id": "drive-1"})
	})

	c := newTestConnector(t, mux)
	assert.True(t, c.Authenticate(context.Background()))
}

func TestConnector_Authenticate_Rejected(t *testing.T) {
	c := newTestConnector(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))

	assert.False(t, c.Authenticate(context.Background()))
}

func TestConnector_Authenticate_NoCredentials(t *testing.T) {
	c := New(domain.ConnectorConfig{ID: "od-2", Provider: domain.ProviderOneDrive})

	assert.False(t, c.Authenticate(context.Background()))
}

func TestConnector_GetFileMetadata(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/me/drive/items/i9", func(w http.ResponseWriter, _ *http.Request) {
		serveJSON(t, w, map[string]any{
			"id": "i9", "name": "spec.pdf", "size": 512,
			"lastModifiedDateTime": "2026-02-01T00:00:00Z",
			"file": map[string]any{
				"mimeType": "application/pdf",
				"hashes":   map[string]any{"sha1Hash": "FEEDFACE"},
			},
		})
	})

	c := newTestConnector(t, mux)

	meta, err := c.GetFileMetadata(context.Background(), "i9")
	require.NoError(t, err)
	assert.Equal(t, "spec.pdf", meta.Name)
	assert.Equal(t, "FEEDFACE", meta.ContentHash)
	assert.Equal(t, "application/pdf", meta.MIMEType)
}

func TestConnector_GetFileMetadata_QuickXorHashFallback(t *testing.T) {
	// Business and SharePoint drives omit sha1Hash entirely.
	mux := http.NewServeMux()
	mux.HandleFunc("/me/drive/items/i9", func(w http.ResponseWriter, _ *http.Request) {
		serveJSON(t, w, map[string]any{
			"id": "i9", "name": "spec.pdf", "size": 512,
			"lastModifiedDateTime": "2026-02-01T00:00:00Z",
			"file": map[string]any{
				"mimeType": "application/pdf",
				"hashes":   map[string]any{"quickXorHash": "qx0rCafe="},
			},
		})
	})

	c := newTestConnector(t, mux)

	meta, err := c.GetFileMetadata(context.Background(), "i9")
	require.NoError(t, err)
	assert.Equal(t, "qx0rCafe=", meta.ContentHash)
}

func TestConnector_WatchFolder(t *testing.T) {
	var sub map[string]string
	mux := http.NewServeMux()
	mux.HandleFunc("/subscriptions", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&sub))
		w.WriteHeader(http.StatusCreated)
		serveJSON(t, w, map[string]any{"id": "sub-1"})
	})

	c := newTestConnector(t, mux)

	assert.True(t, c.WatchFolder(context.Background(), "folder-1", "https://example.com/hook"))
	assert.Equal(t, "updated", sub["changeType"])
	assert.Equal(t, "https://example.com/hook", sub["notificationUrl"])
	assert.Equal(t, "/me/drive/items/folder-1", sub["resource"])
	assert.NotEmpty(t, sub["expirationDateTime"])
}

func TestConnector_WatchFolder_Failure(t *testing.T) {
	c := newTestConnector(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))

	assert.False(t, c.WatchFolder(context.Background(), "", "https://example.com/hook"))
}

func TestNewBuilder(t *testing.T) {
	builder := NewBuilder()

	conn, err := builder(domain.ConnectorConfig{ID: "od-3", Provider: domain.ProviderOneDrive})
	require.NoError(t, err)
	assert.Equal(t, domain.ProviderOneDrive, conn.Provider())

	_, err = builder(domain.ConnectorConfig{Provider: domain.ProviderGoogleDrive})
	assert.ErrorIs(t, err, domain.ErrConnectorValidation)
}
