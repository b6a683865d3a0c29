package crawler

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rickabrac/rickbot/output"
	"github.com/rickabrac/rickbot/urlutil"
)

func recFor(srv *httptest.Server, path string) urlutil.Record {
	return urlutil.Record{Scheme: "http", Host: srv.Listener.Addr().String(), Path: path}
}

func TestLoaderSuccessExtractsLinks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<a href="/about">About</a>`))
	}))
	defer srv.Close()

	var buf bytes.Buffer
	loader := NewLoader(noRedirectClient(), output.NewWriterSink(&buf), "example")
	out, err := loader.Load(t.Context(), recFor(srv, "/"))
	require.NoError(t, err)
	assert.True(t, out.Success)
	if assert.Len(t, out.Links, 1) {
		assert.Equal(t, "/about", out.Links[0].Path)
	}
}

func TestLoaderHTTPErrorLogged(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	var buf bytes.Buffer
	loader := NewLoader(noRedirectClient(), output.NewWriterSink(&buf), "example")
	out, err := loader.Load(t.Context(), recFor(srv, "/"))
	require.NoError(t, err)
	assert.False(t, out.Success)
	assert.Equal(t, 500, out.StatusCode)
	assert.Contains(t, buf.String(), "ERROR 500")
}

func TestLoader101IsFatal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusSwitchingProtocols)
	}))
	defer srv.Close()

	var buf bytes.Buffer
	loader := NewLoader(noRedirectClient(), output.NewWriterSink(&buf), "example")
	_, err := loader.Load(t.Context(), recFor(srv, "/"))
	assert.ErrorIs(t, err, ErrSwitchingProtocols)
}

func TestLoaderSkipsIgnoredExtension(t *testing.T) {
	var buf bytes.Buffer
	loader := NewLoader(noRedirectClient(), output.NewWriterSink(&buf), "example")
	out, err := loader.Load(t.Context(), urlutil.Record{Scheme: "http", Host: "example.com", Path: "/file.zip"})
	require.NoError(t, err)
	assert.True(t, out.Skipped)
	assert.Empty(t, buf.String())
}

func TestLoaderSkipsNonTextContentType(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write([]byte{0x00, 0x01})
	}))
	defer srv.Close()

	var buf bytes.Buffer
	loader := NewLoader(noRedirectClient(), output.NewWriterSink(&buf), "example")
	out, err := loader.Load(t.Context(), recFor(srv, "/"))
	require.NoError(t, err)
	assert.True(t, out.Skipped)
}

func TestLoaderSkipsNonHTMLDoctype(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/xml")
		_, _ = w.Write([]byte(`<!DOCTYPE rss><rss></rss>`))
	}))
	defer srv.Close()

	var buf bytes.Buffer
	loader := NewLoader(noRedirectClient(), output.NewWriterSink(&buf), "example")
	out, err := loader.Load(t.Context(), recFor(srv, "/"))
	require.NoError(t, err)
	assert.True(t, out.Skipped)
	assert.False(t, out.Success)
}

func TestLoaderFollowsSingleRedirectHop(t *testing.T) {
	var final *httptest.Server
	final = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<a href="/landed">landed</a>`))
	}))
	defer final.Close()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "http://"+final.Listener.Addr().String()+"/target", http.StatusFound)
	}))
	defer srv.Close()

	var buf bytes.Buffer
	loader := NewLoader(noRedirectClient(), output.NewWriterSink(&buf), "")
	out, err := loader.Load(t.Context(), recFor(srv, "/"))
	require.NoError(t, err)
	assert.True(t, out.Success)
	assert.Len(t, out.Links, 1)
}

func TestLoaderDropsRedirectToForeignDomain(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "http://evil.example.org/elsewhere", http.StatusFound)
	}))
	defer srv.Close()

	var buf bytes.Buffer
	loader := NewLoader(noRedirectClient(), output.NewWriterSink(&buf), "example.com")
	out, err := loader.Load(t.Context(), recFor(srv, "/"))
	require.NoError(t, err)
	assert.True(t, out.Skipped)
}
