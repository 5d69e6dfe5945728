package extractor

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raymondclowe/RememBot/internal/storage"
	"github.com/raymondclowe/RememBot/pkg/types"
)

func textItem(share string) *storage.ContentItem {
	return &storage.ContentItem{
		OriginalShare: share,
		ContentType:   types.ContentText,
	}
}

func urlItem(url string) *storage.ContentItem {
	return &storage.ContentItem{
		OriginalShare: url,
		ContentType:   types.ContentURL,
	}
}

func TestExtract_Text(t *testing.T) {
	p := New(nil, nil)

	outcome := p.Extract(context.Background(), textItem("  remember to buy milk  "))
	require.False(t, outcome.Failed())
	assert.Equal(t, "remember to buy milk", outcome.ExtractedInfo)

	meta, err := types.DecodeMetadata(outcome.Metadata)
	require.NoError(t, err)
	assert.Equal(t, len("remember to buy milk"), meta.ContentLength)
}

func TestExtract_URL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(`<html>
			<head><title>Go Concurrency Patterns</title><script>evil()</script></head>
			<body>
				<nav>Home | About</nav>
				<p>Channels orchestrate; mutexes serialize.</p>
				<style>p { color: red }</style>
			</body>
		</html>`))
	}))
	defer server.Close()

	p := New(server.Client(), nil)
	outcome := p.Extract(context.Background(), urlItem(server.URL))
	require.False(t, outcome.Failed())

	assert.True(t, strings.HasPrefix(outcome.ExtractedInfo, "Go Concurrency Patterns\n\n"))
	assert.Contains(t, outcome.ExtractedInfo, "Channels orchestrate")
	assert.NotContains(t, outcome.ExtractedInfo, "evil()")
	assert.NotContains(t, outcome.ExtractedInfo, "color: red")
	assert.NotContains(t, outcome.ExtractedInfo, "Home | About")

	meta, err := types.DecodeMetadata(outcome.Metadata)
	require.NoError(t, err)
	assert.Equal(t, "Go Concurrency Patterns", meta.Title)
	assert.Equal(t, server.URL, meta.URL)
	assert.Greater(t, meta.ContentLength, 0)
}

func TestExtract_URLPlainText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("just\nplain\ntext"))
	}))
	defer server.Close()

	p := New(server.Client(), nil)
	outcome := p.Extract(context.Background(), urlItem(server.URL))
	require.False(t, outcome.Failed())
	assert.Equal(t, "just plain text", outcome.ExtractedInfo)
}

func TestExtract_URLErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/missing":
			http.NotFound(w, r)
		case "/binary":
			w.Header().Set("Content-Type", "application/octet-stream")
			_, _ = w.Write([]byte{0x00, 0x01})
		}
	}))
	defer server.Close()

	p := New(server.Client(), nil)

	outcome := p.Extract(context.Background(), urlItem(server.URL+"/missing"))
	require.True(t, outcome.Failed())
	assert.Contains(t, outcome.Err.Error(), "404")

	outcome = p.Extract(context.Background(), urlItem(server.URL+"/binary"))
	require.True(t, outcome.Failed())
	assert.Contains(t, outcome.Err.Error(), "unsupported content type")

	outcome = p.Extract(context.Background(), urlItem("http://127.0.0.1:1/unreachable"))
	assert.True(t, outcome.Failed())
}

func TestExtract_URLEmptyBodyFallsBackToURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html><body><script>only()</script></body></html>"))
	}))
	defer server.Close()

	p := New(server.Client(), nil)
	outcome := p.Extract(context.Background(), urlItem(server.URL))
	require.False(t, outcome.Failed())
	assert.Equal(t, "URL: "+server.URL, outcome.ExtractedInfo)
}

func TestExtract_URLCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := New(server.Client(), nil)
	outcome := p.Extract(ctx, urlItem(server.URL))
	assert.True(t, outcome.Failed())
}

func TestExtract_ImagePlaceholder(t *testing.T) {
	p := New(nil, nil)

	item := &storage.ContentItem{
		OriginalShare: "vacation.jpg",
		ContentType:   types.ContentImage,
	}
	outcome := p.Extract(context.Background(), item)
	require.False(t, outcome.Failed())
	assert.Equal(t, "vacation.jpg", outcome.ExtractedInfo)

	meta, err := types.DecodeMetadata(outcome.Metadata)
	require.NoError(t, err)
	assert.Contains(t, meta.Note, "not available")
}

func TestExtract_DocumentKeepsCaption(t *testing.T) {
	p := New(nil, nil)

	meta, err := (&types.MetadataView{Note: "quarterly report"}).Encode()
	require.NoError(t, err)

	item := &storage.ContentItem{
		OriginalShare: "report.pdf",
		Metadata:      meta,
		ContentType:   types.ContentDocument,
	}
	outcome := p.Extract(context.Background(), item)
	require.False(t, outcome.Failed())
	assert.Equal(t, "report.pdf quarterly report", outcome.ExtractedInfo)
}

func TestExtract_UnknownType(t *testing.T) {
	p := New(nil, nil)

	item := &storage.ContentItem{
		OriginalShare: "x",
		ContentType:   types.ContentType("video"),
	}
	outcome := p.Extract(context.Background(), item)
	assert.True(t, outcome.Failed())
}

func TestTruncateRunes_NeverSplitsARune(t *testing.T) {
	// The cut point lands mid-rune unless the truncation backs up
	s := "ab" + strings.Repeat("日", 50_000)

	got := truncateRunes(s, maxExtractChars)
	assert.LessOrEqual(t, len(got), maxExtractChars)
	assert.Less(t, len(got), len(s))
	assert.True(t, utf8.ValidString(got))

	assert.Equal(t, "short", truncateRunes("short", maxExtractChars))
}
