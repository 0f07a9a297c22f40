package fetcher

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestNeedsRendering(t *testing.T) {
	long := strings.Repeat("<p>Handmade furniture from sustainable walnut and oak.</p>", 20)

	cases := []struct {
		name   string
		html   string
		needed bool
	}{
		{"tiny body", "<html></html>", true},
		{"empty framework shell", `<html><body><div id="__next"></div>` + strings.Repeat(" ", 600) + `</body></html>`, true},
		{"javascript required notice", `<html><body>` + long + `<p>Please enable JavaScript to continue.</p></body></html>`, true},
		{"commerce page without product markup", `<html><body><button>Add to cart</button><span>price</span>` + strings.Repeat("x", 500) + `</body></html>`, true},
		{"commerce page with product markup", `<html><body><button>Add to cart</button><script type="application/ld+json">{"@type": "Product"}</script>` + strings.Repeat("x", 500) + `</body></html>`, false},
		{"plain content page", `<html><body>` + long + `</body></html>`, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.needed, NeedsRendering(tc.html).Needed)
		})
	}
}

func TestVisibleTextStripsScripts(t *testing.T) {
	html := `<html><body><script>var x = 1;</script><style>p{}</style><p>Hello   world</p></body></html>`
	assert.Equal(t, "Hello world", VisibleText(html))
}

type stubRenderer struct {
	page  *Page
	err   error
	calls int
}

func (r *stubRenderer) Render(ctx context.Context, target *url.URL) (*Page, error) {
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	return r.page, nil
}

func newSmartTestClient(t *testing.T, handler http.HandlerFunc, renderer Renderer) (*SmartClient, *url.URL) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(Options{Timeout: 2 * time.Second})
	require.NoError(t, err)
	target, err := url.Parse(server.URL + "/")
	require.NoError(t, err)
	return NewSmartClient(client, renderer, testLogger), target
}

func TestSmartFetchKeepsStaticHTML(t *testing.T) {
	body := `<html><body>` + strings.Repeat("<p>Plenty of static storefront content here.</p>", 20) + `</body></html>`
	renderer := &stubRenderer{}
	smart, target := newSmartTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(body))
	}, renderer)

	result, err := smart.Fetch(context.Background(), target)
	require.NoError(t, err)
	assert.False(t, result.UsedRenderer)
	assert.Zero(t, renderer.calls)
	assert.Contains(t, result.Page.HTML(), "storefront")
}

func TestSmartFetchEscalatesForEmptyShell(t *testing.T) {
	rendered := &Page{Body: []byte("<html><body><h1>Rendered</h1></body></html>"), StatusCode: 200}
	renderer := &stubRenderer{page: rendered}
	smart, target := newSmartTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body><div id="root"></div>` + strings.Repeat(" ", 600) + `</body></html>`))
	}, renderer)

	result, err := smart.Fetch(context.Background(), target)
	require.NoError(t, err)
	assert.True(t, result.UsedRenderer)
	assert.Equal(t, 1, renderer.calls)
	assert.NotEmpty(t, result.RenderReason)
	assert.Contains(t, result.Page.HTML(), "Rendered")
}

func TestSmartFetchKeepsStaticWhenRendererFails(t *testing.T) {
	renderer := &stubRenderer{err: errors.New("browser crashed")}
	smart, target := newSmartTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html></html>"))
	}, renderer)

	result, err := smart.Fetch(context.Background(), target)
	require.NoError(t, err)
	assert.False(t, result.UsedRenderer)
	assert.Equal(t, "<html></html>", result.Page.HTML())
}

func TestSmartFetchWithoutRendererPassesErrorThrough(t *testing.T) {
	client, err := NewClient(Options{Timeout: time.Second})
	require.NoError(t, err)
	smart := NewSmartClient(client, nil, testLogger)

	target, err := url.Parse("http://127.0.0.1:1/")
	require.NoError(t, err)
	_, err = smart.Fetch(context.Background(), target)
	assert.Error(t, err)
}
