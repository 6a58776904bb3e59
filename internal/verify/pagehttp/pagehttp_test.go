package pagehttp

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const searchFormHTML = `<html><body>
<form id="search-form" action="/result" method="post">
  <input name="lastname" type="text">
  <input name="firstname" type="text">
  <button type="submit" class="search-btn">Найти</button>
</form>
</body></html>`

func newPortalServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /search", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, searchFormHTML)
	})
	mux.HandleFunc("POST /result", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		fmt.Fprintf(w, "<html><body>Результаты для %s %s</body></html>",
			r.PostFormValue("lastname"), r.PostFormValue("firstname"))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestFillAndSubmitPostsFormValues(t *testing.T) {
	srv := newPortalServer(t)
	ctx := context.Background()

	page, release, err := New().Acquire(ctx, srv.URL+"/search")
	require.NoError(t, err)
	defer release()

	require.NoError(t, page.WaitVisible(ctx, "#search-form"))
	require.NoError(t, page.Fill(ctx, "input[name=lastname]", "ИВАНОВ"))
	require.NoError(t, page.Fill(ctx, "input[name=firstname]", "ИВАН"))
	require.NoError(t, page.Click(ctx, "button[type=submit]"))

	html, err := page.Content(ctx)
	require.NoError(t, err)
	assert.Contains(t, html, "Результаты для ИВАНОВ ИВАН")
}

func TestUnmatchedSelectorFailsSoFallbacksAdvance(t *testing.T) {
	srv := newPortalServer(t)
	ctx := context.Background()

	page, release, err := New().Acquire(ctx, srv.URL+"/search")
	require.NoError(t, err)
	defer release()

	assert.Error(t, page.Fill(ctx, "input[name=nosuchfield]", "x"))
	assert.Error(t, page.WaitVisible(ctx, "#legacy-form"))
	assert.False(t, page.Exists(ctx, "img.captcha"))
	assert.True(t, page.Exists(ctx, "#search-form"))
}

func TestRunScriptSubmitFallback(t *testing.T) {
	srv := newPortalServer(t)
	ctx := context.Background()

	page, release, err := New().Acquire(ctx, srv.URL+"/search")
	require.NoError(t, err)
	defer release()

	require.NoError(t, page.Fill(ctx, "input[name=lastname]", "ПЕТРОВ"))
	require.NoError(t, page.RunScript(ctx, "document.forms[0] && document.forms[0].submit()"))

	html, err := page.Content(ctx)
	require.NoError(t, err)
	assert.Contains(t, html, "ПЕТРОВ")
}

func TestCaptureElementUnsupported(t *testing.T) {
	srv := newPortalServer(t)
	ctx := context.Background()

	page, release, err := New().Acquire(ctx, srv.URL+"/search")
	require.NoError(t, err)
	defer release()

	_, err = page.CaptureElement(ctx, "img.captcha")
	assert.Error(t, err)
}

func TestAcquireServerErrorFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	_, _, err := New().Acquire(context.Background(), srv.URL)
	assert.Error(t, err)
}
