package web_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/tworoomsboom/internal/factory"
	"github.com/mcoot/tworoomsboom/internal/testutil"
	"github.com/mcoot/tworoomsboom/internal/web"
)

// webTestServer provides a test server for web interface testing
type webTestServer struct {
	t       *testing.T
	handler http.Handler
	app     *factory.TestApp
}

// newWebTestServer creates a new test server with all dependencies wired
func newWebTestServer(t *testing.T) *webTestServer {
	t.Helper()

	app := factory.NewTestApp()
	t.Cleanup(func() { _ = app.Close() })

	r := mux.NewRouter()
	web.Mount(r, web.RouterConfig{
		Logger:            testutil.NopLogger(),
		Clock:             app.Clock,
		SeatService:       app.SeatService,
		SessionController: app.SessionController,
		ViewService:       app.ViewService,
	})

	return &webTestServer{
		t:       t,
		handler: r,
		app:     app,
	}
}

// browser is one player's device, with its own cookies
type browser struct {
	ts      *webTestServer
	cookies *cookieJar
}

func (ts *webTestServer) browser() *browser {
	return &browser{ts: ts, cookies: newCookieJar()}
}

// request makes an HTTP request and returns the response
func (b *browser) request(method, path string, form url.Values) *httptest.ResponseRecorder {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req := httptest.NewRequest(method, path, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	b.cookies.addTo(req)

	rr := httptest.NewRecorder()
	b.ts.handler.ServeHTTP(rr, req)

	b.cookies.extract(rr)

	return rr
}

// get makes a GET request
func (b *browser) get(path string) *httptest.ResponseRecorder {
	return b.request(http.MethodGet, path, nil)
}

// post makes a POST request with form data
func (b *browser) post(path string, form url.Values) *httptest.ResponseRecorder {
	if form == nil {
		form = url.Values{}
	}
	return b.request(http.MethodPost, path, form)
}

// postRedirect posts a form and returns the redirect target
func (b *browser) postRedirect(path string, form url.Values) string {
	b.ts.t.Helper()
	rr := b.post(path, form)
	require.Equal(b.ts.t, http.StatusSeeOther, rr.Code, rr.Body.String())
	return rr.Header().Get("Location")
}

// page follows redirects until an HTML page renders
func (b *browser) page(path string) (*goquery.Document, string) {
	b.ts.t.Helper()
	for i := 0; i < 5; i++ {
		rr := b.get(path)
		if rr.Code == http.StatusSeeOther {
			path = rr.Header().Get("Location")
			continue
		}
		require.Equal(b.ts.t, http.StatusOK, rr.Code, rr.Body.String())
		return parseHTML(rr.Body), path
	}
	b.ts.t.Fatalf("too many redirects ending at %s", path)
	return nil, ""
}

// parseHTML parses the response body as HTML
func parseHTML(r io.Reader) *goquery.Document {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		panic(err)
	}
	return doc
}

// cookieJar maintains cookies across requests (like a browser would)
type cookieJar struct {
	cookies map[string]*http.Cookie
}

func newCookieJar() *cookieJar {
	return &cookieJar{
		cookies: make(map[string]*http.Cookie),
	}
}

// addTo adds all cookies to the request
func (j *cookieJar) addTo(req *http.Request) {
	for _, cookie := range j.cookies {
		req.AddCookie(cookie)
	}
}

// extract extracts Set-Cookie headers from response
func (j *cookieJar) extract(rr *httptest.ResponseRecorder) {
	for _, cookie := range rr.Result().Cookies() {
		if cookie.MaxAge < 0 {
			delete(j.cookies, cookie.Name)
		} else {
			j.cookies[cookie.Name] = cookie
		}
	}
}

func (j *cookieJar) hasSeat() bool {
	_, ok := j.cookies["seat"]
	return ok
}

// Helper functions for common test operations

// createGame creates a session as the creator and returns its PIN
func (b *browser) createGame(name string) string {
	b.ts.t.Helper()
	location := b.postRedirect("/sessions", url.Values{"name": {name}})
	require.True(b.ts.t, b.cookies.hasSeat(), "Expected seat cookie to be set")
	require.True(b.ts.t, strings.HasPrefix(location, "/sessions/"), location)
	require.Contains(b.ts.t, location, "/not_started?player=creator")
	return strings.Split(location, "/")[2]
}

// joinGame joins a session and returns the redirect target
func (b *browser) joinGame(pin, name string) string {
	b.ts.t.Helper()
	location := b.postRedirect("/sessions/join", url.Values{"pin": {pin}, "name": {name}})
	require.True(b.ts.t, b.cookies.hasSeat(), "Expected seat cookie to be set")
	return location
}

// fourPlayers seats a creator and three joiners in session 12345
func (ts *webTestServer) fourPlayers() (pin string, creator *browser, joiners []*browser) {
	ts.t.Helper()
	ts.app.MockRandom.QueueIntn(2345)

	creator = ts.browser()
	pin = creator.createGame("Alice")
	for _, name := range []string{"Bob", "Carol", "Dan"} {
		j := ts.browser()
		j.joinGame(pin, name)
		joiners = append(joiners, j)
	}
	return pin, creator, joiners
}

// Assertion helpers

// assertContainsElement asserts that the document contains an element matching the selector
func assertContainsElement(t *testing.T, doc *goquery.Document, selector string) {
	t.Helper()
	if doc.Find(selector).Length() == 0 {
		t.Errorf("Expected to find element matching %q, but none found", selector)
	}
}

// assertNotContainsElement asserts that the document does not contain an element matching the selector
func assertNotContainsElement(t *testing.T, doc *goquery.Document, selector string) {
	t.Helper()
	if doc.Find(selector).Length() > 0 {
		t.Errorf("Expected NOT to find element matching %q, but found %d", selector, doc.Find(selector).Length())
	}
}

// assertContainsText asserts that the element matching the selector contains the text
func assertContainsText(t *testing.T, doc *goquery.Document, selector, text string) {
	t.Helper()
	el := doc.Find(selector)
	if el.Length() == 0 {
		t.Errorf("Expected to find element matching %q, but none found", selector)
		return
	}
	if !strings.Contains(el.Text(), text) {
		t.Errorf("Expected element %q to contain %q, but got %q", selector, text, el.Text())
	}
}
