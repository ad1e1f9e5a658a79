package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/tworoomsboom/internal/api"
	"github.com/mcoot/tworoomsboom/internal/api/apierr"
	"github.com/mcoot/tworoomsboom/internal/api/response"
	"github.com/mcoot/tworoomsboom/internal/factory"
	"github.com/mcoot/tworoomsboom/internal/model"
	"github.com/mcoot/tworoomsboom/internal/services/view"
	"github.com/mcoot/tworoomsboom/internal/testutil"
)

// testServer creates a test server with all dependencies
type testServer struct {
	handler http.Handler
	app     *factory.TestApp
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	app := factory.NewTestApp()
	t.Cleanup(func() { _ = app.Close() })

	router := api.NewRouter(api.RouterConfig{
		Logger:            testutil.NopLogger(),
		Clock:             app.Clock,
		SeatService:       app.SeatService,
		SessionController: app.SessionController,
		ViewService:       app.ViewService,
		HubManager:        app.HubManager,
		PublicURL:         "https://tworooms.example",
	})

	return &testServer{handler: router, app: app}
}

func (ts *testServer) request(method, path string, body any, token string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		b, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(b)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out), rr.Body.String())
	return out
}

func errorCode(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[apierr.ErrorResponse](t, rr).Error.Code
}

func createSession(t *testing.T, ts *testServer, name string) response.SeatResponse {
	t.Helper()
	rr := ts.request(http.MethodPost, "/api/v1/sessions", map[string]string{"name": name}, "")
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	return decode[response.SeatResponse](t, rr)
}

func joinSession(t *testing.T, ts *testServer, pin, name string) response.SeatResponse {
	t.Helper()
	rr := ts.request(http.MethodPost, "/api/v1/sessions/"+pin+"/players", map[string]string{"name": name}, "")
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	return decode[response.SeatResponse](t, rr)
}

// seatedGame opens a session with three joiners. With every random draw at
// 0 the deal is joiner1 President (room 1), joiner3 Bomber (room 2).
func seatedGame(t *testing.T, ts *testServer) (pin string, seats map[string]string) {
	t.Helper()
	ts.app.MockRandom.QueueIntn(2345)

	creator := createSession(t, ts, "Alice")
	seats = map[string]string{"creator": creator.SeatToken}
	for _, name := range []string{"Bob", "Carol", "Dan"} {
		joined := joinSession(t, ts, creator.Session.PIN, name)
		seats[joined.PlayerKey] = joined.SeatToken
	}
	return creator.Session.PIN, seats
}

func TestHealthCheck(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/health", nil, "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "ok")
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
}

func TestCreateSession(t *testing.T) {
	ts := newTestServer(t)
	ts.app.MockRandom.QueueIntn(2345)

	resp := createSession(t, ts, "  Alice  ")

	assert.Equal(t, "12345", resp.Session.PIN)
	assert.Equal(t, "not_started", resp.Session.Status)
	assert.Equal(t, "creator", resp.PlayerKey)
	assert.NotEmpty(t, resp.SeatToken)
	require.Len(t, resp.Session.Players, 1)
	assert.Equal(t, "Alice", resp.Session.Players[0].Name)
	assert.Empty(t, resp.Session.Players[0].Team)
}

func TestCreateSessionWithoutBody(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodPost, "/api/v1/sessions", nil, "")
	assert.Equal(t, http.StatusCreated, rr.Code)
}

func TestCreateSessionMalformedBody(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions", bytes.NewBufferString("{not json"))
	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, apierr.CodeInvalidRequest, errorCode(t, rr))
}

func TestGetUnknownSession(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/sessions/54321", nil, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, apierr.CodeSessionNotFound, errorCode(t, rr))
}

func TestJoinInvalidPINCreatesNothing(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodPost, "/api/v1/sessions/00000/players", map[string]string{"name": "Bob"}, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, apierr.CodeSessionNotFound, errorCode(t, rr))

	exists, err := ts.app.Storage.SessionExists(t.Context(), "00000")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestJoinRequiresName(t *testing.T) {
	ts := newTestServer(t)
	created := createSession(t, ts, "Alice")

	rr := ts.request(http.MethodPost, "/api/v1/sessions/"+created.Session.PIN+"/players", map[string]string{"name": "  "}, "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestJoinMintsSequentialKeys(t *testing.T) {
	ts := newTestServer(t)
	created := createSession(t, ts, "Alice")

	first := joinSession(t, ts, created.Session.PIN, "Bob")
	second := joinSession(t, ts, created.Session.PIN, "Carol")

	assert.Equal(t, "joiner1", first.PlayerKey)
	assert.Equal(t, "joiner2", second.PlayerKey)
	require.Len(t, second.Session.Players, 3)
	assert.Equal(t, "creator", second.Session.Players[0].Key)
	assert.Equal(t, "joiner2", second.Session.Players[2].Key)
}

func TestSeatRequired(t *testing.T) {
	ts := newTestServer(t)
	created := createSession(t, ts, "Alice")

	rr := ts.request(http.MethodPost, "/api/v1/sessions/"+created.Session.PIN+"/assign", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, apierr.CodeUnauthorized, errorCode(t, rr))

	rr = ts.request(http.MethodPost, "/api/v1/sessions/"+created.Session.PIN+"/assign", nil, "garbage")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestSeatForAnotherSession(t *testing.T) {
	ts := newTestServer(t)
	ts.app.MockRandom.QueueIntn(1111, 2222)

	first := createSession(t, ts, "Alice")
	second := createSession(t, ts, "Zed")
	require.NotEqual(t, first.Session.PIN, second.Session.PIN)

	rr := ts.request(http.MethodPost, "/api/v1/sessions/"+second.Session.PIN+"/assign", nil, first.SeatToken)
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestExpiredSeat(t *testing.T) {
	ts := newTestServer(t)
	pin, seats := seatedGame(t, ts)

	ts.app.MockClock.Advance(2 * time.Hour)

	rr := ts.request(http.MethodPost, "/api/v1/sessions/"+pin+"/assign", nil, seats["creator"])
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestOnlyCreatorAssigns(t *testing.T) {
	ts := newTestServer(t)
	pin, seats := seatedGame(t, ts)

	rr := ts.request(http.MethodPost, "/api/v1/sessions/"+pin+"/assign", nil, seats["joiner1"])
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, apierr.CodeNotCreator, errorCode(t, rr))
}

func TestAssignNeedsTwoPlayers(t *testing.T) {
	ts := newTestServer(t)
	created := createSession(t, ts, "Alice")

	rr := ts.request(http.MethodPost, "/api/v1/sessions/"+created.Session.PIN+"/assign", nil, created.SeatToken)
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, apierr.CodeInsufficientPlayers, errorCode(t, rr))

	rr = ts.request(http.MethodGet, "/api/v1/sessions/"+created.Session.PIN, nil, "")
	assert.Equal(t, "not_started", decode[response.Session](t, rr).Status)
}

func TestJoinAfterStartRejected(t *testing.T) {
	ts := newTestServer(t)
	pin, seats := seatedGame(t, ts)

	rr := ts.request(http.MethodPost, "/api/v1/sessions/"+pin+"/assign", nil, seats["creator"])
	require.Equal(t, http.StatusOK, rr.Code)

	rr = ts.request(http.MethodPost, "/api/v1/sessions/"+pin+"/players", map[string]string{"name": "Late"}, "")
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, apierr.CodeGameInProgress, errorCode(t, rr))
}

func TestRenameOnlySelf(t *testing.T) {
	ts := newTestServer(t)
	pin, seats := seatedGame(t, ts)

	rr := ts.request(http.MethodPatch, "/api/v1/sessions/"+pin+"/players/joiner2/name", map[string]string{"name": "Eve"}, seats["joiner1"])
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = ts.request(http.MethodPatch, "/api/v1/sessions/"+pin+"/players/joiner1/name", map[string]string{"name": "Robert"}, seats["joiner1"])
	require.Equal(t, http.StatusOK, rr.Code)
	sess := decode[response.Session](t, rr)
	assert.Equal(t, "Robert", sess.Players[1].Name)
}

func TestAdvanceWithStaleExpectation(t *testing.T) {
	ts := newTestServer(t)
	pin, seats := seatedGame(t, ts)

	rr := ts.request(http.MethodPost, "/api/v1/sessions/"+pin+"/assign", nil, seats["creator"])
	require.Equal(t, http.StatusOK, rr.Code)

	rr = ts.request(http.MethodPost, "/api/v1/sessions/"+pin+"/advance", map[string]string{"expected": "round2"}, seats["creator"])
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, apierr.CodeInvalidTransition, errorCode(t, rr))

	rr = ts.request(http.MethodPost, "/api/v1/sessions/"+pin+"/advance", map[string]string{"expected": "bogus"}, seats["creator"])
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = ts.request(http.MethodPost, "/api/v1/sessions/"+pin+"/advance", map[string]string{"expected": "preparation"}, seats["creator"])
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "round1", decode[response.Session](t, rr).Status)
}

func TestAdvanceFromLobbyRejected(t *testing.T) {
	ts := newTestServer(t)
	pin, seats := seatedGame(t, ts)

	rr := ts.request(http.MethodPost, "/api/v1/sessions/"+pin+"/advance", nil, seats["creator"])
	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestExchangeErrors(t *testing.T) {
	ts := newTestServer(t)
	pin, seats := seatedGame(t, ts)

	rr := ts.request(http.MethodPost, "/api/v1/sessions/"+pin+"/assign", nil, seats["creator"])
	require.Equal(t, http.StatusOK, rr.Code)

	rr = ts.request(http.MethodPost, "/api/v1/sessions/"+pin+"/exchange", map[string]any{"round": 7, "traded": true}, seats["joiner1"])
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, apierr.CodeInvalidRound, errorCode(t, rr))

	rr = ts.request(http.MethodPost, "/api/v1/sessions/"+pin+"/exchange", map[string]any{"round": 1, "traded": true}, seats["joiner1"])
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, apierr.CodeWrongPhase, errorCode(t, rr))
}

func TestResultBeforeResults(t *testing.T) {
	ts := newTestServer(t)
	pin, _ := seatedGame(t, ts)

	rr := ts.request(http.MethodGet, "/api/v1/sessions/"+pin+"/result", nil, "")
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, apierr.CodeWrongPhase, errorCode(t, rr))
}

func TestFullGameFlow(t *testing.T) {
	ts := newTestServer(t)
	pin, seats := seatedGame(t, ts)
	base := "/api/v1/sessions/" + pin

	rr := ts.request(http.MethodPost, base+"/assign", nil, seats["creator"])
	require.Equal(t, http.StatusOK, rr.Code)
	sess := decode[response.Session](t, rr)
	assert.Equal(t, "preparation", sess.Status)
	for _, p := range sess.Players {
		assert.NotEmpty(t, p.Team, p.Key)
		assert.Len(t, p.Rooms, 4)
	}

	// Reshuffle keeps the session in preparation
	rr = ts.request(http.MethodPost, base+"/reshuffle", nil, seats["creator"])
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "preparation", decode[response.Session](t, rr).Status)

	rr = ts.request(http.MethodPost, base+"/advance", nil, seats["creator"])
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "round1", decode[response.Session](t, rr).Status)

	// The President trades into room 2 after round 1
	ts.app.MockClock.Advance(time.Minute)
	rr = ts.request(http.MethodPost, base+"/exchange", map[string]any{"round": 1, "traded": true}, seats["joiner1"])
	require.Equal(t, http.StatusOK, rr.Code)
	sess = decode[response.Session](t, rr)
	assert.Equal(t, []int{1, 2, 2, 2}, sess.Players[1].Rooms)

	for _, want := range []string{"round2", "round3", "results"} {
		rr = ts.request(http.MethodPost, base+"/advance", nil, seats["creator"])
		require.Equal(t, http.StatusOK, rr.Code)
		require.Equal(t, want, decode[response.Session](t, rr).Status)
	}

	rr = ts.request(http.MethodGet, base+"/result", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	result := decode[response.Result](t, rr)
	assert.Equal(t, model.TeamRed, result.Result.Winner)
	assert.Equal(t, model.PlayerKey("joiner1"), result.Result.PresidentKey)
	assert.Equal(t, model.PlayerKey("joiner3"), result.Result.BomberKey)
	assert.Equal(t, []model.PlayerKey{"creator", "joiner1", "joiner3"}, result.Result.Checkpoints[3].Room2)

	// Advancing past results is the creator's end action
	rr = ts.request(http.MethodPost, base+"/advance", nil, seats["creator"])
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = ts.request(http.MethodDelete, base, nil, seats["joiner1"])
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = ts.request(http.MethodDelete, base, nil, seats["creator"])
	require.Equal(t, http.StatusNoContent, rr.Code)

	rr = ts.request(http.MethodGet, base, nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "finished", decode[response.Session](t, rr).Status)

	rr = ts.request(http.MethodPost, base+"/exchange", map[string]any{"round": 3, "traded": true}, seats["joiner2"])
	assert.Equal(t, http.StatusGone, rr.Code)
	assert.Equal(t, apierr.CodeSessionFinished, errorCode(t, rr))

	rr = ts.request(http.MethodGet, "/api/v1/history", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	history := decode[response.History](t, rr)
	require.Len(t, history.Games, 1)
	assert.Equal(t, pin, history.Games[0].PIN)
	assert.Equal(t, "Red", history.Games[0].Winner)
	assert.Equal(t, 4, history.Games[0].PlayerCount)
}

func TestHistoryLimitValidation(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/history?limit=0", nil, "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = ts.request(http.MethodGet, "/api/v1/history?limit=5", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, decode[response.History](t, rr).Games)
}

func TestPlayerView(t *testing.T) {
	ts := newTestServer(t)
	pin, seats := seatedGame(t, ts)
	base := "/api/v1/sessions/" + pin

	rr := ts.request(http.MethodGet, base+"/players/joiner1/view", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	v := decode[view.View](t, rr)
	assert.Equal(t, view.KindPhase, v.Kind)
	assert.Len(t, v.Roster, 4)
	assert.False(t, v.CanStart)

	rr = ts.request(http.MethodGet, base+"/players/creator/view", nil, seats["creator"])
	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, decode[view.View](t, rr).CanStart)

	// A seat for someone else cannot read this card
	rr = ts.request(http.MethodGet, base+"/players/joiner2/view", nil, seats["joiner1"])
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = ts.request(http.MethodPost, base+"/assign", nil, seats["creator"])
	require.Equal(t, http.StatusOK, rr.Code)
	rr = ts.request(http.MethodPost, base+"/advance", nil, seats["creator"])
	require.Equal(t, http.StatusOK, rr.Code)

	rr = ts.request(http.MethodGet, base+"/players/joiner1/view?phase=round2", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, view.KindWaiting, decode[view.View](t, rr).Kind)

	rr = ts.request(http.MethodGet, base+"/players/joiner1/view?phase=round1", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	v = decode[view.View](t, rr)
	assert.Equal(t, view.KindPhase, v.Kind)
	assert.Equal(t, 1, v.Round)
	assert.Equal(t, view.SubPhaseCountdown, v.SubPhase)
	assert.Equal(t, 60, v.RemainingSeconds)
	assert.Equal(t, model.RolePresident, v.Card.Role)

	rr = ts.request(http.MethodGet, base+"/players/joiner9/view", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, view.KindNotFound, decode[view.View](t, rr).Kind)

	rr = ts.request(http.MethodGet, base+"/players/joiner1/view?phase=round9", nil, "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestQRCode(t *testing.T) {
	ts := newTestServer(t)
	created := createSession(t, ts, "Alice")

	rr := ts.request(http.MethodGet, "/api/v1/sessions/"+created.Session.PIN+"/qr", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "image/png", rr.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rr.Body.Bytes(), []byte("\x89PNG")))

	rr = ts.request(http.MethodGet, "/api/v1/sessions/99999/qr", nil, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestEventsUnknownSession(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/sessions/99999/events", nil, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestEventsStreamSnapshots(t *testing.T) {
	ts := newTestServer(t)
	created := createSession(t, ts, "Alice")

	srv := httptest.NewServer(ts.handler)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/v1/sessions/" + created.Session.PIN + "/events?player=creator")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	buf := make([]byte, 4096)
	var got []byte
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && !bytes.Contains(got, []byte("event: snapshot")) {
		n, err := resp.Body.Read(buf)
		got = append(got, buf[:n]...)
		if err != nil {
			break
		}
	}
	assert.Contains(t, string(got), "event: connected")
	assert.Contains(t, string(got), "event: snapshot")
	assert.Contains(t, string(got), `"pin":"`+created.Session.PIN+`"`)
}
