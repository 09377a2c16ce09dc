package webapp

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/raykavin/pricelens/core"
)

func newTestWebSocketServer(t *testing.T) (*App, string) {
	t.Helper()

	app := newTestApp(t, &stubFeeder{candles: stubCandles()})
	server := NewStandardHTTPServer()
	app.RegisterHandlers(server)

	ts := httptest.NewServer(server.Handler())
	t.Cleanup(ts.Close)

	return app, "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
}

// dialChart connects a websocket client and drains everything the
// session pushes so server writes never block on the test client.
func dialChart(t *testing.T, url string) *websocket.Conn {
	t.Helper()

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)

	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	return conn
}

func waitForClients(t *testing.T, app *App, want int) {
	t.Helper()
	require.Eventually(t, func() bool {
		return app.sessions.ClientCount() == want
	}, 2*time.Second, 5*time.Millisecond)
}

func TestSessionManager_BroadcastOrderFollowsConnection(t *testing.T) {
	app, url := newTestWebSocketServer(t)

	first := dialChart(t, url)
	defer first.Close()
	waitForClients(t, app, 1)
	s1 := app.sessions.sessions()[0]

	second := dialChart(t, url)
	waitForClients(t, app, 2)

	third := dialChart(t, url)
	defer third.Close()
	waitForClients(t, app, 3)

	order := app.sessions.sessions()
	require.Len(t, order, 3)
	require.Same(t, s1, order[0])
	s2, s3 := order[1], order[2]

	require.NoError(t, second.Close())
	waitForClients(t, app, 2)

	order = app.sessions.sessions()
	require.Len(t, order, 2)
	require.Same(t, s1, order[0])
	require.Same(t, s3, order[1])
	require.NotContains(t, order, s2)
}

// Disconnecting while pointer events are still queued must tear the
// session down cleanly: overlay disposal runs on the session loop, so
// it cannot overlap a callback still executing there.
func TestChartSession_DisconnectWithEventsInFlight(t *testing.T) {
	app, url := newTestWebSocketServer(t)

	pointerMove := []byte(`{"type":"pointer","payload":{"kind":"move","x":100,"y":150,"primary":true}}`)
	base := time.Date(2023, 11, 20, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 20; i++ {
		conn := dialChart(t, url)
		waitForClients(t, app, 1)

		for j := 0; j < 50; j++ {
			require.NoError(t, conn.WriteMessage(websocket.TextMessage, pointerMove))
		}
		app.OnCandle(core.Candle{
			Symbol:   "BTCUSDT",
			Interval: "1d",
			Time:     base.Add(time.Duration(i) * 24 * time.Hour),
			Close:    42000 + float64(i),
		})

		require.NoError(t, conn.Close())
		waitForClients(t, app, 0)
	}
}
