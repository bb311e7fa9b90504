package liveserver

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"gridsheet/internal/position"
	"gridsheet/internal/sheet"
)

func mustPos(t *testing.T, label string) position.Position {
	t.Helper()
	p, err := position.Parse(label)
	require.NoError(t, err)
	return p
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(url, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestServerSendsSnapshotOnConnectAndUpdate(t *testing.T) {
	sh := sheet.New()
	require.NoError(t, sh.SetCell(mustPos(t, "A1"), "7"))

	srv := New(sh, zerolog.Nop())
	ts := httptest.NewServer(http.HandlerFunc(srv.ServeHTTP))
	defer ts.Close()

	conn := dial(t, ts.URL)
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	var initial UpdateResponse
	require.NoError(t, conn.ReadJSON(&initial))
	require.Equal(t, "snapshot", initial.Type)
	require.Equal(t, "7", initial.Values[0][0])

	require.NoError(t, conn.WriteJSON(UpdateRequest{Type: "set", Cell: "B1", Text: "=A1+1"}))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var updated UpdateResponse
	require.NoError(t, conn.ReadJSON(&updated))
	require.Equal(t, "snapshot", updated.Type)
	require.Equal(t, "8", updated.Values[0][1])
}

func TestServerRejectsInvalidCell(t *testing.T) {
	sh := sheet.New()
	srv := New(sh, zerolog.Nop())
	ts := httptest.NewServer(http.HandlerFunc(srv.ServeHTTP))
	defer ts.Close()

	conn := dial(t, ts.URL)
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	var initial UpdateResponse
	require.NoError(t, conn.ReadJSON(&initial))

	require.NoError(t, conn.WriteJSON(UpdateRequest{Type: "set", Cell: "not-a-cell", Text: "1"}))
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var errResp UpdateResponse
	require.NoError(t, conn.ReadJSON(&errResp))
	require.Equal(t, "error", errResp.Type)
}
