package wsstream

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpapenbr/racing-lottery-go/log"
	"github.com/mpapenbr/racing-lottery-go/pkg/utils/broadcast"
)

func TestHub(t *testing.T) {
	source := make(chan []byte)
	bcst := broadcast.New("ws-test", source)
	defer bcst.Close()

	srv := httptest.NewServer(New(bcst, WithLogger(log.New(io.Discard, log.InfoLevel))))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	defer conn.Close()

	// wait until the hub subscribed
	require.Eventually(t, func() bool { return bcst.Stats().Listeners == 1 },
		time.Second, 10*time.Millisecond)

	source <- []byte(`{"type":"race-start"}`)
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	mt, data, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, websocket.TextMessage, mt)
	assert.JSONEq(t, `{"type":"race-start"}`, string(data))

	// a closing client is removed from the broadcast server
	conn.Close()
	assert.Eventually(t, func() bool { return bcst.Stats().Listeners == 0 },
		2*time.Second, 10*time.Millisecond)
}
