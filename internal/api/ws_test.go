package api

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type wsReply struct {
	Outputs map[string]json.RawMessage `json:"outputs"`
	Error   string                     `json:"error"`
}

func TestWebSocket_Updates(t *testing.T) {
	srv := httptest.NewServer(newTestRouter(t, nil))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	require.NoError(t, conn.WriteJSON(map[string]interface{}{
		"inputs": map[string]interface{}{"food-country-dd": "Japan"},
	}))

	var reply wsReply
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Empty(t, reply.Error)
	assert.Contains(t, reply.Outputs, "food-pie")
	assert.Contains(t, reply.Outputs, "veg-v-animal")

	// errors are reported in-band and the socket stays open
	require.NoError(t, conn.WriteJSON(map[string]interface{}{
		"inputs": map[string]interface{}{"food-country-dd": "Nowhere"},
	}))
	reply = wsReply{}
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Contains(t, reply.Error, "unknown country")
	assert.Empty(t, reply.Outputs)

	require.NoError(t, conn.WriteJSON(map[string]interface{}{
		"inputs": map[string]interface{}{"x-axis": "Obesity"},
	}))
	reply = wsReply{}
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Contains(t, reply.Outputs, "custom-graph")
}
