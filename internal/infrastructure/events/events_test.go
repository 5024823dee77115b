package events

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"net/http/httptest"
	"price-chain-service/internal/application/dto"
	"price-chain-service/internal/domain/entities"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEvent(variant entities.Variant, pair entities.PairKey, seq uint64) *entities.AuditEvent {
	return &entities.AuditEvent{
		Variant:   variant,
		Pair:      pair,
		Source:    common.HexToAddress("0x01"),
		Sequence:  seq,
		Price:     big.NewInt(1500),
		Timestamp: 1700000000,
		ChainHash: common.HexToHash("0xabc"),
	}
}

func dialHub(t *testing.T, hub *Hub) *websocket.Conn {
	t.Helper()
	server := httptest.NewServer(hub)
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 10*time.Millisecond)
	return conn
}

func readJSON(t *testing.T, conn *websocket.Conn, v interface{}) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(v))
}

func TestHub_StreamsEvents(t *testing.T) {
	hub := NewHub(dto.NewRecordMapper(nil), HubConfig{})
	defer hub.Close()
	conn := dialHub(t, hub)

	require.NoError(t, hub.Publish(context.Background(), testEvent(entities.VariantDiscreteFeed, "ETH/USD", 1)))

	var msg EventMessage
	readJSON(t, conn, &msg)
	assert.Equal(t, "audit_event", msg.Type)
	assert.Equal(t, "ETH/USD", msg.Event.Pair)
	assert.Equal(t, uint64(1), msg.Event.Sequence)
	assert.Equal(t, "1500", msg.Event.Price)
}

func TestHub_SubscriptionFilters(t *testing.T) {
	hub := NewHub(dto.NewRecordMapper(nil), HubConfig{})
	defer hub.Close()
	conn := dialHub(t, hub)

	require.NoError(t, conn.WriteJSON(ClientMessage{Type: "subscribe", Variants: []string{"twap"}, Pairs: []string{"BTC/USD"}}))
	var ack map[string]string
	readJSON(t, conn, &ack)
	assert.Equal(t, "subscribed", ack["type"])

	ctx := context.Background()
	require.NoError(t, hub.Publish(ctx, testEvent(entities.VariantDiscreteFeed, "BTC/USD", 1)))
	require.NoError(t, hub.Publish(ctx, testEvent(entities.VariantCumulativeTick, "ETH/USD", 1)))
	require.NoError(t, hub.Publish(ctx, testEvent(entities.VariantCumulativeTick, "BTC/USD", 9)))

	var msg EventMessage
	readJSON(t, conn, &msg)
	assert.Equal(t, "twap", msg.Event.Variant)
	assert.Equal(t, "BTC/USD", msg.Event.Pair)
	assert.Equal(t, uint64(9), msg.Event.Sequence)

	require.NoError(t, conn.WriteJSON(ClientMessage{Type: "unsubscribe", Pairs: []string{"BTC/USD"}}))
	readJSON(t, conn, &ack)
	assert.Equal(t, "unsubscribed", ack["type"])

	require.NoError(t, hub.Publish(ctx, testEvent(entities.VariantCumulativeTick, "BTC/USD", 10)))
	require.NoError(t, hub.Publish(ctx, testEvent(entities.VariantCumulativeTick, "ETH/USD", 2)))

	require.NoError(t, conn.WriteJSON(ClientMessage{Type: "ping"}))
	var next map[string]interface{}
	readJSON(t, conn, &next)
	assert.Equal(t, "pong", next["type"], "no events after the last pair was unsubscribed")
}

func TestHub_Ping(t *testing.T) {
	hub := NewHub(dto.NewRecordMapper(nil), HubConfig{})
	defer hub.Close()
	conn := dialHub(t, hub)

	require.NoError(t, conn.WriteJSON(ClientMessage{Type: "ping"}))
	var pong map[string]string
	readJSON(t, conn, &pong)
	assert.Equal(t, "pong", pong["type"])
}

func TestHub_CloseDisconnectsClients(t *testing.T) {
	hub := NewHub(dto.NewRecordMapper(nil), HubConfig{})
	conn := dialHub(t, hub)

	hub.Close()
	assert.Equal(t, 0, hub.Clients())

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
}

func TestClient_Wants(t *testing.T) {
	c := &client{variants: map[entities.Variant]bool{}, pairs: map[entities.PairKey]bool{}}
	assert.True(t, c.wants(entities.VariantDiscreteFeed, "ETH/USD"))

	c.setFilters([]string{"feed", "bogus"}, nil, true)
	assert.True(t, c.wants(entities.VariantDiscreteFeed, "ETH/USD"))
	assert.False(t, c.wants(entities.VariantCumulativeTick, "ETH/USD"))

	c.setFilters(nil, []string{"ETH/USD"}, true)
	assert.False(t, c.wants(entities.VariantDiscreteFeed, "BTC/USD"))

	c.setFilters(nil, nil, false)
	assert.True(t, c.wants(entities.VariantCumulativeTick, "BTC/USD"))
}

func TestClient_UnsubscribingLastEntryKeepsFilter(t *testing.T) {
	c := &client{variants: map[entities.Variant]bool{}, pairs: map[entities.PairKey]bool{}}

	c.setFilters(nil, []string{"ETH/USD"}, true)
	c.setFilters(nil, []string{"ETH/USD"}, false)
	assert.False(t, c.wants(entities.VariantDiscreteFeed, "ETH/USD"))
	assert.False(t, c.wants(entities.VariantDiscreteFeed, "BTC/USD"))

	c.setFilters([]string{"twap"}, nil, true)
	c.setFilters([]string{"twap"}, nil, false)
	assert.False(t, c.wants(entities.VariantCumulativeTick, "ETH/USD"))

	c.setFilters(nil, []string{"BTC/USD"}, true)
	c.setFilters([]string{"feed"}, nil, true)
	assert.True(t, c.wants(entities.VariantDiscreteFeed, "BTC/USD"))

	c.setFilters(nil, nil, false)
	assert.True(t, c.wants(entities.VariantCumulativeTick, "ETH/USD"))
}

func TestClient_UnsubscribeWithoutFilterIsNoop(t *testing.T) {
	c := &client{variants: map[entities.Variant]bool{}, pairs: map[entities.PairKey]bool{}}

	c.setFilters([]string{"twap"}, []string{"ETH/USD"}, false)
	assert.True(t, c.wants(entities.VariantCumulativeTick, "ETH/USD"))
	assert.True(t, c.wants(entities.VariantDiscreteFeed, "BTC/USD"))
}

type recordingSink struct {
	got []*entities.AuditEvent
	err error
}

func (r *recordingSink) Publish(ctx context.Context, ev *entities.AuditEvent) error {
	r.got = append(r.got, ev)
	return r.err
}

func TestMultiSink(t *testing.T) {
	ok := &recordingSink{}
	failing := &recordingSink{err: errors.New("sink down")}
	sink := MultiSink{failing, nil, ok, LogSink{}}

	ev := testEvent(entities.VariantDiscreteFeed, "ETH/USD", 1)
	err := sink.Publish(context.Background(), ev)
	assert.ErrorContains(t, err, "sink down")
	assert.Len(t, ok.got, 1)
	assert.Len(t, failing.got, 1)
}

func TestEventMessageJSON(t *testing.T) {
	m := dto.NewRecordMapper(nil)
	data, err := json.Marshal(EventMessage{Type: "audit_event", Event: m.ToAuditEventResponse(testEvent(entities.VariantCumulativeTick, "\x00\x01", 2))})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"pair_hex":"0x0001"`)
}
