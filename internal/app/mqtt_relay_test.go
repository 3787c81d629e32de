package app

import (
	"fmt"
	"net"
	"strings"
	"testing"
	"time"

	mochi "github.com/mochi-mqtt/server/v2"
	"github.com/mochi-mqtt/server/v2/hooks/auth"
	"github.com/mochi-mqtt/server/v2/listeners"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/nmea_depth/internal/gps"
)

// startBroker runs an in-process MQTT broker and returns its URL.
func startBroker(t *testing.T) string {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	server := mochi.New(nil)
	require.NoError(t, server.AddHook(new(auth.AllowHook), nil))
	require.NoError(t, server.AddListener(listeners.NewTCP(listeners.Config{
		Type:    "tcp",
		ID:      "test",
		Address: addr,
	})))
	require.NoError(t, server.Serve())
	t.Cleanup(func() { server.Close() })

	return "tcp://" + addr
}

func TestLoggerToWebRelay(t *testing.T) {
	broker := startBroker(t)
	const topic = "nmea/raw"

	sub, err := connectMQTT(broker, "relay-test-web")
	require.NoError(t, err)
	defer sub.Disconnect(250)

	events := make(chan LiveEvent, 8)
	require.NoError(t, relayNMEA(sub, topic, gps.Decoder{VerifyChecksum: true}, func(ev LiveEvent) {
		events <- ev
	}))

	pub, err := connectMQTT(broker, "relay-test-logger")
	require.NoError(t, err)
	defer pub.Disconnect(250)

	capture := strings.Join([]string{
		rmcNorth("130223060009", 0),
		withChecksum("IIMWV,120.0,R,8.1,N,A"),
		dptLine(2.5),
	}, "\r\n") + "\r\n"

	var captured strings.Builder
	rec := &recorder{out: &captured, publish: mqttPublisher(pub, topic)}
	n, err := rec.record(strings.NewReader(capture))
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	var got []LiveEvent
	for len(got) < 2 {
		select {
		case ev := <-events:
			got = append(got, ev)
		case <-time.After(5 * time.Second):
			t.Fatalf("timed out after %d events", len(got))
		}
	}
	assert.Equal(t, "fix", got[0].Type)
	assert.Equal(t, "2023-02-13T06:00:09Z", got[0].Time)
	assert.InDelta(t, 53.2, got[0].Latitude, 1e-6)
	assert.Equal(t, LiveEvent{Type: "depth", Depth: 2.5}, got[1])

	select {
	case ev := <-events:
		t.Fatalf("unexpected event %s", fmt.Sprint(ev))
	case <-time.After(100 * time.Millisecond):
	}
}
