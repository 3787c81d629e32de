package app

import (
	"embed"
	"encoding/json"
	"io/fs"
	"log"
	"net/http"
	"path/filepath"
	"sort"
	"sync"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gorilla/websocket"

	"github.com/relabs-tech/nmea_depth/internal/config"
	"github.com/relabs-tech/nmea_depth/internal/gps"
)

//go:embed static
var staticFiles embed.FS

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

// LiveEvent is one decoded sentence pushed to websocket clients.
type LiveEvent struct {
	Type      string  `json:"type"` // fix or depth
	Time      string  `json:"time,omitempty"`
	Latitude  float64 `json:"lat,omitempty"`
	Longitude float64 `json:"lon,omitempty"`
	Depth     float64 `json:"depth,omitempty"`
}

func liveEvent(s gps.Sentence) LiveEvent {
	if s.Kind == gps.KindDepth {
		return LiveEvent{Type: "depth", Depth: s.Depth.Meters}
	}
	return LiveEvent{
		Type:      "fix",
		Time:      s.Fix.Key.Format(),
		Latitude:  s.Fix.Latitude,
		Longitude: s.Fix.Longitude,
	}
}

// liveHub fans events out to every connected websocket.
type liveHub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

func newLiveHub() *liveHub {
	return &liveHub{clients: make(map[*websocket.Conn]struct{})}
}

func (h *liveHub) broadcast(ev LiveEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		if err := c.WriteJSON(ev); err != nil {
			log.Printf("web: websocket write error: %v", err)
			c.Close()
			delete(h.clients, c)
		}
	}
}

func (h *liveHub) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// ServeHTTP upgrades the request and keeps the client registered until it
// disconnects. Client messages are read and discarded.
func (h *liveHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("web: websocket upgrade error: %v", err)
		return
	}
	h.mu.Lock()
	h.clients[conn] = struct{}{}
	h.mu.Unlock()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
	conn.Close()
}

// filesHandler lists the GPX files under dir as {"files": [...]}, with
// names relative to dir.
func filesHandler(dir string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		matches, err := filepath.Glob(filepath.Join(dir, "*.gpx"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		files := make([]string, 0, len(matches))
		for _, m := range matches {
			files = append(files, filepath.Base(m))
		}
		sort.Strings(files)

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(struct {
			Files []string `json:"files"`
		}{Files: files}); err != nil {
			log.Printf("json encode error: %v", err)
		}
	}
}

// relayNMEA subscribes to topic and hands every decoded fix or depth
// sentence to sink. Other payloads are dropped.
func relayNMEA(client mqtt.Client, topic string, dec gps.Decoder, sink func(LiveEvent)) error {
	token := client.Subscribe(topic, 0, func(_ mqtt.Client, msg mqtt.Message) {
		s, err := dec.Decode(string(msg.Payload()))
		if err != nil {
			return
		}
		sink(liveEvent(s))
	})
	token.Wait()
	return token.Error()
}

func newWebMux(cfg *config.Config, hub *liveHub) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/files", filesHandler(cfg.Track.TargetDir))
	mux.Handle("/gpx/", http.StripPrefix("/gpx/", http.FileServer(http.Dir(cfg.Track.TargetDir))))
	mux.Handle("/ws/live", hub)
	static, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(err) // embedded at build time
	}
	mux.Handle("/", http.FileServer(http.FS(static)))
	return mux
}

// RunWeb serves the generated GPX tracks and relays live NMEA from MQTT to
// websocket clients on /ws/live.
func RunWeb() error {
	cfg := config.Get()
	hub := newLiveHub()
	dec := gps.Decoder{VerifyChecksum: cfg.NMEA.VerifyChecksum}

	client, err := connectMQTT(cfg.MQTT.Broker, cfg.MQTT.ClientIDWeb)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	if err := relayNMEA(client, cfg.MQTT.TopicNMEA, dec, hub.broadcast); err != nil {
		return err
	}
	log.Printf("subscribed to MQTT topic %s", cfg.MQTT.TopicNMEA)

	log.Printf("web server listening on %s", cfg.Web.Addr)
	return http.ListenAndServe(cfg.Web.Addr, newWebMux(cfg, hub))
}
