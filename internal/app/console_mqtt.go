package app

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	nmea "github.com/adrianmo/go-nmea"
	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/nmea_depth/internal/config"
	"github.com/relabs-tech/nmea_depth/internal/gps"
)

// RunConsoleMQTT subscribes to the raw NMEA topic and prints every
// position and depth sentence until interrupted.
func RunConsoleMQTT() error {
	cfg := config.Get()

	client, err := connectMQTT(cfg.MQTT.Broker, cfg.MQTT.ClientIDConsole)
	if err != nil {
		return err
	}

	dec := gps.Decoder{VerifyChecksum: cfg.NMEA.VerifyChecksum}
	token := client.Subscribe(cfg.MQTT.TopicNMEA, 0, func(_ mqtt.Client, msg mqtt.Message) {
		if line, ok := describeSentence(string(msg.Payload()), dec); ok {
			fmt.Println(line)
		}
	})
	token.Wait()
	if token.Error() != nil {
		return token.Error()
	}
	log.Printf("console: subscribed to %s", cfg.MQTT.TopicNMEA)

	// Wait for Ctrl+C
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Println("console: shutting down")
	client.Disconnect(250)
	return nil
}

// describeSentence renders an RMC or DPT sentence as one console line.
// Sentences with a valid checksum go through the full NMEA parser, so
// speed and course are shown; others fall back to the log decoder.
func describeSentence(raw string, dec gps.Decoder) (string, bool) {
	raw = strings.TrimSpace(raw)
	if s, err := nmea.Parse(raw); err == nil {
		switch m := s.(type) {
		case nmea.RMC:
			return fmt.Sprintf(
				"[RMC ] date=%s time=%s lat=%.6f lon=%.6f speed=%.1fkn course=%.1f° validity=%s",
				m.Date, m.Time, m.Latitude, m.Longitude, m.Speed, m.Course, m.Validity,
			), true
		case nmea.DPT:
			return fmt.Sprintf("[DPT ] depth=%.1fm offset=%.1fm", m.Depth, m.Offset), true
		default:
			return "", false
		}
	}

	s, err := dec.Decode(raw)
	if err != nil {
		return "", false
	}
	switch s.Kind {
	case gps.KindFix:
		return fmt.Sprintf("[RMC ] %s lat=%.6f lon=%.6f", s.Fix.Key.Format(), s.Fix.Latitude, s.Fix.Longitude), true
	case gps.KindDepth:
		return fmt.Sprintf("[DPT ] depth=%.1fm", s.Depth.Meters), true
	}
	return "", false
}
