package app

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	serial "github.com/jacobsa/go-serial/serial"

	"github.com/relabs-tech/nmea_depth/internal/config"
)

// RunNMEALogger copies NMEA sentences from the instrument serial port into
// a dated log file in logger.log_dir and, when enabled, publishes each one
// to the MQTT NMEA topic. It returns when ctx is cancelled.
func RunNMEALogger(ctx context.Context) error {
	cfg := config.Get()

	var publish func(string)
	if cfg.Logger.Publish {
		client, err := connectMQTT(cfg.MQTT.Broker, cfg.MQTT.ClientIDLogger)
		if err != nil {
			return err
		}
		defer client.Disconnect(250)
		publish = mqttPublisher(client, cfg.MQTT.TopicNMEA)
	}

	// ---- Open instrument serial port ----
	serialOpts := serial.OpenOptions{
		PortName:              cfg.Logger.SerialPort,
		BaudRate:              uint(cfg.Logger.BaudRate),
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       1,
		ParityMode:            serial.PARITY_NONE,
		InterCharacterTimeout: 0,
	}
	port, err := serial.Open(serialOpts)
	if err != nil {
		return err
	}
	defer port.Close()
	log.Printf("NMEA serial port opened on %s at %d baud", serialOpts.PortName, serialOpts.BaudRate)

	// ---- Open dated log file ----
	if err := os.MkdirAll(cfg.Logger.LogDir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(cfg.Logger.LogDir, logFileName(time.Now()))
	out, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer out.Close()
	log.Printf("logging NMEA to %s", path)

	// A blocked serial read only returns once the port is closed.
	go func() {
		<-ctx.Done()
		port.Close()
	}()

	rec := &recorder{out: out, publish: publish}
	n, err := rec.record(port)
	log.Printf("NMEA logger stopped after %d sentences", n)
	if ctx.Err() != nil {
		return nil
	}
	return err
}

// logFileName names a capture file by its UTC start time.
func logFileName(t time.Time) string {
	return "nmea-" + t.UTC().Format("20060102-150405") + ".txt"
}

// recorder writes sentence lines to out and hands each to publish.
type recorder struct {
	out     io.Writer
	publish func(string)
}

// record reads r until EOF or error. Lines that do not start with '$' or
// '!' are line noise and dropped. Every sentence is flushed immediately so
// a power cut loses at most the line being received.
func (rc *recorder) record(r io.Reader) (int, error) {
	reader := bufio.NewReader(r)
	w := bufio.NewWriter(rc.out)
	n := 0
	for {
		line, err := reader.ReadString('\n')
		if s := strings.TrimSpace(line); s != "" && (s[0] == '$' || s[0] == '!') {
			if _, werr := fmt.Fprintf(w, "%s\r\n", s); werr != nil {
				return n, werr
			}
			if werr := w.Flush(); werr != nil {
				return n, werr
			}
			n++
			if rc.publish != nil {
				rc.publish(s)
			}
		}
		if err == io.EOF {
			return n, nil
		}
		if err != nil {
			return n, fmt.Errorf("NMEA read: %w", err)
		}
	}
}

// mqttPublisher publishes each raw sentence to topic, not retained.
func mqttPublisher(client mqtt.Client, topic string) func(string) {
	return func(line string) {
		token := client.Publish(topic, 0, false, line)
		token.Wait()
		if token.Error() != nil {
			log.Printf("NMEA publish error: %v", token.Error())
		}
	}
}

func connectMQTT(broker, clientID string) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	log.Printf("connected to MQTT broker at %s", broker)
	return client, nil
}
