package kafka

import (
	"crypto/tls"
	"fmt"
	"strings"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/sasl"
	"github.com/segmentio/kafka-go/sasl/plain"
	"github.com/segmentio/kafka-go/sasl/scram"
)

// Config holds Kafka connection parameters.
type Config struct {
	ConsumerGroup string

	// SASL authentication. An empty mechanism with a username selects PLAIN.
	SASLMechanism string // "PLAIN", "SCRAM-SHA-256" or "SCRAM-SHA-512"
	SASLUsername  string
	SASLPassword  string

	Brokers []string

	TLS bool
}

// SASLEnabled reports whether SASL credentials are configured.
func (c Config) SASLEnabled() bool {
	return c.SASLUsername != ""
}

func (c Config) mechanism() (sasl.Mechanism, error) {
	switch strings.ToUpper(c.SASLMechanism) {
	case "SCRAM-SHA-256":
		return scram.Mechanism(scram.SHA256, c.SASLUsername, c.SASLPassword)
	case "SCRAM-SHA-512":
		return scram.Mechanism(scram.SHA512, c.SASLUsername, c.SASLPassword)
	case "PLAIN", "":
		return plain.Mechanism{Username: c.SASLUsername, Password: c.SASLPassword}, nil
	default:
		return nil, fmt.Errorf("kafka: unsupported SASL mechanism %q", c.SASLMechanism)
	}
}

func (c Config) tlsConfig() *tls.Config {
	if !c.TLS {
		return nil
	}
	return &tls.Config{MinVersion: tls.VersionTLS12}
}

// dialer returns the reader dialer, or nil when neither TLS nor SASL is set.
func (c Config) dialer() (*kafkago.Dialer, error) {
	if !c.TLS && !c.SASLEnabled() {
		return nil, nil
	}
	d := &kafkago.Dialer{Timeout: 10 * time.Second, DualStack: true, TLS: c.tlsConfig()}
	if c.SASLEnabled() {
		m, err := c.mechanism()
		if err != nil {
			return nil, err
		}
		d.SASLMechanism = m
	}
	return d, nil
}

// transport returns the writer transport, or nil for the default.
func (c Config) transport() (*kafkago.Transport, error) {
	if !c.TLS && !c.SASLEnabled() {
		return nil, nil
	}
	t := &kafkago.Transport{TLS: c.tlsConfig()}
	if c.SASLEnabled() {
		m, err := c.mechanism()
		if err != nil {
			return nil, err
		}
		t.SASL = m
	}
	return t, nil
}
