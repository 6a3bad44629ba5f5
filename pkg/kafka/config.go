package kafka

import (
	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
)

const (
	defaultSecurityProtocol = "SASL_SSL"
	defaultSASLMechanism    = "PLAIN"
)

// SASLConfig holds optional SASL credentials for brokers that require them.
// The zero value disables authentication.
type SASLConfig struct {
	Username         string
	Password         string
	Mechanism        string
	SecurityProtocol string
}

// Enabled reports whether credentials were supplied.
func (s SASLConfig) Enabled() bool {
	return s.Username != ""
}

// ApplyToConfigMap adds the SASL settings to cm. It does nothing when
// authentication is disabled.
func (s SASLConfig) ApplyToConfigMap(cm *kafka.ConfigMap) {
	if !s.Enabled() {
		return
	}
	protocol := s.SecurityProtocol
	if protocol == "" {
		protocol = defaultSecurityProtocol
	}
	mechanism := s.Mechanism
	if mechanism == "" {
		mechanism = defaultSASLMechanism
	}
	_ = cm.SetKey("security.protocol", protocol)
	_ = cm.SetKey("sasl.mechanisms", mechanism)
	_ = cm.SetKey("sasl.username", s.Username)
	_ = cm.SetKey("sasl.password", s.Password)
}
