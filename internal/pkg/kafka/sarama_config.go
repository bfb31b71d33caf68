package kafka

import (
	"time"

	"Townhall/internal/api/config"

	"github.com/IBM/sarama"
)

// newSaramaConfig manual commit, newest offset on first join
func newSaramaConfig(kafkaCfg config.KafkaConfig) *sarama.Config {
	c := sarama.NewConfig()

	if kafkaCfg.Sasl.Enable {
		c.Net.SASL.Enable = true
		c.Net.SASL.Mechanism = sarama.SASLTypePlaintext
		c.Net.SASL.User = kafkaCfg.Sasl.Username
		c.Net.SASL.Password = kafkaCfg.Sasl.Password
	}

	c.Consumer.Return.Errors = true
	c.Consumer.Offsets.Initial = sarama.OffsetNewest
	c.Consumer.Offsets.AutoCommit.Enable = false

	setSeconds(&c.Consumer.Group.Session.Timeout, kafkaCfg.Consumer.SessionTimeout)
	setSeconds(&c.Consumer.Group.Heartbeat.Interval, kafkaCfg.Consumer.HeartbeatInterval)
	setSeconds(&c.Consumer.Group.Rebalance.Timeout, kafkaCfg.Consumer.RebalanceTimeout)
	setSeconds(&c.Consumer.MaxProcessingTime, kafkaCfg.Consumer.MaxProcessingTime)

	return c
}

// setSeconds keeps the sarama default when the value is unset
func setSeconds(d *time.Duration, seconds int) {
	if seconds > 0 {
		*d = time.Duration(seconds) * time.Second
	}
}
