package kafka

import (
	"context"
	log "log/slog"

	"Townhall/internal/api/config"
	"Townhall/internal/service"

	"github.com/IBM/sarama"
)

// ConsumerManager owns the directory user-event consumer group
type ConsumerManager struct {
	usersConsumer sarama.ConsumerGroup
	usersHandler  sarama.ConsumerGroupHandler
	topic         string
}

func NewConsumerManager(cfg *config.Config, userSvc service.UserService) (*ConsumerManager, error) {
	saramaCfg := newSaramaConfig(cfg.Kafka)

	usersConsumer, err := sarama.NewConsumerGroup(cfg.Kafka.Brokers, cfg.KafkaUserConsumer.GroupID, saramaCfg)
	if err != nil {
		return nil, err
	}

	return &ConsumerManager{
		usersConsumer: usersConsumer,
		usersHandler:  NewUserHandler(userSvc),
		topic:         cfg.KafkaUserConsumer.Topic,
	}, nil
}

// Start consumes until ctx is done, rejoining the group after every rebalance
func (m *ConsumerManager) Start(ctx context.Context) error {
	go func() {
		for err := range m.usersConsumer.Errors() {
			log.Error("user consumer error", "err", err)
		}
	}()

	go func() {
		log.Info("User consumer started", "topic", m.topic)
		for {
			if err := m.usersConsumer.Consume(ctx, []string{m.topic}, m.usersHandler); err != nil {
				log.Error("Error from consumer", "err", err)
			}
			if ctx.Err() != nil {
				return
			}
		}
	}()

	<-ctx.Done()
	log.Info("Kafka Manager shutting down...")

	if err := m.usersConsumer.Close(); err != nil {
		log.Error("Failed to close user consumer", "err", err)
	}
	return nil
}
