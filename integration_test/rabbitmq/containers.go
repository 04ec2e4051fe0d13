package rabbitmq

import (
	"context"
	"fmt"
	"time"

	"github.com/testcontainers/testcontainers-go"
	tcrabbitmq "github.com/testcontainers/testcontainers-go/modules/rabbitmq"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

const rabbitMQImage = "rabbitmq:3.13-management-alpine"
const amqpPort = "5672/tcp"

func startRabbitMQContainer(
	ctx context.Context,
	logger *zap.Logger,
) (
	amqpURI string,
	stopContainer func(),
	err error,
) {
	childCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	rabbitMQContainer, err := tcrabbitmq.Run(
		childCtx,
		rabbitMQImage,
		testcontainers.WithWaitStrategy(wait.ForListeningPort(amqpPort)),
	)
	if err != nil {
		return "", nil, fmt.Errorf("failed to start container: %w", err)
	}

	stopContainer = func() {
		if err := rabbitMQContainer.Terminate(context.Background()); err != nil {
			logger.Error("Failed to terminate RabbitMQ container", zap.Error(err))
		}
	}

	amqpURI, err = rabbitMQContainer.AmqpURL(childCtx)
	if err != nil {
		stopContainer()
		return "", nil, fmt.Errorf("failed to get amqp url: %w", err)
	}

	logger.Info("RabbitMQ URI", zap.String("amqpURI", amqpURI))
	return amqpURI, stopContainer, nil
}
