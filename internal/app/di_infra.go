package app

import (
	"context"
	"fmt"

	"github.com/allisson/identity/internal/bus"
	"github.com/allisson/identity/internal/cache"
	"github.com/allisson/identity/internal/mailer"
	outboxUsecase "github.com/allisson/identity/internal/outbox/usecase"
)

// Cache returns the ephemeral cache used for pending email passcodes.
// An empty or "memory" Redis URL selects the in-process backend.
func (c *Container) Cache() (cache.Cache, error) {
	var err error
	c.cacheInit.Do(func() {
		c.cache, err = c.initCache()
		if err != nil {
			c.initErrors["cache"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["cache"]; exists {
		return nil, storedErr
	}
	return c.cache, nil
}

// Mailer returns the outbound mail implementation.
func (c *Container) Mailer() (mailer.Mailer, error) {
	var err error
	c.mailerInit.Do(func() {
		c.mailer, err = c.initMailer()
		if err != nil {
			c.initErrors["mailer"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["mailer"]; exists {
		return nil, storedErr
	}
	return c.mailer, nil
}

// EventProcessor returns the processor the outbox loop hands events to. With
// a topic URL configured, events are published to the bus; otherwise they are
// logged and dropped.
func (c *Container) EventProcessor() (outboxUsecase.EventProcessor, error) {
	var err error
	c.busPublisherInit.Do(func() {
		if c.config.EventBusTopicURL == "" {
			return
		}
		c.busPublisher, err = bus.NewPublisher(context.Background(), c.config.EventBusTopicURL)
		if err != nil {
			c.initErrors["busPublisher"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["busPublisher"]; exists {
		return nil, storedErr
	}

	if c.busPublisher != nil {
		return c.busPublisher, nil
	}
	return outboxUsecase.NewDefaultEventProcessor(c.Logger()), nil
}

// initCache creates the cache backend from the configured Redis URL.
func (c *Container) initCache() (cache.Cache, error) {
	switch c.config.RedisURL {
	case "", "memory":
		return cache.NewMemoryCache(), nil
	default:
		redisCache, err := cache.NewRedisCache(c.config.RedisURL, c.config.CacheOperationTimeout)
		if err != nil {
			return nil, fmt.Errorf("failed to create redis cache: %w", err)
		}
		return redisCache, nil
	}
}

// initMailer creates the mail implementation from the configured provider.
func (c *Container) initMailer() (mailer.Mailer, error) {
	switch c.config.MailerProvider {
	case "ses":
		sesMailer, err := mailer.NewSESMailer(context.Background(), c.config.MailerFromAddress)
		if err != nil {
			return nil, fmt.Errorf("failed to create ses mailer: %w", err)
		}
		return sesMailer, nil
	case "log":
		return mailer.NewLogMailer(c.Logger()), nil
	default:
		return nil, fmt.Errorf("unsupported mailer provider: %s", c.config.MailerProvider)
	}
}
