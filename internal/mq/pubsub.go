package mq

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"cloud.google.com/go/pubsub"
	"github.com/shaan-hospital/apiserver/config"
	"google.golang.org/api/option"
)

const (
	defaultPubSubAckDeadline    = 60 * time.Second
	defaultPubSubMaxOutstanding = 10
)

// Topic and subscription ids: 3-255 chars, leading letter, no "goog" prefix.
var pubsubIDPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9\-_.~+%]{2,254}$`)

// PubSubClient publishes and consumes cleanup jobs over Google Cloud Pub/Sub.
// Every consumer of a channel shares one subscription, so the API server's
// in-process worker and `hmsd cleanup-worker` split jobs instead of each
// receiving a copy.
type PubSubClient struct {
	client             *pubsub.Client
	subscriptionSuffix string
	ackDeadline        time.Duration
	maxOutstanding     int

	mu     sync.Mutex
	topics map[string]*pubsub.Topic
}

// NewPubSubClient constructs a Pub/Sub client from config.
func NewPubSubClient(ctx context.Context, cfg config.PubSubConfig) (*PubSubClient, error) {
	if strings.TrimSpace(cfg.ProjectID) == "" {
		return nil, errors.New("pubsub project id is required")
	}

	var opts []option.ClientOption
	if strings.TrimSpace(cfg.CredentialsFile) != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := pubsub.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, err
	}

	p := newPubSubClient(cfg)
	p.client = client
	return p, nil
}

func newPubSubClient(cfg config.PubSubConfig) *PubSubClient {
	suffix := cfg.SubscriptionSuffix
	if suffix == "" {
		suffix = "-sub"
	}
	ackDeadline := cfg.AckDeadline
	if ackDeadline <= 0 {
		ackDeadline = defaultPubSubAckDeadline
	}
	maxOutstanding := cfg.MaxOutstanding
	if maxOutstanding <= 0 {
		maxOutstanding = defaultPubSubMaxOutstanding
	}
	return &PubSubClient{
		subscriptionSuffix: suffix,
		ackDeadline:        ackDeadline,
		maxOutstanding:     maxOutstanding,
		topics:             make(map[string]*pubsub.Topic),
	}
}

// Publish sends a cleanup job to the channel's topic.
func (p *PubSubClient) Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	topic, err := p.topic(ctx, channel)
	if err != nil {
		return "", err
	}
	result := topic.Publish(ctx, &pubsub.Message{Data: data, Attributes: attrs})
	return result.Get(ctx)
}

// Subscribe consumes the channel through its shared subscription until ctx
// is done. A handler error nacks the message for redelivery.
func (p *PubSubClient) Subscribe(ctx context.Context, channel string, handler Handler) error {
	topic, err := p.topic(ctx, channel)
	if err != nil {
		return err
	}

	sub, err := p.ensureSubscription(ctx, p.subscriptionName(channel), topic)
	if err != nil {
		return err
	}
	sub.ReceiveSettings.MaxOutstandingMessages = p.maxOutstanding

	return sub.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		deliver(ctx, handler, Message{
			ID:         msg.ID,
			Data:       msg.Data,
			Attributes: msg.Attributes,
		}, msg)
	})
}

// Close flushes pending publishes and closes the client.
func (p *PubSubClient) Close() error {
	p.mu.Lock()
	for _, topic := range p.topics {
		topic.Stop()
	}
	p.topics = make(map[string]*pubsub.Topic)
	p.mu.Unlock()
	return p.client.Close()
}

// settler is the acknowledgement side of a received message.
type settler interface {
	Ack()
	Nack()
}

func deliver(ctx context.Context, handler Handler, msg Message, s settler) {
	if err := handler(ctx, msg); err != nil {
		s.Nack()
		return
	}
	s.Ack()
}

// topic returns the cached topic for channel, creating it on first use.
func (p *PubSubClient) topic(ctx context.Context, channel string) (*pubsub.Topic, error) {
	if err := validatePubSubID(channel); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if topic, ok := p.topics[channel]; ok {
		return topic, nil
	}

	topic := p.client.Topic(channel)
	exists, err := topic.Exists(ctx)
	if err != nil {
		return nil, err
	}
	if !exists {
		if topic, err = p.client.CreateTopic(ctx, channel); err != nil {
			return nil, err
		}
	}
	p.topics[channel] = topic
	return topic, nil
}

func (p *PubSubClient) ensureSubscription(ctx context.Context, name string, topic *pubsub.Topic) (*pubsub.Subscription, error) {
	sub := p.client.Subscription(name)
	exists, err := sub.Exists(ctx)
	if err != nil {
		return nil, err
	}
	if !exists {
		return p.client.CreateSubscription(ctx, name, p.subscriptionConfig(topic))
	}
	return sub, nil
}

func (p *PubSubClient) subscriptionConfig(topic *pubsub.Topic) pubsub.SubscriptionConfig {
	return pubsub.SubscriptionConfig{
		Topic:       topic,
		AckDeadline: p.ackDeadline,
	}
}

func (p *PubSubClient) subscriptionName(channel string) string {
	return channel + p.subscriptionSuffix
}

func validatePubSubID(id string) error {
	if strings.TrimSpace(id) == "" {
		return errors.New("pubsub channel is required")
	}
	if !pubsubIDPattern.MatchString(id) || strings.HasPrefix(strings.ToLower(id), "goog") {
		return fmt.Errorf("invalid pubsub channel %q", id)
	}
	return nil
}
