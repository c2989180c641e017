package bus

import (
	"context"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	gochannel "github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/pkg/errors"
)

// Bus is an in-process publish/subscribe router.
type Bus struct {
	Router     *message.Router
	Publisher  message.Publisher
	Subscriber message.Subscriber

	runOnce sync.Once
}

// NewInMemoryBus builds a bus backed by Go channels.
func NewInMemoryBus() (*Bus, error) {
	logger := watermill.NopLogger{}
	pubsub := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 1024}, logger)

	r, err := message.NewRouter(message.RouterConfig{}, logger)
	if err != nil {
		return nil, errors.Wrap(err, "new watermill router")
	}
	return &Bus{
		Router:     r,
		Publisher:  pubsub,
		Subscriber: pubsub,
	}, nil
}

// AddHandler subscribes handler to topic. Handlers must be added before Run.
func (b *Bus) AddHandler(name, topic string, handler func(*message.Message) error) {
	b.Router.AddConsumerHandler(name, topic, b.Subscriber, handler)
}

// Run blocks routing messages until ctx is cancelled.
func (b *Bus) Run(ctx context.Context) error {
	var runErr error
	b.runOnce.Do(func() {
		go func() {
			<-ctx.Done()
			_ = b.Router.Close()
		}()
		runErr = b.Router.Run(ctx)
	})
	return runErr
}

// Running is closed once the router is accepting messages.
func (b *Bus) Running() chan struct{} {
	return b.Router.Running()
}

// Publish wraps payload in an Envelope of type typ and publishes it on topic.
func (b *Bus) Publish(topic, typ string, payload any) error {
	env, err := NewEnvelope(typ, payload)
	if err != nil {
		return err
	}
	raw, err := env.MarshalJSONBytes()
	if err != nil {
		return err
	}
	if err := b.Publisher.Publish(topic, message.NewMessage(watermill.NewUUID(), raw)); err != nil {
		return errors.Wrapf(err, "publish %s", typ)
	}
	return nil
}
