package mqtt

import (
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

const (
	// offlineCapacity is the number of messages kept while the broker is unreachable.
	offlineCapacity = 256

	// queueCapacity is the number of messages waiting for the writer goroutine
	// before WriteLine and PublishSystem start dropping.
	queueCapacity = 64

	publishTimeout = 5 * time.Second
)

// RealPublisher publishes to an actual MQTT broker. WriteLine and
// PublishSystem only queue; a single writer goroutine owns the client calls
// and the offline buffer, so callers never wait on the network.
type RealPublisher struct {
	client paho.Client

	// connected is tracked from the connect and connection-lost handlers.
	// paho's IsConnected also reports true while a retry is in progress.
	connected atomic.Bool

	queue       chan bufferedMsg
	reconnected chan struct{}
	done        chan struct{}
	dropped     atomic.Uint64
	closeOnce   sync.Once

	mu  sync.Mutex
	buf *ringBuffer
}

func newPublisher(queue int) *RealPublisher {
	return &RealPublisher{
		queue:       make(chan bufferedMsg, queue),
		reconnected: make(chan struct{}, 1),
		done:        make(chan struct{}),
		buf:         newRingBuffer(offlineCapacity),
	}
}

// NewRealPublisher creates a publisher for the given broker and returns
// without waiting for the connection. The client keeps retrying in the
// background and messages are buffered until it connects.
func NewRealPublisher(broker, clientID string) (*RealPublisher, error) {
	p := newPublisher(queueCapacity)

	will, err := FormatSystemPayload(SystemEvent{Timestamp: time.Now(), Event: "OFFLINE"})
	if err != nil {
		return nil, fmt.Errorf("format will payload: %w", err)
	}

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetWill(TopicSystem, string(will), 1, true).
		SetOnConnectHandler(p.onConnect).
		SetConnectionLostHandler(p.onConnectionLost)

	p.client = paho.NewClient(opts)
	go p.run()

	token := p.client.Connect()
	go func() {
		token.Wait()
		if err := token.Error(); err != nil {
			log.Printf("mqtt: connect to %s: %v", broker, err)
		}
	}()

	return p, nil
}

func (p *RealPublisher) onConnect(paho.Client) {
	p.connected.Store(true)
	select {
	case p.reconnected <- struct{}{}:
	default:
	}
}

func (p *RealPublisher) onConnectionLost(_ paho.Client, err error) {
	p.connected.Store(false)
	log.Printf("mqtt: connection lost: %v", err)
}

// run is the writer goroutine. It exits once the queue is closed and drained.
func (p *RealPublisher) run() {
	defer close(p.done)
	for {
		select {
		case msg, ok := <-p.queue:
			if !ok {
				return
			}
			p.send(msg)
		case <-p.reconnected:
			p.flush()
		}
	}
}

// send publishes msg, or keeps it in the offline buffer while disconnected
// or when the publish fails.
func (p *RealPublisher) send(msg bufferedMsg) {
	if !p.connected.Load() {
		p.hold(msg)
		return
	}

	token := p.client.Publish(msg.topic, msg.qos, msg.retained, msg.payload)
	if !token.WaitTimeout(publishTimeout) {
		log.Printf("mqtt: publish to %s timed out", msg.topic)
		return
	}
	if err := token.Error(); err != nil {
		log.Printf("mqtt: publish to %s: %v", msg.topic, err)
		p.hold(msg)
	}
}

func (p *RealPublisher) hold(msg bufferedMsg) {
	p.mu.Lock()
	p.buf.push(msg)
	p.mu.Unlock()
}

// flush replays messages buffered while disconnected.
func (p *RealPublisher) flush() {
	p.mu.Lock()
	msgs := p.buf.drainAll()
	p.mu.Unlock()

	if len(msgs) > 0 {
		log.Printf("mqtt: connected, replaying %d buffered messages", len(msgs))
	}
	for _, m := range msgs {
		p.send(m)
	}
}

// enqueue hands msg to the writer goroutine. It never blocks; a full queue
// drops the message.
func (p *RealPublisher) enqueue(msg bufferedMsg) bool {
	select {
	case p.queue <- msg:
		return true
	default:
		p.dropped.Add(1)
		return false
	}
}

// WriteLine mirrors a console line. QoS 0, not retained.
func (p *RealPublisher) WriteLine(line string) {
	payload, err := FormatLinePayload(time.Now(), line)
	if err != nil {
		return
	}
	p.enqueue(bufferedMsg{topic: TopicConsole, payload: payload})
}

// PublishSystem queues a system lifecycle event. Delivery happens in the
// background; an error means the event was dropped.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}

	// QoS 1 (at-least-once) for lifecycle events - we want to ensure delivery
	if !p.enqueue(bufferedMsg{topic: TopicSystem, payload: payload, qos: 1, retained: event.Retained}) {
		return fmt.Errorf("publish system: queue full")
	}
	return nil
}

// IsConnected reports whether the client currently has a broker connection.
func (p *RealPublisher) IsConnected() bool {
	return p.connected.Load()
}

// Buffered returns the number of messages held for replay.
func (p *RealPublisher) Buffered() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.buf.len()
}

// Dropped returns the number of messages dropped because the queue was full.
func (p *RealPublisher) Dropped() uint64 {
	return p.dropped.Load()
}

// Close sends what is already queued, then disconnects from the broker.
// WriteLine and PublishSystem must not be called after Close.
func (p *RealPublisher) Close() error {
	p.closeOnce.Do(func() {
		close(p.queue)
		<-p.done
		if n := p.Buffered(); n > 0 {
			log.Printf("mqtt: closing with %d undelivered messages", n)
		}
		if n := p.Dropped(); n > 0 {
			log.Printf("mqtt: dropped %d messages", n)
		}
		p.client.Disconnect(1000) // 1 second timeout
	})
	return nil
}
