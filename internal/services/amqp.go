package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// ReviewJob is the message published for each review request.
type ReviewJob struct {
	DocumentID uuid.UUID `json:"document_id"`
}

type amqpDispatcher struct {
	url         string
	queue       string
	reviewer    ReviewerService
	concurrency int

	mu        sync.Mutex
	conn      *amqp.Connection
	publishCh *amqp.Channel
	consumeCh *amqp.Channel
	wg        sync.WaitGroup
	stopOnce  sync.Once
}

func NewAMQPDispatcher(url, queue string, reviewer ReviewerService, concurrency int) Dispatcher {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &amqpDispatcher{
		url:         url,
		queue:       queue,
		reviewer:    reviewer,
		concurrency: concurrency,
	}
}

// Start implements Dispatcher. It declares the durable queue and starts
// concurrency consumers sharing one channel with a matching prefetch.
func (d *amqpDispatcher) Start(ctx context.Context) error {
	conn, err := amqp.Dial(d.url)
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	publishCh, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to open publish channel: %w", err)
	}

	if _, err := publishCh.QueueDeclare(
		d.queue, // queue name
		true,    // durable
		false,   // delete when unused
		false,   // exclusive
		false,   // no-wait
		nil,     // args
	); err != nil {
		conn.Close()
		return fmt.Errorf("failed to declare queue: %w", err)
	}

	consumeCh, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to open consume channel: %w", err)
	}
	if err := consumeCh.Qos(d.concurrency, 0, false); err != nil {
		conn.Close()
		return fmt.Errorf("failed to set prefetch: %w", err)
	}

	deliveries, err := consumeCh.Consume(
		d.queue,
		"",
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	d.mu.Lock()
	d.conn, d.publishCh, d.consumeCh = conn, publishCh, consumeCh
	d.mu.Unlock()

	for i := 0; i < d.concurrency; i++ {
		d.wg.Add(1)
		go d.consume(ctx, i+1, deliveries)
	}

	log.Printf("✅ Connected to RabbitMQ, consuming %q with %d workers\n", d.queue, d.concurrency)
	return nil
}

// Stop implements Dispatcher.
func (d *amqpDispatcher) Stop() {
	d.stopOnce.Do(func() {
		log.Println("🛑 Stopping RabbitMQ dispatcher...")

		d.mu.Lock()
		consumeCh, conn := d.consumeCh, d.conn
		d.mu.Unlock()

		// Closing the consume channel ends the deliveries range in every consumer.
		if consumeCh != nil {
			consumeCh.Close()
		}
		d.wg.Wait()
		if conn != nil {
			conn.Close()
		}

		log.Println("✅ RabbitMQ dispatcher stopped")
	})
}

// Enqueue implements Dispatcher.
func (d *amqpDispatcher) Enqueue(ctx context.Context, docID uuid.UUID) error {
	body, err := json.Marshal(ReviewJob{DocumentID: docID})
	if err != nil {
		return fmt.Errorf("failed to encode job: %w", err)
	}

	d.mu.Lock()
	ch := d.publishCh
	d.mu.Unlock()
	if ch == nil || ch.IsClosed() {
		return ErrDispatcherStopped
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = ch.PublishWithContext(
		ctx,
		"",      // exchange
		d.queue, // routing key
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish job: %w", err)
	}

	log.Printf("📥 Job %s published to %q\n", docID, d.queue)
	return nil
}

func (d *amqpDispatcher) consume(ctx context.Context, workerID int, deliveries <-chan amqp.Delivery) {
	defer d.wg.Done()

	for delivery := range deliveries {
		var job ReviewJob
		if err := json.Unmarshal(delivery.Body, &job); err != nil {
			log.Printf("⚠️  Consumer #%d dropped invalid job: %v\n", workerID, err)
			delivery.Nack(false, false)
			continue
		}

		log.Printf("👷 Consumer #%d processing job %s\n", workerID, job.DocumentID)
		if _, err := d.reviewer.ReviewDocument(ctx, job.DocumentID); err != nil {
			log.Printf("❌ Consumer #%d failed to process job %s: %v\n", workerID, job.DocumentID, err)
		} else {
			log.Printf("✅ Consumer #%d completed job %s\n", workerID, job.DocumentID)
		}

		// The outcome lives in the document status; a failed document is resubmitted
		// explicitly rather than redelivered.
		delivery.Ack(false)
	}

	log.Printf("👷 Consumer #%d stopped\n", workerID)
}
