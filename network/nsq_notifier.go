package network

import (
	"encoding/json"
	"fmt"
	"github.com/etdloader/etdloader/models"
	"github.com/nsqio/go-nsq"
	"time"
)

// RecordMessage is what NSQNotifier publishes for each finished
// record. Downstream services (indexing, email notification) read
// these from the topic.
type RecordMessage struct {
	Name        string    `json:"name"`
	Status      string    `json:"status"`
	PID         string    `json:"pid,omitempty"`
	RecordURL   string    `json:"record_url,omitempty"`
	EmbargoDate string    `json:"embargo_date,omitempty"`
	Errors      []string  `json:"errors,omitempty"`
	FinishedAt  time.Time `json:"finished_at"`
}

// NewRecordMessage returns the message for record.
func NewRecordMessage(record *models.ETDRecord) *RecordMessage {
	msg := &RecordMessage{
		Name:       record.Name,
		Status:     record.Status,
		PID:        record.PID,
		RecordURL:  record.RecordURL,
		Errors:     record.CriticalErrors,
		FinishedAt: record.FinishedAt,
	}
	if record.HasEmbargo {
		msg.EmbargoDate = record.EmbargoDate
	}
	return msg
}

// NSQNotifier publishes one message per finished record to nsqd.
type NSQNotifier struct {
	topic    string
	producer *nsq.Producer
}

// NewNSQNotifier returns a notifier that publishes to topic on the
// nsqd instance at address, which is usually host:4150.
func NewNSQNotifier(address, topic string) (*NSQNotifier, error) {
	config := nsq.NewConfig()
	config.DialTimeout = 5 * time.Second
	producer, err := nsq.NewProducer(address, config)
	if err != nil {
		return nil, fmt.Errorf("Cannot create NSQ producer for %s: %v", address, err)
	}
	producer.SetLogger(nil, nsq.LogLevelError)
	return &NSQNotifier{
		topic:    topic,
		producer: producer,
	}, nil
}

// Notify publishes a RecordMessage describing record.
func (notifier *NSQNotifier) Notify(record *models.ETDRecord) error {
	body, err := json.Marshal(NewRecordMessage(record))
	if err != nil {
		return err
	}
	if err = notifier.producer.Publish(notifier.topic, body); err != nil {
		return fmt.Errorf("Cannot publish %s to NSQ topic %s: %v", record.Name, notifier.topic, err)
	}
	return nil
}

func (notifier *NSQNotifier) Topic() string {
	return notifier.topic
}

// Stop closes the connection to nsqd.
func (notifier *NSQNotifier) Stop() {
	notifier.producer.Stop()
}
