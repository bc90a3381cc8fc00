package storage

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	config "github.com/thirdweb-dev/tracecollector/configs"
	"github.com/thirdweb-dev/tracecollector/internal/common"
	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/pkg/sasl/plain"
)

const defaultTraceTopic = "tracecollector.traces"

type KafkaSink struct {
	client *kgo.Client
	topic  string
}

func NewKafkaSink(ctx context.Context, cfg *config.KafkaConfig) (*KafkaSink, error) {
	brokers := strings.Split(cfg.Brokers, ",")

	opts := []kgo.Opt{
		kgo.SeedBrokers(brokers...),
		kgo.AllowAutoTopicCreation(),
		kgo.ProducerBatchCompression(kgo.ZstdCompression()),
		kgo.ClientID("tracecollector"),
		kgo.ProduceRequestTimeout(30 * time.Second),
		kgo.DialTimeout(10 * time.Second),
		kgo.RequiredAcks(kgo.AllISRAcks()),
	}

	if cfg.Username != "" && cfg.Password != "" {
		opts = append(opts, kgo.SASL(plain.Auth{
			User: cfg.Username,
			Pass: cfg.Password,
		}.AsMechanism()))
	}

	if cfg.EnableTLS {
		tlsDialer := &tls.Dialer{NetDialer: &net.Dialer{Timeout: 10 * time.Second}}
		opts = append(opts, kgo.Dialer(tlsDialer.DialContext))
	}

	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka client: %v", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Kafka: %v", err)
	}

	topic := cfg.Topic
	if topic == "" {
		topic = defaultTraceTopic
	}
	return &KafkaSink{client: client, topic: topic}, nil
}

func (k *KafkaSink) Name() string {
	return "kafka"
}

func (k *KafkaSink) Write(ctx context.Context, blockRange common.BlockRange, result common.CollectResult) error {
	if len(result.Txs) == 0 {
		return nil
	}
	records, err := traceRecords(k.topic, result.Txs, time.Now())
	if err != nil {
		return err
	}
	if err := k.client.ProduceSync(ctx, records...).FirstErr(); err != nil {
		return fmt.Errorf("failed to publish trace records: %w", err)
	}
	log.Debug().Str("topic", k.topic).Int("records", len(records)).Msg("Published trace records")
	return nil
}

func (k *KafkaSink) Close() error {
	k.client.Close()
	return nil
}

func traceRecords(topic string, txs []common.TraceRecord, timestamp time.Time) ([]*kgo.Record, error) {
	records := make([]*kgo.Record, 0, len(txs))
	for _, tx := range txs {
		value, err := json.Marshal(tx)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal trace record %s: %w", tx.TxHash, err)
		}
		headers := []kgo.RecordHeader{
			{Key: "block_number", Value: []byte(fmt.Sprintf("%d", tx.BlockNumber))},
			{Key: "tx_hash", Value: []byte(tx.TxHash)},
			{Key: "timestamp", Value: []byte(timestamp.Format(time.RFC3339Nano))},
			{Key: "schema_version", Value: []byte("1")},
		}
		records = append(records, &kgo.Record{
			Topic:   topic,
			Key:     []byte(fmt.Sprintf("%d:%s", tx.BlockNumber, tx.TxHash)),
			Value:   value,
			Headers: headers,
		})
	}
	return records, nil
}
