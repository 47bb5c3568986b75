//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/couchcryptid/climate-grid-service/internal/adapter/kafka"
	"github.com/couchcryptid/climate-grid-service/internal/config"
	"github.com/couchcryptid/climate-grid-service/internal/domain"
	"github.com/couchcryptid/climate-grid-service/internal/observability"
	"github.com/couchcryptid/climate-grid-service/internal/pipeline"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSourceTopic = "test-source"
	testSinkTopic   = "test-sink"
)

// classifiedMessage holds a deserialized message read from the sink topic.
type classifiedMessage struct {
	Sample  domain.ClassifiedSample
	Key     string
	Headers map[string]string
}

// readClassified reads a single message from the sink consumer and deserializes it.
func readClassified(ctx context.Context, t *testing.T, consumer *kafkago.Reader) classifiedMessage {
	t.Helper()
	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from sink topic")

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	var cs domain.ClassifiedSample
	require.NoError(t, json.Unmarshal(msg.Value, &cs), "unmarshal sink message")

	return classifiedMessage{
		Sample:  cs,
		Key:     string(msg.Key),
		Headers: headers,
	}
}

func testConfig(broker, group string) *config.Config {
	return &config.Config{
		KafkaBrokers:       []string{broker},
		KafkaSourceTopic:   testSourceTopic,
		KafkaSinkTopic:     testSinkTopic,
		KafkaGroupID:       fmt.Sprintf("%s-%d", group, time.Now().UnixNano()),
		BatchFlushInterval: 5 * time.Second,
	}
}

func sinkConsumer(t *testing.T, broker string) *kafkago.Reader {
	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testSinkTopic,
		GroupID:     fmt.Sprintf("test-sink-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })
	return consumer
}

// TestKafkaReaderWriter verifies the adapter layer: kafka.Reader (Extractor) and
// kafka.Writer (Loader) correctly round-trip a sample through Kafka.
func TestKafkaReaderWriter(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)

	createTopic(t, broker, testSourceTopic)
	createTopic(t, broker, testSinkTopic)

	cfg := testConfig(broker, "test-reader")

	records := loadMockData(t)
	record := records[0] // lat -80, lon 0, Low Emissions
	payload, err := json.Marshal(record)
	require.NoError(t, err)

	producer := &kafkago.Writer{
		Addr:  kafkago.TCP(broker),
		Topic: testSourceTopic,
	}
	t.Cleanup(func() { _ = producer.Close() })

	require.NoError(t, producer.WriteMessages(ctx, kafkago.Message{
		Key:   []byte("test-key"),
		Value: payload,
	}))

	// Retry because the consumer group may need time to rebalance before
	// partitions are assigned and messages become available.
	reader := kafka.NewReader(cfg, discardLogger())
	t.Cleanup(func() { _ = reader.Close() })

	var batch []domain.RawEvent
	for {
		var err error
		batch, err = reader.ExtractBatch(ctx, 1)
		require.NoError(t, err)
		if len(batch) > 0 {
			break
		}
		if ctx.Err() != nil {
			t.Fatal("timed out waiting for message from source topic")
		}
	}
	require.Len(t, batch, 1)
	raw := batch[0]
	assert.Equal(t, []byte("test-key"), raw.Key)
	assert.Equal(t, payload, raw.Value)
	assert.Equal(t, testSourceTopic, raw.Topic)
	require.NotNil(t, raw.Commit, "commit callback should be set")

	require.NoError(t, raw.Commit(ctx))

	transformer := pipeline.NewTransformer(discardLogger())
	cs, err := transformer.Transform(ctx, raw)
	require.NoError(t, err)

	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	require.NoError(t, writer.LoadBatch(ctx, []domain.ClassifiedSample{cs}))

	cm := readClassified(ctx, t, sinkConsumer(t, broker))
	assert.Equal(t, "Antarctica", cm.Headers["region"])
	assert.Equal(t, "Low Emissions", cm.Headers["scenario"])
	_, err = time.Parse(time.RFC3339, cm.Headers["processed_at"])
	assert.NoError(t, err, "processed_at should be valid RFC3339")

	assert.Equal(t, cs.ID, cm.Key)
	assert.True(t, strings.HasPrefix(cm.Key, "low-"), "key %q", cm.Key)
	assert.Equal(t, domain.RegionAntarctica, cm.Sample.Region)
	assert.Equal(t, -80.0, cm.Sample.Lat)
	assert.Equal(t, 0.0, cm.Sample.Lon)
	assert.Equal(t, 2100, cm.Sample.Year)
	assert.Equal(t, -7.0, cm.Sample.Temperature)
}

// TestPipelineEndToEnd wires the full pipeline (Reader → Transformer → Writer) with
// real Kafka and verifies that every fixture record is classified.
func TestPipelineEndToEnd(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)

	createTopic(t, broker, testSourceTopic)
	createTopic(t, broker, testSinkTopic)

	cfg := testConfig(broker, "test-pipeline")

	records := loadMockData(t)

	producer := &kafkago.Writer{
		Addr:  kafkago.TCP(broker),
		Topic: testSourceTopic,
	}
	t.Cleanup(func() { _ = producer.Close() })

	msgs := make([]kafkago.Message, 0, len(records))
	for i, rec := range records {
		payload, err := json.Marshal(rec)
		require.NoError(t, err)
		msgs = append(msgs, kafkago.Message{
			Key:   []byte(fmt.Sprintf("record-%d", i)),
			Value: payload,
		})
	}
	require.NoError(t, producer.WriteMessages(ctx, msgs...))

	reader := kafka.NewReader(cfg, discardLogger())
	t.Cleanup(func() { _ = reader.Close() })

	transformer := pipeline.NewTransformer(discardLogger())

	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	metrics := observability.NewMetricsForTesting()
	p := pipeline.New(reader, transformer, writer, discardLogger(), metrics, 50)

	pipelineCtx, pipelineCancel := context.WithCancel(ctx)
	errCh := make(chan error, 1)
	go func() { errCh <- p.Run(pipelineCtx) }()

	consumer := sinkConsumer(t, broker)
	received := make([]classifiedMessage, 0, len(records))
	for len(received) < len(records) {
		received = append(received, readClassified(ctx, t, consumer))
	}

	pipelineCancel()
	require.NoError(t, <-errCh)

	require.Len(t, received, len(records))
	regionCounts := map[domain.Region]int{}
	ids := map[string]bool{}
	for _, cm := range received {
		regionCounts[cm.Sample.Region]++
		ids[cm.Key] = true

		assert.Equal(t, string(cm.Sample.Region), cm.Headers["region"], "region header")
		assert.Equal(t, string(cm.Sample.Scenario), cm.Headers["scenario"], "scenario header")
		_, err := time.Parse(time.RFC3339, cm.Headers["processed_at"])
		assert.NoError(t, err, "invalid processed_at format")
		assert.Equal(t, domain.Classify(cm.Sample.Lon, cm.Sample.Lat), cm.Sample.Region)
	}

	assert.Equal(t, expectedRegionCounts, regionCounts)
	assert.Len(t, ids, len(records), "sample IDs should be unique")
	assert.NoError(t, p.CheckReadiness(ctx))
}

// TestPipelineTransformError verifies that an invalid message (poison pill) is
// skipped and the pipeline continues processing valid messages.
func TestPipelineTransformError(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)

	createTopic(t, broker, testSourceTopic)
	createTopic(t, broker, testSinkTopic)

	cfg := testConfig(broker, "test-poison")

	records := loadMockData(t)
	validPayload, err := json.Marshal(records[0])
	require.NoError(t, err)

	badScenario := records[0]
	badScenario.Scenario = "Business As Usual"
	badPayload, err := json.Marshal(badScenario)
	require.NoError(t, err)

	producer := &kafkago.Writer{
		Addr:  kafkago.TCP(broker),
		Topic: testSourceTopic,
	}
	t.Cleanup(func() { _ = producer.Close() })

	require.NoError(t, producer.WriteMessages(ctx,
		kafkago.Message{Key: []byte("bad-json"), Value: []byte("not-json{{{")},
		kafkago.Message{Key: []byte("bad-scenario"), Value: badPayload},
		kafkago.Message{Key: []byte("good"), Value: validPayload},
	))

	reader := kafka.NewReader(cfg, discardLogger())
	t.Cleanup(func() { _ = reader.Close() })

	transformer := pipeline.NewTransformer(discardLogger())

	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	metrics := observability.NewMetricsForTesting()
	p := pipeline.New(reader, transformer, writer, discardLogger(), metrics, 50)

	pipelineCtx, pipelineCancel := context.WithCancel(ctx)
	errCh := make(chan error, 1)
	go func() { errCh <- p.Run(pipelineCtx) }()

	// Only the valid message should appear on the sink topic.
	consumer := sinkConsumer(t, broker)

	cm := readClassified(ctx, t, consumer)
	assert.Equal(t, domain.RegionAntarctica, cm.Sample.Region)
	assert.Equal(t, domain.ScenarioLow, cm.Sample.Scenario)

	readCtx, readCancel := context.WithTimeout(ctx, 5*time.Second)
	_, err = consumer.ReadMessage(readCtx)
	readCancel()
	assert.Error(t, err, "expected no second message on sink topic")

	pipelineCancel()
	require.NoError(t, <-errCh)
}
