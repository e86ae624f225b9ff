// Package kinesisclient provides the Kinesis stream client used by
// smoke scenarios.
package kinesisclient

import (
	"context"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/kinesis"
	kinesistypes "github.com/aws/aws-sdk-go-v2/service/kinesis/types"

	"github.com/fabianopinto/smoker-sub002/client"
	"github.com/fabianopinto/smoker-sub002/clients/awsconfig"
	"github.com/fabianopinto/smoker-sub002/errors"
	"github.com/fabianopinto/smoker-sub002/pkg/poll"
)

// API is the subset of the Kinesis service client we depend on.
// Narrowed so tests can inject a fake.
type API interface {
	PutRecord(context.Context, *kinesis.PutRecordInput, ...func(*kinesis.Options)) (*kinesis.PutRecordOutput, error)
	ListShards(context.Context, *kinesis.ListShardsInput, ...func(*kinesis.Options)) (*kinesis.ListShardsOutput, error)
	GetShardIterator(context.Context, *kinesis.GetShardIteratorInput, ...func(*kinesis.Options)) (*kinesis.GetShardIteratorOutput, error)
	GetRecords(context.Context, *kinesis.GetRecordsInput, ...func(*kinesis.Options)) (*kinesis.GetRecordsOutput, error)
}

// Record is a record read from the stream.
type Record struct {
	PartitionKey string
	Data         []byte
	ArrivedAt    time.Time
}

// Client writes and reads records on a single configured stream. Reads
// keep per-shard iterators so repeated polls advance through the stream
// instead of rereading it.
type Client struct {
	*client.Base

	api        API
	streamName string
	iterators  map[string]*string
}

// New creates an unconnected Kinesis client.
func New(name string, config client.Config) *Client {
	return &Client{Base: client.NewBase(name, config)}
}

// NewWithClient creates a client over an existing service client, for tests.
func NewWithClient(name string, config client.Config, api API) *Client {
	return &Client{Base: client.NewBase(name, config), api: api}
}

// Init resolves AWS configuration and the required "streamName" field.
func (c *Client) Init(ctx context.Context) error {
	streamName, err := c.RequireString("Init", "streamName")
	if err != nil {
		return err
	}

	if c.api == nil {
		cfg, err := awsconfig.Load(ctx, c.Base)
		if err != nil {
			return err
		}
		c.api = kinesis.NewFromConfig(cfg)
	}

	c.streamName = streamName
	c.iterators = make(map[string]*string)
	c.MarkInitialized()
	return nil
}

// Reset discards shard iterators so the next read starts fresh.
func (c *Client) Reset(_ context.Context) error {
	if err := c.EnsureInitialized("Reset"); err != nil {
		return err
	}
	c.iterators = make(map[string]*string)
	return nil
}

// Destroy releases the service client. Idempotent.
func (c *Client) Destroy(_ context.Context) error {
	if c.IsDestroyed() {
		return nil
	}
	c.api = nil
	c.MarkDestroyed()
	return nil
}

// PutRecord writes data to the stream under a partition key and returns
// the sequence number.
func (c *Client) PutRecord(ctx context.Context, partitionKey string, data []byte) (string, error) {
	if err := c.EnsureInitialized("PutRecord"); err != nil {
		return "", err
	}
	out, err := c.api.PutRecord(ctx, &kinesis.PutRecordInput{
		StreamName:   aws.String(c.streamName),
		PartitionKey: aws.String(partitionKey),
		Data:         data,
	})
	if err != nil {
		return "", errors.WrapUpstream(err, c.Name(), "PutRecord", "put record")
	}
	return aws.ToString(out.SequenceNumber), nil
}

// ReadRecords drains the currently available records from every shard.
func (c *Client) ReadRecords(ctx context.Context) ([]Record, error) {
	if err := c.EnsureInitialized("ReadRecords"); err != nil {
		return nil, err
	}

	shards, err := c.api.ListShards(ctx, &kinesis.ListShardsInput{
		StreamName: aws.String(c.streamName),
	})
	if err != nil {
		return nil, errors.WrapUpstream(err, c.Name(), "ReadRecords", "list shards")
	}

	var records []Record
	for _, shard := range shards.Shards {
		shardID := aws.ToString(shard.ShardId)
		iterator, ok := c.iterators[shardID]
		if !ok {
			out, err := c.api.GetShardIterator(ctx, &kinesis.GetShardIteratorInput{
				StreamName:        aws.String(c.streamName),
				ShardId:           aws.String(shardID),
				ShardIteratorType: c.iteratorType(),
			})
			if err != nil {
				return nil, errors.WrapUpstream(err, c.Name(), "ReadRecords",
					"get iterator for shard "+shardID)
			}
			iterator = out.ShardIterator
		}

		out, err := c.api.GetRecords(ctx, &kinesis.GetRecordsInput{
			ShardIterator: iterator,
		})
		if err != nil {
			return nil, errors.WrapUpstream(err, c.Name(), "ReadRecords",
				"read shard "+shardID)
		}
		c.iterators[shardID] = out.NextShardIterator

		for _, rec := range out.Records {
			records = append(records, Record{
				PartitionKey: aws.ToString(rec.PartitionKey),
				Data:         rec.Data,
				ArrivedAt:    aws.ToTime(rec.ApproximateArrivalTimestamp),
			})
		}
	}
	return records, nil
}

// WaitForRecord polls the stream until a record arrives whose data
// contains the given substring (empty matches any record). Absence
// within the timeout is reported as found=false, not an error.
func (c *Client) WaitForRecord(
	ctx context.Context, contains string, cfg poll.Config,
) (*Record, bool, error) {
	if err := c.EnsureInitialized("WaitForRecord"); err != nil {
		return nil, false, err
	}

	return poll.Until(ctx, cfg, c.Name(), "stream record",
		func(ctx context.Context) (*Record, bool, error) {
			records, err := c.ReadRecords(ctx)
			if err != nil {
				return nil, false, err
			}
			for i := range records {
				if contains == "" || strings.Contains(string(records[i].Data), contains) {
					return &records[i], true, nil
				}
			}
			return nil, false, nil
		})
}

func (c *Client) iteratorType() kinesistypes.ShardIteratorType {
	if c.ConfigString("iteratorType", "") == "latest" {
		return kinesistypes.ShardIteratorTypeLatest
	}
	return kinesistypes.ShardIteratorTypeTrimHorizon
}
