// Package s3client provides the S3 object storage client used by smoke
// scenarios.
package s3client

import (
	"bytes"
	"context"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/fabianopinto/smoker-sub002/client"
	"github.com/fabianopinto/smoker-sub002/clients/awsconfig"
	"github.com/fabianopinto/smoker-sub002/errors"
	"github.com/fabianopinto/smoker-sub002/pkg/poll"
)

// API is the subset of the S3 service client we depend on. Narrowed so
// tests can inject a fake.
type API interface {
	PutObject(context.Context, *s3.PutObjectInput, ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(context.Context, *s3.GetObjectInput, ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(context.Context, *s3.HeadObjectInput, ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	DeleteObject(context.Context, *s3.DeleteObjectInput, ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	ListObjectsV2(context.Context, *s3.ListObjectsV2Input, ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// Client reads and writes objects in a single configured bucket.
type Client struct {
	*client.Base

	api    API
	bucket string
}

// New creates an unconnected S3 client.
func New(name string, config client.Config) *Client {
	return &Client{Base: client.NewBase(name, config)}
}

// NewWithClient creates a client over an existing service client, for tests.
func NewWithClient(name string, config client.Config, api API) *Client {
	return &Client{Base: client.NewBase(name, config), api: api}
}

// Init resolves AWS configuration and the required "bucket" field.
func (c *Client) Init(ctx context.Context) error {
	bucket, err := c.RequireString("Init", "bucket")
	if err != nil {
		return err
	}

	if c.api == nil {
		cfg, err := awsconfig.Load(ctx, c.Base)
		if err != nil {
			return err
		}
		c.api = s3.NewFromConfig(cfg, func(o *s3.Options) {
			// LocalStack and minio want path-style addressing.
			if cfg.BaseEndpoint != nil {
				o.UsePathStyle = true
			}
		})
	}

	c.bucket = bucket
	c.MarkInitialized()
	return nil
}

// Reset keeps the service client; there is no connection state to clear.
func (c *Client) Reset(_ context.Context) error {
	return c.EnsureInitialized("Reset")
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

// PutObject writes data under the given key.
func (c *Client) PutObject(ctx context.Context, key string, data []byte) error {
	if err := c.EnsureInitialized("PutObject"); err != nil {
		return err
	}
	_, err := c.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return errors.WrapUpstream(err, c.Name(), "PutObject", "put "+key)
	}
	return nil
}

// GetObject reads the object stored under the given key.
func (c *Client) GetObject(ctx context.Context, key string) ([]byte, error) {
	if err := c.EnsureInitialized("GetObject"); err != nil {
		return nil, err
	}
	out, err := c.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, errors.WrapUpstream(err, c.Name(), "GetObject", "get "+key)
	}
	defer out.Body.Close()
	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, errors.WrapUpstream(err, c.Name(), "GetObject", "read body of "+key)
	}
	return data, nil
}

// ObjectExists reports whether an object is stored under the given key.
func (c *Client) ObjectExists(ctx context.Context, key string) (bool, error) {
	if err := c.EnsureInitialized("ObjectExists"); err != nil {
		return false, err
	}
	_, err := c.api.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, errors.WrapUpstream(err, c.Name(), "ObjectExists", "head "+key)
	}
	return true, nil
}

// DeleteObject removes the object stored under the given key.
func (c *Client) DeleteObject(ctx context.Context, key string) error {
	if err := c.EnsureInitialized("DeleteObject"); err != nil {
		return err
	}
	_, err := c.api.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return errors.WrapUpstream(err, c.Name(), "DeleteObject", "delete "+key)
	}
	return nil
}

// ListKeys returns the object keys under a prefix.
func (c *Client) ListKeys(ctx context.Context, prefix string) ([]string, error) {
	if err := c.EnsureInitialized("ListKeys"); err != nil {
		return nil, err
	}

	var keys []string
	var token *string
	for {
		out, err := c.api.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(c.bucket),
			Prefix:            aws.String(prefix),
			ContinuationToken: token,
		})
		if err != nil {
			return nil, errors.WrapUpstream(err, c.Name(), "ListKeys", "list prefix "+prefix)
		}
		for _, obj := range out.Contents {
			keys = append(keys, aws.ToString(obj.Key))
		}
		if out.NextContinuationToken == nil {
			break
		}
		token = out.NextContinuationToken
	}
	return keys, nil
}

// WaitForObject polls until an object appears under the given key.
// Absence within the timeout is reported as found=false, not an error.
func (c *Client) WaitForObject(
	ctx context.Context, key string, cfg poll.Config,
) ([]byte, bool, error) {
	if err := c.EnsureInitialized("WaitForObject"); err != nil {
		return nil, false, err
	}

	return poll.Until(ctx, cfg, c.Name(), "object "+key,
		func(ctx context.Context) ([]byte, bool, error) {
			exists, err := c.ObjectExists(ctx, key)
			if err != nil || !exists {
				return nil, false, err
			}
			data, err := c.GetObject(ctx, key)
			if err != nil {
				return nil, false, err
			}
			return data, true, nil
		})
}

func isNotFound(err error) bool {
	var apiErr interface{ ErrorCode() string }
	if errors.As(err, &apiErr) {
		code := apiErr.ErrorCode()
		return code == "NotFound" || code == "NoSuchKey" || code == "404"
	}
	return strings.Contains(err.Error(), "StatusCode: 404")
}
