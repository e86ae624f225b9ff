// Package ssmclient provides the SSM Parameter Store client used by
// smoke scenarios.
package ssmclient

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	ssmtypes "github.com/aws/aws-sdk-go-v2/service/ssm/types"

	"github.com/fabianopinto/smoker-sub002/client"
	"github.com/fabianopinto/smoker-sub002/clients/awsconfig"
	"github.com/fabianopinto/smoker-sub002/errors"
)

// API is the subset of the SSM service client we depend on. Narrowed so
// tests can inject a fake.
type API interface {
	GetParameter(context.Context, *ssm.GetParameterInput, ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
	PutParameter(context.Context, *ssm.PutParameterInput, ...func(*ssm.Options)) (*ssm.PutParameterOutput, error)
	DeleteParameter(context.Context, *ssm.DeleteParameterInput, ...func(*ssm.Options)) (*ssm.DeleteParameterOutput, error)
}

// Client reads and writes Parameter Store entries. A "prefix" config
// entry, when set, is prepended to every parameter name.
type Client struct {
	*client.Base

	api    API
	prefix string
}

// New creates an unconnected SSM client.
func New(name string, config client.Config) *Client {
	return &Client{Base: client.NewBase(name, config)}
}

// NewWithClient creates a client over an existing service client, for tests.
func NewWithClient(name string, config client.Config, api API) *Client {
	return &Client{Base: client.NewBase(name, config), api: api}
}

// Init resolves AWS configuration.
func (c *Client) Init(ctx context.Context) error {
	if c.api == nil {
		cfg, err := awsconfig.Load(ctx, c.Base)
		if err != nil {
			return err
		}
		c.api = ssm.NewFromConfig(cfg)
	}

	c.prefix = c.ConfigString("prefix", "")
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

// GetParameter reads a parameter value, decrypting SecureString entries.
func (c *Client) GetParameter(ctx context.Context, name string) (string, error) {
	if err := c.EnsureInitialized("GetParameter"); err != nil {
		return "", err
	}
	full := c.prefix + name
	out, err := c.api.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(full),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return "", errors.WrapUpstream(err, c.Name(), "GetParameter", "get "+full)
	}
	return aws.ToString(out.Parameter.Value), nil
}

// PutParameter writes a String parameter, overwriting any existing value.
func (c *Client) PutParameter(ctx context.Context, name, value string) error {
	if err := c.EnsureInitialized("PutParameter"); err != nil {
		return err
	}
	full := c.prefix + name
	_, err := c.api.PutParameter(ctx, &ssm.PutParameterInput{
		Name:      aws.String(full),
		Value:     aws.String(value),
		Type:      ssmtypes.ParameterTypeString,
		Overwrite: aws.Bool(true),
	})
	if err != nil {
		return errors.WrapUpstream(err, c.Name(), "PutParameter", "put "+full)
	}
	return nil
}

// DeleteParameter removes a parameter.
func (c *Client) DeleteParameter(ctx context.Context, name string) error {
	if err := c.EnsureInitialized("DeleteParameter"); err != nil {
		return err
	}
	full := c.prefix + name
	_, err := c.api.DeleteParameter(ctx, &ssm.DeleteParameterInput{
		Name: aws.String(full),
	})
	if err != nil {
		return errors.WrapUpstream(err, c.Name(), "DeleteParameter", "delete "+full)
	}
	return nil
}
