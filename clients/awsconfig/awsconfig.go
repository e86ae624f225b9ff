// Package awsconfig builds aws.Config values from client configuration
// entries shared by all AWS-backed clients.
package awsconfig

import (
	"context"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"

	"github.com/fabianopinto/smoker-sub002/client"
	"github.com/fabianopinto/smoker-sub002/errors"
)

const defaultHTTPTimeout = 30 * time.Second

// Load resolves an aws.Config from the client's configuration entries.
// "region" overrides the SDK default chain when set. "endpoint" points
// the SDK at a local stack such as LocalStack. "accessKeyId"/
// "secretAccessKey" select static credentials over the default chain.
func Load(ctx context.Context, base *client.Base) (aws.Config, error) {
	loadOpts := []func(*config.LoadOptions) error{
		config.WithHTTPClient(&http.Client{
			Timeout: base.ConfigDuration("httpTimeout", defaultHTTPTimeout),
		}),
	}
	if region := base.ConfigString("region", ""); region != "" {
		loadOpts = append(loadOpts, config.WithRegion(region))
	}
	if accessKeyID := base.ConfigString("accessKeyId", ""); accessKeyID != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(
				accessKeyID,
				base.ConfigString("secretAccessKey", ""),
				base.ConfigString("sessionToken", ""),
			)))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return aws.Config{}, errors.WrapConfig(err, base.Name(), "Init", "load AWS configuration")
	}

	if endpoint := base.ConfigString("endpoint", ""); endpoint != "" {
		cfg.BaseEndpoint = aws.String(endpoint)
	}

	return cfg, nil
}
