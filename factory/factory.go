// Package factory constructs service clients from registered
// configuration entries.
package factory

import (
	"fmt"

	"github.com/fabianopinto/smoker-sub002/client"
	"github.com/fabianopinto/smoker-sub002/clients/cloudwatchclient"
	"github.com/fabianopinto/smoker-sub002/clients/kinesisclient"
	"github.com/fabianopinto/smoker-sub002/clients/mqttclient"
	"github.com/fabianopinto/smoker-sub002/clients/natsclient"
	"github.com/fabianopinto/smoker-sub002/clients/rest"
	"github.com/fabianopinto/smoker-sub002/clients/s3client"
	"github.com/fabianopinto/smoker-sub002/clients/sqsclient"
	"github.com/fabianopinto/smoker-sub002/clients/ssmclient"
	"github.com/fabianopinto/smoker-sub002/clients/wsclient"
	"github.com/fabianopinto/smoker-sub002/errors"
)

// constructor builds a concrete, uninitialized client.
type constructor func(name string, config client.Config) client.Client

// constructors is the closed mapping from client type to constructor.
// Adding a connector means adding exactly one entry here.
var constructors = map[client.Type]constructor{
	client.TypeRest: func(name string, config client.Config) client.Client {
		return rest.New(name, config)
	},
	client.TypeMQTT: func(name string, config client.Config) client.Client {
		return mqttclient.New(name, config)
	},
	client.TypeS3: func(name string, config client.Config) client.Client {
		return s3client.New(name, config)
	},
	client.TypeSQS: func(name string, config client.Config) client.Client {
		return sqsclient.New(name, config)
	},
	client.TypeKinesis: func(name string, config client.Config) client.Client {
		return kinesisclient.New(name, config)
	},
	client.TypeSSM: func(name string, config client.Config) client.Client {
		return ssmclient.New(name, config)
	},
	client.TypeCloudWatch: func(name string, config client.Config) client.Client {
		return cloudwatchclient.New(name, config)
	},
	client.TypeNATS: func(name string, config client.Config) client.Client {
		return natsclient.New(name, config)
	},
	client.TypeWebSocket: func(name string, config client.Config) client.Client {
		return wsclient.New(name, config)
	},
}

// Factory builds clients, pulling configuration from a registry. Every
// call returns a fresh uninitialized instance; caching instances is the
// caller's concern.
type Factory struct {
	registry *client.Registry
}

// New creates a factory over the given configuration registry.
func New(registry *client.Registry) *Factory {
	return &Factory{registry: registry}
}

// CreateClient constructs an uninitialized client of the given type.
// The optional id selects a suffixed configuration entry; a missing
// entry falls back to an empty configuration.
func (f *Factory) CreateClient(clientType client.Type, id string) (client.Client, error) {
	construct, ok := constructors[clientType]
	if !ok {
		return nil, errors.WrapConfig(
			fmt.Errorf("%w: %s", errors.ErrUnsupportedClientType, clientType),
			"Factory", "CreateClient", "resolve constructor")
	}

	config := f.registry.GetConfig(clientType, id)
	if config == nil {
		config = client.Config{}
	}

	return construct(client.CompositeKey(clientType, id), config), nil
}

// CreateClientForKey constructs a client from a composite key such as
// "rest" or "s3:backup".
func (f *Factory) CreateClientForKey(key string) (client.Client, error) {
	clientType, id := client.SplitKey(key)
	return f.CreateClient(clientType, id)
}

// SupportedTypes returns the types the factory can construct.
func (f *Factory) SupportedTypes() []client.Type {
	types := make([]client.Type, 0, len(constructors))
	for t := range constructors {
		types = append(types, t)
	}
	return types
}
