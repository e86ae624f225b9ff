// Package world provides the per-scenario composition root. A World owns
// the configuration registry, the client factory, the property store, the
// reference resolver, and the named client instances a scenario works
// with. Worlds are never shared across scenarios.
package world

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

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
	"github.com/fabianopinto/smoker-sub002/config"
	"github.com/fabianopinto/smoker-sub002/errors"
	"github.com/fabianopinto/smoker-sub002/factory"
	"github.com/fabianopinto/smoker-sub002/metric"
	"github.com/fabianopinto/smoker-sub002/properties"
)

// Option configures a World at construction time.
type Option func(*World)

// WithLogger sets the logger scenarios report through.
func WithLogger(logger *slog.Logger) Option {
	return func(w *World) { w.logger = logger }
}

// WithMetrics attaches harness metrics.
func WithMetrics(metrics *metric.Metrics) Option {
	return func(w *World) { w.metrics = metrics }
}

// World is the scenario context: one instance per scenario, composing
// every core subsystem plus scratch slots steps hand results through.
type World struct {
	ID string

	registry *client.Registry
	factory  *factory.Factory
	props    *properties.Store
	resolver *properties.Resolver
	provider config.Provider

	logger  *slog.Logger
	metrics *metric.Metrics

	mu      sync.RWMutex
	clients map[string]client.Client

	lastResponse *rest.Response
	lastContent  string
	lastErr      error
}

// New creates an empty World over the given configuration provider.
func New(provider config.Provider, opts ...Option) *World {
	registry := client.NewRegistry()
	props := properties.NewStore()

	w := &World{
		ID:       uuid.NewString(),
		registry: registry,
		factory:  factory.New(registry),
		props:    props,
		resolver: properties.NewResolver(props, provider),
		provider: provider,
		logger:   slog.Default(),
		clients:  make(map[string]client.Client),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.With(slog.String("scenario", w.ID))
	return w
}

// Registry returns the configuration registry.
func (w *World) Registry() *client.Registry {
	return w.registry
}

// Properties returns the scenario's property store.
func (w *World) Properties() *properties.Store {
	return w.props
}

// --- configuration registration ---

// RegisterClientConfig stores a configuration entry for a client type.
func (w *World) RegisterClientConfig(clientType client.Type, entry client.Config, id string) {
	w.registry.RegisterConfig(clientType, entry, id)
}

// RegisterClientConfigs registers a batch of type -> entry-or-entries pairs.
func (w *World) RegisterClientConfigs(configs map[client.Type]any) {
	w.registry.RegisterConfigs(configs)
}

// --- client creation and registration ---

// CreateClient constructs a fresh uninitialized client from registered
// configuration. The instance is not registered; use RegisterClient or
// CreateAndRegisterClient for that.
func (w *World) CreateClient(clientType client.Type, id string) (client.Client, error) {
	c, err := w.factory.CreateClient(clientType, id)
	if err != nil {
		w.metrics.ObserveLookup("factory", err)
		return nil, err
	}
	w.metrics.ObserveLookup("factory", nil)
	return c, nil
}

// RegisterClient stores a client instance under a name. An occupied name
// is silently overwritten; the previous instance is not destroyed.
func (w *World) RegisterClient(name string, c client.Client) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, exists := w.clients[name]; exists {
		w.logger.Debug("overwriting registered client", slog.String("client", name))
	}
	w.clients[name] = c
}

// CreateAndRegisterClient builds a client from registered configuration
// and registers it under its composite key.
func (w *World) CreateAndRegisterClient(clientType client.Type, id string) (client.Client, error) {
	c, err := w.CreateClient(clientType, id)
	if err != nil {
		return nil, err
	}
	w.RegisterClient(client.CompositeKey(clientType, id), c)
	return c, nil
}

// CreateAndRegisterDefaultClients builds one client for every registered
// configuration entry and registers each under its composite key. The
// instances are left uninitialized.
func (w *World) CreateAndRegisterDefaultClients() error {
	for _, key := range w.registry.Keys() {
		c, err := w.factory.CreateClientForKey(key)
		if err != nil {
			return err
		}
		w.RegisterClient(key, c)
	}
	return nil
}

// GetClient returns the registered client with the given name, or an
// error naming the missing client.
func (w *World) GetClient(name string) (client.Client, error) {
	w.mu.RLock()
	c, ok := w.clients[name]
	w.mu.RUnlock()
	if !ok {
		return nil, errors.WrapLookup(
			errors.New("no client registered under "+name),
			"World", "GetClient", "look up "+name)
	}
	return c, nil
}

// HasClient reports whether a client is registered under the name.
func (w *World) HasClient(name string) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	_, ok := w.clients[name]
	return ok
}

// ClientNames returns the names of all registered clients.
func (w *World) ClientNames() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	names := make([]string, 0, len(w.clients))
	for name := range w.clients {
		names = append(names, name)
	}
	return names
}

// --- typed getters ---

// GetRest returns the registered REST client with the given optional id.
func (w *World) GetRest(id string) (*rest.Client, error) {
	return typedClient[*rest.Client](w, client.TypeRest, id)
}

// GetMQTT returns the registered MQTT client with the given optional id.
func (w *World) GetMQTT(id string) (*mqttclient.Client, error) {
	return typedClient[*mqttclient.Client](w, client.TypeMQTT, id)
}

// GetS3 returns the registered S3 client with the given optional id.
func (w *World) GetS3(id string) (*s3client.Client, error) {
	return typedClient[*s3client.Client](w, client.TypeS3, id)
}

// GetSQS returns the registered SQS client with the given optional id.
func (w *World) GetSQS(id string) (*sqsclient.Client, error) {
	return typedClient[*sqsclient.Client](w, client.TypeSQS, id)
}

// GetKinesis returns the registered Kinesis client with the given optional id.
func (w *World) GetKinesis(id string) (*kinesisclient.Client, error) {
	return typedClient[*kinesisclient.Client](w, client.TypeKinesis, id)
}

// GetSSM returns the registered SSM client with the given optional id.
func (w *World) GetSSM(id string) (*ssmclient.Client, error) {
	return typedClient[*ssmclient.Client](w, client.TypeSSM, id)
}

// GetCloudWatch returns the registered CloudWatch Logs client with the
// given optional id.
func (w *World) GetCloudWatch(id string) (*cloudwatchclient.Client, error) {
	return typedClient[*cloudwatchclient.Client](w, client.TypeCloudWatch, id)
}

// GetNATS returns the registered NATS client with the given optional id.
func (w *World) GetNATS(id string) (*natsclient.Client, error) {
	return typedClient[*natsclient.Client](w, client.TypeNATS, id)
}

// GetWebSocket returns the registered WebSocket client with the given
// optional id.
func (w *World) GetWebSocket(id string) (*wsclient.Client, error) {
	return typedClient[*wsclient.Client](w, client.TypeWebSocket, id)
}

func typedClient[T client.Client](w *World, clientType client.Type, id string) (T, error) {
	var zero T
	key := client.CompositeKey(clientType, id)
	c, err := w.GetClient(key)
	if err != nil {
		return zero, err
	}
	typed, ok := c.(T)
	if !ok {
		return zero, errors.WrapLookup(
			errors.New("client "+key+" has unexpected type"),
			"World", "GetClient", "cast "+key)
	}
	return typed, nil
}

// --- lifecycle over all registered clients ---

// InitializeClients initializes every registered client, stopping at the
// first failure.
func (w *World) InitializeClients(ctx context.Context) error {
	for name, c := range w.snapshot() {
		if c.IsInitialized() {
			continue
		}
		w.logger.Debug("initializing client", slog.String("client", name))
		err := c.Init(ctx)
		w.metrics.ObserveLifecycle(name, "init", err)
		if err != nil {
			return err
		}
	}
	return nil
}

// InitializeClient initializes the single named client.
func (w *World) InitializeClient(ctx context.Context, name string) error {
	c, err := w.GetClient(name)
	if err != nil {
		return err
	}
	err = c.Init(ctx)
	w.metrics.ObserveLifecycle(name, "init", err)
	return err
}

// ResetClients resets every initialized client and clears the scratch
// slots. Failures are aggregated, not short-circuited.
func (w *World) ResetClients(ctx context.Context) error {
	var errs []error
	for name, c := range w.snapshot() {
		if !c.IsInitialized() {
			continue
		}
		err := c.Reset(ctx)
		w.metrics.ObserveLifecycle(name, "reset", err)
		if err != nil {
			errs = append(errs, err)
		}
	}
	w.ClearSlots()
	return errors.Join(errs...)
}

// DestroyClients destroys every registered client and drops the
// instances. Failures are aggregated so one broken client cannot keep
// the others alive.
func (w *World) DestroyClients(ctx context.Context) error {
	var errs []error
	for name, c := range w.snapshot() {
		err := c.Destroy(ctx)
		w.metrics.ObserveLifecycle(name, "destroy", err)
		if err != nil {
			errs = append(errs, err)
		}
	}
	w.mu.Lock()
	w.clients = make(map[string]client.Client)
	w.mu.Unlock()
	return errors.Join(errs...)
}

func (w *World) snapshot() map[string]client.Client {
	w.mu.RLock()
	defer w.mu.RUnlock()
	snapshot := make(map[string]client.Client, len(w.clients))
	for name, c := range w.clients {
		snapshot[name] = c
	}
	return snapshot
}

// --- property store ---

// SetProperty stores a value at a dotted path.
func (w *World) SetProperty(path string, value any) error {
	err := w.props.SetProperty(path, value)
	if err == nil {
		w.metrics.ObserveProperty("set")
	}
	return err
}

// GetProperty reads the value at a dotted path.
func (w *World) GetProperty(path string) (any, error) {
	return w.props.GetProperty(path)
}

// HasProperty reports whether a value exists at a dotted path.
func (w *World) HasProperty(path string) (bool, error) {
	return w.props.HasProperty(path)
}

// RemoveProperty deletes the value at a dotted path.
func (w *World) RemoveProperty(path string) error {
	err := w.props.RemoveProperty(path)
	if err == nil {
		w.metrics.ObserveProperty("remove")
	}
	return err
}

// PropertyMap returns a deep, independent copy of the property tree.
func (w *World) PropertyMap() map[string]any {
	return w.props.PropertyMap()
}

// --- reference resolution ---

// ResolveConfigValues substitutes config: tokens in the input.
func (w *World) ResolveConfigValues(input string) (string, error) {
	out, err := w.resolver.ResolveConfigValues(input)
	w.metrics.ObserveLookup("config", err)
	return out, err
}

// ResolvePropertyValues substitutes prop: tokens in the input.
func (w *World) ResolvePropertyValues(input string) (string, error) {
	out, err := w.resolver.ResolvePropertyValues(input)
	w.metrics.ObserveLookup("property", err)
	return out, err
}

// ResolveStepParameter substitutes config: tokens, then prop: tokens.
func (w *World) ResolveStepParameter(input string) (string, error) {
	return w.resolver.ResolveStepParameter(input)
}

// --- scratch slots ---

// SetLastResponse stores the most recent HTTP response.
func (w *World) SetLastResponse(resp *rest.Response) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.lastResponse = resp
}

// LastResponse returns the most recent HTTP response, or nil.
func (w *World) LastResponse() *rest.Response {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.lastResponse
}

// SetLastContent stores the most recent content string.
func (w *World) SetLastContent(content string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.lastContent = content
}

// LastContent returns the most recent content string.
func (w *World) LastContent() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.lastContent
}

// SetLastError stores the most recent step error.
func (w *World) SetLastError(err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.lastErr = err
}

// LastError returns the most recent step error, or nil.
func (w *World) LastError() error {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.lastErr
}

// ClearSlots resets all scratch slots.
func (w *World) ClearSlots() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.lastResponse = nil
	w.lastContent = ""
	w.lastErr = nil
}
