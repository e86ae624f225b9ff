// Package steps wires scenario step definitions to the World. Each
// scenario gets a fresh World; step parameters pass through the
// reference resolver before use, so feature text can carry config: and
// prop: tokens.
package steps

import (
	"context"
	"fmt"
	"strings"

	"github.com/cucumber/godog"

	"github.com/fabianopinto/smoker-sub002/client"
	"github.com/fabianopinto/smoker-sub002/config"
	"github.com/fabianopinto/smoker-sub002/world"
)

// Context carries one scenario's state through its steps. A fresh World
// is built before every scenario so state never leaks between them.
type Context struct {
	provider config.Provider
	opts     []world.Option
	world    *world.World
}

// NewContext creates a step context over a configuration provider. The
// options are applied to every World it builds.
func NewContext(provider config.Provider, opts ...world.Option) *Context {
	return &Context{provider: provider, opts: opts}
}

// Register binds all step definitions and lifecycle hooks to the
// scenario context.
func (c *Context) Register(sc *godog.ScenarioContext) {
	sc.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
		c.world = world.New(c.provider, c.opts...)
		return ctx, nil
	})
	sc.Given(`^a REST client with base URL "([^"]*)"$`, c.aRestClientWithBaseURL)
	sc.Given(`^the property "([^"]*)" is set to "([^"]*)"$`, c.thePropertyIsSetTo)
	sc.Given(`^all configured clients are created$`, c.allConfiguredClientsAreCreated)
	sc.Given(`^all clients are initialized$`, c.allClientsAreInitialized)

	sc.When(`^I send a GET request to "([^"]*)"$`, c.iSendAGetRequestTo)
	sc.When(`^I send a POST request to "([^"]*)" with body "([^"]*)"$`, c.iSendAPostRequestTo)

	sc.Then(`^the response status should be (\d+)$`, c.theResponseStatusShouldBe)
	sc.Then(`^the response body should contain "([^"]*)"$`, c.theResponseBodyShouldContain)
	sc.Then(`^the REST client should not be initialized$`, c.theRestClientShouldNotBeInitialized)
	sc.Then(`^the REST client should be initialized$`, c.theRestClientShouldBeInitialized)
	sc.Then(`^"([^"]*)" should resolve to "([^"]*)"$`, c.shouldResolveTo)

	sc.After(func(ctx context.Context, _ *godog.Scenario, _ error) (context.Context, error) {
		return ctx, c.world.DestroyClients(ctx)
	})
}

func (c *Context) aRestClientWithBaseURL(raw string) error {
	baseURL, err := c.world.ResolveStepParameter(raw)
	if err != nil {
		return err
	}
	c.world.RegisterClientConfig(client.TypeRest, client.Config{"baseURL": baseURL}, "")
	return nil
}

func (c *Context) thePropertyIsSetTo(path, value string) error {
	return c.world.SetProperty(path, value)
}

func (c *Context) allConfiguredClientsAreCreated() error {
	return c.world.CreateAndRegisterDefaultClients()
}

func (c *Context) allClientsAreInitialized(ctx context.Context) error {
	return c.world.InitializeClients(ctx)
}

func (c *Context) iSendAGetRequestTo(ctx context.Context, raw string) error {
	path, err := c.world.ResolveStepParameter(raw)
	if err != nil {
		return err
	}
	restClient, err := c.world.GetRest("")
	if err != nil {
		return err
	}
	resp, err := restClient.Get(ctx, path, nil)
	c.world.SetLastError(err)
	if err != nil {
		return err
	}
	c.world.SetLastResponse(resp)
	c.world.SetLastContent(resp.BodyString())
	return nil
}

func (c *Context) iSendAPostRequestTo(ctx context.Context, rawPath, rawBody string) error {
	path, err := c.world.ResolveStepParameter(rawPath)
	if err != nil {
		return err
	}
	body, err := c.world.ResolveStepParameter(rawBody)
	if err != nil {
		return err
	}
	restClient, err := c.world.GetRest("")
	if err != nil {
		return err
	}
	resp, err := restClient.Post(ctx, path, []byte(body), nil)
	c.world.SetLastError(err)
	if err != nil {
		return err
	}
	c.world.SetLastResponse(resp)
	c.world.SetLastContent(resp.BodyString())
	return nil
}

func (c *Context) theResponseStatusShouldBe(expected int) error {
	resp := c.world.LastResponse()
	if resp == nil {
		return fmt.Errorf("no response captured")
	}
	if resp.StatusCode != expected {
		return fmt.Errorf("expected status %d, got %d", expected, resp.StatusCode)
	}
	return nil
}

func (c *Context) theResponseBodyShouldContain(raw string) error {
	expected, err := c.world.ResolveStepParameter(raw)
	if err != nil {
		return err
	}
	if !strings.Contains(c.world.LastContent(), expected) {
		return fmt.Errorf("response body %q does not contain %q", c.world.LastContent(), expected)
	}
	return nil
}

func (c *Context) theRestClientShouldNotBeInitialized() error {
	restClient, err := c.world.GetRest("")
	if err != nil {
		return err
	}
	if restClient.IsInitialized() {
		return fmt.Errorf("expected client %s to be uninitialized", restClient.Name())
	}
	return nil
}

func (c *Context) theRestClientShouldBeInitialized() error {
	restClient, err := c.world.GetRest("")
	if err != nil {
		return err
	}
	if !restClient.IsInitialized() {
		return fmt.Errorf("expected client %s to be initialized", restClient.Name())
	}
	return nil
}

func (c *Context) shouldResolveTo(raw, expected string) error {
	resolved, err := c.world.ResolveStepParameter(raw)
	if err != nil {
		return err
	}
	if resolved != expected {
		return fmt.Errorf("expected %q to resolve to %q, got %q", raw, expected, resolved)
	}
	return nil
}
