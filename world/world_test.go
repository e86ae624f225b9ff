package world

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fabianopinto/smoker-sub002/client"
	"github.com/fabianopinto/smoker-sub002/clients/rest"
	"github.com/fabianopinto/smoker-sub002/config"
	"github.com/fabianopinto/smoker-sub002/errors"
)

func newTestWorld(t *testing.T) *World {
	t.Helper()
	provider := config.NewStore(nil)
	provider.SetValue("api.version", "v2")
	return New(provider)
}

func TestEndToEndDefaultClients(t *testing.T) {
	ctx := context.Background()
	w := newTestWorld(t)

	w.RegisterClientConfig(client.TypeRest, client.Config{"baseURL": "https://api.x"}, "")
	require.NoError(t, w.CreateAndRegisterDefaultClients())

	restClient, err := w.GetRest("")
	require.NoError(t, err)
	assert.False(t, restClient.IsInitialized())

	require.NoError(t, w.InitializeClients(ctx))
	assert.True(t, restClient.IsInitialized())
}

func TestWorldsAreIndependent(t *testing.T) {
	a := newTestWorld(t)
	b := newTestWorld(t)

	assert.NotEqual(t, a.ID, b.ID)

	a.RegisterClientConfig(client.TypeRest, client.Config{"baseURL": "https://a"}, "")
	assert.Empty(t, b.Registry().Keys())

	require.NoError(t, a.SetProperty("user.name", "John"))
	_, err := b.GetProperty("user.name")
	assert.Error(t, err)
}

func TestGetClientMissing(t *testing.T) {
	w := newTestWorld(t)

	_, err := w.GetClient("rest")
	require.Error(t, err)
	assert.True(t, errors.IsLookup(err))
	assert.Contains(t, err.Error(), "rest")
}

func TestRegisterClientOverwrites(t *testing.T) {
	w := newTestWorld(t)

	first := rest.New("rest", client.Config{"baseURL": "https://a"})
	second := rest.New("rest", client.Config{"baseURL": "https://b"})
	w.RegisterClient("rest", first)
	w.RegisterClient("rest", second)

	got, err := w.GetClient("rest")
	require.NoError(t, err)
	assert.Same(t, second, got)
}

func TestTypedGetterWrongType(t *testing.T) {
	w := newTestWorld(t)
	w.RegisterClient("s3", rest.New("s3", client.Config{"baseURL": "https://a"}))

	_, err := w.GetS3("")
	require.Error(t, err)
	assert.True(t, errors.IsLookup(err))
	assert.Contains(t, err.Error(), "unexpected type")
}

func TestTypedGetterWithID(t *testing.T) {
	w := newTestWorld(t)
	w.RegisterClientConfig(client.TypeRest, client.Config{"baseURL": "https://b"}, "backup")
	require.NoError(t, w.CreateAndRegisterDefaultClients())

	restClient, err := w.GetRest("backup")
	require.NoError(t, err)
	assert.Equal(t, "rest:backup", restClient.Name())
}

func TestCreateClientUnsupportedType(t *testing.T) {
	w := newTestWorld(t)

	_, err := w.CreateClient("graphql", "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrUnsupportedClientType))
}

func TestCreateClientFreshInstances(t *testing.T) {
	w := newTestWorld(t)
	w.RegisterClientConfig(client.TypeRest, client.Config{"baseURL": "https://a"}, "")

	first, err := w.CreateClient(client.TypeRest, "")
	require.NoError(t, err)
	second, err := w.CreateClient(client.TypeRest, "")
	require.NoError(t, err)
	assert.NotSame(t, first, second)
}

func TestResetClientsClearsSlots(t *testing.T) {
	ctx := context.Background()
	w := newTestWorld(t)

	w.RegisterClientConfig(client.TypeRest, client.Config{"baseURL": "https://a"}, "")
	require.NoError(t, w.CreateAndRegisterDefaultClients())
	require.NoError(t, w.InitializeClients(ctx))

	w.SetLastContent("body")
	w.SetLastError(errors.New("step failed"))
	w.SetLastResponse(&rest.Response{StatusCode: 200})

	require.NoError(t, w.ResetClients(ctx))
	assert.Empty(t, w.LastContent())
	assert.NoError(t, w.LastError())
	assert.Nil(t, w.LastResponse())

	restClient, err := w.GetRest("")
	require.NoError(t, err)
	assert.True(t, restClient.IsInitialized())
}

func TestDestroyClientsDropsInstances(t *testing.T) {
	ctx := context.Background()
	w := newTestWorld(t)

	w.RegisterClientConfig(client.TypeRest, client.Config{"baseURL": "https://a"}, "")
	require.NoError(t, w.CreateAndRegisterDefaultClients())
	require.NoError(t, w.InitializeClients(ctx))

	restClient, err := w.GetRest("")
	require.NoError(t, err)

	require.NoError(t, w.DestroyClients(ctx))
	assert.False(t, restClient.IsInitialized())
	assert.False(t, w.HasClient("rest"))
}

func TestInitializeClientByName(t *testing.T) {
	ctx := context.Background()
	w := newTestWorld(t)

	w.RegisterClientConfig(client.TypeRest, client.Config{"baseURL": "https://a"}, "")
	w.RegisterClientConfig(client.TypeRest, client.Config{"baseURL": "https://b"}, "backup")
	require.NoError(t, w.CreateAndRegisterDefaultClients())

	require.NoError(t, w.InitializeClient(ctx, "rest:backup"))

	backup, err := w.GetRest("backup")
	require.NoError(t, err)
	assert.True(t, backup.IsInitialized())

	base, err := w.GetRest("")
	require.NoError(t, err)
	assert.False(t, base.IsInitialized())
}

func TestPropertyRoundTrip(t *testing.T) {
	w := newTestWorld(t)

	require.NoError(t, w.SetProperty("user.name", "John"))
	value, err := w.GetProperty("user.name")
	require.NoError(t, err)
	assert.Equal(t, "John", value)

	ok, err := w.HasProperty("user.name")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, w.RemoveProperty("user.name"))
	ok, err = w.HasProperty("user.name")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStepParameterResolution(t *testing.T) {
	w := newTestWorld(t)

	require.NoError(t, w.SetProperty("user.name", "John"))

	out, err := w.ResolveStepParameter("Hi prop:user.name, api is config:api.version")
	require.NoError(t, err)
	assert.Equal(t, "Hi John, api is v2", out)
}

func TestScratchSlots(t *testing.T) {
	w := newTestWorld(t)

	resp := &rest.Response{StatusCode: 201, Body: []byte("created")}
	w.SetLastResponse(resp)
	w.SetLastContent(resp.BodyString())
	stepErr := errors.New("boom")
	w.SetLastError(stepErr)

	assert.Same(t, resp, w.LastResponse())
	assert.Equal(t, "created", w.LastContent())
	assert.Same(t, stepErr, w.LastError())

	w.ClearSlots()
	assert.Nil(t, w.LastResponse())
	assert.Empty(t, w.LastContent())
	assert.NoError(t, w.LastError())
}
