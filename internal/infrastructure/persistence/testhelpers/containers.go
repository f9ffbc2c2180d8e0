package testhelpers

import (
	"context"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const startupTimeout = 60 * time.Second

// endpoint is where a started container can be reached from the test.
type endpoint struct {
	container testcontainers.Container
	host      string
	port      int
}

func startContainer(t *testing.T, image, port string, env map[string]string, ready wait.Strategy) endpoint {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        image,
			ExposedPorts: []string{port + "/tcp"},
			Env:          env,
			WaitingFor:   ready,
		},
		Started: true,
	})
	require.NoError(t, err, "start %s", image)

	host, err := container.Host(ctx)
	require.NoError(t, err)

	mapped, err := container.MappedPort(ctx, nat.Port(port))
	require.NoError(t, err)

	return endpoint{container: container, host: host, port: mapped.Int()}
}

func (e endpoint) terminate(t *testing.T) {
	t.Helper()
	require.NoError(t, e.container.Terminate(context.Background()))
}
