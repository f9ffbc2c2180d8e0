package testhelpers

import (
	"context"
	"fmt"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/wait"
)

type TestRedis struct {
	Client *redis.Client
	URL    string

	endpoint endpoint
}

func SetupTestRedis(t *testing.T) *TestRedis {
	t.Helper()

	ep := startContainer(t, "redis:7-alpine", "6379", nil,
		wait.ForLog("Ready to accept connections").WithStartupTimeout(startupTimeout))

	url := fmt.Sprintf("redis://%s:%d/0", ep.host, ep.port)
	opt, err := redis.ParseURL(url)
	require.NoError(t, err)

	client := redis.NewClient(opt)
	require.NoError(t, client.Ping(context.Background()).Err())

	return &TestRedis{Client: client, URL: url, endpoint: ep}
}

func (tr *TestRedis) Cleanup(t *testing.T) {
	require.NoError(t, tr.Client.Close())
	tr.endpoint.terminate(t)
}

func (tr *TestRedis) Flush(t *testing.T) {
	require.NoError(t, tr.Client.FlushDB(context.Background()).Err())
}
