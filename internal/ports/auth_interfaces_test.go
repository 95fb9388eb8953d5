package ports_test

import (
	"testing"

	"github.com/socialadify/adify-console/internal/adapters/apiclient"
	redisadapter "github.com/socialadify/adify-console/internal/adapters/redis"
	"github.com/socialadify/adify-console/internal/adapters/sqlite"
	"github.com/socialadify/adify-console/internal/mocks"
	fakes "github.com/socialadify/adify-console/internal/mocks/auth"
	"github.com/socialadify/adify-console/internal/ports"
)

// This test only verifies that adapters and test doubles conform to the ports at compile time.
func TestImplementationsSatisfyPorts(t *testing.T) {
	t.Helper()

	var _ ports.KeyValueStore = (*fakes.MemoryKV)(nil)
	var _ ports.KeyValueStore = (*sqlite.KVStore)(nil)
	var _ ports.KeyValueStore = (*redisadapter.KVStore)(nil)
	var _ ports.AuthGateway = (*fakes.FakeGateway)(nil)
	var _ ports.AuthGateway = (*mocks.MockAuthGateway)(nil)
	var _ ports.AuthGateway = (*apiclient.Gateway)(nil)
}
