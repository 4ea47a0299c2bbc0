package main

import (
	"net"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRootCmd_Tree(t *testing.T) {
	root := rootCmd()

	serve, _, err := root.Find([]string{"serve"})
	require.NoError(t, err)
	require.Equal(t, "serve", serve.Name())
	require.NotNil(t, serve.Flags().Lookup("jwt-key"))
	require.NotNil(t, serve.Flags().Lookup("redis-addr"))

	for _, dir := range []string{"up", "status", "down"} {
		c, _, err := root.Find([]string{"migrate", dir})
		require.NoError(t, err)
		require.Equal(t, dir, c.Name())
		require.NotNil(t, c.Flags().Lookup("dsn"))
	}
}

func TestMigrate_RequiresDSN(t *testing.T) {
	t.Setenv("OBSERVER_DSN", "")
	root := rootCmd()
	root.SetArgs([]string{"migrate", "status", "--env-file="})
	root.SilenceErrors = true
	require.ErrorContains(t, root.Execute(), "dsn is required")
}

func TestServe_RejectsIncompleteConfig(t *testing.T) {
	t.Setenv("OBSERVER_DSN", "")
	t.Setenv("OBSERVER_JWT_KEY", "")
	root := rootCmd()
	root.SetArgs([]string{"serve", "--env-file="})
	root.SilenceErrors = true
	require.ErrorContains(t, root.Execute(), "jwt-key is required")
}

func TestListen_ReleasesHTTPWhenGRPCFails(t *testing.T) {
	busy, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = busy.Close() })

	free, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	httpAddr := free.Addr().String()
	require.NoError(t, free.Close())

	_, _, err = listen(httpAddr, busy.Addr().String())
	require.Error(t, err)

	// the HTTP port must be free again
	again, err := net.Listen("tcp", httpAddr)
	require.NoError(t, err)
	require.NoError(t, again.Close())
}

func TestListen_GRPCDisabled(t *testing.T) {
	hl, gl, err := listen("127.0.0.1:0", "")
	require.NoError(t, err)
	require.Nil(t, gl)
	require.NoError(t, hl.Close())
}
