package config

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	v := New()
	assert.Equal(t, "8080", v.GetString("port"))
	assert.Equal(t, 30*time.Minute, v.GetDuration("fee_cache_ttl"))
	assert.Equal(t, 10*time.Minute, v.GetDuration("fee_cache_sweep_interval"))
	assert.Equal(t, 24*time.Hour, v.GetDuration("snapshot_cache_ttl"))
	assert.Equal(t, "5 20 * * *", v.GetString("snapshot_cron"))
	assert.Equal(t, 14*24*time.Hour, v.GetDuration("snapshot_freeze_window"))
	assert.Equal(t, "Africa/Kampala", v.GetString("timezone"))
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("FEE_CACHE_TTL", "5m")
	t.Setenv("SNAPSHOT_CRON", "0 22 * * *")

	v := New()
	assert.Equal(t, 5*time.Minute, v.GetDuration("fee_cache_ttl"))
	assert.Equal(t, "0 22 * * *", v.GetString("snapshot_cron"))
}

func TestConnectRedis(t *testing.T) {
	orig := Conf
	t.Cleanup(func() { Conf = orig })

	t.Run("disabled without address", func(t *testing.T) {
		Conf = New()
		Conf.Set("redis_addr", "")
		assert.Nil(t, ConnectRedis(context.Background()))
	})

	t.Run("connects to running server", func(t *testing.T) {
		mr := miniredis.RunT(t)
		Conf = New()
		Conf.Set("redis_addr", mr.Addr())

		rdb := ConnectRedis(context.Background())
		require.NotNil(t, rdb)
		defer rdb.Close()
		assert.NoError(t, rdb.Ping(context.Background()).Err())
	})
}
