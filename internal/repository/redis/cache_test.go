package redis

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeys(t *testing.T) {
	assert.Equal(t, "gatepass:v1:event:7:summary", KeyEventSummary(7))
	assert.Equal(t, "gatepass:v1:event:7:sections", KeyEventSections(7))
	assert.Equal(t, "gatepass:v1:events:list", KeyEventList())
}

func TestCache_GetString(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	c := New(rdb)

	mock.ExpectGet("k").RedisNil()
	_, ok, err := c.GetString(context.Background(), "k")
	require.NoError(t, err)
	assert.False(t, ok)

	mock.ExpectGet("k").SetVal("v")
	v, ok, err := c.GetString(context.Background(), "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", v)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCache_SetString(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	c := New(rdb)

	mock.ExpectSet("k", "v", time.Minute).SetVal("OK")
	require.NoError(t, c.SetString(context.Background(), "k", "v", time.Minute))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCache_InvalidateEvent(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	c := New(rdb)

	mock.ExpectDel(
		KeyEventSummary(7),
		KeyEventSections(7),
		KeyEventList(),
	).SetVal(3)

	require.NoError(t, c.InvalidateEvent(context.Background(), 7))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetOrSetJSON_MissLoadsAndStores(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	c := New(rdb)

	type payload struct {
		Name string `json:"name"`
	}

	mock.ExpectGet("k").RedisNil()
	mock.ExpectGet("k").RedisNil() // re-check inside singleflight
	mock.ExpectSet("k", `{"name":"a"}`, time.Minute).SetVal("OK")

	var calls int
	got, err := GetOrSetJSON(context.Background(), c, "k", time.Minute,
		func(ctx context.Context) (payload, error) {
			calls++
			return payload{Name: "a"}, nil
		})
	require.NoError(t, err)
	assert.Equal(t, "a", got.Name)
	assert.Equal(t, 1, calls)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetOrSetJSON_HitSkipsLoader(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	c := New(rdb)

	type payload struct {
		Name string `json:"name"`
	}

	mock.ExpectGet("k").SetVal(`{"name":"cached"}`)

	got, err := GetOrSetJSON(context.Background(), c, "k", time.Minute,
		func(ctx context.Context) (payload, error) {
			t.Fatal("loader must not run on a hit")
			return payload{}, nil
		})
	require.NoError(t, err)
	assert.Equal(t, "cached", got.Name)

	assert.NoError(t, mock.ExpectationsWereMet())
}
