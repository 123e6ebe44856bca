package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"cablebill/internal/store"
	"cablebill/internal/store/storetest"
)

func TestStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		mr := miniredis.RunT(t)
		return NewWithClient(goredis.NewClient(&goredis.Options{Addr: mr.Addr()}), "test")
	})
}

func TestKeyLayout(t *testing.T) {
	mr := miniredis.RunT(t)
	s, err := New(context.Background(), mr.Addr(), "", 0, "")
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	require.NoError(t, s.SaveCounter(ctx, store.NextInvoiceID, 7))
	require.NoError(t, s.SaveAll(ctx, store.Customers, []store.Record{{ID: "CUST000001", Data: []byte(`{"id":"CUST000001"}`)}}))

	v, err := mr.Get("cablebill:counter:nextInvoiceId")
	require.NoError(t, err)
	require.Equal(t, "7", v)

	body, err := mr.Get("cablebill:customers")
	require.NoError(t, err)
	require.JSONEq(t, `[{"id":"CUST000001"}]`, body)
}

func TestNewFailsWhenUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := New(context.Background(), addr, "", 0, "")
	require.Error(t, err)
}
