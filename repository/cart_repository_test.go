package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/Jacob59569/Fast-Api-Stripe/models"
	"github.com/Jacob59569/Fast-Api-Stripe/repository"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupCartRepo(t *testing.T) (repository.CartRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return repository.NewRedisCartRepo(client, time.Hour), mr
}

func TestCartRepo_GetMissingCart(t *testing.T) {
	repo, _ := setupCartRepo(t)

	cart, err := repo.GetCart(context.Background(), "user-1")
	assert.NoError(t, err)
	assert.Nil(t, cart)
}

func TestCartRepo_SaveAndGet(t *testing.T) {
	repo, mr := setupCartRepo(t)
	ctx := context.Background()

	cart := &models.Cart{UserID: "user-1", Items: []models.LineItem{{Name: "Coffee Mug", UnitAmount: 1500, Quantity: 2}}}
	require.NoError(t, repo.SaveCart(ctx, cart))
	assert.False(t, cart.UpdatedAt.IsZero())
	assert.Equal(t, time.Hour, mr.TTL("cart:user:user-1"))

	got, err := repo.GetCart(ctx, "user-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, cart.Items, got.Items)
}

func TestCartRepo_Delete(t *testing.T) {
	repo, mr := setupCartRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.SaveCart(ctx, &models.Cart{UserID: "user-2"}))
	require.NoError(t, repo.DeleteCart(ctx, "user-2"))
	assert.False(t, mr.Exists("cart:user:user-2"))
}

func TestCartRepo_CorruptValue(t *testing.T) {
	repo, mr := setupCartRepo(t)
	require.NoError(t, mr.Set("cart:user:user-3", "{not json"))

	_, err := repo.GetCart(context.Background(), "user-3")
	assert.Error(t, err)
}
