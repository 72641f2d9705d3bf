package localstore

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/ponchomart/storefront/internal/config"
	"github.com/ponchomart/storefront/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, config.Migrate(db))
	return New(db)
}

func TestUserByLoginID(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	user := models.User{Name: "Taro", Email: "taro@example.com", LoginID: "taro", PasswordHash: "x"}
	require.NoError(t, s.InsertUser(&user))
	require.NotZero(t, user.ID)

	got, err := s.UserByLoginID("taro")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = s.UserByLoginID("nobody")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInsertPayment_UnsetsOtherDefaults(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	first := models.PaymentMethod{UserID: "taro", Last4: "1111", IsDefault: true}
	require.NoError(t, s.InsertPayment(&first))

	second := models.PaymentMethod{UserID: "taro", Last4: "2222", IsDefault: true}
	require.NoError(t, s.InsertPayment(&second))

	// Another user's default is untouched.
	other := models.PaymentMethod{UserID: "hana", Last4: "3333", IsDefault: true}
	require.NoError(t, s.InsertPayment(&other))

	payments, err := s.PaymentsByUser("taro")
	require.NoError(t, err)
	require.Len(t, payments, 2)
	assert.Equal(t, "2222", payments[0].Last4)
	assert.True(t, payments[0].IsDefault)
	assert.False(t, payments[1].IsDefault)

	others, err := s.PaymentsByUser("hana")
	require.NoError(t, err)
	require.Len(t, others, 1)
	assert.True(t, others[0].IsDefault)
}

func TestUpdatePayment_ScopedToUser(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	payment := models.PaymentMethod{UserID: "taro", Last4: "1111"}
	require.NoError(t, s.InsertPayment(&payment))

	payment.Nickname = "main card"
	require.NoError(t, s.UpdatePayment(&payment))

	stolen := models.PaymentMethod{ID: payment.ID, UserID: "hana", Nickname: "mine now"}
	assert.ErrorIs(t, s.UpdatePayment(&stolen), ErrNotFound)
}

func TestDeletePayment(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	payment := models.PaymentMethod{UserID: "taro", Last4: "1111"}
	require.NoError(t, s.InsertPayment(&payment))

	assert.ErrorIs(t, s.DeletePayment("hana", payment.ID), ErrNotFound)
	require.NoError(t, s.DeletePayment("taro", payment.ID))

	payments, err := s.PaymentsByUser("taro")
	require.NoError(t, err)
	assert.Empty(t, payments)
}

func TestCartItems_CRUD(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	item := models.FallbackCartItem{UserID: "taro", ProductID: "p1", Quantity: 2}
	require.NoError(t, s.InsertCartItem(&item))

	item.Quantity = 5
	require.NoError(t, s.UpdateCartItem(&item))

	items, err := s.CartItemsByUser("taro")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 5, items[0].Quantity)

	require.NoError(t, s.DeleteCartItem("taro", item.ID))
	assert.ErrorIs(t, s.DeleteCartItem("taro", item.ID), ErrNotFound)
}
