package services

import (
	"errors"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/example/tiffinbox/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Restaurant{},
		&models.MenuItem{},
		&models.Order{},
		&models.OrderItem{},
		&models.WalletTransaction{},
	))
	return db
}

func seedRestaurant(t *testing.T, db *gorm.DB, balance, fee int64) models.Restaurant {
	t.Helper()

	restaurant := models.Restaurant{
		Name:          "Spice Route",
		TechFee:       fee,
		CreditBalance: balance,
		IsActive:      true,
	}
	require.NoError(t, db.Create(&restaurant).Error)
	return restaurant
}

func TestChargeTechFee_DebitsAndRecordsLedger(t *testing.T) {
	db := newTestDB(t)
	restaurant := seedRestaurant(t, db, 100, 10)

	err := db.Transaction(func(tx *gorm.DB) error {
		return ChargeTechFee(tx, restaurant.ID, restaurant.TechFee, "TB-A1B2C3D4E5F6")
	})
	require.NoError(t, err)

	var fresh models.Restaurant
	require.NoError(t, db.First(&fresh, "id = ?", restaurant.ID).Error)
	assert.Equal(t, int64(90), fresh.CreditBalance)

	var entries []models.WalletTransaction
	require.NoError(t, db.Where("restaurant_id = ?", restaurant.ID).Find(&entries).Error)
	require.Len(t, entries, 1)
	assert.Equal(t, models.WalletTxnTypeFeeDeduction, entries[0].Type)
	assert.Equal(t, models.WalletTxnStatusApproved, entries[0].Status)
	assert.Equal(t, int64(10), entries[0].Amount)
	assert.NotNil(t, entries[0].ApprovedAt)
}

func TestChargeTechFee_RollsBackWithCaller(t *testing.T) {
	db := newTestDB(t)
	restaurant := seedRestaurant(t, db, 100, 10)

	// The fee rides the caller's transaction: when the surrounding work
	// fails, neither the debit nor the ledger row survives.
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := ChargeTechFee(tx, restaurant.ID, restaurant.TechFee, "TB-A1B2C3D4E5F6"); err != nil {
			return err
		}
		return errors.New("order insert failed")
	})
	require.Error(t, err)

	var fresh models.Restaurant
	require.NoError(t, db.First(&fresh, "id = ?", restaurant.ID).Error)
	assert.Equal(t, int64(100), fresh.CreditBalance)

	var count int64
	require.NoError(t, db.Model(&models.WalletTransaction{}).
		Where("restaurant_id = ?", restaurant.ID).Count(&count).Error)
	assert.Zero(t, count)
}

func TestChargeTechFee_ZeroFeeNoOp(t *testing.T) {
	db := newTestDB(t)
	restaurant := seedRestaurant(t, db, 100, 0)

	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		return ChargeTechFee(tx, restaurant.ID, 0, "TB-A1B2C3D4E5F6")
	}))

	var count int64
	require.NoError(t, db.Model(&models.WalletTransaction{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestDebitCustomerWallet(t *testing.T) {
	db := newTestDB(t)
	user := models.User{
		FirstName:     "Asha",
		Phone:         "9876500001",
		PasswordHash:  "x",
		Role:          models.RoleCustomer,
		WalletBalance: 100,
	}
	require.NoError(t, db.Create(&user).Error)

	require.NoError(t, DebitCustomerWallet(db, user.ID, 60))

	var fresh models.User
	require.NoError(t, db.First(&fresh, "id = ?", user.ID).Error)
	assert.Equal(t, int64(40), fresh.WalletBalance)

	// A deduction quoted before the first debit landed no longer fits; the
	// conditional update must refuse it rather than go negative.
	err := DebitCustomerWallet(db, user.ID, 60)
	assert.ErrorIs(t, err, ErrInsufficientWalletBalance)

	require.NoError(t, db.First(&fresh, "id = ?", user.ID).Error)
	assert.Equal(t, int64(40), fresh.WalletBalance)

	require.NoError(t, DebitCustomerWallet(db, user.ID, 40))
	require.NoError(t, db.First(&fresh, "id = ?", user.ID).Error)
	assert.Zero(t, fresh.WalletBalance)
}

func TestDebitCustomerWallet_ZeroAmountNoOp(t *testing.T) {
	db := newTestDB(t)
	user := models.User{
		FirstName:     "Asha",
		Phone:         "9876500002",
		PasswordHash:  "x",
		Role:          models.RoleCustomer,
		WalletBalance: 0,
	}
	require.NoError(t, db.Create(&user).Error)

	require.NoError(t, DebitCustomerWallet(db, user.ID, 0))
}
