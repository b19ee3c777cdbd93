package validate

import (
	"errors"
	"testing"

	"github.com/bike-resale-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStruct_ValidRegistration(t *testing.T) {
	err := Struct(&domain.RegisterRequest{
		FullName: "Asha Rai", Email: "asha@example.com", Address: "Kathmandu", Password: "secret1",
	})
	assert.NoError(t, err)
}

func TestStruct_ReportsEveryField(t *testing.T) {
	err := Struct(&domain.RegisterRequest{Email: "not-an-email"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrValidation))
	assert.Contains(t, err.Error(), "fullName is required")
	assert.Contains(t, err.Error(), "email must be a valid email")
	assert.Contains(t, err.Error(), "password is required")
}

func TestStruct_LengthAndRangeMessages(t *testing.T) {
	err := Struct(&domain.RegisterRequest{
		FullName: "Asha Rai", Email: "asha@example.com", Address: "Kathmandu", Password: "abc",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "password must be at least 6 characters")

	err = Struct(&domain.BikeFields{Brand: "Honda", BikeName: "Shine", YearOfPurchase: 1800, CC: 125, Price: 90000})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "year_of_purchase must be at least 1900")
}

func TestStruct_BikeCategoriesWithSpaces(t *testing.T) {
	f := domain.BikeFields{
		Brand: "Honda", BikeName: "Shine", YearOfPurchase: 2018, CC: 125, Price: 90000,
		Owner: "Second Owner", PhysicalCondition: "like new", TyreCondition: "worn",
	}
	assert.NoError(t, Struct(&f))

	f.PhysicalCondition = "battered"
	err := Struct(&f)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "physical_condition must be one of fresh 'like new' old 'very old'")
}
