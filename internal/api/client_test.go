package api_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foodcourt/internal/api"
	"foodcourt/internal/api/apitest"
	"foodcourt/internal/domain"
)

func setup(t *testing.T) (*apitest.Backend, *api.Client) {
	b := apitest.New(t)
	return b, api.New(b.HTTP(t))
}

func TestOTPFlow_Customer(t *testing.T) {
	b, c := setup(t)
	ctx := context.Background()

	require.NoError(t, c.SendOTP(ctx, "+919876543210", domain.RoleCustomer))
	assert.Equal(t, "123456", b.Codes["+919876543210"])

	_, err := c.VerifyOTP(ctx, domain.VerifyOTPRequest{Phone: "+919876543210", OTP: "000000", Role: domain.RoleCustomer})
	assert.ErrorIs(t, err, domain.ErrRejected)
	assert.Contains(t, err.Error(), "Invalid OTP")

	acct, err := c.VerifyOTP(ctx, domain.VerifyOTPRequest{Phone: "+919876543210", OTP: "123456", Name: "Asha", Role: domain.RoleCustomer})
	require.NoError(t, err)
	assert.Equal(t, domain.AccountDTO{Phone: "+919876543210", Name: "Asha"}, acct)
	assert.Equal(t, "Asha", b.Accounts["+919876543210"])
}

func TestOTPFlow_AdminReadsAdminObject(t *testing.T) {
	b, c := setup(t)
	ctx := context.Background()
	b.Admins["+919000000001"] = "Kitchen Lead"

	require.NoError(t, c.SendOTP(ctx, "+919000000001", domain.RoleAdmin))
	acct, err := c.VerifyOTP(ctx, domain.VerifyOTPRequest{Phone: "+919000000001", OTP: "123456", Role: domain.RoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, "Kitchen Lead", acct.Name)
}

func TestCheckUser_RoutesByRole(t *testing.T) {
	b, c := setup(t)
	ctx := context.Background()
	b.Accounts["+911111111111"] = "Ravi"

	res, err := c.CheckUser(ctx, "+911111111111", domain.RoleCustomer)
	require.NoError(t, err)
	assert.Equal(t, api.CheckResult{Exists: true, Name: "Ravi"}, res)

	res, err = c.CheckUser(ctx, "+911111111111", domain.RoleAdmin)
	require.NoError(t, err)
	assert.False(t, res.Exists)
	assert.Equal(t, 1, b.CallCount("/check-user"))
	assert.Equal(t, 1, b.CallCount("/admin/check"))
}

func TestMenuItems_MapsToCatalog(t *testing.T) {
	b, c := setup(t)
	b.Menu = []domain.MenuItemDTO{
		{ID: "m1", Name: "Idli", Price: decimal.RequireFromString("30.5"), Category: "snacks", AvailableTime: "morning", IsActive: true, Quantity: 4},
		{ID: "m2", Name: "Thali", Price: decimal.NewFromInt(120), Category: "deals", AvailableTime: "both", Quantity: -2},
	}

	items, err := c.MenuItems(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "m1", items[0].ID)
	assert.Equal(t, domain.WindowMorning, items[0].Window)
	assert.True(t, items[0].UnitPrice.Equal(decimal.RequireFromString("30.5")))
	assert.Equal(t, 0, items[1].Stock)
	assert.False(t, items[1].IsActive)
}

func TestOrders_CancelAndQR(t *testing.T) {
	b, c := setup(t)
	ctx := context.Background()
	b.Orders["+912222222222"] = []domain.Order{{OrderID: "ORDER-000001", Status: "Placed"}}

	orders, err := c.Orders(ctx, "+912222222222")
	require.NoError(t, err)
	require.Len(t, orders, 1)

	qr, err := c.GenerateQR(ctx, "ORDER-000001", "+912222222222")
	require.NoError(t, err)
	assert.Equal(t, apitest.QRPayload, qr)

	_, err = c.GenerateQR(ctx, "ORDER-000001", "+913333333333")
	assert.ErrorIs(t, err, domain.ErrRejected)

	require.NoError(t, c.CancelOrder(ctx, "ORDER-000001"))
	assert.Equal(t, []string{"ORDER-000001"}, b.Cancelled)

	err = c.CancelOrder(ctx, "ORDER-000001")
	assert.ErrorIs(t, err, domain.ErrRejected)
	assert.Contains(t, err.Error(), "Order not found")
}

func TestPayments(t *testing.T) {
	b, c := setup(t)
	ctx := context.Background()

	ref, err := c.CreateOrder(ctx, decimal.RequireFromString("150.75"))
	require.NoError(t, err)
	assert.Equal(t, "order_test_1", ref.ID)
	assert.EqualValues(t, 15075, ref.Amount)

	req := domain.VerifyPaymentRequest{OrderID: "ORDER-123456", CustomerPhone: "+914444444444", PaymentMethod: "cash", TotalAmount: 10}
	require.NoError(t, c.VerifyPayment(ctx, req))
	require.Len(t, b.Verified, 1)
	assert.Equal(t, "ORDER-123456", b.Verified[0].OrderID)

	b.RejectPayments = true
	err = c.VerifyPayment(ctx, req)
	assert.ErrorIs(t, err, domain.ErrRejected)
}

func TestServerErrorsAreNetworkErrors(t *testing.T) {
	b, c := setup(t)
	b.FailNext["/menu-items"] = http.StatusServiceUnavailable
	_, err := c.MenuItems(context.Background())
	assert.ErrorIs(t, err, domain.ErrNetwork)

	_, err = c.MenuItems(context.Background())
	assert.NoError(t, err)
}
