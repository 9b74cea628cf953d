package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/retail-kpi-api/internal/domain"
	"github.com/jhoicas/retail-kpi-api/internal/domain/alert"
	"github.com/jhoicas/retail-kpi-api/internal/domain/entity"
	"github.com/jhoicas/retail-kpi-api/internal/domain/repository"
)

func seedProduct(t *testing.T, s *Store, name, sku, category string, stock int) *entity.Product {
	t.Helper()
	p := &entity.Product{
		Name:              name,
		SKU:               sku,
		Category:          category,
		Price:             decimal.NewFromInt(10),
		StockQuantity:     stock,
		MinStockThreshold: entity.DefaultMinStockThreshold,
	}
	require.NoError(t, s.Products().Create(context.Background(), p))
	return p
}

func TestRunBilling_RollbackRestoresState(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	p := seedProduct(t, s, "Rice", "RICE", "Grocery", 10)

	boom := errors.New("boom")
	err := s.RunBilling(ctx, func(products repository.ProductRepository, bills repository.BillRepository, movs repository.InventoryMovementRepository, _ alert.KeyStore) error {
		require.NoError(t, products.AdjustStock(ctx, p.ID, -4))
		b := &entity.Bill{BillNumber: "BILL-1", Status: entity.BillStatusPending}
		require.NoError(t, bills.Create(ctx, b))
		require.NoError(t, bills.CreateItem(ctx, &entity.BillItem{BillID: b.ID, ProductID: p.ID, Quantity: 4}))
		require.NoError(t, movs.Create(ctx, &entity.InventoryMovement{ProductID: p.ID, Type: entity.MovementTypeOUT, Quantity: -4, StockAfter: 6}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := s.Products().GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, got.StockQuantity)

	list, total, err := s.Bills().List(ctx, entity.BillFilter{})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, list)

	_, total, err = s.Movements().ListByProduct(ctx, p.ID, time.Time{}, time.Time{}, 0, 0)
	require.NoError(t, err)
	assert.Zero(t, total)

	// la secuencia también vuelve atrás
	err = s.RunBilling(ctx, func(_ repository.ProductRepository, bills repository.BillRepository, _ repository.InventoryMovementRepository, _ alert.KeyStore) error {
		b := &entity.Bill{BillNumber: "BILL-2", Status: entity.BillStatusPending}
		require.NoError(t, bills.Create(ctx, b))
		assert.Equal(t, int64(1), b.ID)
		return nil
	})
	require.NoError(t, err)
}

func TestRunBilling_CancelledContext(t *testing.T) {
	s := NewStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	called := false
	err := s.RunBilling(ctx, func(repository.ProductRepository, repository.BillRepository, repository.InventoryMovementRepository, alert.KeyStore) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestRun_AlertKeyUndoneBeforeNextTx(t *testing.T) {
	s := NewStore()
	keys := alert.NewMemoryKeyStore()
	s.UseAlertKeys(keys)
	ctx, cancel := context.WithCancel(context.Background())

	claimed := make(chan struct{})
	second := make(chan bool, 1)
	go func() {
		<-claimed
		_ = s.Run(context.Background(), func(_ repository.ProductRepository, _ repository.InventoryMovementRepository, k alert.KeyStore) error {
			ok, err := k.Add(context.Background(), "low:1")
			assert.NoError(t, err)
			second <- ok
			return nil
		})
	}()

	err := s.Run(ctx, func(_ repository.ProductRepository, _ repository.InventoryMovementRepository, k alert.KeyStore) error {
		ok, err := k.Add(ctx, "low:1")
		require.NoError(t, err)
		require.True(t, ok)
		close(claimed)
		// la otra tx queda esperando txMu mientras esta se cancela
		time.Sleep(20 * time.Millisecond)
		cancel()
		return nil
	})
	require.ErrorIs(t, err, context.Canceled)

	select {
	case ok := <-second:
		assert.True(t, ok, "la clave de la tx cancelada no debe verse")
	case <-time.After(2 * time.Second):
		t.Fatal("la segunda transacción no terminó")
	}
	assert.Equal(t, 1, keys.Len())
}

func TestProductRepo_AdjustStockNeverNegative(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	p := seedProduct(t, s, "Milk", "", "Dairy", 3)

	err := s.Products().AdjustStock(ctx, p.ID, -5)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	got, _ := s.Products().GetByID(ctx, p.ID)
	assert.Equal(t, 3, got.StockQuantity)

	var nf *domain.NotFoundError
	assert.ErrorAs(t, s.Products().AdjustStock(ctx, 999, 1), &nf)
}

func TestProductRepo_DuplicateSKU(t *testing.T) {
	s := NewStore()
	seedProduct(t, s, "A", "SKU-1", "", 1)
	err := s.Products().Create(context.Background(), &entity.Product{Name: "B", SKU: "SKU-1"})
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	// SKU vacío no colisiona
	seedProduct(t, s, "C", "", "", 1)
	seedProduct(t, s, "D", "", "", 1)
}

func TestProductRepo_ReturnsCopies(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	p := seedProduct(t, s, "Tea", "", "", 5)

	got, _ := s.Products().GetByID(ctx, p.ID)
	got.StockQuantity = 100
	again, _ := s.Products().GetByID(ctx, p.ID)
	assert.Equal(t, 5, again.StockQuantity)
}

func TestProductRepo_ListSearchCategoryAndPaging(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	seedProduct(t, s, "Basmati Rice", "RICE-B", "Grocery", 1)
	seedProduct(t, s, "Brown Rice", "RICE-BR", "Grocery", 1)
	seedProduct(t, s, "Milk", "MLK", "Dairy", 1)

	list, total, err := s.Products().List(ctx, entity.ProductFilter{Search: "rice"})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, list, 2)
	assert.Equal(t, "Basmati Rice", list[0].Name)

	list, total, err = s.Products().List(ctx, entity.ProductFilter{Category: "dairy"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "Milk", list[0].Name)

	list, total, err = s.Products().List(ctx, entity.ProductFilter{Limit: 2, Offset: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, list, 1)
	assert.Equal(t, "Milk", list[0].Name)

	cats, err := s.Products().Categories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Dairy", "Grocery"}, cats)
}

func TestProductRepo_DeleteReferencedProduct(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	used := seedProduct(t, s, "Used", "", "", 5)
	free := seedProduct(t, s, "Free", "", "", 5)

	b := &entity.Bill{BillNumber: "BILL-X", Status: entity.BillStatusPending}
	require.NoError(t, s.Bills().Create(ctx, b))
	require.NoError(t, s.Bills().CreateItem(ctx, &entity.BillItem{BillID: b.ID, ProductID: used.ID, Quantity: 1}))

	assert.ErrorIs(t, s.Products().Delete(ctx, used.ID), domain.ErrProductInUse)
	require.NoError(t, s.Products().Delete(ctx, free.ID))
	got, _ := s.Products().GetByID(ctx, free.ID)
	assert.Nil(t, got)
}

func TestBillRepo_ListOrderAndFilters(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	for i, uid := range []int64{1, 2, 1} {
		b := &entity.Bill{
			BillNumber: "BILL-" + string(rune('A'+i)),
			UserID:     uid,
			Status:     entity.BillStatusPending,
			CreatedAt:  base.Add(time.Duration(i) * time.Hour),
		}
		require.NoError(t, s.Bills().Create(ctx, b))
	}

	list, total, err := s.Bills().List(ctx, entity.BillFilter{})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Equal(t, "BILL-C", list[0].BillNumber)

	uid := int64(1)
	_, total, err = s.Bills().List(ctx, entity.BillFilter{UserID: &uid})
	require.NoError(t, err)
	assert.Equal(t, 2, total)

	to := base.Add(time.Hour)
	list, total, err = s.Bills().List(ctx, entity.BillFilter{DateTo: &to})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "BILL-A", list[0].BillNumber)
}

func TestUserRepo_FindByLogin(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	u := &entity.User{Username: "admin", Email: "Admin@Shop.test", Role: entity.RoleManager}
	require.NoError(t, s.Users().Create(ctx, u))

	byName, err := s.Users().FindByLogin(ctx, "admin")
	require.NoError(t, err)
	require.NotNil(t, byName)
	byEmail, err := s.Users().FindByLogin(ctx, "admin@shop.test")
	require.NoError(t, err)
	require.NotNil(t, byEmail)
	assert.Equal(t, u.ID, byEmail.ID)

	none, err := s.Users().FindByLogin(ctx, "ghost")
	require.NoError(t, err)
	assert.Nil(t, none)

	assert.ErrorIs(t, s.Users().Create(ctx, &entity.User{Username: "ADMIN", Email: "x@y.z"}), domain.ErrDuplicate)
}

func TestSettingsRepo_Upsert(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	st := &entity.ManagerSettings{UserID: 3, NotificationEmail: "a@b.c", EnableLowStockAlerts: true}
	require.NoError(t, s.Settings().Upsert(ctx, st))
	firstID := st.ID

	st2 := &entity.ManagerSettings{UserID: 3, NotificationEmail: "z@b.c"}
	require.NoError(t, s.Settings().Upsert(ctx, st2))
	assert.Equal(t, firstID, st2.ID)

	got, err := s.Settings().GetByUserID(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, "z@b.c", got.NotificationEmail)
	assert.False(t, got.EnableLowStockAlerts)

	all, err := s.Settings().List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestAnalyticsRepo(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	now := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	rice := seedProduct(t, s, "Rice", "", "Grocery", 100)
	milk := seedProduct(t, s, "Milk", "", "Dairy", 100)

	addBill := func(status entity.BillStatus, at time.Time, lines map[int64]int) {
		b := &entity.Bill{BillNumber: "BILL-" + at.String() + string(status), Status: status, CreatedAt: at, TotalAmount: decimal.Zero}
		for _, qty := range lines {
			b.TotalAmount = b.TotalAmount.Add(decimal.NewFromInt(int64(qty * 10)))
		}
		require.NoError(t, s.Bills().Create(ctx, b))
		for id, qty := range lines {
			require.NoError(t, s.Bills().CreateItem(ctx, &entity.BillItem{
				BillID: b.ID, ProductID: id, Quantity: qty,
				UnitPrice: decimal.NewFromInt(10), TotalPrice: decimal.NewFromInt(int64(qty * 10)),
			}))
		}
	}
	addBill(entity.BillStatusCompleted, now.Add(-48*time.Hour), map[int64]int{rice.ID: 5})
	addBill(entity.BillStatusCompleted, now.Add(-1*time.Hour), map[int64]int{milk.ID: 2})
	addBill(entity.BillStatusPending, now.Add(-2*time.Hour), map[int64]int{milk.ID: 4})
	addBill(entity.BillStatusCancelled, now.Add(-3*time.Hour), map[int64]int{rice.ID: 50})

	counts, err := s.Analytics().BillCounts(ctx, time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 4, counts.TotalBills)
	assert.Equal(t, 2, counts.CompletedBills)
	assert.Equal(t, 1, counts.PendingBills)
	assert.Equal(t, 1, counts.CancelledBills)
	assert.True(t, counts.TotalRevenue.Equal(decimal.NewFromInt(70)))

	top, err := s.Analytics().TopProducts(ctx, time.Time{}, time.Time{}, 10)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, rice.ID, top[0].ProductID)
	assert.Equal(t, 5, top[0].TotalQuantity)

	daily, err := s.Analytics().DailySales(ctx, time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, daily, 2)
	assert.True(t, daily[0].Date.Before(daily[1].Date))

	trending, err := s.Analytics().Trending(ctx, repository.TrendingQuery{
		Filter: repository.TrendingMostPurchased, Since: now.AddDate(0, 0, -30), Limit: 10,
	})
	require.NoError(t, err)
	require.Len(t, trending, 2)
	assert.Equal(t, milk.ID, trending[0].ProductID, "pending cuenta, cancelled no")
	assert.Equal(t, 6, trending[0].TotalQuantity)
	assert.Equal(t, 2, trending[0].BillCount)

	fastest, err := s.Analytics().Trending(ctx, repository.TrendingQuery{
		Filter: repository.TrendingFastestSelling, Since: now.AddDate(0, 0, -30), Limit: 10,
	})
	require.NoError(t, err)
	// milk: 6 u en 1 día; rice: 5 u en 2 días
	assert.Equal(t, milk.ID, fastest[0].ProductID)
	assert.True(t, fastest[1].DailyVelocity.Equal(decimal.RequireFromString("2.5")))

	dairy, err := s.Analytics().Trending(ctx, repository.TrendingQuery{
		Filter: repository.TrendingHighestRevenue, Since: now.AddDate(0, 0, -30), Category: "Dairy", Limit: 10,
	})
	require.NoError(t, err)
	require.Len(t, dairy, 1)
	assert.Equal(t, milk.ID, dairy[0].ProductID)
}

func TestMovementRepo_ListAndCascade(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	p := seedProduct(t, s, "Rice", "RICE", "Grocery", 10)
	other := seedProduct(t, s, "Salt", "SALT", "Grocery", 5)

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.Local)
	for i, q := range []int{-2, -1, 5} {
		require.NoError(t, s.Movements().Create(ctx, &entity.InventoryMovement{
			ProductID: p.ID, Type: entity.MovementTypeOUT, Quantity: q, CreatedAt: base.AddDate(0, 0, i),
		}))
	}
	require.NoError(t, s.Movements().Create(ctx, &entity.InventoryMovement{ProductID: other.ID, Type: entity.MovementTypeADJUSTMENT, Quantity: 1}))

	list, total, err := s.Movements().ListByProduct(ctx, p.ID, time.Time{}, time.Time{}, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, list, 2)
	assert.Equal(t, 5, list[0].Quantity, "más reciente primero")

	list, total, err = s.Movements().ListByProduct(ctx, p.ID, base.AddDate(0, 0, 1), base.AddDate(0, 0, 2), 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, -1, list[0].Quantity)

	require.NoError(t, s.Products().Delete(ctx, p.ID))
	_, total, err = s.Movements().ListByProduct(ctx, p.ID, time.Time{}, time.Time{}, 0, 0)
	require.NoError(t, err)
	assert.Zero(t, total)
	_, total, err = s.Movements().ListByProduct(ctx, other.ID, time.Time{}, time.Time{}, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}
