package notification_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/retail-kpi-api/internal/application/billing"
	"github.com/jhoicas/retail-kpi-api/internal/application/dto"
	"github.com/jhoicas/retail-kpi-api/internal/application/notification"
	"github.com/jhoicas/retail-kpi-api/internal/domain/alert"
	"github.com/jhoicas/retail-kpi-api/internal/domain/entity"
	"github.com/jhoicas/retail-kpi-api/internal/domain/repository"
	"github.com/jhoicas/retail-kpi-api/internal/infrastructure/memory"
	"github.com/jhoicas/retail-kpi-api/pkg/logger"
)

// recordingMailer guarda las entregas; falla para las direcciones en failFor.
type recordingMailer struct {
	mu      sync.Mutex
	sent    []notification.Delivery
	failFor map[string]bool
}

func (m *recordingMailer) Send(_ context.Context, d notification.Delivery) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failFor[d.To] {
		return errors.New("smtp: mailbox unavailable")
	}
	m.sent = append(m.sent, d)
	return nil
}

func (m *recordingMailer) recipients() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.sent))
	for _, d := range m.sent {
		out = append(out, d.To)
	}
	sort.Strings(out)
	return out
}

func TestDispatcher_FailureIsolation(t *testing.T) {
	mailer := &recordingMailer{failFor: map[string]bool{"bad@shop.test": true}}
	d := notification.NewDispatcher(mailer, 2, 10, logger.Nop())

	for _, to := range []string{"a@shop.test", "bad@shop.test", "b@shop.test"} {
		require.True(t, d.Enqueue(notification.Delivery{Kind: notification.KindLowStock, To: to}))
	}
	require.NoError(t, d.Stop(context.Background()))

	assert.Equal(t, []string{"a@shop.test", "b@shop.test"}, mailer.recipients())
	stats := d.Stats()
	assert.Equal(t, int64(2), stats.Sent)
	assert.Equal(t, int64(1), stats.Failed)
}

func TestDispatcher_PanicIsRecovered(t *testing.T) {
	var calls sync.WaitGroup
	calls.Add(2)
	mailer := notification.MailerFunc(func(_ context.Context, d notification.Delivery) error {
		defer calls.Done()
		if d.To == "panic@shop.test" {
			panic("boom")
		}
		return nil
	})
	d := notification.NewDispatcher(mailer, 1, 4, logger.Nop())
	d.Enqueue(notification.Delivery{To: "panic@shop.test"})
	d.Enqueue(notification.Delivery{To: "ok@shop.test"})
	calls.Wait()
	require.NoError(t, d.Stop(context.Background()))

	assert.Equal(t, int64(1), d.Stats().Sent)
	assert.Equal(t, int64(1), d.Stats().Failed)
}

func TestDispatcher_FullQueueDropsWithoutBlocking(t *testing.T) {
	release := make(chan struct{})
	mailer := notification.MailerFunc(func(ctx context.Context, _ notification.Delivery) error {
		<-release
		return nil
	})
	d := notification.NewDispatcher(mailer, 1, 1, logger.Nop())

	accepted := 0
	for i := 0; i < 5; i++ {
		if d.Enqueue(notification.Delivery{To: "x@shop.test"}) {
			accepted++
		}
	}
	// un envío en curso + uno en cola como mucho
	assert.LessOrEqual(t, accepted, 2)
	assert.GreaterOrEqual(t, d.Stats().Dropped, int64(3))

	close(release)
	require.NoError(t, d.Stop(context.Background()))
	assert.False(t, d.Enqueue(notification.Delivery{To: "late@shop.test"}))
}

func TestDispatcher_StopHonoursDeadline(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	mailer := notification.MailerFunc(func(context.Context, notification.Delivery) error {
		<-release
		return nil
	})
	d := notification.NewDispatcher(mailer, 1, 1, logger.Nop())
	d.Enqueue(notification.Delivery{To: "slow@shop.test"})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, d.Stop(ctx), context.DeadlineExceeded)
}

func seedManagers(t *testing.T, store *memory.Store) (admin, other, cashier *entity.User) {
	t.Helper()
	ctx := context.Background()
	admin = &entity.User{Username: "admin", Email: "admin@shop.test", Role: entity.RoleManager}
	other = &entity.User{Username: "manager1", Email: "manager1@shop.test", Role: entity.RoleManager}
	cashier = &entity.User{Username: "cashier1", Email: "cashier1@shop.test", Role: entity.RoleUser}
	for _, u := range []*entity.User{admin, other, cashier} {
		require.NoError(t, store.Users().Create(ctx, u))
	}
	return admin, other, cashier
}

func TestRecipients(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	admin, other, _ := seedManagers(t, store)
	dir := notification.NewRecipientDirectory(store.Users(), store.Settings())

	// sin configuración: email de la cuenta; el cajero nunca recibe
	to, err := dir.Recipients(ctx, notification.KindLowStock)
	require.NoError(t, err)
	assert.Equal(t, []string{"admin@shop.test", "manager1@shop.test"}, to)

	// ambos apuntan al mismo buzón con distinta capitalización -> un solo envío
	require.NoError(t, store.Settings().Upsert(ctx, &entity.ManagerSettings{
		UserID: admin.ID, NotificationEmail: "ops@shop.test", EnableLowStockAlerts: true, EnableExpiryAlerts: false,
	}))
	require.NoError(t, store.Settings().Upsert(ctx, &entity.ManagerSettings{
		UserID: other.ID, NotificationEmail: "OPS@shop.test", EnableLowStockAlerts: true, EnableExpiryAlerts: true,
	}))
	to, err = dir.Recipients(ctx, notification.KindLowStock)
	require.NoError(t, err)
	assert.Equal(t, []string{"ops@shop.test"}, to)

	// expiry deshabilitado para admin
	to, err = dir.Recipients(ctx, notification.KindExpiry)
	require.NoError(t, err)
	assert.Equal(t, []string{"OPS@shop.test"}, to)
}

func newService(t *testing.T, store *memory.Store, mailer notification.Mailer) (*notification.Service, *notification.Dispatcher, *alert.MemoryKeyStore) {
	t.Helper()
	return newServiceOver(t, store, store.Products(), mailer)
}

func newServiceOver(t *testing.T, store *memory.Store, products repository.ProductRepository, mailer notification.Mailer) (*notification.Service, *notification.Dispatcher, *alert.MemoryKeyStore) {
	t.Helper()
	keys := alert.NewMemoryKeyStore()
	store.UseAlertKeys(keys)
	d := notification.NewDispatcher(mailer, 2, 32, logger.Nop())
	svc := notification.NewService(alert.NewGate(10), products, store, notification.NewRecipientDirectory(store.Users(), store.Settings()), d, logger.Nop())
	return svc, d, keys
}

func TestService_PublishOnePerRecipient(t *testing.T) {
	store := memory.NewStore()
	seedManagers(t, store)
	mailer := &recordingMailer{}
	svc, d, keys := newService(t, store, mailer)

	p := &entity.Product{ID: 7, Name: "Milk", StockQuantity: 8, MinStockThreshold: 10, Price: decimal.NewFromInt(30)}
	require.True(t, svc.ClaimLowStock(context.Background(), keys, p))
	assert.False(t, svc.ClaimLowStock(context.Background(), keys, p), "segunda marca del mismo tramo")

	svc.PublishLowStock([]*entity.Product{p})
	svc.Wait()
	require.NoError(t, d.Stop(context.Background()))

	assert.Equal(t, []string{"admin@shop.test", "manager1@shop.test"}, mailer.recipients())
	pl, ok := mailer.sent[0].Payload.(notification.LowStockPayload)
	require.True(t, ok)
	assert.Equal(t, 8, pl.Stock)
	assert.Equal(t, 10, pl.Threshold)
}

func TestService_Sweeps(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	seedManagers(t, store)
	mailer := &recordingMailer{}
	svc, d, _ := newService(t, store, mailer)

	soon := time.Now().Add(3 * 24 * time.Hour)
	far := time.Now().Add(60 * 24 * time.Hour)
	for _, p := range []*entity.Product{
		{Name: "Low", StockQuantity: 2, MinStockThreshold: 10, Price: decimal.NewFromInt(1)},
		{Name: "Fine", StockQuantity: 50, MinStockThreshold: 10, Price: decimal.NewFromInt(1)},
		{Name: "Yogurt", StockQuantity: 40, MinStockThreshold: 10, BatchNo: "B1", ExpiryDate: &soon, Price: decimal.NewFromInt(1)},
		{Name: "Canned", StockQuantity: 40, MinStockThreshold: 10, BatchNo: "C1", ExpiryDate: &far, Price: decimal.NewFromInt(1)},
	} {
		require.NoError(t, store.Products().Create(ctx, p))
	}

	n, err := svc.SweepLowStock(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	n, err = svc.SweepLowStock(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "el tramo ya fue notificado")

	n, err = svc.SweepExpiry(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	n, err = svc.SweepExpiry(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "vencimiento nunca se rearma")

	svc.Wait()
	require.NoError(t, d.Stop(ctx))
	// 2 alertas x 2 managers
	assert.Len(t, mailer.recipients(), 4)
}

// listHook corre after una vez, justo después de leer el catálogo.
type listHook struct {
	repository.ProductRepository
	once  sync.Once
	after func()
}

func (h *listHook) ListAll(ctx context.Context) ([]*entity.Product, error) {
	list, err := h.ProductRepository.ListAll(ctx)
	h.once.Do(h.after)
	return list, err
}

func TestService_SweepDuringSaleKeepsStretch(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	_, _, cashier := seedManagers(t, store)
	mailer := &recordingMailer{}
	milk := &entity.Product{Name: "Milk", StockQuantity: 12, MinStockThreshold: 10, Price: decimal.NewFromInt(30)}
	require.NoError(t, store.Products().Create(ctx, milk))

	hook := &listHook{ProductRepository: store.Products()}
	svc, d, _ := newServiceOver(t, store, hook, mailer)
	sales := billing.NewCreateBillUseCase(store, svc, logger.Nop())
	actor := billing.Actor{UserID: cashier.ID, Username: cashier.Username, Role: entity.RoleUser}
	sell := func(qty int) {
		_, err := sales.CreateBill(ctx, actor, dto.CreateBillRequest{Items: []dto.BillItemRequest{{ProductID: milk.ID, Quantity: qty}}})
		require.NoError(t, err)
	}

	// la venta confirma entre la lectura del barrido y su evaluación: 12 -> 9
	hook.after = func() { sell(3) }
	n, err := svc.SweepLowStock(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "el barrido ve la fila ya vendida")

	// 9 -> 8: mismo tramo, sin nueva alerta
	sell(1)

	svc.Wait()
	require.NoError(t, d.Stop(ctx))
	assert.Equal(t, []string{"admin@shop.test", "manager1@shop.test"}, mailer.recipients())
}

type countingSweeper struct {
	mu            sync.Mutex
	low, expiry   int
	expiryFirstAt int
}

func (s *countingSweeper) SweepLowStock(context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.low++
	return 0, nil
}

func (s *countingSweeper) SweepExpiry(context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expiry++
	if s.expiryFirstAt == 0 {
		s.expiryFirstAt = s.low + 1
	}
	return 0, errors.New("db down")
}

func TestScheduler_RunsUntilCancelled(t *testing.T) {
	sw := &countingSweeper{}
	sched := notification.NewScheduler(sw, time.Millisecond, 5*time.Millisecond, logger.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sched.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		sw.mu.Lock()
		defer sw.mu.Unlock()
		return sw.low >= 2
	}, time.Second, time.Millisecond)
	cancel()
	<-done

	sw.mu.Lock()
	defer sw.mu.Unlock()
	assert.Equal(t, 1, sw.expiryFirstAt, "vencimientos corren antes que stock bajo")
	assert.GreaterOrEqual(t, sw.expiry, sw.low, "un error en un barrido no detiene el otro")
}
