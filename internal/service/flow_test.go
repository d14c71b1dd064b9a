package service

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"

	"scripta/config"
	"scripta/internal/database"
	"scripta/internal/domain"
	"scripta/internal/models"
	"scripta/internal/repository"
	"scripta/pkg/paystack"

	"github.com/shopspring/decimal"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// The flow tests need a real MySQL instance because the wallet and bid
// semantics depend on SELECT ... FOR UPDATE row locks.
type testStack struct {
	db            *gorm.DB
	walletRepo    *repository.WalletRepository
	orderRepo     *repository.OrderRepository
	bidRepo       *repository.BidRepository
	paymentRepo   *repository.OrderPaymentRepository
	bidSvc        *BidService
	withdrawalSvc *WithdrawalService
	paymentSvc    *PaymentService
}

func setupStack(t *testing.T) *testStack {
	t.Helper()
	dsn := os.Getenv("SCRIPTA_TEST_DSN")
	if dsn == "" {
		t.Skip("SCRIPTA_TEST_DSN is not set")
	}
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	for _, table := range []string{
		"wallet_transactions", "wallets", "bids", "order_payments",
		"withdrawal_requests", "notifications", "orders", "users",
	} {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			t.Fatalf("reset %s: %v", table, err)
		}
	}

	cfg := &config.Config{
		Payout: config.PayoutConfig{WriterPercentage: 0.30},
	}
	userRepo := repository.NewUserRepository(db)
	walletRepo := repository.NewWalletRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	bidRepo := repository.NewBidRepository(db)
	withdrawalRepo := repository.NewWithdrawalRepository(db)
	paymentRepo := repository.NewOrderPaymentRepository(db)
	notifSvc := NewNotificationService(repository.NewNotificationRepository(db))

	return &testStack{
		db:            db,
		walletRepo:    walletRepo,
		orderRepo:     orderRepo,
		bidRepo:       bidRepo,
		paymentRepo:   paymentRepo,
		bidSvc:        NewBidService(db, cfg, bidRepo, orderRepo, walletRepo, notifSvc),
		withdrawalSvc: NewWithdrawalService(db, withdrawalRepo, walletRepo, notifSvc),
		paymentSvc:    NewPaymentService(db, cfg, paymentRepo, orderRepo, walletRepo, userRepo, notifSvc),
	}
}

func (ts *testStack) createUser(t *testing.T, role, email string) *models.User {
	t.Helper()
	u := &models.User{FullName: "Test " + role, Email: email, PasswordHash: "x", Role: role}
	if err := ts.db.Create(u).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func (ts *testStack) fundWallet(t *testing.T, userID uint, amount string) {
	t.Helper()
	err := ts.db.Transaction(func(tx *gorm.DB) error {
		_, err := ts.walletRepo.Credit(tx, userID, decimal.RequireFromString(amount),
			domain.TxTypeDeposit, "Test deposit", domain.RefTypePaystack,
			fmt.Sprintf("seed_%d_%s", userID, amount))
		return err
	})
	if err != nil {
		t.Fatalf("fund wallet: %v", err)
	}
}

func (ts *testStack) createOrder(t *testing.T, clientID uint, clientBudget, writerBudget string) *models.Order {
	t.Helper()
	o := &models.Order{
		Title:         "Comparative essay",
		ClientBudget:  decimal.RequireFromString(clientBudget),
		WriterBudget:  decimal.RequireFromString(writerBudget),
		Status:        domain.OrderStatusOpen,
		PaymentStatus: domain.PaymentStatusUnpaid,
		ClientID:      clientID,
	}
	if err := ts.db.Create(o).Error; err != nil {
		t.Fatalf("create order: %v", err)
	}
	return o
}

func (ts *testStack) balance(t *testing.T, userID uint) decimal.Decimal {
	t.Helper()
	b, _, err := ts.walletRepo.Balance(userID)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	return b
}

func (ts *testStack) assertLedgerConsistent(t *testing.T, userID uint) {
	t.Helper()
	w, err := ts.walletRepo.GetByUserID(userID)
	if err != nil {
		t.Fatalf("wallet: %v", err)
	}
	sum, err := ts.walletRepo.SumEntries(w.ID)
	if err != nil {
		t.Fatalf("sum entries: %v", err)
	}
	if !w.Balance.Equal(sum) {
		t.Errorf("balance %s != ledger sum %s", w.Balance, sum)
	}
}

func TestAcceptBidFlow(t *testing.T) {
	ts := setupStack(t)
	client := ts.createUser(t, domain.RoleClient, "client@test.local")
	writer1 := ts.createUser(t, domain.RoleWriter, "writer1@test.local")
	writer2 := ts.createUser(t, domain.RoleWriter, "writer2@test.local")

	ts.fundWallet(t, client.ID, "150.00")
	order := ts.createOrder(t, client.ID, "100.00", "30.00")

	bid1, err := ts.bidSvc.Place(order.ID, writer1.ID, decimal.RequireFromString("40.00"), "I can take this")
	if err != nil {
		t.Fatalf("place bid1: %v", err)
	}
	bid2, err := ts.bidSvc.Place(order.ID, writer2.ID, decimal.RequireFromString("35.00"), "")
	if err != nil {
		t.Fatalf("place bid2: %v", err)
	}

	if err := ts.bidSvc.Accept(bid1.ID, client.ID); err != nil {
		t.Fatalf("accept: %v", err)
	}

	// Wallet debited by the order's client budget at acceptance time.
	if got := ts.balance(t, client.ID); !got.Equal(decimal.RequireFromString("50.00")) {
		t.Errorf("client balance = %s, want 50.00", got)
	}
	ts.assertLedgerConsistent(t, client.ID)

	got, err := ts.orderRepo.GetByID(order.ID)
	if err != nil {
		t.Fatalf("reload order: %v", err)
	}
	if got.WriterID == nil || *got.WriterID != writer1.ID {
		t.Errorf("order writer = %v, want %d", got.WriterID, writer1.ID)
	}
	if got.Status != domain.OrderStatusInProgress {
		t.Errorf("order status = %q", got.Status)
	}
	// Budgets frozen to the accepted bid's amounts.
	if !got.WriterBudget.Equal(decimal.RequireFromString("40.00")) {
		t.Errorf("writer budget = %s, want 40.00", got.WriterBudget)
	}
	if !got.ClientBudget.Equal(decimal.RequireFromString("133.33")) {
		t.Errorf("client budget = %s, want 133.33", got.ClientBudget)
	}

	won, err := ts.bidRepo.GetByID(bid1.ID)
	if err != nil {
		t.Fatalf("reload bid1: %v", err)
	}
	if won.Status != domain.BidStatusAccepted {
		t.Errorf("winning bid status = %q", won.Status)
	}
	lost, err := ts.bidRepo.GetByID(bid2.ID)
	if err != nil {
		t.Fatalf("reload bid2: %v", err)
	}
	if lost.Status != domain.BidStatusRejected {
		t.Errorf("losing bid status = %q", lost.Status)
	}

	// Any further accept on this order must fail.
	if err := ts.bidSvc.Accept(bid1.ID, client.ID); !errors.Is(err, ErrBidClosed) {
		t.Errorf("re-accept winner: %v, want ErrBidClosed", err)
	}
	if err := ts.bidSvc.Accept(bid2.ID, client.ID); !errors.Is(err, ErrBidClosed) {
		t.Errorf("accept loser: %v, want ErrBidClosed", err)
	}
}

func TestAcceptBidInsufficientFunds(t *testing.T) {
	ts := setupStack(t)
	client := ts.createUser(t, domain.RoleClient, "broke@test.local")
	writer := ts.createUser(t, domain.RoleWriter, "writer@test.local")

	ts.fundWallet(t, client.ID, "50.00")
	order := ts.createOrder(t, client.ID, "100.00", "30.00")
	bid, err := ts.bidSvc.Place(order.ID, writer.ID, decimal.RequireFromString("30.00"), "")
	if err != nil {
		t.Fatalf("place: %v", err)
	}

	err = ts.bidSvc.Accept(bid.ID, client.ID)
	if !errors.Is(err, repository.ErrInsufficientFunds) {
		t.Fatalf("accept: %v, want ErrInsufficientFunds", err)
	}

	// Nothing moved: balance, order and bid are untouched.
	if got := ts.balance(t, client.ID); !got.Equal(decimal.RequireFromString("50.00")) {
		t.Errorf("balance = %s, want 50.00", got)
	}
	reloaded, err := ts.orderRepo.GetByID(order.ID)
	if err != nil {
		t.Fatalf("reload order: %v", err)
	}
	if reloaded.Assigned() {
		t.Error("order assigned despite failed debit")
	}
	b, err := ts.bidRepo.GetByID(bid.ID)
	if err != nil {
		t.Fatalf("reload bid: %v", err)
	}
	if b.Status != domain.BidStatusOpen {
		t.Errorf("bid status = %q, want open", b.Status)
	}
	ts.assertLedgerConsistent(t, client.ID)
}

func TestAcceptBidConcurrent(t *testing.T) {
	ts := setupStack(t)
	client := ts.createUser(t, domain.RoleClient, "racer@test.local")
	writer1 := ts.createUser(t, domain.RoleWriter, "rwriter1@test.local")
	writer2 := ts.createUser(t, domain.RoleWriter, "rwriter2@test.local")

	ts.fundWallet(t, client.ID, "500.00")
	order := ts.createOrder(t, client.ID, "100.00", "30.00")
	bid1, err := ts.bidSvc.Place(order.ID, writer1.ID, decimal.RequireFromString("30.00"), "")
	if err != nil {
		t.Fatalf("place bid1: %v", err)
	}
	bid2, err := ts.bidSvc.Place(order.ID, writer2.ID, decimal.RequireFromString("30.00"), "")
	if err != nil {
		t.Fatalf("place bid2: %v", err)
	}

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, id := range []uint{bid1.ID, bid2.ID} {
		wg.Add(1)
		go func(i int, bidID uint) {
			defer wg.Done()
			errs[i] = ts.bidSvc.Accept(bidID, client.ID)
		}(i, id)
	}
	wg.Wait()

	// Exactly one accept wins; the order row lock serializes them.
	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
		}
	}
	if wins != 1 {
		t.Fatalf("wins = %d (errs: %v), want exactly 1", wins, errs)
	}
	// Exactly one debit of 100.00.
	if got := ts.balance(t, client.ID); !got.Equal(decimal.RequireFromString("400.00")) {
		t.Errorf("balance = %s, want 400.00", got)
	}
	ts.assertLedgerConsistent(t, client.ID)
}

func TestWithdrawalApproveOnce(t *testing.T) {
	ts := setupStack(t)
	writer := ts.createUser(t, domain.RoleWriter, "payee@test.local")
	admin := ts.createUser(t, domain.RoleAdmin, "admin@test.local")
	ts.fundWallet(t, writer.ID, "100.00")

	wr, err := ts.withdrawalSvc.Request(writer.ID, decimal.RequireFromString("60.00"), "paypal", "payee@test.local")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if wr.Status != domain.WithdrawalStatusPending {
		t.Fatalf("status = %q, want pending", wr.Status)
	}
	// Request alone must not move money.
	if got := ts.balance(t, writer.ID); !got.Equal(decimal.RequireFromString("100.00")) {
		t.Errorf("balance after request = %s, want 100.00", got)
	}

	if err := ts.withdrawalSvc.Approve(wr.ID, admin.ID); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if got := ts.balance(t, writer.ID); !got.Equal(decimal.RequireFromString("40.00")) {
		t.Errorf("balance after approve = %s, want 40.00", got)
	}

	// A second approval is a state error, not a second debit.
	if err := ts.withdrawalSvc.Approve(wr.ID, admin.ID); !errors.Is(err, ErrWithdrawalNotPending) {
		t.Fatalf("re-approve: %v, want ErrWithdrawalNotPending", err)
	}
	if got := ts.balance(t, writer.ID); !got.Equal(decimal.RequireFromString("40.00")) {
		t.Errorf("balance after re-approve = %s, want 40.00", got)
	}
	ts.assertLedgerConsistent(t, writer.ID)
}

func TestWithdrawalRejectKeepsFunds(t *testing.T) {
	ts := setupStack(t)
	writer := ts.createUser(t, domain.RoleWriter, "rejected@test.local")
	admin := ts.createUser(t, domain.RoleAdmin, "admin2@test.local")
	ts.fundWallet(t, writer.ID, "80.00")

	if _, err := ts.withdrawalSvc.Request(writer.ID, decimal.RequireFromString("200.00"), "paypal", "x"); !errors.Is(err, repository.ErrInsufficientFunds) {
		t.Fatalf("over-request: %v, want ErrInsufficientFunds", err)
	}

	wr, err := ts.withdrawalSvc.Request(writer.ID, decimal.RequireFromString("80.00"), "bank", "acct-1")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if err := ts.withdrawalSvc.Reject(wr.ID, admin.ID, "account name mismatch"); err != nil {
		t.Fatalf("reject: %v", err)
	}
	if got := ts.balance(t, writer.ID); !got.Equal(decimal.RequireFromString("80.00")) {
		t.Errorf("balance after reject = %s, want 80.00", got)
	}
	// Rejected requests cannot be approved afterwards.
	if err := ts.withdrawalSvc.Approve(wr.ID, admin.ID); !errors.Is(err, ErrWithdrawalNotPending) {
		t.Fatalf("approve rejected: %v, want ErrWithdrawalNotPending", err)
	}
}

func TestDepositWebhookReplay(t *testing.T) {
	ts := setupStack(t)
	user := ts.createUser(t, domain.RoleClient, "depositor@test.local")

	event := &paystack.Event{
		Event: paystack.EventChargeSuccess,
		Data: paystack.EventData{
			Reference: "wallet_1_feedface",
			Amount:    2500,
			Status:    "success",
			Metadata: paystack.Metadata{
				Type:   "wallet_deposit",
				UserID: user.ID,
				Amount: "25.00",
			},
		},
	}
	if err := ts.paymentSvc.HandleEvent(event); err != nil {
		t.Fatalf("first delivery: %v", err)
	}
	if err := ts.paymentSvc.HandleEvent(event); err != nil {
		t.Fatalf("replay: %v", err)
	}

	if got := ts.balance(t, user.ID); !got.Equal(decimal.RequireFromString("25.00")) {
		t.Errorf("balance = %s, want 25.00 (credited exactly once)", got)
	}
	ts.assertLedgerConsistent(t, user.ID)
}

func TestDepositWebhookConcurrentReplay(t *testing.T) {
	ts := setupStack(t)
	user := ts.createUser(t, domain.RoleClient, "racedeposit@test.local")
	// Pre-fund so the wallet row exists and both deliveries contend on its
	// lock rather than on the lazy create.
	ts.fundWallet(t, user.ID, "10.00")

	event := &paystack.Event{
		Event: paystack.EventChargeSuccess,
		Data: paystack.EventData{
			Reference: "wallet_2_0ddba11",
			Amount:    2500,
			Status:    "success",
			Metadata: paystack.Metadata{
				Type:   "wallet_deposit",
				UserID: user.ID,
				Amount: "25.00",
			},
		},
	}

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = ts.paymentSvc.HandleEvent(event)
		}(i)
	}
	wg.Wait()
	for i, err := range errs {
		if err != nil {
			t.Fatalf("delivery %d: %v", i, err)
		}
	}

	// The second delivery must block on the wallet lock, see the first's
	// ledger entry and no-op.
	if got := ts.balance(t, user.ID); !got.Equal(decimal.RequireFromString("35.00")) {
		t.Errorf("balance = %s, want 35.00 (credited exactly once)", got)
	}
	ts.assertLedgerConsistent(t, user.ID)
}

func TestOrderPaymentWebhookReplay(t *testing.T) {
	ts := setupStack(t)
	client := ts.createUser(t, domain.RoleClient, "payer@test.local")
	order := ts.createOrder(t, client.ID, "120.00", "36.00")

	payment := &models.OrderPayment{
		OrderID:   order.ID,
		ClientID:  client.ID,
		Reference: "order_1_cafebabe",
		Amount:    decimal.RequireFromString("120.00"),
		Status:    domain.OrderPaymentPending,
	}
	if err := ts.paymentRepo.Create(payment); err != nil {
		t.Fatalf("create payment: %v", err)
	}

	event := &paystack.Event{
		Event: paystack.EventChargeSuccess,
		Data:  paystack.EventData{Reference: payment.Reference, Status: "success"},
	}
	if err := ts.paymentSvc.HandleEvent(event); err != nil {
		t.Fatalf("first delivery: %v", err)
	}
	if err := ts.paymentSvc.HandleEvent(event); err != nil {
		t.Fatalf("replay: %v", err)
	}

	reloaded, err := ts.paymentRepo.GetByReference(payment.Reference)
	if err != nil {
		t.Fatalf("reload payment: %v", err)
	}
	if reloaded.Status != domain.OrderPaymentSuccess {
		t.Errorf("payment status = %q", reloaded.Status)
	}
	if reloaded.PaidAt == nil {
		t.Error("paid_at not set")
	}
	gotOrder, err := ts.orderRepo.GetByID(order.ID)
	if err != nil {
		t.Fatalf("reload order: %v", err)
	}
	if gotOrder.PaymentStatus != domain.PaymentStatusPaid {
		t.Errorf("order payment status = %q", gotOrder.PaymentStatus)
	}

	// A reference nobody initiated is rejected.
	unknown := &paystack.Event{
		Event: paystack.EventChargeSuccess,
		Data:  paystack.EventData{Reference: "order_999_00000000"},
	}
	if err := ts.paymentSvc.HandleEvent(unknown); !errors.Is(err, ErrPaymentNotFound) {
		t.Errorf("unknown reference: %v, want ErrPaymentNotFound", err)
	}
}

func TestWithdrawBid(t *testing.T) {
	ts := setupStack(t)
	client := ts.createUser(t, domain.RoleClient, "wclient@test.local")
	writer := ts.createUser(t, domain.RoleWriter, "wwriter@test.local")
	ts.fundWallet(t, client.ID, "300.00")
	order := ts.createOrder(t, client.ID, "100.00", "30.00")

	bid, err := ts.bidSvc.Place(order.ID, writer.ID, decimal.RequireFromString("30.00"), "")
	if err != nil {
		t.Fatalf("place: %v", err)
	}
	if err := ts.bidSvc.Cancel(bid.ID, writer.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	reloaded, err := ts.bidRepo.GetByID(bid.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Status != domain.BidStatusCancelled {
		t.Fatalf("status = %q, want cancelled", reloaded.Status)
	}

	// Cancelled is terminal: no second cancel, no acceptance.
	if err := ts.bidSvc.Cancel(bid.ID, writer.ID); !errors.Is(err, ErrBidNotOpen) {
		t.Errorf("re-cancel: %v, want ErrBidNotOpen", err)
	}
	if err := ts.bidSvc.Accept(bid.ID, client.ID); !errors.Is(err, ErrBidClosed) {
		t.Errorf("accept cancelled: %v, want ErrBidClosed", err)
	}

	// The client listing hides it.
	list, _, err := ts.bidRepo.ListByOrder(order, "", 20, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for _, b := range list {
		if b.ID == bid.ID {
			t.Error("cancelled bid visible in client listing")
		}
	}

	// A cancelled bid does not block a fresh one on the same order.
	if _, err := ts.bidSvc.Place(order.ID, writer.ID, decimal.RequireFromString("32.00"), ""); err != nil {
		t.Fatalf("re-place after cancel: %v", err)
	}
}

func TestUnconfirmedBidCannotBeAccepted(t *testing.T) {
	ts := setupStack(t)
	client := ts.createUser(t, domain.RoleClient, "editor@test.local")
	writer := ts.createUser(t, domain.RoleWriter, "confwriter@test.local")
	ts.fundWallet(t, client.ID, "300.00")
	order := ts.createOrder(t, client.ID, "100.00", "30.00")

	bid, err := ts.bidSvc.Place(order.ID, writer.ID, decimal.RequireFromString("30.00"), "")
	if err != nil {
		t.Fatalf("place: %v", err)
	}

	// Client edits the order after the bid was submitted.
	if err := ts.db.Model(&models.Order{}).Where("id = ?", order.ID).
		Update("description", "now with an extra section").Error; err != nil {
		t.Fatalf("edit order: %v", err)
	}

	if err := ts.bidSvc.Accept(bid.ID, client.ID); !errors.Is(err, ErrBidUnconfirmed) {
		t.Fatalf("accept unconfirmed: %v, want ErrBidUnconfirmed", err)
	}
	if got := ts.balance(t, client.ID); !got.Equal(decimal.RequireFromString("300.00")) {
		t.Errorf("balance = %s, want untouched 300.00", got)
	}

	// After the writer re-confirms, acceptance goes through.
	if _, err := ts.bidSvc.Confirm(bid.ID, writer.ID); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if err := ts.bidSvc.Accept(bid.ID, client.ID); err != nil {
		t.Fatalf("accept after confirm: %v", err)
	}
}
