package domain

const (
	RoleClient = "client"
	RoleWriter = "writer"
	RoleAdmin  = "admin"
)

const (
	BidStatusOpen      = "open"
	BidStatusPending   = "pending"
	BidStatusAccepted  = "accepted"
	BidStatusRejected  = "rejected"
	BidStatusCancelled = "cancelled"

	// Derived at read time only, never stored: the client edited the order
	// after the bid was submitted and the writer has not re-confirmed.
	BidStatusUnconfirmed = "unconfirmed"
)

const (
	OrderStatusOpen       = "open"
	OrderStatusInProgress = "in_progress"
	OrderStatusCompleted  = "completed"
	OrderStatusCancelled  = "cancelled"
)

const (
	PaymentStatusUnpaid = "unpaid"
	PaymentStatusPaid   = "paid"
)

const (
	OrderPaymentPending = "pending"
	OrderPaymentSuccess = "success"
)

const (
	WithdrawalStatusPending  = "pending"
	WithdrawalStatusPaid     = "paid"
	WithdrawalStatusRejected = "rejected"
)

// Ledger entry types. Amounts are signed: credits positive, debits negative.
const (
	TxTypeDeposit    = "deposit"
	TxTypeWithdrawal = "withdrawal"
	TxTypePayment    = "payment"
	TxTypeRefund     = "refund"
)

// Ledger reference types.
const (
	RefTypeOrder      = "order"
	RefTypeWithdrawal = "withdrawal"
	RefTypePaystack   = "paystack"
)
