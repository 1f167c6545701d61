package types

type Env string

const (
	Local      Env = "local"
	Test       Env = "test"
	Production Env = "production"
)

type ReservationStatus string

const (
	RESERVATION_REQUESTED           ReservationStatus = "requested"
	RESERVATION_AWAITING_ACCEPTANCE ReservationStatus = "awaiting_acceptance"
	RESERVATION_CONFIRMED           ReservationStatus = "confirmed"
	RESERVATION_CANCELLED_BY_RENTER ReservationStatus = "cancelled_by_renter"
	RESERVATION_CANCELLED_BY_HOST   ReservationStatus = "cancelled_by_host"
	RESERVATION_COMPLETED           ReservationStatus = "completed"
)

type BillingFrequency string

const (
	BILLING_DAILY   BillingFrequency = "daily"
	BILLING_WEEKLY  BillingFrequency = "weekly"
	BILLING_MONTHLY BillingFrequency = "monthly"
)

type TransactionType string

const (
	TRANSACTION_RECURRING_PAYMENT  TransactionType = "recurring_payment"
	TRANSACTION_EARLY_CANCELLATION TransactionType = "early_cancellation"
)

type CreateReservationRequestBody struct {
	SpaceID   string  `json:"space_id" binding:"required"`
	StartDate string  `json:"start_date" binding:"required,futuredate"`
	EndDate   *string `json:"end_date,omitempty" binding:"omitempty,futuredate"`
}

type AttachPaymentMethodRequestBody struct {
	PaymentMethodID string `json:"pm_id" binding:"required"`
}

type SetDefaultPaymentMethodRequestBody struct {
	PaymentMethodID string `json:"pm_id" binding:"required"`
}

type ReservationURIParams struct {
	ReservationID string `uri:"id" binding:"required"`
}
