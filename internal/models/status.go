package models

type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusProcessing OrderStatus = "processing"
	StatusShipped    OrderStatus = "shipped"
	StatusDelivered  OrderStatus = "delivered"
	StatusCancelled  OrderStatus = "cancelled"
)

var validStatuses = map[OrderStatus]struct{}{
	StatusPending:    {},
	StatusProcessing: {},
	StatusShipped:    {},
	StatusDelivered:  {},
	StatusCancelled:  {},
}

func (s OrderStatus) Valid() bool {
	_, ok := validStatuses[s]
	return ok
}

const (
	PaymentCreditCard   = "credit_card"
	PaymentDebitCard    = "debit_card"
	PaymentPayPal       = "paypal"
	PaymentBankTransfer = "bank_transfer"
)

func ValidPaymentMethod(m string) bool {
	switch m {
	case PaymentCreditCard, PaymentDebitCard, PaymentPayPal, PaymentBankTransfer:
		return true
	}
	return false
}
