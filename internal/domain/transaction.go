package domain

import (
	"time"
)

// Source identifies the app that sent a payment push notification. It is
// inferred from the raw text by the parser; pushes that match no known
// sender keep SourceUnknown.
type Source string

const (
	SourceKakaoPay Source = "kakaopay"
	SourceShinhan  Source = "shinhan"
	SourceKB       Source = "kb"
	SourceHyundai  Source = "hyundai"
	SourceSamsung  Source = "samsung"
	SourceUnknown  Source = "unknown"
)

// PaymentMethod is the payment rail behind a notification, fixed by sender
// convention (card issuers push card payments, KakaoPay pushes wallet
// payments, Samsung depends on whether the text mentions 삼성페이).
type PaymentMethod string

const (
	PaymentCard    PaymentMethod = "card"
	PaymentWallet  PaymentMethod = "wallet"
	PaymentUnknown PaymentMethod = "unknown"
)

// UnknownMerchant is the sentinel merchant name used when a push carries no
// recognizable merchant line.
const UnknownMerchant = "알수없음"

// Transaction is the normalized record every pipeline stage operates on.
// The parser produces it, the classifier fills Category, and the detectors
// and the FHI calculator only read it. All seven fields are always set,
// falling back to sentinels (amount 0, merchant 알수없음, timestamp "now")
// rather than being omitted. Amount is whole won, never negative.
type Transaction struct {
	Timestamp     time.Time     `json:"timestamp"`
	Amount        int64         `json:"amount"`
	Merchant      string        `json:"merchant"`
	Category      string        `json:"category"`
	Source        Source        `json:"source"`
	PaymentMethod PaymentMethod `json:"payment_method"`
	RawText       string        `json:"raw_text"`
}

// Scorable reports whether the detectors should include this transaction:
// it needs a real timestamp and a positive amount. Records failing this are
// silently skipped, never an error.
func (t Transaction) Scorable() bool {
	return !t.Timestamp.IsZero() && t.Amount > 0
}
