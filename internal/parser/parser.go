// Package parser turns Korean payment push notification text into normalized
// transactions. Parsing is best effort: a push that cannot be understood
// degrades to sentinel values or, at worst, to an empty result. It never
// returns an error to the caller.
package parser

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/finnut/finnut/internal/domain"
)

var (
	// First comma-grouped digit run followed by the won glyph.
	amountRe = regexp.MustCompile(`([\d,]+)\s*원`)

	// Date accepts -, . or / separators; time is HH:MM. First match wins.
	datetimeRe = regexp.MustCompile(`(\d{4}[./-]\d{2}[./-]\d{2})\s*(\d{2}:\d{2})`)

	// Explicit merchant label used by KB and Samsung pushes.
	merchantLabelRe = regexp.MustCompile(`(가맹점|사용처)[:\s]*([^\n]+)`)
)

// Parser extracts normalized transactions from raw push text.
type Parser struct {
	log zerolog.Logger
	now func() time.Time
}

// New creates a Parser that logs degraded parses through log.
func New(log zerolog.Logger) *Parser {
	return &Parser{log: log, now: time.Now}
}

// Parse returns zero or one normalized transaction for a push text.
// The slice is empty only when parsing fails entirely; partial extraction
// failures fall back to defaults (amount 0, merchant 알수없음, timestamp now)
// instead of dropping the record.
func (p *Parser) Parse(text string) (txs []domain.Transaction) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error().Interface("panic", r).Str("raw_text", text).Msg("parse failed")
			txs = nil
		}
	}()

	source := detectSource(text)

	var raw extracted
	switch source {
	case domain.SourceShinhan:
		raw = p.extractShinhan(text)
	case domain.SourceKakaoPay:
		raw = p.extractKakaoPay(text)
	case domain.SourceKB:
		raw = p.extractKB(text)
	case domain.SourceSamsung:
		raw = p.extractSamsung(text)
	default:
		// Hyundai has no dedicated push format yet; it shares the
		// generic extractor with unrecognized senders.
		raw = p.extractGeneric(text)
	}

	merchant := raw.merchant
	if merchant == "" {
		merchant = domain.UnknownMerchant
	}
	method := raw.method
	if method == "" {
		method = domain.PaymentUnknown
	}
	if raw.amount < 0 {
		raw.amount = 0
	}

	return []domain.Transaction{{
		Timestamp:     raw.timestamp,
		Amount:        raw.amount,
		Merchant:      merchant,
		Source:        source,
		PaymentMethod: method,
		RawText:       text,
	}}
}

// detectSource sniffs the sending app from the push text. Checks run in a
// fixed priority order and the first hit wins; Latin tokens are matched
// case-insensitively.
func detectSource(text string) domain.Source {
	lower := strings.ToLower(text)

	switch {
	case strings.Contains(text, "카카오페이") || strings.Contains(lower, "kakaopay"):
		return domain.SourceKakaoPay
	case strings.Contains(text, "신한"):
		return domain.SourceShinhan
	case strings.Contains(lower, "kb") || strings.Contains(text, "국민"):
		return domain.SourceKB
	case strings.Contains(text, "현대"):
		return domain.SourceHyundai
	case strings.Contains(text, "삼성"):
		return domain.SourceSamsung
	default:
		return domain.SourceUnknown
	}
}

// extracted holds the raw fields an extractor pulled out of a push before
// normalization fills in sentinels.
type extracted struct {
	merchant  string
	amount    int64
	timestamp time.Time
	method    domain.PaymentMethod
}

func (p *Parser) extractShinhan(text string) extracted {
	return extracted{
		merchant:  secondLine(text),
		amount:    p.extractAmount(text),
		timestamp: p.extractTimestamp(text),
		method:    domain.PaymentCard,
	}
}

func (p *Parser) extractKakaoPay(text string) extracted {
	return extracted{
		merchant:  secondLine(text),
		amount:    p.extractAmount(text),
		timestamp: p.extractTimestamp(text),
		method:    domain.PaymentWallet,
	}
}

func (p *Parser) extractKB(text string) extracted {
	return extracted{
		merchant:  labeledMerchant(text, secondLine(text)),
		amount:    p.extractAmount(text),
		timestamp: p.extractTimestamp(text),
		method:    domain.PaymentCard,
	}
}

func (p *Parser) extractSamsung(text string) extracted {
	method := domain.PaymentCard
	if strings.Contains(text, "삼성페이") {
		method = domain.PaymentWallet
	}
	return extracted{
		merchant:  labeledMerchant(text, secondLine(text)),
		amount:    p.extractAmount(text),
		timestamp: p.extractTimestamp(text),
		method:    method,
	}
}

func (p *Parser) extractGeneric(text string) extracted {
	return extracted{
		merchant:  secondLine(text),
		amount:    p.extractAmount(text),
		timestamp: p.extractTimestamp(text),
	}
}

// extractAmount finds the first "N원" occurrence and parses it as whole won.
// Absence or a bad digit run both yield 0.
func (p *Parser) extractAmount(text string) int64 {
	m := amountRe.FindStringSubmatch(text)
	if m == nil {
		return 0
	}
	n, err := strconv.ParseInt(strings.ReplaceAll(m[1], ",", ""), 10, 64)
	if err != nil {
		p.log.Debug().Str("token", m[1]).Msg("amount token did not parse, using 0")
		return 0
	}
	return n
}

// extractTimestamp finds the first date+time token. The date separator may be
// -, . or /; it is normalized to - before parsing. Absence means "now".
func (p *Parser) extractTimestamp(text string) time.Time {
	m := datetimeRe.FindStringSubmatch(text)
	if m == nil {
		return p.now()
	}

	date := strings.NewReplacer(".", "-", "/", "-").Replace(m[1])
	ts, err := time.ParseInLocation("2006-01-02 15:04", date+" "+m[2], time.Local)
	if err != nil {
		p.log.Debug().Str("token", m[0]).Msg("datetime token did not parse, using now")
		return p.now()
	}
	return ts
}

// secondLine returns the second non-empty line of the push, the usual
// position of the merchant name, or "" when the push has fewer lines.
func secondLine(text string) string {
	var lines []string
	for _, l := range strings.Split(text, "\n") {
		if t := strings.TrimSpace(l); t != "" {
			lines = append(lines, t)
		}
	}
	if len(lines) >= 2 {
		return lines[1]
	}
	return ""
}

// labeledMerchant prefers an explicit 가맹점/사용처 label over the positional
// guess when the push carries one.
func labeledMerchant(text, fallback string) string {
	if m := merchantLabelRe.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[2])
	}
	return fallback
}
