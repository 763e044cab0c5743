// Package notify holds the notification channel contracts and the
// destination validation that runs at alert-creation time. Provider glue
// (Postmark, Twilio, ...) lives behind the two interfaces.
package notify

import (
	"context"
	"fmt"
	"log"
	"net/mail"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// EmailSender delivers an email to a destination address
type EmailSender interface {
	Send(ctx context.Context, toAddress, subject string, vars map[string]string) error
}

// SMSSender delivers a text message to an E.164 phone number
type SMSSender interface {
	Send(ctx context.Context, toNumber, body string) error
}

var e164Pattern = regexp.MustCompile(`^\+[1-9][0-9]{7,14}$`)

// ValidateEmail checks that s is a deliverable email address
func ValidateEmail(s string) error {
	addr, err := mail.ParseAddress(s)
	if err != nil {
		return fmt.Errorf("invalid email address %q: %w", s, err)
	}
	if addr.Address != s {
		return fmt.Errorf("invalid email address %q", s)
	}
	return nil
}

// NormalizePhone strips formatting characters and validates the result as an
// E.164 number. A bare US 10-digit number gets a +1 prefix.
func NormalizePhone(s string) (string, error) {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '(', ')', '.':
			return -1
		}
		return r
	}, s)

	if len(cleaned) == 10 && !strings.HasPrefix(cleaned, "+") {
		cleaned = "+1" + cleaned
	}
	if !e164Pattern.MatchString(cleaned) {
		return "", fmt.Errorf("invalid phone number %q: not E.164", s)
	}
	return cleaned, nil
}

// AlertSubject is the email subject line for a fired price alert
func AlertSubject(symbol string) string {
	return fmt.Sprintf("Price alert: %s", symbol)
}

// AlertBody is the message text for a fired price alert. direction is
// "above" or "below".
func AlertBody(symbol, direction string, threshold decimal.Decimal) string {
	return fmt.Sprintf("%s is now %s your alert price of $%s.", symbol, direction, threshold.StringFixed(2))
}

// LogEmailSender writes emails to the process log. Used when no email
// provider is configured.
type LogEmailSender struct{}

// Send logs the email instead of delivering it
func (LogEmailSender) Send(ctx context.Context, toAddress, subject string, vars map[string]string) error {
	log.Printf("notify: email to %s: %s %v", toAddress, subject, vars)
	return nil
}

// LogSMSSender writes text messages to the process log. Used when no SMS
// provider is configured.
type LogSMSSender struct{}

// Send logs the message instead of delivering it
func (LogSMSSender) Send(ctx context.Context, toNumber, body string) error {
	log.Printf("notify: sms to %s: %s", toNumber, body)
	return nil
}
