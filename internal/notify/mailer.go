package notify

import (
	"fmt"
	"io"

	"gopkg.in/gomail.v2"

	"github.com/fjod/go_shop/internal/domain"
)

// SMTPMailer sends notification mail through a plain SMTP relay.
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

var _ Mailer = (*SMTPMailer)(nil)

func NewSMTPMailer(host string, port int, username, password, from string) *SMTPMailer {
	return &SMTPMailer{
		dialer: gomail.NewDialer(host, port, username, password),
		from:   from,
	}
}

func (m *SMTPMailer) SendOrderConfirmation(order *domain.Order) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", order.Email)
	msg.SetHeader("Subject", fmt.Sprintf("Order nr. %s", order.ID))
	msg.SetBody("text/plain", fmt.Sprintf(
		"Dear %s,\n\nYou have successfully placed an order. Your order ID is %s.",
		order.FirstName, order.ID))

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send order confirmation: %w", err)
	}
	return nil
}

func (m *SMTPMailer) SendInvoice(order *domain.Order, invoice []byte) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", order.Email)
	msg.SetHeader("Subject", fmt.Sprintf("Invoice no. %s", order.ID))
	msg.SetBody("text/plain", "Please find attached the invoice for your recent purchase.")
	msg.Attach(fmt.Sprintf("order_%s.pdf", order.ID),
		gomail.SetCopyFunc(func(w io.Writer) error {
			_, err := w.Write(invoice)
			return err
		}),
		gomail.SetHeader(map[string][]string{"Content-Type": {"application/pdf"}}))

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send invoice: %w", err)
	}
	return nil
}
