package delivery

import (
	"fmt"
	"log/slog"
	"unicode/utf8"

	"github.com/worldbrief/worldbrief/internal/model"
	"github.com/worldbrief/worldbrief/internal/util"
)

// CarrierGateways maps common US carrier names to their email-to-SMS
// gateway domains.
var CarrierGateways = map[string]string{
	"att":     "txt.att.net",
	"verizon": "vtext.com",
	"tmobile": "tmomail.net",
	"sprint":  "messaging.sprintpcs.com",
}

const maxHeadlineLen = 55

// SMSDelivery sends top headlines through an email-to-SMS carrier
// gateway. Gateways ignore the subject line.
type SMSDelivery struct {
	mailer     *Mailer
	gateway    string
	recipients []string
	logger     *slog.Logger
}

// NewSMSDelivery creates an SMS sender. The gateway may be a carrier
// name from CarrierGateways or a raw gateway domain.
func NewSMSDelivery(mailer *Mailer, gateway string, recipients []string) *SMSDelivery {
	if domain, ok := CarrierGateways[gateway]; ok {
		gateway = domain
	}
	return &SMSDelivery{
		mailer:     mailer,
		gateway:    gateway,
		recipients: recipients,
		logger:     slog.Default(),
	}
}

// SendHeadlines texts the digest's SMS headline view to every recipient.
// Returns an error if any recipient fails.
func (d *SMSDelivery) SendHeadlines(digest *model.Digest) error {
	if len(d.recipients) == 0 {
		return fmt.Errorf("no SMS recipients configured")
	}

	message := FormatSMS(digest)

	var failed int
	for _, phone := range d.recipients {
		to := fmt.Sprintf("%s@%s", phone, d.gateway)
		if err := d.mailer.Send([]string{to}, "", "text/plain", message); err != nil {
			d.logger.Error("SMS send failed", "recipient", to, "error", err)
			failed++
			continue
		}
		d.logger.Info("SMS sent", "recipient", to)
	}

	if failed > 0 {
		return fmt.Errorf("failed to send SMS to %d of %d recipients", failed, len(d.recipients))
	}
	return nil
}

// SendBreakingAlert texts a single breaking headline.
func (d *SMSDelivery) SendBreakingAlert(headline string) error {
	if len(d.recipients) == 0 {
		return fmt.Errorf("no SMS recipients configured")
	}

	if utf8.RuneCountInString(headline) > 100 {
		headline = util.Truncate(headline, 97) + "..."
	}
	message := "BREAKING: " + headline

	var failed int
	for _, phone := range d.recipients {
		to := fmt.Sprintf("%s@%s", phone, d.gateway)
		if err := d.mailer.Send([]string{to}, "", "text/plain", message); err != nil {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("failed to send alert to %d of %d recipients", failed, len(d.recipients))
	}
	return nil
}

// FormatSMS renders the headline view within SMS length constraints.
func FormatSMS(digest *model.Digest) string {
	message := fmt.Sprintf("News %s:", digest.Date.Format("01/02"))

	for i, article := range digest.SMSHeadlines {
		title := article.Title
		if utf8.RuneCountInString(title) > maxHeadlineLen {
			title = util.Truncate(title, maxHeadlineLen-3) + "..."
		}
		message += fmt.Sprintf("\n%d. %s", i+1, title)
	}

	return message
}
