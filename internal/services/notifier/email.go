package notifier

import (
	"context"
	"fmt"
	"strings"

	"github.com/pulseguard/pulseguard/internal/domain/notification"
	"github.com/pulseguard/pulseguard/internal/event"
)

// Deliverer is the SMTP transport the rendered mail is handed to.
type Deliverer interface {
	Deliver(ctx context.Context, to, subject, body string) error
}

// EmailSender renders a transition into the plain-text alert mail and
// hands it to the Mailer.
type EmailSender struct {
	Mailer Deliverer
}

var _ Sender = (*EmailSender)(nil)

func (s *EmailSender) Send(ctx context.Context, ev event.Transition, cfg *notification.Config, recovery bool) error {
	st := ev.Status
	prefix := "ALERT"
	if recovery {
		prefix = "RECOVERED"
	}
	upper := strings.ToUpper(string(st.Status))
	subject := fmt.Sprintf("%s: %s %s", prefix, ev.Server.Name, upper)

	lastCheck := "N/A"
	if st.LastCheck != nil {
		lastCheck = st.LastCheck.UTC().Format("2006-01-02 15:04:05")
	}
	detail := st.Message
	if detail == "" {
		detail = "No additional details"
	}

	body := fmt.Sprintf(`Server Status Alert

Server: %s
Status: %s
URL: %s

Details:
- Last Check: %s
- Uptime: %.2f%%
- Consecutive Failures: %d
- Message: %s

---
This is an automated message from PulseGuard
`,
		ev.Server.Name, upper, ev.Server.URL(),
		lastCheck, st.UptimePercentage, st.ConsecutiveFailures, detail)

	return s.Mailer.Deliver(ctx, cfg.Recipient, subject, body)
}
