package adapter

import "context"

// Mailer sends transactional email. Implementations must be safe for
// concurrent use; callers treat every send as best-effort.
type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// Messenger sends a WhatsApp/SMS message via the external provider.
type Messenger interface {
	Send(ctx context.Context, phone, message string) error
}
