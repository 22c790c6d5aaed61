package jobqueue

import (
	"fmt"

	"github.com/juridiskporten/portal/internal/pkg/mail"
)

// sendMail is swapped out in tests
var sendMail = mail.SendMail

// processMailDeliveryJob delivers one queued mail via SMTP
func (q *Queue) processMailDeliveryJob(job *Job) error {
	payload, err := MailDeliveryJobPayloadFromMap(job.Payload)
	if err != nil {
		return fmt.Errorf("invalid mail payload: %w", err)
	}
	if payload.To == "" {
		return fmt.Errorf("mail job %s has no recipient", job.ID)
	}

	return sendMail(payload.To, payload.Subject, payload.Body)
}

// EnqueueMail queues an outbound mail for asynchronous delivery
func (q *Queue) EnqueueMail(to, subject, body string) (*Job, error) {
	payload := MailDeliveryJobPayload{To: to, Subject: subject, Body: body}
	return q.EnqueueJob(JobTypeMailDelivery, payload.ToMap())
}
