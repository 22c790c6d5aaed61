package mail

import (
	"fmt"
	"net"
	"net/smtp"
	"strings"

	"github.com/gofiber/fiber/v2/log"

	"github.com/juridiskporten/portal/internal/pkg/env"
)

const senderName = "JuridiskPorten"

// SendMail delivers one HTML mail through the SMTP relay configured in the
// environment. Callers run it off the request path via the job queue, so a
// slow relay never stalls a request.
func SendMail(to, subject, body string) error {
	host := env.GetEnv("SMTP_HOST", "localhost")
	port := env.GetEnv("SMTP_PORT", "25")
	from := env.GetEnv("SMTP_FROM", "no-reply@juridiskporten.no")

	var auth smtp.Auth
	if user := env.GetEnv("SMTP_USER", ""); user != "" {
		auth = smtp.PlainAuth("", user, env.GetEnv("SMTP_PASSWORD", ""), host)
	}

	addr := net.JoinHostPort(host, port)
	if err := smtp.SendMail(addr, auth, from, []string{to}, buildMessage(from, to, subject, body)); err != nil {
		return fmt.Errorf("mail: sending %q to %s via %s: %w", subject, to, addr, err)
	}
	log.Debugf("[Mail] Sent %q to %s", subject, to)
	return nil
}

// buildMessage assembles an HTML mail with CRLF line endings.
func buildMessage(from, to, subject, body string) []byte {
	var b strings.Builder
	b.WriteString("From: " + senderName + " <" + from + ">\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + subject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return []byte(b.String())
}
