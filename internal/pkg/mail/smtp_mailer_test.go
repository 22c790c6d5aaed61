package mail

import (
	"strings"
	"testing"
)

func TestBuildMessage(t *testing.T) {
	msg := string(buildMessage("no-reply@juridiskporten.no", "kari@example.no", "Velkommen", "<p>Hei</p>"))

	header, body, found := strings.Cut(msg, "\r\n\r\n")
	if !found {
		t.Fatal("message has no blank line between headers and body")
	}
	if body != "<p>Hei</p>" {
		t.Errorf("body = %q", body)
	}
	for _, want := range []string{
		"From: JuridiskPorten <no-reply@juridiskporten.no>",
		"To: kari@example.no",
		"Subject: Velkommen",
		"Content-Type: text/html; charset=UTF-8",
	} {
		if !strings.Contains(header, want) {
			t.Errorf("headers missing %q:\n%s", want, header)
		}
	}
}
