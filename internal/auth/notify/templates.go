package notify

import (
	"bytes"
	"embed"
	htmltemplate "html/template"
	"strconv"
	texttemplate "text/template"
	"time"
)

const (
	SubjectVerifyEmail   = "Verify Your Email"
	SubjectPasswordReset = "Password Reset OTP"
)

//go:embed templates/*
var templateFS embed.FS

var (
	htmlTemplates = htmltemplate.Must(htmltemplate.ParseFS(templateFS, "templates/*.html"))
	textTemplates = texttemplate.Must(texttemplate.ParseFS(templateFS, "templates/*.txt"))
)

type verifyData struct {
	Username string
	Link     string
	Expiry   string
}

type resetData struct {
	Username string
	Code     string
	Expiry   string
}

// VerificationMessage renders the email carrying the account verification link.
func VerificationMessage(to, username, link string, ttl time.Duration) (Message, error) {
	return render(to, SubjectVerifyEmail, "verify_email", verifyData{
		Username: username,
		Link:     link,
		Expiry:   humanize(ttl),
	})
}

// PasswordResetMessage renders the email carrying a password reset code.
func PasswordResetMessage(to, username, code string, ttl time.Duration) (Message, error) {
	return render(to, SubjectPasswordReset, "password_reset", resetData{
		Username: username,
		Code:     code,
		Expiry:   humanize(ttl),
	})
}

func render(to, subject, name string, data any) (Message, error) {
	var html, text bytes.Buffer
	if err := htmlTemplates.ExecuteTemplate(&html, name+".html", data); err != nil {
		return Message{}, err
	}
	if err := textTemplates.ExecuteTemplate(&text, name+".txt", data); err != nil {
		return Message{}, err
	}

	return Message{
		To:      to,
		Subject: subject,
		HTML:    html.String(),
		Text:    text.String(),
	}, nil
}

// humanize renders durations the way people write them: "1 hour", "15 minutes".
func humanize(d time.Duration) string {
	switch {
	case d >= time.Hour && d%time.Hour == 0:
		return plural(int(d/time.Hour), "hour")
	case d >= time.Minute && d%time.Minute == 0:
		return plural(int(d/time.Minute), "minute")
	default:
		return d.String()
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return strconv.Itoa(n) + " " + unit + "s"
}
