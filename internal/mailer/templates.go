package mailer

import (
	"bytes"
	"fmt"
	"html/template"
)

const resetSubject = "Action Required: Reset Your SilayLearn Password"

var resetHTML = template.Must(template.New("reset").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Password Reset</title>
</head>
<body style="font-family: Arial, sans-serif; background-color: #f7f7f7; padding: 20px;">
    <div style="max-width: 600px; margin: 0 auto; background-color: #ffffff; border-radius: 12px; box-shadow: 0 4px 12px rgba(0,0,0,0.05); overflow: hidden;">
        <div style="background-color: #1D4ED8; background-image: linear-gradient(to right, #1D4ED8, #0D9488); color: white; padding: 24px 20px; text-align: center;">
            <h1 style="margin: 0; font-size: 24px; font-weight: bold;">SilayLearn Password Reset</h1>
        </div>
        <div style="padding: 30px; color: #333333;">
            <p style="margin-top: 0;">Hello,</p>
            <p>We received a request to reset the password for your SilayLearn account. Click the button below to choose a new password.</p>
            <p style="text-align: center; margin: 30px 0;">
                <a href="{{.Link}}" style="background-color: #0D9488; color: white; padding: 12px 24px; text-decoration: none; border-radius: 8px; font-weight: bold; display: inline-block;">Reset Password</a>
            </p>
            <p>This link expires in {{.ExpiresIn}}. If you did not request a reset, you can ignore this email.</p>
            <p style="font-size: 12px; color: #888888; word-break: break-all;">If the button does not work, copy this link into your browser:<br>{{.Link}}</p>
        </div>
    </div>
</body>
</html>
`))

type resetData struct {
	Link      string
	ExpiresIn string
}

// renderReset returns the plain text and HTML bodies of the reset email.
func renderReset(link, expiresIn string) (string, string, error) {
	plain := fmt.Sprintf("Hello,\nYou requested a password reset. Please click the link below:\n%s", link)

	var buf bytes.Buffer
	if err := resetHTML.Execute(&buf, resetData{Link: link, ExpiresIn: expiresIn}); err != nil {
		return "", "", fmt.Errorf("render reset email: %w", err)
	}
	return plain, buf.String(), nil
}
