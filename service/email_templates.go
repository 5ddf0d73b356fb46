package service

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"
)

// emailData is the model passed to every contract email template.
type emailData struct {
	RecipientName string
	SenderName    string
	SignerName    string
	ContractTitle string
	ContractID    string
	Message       string
	ContractURL   string
	DaysRemaining int
}

type emailTemplate struct {
	subject *texttemplate.Template
	html    *htmltemplate.Template
	text    *texttemplate.Template
}

func newEmailTemplate(name, subject, html, text string) emailTemplate {
	return emailTemplate{
		subject: texttemplate.Must(texttemplate.New(name + "_subject").Parse(subject)),
		html:    htmltemplate.Must(htmltemplate.New(name + "_html").Parse(html)),
		text:    texttemplate.Must(texttemplate.New(name + "_text").Parse(text)),
	}
}

func (t emailTemplate) render(to, toName string, data emailData) (Email, error) {
	var subject, html, text bytes.Buffer
	if err := t.subject.Execute(&subject, data); err != nil {
		return Email{}, fmt.Errorf("render subject: %w", err)
	}
	if err := t.html.Execute(&html, data); err != nil {
		return Email{}, fmt.Errorf("render html: %w", err)
	}
	if err := t.text.Execute(&text, data); err != nil {
		return Email{}, fmt.Errorf("render text: %w", err)
	}
	return Email{
		To:      to,
		ToName:  toName,
		Subject: subject.String(),
		HTML:    html.String(),
		Text:    text.String(),
	}, nil
}

var sharedEmail = newEmailTemplate("shared",
	`Contract Shared: {{.ContractTitle}}`,
	`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2 style="color: #333;">Contract Shared</h2>
  <p>Hi {{.RecipientName}},</p>
  <p>{{.SenderName}} has shared a contract with you for review and signature.</p>
  <div style="background-color: #f5f5f5; padding: 15px; border-radius: 5px; margin: 20px 0;">
    <p><strong>Contract:</strong> {{.ContractTitle}}</p>
    <p><strong>Contract ID:</strong> #{{.ContractID}}</p>
    {{if .Message}}<p><strong>Message:</strong> {{.Message}}</p>{{end}}
  </div>
  <p><a href="{{.ContractURL}}" style="background-color: #6366f1; color: white; padding: 12px 24px; text-decoration: none; border-radius: 5px; display: inline-block; font-weight: bold;">Review &amp; Sign Contract</a></p>
  <p style="color: #666; font-size: 12px; margin-top: 30px;">A PDF copy of the contract is attached to this email for your reference.</p>
</div>`,
	`Contract Shared

Hi {{.RecipientName}},

{{.SenderName}} has shared a contract with you for review and signature.

Contract: {{.ContractTitle}}
Contract ID: #{{.ContractID}}
{{if .Message}}Message: {{.Message}}
{{end}}
Review and sign the contract here: {{.ContractURL}}

A PDF copy of the contract is attached to this email for your reference.`)

var signedEmail = newEmailTemplate("signed",
	`Contract Signed: {{.ContractTitle}}`,
	`<h2>Contract Signed</h2>
<p>The contract "<strong>{{.ContractTitle}}</strong>" has been signed by <strong>{{.SignerName}}</strong>.</p>
<p><strong>Contract ID:</strong> #{{.ContractID}}</p>
<p><strong>Status:</strong> Signed</p>`,
	`Contract Signed

The contract "{{.ContractTitle}}" has been signed by {{.SignerName}}.

Contract ID: #{{.ContractID}}
Status: Signed`)

var executedEmail = newEmailTemplate("executed",
	`Contract Executed: {{.ContractTitle}}`,
	`<h2>Contract Executed</h2>
<p>The contract "<strong>{{.ContractTitle}}</strong>" has been executed and is now active.</p>
<p><strong>Contract ID:</strong> #{{.ContractID}}</p>
<p><strong>Status:</strong> Executed</p>
<p>All parties have agreed to the terms. The contract is now in effect.</p>`,
	`Contract Executed

The contract "{{.ContractTitle}}" has been executed and is now active.

Contract ID: #{{.ContractID}}
Status: Executed`)

var reminderEmail = newEmailTemplate("reminder",
	`Reminder: Sign {{.ContractTitle}}`,
	`<h2>Reminder: Unsigned Contract</h2>
<p>Hi {{.RecipientName}},</p>
<p>You have an unsigned contract awaiting your review and signature.</p>
<p><strong>Contract:</strong> {{.ContractTitle}}</p>
<p><strong>Contract ID:</strong> #{{.ContractID}}</p>
{{if ge .DaysRemaining 0}}<p><strong>Days Remaining:</strong> {{.DaysRemaining}}</p>{{end}}
<p><a href="{{.ContractURL}}" style="background-color: #6366f1; color: white; padding: 10px 20px; text-decoration: none; border-radius: 5px; display: inline-block;">Review &amp; Sign Contract</a></p>
<p>Please sign this contract at your earliest convenience.</p>`,
	`Reminder: Unsigned Contract

Hi {{.RecipientName}},

You have an unsigned contract awaiting your review and signature.

Contract: {{.ContractTitle}}
Contract ID: #{{.ContractID}}
{{if ge .DaysRemaining 0}}Days Remaining: {{.DaysRemaining}}
{{end}}
Review and sign: {{.ContractURL}}`)
