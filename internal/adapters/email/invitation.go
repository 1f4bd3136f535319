package email

import (
	"bytes"
	"html/template"
	"time"
)

var invitationTmpl = template.Must(template.New("invitation").Parse(`<p>Hello,</p>
<p>{{.Inviter}} has invited you to coach on Skill Coach.</p>
<p><a href="{{.Link}}">Accept your invitation</a></p>
<p>This link expires on {{.Expires}}.</p>`))

// Invitation builds the coach invitation email.
// PRE: link is an absolute accept URL carrying the signed token
func Invitation(to, inviter, link string, expiresAt time.Time) (Message, error) {
	var buf bytes.Buffer
	err := invitationTmpl.Execute(&buf, struct {
		Inviter, Link, Expires string
	}{inviter, link, expiresAt.UTC().Format("2 January 2006")})
	if err != nil {
		return Message{}, err
	}
	return Message{To: []string{to}, Subject: "You're invited to coach on Skill Coach", HTML: buf.String()}, nil
}
