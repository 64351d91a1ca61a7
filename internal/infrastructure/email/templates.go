package email

import (
	"bytes"
	"fmt"
	"html/template"
)

// templateSource maps template names to subject line and HTML body. Bodies
// are parsed once at package init.
var templateSource = map[string]struct {
	subject string
	body    string
}{
	"email_verification": {
		subject: "Verify your email address",
		body: `<html><body>
<p>Hi {{.Name}},</p>
<p>Thanks for registering. Please confirm your email address by visiting the
link below:</p>
<p><a href="{{.Data.verification_url}}">{{.Data.verification_url}}</a></p>
<p>If you did not create this account, you can ignore this message.</p>
</body></html>`,
	},
	"account_locked": {
		subject: "Your account has been locked",
		body: `<html><body>
<p>Hi {{.Name}},</p>
<p>Your account was locked after repeated failed login attempts. Contact an
administrator to restore access.</p>
</body></html>`,
	},
}

var templates = func() map[string]*template.Template {
	out := make(map[string]*template.Template, len(templateSource))
	for name, src := range templateSource {
		out[name] = template.Must(template.New(name).Parse(src.body))
	}
	return out
}()

type templateInput struct {
	Name string
	Data map[string]string
}

// render produces the subject and HTML body for a named template.
func render(name string, in templateInput) (subject, body string, err error) {
	tmpl, ok := templates[name]
	if !ok {
		return "", "", fmt.Errorf("unknown email template %q", name)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, in); err != nil {
		return "", "", fmt.Errorf("render template %q: %w", name, err)
	}
	return templateSource[name].subject, buf.String(), nil
}
