package email

import (
	"html"
	"regexp"
)

// Имена встроенных шаблонов
const (
	TemplateWelcome               = "welcome"
	TemplateEmailVerification     = "email_verification"
	TemplateSubscriptionActivated = "subscription_activated"
)

var placeholderRe = regexp.MustCompile(`\{\{\s*(\w+)\s*\}\}`)

// Interpolate заменяет {{ key }} значениями из data. Неизвестные ключи становятся пустой строкой.
func Interpolate(text string, data TemplateData) string {
	return placeholderRe.ReplaceAllStringFunc(text, func(match string) string {
		key := placeholderRe.FindStringSubmatch(match)[1]
		return data[key]
	})
}

// InterpolateHTML - то же, но значения экранируются для HTML тела
func InterpolateHTML(text string, data TemplateData) string {
	escaped := make(TemplateData, len(data))
	for k, v := range data {
		escaped[k] = html.EscapeString(v)
	}
	return Interpolate(text, escaped)
}

// Placeholders возвращает уникальные имена переменных в порядке появления
func Placeholders(text string) []string {
	seen := map[string]bool{}
	var out []string
	for _, m := range placeholderRe.FindAllStringSubmatch(text, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			out = append(out, m[1])
		}
	}
	return out
}

// Template - шаблон письма без привязки к БД
type Template struct {
	Name    string
	Subject string
	Body    string
}

// Render подставляет данные в тему и тело
func (t Template) Render(data TemplateData) (subject, body string) {
	return Interpolate(t.Subject, data), InterpolateHTML(t.Body, data)
}

var builtins = map[string]Template{
	TemplateWelcome: {
		Name:    TemplateWelcome,
		Subject: "Welcome to {{ siteName }}, {{ name }}!",
		Body: `<h1>Welcome, {{ name }}!</h1>
<p>Your account on {{ siteName }} is ready.</p>
<p><a href="{{ siteUrl }}">Open {{ siteName }}</a></p>`,
	},
	TemplateEmailVerification: {
		Name:    TemplateEmailVerification,
		Subject: "Confirm your email for {{ siteName }}",
		Body: `<p>Hi {{ name }},</p>
<p>Please confirm your email address by following the link below:</p>
<p><a href="{{ verificationUrl }}">Confirm email</a></p>`,
	},
	TemplateSubscriptionActivated: {
		Name:    TemplateSubscriptionActivated,
		Subject: "Your {{ plan }} subscription is active",
		Body: `<p>Hi {{ name }},</p>
<p>Your {{ plan }} subscription is now active until {{ periodEnd }}.</p>`,
	},
}

// Builtin возвращает встроенный шаблон по имени
func Builtin(name string) (Template, bool) {
	t, ok := builtins[name]
	return t, ok
}

// SampleData - тестовые значения для предпросмотра шаблона
func SampleData(vars []string) TemplateData {
	data := TemplateData{
		"name":            "Jane Doe",
		"email":           "jane@example.com",
		"siteName":        "ChatSaaS",
		"siteUrl":         "https://example.com",
		"verificationUrl": "https://example.com/verify?token=sample",
		"plan":            "PRO",
		"periodEnd":       "2030-01-01",
	}
	for _, v := range vars {
		if _, ok := data[v]; !ok {
			data[v] = "[" + v + "]"
		}
	}
	return data
}
