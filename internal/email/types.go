package email

// Email представляет структуру email сообщения
type Email struct {
	From     string
	To       []string
	Subject  string
	Body     string
	HTMLBody string
	// Tag - для логов (имя шаблона)
	Tag string
}

// TemplateData - значения для подстановки в шаблон
type TemplateData map[string]string
