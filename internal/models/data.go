package models

import "fmt"

// Имена типов записей, поставляемых вместе с движком.
// Набор типов конфигурируется приложением через Registry; эти три
// типа образуют стандартную конфигурацию клиента и сервера.
const (
	TypeCredential = "credential"
	TypeNote       = "note"
	TypeCard       = "card"
)

// DefaultRegistrations возвращает стандартный список типов.
// Клиент и сервер обязаны использовать одинаковый список: порядок
// типов входит в каноническую сериализацию.
func DefaultRegistrations() []Registration {
	return []Registration{
		{Name: TypeCredential, New: func() Record { return &Credential{} }},
		{Name: TypeNote, New: func() Record { return &Note{} }},
		{Name: TypeCard, New: func() Record { return &Card{} }},
	}
}

// stringField извлекает строковое поле из разобранного литерала.
// Отсутствующее поле трактуется как пустая строка.
func stringField(obj map[string]any, key string) (string, error) {
	raw, ok := obj[key]
	if !ok {
		return "", nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("field %q must be a string, got %T", key, raw)
	}
	return s, nil
}

// Credential представляет учетные данные (логин/пароль).
// Используется для хранения паролей от сайтов, приложений и сервисов.
type Credential struct {
	Meta
	Name     string // Name название учетной записи (например, "GitHub", "Gmail")
	Login    string // Login логин или email
	Password string // Password пароль
	URL      string // URL опциональный URL сайта или сервиса
	Notes    string // Notes опциональные заметки
}

func (c *Credential) TypeName() string { return TypeCredential }

func (c *Credential) PayloadFields() []Field {
	return []Field{
		{Key: "name", Value: c.Name},
		{Key: "login", Value: c.Login},
		{Key: "password", Value: c.Password},
		{Key: "url", Value: c.URL},
		{Key: "notes", Value: c.Notes},
	}
}

func (c *Credential) ParsePayload(obj map[string]any) error {
	fields := map[string]*string{
		"name":     &c.Name,
		"login":    &c.Login,
		"password": &c.Password,
		"url":      &c.URL,
		"notes":    &c.Notes,
	}
	for key, dst := range fields {
		s, err := stringField(obj, key)
		if err != nil {
			return err
		}
		*dst = s
	}
	return nil
}

func (c *Credential) Clone() Record {
	clone := *c
	return &clone
}

func (c *Credential) EqualPayload(other Record) bool {
	o, ok := other.(*Credential)
	if !ok {
		return false
	}
	return c.Name == o.Name && c.Login == o.Login &&
		c.Password == o.Password && c.URL == o.URL && c.Notes == o.Notes
}

// Display возвращает строку без пароля
func (c *Credential) Display() string {
	return fmt.Sprintf("credential %q (login %s)", c.Name, c.Login)
}

// Note представляет произвольные текстовые данные.
// Используется для заметок, секретных ключей, recovery-фраз и т.д.
type Note struct {
	Meta
	Name    string // Name название записи
	Content string // Content текстовое содержимое
}

func (n *Note) TypeName() string { return TypeNote }

func (n *Note) PayloadFields() []Field {
	return []Field{
		{Key: "name", Value: n.Name},
		{Key: "content", Value: n.Content},
	}
}

func (n *Note) ParsePayload(obj map[string]any) error {
	fields := map[string]*string{
		"name":    &n.Name,
		"content": &n.Content,
	}
	for key, dst := range fields {
		s, err := stringField(obj, key)
		if err != nil {
			return err
		}
		*dst = s
	}
	return nil
}

func (n *Note) Clone() Record {
	clone := *n
	return &clone
}

func (n *Note) EqualPayload(other Record) bool {
	o, ok := other.(*Note)
	if !ok {
		return false
	}
	return n.Name == o.Name && n.Content == o.Content
}

func (n *Note) Display() string {
	return fmt.Sprintf("note %q (%d chars)", n.Name, len(n.Content))
}

// Card представляет данные банковской карты.
type Card struct {
	Meta
	Name   string // Name название карты (например, "Visa Gold")
	Number string // Number номер карты
	Holder string // Holder имя держателя карты
	Expiry string // Expiry срок действия в формате MM/YY
	CVV    string // CVV CVV/CVC код
}

func (c *Card) TypeName() string { return TypeCard }

func (c *Card) PayloadFields() []Field {
	return []Field{
		{Key: "name", Value: c.Name},
		{Key: "number", Value: c.Number},
		{Key: "holder", Value: c.Holder},
		{Key: "expiry", Value: c.Expiry},
		{Key: "cvv", Value: c.CVV},
	}
}

func (c *Card) ParsePayload(obj map[string]any) error {
	fields := map[string]*string{
		"name":   &c.Name,
		"number": &c.Number,
		"holder": &c.Holder,
		"expiry": &c.Expiry,
		"cvv":    &c.CVV,
	}
	for key, dst := range fields {
		s, err := stringField(obj, key)
		if err != nil {
			return err
		}
		*dst = s
	}
	return nil
}

func (c *Card) Clone() Record {
	clone := *c
	return &clone
}

func (c *Card) EqualPayload(other Record) bool {
	o, ok := other.(*Card)
	if !ok {
		return false
	}
	return c.Name == o.Name && c.Number == o.Number &&
		c.Holder == o.Holder && c.Expiry == o.Expiry && c.CVV == o.CVV
}

// Display возвращает строку с маскированным номером карты
func (c *Card) Display() string {
	masked := c.Number
	if len(masked) > 4 {
		masked = "****" + masked[len(masked)-4:]
	}
	return fmt.Sprintf("card %q (%s)", c.Name, masked)
}
