package models

import (
	"errors"
	"fmt"

	"github.com/iudanet/synckeeper/internal/codec"
)

// Имена служебных полей записи в канонической форме
const (
	FieldCreated  = "_created"
	FieldModified = "_modified"
	FieldDeleted  = "_deleted"
)

var (
	// ErrUnknownType indicates a record type that is not configured in the registry
	ErrUnknownType = errors.New("unknown record type")

	// ErrInvalidRecord indicates a record literal with missing or malformed intrinsic fields
	ErrInvalidRecord = errors.New("invalid record")
)

// Meta содержит служебные поля записи.
// Created - timestamp создания в миллисекундах, одновременно уникальный
// идентификатор записи; неизменяем после первого сохранения.
// Modified - timestamp последнего изменения, 0 если запись не менялась.
// Инвариант: Modified > Created всегда, когда Modified != 0.
type Meta struct {
	Created  int64
	Modified int64
}

// MetaInfo возвращает указатель на служебные поля.
// Встраивание Meta в payload-тип дает ему эту половину интерфейса Record.
func (m *Meta) MetaInfo() *Meta { return m }

// Field представляет одно поле payload в канонической форме.
type Field struct {
	Value any
	Key   string
}

// Record представляет запись хранилища. Запись полиморфна над набором
// типов, сконфигурированным при создании реестра; payload отвечает за
// каноническую форму своих полей, равенство и отображаемую строку.
type Record interface {
	// TypeName возвращает имя типа записи (ключ реестра)
	TypeName() string

	// MetaInfo возвращает служебные поля записи
	MetaInfo() *Meta

	// PayloadFields возвращает поля payload в каноническом порядке
	PayloadFields() []Field

	// ParsePayload заполняет payload из разобранной канонической формы
	ParsePayload(obj map[string]any) error

	// Clone возвращает глубокую копию записи
	Clone() Record

	// EqualPayload сравнивает payload-ы без учета служебных полей
	EqualPayload(other Record) bool

	// Display возвращает отображаемую строку записи без секретных полей
	Display() string
}

// Tombstone представляет компактный след удаленной записи.
// Payload удаленной записи не сохраняется.
type Tombstone struct {
	Created int64
	Deleted int64
}

// MarshalRecord строит каноническую форму записи: _created первым,
// _modified вторым (опускается при 0), затем поля payload в порядке,
// который объявляет тип.
func MarshalRecord(r Record) *codec.Object {
	meta := r.MetaInfo()
	obj := codec.NewObject().Set(FieldCreated, meta.Created)
	if meta.Modified != 0 {
		obj.Set(FieldModified, meta.Modified)
	}
	for _, f := range r.PayloadFields() {
		obj.Set(f.Key, f.Value)
	}
	return obj
}

// MarshalTombstone строит каноническую форму tombstone: {_created, _deleted}.
func MarshalTombstone(t Tombstone) *codec.Object {
	return codec.NewObject().
		Set(FieldCreated, t.Created).
		Set(FieldDeleted, t.Deleted)
}

// IsTombstone определяет, является ли разобранный литерал tombstone-ом.
func IsTombstone(obj map[string]any) bool {
	_, ok := obj[FieldDeleted]
	return ok
}

// ParseTombstone разбирает литерал tombstone.
func ParseTombstone(obj map[string]any) (Tombstone, error) {
	rawCreated, ok := obj[FieldCreated]
	if !ok {
		return Tombstone{}, fmt.Errorf("%w: tombstone missing %s", ErrInvalidRecord, FieldCreated)
	}
	created, err := codec.Int64(rawCreated)
	if err != nil {
		return Tombstone{}, fmt.Errorf("%w: tombstone %s: %v", ErrInvalidRecord, FieldCreated, err)
	}

	rawDeleted := obj[FieldDeleted]
	deleted, err := codec.Int64(rawDeleted)
	if err != nil {
		return Tombstone{}, fmt.Errorf("%w: tombstone %s: %v", ErrInvalidRecord, FieldDeleted, err)
	}

	if created <= 0 || deleted <= 0 {
		return Tombstone{}, fmt.Errorf("%w: tombstone timestamps must be positive", ErrInvalidRecord)
	}

	return Tombstone{Created: created, Deleted: deleted}, nil
}

// Registration связывает имя типа с конструктором пустой записи.
type Registration struct {
	New  func() Record
	Name string
}

// Registry хранит сконфигурированный упорядоченный список типов.
// Порядок регистрации определяет порядок типов в канонической
// сериализации, поэтому все участники синхронизации обязаны
// конфигурировать одинаковый список.
type Registry struct {
	factories map[string]func() Record
	order     []string
}

// NewRegistry создает реестр из списка регистраций.
func NewRegistry(regs ...Registration) (*Registry, error) {
	r := &Registry{factories: make(map[string]func() Record, len(regs))}
	for _, reg := range regs {
		if reg.Name == "" {
			return nil, fmt.Errorf("%w: empty type name", ErrUnknownType)
		}
		if reg.New == nil {
			return nil, fmt.Errorf("%w: type %q has no constructor", ErrUnknownType, reg.Name)
		}
		if _, exists := r.factories[reg.Name]; exists {
			return nil, fmt.Errorf("%w: duplicate type %q", ErrUnknownType, reg.Name)
		}
		r.factories[reg.Name] = reg.New
		r.order = append(r.order, reg.Name)
	}
	return r, nil
}

// TypeNames возвращает имена типов в порядке конфигурации.
func (r *Registry) TypeNames() []string {
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// Has проверяет, сконфигурирован ли тип.
func (r *Registry) Has(name string) bool {
	_, ok := r.factories[name]
	return ok
}

// New создает пустую запись указанного типа.
func (r *Registry) New(name string) (Record, error) {
	factory, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, name)
	}
	return factory(), nil
}

// ParseRecord восстанавливает запись типа name из разобранного
// канонического литерала: служебные поля плюс payload.
func (r *Registry) ParseRecord(name string, obj map[string]any) (Record, error) {
	rec, err := r.New(name)
	if err != nil {
		return nil, err
	}

	rawCreated, ok := obj[FieldCreated]
	if !ok {
		return nil, fmt.Errorf("%w: missing %s", ErrInvalidRecord, FieldCreated)
	}
	created, err := codec.Int64(rawCreated)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidRecord, FieldCreated, err)
	}
	if created <= 0 {
		return nil, fmt.Errorf("%w: %s must be positive", ErrInvalidRecord, FieldCreated)
	}
	rec.MetaInfo().Created = created

	if rawModified, ok := obj[FieldModified]; ok {
		modified, err := codec.Int64(rawModified)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidRecord, FieldModified, err)
		}
		if modified != 0 && modified <= created {
			return nil, fmt.Errorf("%w: %s must exceed %s", ErrInvalidRecord, FieldModified, FieldCreated)
		}
		rec.MetaInfo().Modified = modified
	}

	if err := rec.ParsePayload(obj); err != nil {
		return nil, fmt.Errorf("%w: payload of %q: %v", ErrInvalidRecord, name, err)
	}

	return rec, nil
}
