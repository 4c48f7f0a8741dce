package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Ошибки кодека. Все ошибки сериализации/разбора оборачивают один из
// этих sentinel-ов, чтобы вызывающий код мог отличить их через errors.Is.
var (
	// ErrMalformed indicates that input bytes are not valid canonical JSON
	ErrMalformed = errors.New("malformed input")

	// ErrUnsupported indicates a value that cannot be canonically serialized
	ErrUnsupported = errors.New("unsupported value")
)

// Object представляет JSON-объект с сохранением порядка ключей.
// Стандартный map[string]any не гарантирует порядок, а канонический
// формат требует фиксированный порядок ключей: сначала служебные поля
// записи, затем поля payload в порядке объявления типа.
type Object struct {
	values map[string]any
	keys   []string
}

// NewObject создает пустой упорядоченный объект.
func NewObject() *Object {
	return &Object{values: make(map[string]any)}
}

// Set записывает значение по ключу. Повторная запись существующего
// ключа обновляет значение, сохраняя исходную позицию ключа.
// Возвращает сам объект для цепочки вызовов.
func (o *Object) Set(key string, value any) *Object {
	if _, exists := o.values[key]; !exists {
		o.keys = append(o.keys, key)
	}
	o.values[key] = value
	return o
}

// Get возвращает значение по ключу.
func (o *Object) Get(key string) (any, bool) {
	v, ok := o.values[key]
	return v, ok
}

// Keys возвращает ключи в порядке вставки.
func (o *Object) Keys() []string {
	return o.keys
}

// Len возвращает количество ключей.
func (o *Object) Len() int {
	return len(o.keys)
}

// Serialize сериализует значение в канонический JSON без пробелов.
// Поддерживаются *Object (порядок ключей сохраняется), []any и любые
// значения, которые умеет encoding/json (map-ключи encoding/json
// сортирует, поэтому вложенные map-ы сериализуются детерминированно).
// Два хранилища с одинаковым логическим содержимым обязаны давать
// байт-в-байт одинаковый результат: эти байты являются прообразом
// SHA-256 в протоколе синхронизации.
func Serialize(value any) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeValue(&buf, value); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// writeValue рекурсивно записывает значение в буфер
func writeValue(buf *bytes.Buffer, value any) error {
	switch v := value.(type) {
	case *Object:
		buf.WriteByte('{')
		for i, key := range v.keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			keyJSON, err := json.Marshal(key)
			if err != nil {
				return fmt.Errorf("%w: object key %q: %v", ErrUnsupported, key, err)
			}
			buf.Write(keyJSON)
			buf.WriteByte(':')
			if err := writeValue(buf, v.values[key]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
		return nil
	case []any:
		buf.WriteByte('[')
		for i, item := range v {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeValue(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil
	default:
		// Остальные значения отдаем encoding/json: строки, числа,
		// bool, nil, структуры payload-ов и вложенные map-ы
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrUnsupported, err)
		}
		buf.Write(data)
		return nil
	}
}

// Parse разбирает канонические байты в JSON-модель значений.
// Числа возвращаются как json.Number, чтобы не терять точность
// миллисекундных timestamp-ов (float64 теряет точность после 2^53).
func Parse(data []byte) (any, error) {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()

	var value any
	if err := decoder.Decode(&value); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	// Проверяем, что после значения нет мусора
	if decoder.More() {
		return nil, fmt.Errorf("%w: trailing data after value", ErrMalformed)
	}

	return value, nil
}

// ParseObject разбирает байты, ожидая на верхнем уровне JSON-объект.
func ParseObject(data []byte) (map[string]any, error) {
	value, err := Parse(data)
	if err != nil {
		return nil, err
	}
	obj, ok := value.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: expected object at top level, got %T", ErrMalformed, value)
	}
	return obj, nil
}

// Int64 приводит разобранное JSON-значение к int64.
// Используется для служебных полей записей (_created, _modified, _deleted).
func Int64(value any) (int64, error) {
	switch v := value.(type) {
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, fmt.Errorf("%w: not an integer: %v", ErrMalformed, err)
		}
		return n, nil
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case float64:
		n := int64(v)
		if float64(n) != v {
			return 0, fmt.Errorf("%w: not an integer: %v", ErrMalformed, v)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("%w: expected number, got %T", ErrMalformed, value)
	}
}
