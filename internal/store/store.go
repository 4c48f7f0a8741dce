package store

import (
	"fmt"
	"sort"
	"time"

	"github.com/iudanet/synckeeper/internal/codec"
	"github.com/iudanet/synckeeper/internal/models"
)

// Millis возвращает текущее время в миллисекундах с эпохи.
// Часы по умолчанию для Store; тесты подставляют свои.
func Millis() int64 {
	return time.Now().UnixMilli()
}

// Store хранит типизированные контейнеры активных записей и tombstone-ов.
// Оба контейнера каждого типа отсортированы строго по убыванию _created;
// каждая мутация восстанавливает этот порядок. Store не синхронизирован:
// движок синхронизации сериализует доступ своим мьютексом, серверный
// reconciler - своим.
type Store struct {
	registry *models.Registry
	now      func() int64
	active   map[string][]models.Record
	tombs    map[string][]models.Tombstone
	maxID    int64
}

// New создает пустое хранилище над сконфигурированным реестром типов.
// now - инжектируемые часы (миллисекунды с эпохи); nil означает Millis.
func New(registry *models.Registry, now func() int64) *Store {
	if now == nil {
		now = Millis
	}
	s := &Store{
		registry: registry,
		now:      now,
		active:   make(map[string][]models.Record),
		tombs:    make(map[string][]models.Tombstone),
	}
	for _, name := range registry.TypeNames() {
		s.active[name] = nil
		s.tombs[name] = nil
	}
	return s
}

// Registry возвращает реестр типов хранилища.
func (s *Store) Registry() *models.Registry { return s.registry }

// MaxID возвращает наибольший когда-либо выданный или загруженный id.
func (s *Store) MaxID() int64 { return s.maxID }

// NewID выдает новый идентификатор записи: max(now, maxID+1).
// Гарантирует строго возрастающие id даже для серии сохранений
// внутри одной миллисекунды.
func (s *Store) NewID() int64 {
	id := s.now()
	if id <= s.maxID {
		id = s.maxID + 1
	}
	s.maxID = id
	return id
}

// raiseMaxID поднимает watermark до наблюдаемого id
func (s *Store) raiseMaxID(id int64) {
	if id > s.maxID {
		s.maxID = id
	}
}

// hasID проверяет наличие id среди активных записей и tombstone-ов типа
func (s *Store) hasID(typeName string, id int64) bool {
	for _, rec := range s.active[typeName] {
		if rec.MetaInfo().Created == id {
			return true
		}
	}
	for _, t := range s.tombs[typeName] {
		if t.Created == id {
			return true
		}
	}
	return false
}

// sortActive восстанавливает порядок по убыванию _created
func (s *Store) sortActive(typeName string) {
	recs := s.active[typeName]
	sort.Slice(recs, func(i, j int) bool {
		return recs[i].MetaInfo().Created > recs[j].MetaInfo().Created
	})
}

// sortTombs восстанавливает порядок tombstone-ов по убыванию _created
func (s *Store) sortTombs(typeName string) {
	tombs := s.tombs[typeName]
	sort.Slice(tombs, func(i, j int) bool {
		return tombs[i].Created > tombs[j].Created
	})
}

// Add добавляет запись в контейнер ее типа.
// Возвращает итоговый индекс записи в отсортированном контейнере.
// Тип должен быть сконфигурирован; id не должен совпадать ни с одной
// активной записью или tombstone-ом типа.
func (s *Store) Add(rec models.Record) (int, error) {
	typeName := rec.TypeName()
	if !s.registry.Has(typeName) {
		return 0, fmt.Errorf("%w: %q", models.ErrUnknownType, typeName)
	}

	id := rec.MetaInfo().Created
	if id <= 0 {
		return 0, fmt.Errorf("%w: record has no id", models.ErrInvalidRecord)
	}
	if s.hasID(typeName, id) {
		return 0, fmt.Errorf("%w: %s %d in type %q", ErrIDConflict, models.FieldCreated, id, typeName)
	}

	s.active[typeName] = append(s.active[typeName], rec)
	s.sortActive(typeName)
	s.raiseMaxID(id)

	for i, r := range s.active[typeName] {
		if r.MetaInfo().Created == id {
			return i, nil
		}
	}
	// Недостижимо: запись только что добавлена
	return 0, nil
}

// Replace подставляет новую версию на место существующей записи
// того же типа с тем же _created.
func (s *Store) Replace(rec models.Record) error {
	typeName := rec.TypeName()
	if !s.registry.Has(typeName) {
		return fmt.Errorf("%w: %q", models.ErrUnknownType, typeName)
	}

	id := rec.MetaInfo().Created
	recs := s.active[typeName]
	for i, r := range recs {
		if r.MetaInfo().Created == id {
			recs[i] = rec
			s.sortActive(typeName)
			return nil
		}
	}
	return fmt.Errorf("%w: %s %d in type %q", ErrNoMatch, models.FieldCreated, id, typeName)
}

// Remove удаляет запись из активного контейнера.
// При tombstone=true сохраняет след удаления {created, deleted: now}
// и возвращает его; payload записи не сохраняется. Записи никогда
// не восстанавливаются из tombstone-ов.
func (s *Store) Remove(rec models.Record, tombstone bool) (models.Tombstone, error) {
	typeName := rec.TypeName()
	if !s.registry.Has(typeName) {
		return models.Tombstone{}, fmt.Errorf("%w: %q", models.ErrUnknownType, typeName)
	}

	id := rec.MetaInfo().Created
	recs := s.active[typeName]
	for i, r := range recs {
		if r.MetaInfo().Created == id {
			s.active[typeName] = append(recs[:i], recs[i+1:]...)
			if !tombstone {
				return models.Tombstone{}, nil
			}
			t := models.Tombstone{Created: id, Deleted: s.now()}
			s.tombs[typeName] = append(s.tombs[typeName], t)
			s.sortTombs(typeName)
			return t, nil
		}
	}
	return models.Tombstone{}, fmt.Errorf("%w: %s %d in type %q", ErrNoMatch, models.FieldCreated, id, typeName)
}

// ApplyTombstone применяет готовый tombstone (например, полученный от
// авторитетного хранилища): удаляет активную запись с тем же id, если
// она есть, и записывает tombstone, если его еще нет. Повторное
// применение - no-op, поэтому ответ reconcile можно применять смело.
func (s *Store) ApplyTombstone(typeName string, t models.Tombstone) error {
	if !s.registry.Has(typeName) {
		return fmt.Errorf("%w: %q", models.ErrUnknownType, typeName)
	}

	recs := s.active[typeName]
	for i, r := range recs {
		if r.MetaInfo().Created == t.Created {
			s.active[typeName] = append(recs[:i], recs[i+1:]...)
			break
		}
	}

	for _, existing := range s.tombs[typeName] {
		if existing.Created == t.Created {
			return nil
		}
	}

	s.tombs[typeName] = append(s.tombs[typeName], t)
	s.sortTombs(typeName)
	s.raiseMaxID(t.Created)
	return nil
}

// Get возвращает активную запись по типу и id.
func (s *Store) Get(typeName string, id int64) (models.Record, bool) {
	for _, rec := range s.active[typeName] {
		if rec.MetaInfo().Created == id {
			return rec, true
		}
	}
	return nil, false
}

// Records возвращает копию активного контейнера типа.
func (s *Store) Records(typeName string) []models.Record {
	recs := s.active[typeName]
	out := make([]models.Record, len(recs))
	copy(out, recs)
	return out
}

// Tombstones возвращает копию контейнера tombstone-ов типа.
func (s *Store) Tombstones(typeName string) []models.Tombstone {
	tombs := s.tombs[typeName]
	out := make([]models.Tombstone, len(tombs))
	copy(out, tombs)
	return out
}

// Search возвращает клоны активных записей типа, удовлетворяющих
// предикату. Read-only операция, не участвует в синхронизации.
func (s *Store) Search(typeName string, match func(models.Record) bool) ([]models.Record, error) {
	if !s.registry.Has(typeName) {
		return nil, fmt.Errorf("%w: %q", models.ErrUnknownType, typeName)
	}

	var out []models.Record
	for _, rec := range s.active[typeName] {
		if match == nil || match(rec) {
			out = append(out, rec.Clone())
		}
	}
	return out, nil
}

// Serialize строит каноническую сериализацию хранилища: типы в порядке
// конфигурации, внутри типа активные записи и tombstone-ы слиты в один
// массив по убыванию _created. Эти байты - прообраз SHA-256 протокола
// синхронизации и plaintext локального кеша.
func (s *Store) Serialize() ([]byte, error) {
	top := codec.NewObject()

	for _, typeName := range s.registry.TypeNames() {
		recs := s.active[typeName]
		tombs := s.tombs[typeName]
		items := make([]any, 0, len(recs)+len(tombs))

		// Оба контейнера уже отсортированы по убыванию; сливаем.
		// Совпадение id активной записи и tombstone исключено инвариантом.
		i, j := 0, 0
		for i < len(recs) && j < len(tombs) {
			if recs[i].MetaInfo().Created > tombs[j].Created {
				items = append(items, models.MarshalRecord(recs[i]))
				i++
			} else {
				items = append(items, models.MarshalTombstone(tombs[j]))
				j++
			}
		}
		for ; i < len(recs); i++ {
			items = append(items, models.MarshalRecord(recs[i]))
		}
		for ; j < len(tombs); j++ {
			items = append(items, models.MarshalTombstone(tombs[j]))
		}

		top.Set(typeName, items)
	}

	return codec.Serialize(top)
}

// LoadFromCanonical загружает записи из разобранной канонической формы.
// Неизвестные типы в данных - ошибка; отсутствующие в данных типы
// остаются пустыми. Watermark maxID поднимается до наблюдаемого максимума.
func (s *Store) LoadFromCanonical(value any) error {
	top, ok := value.(map[string]any)
	if !ok {
		return fmt.Errorf("%w: expected object at top level, got %T", codec.ErrMalformed, value)
	}

	for typeName, rawItems := range top {
		if !s.registry.Has(typeName) {
			return fmt.Errorf("%w: %q", models.ErrUnknownType, typeName)
		}

		items, ok := rawItems.([]any)
		if !ok {
			return fmt.Errorf("%w: type %q must map to an array", codec.ErrMalformed, typeName)
		}

		for _, item := range items {
			obj, ok := item.(map[string]any)
			if !ok {
				return fmt.Errorf("%w: record literal must be an object", codec.ErrMalformed)
			}

			if models.IsTombstone(obj) {
				tomb, err := models.ParseTombstone(obj)
				if err != nil {
					return err
				}
				if err := s.ApplyTombstone(typeName, tomb); err != nil {
					return err
				}
				continue
			}

			rec, err := s.registry.ParseRecord(typeName, obj)
			if err != nil {
				return err
			}
			if _, err := s.Add(rec); err != nil {
				return err
			}
		}
	}

	return nil
}
