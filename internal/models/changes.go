package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/iudanet/synckeeper/internal/codec"
	"github.com/iudanet/synckeeper/pkg/api"
)

// ErrUnknownRank indicates a reconciliation response with a rank
// the engine does not implement
var ErrUnknownRank = errors.New("unknown activity rank")

// ConflictVersion представляет одну из конфликтующих версий записи.
// Версия - либо активная запись, либо tombstone (например, когда одна
// сторона изменила запись, а другая удалила). Заполнено ровно одно поле.
type ConflictVersion struct {
	Record    Record
	Tombstone *Tombstone
}

// RankSet группирует изменения одного типа по рангам активности.
// Ключи всех map-ов - идентификаторы записей (_created).
type RankSet struct {
	New      map[int64]Record
	Modified map[int64]Record
	Deleted  map[int64]Tombstone
	Conflict map[int64][]ConflictVersion
}

// NewRankSet создает RankSet с инициализированными разделами.
func NewRankSet() *RankSet {
	return &RankSet{
		New:      make(map[int64]Record),
		Modified: make(map[int64]Record),
		Deleted:  make(map[int64]Tombstone),
		Conflict: make(map[int64][]ConflictVersion),
	}
}

// Empty сообщает, пусты ли все разделы.
func (rs *RankSet) Empty() bool {
	return len(rs.New) == 0 && len(rs.Modified) == 0 &&
		len(rs.Deleted) == 0 && len(rs.Conflict) == 0
}

// Changes - типизированная форма TypeIndex: дельта записей по типам
// и рангам. Обе стороны протокола обмениваются ею через проволочную
// форму api.TypeIndex.
type Changes map[string]*RankSet

// RankSet возвращает RankSet типа, создавая его при необходимости.
func (c Changes) RankSet(typeName string) *RankSet {
	rs, ok := c[typeName]
	if !ok {
		rs = NewRankSet()
		c[typeName] = rs
	}
	return rs
}

// Prune удаляет пустые типы. Пустые разделы внутри типа опускаются
// при сериализации в проволочную форму.
func (c Changes) Prune() {
	for name, rs := range c {
		if rs == nil || rs.Empty() {
			delete(c, name)
		}
	}
}

// Empty сообщает, пуста ли дельта целиком.
func (c Changes) Empty() bool {
	for _, rs := range c {
		if rs != nil && !rs.Empty() {
			return false
		}
	}
	return true
}

// ConflictCount возвращает количество конфликтующих идентификаторов.
func (c Changes) ConflictCount() int {
	count := 0
	for _, rs := range c {
		if rs != nil {
			count += len(rs.Conflict)
		}
	}
	return count
}

// marshalVersion сериализует версию конфликта в канонический литерал
func marshalVersion(v ConflictVersion) (*codec.Object, error) {
	switch {
	case v.Record != nil:
		return MarshalRecord(v.Record), nil
	case v.Tombstone != nil:
		return MarshalTombstone(*v.Tombstone), nil
	default:
		return nil, fmt.Errorf("%w: empty conflict version", ErrInvalidRecord)
	}
}

// Wire преобразует дельту в проволочную форму с опущенными пустыми
// разделами. Записи сериализуются в канонические литералы.
func (c Changes) Wire() (api.TypeIndex, error) {
	idx := make(api.TypeIndex)

	for typeName, rs := range c {
		if rs == nil || rs.Empty() {
			continue
		}
		ranks := make(map[string]map[string]json.RawMessage)

		if len(rs.New) > 0 {
			ids := make(map[string]json.RawMessage, len(rs.New))
			for id, rec := range rs.New {
				data, err := codec.Serialize(MarshalRecord(rec))
				if err != nil {
					return nil, err
				}
				ids[strconv.FormatInt(id, 10)] = data
			}
			ranks[api.RankNew] = ids
		}

		if len(rs.Modified) > 0 {
			ids := make(map[string]json.RawMessage, len(rs.Modified))
			for id, rec := range rs.Modified {
				data, err := codec.Serialize(MarshalRecord(rec))
				if err != nil {
					return nil, err
				}
				ids[strconv.FormatInt(id, 10)] = data
			}
			ranks[api.RankModified] = ids
		}

		if len(rs.Deleted) > 0 {
			ids := make(map[string]json.RawMessage, len(rs.Deleted))
			for id, tomb := range rs.Deleted {
				data, err := codec.Serialize(MarshalTombstone(tomb))
				if err != nil {
					return nil, err
				}
				ids[strconv.FormatInt(id, 10)] = data
			}
			ranks[api.RankDeleted] = ids
		}

		if len(rs.Conflict) > 0 {
			ids := make(map[string]json.RawMessage, len(rs.Conflict))
			for id, versions := range rs.Conflict {
				items := make([]any, 0, len(versions))
				for _, v := range versions {
					obj, err := marshalVersion(v)
					if err != nil {
						return nil, err
					}
					items = append(items, obj)
				}
				data, err := codec.Serialize(items)
				if err != nil {
					return nil, err
				}
				ids[strconv.FormatInt(id, 10)] = data
			}
			ranks[api.RankConflict] = ids
		}

		idx[typeName] = ranks
	}

	return idx, nil
}

// parseID разбирает десятичный идентификатор записи из JSON-ключа
func parseID(key string) (int64, error) {
	id, err := strconv.ParseInt(key, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: bad record id %q", ErrInvalidRecord, key)
	}
	return id, nil
}

// ParseChanges восстанавливает типизированную дельту из проволочной
// формы. Неизвестный тип или ранг - ошибка: молча пропускать данные
// протокол запрещает.
func ParseChanges(reg *Registry, idx api.TypeIndex) (Changes, error) {
	changes := make(Changes, len(idx))

	for typeName, ranks := range idx {
		if !reg.Has(typeName) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownType, typeName)
		}
		rs := changes.RankSet(typeName)

		for rank, ids := range ranks {
			for key, raw := range ids {
				id, err := parseID(key)
				if err != nil {
					return nil, err
				}

				switch rank {
				case api.RankNew, api.RankModified:
					obj, err := codec.ParseObject(raw)
					if err != nil {
						return nil, err
					}
					rec, err := reg.ParseRecord(typeName, obj)
					if err != nil {
						return nil, err
					}
					if rec.MetaInfo().Created != id {
						return nil, fmt.Errorf("%w: id %d does not match %s %d",
							ErrInvalidRecord, id, FieldCreated, rec.MetaInfo().Created)
					}
					if rank == api.RankNew {
						rs.New[id] = rec
					} else {
						rs.Modified[id] = rec
					}

				case api.RankDeleted:
					obj, err := codec.ParseObject(raw)
					if err != nil {
						return nil, err
					}
					tomb, err := ParseTombstone(obj)
					if err != nil {
						return nil, err
					}
					if tomb.Created != id {
						return nil, fmt.Errorf("%w: id %d does not match tombstone %s %d",
							ErrInvalidRecord, id, FieldCreated, tomb.Created)
					}
					rs.Deleted[id] = tomb

				case api.RankConflict:
					versions, err := parseConflictVersions(reg, typeName, raw)
					if err != nil {
						return nil, err
					}
					rs.Conflict[id] = versions

				default:
					return nil, fmt.Errorf("%w: %q", ErrUnknownRank, rank)
				}
			}
		}
	}

	changes.Prune()
	return changes, nil
}

// parseConflictVersions разбирает массив конфликтующих версий
func parseConflictVersions(reg *Registry, typeName string, raw []byte) ([]ConflictVersion, error) {
	value, err := codec.Parse(raw)
	if err != nil {
		return nil, err
	}
	items, ok := value.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: conflict versions must be an array", ErrInvalidRecord)
	}

	versions := make([]ConflictVersion, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: conflict version must be an object", ErrInvalidRecord)
		}
		if IsTombstone(obj) {
			tomb, err := ParseTombstone(obj)
			if err != nil {
				return nil, err
			}
			versions = append(versions, ConflictVersion{Tombstone: &tomb})
			continue
		}
		rec, err := reg.ParseRecord(typeName, obj)
		if err != nil {
			return nil, err
		}
		versions = append(versions, ConflictVersion{Record: rec})
	}

	return versions, nil
}
