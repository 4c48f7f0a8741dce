package store

import "github.com/iudanet/synckeeper/internal/models"

// Compile собирает дельту хранилища относительно опорного timestamp:
// ранг new - записи с created > since; ранг modified - записи с
// modified > since, созданные не позже since (new не дублируется в
// modified); ранг deleted - tombstone-ы с deleted > since.
// Пустые типы опускаются. Ранг conflict дельта не содержит никогда:
// его вводит только авторитетный reconciler.
func (s *Store) Compile(since int64) models.Changes {
	changes := make(models.Changes)

	for _, typeName := range s.registry.TypeNames() {
		rs := models.NewRankSet()

		for _, rec := range s.active[typeName] {
			meta := rec.MetaInfo()
			switch {
			case meta.Created > since:
				rs.New[meta.Created] = rec
			case meta.Modified > since:
				rs.Modified[meta.Created] = rec
			}
		}

		for _, t := range s.tombs[typeName] {
			if t.Deleted > since {
				rs.Deleted[t.Created] = t
			}
		}

		if !rs.Empty() {
			changes[typeName] = rs
		}
	}

	return changes
}
