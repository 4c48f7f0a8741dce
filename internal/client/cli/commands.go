package cli

import (
	"context"
	"fmt"

	"github.com/iudanet/synckeeper/internal/models"
)

// RunInit загружает локальный кеш и выполняет первый проход
// синхронизации
func (c *Cli) RunInit(ctx context.Context) error {
	result, err := c.engine.Init(ctx)
	if err != nil {
		return err
	}
	c.printSyncResult(result)
	return nil
}

// RunSync выполняет проход синхронизации с пересчетом обоих хешей
func (c *Cli) RunSync(ctx context.Context) error {
	result, err := c.engine.Sync(ctx, "", "")
	if err != nil {
		return err
	}
	c.printSyncResult(result)
	return nil
}

// RunAdd добавляет новую запись указанного типа
func (c *Cli) RunAdd(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: add <type>")
	}
	typeName := args[0]

	rec, err := c.engine.Registry().New(typeName)
	if err != nil {
		return err
	}
	if err := c.promptPayload(rec); err != nil {
		return err
	}

	result, err := c.engine.Save(ctx, rec)
	if err != nil {
		return err
	}

	c.io.Printf("Added %s with id %d\n", rec.Display(), rec.MetaInfo().Created)
	c.printSyncResult(result)
	return nil
}

// RunList печатает записи одного типа или всех типов
func (c *Cli) RunList(ctx context.Context, args []string) error {
	typeNames := c.engine.Registry().TypeNames()
	if len(args) > 0 {
		typeNames = []string{args[0]}
	}

	for _, typeName := range typeNames {
		recs, err := c.engine.Search(typeName, nil)
		if err != nil {
			return err
		}
		c.io.Printf("%s (%d):\n", typeName, len(recs))
		for _, rec := range recs {
			c.printRecord(rec)
		}
	}
	return nil
}

// RunEdit изменяет существующую запись
func (c *Cli) RunEdit(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: edit <type> <id>")
	}
	id, err := parseID(args[1])
	if err != nil {
		return err
	}

	rec, err := c.findRecord(args[0], id)
	if err != nil {
		return err
	}
	if err := c.promptPayload(rec); err != nil {
		return err
	}

	result, err := c.engine.Edit(ctx, rec)
	if err != nil {
		return err
	}

	c.io.Printf("Edited %s\n", rec.Display())
	c.printSyncResult(result)
	return nil
}

// RunDelete удаляет запись
func (c *Cli) RunDelete(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: delete <type> <id>")
	}
	id, err := parseID(args[1])
	if err != nil {
		return err
	}

	rec, err := c.findRecord(args[0], id)
	if err != nil {
		return err
	}

	confirmed, err := c.io.Confirm(fmt.Sprintf("Delete %s?", rec.Display()))
	if err != nil {
		return err
	}
	if !confirmed {
		c.io.Println("Aborted")
		return nil
	}

	result, err := c.engine.Delete(ctx, rec)
	if err != nil {
		return err
	}

	c.io.Printf("Deleted record %d\n", id)
	c.printSyncResult(result)
	return nil
}

// RunResolve интерактивно разрешает конфликты последней синхронизации:
// для каждого конфликтующего id пользователь выбирает серверную или
// клиентскую версию
func (c *Cli) RunResolve(ctx context.Context) error {
	conflicts := c.engine.Conflicts()
	if conflicts.Empty() {
		c.io.Println("No conflicts pending")
		return nil
	}

	choices := make(models.Changes)

	for typeName, rs := range conflicts {
		for id, versions := range rs.Conflict {
			if len(versions) != 2 {
				return fmt.Errorf("conflict %d has %d versions, expected 2", id, len(versions))
			}

			c.io.Printf("Conflict in %s, id %d:\n", typeName, id)
			c.io.Printf("  [s]erver: %s\n", describeVersion(versions[0]))
			c.io.Printf("  [c]lient: %s\n", describeVersion(versions[1]))

			answer, err := c.io.ReadInput("Keep which version? [s/c]: ")
			if err != nil {
				return err
			}

			var chosen models.ConflictVersion
			switch answer {
			case "s", "server":
				chosen = versions[0]
			case "c", "client":
				chosen = versions[1]
			default:
				return fmt.Errorf("answer must be s or c")
			}

			out := choices.RankSet(typeName)
			if chosen.Tombstone != nil {
				out.Deleted[id] = *chosen.Tombstone
			} else {
				out.Modified[id] = chosen.Record
			}
		}
	}

	result, err := c.engine.Resolve(ctx, choices)
	if err != nil {
		return err
	}
	c.printSyncResult(result)
	return nil
}

// describeVersion печатает версию конфликта одной строкой
func describeVersion(v models.ConflictVersion) string {
	if v.Tombstone != nil {
		return fmt.Sprintf("deleted at %s", formatTime(v.Tombstone.Deleted))
	}
	meta := v.Record.MetaInfo()
	return fmt.Sprintf("%s (modified %s)", v.Record.Display(), formatTime(meta.Modified))
}
