package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/iudanet/synckeeper/internal/client/sync"
	"github.com/iudanet/synckeeper/internal/models"
)

// parseID разбирает идентификатор записи из аргумента команды
func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("bad record id %q", arg)
	}
	return id, nil
}

// findRecord ищет запись по типу и id
func (c *Cli) findRecord(typeName string, id int64) (models.Record, error) {
	recs, err := c.engine.Search(typeName, func(r models.Record) bool {
		return r.MetaInfo().Created == id
	})
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, fmt.Errorf("record %d not found in type %q", id, typeName)
	}
	return recs[0], nil
}

// formatTime печатает timestamp записи человекочитаемо
func formatTime(ts int64) string {
	if ts == 0 {
		return "-"
	}
	return time.UnixMilli(ts).Format("2006-01-02 15:04:05")
}

// printRecord печатает одну строку списка записей
func (c *Cli) printRecord(rec models.Record) {
	meta := rec.MetaInfo()
	c.io.Printf("%-15d %-20s %s\n", meta.Created, formatTime(meta.Created), rec.Display())
}

// printSyncResult печатает итог прохода синхронизации
func (c *Cli) printSyncResult(result sync.SyncResult) {
	if result.Succeeds {
		c.io.Printf("Synchronized, hash %s\n", result.Hash)
		return
	}
	c.io.Printf("Sync incomplete: %d conflicts pending, run 'resolve'\n",
		result.Conflicts.ConflictCount())
}

// promptField запрашивает значение поля; current подставляется
// при пустом вводе
func (c *Cli) promptField(label, current string) (string, error) {
	prompt := label
	if current != "" {
		prompt = fmt.Sprintf("%s [%s]", label, current)
	}
	value, err := c.io.ReadInput(prompt + ": ")
	if err != nil {
		return "", err
	}
	if value == "" {
		return current, nil
	}
	return value, nil
}

// promptSecret запрашивает секретное поле без эха
func (c *Cli) promptSecret(label, current string) (string, error) {
	prompt := label
	if current != "" {
		prompt = label + " [keep current]"
	}
	value, err := c.io.ReadPassword(prompt + ": ")
	if err != nil {
		return "", err
	}
	if value == "" {
		return current, nil
	}
	return value, nil
}

// promptPayload заполняет payload записи интерактивно.
// Для существующей записи пустой ввод сохраняет текущее значение.
func (c *Cli) promptPayload(rec models.Record) error {
	switch r := rec.(type) {
	case *models.Credential:
		var err error
		if r.Name, err = c.promptField("Name", r.Name); err != nil {
			return err
		}
		if r.Login, err = c.promptField("Login", r.Login); err != nil {
			return err
		}
		if r.Password, err = c.promptSecret("Password", r.Password); err != nil {
			return err
		}
		if r.URL, err = c.promptField("URL", r.URL); err != nil {
			return err
		}
		if r.Notes, err = c.promptField("Notes", r.Notes); err != nil {
			return err
		}
		return nil

	case *models.Note:
		var err error
		if r.Name, err = c.promptField("Name", r.Name); err != nil {
			return err
		}
		if r.Content, err = c.promptField("Content", r.Content); err != nil {
			return err
		}
		return nil

	case *models.Card:
		var err error
		if r.Name, err = c.promptField("Name", r.Name); err != nil {
			return err
		}
		if r.Number, err = c.promptField("Number", r.Number); err != nil {
			return err
		}
		if r.Holder, err = c.promptField("Holder", r.Holder); err != nil {
			return err
		}
		if r.Expiry, err = c.promptField("Expiry (MM/YY)", r.Expiry); err != nil {
			return err
		}
		if r.CVV, err = c.promptSecret("CVV", r.CVV); err != nil {
			return err
		}
		return nil

	default:
		return fmt.Errorf("no interactive editor for type %q", rec.TypeName())
	}
}
