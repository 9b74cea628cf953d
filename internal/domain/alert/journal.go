package alert

import (
	"context"
	"errors"
)

// Journal KeyStore de una sola transacción: delega en el store real y anota cada
// cambio efectivo para deshacerlo si la transacción no confirma. Rollback debe
// correr mientras la transacción todavía tiene los locks de sus filas. No es seguro
// para uso concurrente; una transacción lo usa desde una sola goroutine.
type Journal struct {
	store KeyStore
	undo  []journalEntry
}

type journalEntry struct {
	key   string
	added bool // true: la transacción agregó la clave; false: la borró
}

var _ KeyStore = (*Journal)(nil)

// NewJournal abre un journal vacío sobre store.
func NewJournal(store KeyStore) *Journal {
	return &Journal{store: store}
}

func (j *Journal) Add(ctx context.Context, key string) (bool, error) {
	added, err := j.store.Add(ctx, key)
	if err != nil {
		return false, err
	}
	if added {
		j.undo = append(j.undo, journalEntry{key: key, added: true})
	}
	return added, nil
}

func (j *Journal) Has(ctx context.Context, key string) (bool, error) {
	return j.store.Has(ctx, key)
}

// Remove solo anota la clave si existía; borrar una ausente no deja nada que deshacer.
func (j *Journal) Remove(ctx context.Context, key string) error {
	had, err := j.store.Has(ctx, key)
	if err != nil {
		return err
	}
	if !had {
		return nil
	}
	if err := j.store.Remove(ctx, key); err != nil {
		return err
	}
	j.undo = append(j.undo, journalEntry{key: key})
	return nil
}

// Rollback deshace los cambios en orden inverso. Un journal nil no tiene nada que deshacer.
func (j *Journal) Rollback(ctx context.Context) error {
	if j == nil {
		return nil
	}
	var errs []error
	for i := len(j.undo) - 1; i >= 0; i-- {
		e := j.undo[i]
		if e.added {
			errs = append(errs, j.store.Remove(ctx, e.key))
			continue
		}
		if _, err := j.store.Add(ctx, e.key); err != nil {
			errs = append(errs, err)
		}
	}
	j.undo = nil
	return errors.Join(errs...)
}

