package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TxManagerInterface interface {
	RunInTransaction(ctx context.Context, fn func(tx pgx.Tx) error) error
}

type TxManager struct {
	pool *pgxpool.Pool
}

func NewTxManager(pool *pgxpool.Pool) TxManagerInterface {
	return &TxManager{pool: pool}
}

// RunInTransaction выполняет `fn` в одной транзакции: ошибка или паника
// внутри `fn` откатывают все изменения, иначе выполняется коммит.
func (m *TxManager) RunInTransaction(ctx context.Context, fn func(tx pgx.Tx) error) (err error) {
	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("не удалось начать транзакцию: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		} else if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			err = tx.Commit(ctx)
			if err != nil {
				err = fmt.Errorf("ошибка при коммите транзакции: %w", err)
			}
		}
	}()

	err = fn(tx)
	return err
}

// RunInSavepoint - вложенная транзакция pgx (SAVEPOINT). Ошибка `fn`
// откатывает только изменения внутри точки сохранения.
func RunInSavepoint(ctx context.Context, tx pgx.Tx, fn func(sp pgx.Tx) error) (err error) {
	if tx == nil {
		return fn(nil)
	}
	sp, err := tx.Begin(ctx)
	if err != nil {
		return fmt.Errorf("не удалось создать точку сохранения: %w", err)
	}
	defer func() {
		if err != nil {
			_ = sp.Rollback(ctx)
		} else {
			err = sp.Commit(ctx)
		}
	}()
	err = fn(sp)
	return err
}
