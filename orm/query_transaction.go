package orm

import "context"

//run query in a transaction, rollback if it returns an error
func (m Query[T]) Transaction(query func(tx Query[T]) error) error {
	if m.writeDB() == nil {
		return ErrDbNotSelected
	}
	tx, err := m.writeDB().BeginTx(context.Background(), nil)
	if err != nil {
		return err
	}
	m.tx = tx

	err = query(m)

	if err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
