package domain

import "context"

// TxManager runs a function inside a single store transaction. If the
// function returns an error the transaction is rolled back and no partial
// state is visible; otherwise it is committed. The opaque tx value is passed
// to repository ...Tx methods.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(tx interface{}) error) error
}
