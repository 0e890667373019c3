package schema

import (
	"context"
	"errors"
	"fmt"

	"bendload/internal/queryapi"
)

// ErrTableNotFound is returned when no schema was supplied and the target
// table does not exist on the remote end.
var ErrTableNotFound = errors.New("table not found")

// Executor is the slice of the query endpoint client the resolver needs.
type Executor interface {
	Execute(ctx context.Context, stmt string) (*queryapi.Result, error)
}

// Resolve decides the table reference every batch of the load inserts into.
// It runs exactly once, before any data flows, and never again mid-load.
//
// Two paths:
//   - sch == nil: the table must already exist. A missing table is
//     ErrTableNotFound; transport failures propagate as-is.
//   - sch != nil: when the table already exists the schema is ignored and
//     the bare name is used. Otherwise the creation statement is issued and
//     the reference carries the declared column list, e.g. "t (a, b)".
func Resolve(ctx context.Context, exec Executor, table string, sch *Schema) (string, error) {
	if table == "" {
		return "", fmt.Errorf("no table in load request")
	}

	err := checkExists(ctx, exec, table)
	if sch == nil {
		if err != nil {
			return "", err
		}
		return table, nil
	}

	switch {
	case err == nil:
		// Table already provisioned; the supplied schema is ignored.
		return table, nil
	case errors.Is(err, ErrTableNotFound):
		if _, err := exec.Execute(ctx, sch.CreateTableSQL(table)); err != nil {
			return "", fmt.Errorf("create table %s: %w", table, err)
		}
		return sch.TableRef(table), nil
	default:
		return "", err
	}
}

// checkExists issues the SHOW TABLES probe. A result without columns or
// rows means the table is absent.
func checkExists(ctx context.Context, exec Executor, table string) error {
	res, err := exec.Execute(ctx, ExistsSQL(table))
	if err != nil {
		return fmt.Errorf("check table %s: %w", table, err)
	}
	if !res.HasRows() {
		return fmt.Errorf("%w: %s", ErrTableNotFound, table)
	}
	return nil
}
