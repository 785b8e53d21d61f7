// internal/app/system/txn/txn.go
//
// Package txn runs multi-document writes inside a MongoDB transaction when the
// deployment supports one (replica set or sharded cluster), and runs them
// directly on a standalone server.
package txn

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Run executes fn inside a session transaction on db's client. If the server
// rejects transactions, fn is re-run without one and callers must compensate
// for partial writes themselves (see InTransaction).
func Run(ctx context.Context, db *mongo.Database, log *zap.Logger, fn func(ctx context.Context) error) error {
	sess, err := db.Client().StartSession()
	if err != nil {
		if IsNotSupported(err) {
			logFallback(log, err)
			return fn(ctx)
		}
		return err
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	if err != nil && IsNotSupported(err) {
		logFallback(log, err)
		return fn(ctx)
	}
	return err
}

// InTransaction reports whether ctx carries an active session, i.e. fn is
// running under Run's transaction rather than the standalone fallback.
func InTransaction(ctx context.Context) bool {
	return mongo.SessionFromContext(ctx) != nil
}

// IsNotSupported reports whether err means the server cannot run
// multi-document transactions.
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}

	var ce mongo.CommandError
	if errors.As(err, &ce) {
		switch ce.Code {
		case 20, // IllegalOperation: transactions need a replica set member or mongos
			51,  // legacy IllegalOperation on old servers
			263: // OperationNotSupportedInTransaction
			return true
		}
	}

	// Retryable transaction failures can mention sessions and transactions
	// too; they must not send a caller down the no-transaction path.
	var se mongo.ServerError
	if errors.As(err, &se) &&
		(se.HasErrorLabel("TransientTransactionError") || se.HasErrorLabel("UnknownTransactionCommitResult")) {
		return false
	}

	// Message matching covers drivers and proxies that drop the code. It is
	// loose, so a false positive still lands on the compensating path.
	msg := strings.ToLower(err.Error())
	has := func(a, b string) bool {
		return strings.Contains(msg, a) && strings.Contains(msg, b)
	}
	return has("transaction", "replica set") ||
		has("session", "not supported") ||
		has("transaction", "session") ||
		has("illegal", "operation")
}

func logFallback(log *zap.Logger, err error) {
	if log == nil {
		return
	}
	log.Debug("transactions not supported; running without one", zap.Error(err))
}
