package model

import "errors"

var (
	// ErrMalformedTransaction marks a transaction whose required fields are
	// missing or unparseable. Only that transaction is rejected.
	ErrMalformedTransaction = errors.New("malformed transaction")

	// ErrOutOfOrder marks a transaction older than the last one scored for
	// the same account.
	ErrOutOfOrder = errors.New("transaction out of timestamp order")

	// ErrAccountAborted marks transactions discarded because processing of
	// their account was cancelled before completion.
	ErrAccountAborted = errors.New("account processing aborted")
)
