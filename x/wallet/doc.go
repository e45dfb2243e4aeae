/*
Package wallet implements threshold multi signature authorization for
crawl payment budgets.

A wallet is a set of owners, a confirmation threshold and a time lock
duration. Any active owner may submit a transaction to the ledger. The
submission counts as the first confirmation. Once the number of distinct
active owner confirmations reaches the threshold, the transaction becomes
executable after the mandatory delay. Transactions flagged as emergency by an
emergency responder skip the delay.

The wallet governs itself. Owner set changes are ordinary transactions
targeted at the wallet address, carrying a governance payload, and pass
through the same confirmation cycle as any external transfer.

Executed ledger entries are immutable. A transaction is marked executed
before its effect is attempted, so a failed call is terminal and can never be
retried through the same entry.
*/
package wallet
