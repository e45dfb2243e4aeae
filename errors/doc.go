/*
Package errors implements the coded errors used across this repository.

The idea is to reuse as many errors from this package as possible and define
custom package errors only when necessary. Extensions register their own root
errors with Register(code, description), reserving a code range per package
(see x/wallet/errors.go for an example).

Every root error carries an ABCI code which allows clients to distinguish
error classes and act accordingly. Errors created at runtime must wrap a root
error, either with ErrXyz.New / ErrXyz.Newf or with Wrap/Wrapf. The first wrap
attaches a stacktrace; subsequent wraps only add context.

Use the root error .Is method to test an error class:

	if errors.ErrNotFound.Is(err) { ... }

Formatting directives:

	%s  the error message chain
	%+v the message chain plus the stack trace of the creation point
*/
package errors
