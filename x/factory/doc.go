/*
Package factory implements deterministic wallet deployment.

A wallet address is derived from the initial configuration (owner set,
threshold and time lock) and a caller chosen salt. The same configuration and
salt always produce the same address, so payment endpoints can be announced
before the wallet exists. Every deployment leaves an audit record that commits
to the configuration the wallet was created with.
*/
package factory
