/*
Package vaulttest provides mocks and helpers for testing code that is built
on top of the vault framework.

All mocks are configured through their public attributes. Zero value
instances are usable defaults.
*/
package vaulttest
