/*
Package mctltest provides default implementations of the engine interfaces
for tests. Those implementations are meant to cover the most common use
cases, with deterministic fixtures and no external state.
*/
package mctltest
