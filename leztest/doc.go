/*
Package leztest provides test doubles for the transaction processing
pipeline: a context based authenticator and an in-memory sequencer that
delivers signed transactions the same way the production runtime does.
*/
package leztest
