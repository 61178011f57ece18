/*
Package client drives a multisig from outside the chain. It builds and signs
transactions with a local wallet, submits them through a sequencer and reads
multisig and proposal accounts back, recomputing every derived address
locally.
*/
package client
