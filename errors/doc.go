/*
Package errors implements custom error interfaces for the whole application.

Error declarations should be generic and cover broad range of cases. Each
returned error instance can wrap a generic error declaration to add more
details. Errors are categorized by a unique numeric code, so that a client
can always be given a stable, safe to expose reason for a rejected
operation, no matter how deep the failure happened.
*/
package errors
