// Package encryption is the cipher backend boundary of gocryptor.
// It derives per-file keys from a password with scrypt and streams file contents
// through AES in one of several modes, provided either by the Go standard library
// or by Google Tink. Every encrypted file starts with a self-describing envelope header.
package encryption
