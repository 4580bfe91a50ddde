// Package qauth stores catalog login accounts and implements
// qcat.Authenticator on top of them.
//
// Accounts live in a bbolt database. Each record is CBOR encoded and holds
// the username, a bcrypt hash of the password and the role the account may
// log in as. Passwords are never stored or returned in clear text.
//
// Usernames and passwords travel in a single space separated text frame, so
// neither may contain whitespace.
package qauth
