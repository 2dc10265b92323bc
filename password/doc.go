// Package password provides argon2id hashing and constant-time
// verification of stored credential hashes in PHC string format.
package password
