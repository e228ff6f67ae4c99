// Package cli implements the krishiauth terminal client.
//
// Usage:
//
//	client [-a http://host:port] [-w seconds] register|login|whoami [-t token]
//
// register and login prompt for a username and a password (read without
// echo); login prints the issued token. whoami sends a token as a bearer
// credential and prints the username it belongs to.
package cli
