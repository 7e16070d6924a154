// Package google holds the OAuth2 credentials used to reach Google Calendar.
//
// The consent flow is two steps: send the user to AuthURL, then hand the code
// Google returns to Exchange. The resulting token is written to a file store
// and read back lazily by every token source built from the same Credentials,
// so a calendar client can be created before the user has connected.
package google
