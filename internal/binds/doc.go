// Package binds accumulates the extra paths bind-mounted into the WeChat
// sandbox. Entries come from the CUSTOM_BINDS environment variable, --bind
// flags and a newline-delimited binds config file; relative entries are
// taken relative to the user's home directory.
package binds
