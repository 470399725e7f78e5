package slogx

import (
	"log/slog"
	"strings"
)

// Email returns an "email" attribute with the local part masked, so
// "alice@example.com" is logged as "a***@example.com".
func Email(addr string) slog.Attr {
	return slog.String("email", MaskEmail(addr))
}

// MaskEmail keeps the first rune of the local part and the domain.
func MaskEmail(addr string) string {
	at := strings.LastIndexByte(addr, '@')
	if at <= 0 {
		return "***"
	}
	local, host := addr[:at], addr[at+1:]
	first := []rune(local)[0]
	return string(first) + "***@" + host
}

// Err returns an "err" attribute; a nil error is logged as an empty value.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.String("err", "")
	}
	return slog.String("err", err.Error())
}
