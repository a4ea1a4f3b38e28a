package main

import "strconv"

func itoa(n int) string { return strconv.Itoa(n) }

func boolstr(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
