// Package idlebusy is a single-owner directory protocol: a GET on a busy
// line stalls until the owner's DONE releases it.
package idlebusy

//go:generate go run ../../cmd/slicc -o . -pkg idlebusy IdleBusy.sm
