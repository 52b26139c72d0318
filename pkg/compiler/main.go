// Package compiler translates coherence-protocol specifications into Go
// controllers for the ruby runtime.
//
// Pipeline: .sm source → Lex → Parse → LoadFiles (includes) → Check
// (symbols, types, transition tables) → Generate → gofmt'd Go source
package compiler
