package compiler

import "fmt"

// TokenType identifies the category of a lexed token.
type TokenType int

const (
	EOF TokenType = iota // sentinel: end of input

	// Literals
	IDENTIFIER // type / variable / state name
	INTEGER    // decimal or hex integer literal
	STRING     // string literal "..."

	// Declaration keywords
	INCLUDE           // "include"
	MACHINE           // "machine"
	STATE_DECLARATION // "state_declaration"
	ENUMERATION       // "enumeration"
	STRUCTURE         // "structure"
	IN_PORT           // "in_port"
	OUT_PORT          // "out_port"
	ACTION            // "action"
	TRANSITION        // "transition"

	// Statement keywords
	IF                    // "if"
	ELSE                  // "else"
	ENQUEUE               // "enqueue"
	PEEK                  // "peek"
	TRIGGER               // "trigger"
	WAKEUP_DEPENDENTS     // "wakeUpDependents"
	WAKEUP_ALL_DEPENDENTS // "wakeUpAllDependents"
	TRUE                  // "true"
	FALSE                 // "false"

	// Paired delimiters
	LBRACE // {
	RBRACE // }
	LPAREN // (
	RPAREN // )

	// Punctuation
	DOT       // .
	SEMICOLON // ;
	COMMA     // ,
	COLON     // :

	// Operators
	PLUS        // +
	MINUS       // -
	AND_LOGICAL // &&
	OR_LOGICAL  // ||
	NOT         // !

	// Assignment / comparison
	ASSIGN     // :=
	PAIR_EQ    // =  (only inside key="value" pairs)
	EQUALS     // ==
	NOT_EQ     // !=
	LESS       // <
	GREATER    // >
	LESS_EQ    // <=
	GREATER_EQ // >=
)

var tokenNames = [...]string{
	EOF:                   "EOF",
	IDENTIFIER:            "IDENTIFIER",
	INTEGER:               "INTEGER",
	STRING:                "STRING",
	INCLUDE:               "INCLUDE",
	MACHINE:               "MACHINE",
	STATE_DECLARATION:     "STATE_DECLARATION",
	ENUMERATION:           "ENUMERATION",
	STRUCTURE:             "STRUCTURE",
	IN_PORT:               "IN_PORT",
	OUT_PORT:              "OUT_PORT",
	ACTION:                "ACTION",
	TRANSITION:            "TRANSITION",
	IF:                    "IF",
	ELSE:                  "ELSE",
	ENQUEUE:               "ENQUEUE",
	PEEK:                  "PEEK",
	TRIGGER:               "TRIGGER",
	WAKEUP_DEPENDENTS:     "WAKEUP_DEPENDENTS",
	WAKEUP_ALL_DEPENDENTS: "WAKEUP_ALL_DEPENDENTS",
	TRUE:                  "TRUE",
	FALSE:                 "FALSE",
	LBRACE:                "LBRACE",
	RBRACE:                "RBRACE",
	LPAREN:                "LPAREN",
	RPAREN:                "RPAREN",
	DOT:                   "DOT",
	SEMICOLON:             "SEMICOLON",
	COMMA:                 "COMMA",
	COLON:                 "COLON",
	PLUS:                  "PLUS",
	MINUS:                 "MINUS",
	AND_LOGICAL:           "AND_LOGICAL",
	OR_LOGICAL:            "OR_LOGICAL",
	NOT:                   "NOT",
	ASSIGN:                "ASSIGN",
	PAIR_EQ:               "PAIR_EQ",
	EQUALS:                "EQUALS",
	NOT_EQ:                "NOT_EQ",
	LESS:                  "LESS",
	GREATER:               "GREATER",
	LESS_EQ:               "LESS_EQ",
	GREATER_EQ:            "GREATER_EQ",
}

// operatorText is the source spelling of each operator.
var operatorText = map[TokenType]string{
	PLUS:        "+",
	MINUS:       "-",
	AND_LOGICAL: "&&",
	OR_LOGICAL:  "||",
	NOT:         "!",
	EQUALS:      "==",
	NOT_EQ:      "!=",
	LESS:        "<",
	GREATER:     ">",
	LESS_EQ:     "<=",
	GREATER_EQ:  ">=",
}

func (tt TokenType) String() string {
	if int(tt) >= 0 && int(tt) < len(tokenNames) {
		return tokenNames[tt]
	}
	return fmt.Sprintf("TokenType(%d)", int(tt))
}

// Token is a single lexical unit produced by the Lexer.
type Token struct {
	Type   TokenType
	Lexeme string // the exact source text that was matched
	Line   int    // 1-based source line
}

func (t Token) String() string {
	return fmt.Sprintf("%-10s %-14q  line %d", t.Type, t.Lexeme, t.Line)
}
