package diag

import (
	"fmt"
)

type Code uint16

const (
	// Неизвестная ошибка
	UnknownCode Code = 0

	// Структурные дефекты скобок
	BrkUnopenedCloser Code = 1
	BrkMismatch       Code = 2
	BrkUnclosedOpener Code = 3

	// Ответы валидатора и поиска
	BrkOracleRejected Code = 10
	BrkUnrecoverable  Code = 20
)

var (
	codeDescription = map[Code]string{
		UnknownCode:       "Unknown error",
		BrkUnopenedCloser: "closing bracket without an opener",
		BrkMismatch:       "closing bracket does not match the open one",
		BrkUnclosedOpener: "opening bracket is never closed",
		BrkOracleRejected: "validator rejected the expression",
		BrkUnrecoverable:  "expression could not be repaired",
	}
)

func (c Code) ID() string {
	if _, ok := codeDescription[c]; !ok || c == UnknownCode {
		return "BRK000"
	}
	return fmt.Sprintf("BRK%03d", int(c))
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
