// Package fuzztests houses Go fuzz harnesses for the scanner, the repair
// search and fix application. Their goal is to guard the structural
// guarantees (offsets in range, balanced output, insertions only) on
// arbitrary inputs and to catch panics on odd runes.
//
// Назначение: прогонять произвольные строки через bracket.Scan,
// repair.Repair и fix.Apply.
//
// Не делает: генерацию корпусов, запись файлов, выполнение CLI.
//
// Зависимости: internal/bracket, internal/repair, internal/fix,
// internal/driver, internal/diag.

package fuzztests
