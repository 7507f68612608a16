// Package repair inserts missing bracket characters into an expression
// until it is both bracket-balanced and accepted by a validator.
//
// The search is a depth-bounded backtracking over single-character
// insertions. At every node the expression is scanned with
// bracket.Scan; the leftmost defect names the missing character and the
// range of offsets worth trying, and each offset becomes a child node.
// A node without a defect is a leaf and is handed to the Validator.
// The first accepted leaf wins and the rest of the tree is abandoned.
//
// # Cost
//
// The branching factor at each depth is roughly the expression length,
// so the work grows exponentially with Config.MaxDepth. MaxDepth is the
// only resource knob; 3 is a practical ceiling and the default.
//
// # Minimality
//
// With Config.Staged set (the default) the search is run once per budget
// MinDepth, MinDepth+1, ... MaxDepth, and a budget only consults the
// validator at leaves of exactly that depth. The first budget that
// succeeds therefore yields a repair with the fewest insertions.
// Without staging a single pass with ceiling MaxDepth returns the first
// accepted leaf in depth-first, leftmost-offset order.
//
// # Errors
//
// Rejections and exhausted branches are ordinary backtracking signals.
// Only when every budget is exhausted does Repair return a
// *SyntaxUnrecoverableError, which matches ErrUnrecoverable.
//
//	res, err := repair.Repair(ctx, ".//a[b", repair.DefaultConfig(v))
//	if errors.Is(err, repair.ErrUnrecoverable) {
//		// give up, or retry with a larger MaxDepth
//	}
package repair
