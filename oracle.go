package frep

// OracleClause is the extension point for leaves whose behavior is supplied
// by an external collaborator rather than expressed as an opcode tree. The
// engine treats clauses as opaque: it never inspects them beyond the methods
// declared here, and two oracle leaves are equal only if they are the same
// node (clauses are never deduplicated structurally).
type OracleClause interface {
	// Name identifies the clause kind, e.g. for printing.
	Name() string

	// Evaluate returns the clause's value at a position. Numeric evaluation
	// backends call this; the core engine never does.
	Evaluate(x, y, z float64) float64
}

// RemappableClause is an optional capability for clauses that depend on
// position. A clause implementing it participates in coordinate
// substitution during Flatten: the engine replaces the oracle leaf with a
// fresh leaf wrapping the returned clause. Clauses without this capability
// pass through flattening untouched.
type RemappableClause interface {
	OracleClause

	// RemapClause returns a clause equivalent to evaluating the receiver
	// with its coordinates substituted by the given trees. The trees are
	// borrowed for the duration of the call.
	RemapClause(xs, ys, zs Tree) OracleClause
}
