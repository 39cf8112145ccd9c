package compiler

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nilnovi/nnp/internal/code"
	"github.com/nilnovi/nnp/internal/nnperr"
)

type compilerTestCase struct {
	input                string
	expectedInstructions []code.Instruction
}

func runCompilerTests(t *testing.T, tests []compilerTestCase) {
	t.Helper()
	for _, tt := range tests {
		prog, _, err := New(tt.input).Compile()
		require.NoErrorf(t, err, "compile error for %q", tt.input)
		require.Equal(t, tt.expectedInstructions, prog.Instructions(), "input: %q", tt.input)
	}
}

func TestEmptyMain(t *testing.T) {
	runCompilerTests(t, []compilerTestCase{
		{
			input: `procedure main is begin end`,
			expectedInstructions: []code.Instruction{
				{Op: code.DebutProg},
				{Op: code.FinProg},
			},
		},
	})
}

func TestVariableDeclarationAndAssignment(t *testing.T) {
	runCompilerTests(t, []compilerTestCase{
		{
			input: `procedure main is i : integer; begin i := 5; end`,
			expectedInstructions: []code.Instruction{
				{Op: code.DebutProg},
				{Op: code.Reserver, Params: []int{1}},
				{Op: code.EmpilerAd, Params: []int{0}},
				{Op: code.Empiler, Params: []int{5}},
				{Op: code.Affectation},
				{Op: code.FinProg},
			},
		},
	})
}

func TestPutExpression(t *testing.T) {
	runCompilerTests(t, []compilerTestCase{
		{
			input: `procedure main is begin put(2+3*4); end`,
			expectedInstructions: []code.Instruction{
				{Op: code.DebutProg},
				{Op: code.Empiler, Params: []int{2}},
				{Op: code.Empiler, Params: []int{3}},
				{Op: code.Empiler, Params: []int{4}},
				{Op: code.Mult},
				{Op: code.Add},
				{Op: code.Put},
				{Op: code.FinProg},
			},
		},
	})
}

func TestGetAndVariableReference(t *testing.T) {
	runCompilerTests(t, []compilerTestCase{
		{
			input: `procedure main is i : integer; begin get(i); put(i); end`,
			expectedInstructions: []code.Instruction{
				{Op: code.DebutProg},
				{Op: code.Reserver, Params: []int{1}},
				{Op: code.EmpilerAd, Params: []int{0}},
				{Op: code.Get},
				{Op: code.EmpilerAd, Params: []int{0}},
				{Op: code.ValeurPile},
				{Op: code.Put},
				{Op: code.FinProg},
			},
		},
	})
}

func TestRelationalAndLogicalOperators(t *testing.T) {
	runCompilerTests(t, []compilerTestCase{
		{
			input: `procedure main is begin put((1 < 2) and (3 > 4)); end`,
			expectedInstructions: []code.Instruction{
				{Op: code.DebutProg},
				{Op: code.Empiler, Params: []int{1}},
				{Op: code.Empiler, Params: []int{2}},
				{Op: code.Inf},
				{Op: code.Empiler, Params: []int{3}},
				{Op: code.Empiler, Params: []int{4}},
				{Op: code.Sup},
				{Op: code.Et},
				{Op: code.Put},
				{Op: code.FinProg},
			},
		},
	})
}

// The branch-patching arithmetic (tze/tra target addresses) is covered
// behaviorally by internal/pipeline, which runs the real compiler and
// asserts on VM output rather than on hand-computed addresses. Here we
// only check the shape: a conditional/loop compiles to a Tze paired
// with a forward Tra (if/else) or backward Tra (while), and the
// then/else or loop-body opcodes appear in the right relative order.

func TestIfWithoutElseShape(t *testing.T) {
	prog, _, err := New(`procedure main is begin if 1 < 2 then put(1); end; end`).Compile()
	require.NoError(t, err)
	ops := opcodes(prog)
	require.Equal(t, []code.Opcode{
		code.DebutProg, code.Empiler, code.Empiler, code.Inf,
		code.Tze, code.Empiler, code.Put, code.FinProg,
	}, ops)
}

func TestIfWithElseShape(t *testing.T) {
	prog, _, err := New(`procedure main is begin if 1 < 2 then put(1); else put(0); end; end`).Compile()
	require.NoError(t, err)
	ops := opcodes(prog)
	require.Equal(t, []code.Opcode{
		code.DebutProg, code.Empiler, code.Empiler, code.Inf,
		code.Tze, code.Empiler, code.Put, code.Tra,
		code.Empiler, code.Put, code.FinProg,
	}, ops)

	instrs := prog.Instructions()
	tze := instrs[4]
	tra := instrs[7]
	require.Len(t, tze.Params, 1)
	require.Len(t, tra.Params, 1)
	// tze must land inside the else-block, tra must land at/after finProg.
	require.GreaterOrEqual(t, tze.Params[0], 9)
	require.GreaterOrEqual(t, tra.Params[0], tze.Params[0])
}

func TestWhileLoopShape(t *testing.T) {
	prog, _, err := New(`procedure main is i : integer; begin i := 0; while i < 3 loop put(i); end; end`).Compile()
	require.NoError(t, err)
	ops := opcodes(prog)
	require.Equal(t, []code.Opcode{
		code.DebutProg, code.Reserver, code.EmpilerAd, code.Empiler, code.Affectation,
		code.EmpilerAd, code.ValeurPile, code.Empiler, code.Inf,
		code.Tze, code.EmpilerAd, code.ValeurPile, code.Put, code.Tra,
		code.FinProg,
	}, ops)

	instrs := prog.Instructions()
	tze := instrs[9]
	tra := instrs[13]
	require.Len(t, tze.Params, 1)
	require.Len(t, tra.Params, 1)
	// tra must jump back into the condition check, tze forward past the body.
	require.Less(t, tra.Params[0], tze.Params[0])
	require.GreaterOrEqual(t, tze.Params[0], 14)
}

func opcodes(prog *code.Program) []code.Opcode {
	instrs := prog.Instructions()
	ops := make([]code.Opcode, len(instrs))
	for i, instr := range instrs {
		ops[i] = instr.Op
	}
	return ops
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		kind  nnperr.Kind
	}{
		{"unknown token", `procedure main is begin @ end`, nnperr.Lexical},
		{"missing expected token", `procedure main is begin if 1 < 2 put(1); end; end`, nnperr.Parse},
		{"unknown identifier", `procedure main is begin x := 1; end`, nnperr.Name},
		{"assign to in-only parameter", `procedure main is procedure p(x : in integer) is begin x := 1; end; begin end`, nnperr.Semantic},
		{"arity mismatch", `procedure main is procedure p(x : in integer) is begin end; begin p(); end`, nnperr.Semantic},
		{"unknown type keyword", `procedure main is i : foo; begin end`, nnperr.Semantic},
		{"return outside a function", `procedure main is begin return 1; end`, nnperr.Semantic},
		{"duplicate variable name", `procedure main is i : integer; i : integer; begin end`, nnperr.Name},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := New(tt.input).Compile()
			require.Error(t, err)
			require.True(t, nnperr.Is(err, tt.kind), "expected kind %v, got %v", tt.kind, err)
		})
	}
}
