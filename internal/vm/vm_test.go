package vm

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nilnovi/nnp/internal/code"
	"github.com/nilnovi/nnp/internal/nnperr"
)

func run(t *testing.T, instrs []code.Instruction, in string) (string, *VM, error) {
	t.Helper()
	var out bytes.Buffer
	machine := New(instrs, strings.NewReader(in), &out)
	err := machine.Run()
	return out.String(), machine, err
}

func TestDebutProgFinProg(t *testing.T) {
	out, machine, err := run(t, []code.Instruction{
		{Op: code.DebutProg},
		{Op: code.FinProg},
	}, "")
	require.ErrorIs(t, err, nnperr.ErrHalted)
	require.Equal(t, "", out)
	require.Equal(t, 0, machine.Base())
	require.Equal(t, machine.IP(), len(machine.Stack())-1)
}

func TestArithmetic(t *testing.T) {
	// put(2+3*4) -> 14
	out, _, err := run(t, []code.Instruction{
		{Op: code.DebutProg},
		{Op: code.Empiler, Params: []int{2}},
		{Op: code.Empiler, Params: []int{3}},
		{Op: code.Empiler, Params: []int{4}},
		{Op: code.Mult},
		{Op: code.Add},
		{Op: code.Put},
		{Op: code.FinProg},
	}, "")
	require.ErrorIs(t, err, nnperr.ErrHalted)
	require.Equal(t, "14\n", out)
}

func TestDivideByZero(t *testing.T) {
	_, _, err := run(t, []code.Instruction{
		{Op: code.DebutProg},
		{Op: code.Empiler, Params: []int{1}},
		{Op: code.Empiler, Params: []int{0}},
		{Op: code.Div},
		{Op: code.Put},
		{Op: code.FinProg},
	}, "")
	require.Error(t, err)
	require.False(t, errors.Is(err, nnperr.ErrHalted))
	require.True(t, nnperr.Is(err, nnperr.Runtime))
}

func TestGetReadsStdin(t *testing.T) {
	// reserver(1); empilerAd(0); get; empilerAd(0); valeurPile; put
	out, _, err := run(t, []code.Instruction{
		{Op: code.DebutProg},
		{Op: code.Reserver, Params: []int{1}},
		{Op: code.EmpilerAd, Params: []int{0}},
		{Op: code.Get},
		{Op: code.EmpilerAd, Params: []int{0}},
		{Op: code.ValeurPile},
		{Op: code.Put},
		{Op: code.FinProg},
	}, "7\n")
	require.ErrorIs(t, err, nnperr.ErrHalted)
	require.Equal(t, "7\n", out)
}

func TestConditionalBranchTze(t *testing.T) {
	// tze only falls through when top-of-stack is nonzero.
	out, _, err := run(t, []code.Instruction{
		{Op: code.DebutProg},
		{Op: code.Empiler, Params: []int{0}},
		{Op: code.Tze, Params: []int{6}},
		{Op: code.Empiler, Params: []int{1}},
		{Op: code.Put},
		{Op: code.Tra, Params: []int{7}},
		{Op: code.Empiler, Params: []int{0}},
		{Op: code.Put},
		{Op: code.FinProg},
	}, "")
	require.ErrorIs(t, err, nnperr.ErrHalted)
	require.Equal(t, "0\n", out)
}

func TestErreurOpcode(t *testing.T) {
	_, _, err := run(t, []code.Instruction{
		{Op: code.DebutProg},
		{Op: code.Erreur},
	}, "")
	require.Error(t, err)
	require.True(t, nnperr.Is(err, nnperr.Runtime))
}

func TestUnknownOpcode(t *testing.T) {
	_, _, err := run(t, []code.Instruction{
		{Op: code.DebutProg},
		{Op: code.Opcode("bogus")},
	}, "")
	require.Error(t, err)
	require.True(t, nnperr.Is(err, nnperr.Runtime))
}

func TestSetMaxStackOverflows(t *testing.T) {
	var out bytes.Buffer
	machine := New([]code.Instruction{
		{Op: code.DebutProg},
		{Op: code.Empiler, Params: []int{1}},
		{Op: code.Empiler, Params: []int{2}},
		{Op: code.Empiler, Params: []int{3}},
		{Op: code.FinProg},
	}, strings.NewReader(""), &out)
	machine.SetMaxStack(3)

	err := machine.Run()
	require.Error(t, err)
	require.False(t, errors.Is(err, nnperr.ErrHalted))
	require.True(t, nnperr.Is(err, nnperr.Runtime))
}

func TestSetMaxStackZeroDisablesLimit(t *testing.T) {
	var out bytes.Buffer
	machine := New([]code.Instruction{
		{Op: code.DebutProg},
		{Op: code.Empiler, Params: []int{1}},
		{Op: code.Empiler, Params: []int{2}},
		{Op: code.Empiler, Params: []int{3}},
		{Op: code.FinProg},
	}, strings.NewReader(""), &out)
	machine.SetMaxStack(0)

	err := machine.Run()
	require.ErrorIs(t, err, nnperr.ErrHalted)
}
