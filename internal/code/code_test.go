package code

import (
	"bufio"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInstructionString(t *testing.T) {
	tests := []struct {
		instr Instruction
		want  string
	}{
		{Instruction{Op: DebutProg}, "debutProg()"},
		{Instruction{Op: Reserver, Params: []int{2}}, "reserver(2)"},
		{Instruction{Op: TraStat, Params: []int{7, 1}}, "traStat(7,1)"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, tt.instr.String())
	}
}

func TestEmitAndSerialize(t *testing.T) {
	p := New()
	p.EmitDebutProg()
	p.EmitEmpiler(42)
	p.EmitPut()
	p.EmitFinProg()

	want := "debutProg()\nempiler(42)\nput()\nfinProg()\n"
	require.Equal(t, want, p.Serialize())
}

func TestInsertShiftsLaterInstructions(t *testing.T) {
	p := New()
	p.EmitEmpiler(1)
	p.EmitEmpiler(2)

	err := p.Insert(1, Tze, 99)
	require.NoError(t, err)

	instrs := p.Instructions()
	require.Len(t, instrs, 3)
	require.Equal(t, Tze, instrs[1].Op)
	require.Equal(t, Empiler, instrs[2].Op)
}

func TestInsertPastEndFails(t *testing.T) {
	p := New()
	p.EmitEmpiler(1)
	err := p.Insert(5, Tra, 1)
	require.Error(t, err)
}

func TestParseRoundTrip(t *testing.T) {
	p := New()
	p.EmitDebutProg()
	p.EmitReserver(1)
	p.EmitEmpiler(42)
	p.EmitPut()
	p.EmitFinProg()

	scanner := bufio.NewScanner(strings.NewReader(p.Serialize()))
	got, err := Parse(scanner)
	require.NoError(t, err)
	require.Equal(t, p.Instructions(), got)
}

func TestParseTrailingNewlineOptional(t *testing.T) {
	scanner := bufio.NewScanner(strings.NewReader("debutProg()\nfinProg()"))
	got, err := Parse(scanner)
	require.NoError(t, err)
	require.Equal(t, []Instruction{{Op: DebutProg}, {Op: FinProg}}, got)
}

func TestParseUnknownOpcode(t *testing.T) {
	scanner := bufio.NewScanner(strings.NewReader("bogus(1)"))
	_, err := Parse(scanner)
	require.Error(t, err)
}
