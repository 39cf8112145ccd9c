// Package compiler implements Component D of spec.md §2/§4.D: a
// recursive-descent parser over the NNP grammar that emits Component C
// instructions as a side effect of parsing, with no separate AST stage.
package compiler

import (
	"strconv"

	"go.uber.org/zap"

	"github.com/nilnovi/nnp/internal/code"
	"github.com/nilnovi/nnp/internal/identtable"
	"github.com/nilnovi/nnp/internal/lexer"
	"github.com/nilnovi/nnp/internal/nnperr"
	"github.com/nilnovi/nnp/internal/token"
)

// Compiler holds the per-compilation state threaded through every
// recursive-descent production: the current/lookahead token, the
// identifier table, the instruction sequence under construction, the
// currently open scope, and the branch-patching/call-argument counters
// of spec.md §4.D.
type Compiler struct {
	lex  *lexer.Lexer
	cur  token.Token
	peek token.Token

	table *identtable.Table
	prog  *code.Program
	scope *identtable.CallableEntry

	nestedAltern      int
	nestedLoop        int
	declaredCallables bool

	passingParam  bool
	callableStack []*identtable.CallableEntry
	outStack      []bool

	log *zap.SugaredLogger
}

// New constructs a Compiler over the given NNP source text.
func New(source string) *Compiler {
	c := &Compiler{lex: lexer.New(source), table: identtable.New(), prog: code.New(), log: zap.NewNop().Sugar()}
	c.nextToken()
	c.nextToken()
	return c
}

// SetLogger installs a logger for per-token lexing, per SPEC_FULL.md
// §4.F's Debug level (only meaningful with cmd/nnp-comp's "-d"). A nil
// logger is ignored, leaving the no-op default installed by New.
func (c *Compiler) SetLogger(log *zap.SugaredLogger) {
	if log != nil {
		c.log = log
	}
}

// Compile runs the full recursive-descent pass, returning the emitted
// program and populated identifier table, or the first error
// encountered (the compiler recovers from nothing, per spec.md §7).
func (c *Compiler) Compile() (*code.Program, *identtable.Table, error) {
	if _, err := c.accept(token.PROCEDURE); err != nil {
		return nil, nil, err
	}
	nameTok, err := c.accept(token.IDENT)
	if err != nil {
		return nil, nil, err
	}
	if _, err := c.accept(token.IS); err != nil {
		return nil, nil, err
	}

	c.prog.EmitDebutProg()
	c.scope = c.table.AddCallable(nameTok.Literal, identtable.ProcedureKind, nil, 0)

	if err := c.parsePartieDecla(); err != nil {
		return nil, nil, err
	}
	if _, err := c.accept(token.BEGIN); err != nil {
		return nil, nil, err
	}
	if c.cur.Type != token.END {
		if err := c.parseSuiteInstr(); err != nil {
			return nil, nil, err
		}
	}
	if _, err := c.accept(token.END); err != nil {
		return nil, nil, err
	}
	if _, err := c.accept(token.EOF); err != nil {
		return nil, nil, err
	}
	c.prog.EmitFinProg()

	return c.prog, c.table, nil
}

func (c *Compiler) nextToken() {
	c.cur = c.peek
	c.peek = c.lex.NextToken()
	c.log.Debugw("lexed token", "type", c.peek.Type, "literal", c.peek.Literal, "line", c.peek.Line, "column", c.peek.Column)
}

// accept consumes the current token if it matches tt, else fails with a
// ParseError carrying the offending line/column (or a LexicalError if
// the lexer could not form a valid token at all).
func (c *Compiler) accept(tt token.Type) (token.Token, error) {
	if err := c.checkIllegal(); err != nil {
		return token.Token{}, err
	}
	if c.cur.Type != tt {
		return token.Token{}, nnperr.Parsef(c.cur.Line, c.cur.Column, "expected %s, got %s (%q)", tt, c.cur.Type, c.cur.Literal)
	}
	tok := c.cur
	c.nextToken()
	return tok, nil
}

// checkIllegal reports a LexicalError when the current token is one the
// lexer could not tokenize at all, per its documented contract.
func (c *Compiler) checkIllegal() error {
	if c.cur.Type == token.ILLEGAL {
		return nnperr.Lexicalf(c.cur.Line, c.cur.Column, "illegal character %q", c.cur.Literal)
	}
	return nil
}

// partieDecla := listeDeclaOp listeDeclaVar? | listeDeclaVar
//
// Handles the "jump over nested-callable definitions" logic of
// spec.md §4.D: the first time a procedure/function declaration is
// seen, the current instruction position is remembered; once every
// declaration has been processed, a tra instruction is back-patched in
// at that position so control flow at run time skips straight into the
// main body.
func (c *Compiler) parsePartieDecla() error {
	started := false
	insertPos := 0

opLoop:
	for {
		switch c.cur.Type {
		case token.PROCEDURE:
			if !started {
				insertPos = c.prog.Len()
				started = true
			}
			if err := c.parseProcedure(); err != nil {
				return err
			}
			if _, err := c.accept(token.SEMICOLON); err != nil {
				return err
			}
		case token.FUNCTION:
			if !started {
				insertPos = c.prog.Len()
				started = true
			}
			if err := c.parseFunction(); err != nil {
				return err
			}
			if _, err := c.accept(token.SEMICOLON); err != nil {
				return err
			}
		default:
			break opLoop
		}
	}

	// j must be taken the instant listeDeclaOp finishes, strictly
	// before listeDeclaVar is parsed below — a variable declared at
	// main's own level is not part of what the tra skips over.
	if started {
		j := c.prog.Len()
		if err := c.prog.Insert(insertPos, code.Tra, j+2); err != nil {
			return err
		}
		c.declaredCallables = true
	}

	for c.cur.Type == token.IDENT {
		if err := c.parseDeclaVar(); err != nil {
			return err
		}
	}
	return nil
}

// parseLocalDecls parses the zero-or-more variable declarations a
// procedure/function body may open with; nested callables are not
// permitted inside a callable's own body.
func (c *Compiler) parseLocalDecls() error {
	for c.cur.Type == token.IDENT {
		if err := c.parseDeclaVar(); err != nil {
			return err
		}
	}
	return nil
}

// parseBody parses [declaVar*] "begin" [suiteInstr] "end", the shape
// shared by procedure and function bodies (corpsProc/corpsFonct).
func (c *Compiler) parseBody() error {
	if err := c.parseLocalDecls(); err != nil {
		return err
	}
	if _, err := c.accept(token.BEGIN); err != nil {
		return err
	}
	if c.cur.Type != token.END {
		if err := c.parseSuiteInstr(); err != nil {
			return err
		}
	}
	if _, err := c.accept(token.END); err != nil {
		return err
	}
	return nil
}

// procedure := "procedure" IDENT partieFormelle "is" corpsProc
func (c *Compiler) parseProcedure() error {
	if _, err := c.accept(token.PROCEDURE); err != nil {
		return err
	}
	nameTok, err := c.accept(token.IDENT)
	if err != nil {
		return err
	}

	addr := c.prog.Len() + 1
	entry := c.table.AddCallable(nameTok.Literal, identtable.ProcedureKind, c.scope, addr)
	outer := c.scope
	c.scope = entry

	if err := c.parsePartieFormelle(entry); err != nil {
		return err
	}
	if _, err := c.accept(token.IS); err != nil {
		return err
	}
	if err := c.parseBody(); err != nil {
		return err
	}
	c.prog.EmitRetourProc()
	c.scope = outer
	return nil
}

// fonction := "function" IDENT partieFormelle "return" type "is" corpsFonct
func (c *Compiler) parseFunction() error {
	if _, err := c.accept(token.FUNCTION); err != nil {
		return err
	}
	nameTok, err := c.accept(token.IDENT)
	if err != nil {
		return err
	}

	addr := c.prog.Len() + 1
	entry := c.table.AddCallable(nameTok.Literal, identtable.FunctionKind, c.scope, addr)
	outer := c.scope
	c.scope = entry

	if err := c.parsePartieFormelle(entry); err != nil {
		return err
	}
	if _, err := c.accept(token.RETURN); err != nil {
		return err
	}
	retType, err := c.parseType()
	if err != nil {
		return err
	}
	entry.ReturnType = retType
	if _, err := c.accept(token.IS); err != nil {
		return err
	}
	if err := c.parseBody(); err != nil {
		return err
	}
	// No implicit epilogue: a function's only retourFonct comes from an
	// explicit "return" inside its body (spec.md §4.D).
	c.scope = outer
	return nil
}

// partieFormelle := "(" [listeSpecifFormelles] ")"
func (c *Compiler) parsePartieFormelle(entry *identtable.CallableEntry) error {
	if _, err := c.accept(token.LPAREN); err != nil {
		return err
	}
	if c.cur.Type != token.RPAREN {
		for {
			if err := c.parseSpecif(entry); err != nil {
				return err
			}
			if c.cur.Type == token.SEMICOLON {
				c.nextToken()
				continue
			}
			break
		}
	}
	if _, err := c.accept(token.RPAREN); err != nil {
		return err
	}
	return nil
}

// specif := listeIdent ":" [mode] type
// mode    := "in" ["out"]
//
// Every formal parameter has InStatus = true (it is a parameter by
// definition); OutStatus is true only when "out" follows "in".
func (c *Compiler) parseSpecif(entry *identtable.CallableEntry) error {
	names, err := c.parseListeIdent()
	if err != nil {
		return err
	}
	if _, err := c.accept(token.COLON); err != nil {
		return err
	}

	isOut := false
	if c.cur.Type == token.IN {
		c.nextToken()
		if c.cur.Type == token.OUT {
			isOut = true
			c.nextToken()
		}
	}

	typ, err := c.parseType()
	if err != nil {
		return err
	}

	for _, tok := range names {
		addr := len(entry.Variables)
		if _, err := c.table.AddVariable(tok.Literal, typ, entry, true, isOut, addr); err != nil {
			return nnperr.Namef(tok.Line, tok.Column, "duplicate parameter name %q", tok.Literal)
		}
	}
	return nil
}

// listeIdent := IDENT ("," listeIdent)?
func (c *Compiler) parseListeIdent() ([]token.Token, error) {
	var names []token.Token
	first, err := c.accept(token.IDENT)
	if err != nil {
		return nil, err
	}
	names = append(names, first)

	for c.cur.Type == token.COMMA {
		c.nextToken()
		tok, err := c.accept(token.IDENT)
		if err != nil {
			return nil, err
		}
		names = append(names, tok)
	}
	return names, nil
}

// declaVar := listeIdent ":" type ";"
func (c *Compiler) parseDeclaVar() error {
	names, err := c.parseListeIdent()
	if err != nil {
		return err
	}
	if _, err := c.accept(token.COLON); err != nil {
		return err
	}
	typ, err := c.parseType()
	if err != nil {
		return err
	}
	if _, err := c.accept(token.SEMICOLON); err != nil {
		return err
	}

	c.prog.EmitReserver(len(names))
	for _, tok := range names {
		addr := len(c.scope.Variables)
		if _, err := c.table.AddVariable(tok.Literal, typ, c.scope, false, false, addr); err != nil {
			return nnperr.Namef(tok.Line, tok.Column, "duplicate variable name %q", tok.Literal)
		}
	}
	return nil
}

// type := "integer" | "boolean"
func (c *Compiler) parseType() (identtable.ValueType, error) {
	switch c.cur.Type {
	case token.INTEGER:
		c.nextToken()
		return identtable.INTEGER, nil
	case token.BOOLEAN:
		c.nextToken()
		return identtable.BOOLEAN, nil
	default:
		return 0, nnperr.Semanticf(c.cur.Line, c.cur.Column, "unknown type keyword %q", c.cur.Literal)
	}
}

// suiteInstr := [suiteInstrNonVide]
// suiteInstrNonVide := instr (";" suiteInstrNonVide)?
func (c *Compiler) parseSuiteInstr() error {
	for c.startsInstr() {
		if err := c.parseInstr(); err != nil {
			return err
		}
		if c.cur.Type == token.SEMICOLON {
			c.nextToken()
			continue
		}
		break
	}
	return nil
}

func (c *Compiler) startsInstr() bool {
	switch c.cur.Type {
	case token.WHILE, token.IF, token.GET, token.PUT, token.RETURN, token.IDENT:
		return true
	default:
		return false
	}
}

// instr := boucle | altern | es | retour | affectationOrCall
func (c *Compiler) parseInstr() error {
	if err := c.checkIllegal(); err != nil {
		return err
	}
	switch c.cur.Type {
	case token.WHILE:
		return c.parseBoucle()
	case token.IF:
		return c.parseAltern()
	case token.GET:
		return c.parseGet()
	case token.PUT:
		return c.parsePut()
	case token.RETURN:
		return c.parseRetour()
	case token.IDENT:
		return c.parseAffectationOrCall()
	default:
		return nnperr.Parsef(c.cur.Line, c.cur.Column, "unexpected token %s", c.cur.Type)
	}
}

// boucle := "while" expression "loop" suiteInstr "end"
//
// The back-patch arithmetic is spec.md §4.D's literal algorithm:
// nestingAdjust accounts for the top-level skip-jump (if any callables
// were declared) plus the depth of while loops still enclosing this
// one (nestedLoop is read before this loop's own increment, so a
// top-level loop contributes 0 of its own).
func (c *Compiler) parseBoucle() error {
	if _, err := c.accept(token.WHILE); err != nil {
		return err
	}
	adjust := c.nestedLoop
	if c.declaredCallables {
		adjust++
	}
	c.nestedLoop++

	ligne1 := c.prog.Len()
	if err := c.parseExpression(); err != nil {
		return err
	}
	ligne2 := c.prog.Len()
	if _, err := c.accept(token.LOOP); err != nil {
		return err
	}

	if err := c.parseSuiteInstr(); err != nil {
		return err
	}
	if _, err := c.accept(token.END); err != nil {
		return err
	}
	ligne3 := c.prog.Len()

	c.prog.EmitTra(ligne1 + 1 + adjust)
	if err := c.prog.Insert(ligne2, code.Tze, ligne3+3+adjust); err != nil {
		return err
	}
	c.nestedLoop--
	return nil
}

// altern := "if" expression "then" suiteInstr ["else" suiteInstr] "end"
//
// tzeAdjust carries the depth of if/else constructs still enclosing
// this one (nestedAltern read before this construct's own increment)
// plus the top-level skip-jump adjustment; traAdjust (the else-branch's
// jump past the else-block) only ever needs the latter, per the
// original back-patching algorithm.
func (c *Compiler) parseAltern() error {
	if _, err := c.accept(token.IF); err != nil {
		return err
	}
	if err := c.parseExpression(); err != nil {
		return err
	}
	ligne1 := c.prog.Len()
	if _, err := c.accept(token.THEN); err != nil {
		return err
	}

	tzeAdjust := c.nestedAltern
	if c.declaredCallables {
		tzeAdjust++
	}
	c.nestedAltern++

	if err := c.parseSuiteInstr(); err != nil {
		return err
	}
	ligne2 := c.prog.Len()

	traAdjust := 0
	if c.declaredCallables {
		traAdjust = 1
	}

	if c.cur.Type == token.ELSE {
		c.nextToken()
		ligne3 := c.prog.Len()
		if err := c.parseSuiteInstr(); err != nil {
			return err
		}
		ligne4 := c.prog.Len()
		if err := c.prog.Insert(ligne3, code.Tra, ligne4+3+traAdjust); err != nil {
			return err
		}
		if err := c.prog.Insert(ligne1, code.Tze, ligne2+3+tzeAdjust); err != nil {
			return err
		}
	} else {
		if err := c.prog.Insert(ligne1, code.Tze, ligne2+2+tzeAdjust); err != nil {
			return err
		}
	}

	if _, err := c.accept(token.END); err != nil {
		return err
	}
	c.nestedAltern--
	return nil
}

// es := "get" "(" IDENT ")" | "put" "(" expression ")"
func (c *Compiler) parseGet() error {
	if _, err := c.accept(token.GET); err != nil {
		return err
	}
	if _, err := c.accept(token.LPAREN); err != nil {
		return err
	}
	nameTok, err := c.accept(token.IDENT)
	if err != nil {
		return err
	}
	if _, err := c.accept(token.RPAREN); err != nil {
		return err
	}

	entry, ok := c.table.GetByName(nameTok.Literal)
	if !ok {
		return nnperr.Namef(nameTok.Line, nameTok.Column, "undeclared identifier %q", nameTok.Literal)
	}
	v, ok := entry.(*identtable.VariableEntry)
	if !ok {
		return nnperr.Semanticf(nameTok.Line, nameTok.Column, "%q is not a variable", nameTok.Literal)
	}

	c.prog.EmitEmpilerAd(v.Address)
	c.prog.EmitGet()
	return nil
}

func (c *Compiler) parsePut() error {
	if _, err := c.accept(token.PUT); err != nil {
		return err
	}
	if _, err := c.accept(token.LPAREN); err != nil {
		return err
	}
	if err := c.parseExpression(); err != nil {
		return err
	}
	if _, err := c.accept(token.RPAREN); err != nil {
		return err
	}
	c.prog.EmitPut()
	return nil
}

// retour := "return" expression
func (c *Compiler) parseRetour() error {
	retTok := c.cur
	if _, err := c.accept(token.RETURN); err != nil {
		return err
	}
	if c.scope == nil || !c.scope.IsFunction() {
		return nnperr.Semanticf(retTok.Line, retTok.Column, "return outside a function")
	}
	if err := c.parseExpression(); err != nil {
		return err
	}
	c.prog.EmitRetourFonct()
	return nil
}

// affectationOrCall covers both "x := e" and "p(a1,...,ak)" as a
// statement, distinguished by the token following the identifier.
func (c *Compiler) parseAffectationOrCall() error {
	nameTok, err := c.accept(token.IDENT)
	if err != nil {
		return err
	}
	entry, ok := c.table.GetByName(nameTok.Literal)
	if !ok {
		return nnperr.Namef(nameTok.Line, nameTok.Column, "undeclared identifier %q", nameTok.Literal)
	}

	switch c.cur.Type {
	case token.ASSIGN:
		v, ok := entry.(*identtable.VariableEntry)
		if !ok {
			return nnperr.Semanticf(nameTok.Line, nameTok.Column, "cannot assign to callable %q", nameTok.Literal)
		}
		if v.InStatus && !v.OutStatus {
			return nnperr.Semanticf(nameTok.Line, nameTok.Column, "cannot assign to in-only parameter %q", nameTok.Literal)
		}
		if v.OutStatus {
			c.prog.EmitEmpilerParam(v.Address)
		} else {
			c.prog.EmitEmpilerAd(v.Address)
		}
		c.nextToken() // consume ":="
		if err := c.parseExpression(); err != nil {
			return err
		}
		c.prog.EmitAffectation()
		return nil

	case token.LPAREN:
		callable, ok := entry.(*identtable.CallableEntry)
		if !ok {
			return nnperr.Semanticf(nameTok.Line, nameTok.Column, "%q is not callable", nameTok.Literal)
		}
		return c.compileCall(nameTok, callable)

	default:
		return nnperr.Parsef(c.cur.Line, c.cur.Column, "expected %s or %s after identifier, got %s", token.ASSIGN, token.LPAREN, c.cur.Type)
	}
}

// compileCall implements spec.md §4.D's call-compilation sequence,
// shared between a call-as-statement and a call-as-r-value. outStack is
// a true stack: each call pushes its own parameters' outStatus flags on
// top, and emitIdentValue pops from the top as identifier primaries are
// encountered while passingParam is active. This keeps a nested call
// appearing inside an outer call's argument list (e.g. outer(f(a), b))
// consuming its own flags before control returns to the outer call's
// remaining arguments.
func (c *Compiler) compileCall(tok token.Token, callable *identtable.CallableEntry) error {
	c.callableStack = append(c.callableStack, callable)
	for _, p := range callable.Parameters {
		c.outStack = append(c.outStack, p.OutStatus)
	}
	c.passingParam = true
	c.prog.EmitReserverBloc()

	if _, err := c.accept(token.LPAREN); err != nil {
		return err
	}
	argc := 0
	if c.cur.Type != token.RPAREN {
		for {
			if err := c.parseExpression(); err != nil {
				return err
			}
			argc++
			if c.cur.Type == token.COMMA {
				c.nextToken()
				continue
			}
			break
		}
	}
	if _, err := c.accept(token.RPAREN); err != nil {
		return err
	}

	if argc != len(callable.Parameters) {
		return nnperr.Semanticf(tok.Line, tok.Column, "call to %q expects %d argument(s), got %d", callable.Name, len(callable.Parameters), argc)
	}
	c.prog.EmitTraStat(callable.Address+1, argc)

	c.callableStack = c.callableStack[:len(c.callableStack)-1]
	if len(c.callableStack) == 0 {
		c.passingParam = false
		c.outStack = nil
	}
	return nil
}

// expression := exp1 ("or" exp1)*
func (c *Compiler) parseExpression() error {
	if err := c.parseExp1(); err != nil {
		return err
	}
	for c.cur.Type == token.OR {
		c.nextToken()
		if err := c.parseExp1(); err != nil {
			return err
		}
		c.prog.EmitOu()
	}
	return nil
}

// exp1 := exp2 ("and" exp2)*
func (c *Compiler) parseExp1() error {
	if err := c.parseExp2(); err != nil {
		return err
	}
	for c.cur.Type == token.AND {
		c.nextToken()
		if err := c.parseExp2(); err != nil {
			return err
		}
		c.prog.EmitEt()
	}
	return nil
}

// exp2 := exp3 [relop exp3]
func (c *Compiler) parseExp2() error {
	if err := c.parseExp3(); err != nil {
		return err
	}
	switch c.cur.Type {
	case token.LT, token.GT, token.EQ, token.LE, token.GE, token.NE:
		op := c.cur.Type
		c.nextToken()
		if err := c.parseExp3(); err != nil {
			return err
		}
		switch op {
		case token.LT:
			c.prog.EmitInf()
		case token.GT:
			c.prog.EmitSup()
		case token.EQ:
			c.prog.EmitEgal()
		case token.LE:
			c.prog.EmitInfeg()
		case token.GE:
			c.prog.EmitSupeg()
		case token.NE:
			c.prog.EmitDiff()
		}
	}
	return nil
}

// exp3 := exp4 (("+"|"-") exp4)*
func (c *Compiler) parseExp3() error {
	if err := c.parseExp4(); err != nil {
		return err
	}
	for c.cur.Type == token.PLUS || c.cur.Type == token.MINUS {
		op := c.cur.Type
		c.nextToken()
		if err := c.parseExp4(); err != nil {
			return err
		}
		if op == token.PLUS {
			c.prog.EmitAdd()
		} else {
			c.prog.EmitSous()
		}
	}
	return nil
}

// exp4 := prim (("*"|"/") prim)*
func (c *Compiler) parseExp4() error {
	if err := c.parsePrim(); err != nil {
		return err
	}
	for c.cur.Type == token.ASTERISK || c.cur.Type == token.SLASH {
		op := c.cur.Type
		c.nextToken()
		if err := c.parsePrim(); err != nil {
			return err
		}
		if op == token.ASTERISK {
			c.prog.EmitMult()
		} else {
			c.prog.EmitDiv()
		}
	}
	return nil
}

// prim := [unaryop] elemPrim
func (c *Compiler) parsePrim() error {
	switch c.cur.Type {
	case token.MINUS:
		c.nextToken()
		if err := c.parseElemPrim(); err != nil {
			return err
		}
		c.prog.EmitMoins()
		return nil
	case token.PLUS:
		c.nextToken()
		return c.parseElemPrim()
	case token.NOT:
		c.nextToken()
		if err := c.parseElemPrim(); err != nil {
			return err
		}
		c.prog.EmitNon()
		return nil
	default:
		return c.parseElemPrim()
	}
}

// elemPrim := "(" expression ")" | INT | "true" | "false" | IDENT [actuals]
func (c *Compiler) parseElemPrim() error {
	if err := c.checkIllegal(); err != nil {
		return err
	}
	switch c.cur.Type {
	case token.LPAREN:
		c.nextToken()
		if err := c.parseExpression(); err != nil {
			return err
		}
		if _, err := c.accept(token.RPAREN); err != nil {
			return err
		}
		return nil

	case token.INT:
		n, err := strconv.Atoi(c.cur.Literal)
		if err != nil {
			return nnperr.Lexicalf(c.cur.Line, c.cur.Column, "malformed integer literal %q", c.cur.Literal)
		}
		c.prog.EmitEmpiler(n)
		c.nextToken()
		return nil

	case token.TRUE:
		c.prog.EmitEmpiler(1)
		c.nextToken()
		return nil

	case token.FALSE:
		c.prog.EmitEmpiler(0)
		c.nextToken()
		return nil

	case token.IDENT:
		tok := c.cur
		c.nextToken()
		entry, ok := c.table.GetByName(tok.Literal)
		if !ok {
			return nnperr.Namef(tok.Line, tok.Column, "undeclared identifier %q", tok.Literal)
		}
		switch e := entry.(type) {
		case *identtable.CallableEntry:
			if c.cur.Type != token.LPAREN {
				return nnperr.Semanticf(tok.Line, tok.Column, "callable %q used as a value without a call", tok.Literal)
			}
			return c.compileCall(tok, e)
		case *identtable.VariableEntry:
			if c.cur.Type == token.LPAREN {
				return nnperr.Semanticf(tok.Line, tok.Column, "%q is not callable", tok.Literal)
			}
			c.emitIdentValue(e)
			return nil
		default:
			return nnperr.Namef(tok.Line, tok.Column, "unresolved identifier %q", tok.Literal)
		}

	default:
		return nnperr.Parsef(c.cur.Line, c.cur.Column, "unexpected token %s in expression", c.cur.Type)
	}
}

// emitIdentValue compiles a bare variable reference. A variable that is
// itself a parameter of its own declaring callable always dereferences
// to its current value, regardless of passingParam: an in-out parameter
// holds the caller's address indirectly (empilerParam fetches it, then
// valeurPile reads through it), an in-only parameter holds its value
// directly at its own slot (empilerAd then valeurPile). The outStack
// consumption only applies to an ordinary local variable, per spec.md
// §4.D's "argument compilation" rule: while passingParam is active each
// such identifier primary pops one outStack flag — a by-reference
// parameter (flag true) emits only the address, a by-value parameter
// (flag false) additionally dereferences with valeurPile.
func (c *Compiler) emitIdentValue(v *identtable.VariableEntry) {
	if v.InStatus {
		if v.OutStatus {
			c.prog.EmitEmpilerParam(v.Address)
		} else {
			c.prog.EmitEmpilerAd(v.Address)
		}
		c.prog.EmitValeurPile()
		return
	}
	c.prog.EmitEmpilerAd(v.Address)
	if c.passingParam && len(c.outStack) > 0 {
		last := len(c.outStack) - 1
		byRef := c.outStack[last]
		c.outStack = c.outStack[:last]
		if byRef {
			return
		}
	}
	c.prog.EmitValeurPile()
}
