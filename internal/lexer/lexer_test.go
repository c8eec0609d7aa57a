package lexer_test

import (
	"testing"

	"ember/internal/lexer"
	"ember/internal/token"
)

func TestNextToken_BasicProgram(t *testing.T) {
	input := `class Greeter {
  init(name) {
    this.name = name;
  }

  greet() {
    return "hi, " + this.name;
  }
}

var g = Greeter("world");
print g.greet(); // trailing comment
`

	tests := []struct {
		kind token.Kind
		lit  string
	}{
		{token.Class, "class"},
		{token.Identifier, "Greeter"},
		{token.LBrace, "{"},
		{token.Identifier, "init"},
		{token.LParen, "("},
		{token.Identifier, "name"},
		{token.RParen, ")"},
		{token.LBrace, "{"},
		{token.This, "this"},
		{token.Dot, "."},
		{token.Identifier, "name"},
		{token.Assign, "="},
		{token.Identifier, "name"},
		{token.Semicolon, ";"},
		{token.RBrace, "}"},
		{token.Identifier, "greet"},
		{token.LParen, "("},
		{token.RParen, ")"},
		{token.LBrace, "{"},
		{token.Return, "return"},
		{token.String, "hi, "},
		{token.Plus, "+"},
		{token.This, "this"},
		{token.Dot, "."},
		{token.Identifier, "name"},
		{token.Semicolon, ";"},
		{token.RBrace, "}"},
		{token.RBrace, "}"},
		{token.Var, "var"},
		{token.Identifier, "g"},
		{token.Assign, "="},
		{token.Identifier, "Greeter"},
		{token.LParen, "("},
		{token.String, "world"},
		{token.RParen, ")"},
		{token.Semicolon, ";"},
		{token.Print, "print"},
		{token.Identifier, "g"},
		{token.Dot, "."},
		{token.Identifier, "greet"},
		{token.LParen, "("},
		{token.RParen, ")"},
		{token.Semicolon, ";"},
		{token.EOF, ""},
	}

	l := lexer.New(input)
	for i, tt := range tests {
		got := l.NextToken()
		if got.Kind != tt.kind {
			t.Fatalf("token %d: kind = %s, want %s (lexeme %q)", i, got.Kind, tt.kind, got.Lexeme)
		}
		if got.Lexeme != tt.lit {
			t.Fatalf("token %d: lexeme = %q, want %q", i, got.Lexeme, tt.lit)
		}
	}
}

func TestNextToken_NumbersAndOperators(t *testing.T) {
	input := `1 2.5 10 == != <= >= < > ! = + - * /`

	kinds := []token.Kind{
		token.Number, token.Number, token.Number,
		token.Eq, token.BangEq, token.LtEq, token.GtEq, token.Lt, token.Gt,
		token.Bang, token.Assign, token.Plus, token.Minus, token.Star, token.Slash,
		token.EOF,
	}

	l := lexer.New(input)
	for i, want := range kinds {
		got := l.NextToken()
		if got.Kind != want {
			t.Fatalf("token %d: kind = %s, want %s", i, got.Kind, want)
		}
	}
}

func TestNextToken_UnterminatedString(t *testing.T) {
	l := lexer.New(`"unterminated`)
	got := l.NextToken()
	if got.Kind != token.Illegal {
		t.Fatalf("kind = %s, want Illegal", got.Kind)
	}
}

func TestNextToken_LineTracking(t *testing.T) {
	l := lexer.New("var a = 1;\nvar b = 2;\n")
	var lastLine int
	for {
		tok := l.NextToken()
		if tok.Kind == token.EOF {
			lastLine = tok.Line
			break
		}
	}
	if lastLine != 3 {
		t.Fatalf("EOF line = %d, want 3", lastLine)
	}
}
