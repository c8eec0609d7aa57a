package ember_test

import (
	"bytes"
	"strings"
	"testing"

	"ember"
)

func interpret(t *testing.T, source string) (string, ember.Status) {
	t.Helper()
	var out bytes.Buffer
	status := ember.Interpret(source, &out)
	return out.String(), status
}

// Each program below must print exactly the given output and report
// StatusOK, covering one observable language behavior end to end.
func TestScenarios(t *testing.T) {
	cases := []struct {
		name   string
		source string
		want   string
	}{
		{
			name:   "arithmetic precedence",
			source: `print 1 + 2 * 3;`,
			want:   "7",
		},
		{
			name:   "string concatenation",
			source: `var a = "hi"; print a + a;`,
			want:   "hihi",
		},
		{
			name: "recursive fibonacci",
			source: `fun f(n){ if (n<=1) return n; return f(n-1)+f(n-2); } print f(10);`,
			want: "55",
		},
		{
			name: "closure captures enclosing local",
			source: `fun outer(){ var x="v"; fun inner(){ print x; } return inner; } outer()();`,
			want: "v",
		},
		{
			name: "super call chains to subclass method",
			source: `class A { m(){ return "A"; } } class B < A { m(){ return super.m()+"B"; } } print B().m();`,
			want: "AB",
		},
		{
			name: "initializer sets a field",
			source: `class P { init(n){ this.n=n; } } var p = P(7); print p.n;`,
			want: "7",
		},
		{
			name: "interned string equality survives GC pressure",
			source: `var s="a"; for (var i=0;i<10000;i=i+1) s = s + "a"; print s == s;`,
			want: "true",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out, status := interpret(t, tc.source)
			if status != ember.StatusOK {
				t.Fatalf("status = %v, want StatusOK; output so far: %q", status, out)
			}
			if got := strings.TrimSpace(out); got != tc.want {
				t.Fatalf("output = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestInterpret_DeterministicAcrossRepeatedRuns(t *testing.T) {
	source := `
class Counter {
  init() { this.n = 0; }
  next() { this.n = this.n + 1; return this.n; }
}
var c = Counter();
print c.next();
print c.next();
print c.next();
`
	first, status1 := interpret(t, source)
	second, status2 := interpret(t, source)
	if status1 != ember.StatusOK || status2 != ember.StatusOK {
		t.Fatalf("expected both runs to succeed: %v %v", status1, status2)
	}
	if first != second {
		t.Fatalf("repeated interpretation was not deterministic: %q != %q", first, second)
	}
}

func TestInterpret_CompileErrorStatus(t *testing.T) {
	_, status := interpret(t, `var ;`)
	if status != ember.StatusCompileError {
		t.Fatalf("status = %v, want StatusCompileError", status)
	}
}

func TestInterpret_RuntimeErrorStatus(t *testing.T) {
	_, status := interpret(t, `print 1 + "a";`)
	if status != ember.StatusRuntimeError {
		t.Fatalf("status = %v, want StatusRuntimeError", status)
	}
}

func TestInterpret_NativesAreRegisteredBeforeRun(t *testing.T) {
	out, status := interpret(t, `
print typeOf(1);
print typeOf("s");
print typeOf(nil);
print strUpper("abc");
print floor(3.7);
`)
	if status != ember.StatusOK {
		t.Fatalf("status = %v, want StatusOK; output: %q", status, out)
	}
	want := "number\nstring\nnil\nABC\n3"
	if strings.TrimSpace(out) != want {
		t.Fatalf("output = %q, want %q", strings.TrimSpace(out), want)
	}
}
