package vm_test

import (
	"bytes"
	"strings"
	"testing"

	"ember/internal/compiler"
	"ember/internal/heap"
	"ember/internal/vm"
)

func run(t *testing.T, source string) (string, error) {
	t.Helper()
	h := heap.New()
	fn, errs := compiler.Compile(source, h)
	if errs != nil {
		t.Fatalf("compile error: %v", errs)
	}
	var out bytes.Buffer
	v := vm.New(h, &out)
	err := v.Run(fn)
	return out.String(), err
}

func TestArithmeticAndPrint(t *testing.T) {
	out, err := run(t, `print 1 + 2 * 3;`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(out) != "7" {
		t.Fatalf("output = %q, want 7", out)
	}
}

func TestStringConcatenation(t *testing.T) {
	out, err := run(t, `print "foo" + "bar";`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(out) != "foobar" {
		t.Fatalf("output = %q, want foobar", out)
	}
}

func TestClosureCapturesByReference(t *testing.T) {
	src := `
fun makeCounter() {
  var count = 0;
  fun inc() {
    count = count + 1;
    return count;
  }
  return inc;
}
var counter = makeCounter();
print counter();
print counter();
print counter();
`
	out, err := run(t, src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(out) != "1\n2\n3" {
		t.Fatalf("output = %q, want 1\\n2\\n3", out)
	}
}

func TestClassesAndInheritance(t *testing.T) {
	src := `
class Animal {
  init(name) {
    this.name = name;
  }
  speak() {
    return this.name + " makes a sound";
  }
}
class Dog < Animal {
  speak() {
    return super.speak() + " (bark)";
  }
}
var d = Dog("Rex");
print d.speak();
`
	out, err := run(t, src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(out) != "Rex makes a sound (bark)" {
		t.Fatalf("output = %q", out)
	}
}

func TestUndefinedVariableIsRuntimeError(t *testing.T) {
	_, err := run(t, `print nope;`)
	if err == nil {
		t.Fatal("expected a runtime error for an undefined global")
	}
}

func TestCallArityMismatchIsRuntimeError(t *testing.T) {
	_, err := run(t, `
fun f(a, b) { return a + b; }
f(1);
`)
	if err == nil {
		t.Fatal("expected a runtime error for an arity mismatch")
	}
}

func TestWhileAndForLoops(t *testing.T) {
	out, err := run(t, `
var i = 0;
while (i < 3) {
  print i;
  i = i + 1;
}
for (var j = 0; j < 2; j = j + 1) {
  print j * 10;
}
`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(out) != "0\n1\n2\n0\n10" {
		t.Fatalf("output = %q", out)
	}
}
