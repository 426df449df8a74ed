package main

// Regenerate testdata/*.golden fixtures (tools/genfixtures) after editing
// any testdata/*.c program:
//go:generate go run ./tools/genfixtures testdata/fact.c testdata/hello.c testdata/sum_array.c

import (
	"bytes"
	"context"
	"os"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// compileAndRun compiles src, runs it to completion, and returns its exit
// code and anything it printed via printf.
func compileAndRun(t *testing.T, src string) (exitCode int, stdout string) {
	t.Helper()
	prog, err := CompileSource("test.c", strings.NewReader(src))
	require.NoError(t, err)

	var out bytes.Buffer
	sc := NewHostSyscalls(prog.Data.Memory(), &out)
	err = Run(context.Background(), prog, []string{"test.c"}, WithSyscalls(sc))
	require.True(t, isCleanHaltOrNil(err), "unexpected run error: %+v", err)
	return ExitCode(err), out.String()
}

func isCleanHaltOrNil(err error) bool {
	if err == nil {
		return true
	}
	_, ok := err.(haltError)
	return ok
}

func TestScenarioS1EmptyMain(t *testing.T) {
	code, _ := compileAndRun(t, `int main(){ return 0; }`)
	assert.Equal(t, 0, code)
}

func TestScenarioS2Arithmetic(t *testing.T) {
	code, _ := compileAndRun(t, `int main(){ return 2*3 + 4; }`)
	assert.Equal(t, 10, code)
}

func TestScenarioS3ControlFlow(t *testing.T) {
	code, _ := compileAndRun(t, `int main(){ int i,s; s=0; i=1; while(i<=4){s=s+i; i=i+1;} return s; }`)
	assert.Equal(t, 10, code)
}

func TestScenarioS4PointerArithmetic(t *testing.T) {
	code, _ := compileAndRun(t, `int main(){ int *a; a=malloc(12); a[0]=10; a[2]=30; return a[0]+a[2]; }`)
	assert.Equal(t, 40, code)
}

func TestScenarioS5StringAndSyscall(t *testing.T) {
	code, out := compileAndRun(t, `int main(){ printf("hi\n"); return 0; }`)
	assert.Equal(t, 0, code)
	assert.Equal(t, "hi\n", out)
}

func TestScenarioS6EnumAndConditional(t *testing.T) {
	code, _ := compileAndRun(t, `enum { A=5, B, C }; int main(){ return B<C ? A+B : 0; }`)
	assert.Equal(t, 11, code)
}

func TestFunctionCallAndRecursion(t *testing.T) {
	code, _ := compileAndRun(t, `
int fact(int n) {
	if (n <= 1) return 1;
	return n * fact(n - 1);
}
int main() { return fact(5); }
`)
	assert.Equal(t, 120, code)
}

func TestCharPointerStride(t *testing.T) {
	code, _ := compileAndRun(t, `
int main() {
	char *s;
	s = "abcd";
	return s[2];
}
`)
	assert.Equal(t, int('c'), code)
}

func TestIntPointerStrideScalesByWordSize(t *testing.T) {
	code, _ := compileAndRun(t, `
int main() {
	int *p;
	int *q;
	p = malloc(3 * sizeof(int));
	p[0] = 1; p[1] = 2;
	q = p + 1;
	return *q;
}
`)
	assert.Equal(t, 2, code)
}

func TestUnaryAndBitwiseOperators(t *testing.T) {
	code, _ := compileAndRun(t, `int main(){ return (~0) & 0xff; }`)
	assert.Equal(t, 0xff, code)
}

func TestLogicalShortCircuit(t *testing.T) {
	code, _ := compileAndRun(t, `
int count;
int bump() { count = count + 1; return 1; }
int main() {
	count = 0;
	if (0 && bump()) {}
	if (1 || bump()) {}
	return count;
}
`)
	assert.Equal(t, 0, code)
}

func TestAssignmentRequiresLvalue(t *testing.T) {
	_, err := CompileSource("test.c", strings.NewReader(`int main(){ 1 = 2; return 0; }`))
	require.Error(t, err)
}

func TestAddressOfRequiresLvalue(t *testing.T) {
	_, err := CompileSource("test.c", strings.NewReader(`int main(){ return &1; }`))
	require.Error(t, err)
}

func TestMainUndefinedIsDiagnosed(t *testing.T) {
	_, err := CompileSource("test.c", strings.NewReader(`int notMain() { return 0; }`))
	require.Error(t, err)
}

func TestShadowRestorationAfterFunctionBody(t *testing.T) {
	src := `
int g;
int f(int g) { return g; }
int main() { g = 7; return f(1) + g; }
`
	prog, err := CompileSource("test.c", strings.NewReader(src))
	require.NoError(t, err)

	h := prog.Table.Intern([]byte("g"), hashIdent([]byte("g")))
	sym := prog.Table.Get(h)
	assert.Equal(t, KindGlobal, sym.Kind)
	assert.Equal(t, Type{Base: INT}, sym.Type)
}

func TestPreAndPostIncrementDecrement(t *testing.T) {
	code, _ := compileAndRun(t, `
int main() {
	int x;
	x = 5;
	x++;
	++x;
	x--;
	return x;
}
`)
	assert.Equal(t, 6, code)
}

// TestTestdataPrograms compiles and runs the standalone programs under
// testdata/ against their committed tools/genfixtures golden fixtures: the
// exit code on the first line, stdout verbatim after (genfixtures' own
// format, regenerated via the go:generate directive above whenever a
// testdata/*.c program changes).
func TestTestdataPrograms(t *testing.T) {
	files := []string{"testdata/fact.c", "testdata/hello.c", "testdata/sum_array.c"}
	for _, file := range files {
		t.Run(file, func(t *testing.T) {
			src, err := os.ReadFile(file)
			require.NoError(t, err)
			wantCode, wantStdout := readGolden(t, strings.TrimSuffix(file, ".c")+".golden")

			code, out := compileAndRun(t, string(src))
			assert.Equal(t, wantCode, code)
			assert.Equal(t, wantStdout, out)
		})
	}
}

// readGolden parses a genfixtures golden file: the exit code on its first
// line, stdout verbatim after.
func readGolden(t *testing.T, path string) (exitCode int, stdout string) {
	t.Helper()
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	nl := bytes.IndexByte(raw, '\n')
	require.GreaterOrEqual(t, nl, 0, "golden file missing exit-code line")
	code, err := strconv.Atoi(string(raw[:nl]))
	require.NoError(t, err)
	return code, string(raw[nl+1:])
}
