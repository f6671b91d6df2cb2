package engine

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/chazu/meshbridge/pkg/bridge"
	"github.com/chazu/meshbridge/pkg/liveness"
)

func TestEvaluateEmptyString(t *testing.T) {
	eng := NewEngine()

	for _, src := range []string{"", "   \n\t  \n  "} {
		res, evalErrs, err := eng.Evaluate(src)
		if err != nil {
			t.Fatalf("unexpected fatal error: %v", err)
		}
		if len(evalErrs) > 0 {
			t.Fatalf("unexpected eval errors: %v", evalErrs)
		}
		if res == nil {
			t.Fatal("expected non-nil result")
		}
		if res.Value != "" || len(res.Leaked) != 0 {
			t.Errorf("expected empty result, got %+v", res)
		}
	}
}

func TestEvaluateValidExpression(t *testing.T) {
	eng := NewEngine()

	res, evalErrs, err := eng.Evaluate("(+ 1 2)")
	if err != nil {
		t.Fatalf("unexpected fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("unexpected eval errors: %v", evalErrs)
	}
	if res.Value != "3" {
		t.Errorf("value = %q, want 3", res.Value)
	}
}

func TestEvaluateMyAdd(t *testing.T) {
	eng := NewEngine()

	tests := []struct {
		source string
		want   string
	}{
		{"(my-add 2 3)", "5"},
		{"(my-add -7 7)", "0"},
		{"(my-add 2147483647 1)", "-2147483648"},
	}
	for _, tt := range tests {
		res, evalErrs, err := eng.Evaluate(tt.source)
		if err != nil || len(evalErrs) > 0 {
			t.Fatalf("%s: %v %v", tt.source, err, evalErrs)
		}
		if res.Value != tt.want {
			t.Errorf("%s = %q, want %q", tt.source, res.Value, tt.want)
		}
	}
}

func TestEvaluatePointRoundTrip(t *testing.T) {
	eng := NewEngine()

	source := `
; construct, read back, free
(def p (construct-point3 1.5 -2.25 0))
(def ok (and (== (point3-get-x p) 1.5)
             (== (point3-get-y p) -2.25)
             (== (point3-get-z p) 0.0)))
(point3-free p)
ok
`
	res, evalErrs, err := eng.Evaluate(source)
	if err != nil {
		t.Fatalf("unexpected fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("unexpected eval errors: %v", evalErrs)
	}
	if res.Value != "true" {
		t.Errorf("value = %q, want true", res.Value)
	}
	if len(res.Leaked) != 0 {
		t.Errorf("unexpected leaks: %v", res.Leaked)
	}
}

func TestEvaluateCubeCounts(t *testing.T) {
	eng := NewEngine()

	source := `
(def m (create-cube 2.0))
(def n (+ (* 1000 (get-vertex-count m)) (get-face-count m)))
(free-polygon-mesh m)
n
`
	res, evalErrs, err := eng.Evaluate(source)
	if err != nil {
		t.Fatalf("unexpected fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("unexpected eval errors: %v", evalErrs)
	}
	if res.Value != "24012" {
		t.Errorf("value = %q, want 24012", res.Value)
	}
}

func TestEvaluateBuffersOutliveMesh(t *testing.T) {
	eng := NewEngine()

	source := `
(def m (create-cube 1.0))
(def v (get-vertices m))
(def f (get-faces m))
(free-polygon-mesh m)
(def z (vertex-at v 71))
(def i (index-at f 35))
(free-vertices v)
(free-faces f)
(and (>= z 0.0) (<= z 1.0) (>= i 0) (< i 24) (== (live-handles) 0))
`
	res, evalErrs, err := eng.Evaluate(source)
	if err != nil {
		t.Fatalf("unexpected fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("unexpected eval errors: %v", evalErrs)
	}
	if res.Value != "true" {
		t.Errorf("value = %q, want true", res.Value)
	}
	if len(res.Leaked) != 0 {
		t.Errorf("unexpected leaks: %v", res.Leaked)
	}
}

func TestEvaluateNullHandles(t *testing.T) {
	eng := NewEngine()

	source := `
(point3-free 0)
(free-polygon-mesh 0)
(free-vertices 0)
(free-faces 0)
(+ (get-vertex-count 0) (get-face-count 0) (get-vertices 0) (get-faces 0))
`
	res, evalErrs, err := eng.Evaluate(source)
	if err != nil {
		t.Fatalf("unexpected fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("unexpected eval errors: %v", evalErrs)
	}
	if res.Value != "0" {
		t.Errorf("value = %q, want 0", res.Value)
	}
}

func TestEvaluateReportsLeaks(t *testing.T) {
	eng := NewEngine()

	source := `
(def m (create-cube 1.0))
(def v (get-vertices m))
(construct-point3 1 2 3)
(free-vertices v)
`
	res, evalErrs, err := eng.Evaluate(source)
	if err != nil {
		t.Fatalf("unexpected fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("unexpected eval errors: %v", evalErrs)
	}
	if len(res.Leaked) != 2 {
		t.Fatalf("expected 2 leaks, got %v", res.Leaked)
	}
	kinds := map[liveness.Kind]bool{}
	for _, l := range res.Leaked {
		kinds[l.Kind] = true
	}
	if !kinds[liveness.KindMesh] || !kinds[liveness.KindPoint3] {
		t.Errorf("expected a mesh and a point3 leak, got %v", res.Leaked)
	}
}

func TestEvaluateMisuseIsEvalError(t *testing.T) {
	tests := []struct {
		name    string
		source  string
		wantMsg string
	}{
		{
			name:    "double free",
			source:  "(def p (construct-point3 1 2 3)) (point3-free p) (point3-free p)",
			wantMsg: "not live",
		},
		{
			name:    "use after free",
			source:  "(def m (create-cube 1.0)) (free-polygon-mesh m) (get-vertex-count m)",
			wantMsg: "not live",
		},
		{
			name:    "wrong free function",
			source:  "(def m (create-cube 1.0)) (def v (get-vertices m)) (free-faces v)",
			wantMsg: "not a faces",
		},
		{
			name:    "unknown handle",
			source:  "(point3-get-x 4096)",
			wantMsg: "not live",
		},
		{
			name:    "index out of range",
			source:  "(def m (create-cube 1.0)) (def f (get-faces m)) (index-at f 36)",
			wantMsg: "out of range",
		},
		{
			name:    "null buffer element",
			source:  "(vertex-at 0 0)",
			wantMsg: "null positions buffer",
		},
		{
			name:    "wrong arity",
			source:  "(construct-point3 1 2)",
			wantMsg: "requires 3 argument(s)",
		},
		{
			name:    "negative handle",
			source:  "(point3-free -1)",
			wantMsg: "must not be negative",
		},
	}

	eng := NewEngine()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, evalErrs, err := eng.Evaluate(tt.source)
			if err != nil {
				t.Fatalf("expected non-fatal eval error, got fatal: %v", err)
			}
			if res != nil {
				t.Fatal("expected nil result on eval error")
			}
			if len(evalErrs) == 0 {
				t.Fatal("expected at least one eval error")
			}
			if !strings.Contains(evalErrs[0].Message, tt.wantMsg) {
				t.Errorf("message = %q, want containing %q", evalErrs[0].Message, tt.wantMsg)
			}
		})
	}
}

func TestEvaluateFailureFreesHandles(t *testing.T) {
	reg, err := bridge.EnableLivenessCheck()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(bridge.DisableLivenessCheck)

	eng := NewEngine()
	source := `
(def m (create-cube 1.0))
(def v (get-vertices m))
(def p (construct-point3 1 2 3))
(undefined-function p)
`
	_, evalErrs, err := eng.Evaluate(source)
	if err != nil {
		t.Fatalf("unexpected fatal error: %v", err)
	}
	if len(evalErrs) == 0 {
		t.Fatal("expected an eval error")
	}
	if n := len(reg.Entries()); n != 0 {
		t.Errorf("expected no live handles after failed script, got %d", n)
	}
}

func TestEvaluateSyntaxError(t *testing.T) {
	eng := NewEngine()

	// Unmatched paren is a parse error.
	res, evalErrs, err := eng.Evaluate("(+ 1 2")
	if err != nil {
		t.Fatalf("expected non-fatal eval error, got fatal: %v", err)
	}
	if res != nil {
		t.Fatal("expected nil result on syntax error")
	}
	if len(evalErrs) == 0 {
		t.Fatal("expected at least one eval error for syntax error")
	}
	if evalErrs[0].Message == "" {
		t.Error("eval error message should not be empty")
	}
}

func TestEvalErrorImplementsError(t *testing.T) {
	e := EvalError{Line: 5, Col: 0, Message: "something went wrong"}
	s := e.Error()
	if !strings.Contains(s, "line 5") {
		t.Errorf("Error() should contain line info, got: %s", s)
	}
	if !strings.Contains(s, "something went wrong") {
		t.Errorf("Error() should contain message, got: %s", s)
	}

	e2 := EvalError{Message: "no location"}
	if strings.Contains(e2.Error(), "line") {
		t.Errorf("Error() with no line should not contain 'line', got: %s", e2.Error())
	}
}

func TestEvaluateTimeout(t *testing.T) {
	// Exercise the timeout plumbing directly with a channel that never sends.
	var mu sync.Mutex
	var gen uint64 = 1
	ch := make(chan evalResult)

	done := make(chan struct{})
	var resultErr error
	go func() {
		defer close(done)
		_, _, resultErr = waitWithTimeout(ch, 1, &mu, &gen)
	}()

	select {
	case <-done:
		if resultErr == nil {
			t.Fatal("expected timeout error, got nil")
		}
		if !strings.Contains(resultErr.Error(), "timed out") {
			t.Errorf("expected timeout error message, got: %v", resultErr)
		}
	case <-time.After(EvalTimeout + 2*time.Second):
		t.Fatal("test itself timed out waiting for evaluation timeout")
	}
}

func TestEvaluateGenerationDiscardsStale(t *testing.T) {
	var mu sync.Mutex
	gen := uint64(2)

	ch := make(chan evalResult, 1)
	ch <- evalResult{}

	_, _, err := waitWithTimeout(ch, 1, &mu, &gen)
	if err != ErrSuperseded {
		t.Fatalf("expected ErrSuperseded, got %v", err)
	}
}

func TestParseZygomysError(t *testing.T) {
	tests := []struct {
		name     string
		msg      string
		wantLine int
		wantMsg  string
	}{
		{
			name:     "error on line format",
			msg:      "Error on line 5: unexpected token\n",
			wantLine: 5,
			wantMsg:  "unexpected token",
		},
		{
			name:     "no line info",
			msg:      "some generic error",
			wantLine: 0,
			wantMsg:  "some generic error",
		},
		{
			name:     "line format lowercase",
			msg:      "error on line 12: missing paren",
			wantLine: 12,
			wantMsg:  "missing paren",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := parseZygomysError(errString(tt.msg))
			if len(errs) == 0 {
				t.Fatal("expected at least one error")
			}
			e := errs[0]
			if e.Line != tt.wantLine {
				t.Errorf("line = %d, want %d", e.Line, tt.wantLine)
			}
			if !strings.Contains(e.Message, tt.wantMsg) {
				t.Errorf("message = %q, want containing %q", e.Message, tt.wantMsg)
			}
		})
	}
}

// errString is a simple error type for testing.
type errString string

func (e errString) Error() string { return string(e) }
