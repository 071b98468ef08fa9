package validation_test

import (
	"encoding/json"
	"testing"

	"github.com/km-arc/go-async-ioc/framework/http/validation"
)

// ── helpers ──────────────────────────────────────────────────────────────────

// pass asserts the validator passes for the given data/rules.
func pass(t *testing.T, label string, data map[string]string, rules validation.Rules) {
	t.Helper()
	t.Run(label, func(t *testing.T) {
		v := validation.Make(data, rules)
		if v.Fails() {
			t.Errorf("expected PASS, got FAIL; errors: %+v", v.Errors().Bag)
		}
	})
}

// fail asserts the validator fails with an error on the given field.
func fail(t *testing.T, label, field string, data map[string]string, rules validation.Rules) {
	t.Helper()
	t.Run(label, func(t *testing.T) {
		v := validation.Make(data, rules)
		if v.Passes() {
			t.Errorf("expected FAIL on field %q, but validator PASSED", field)
		}
		if v.Errors().First(field) == "" {
			t.Errorf("expected error on field %q, but none found. Errors: %+v", field, v.Errors().Bag)
		}
	})
}

// ── rules ────────────────────────────────────────────────────────────────────

func TestValidation_Required(t *testing.T) {
	r := validation.Rules{"name": "required"}
	pass(t, "present", map[string]string{"name": "toolbar"}, r)
	fail(t, "missing", "name", map[string]string{}, r)
	fail(t, "blank", "name", map[string]string{"name": "   "}, r)
}

func TestValidation_Required_MessageFormat(t *testing.T) {
	v := validation.Make(map[string]string{}, validation.Rules{"factory": "required"})
	v.Fails()
	if got := v.Errors().First("factory"); got != "The factory field is required." {
		t.Errorf("message: got %q", got)
	}
}

func TestValidation_Sometimes(t *testing.T) {
	r := validation.Rules{"scope": "sometimes|in:singleton,dependent"}
	pass(t, "absent", map[string]string{}, r)
	pass(t, "valid", map[string]string{"scope": "singleton"}, r)
	fail(t, "invalid", "scope", map[string]string{"scope": "session"}, r)
}

func TestValidation_MinMax(t *testing.T) {
	r := validation.Rules{"name": "min:2|max:4"}
	pass(t, "in range", map[string]string{"name": "abc"}, r)
	pass(t, "unicode counts runes", map[string]string{"name": "ééé"}, r)
	fail(t, "too short", "name", map[string]string{"name": "a"}, r)
	fail(t, "too long", "name", map[string]string{"name": "abcde"}, r)
}

func TestValidation_In(t *testing.T) {
	r := validation.Rules{"level": "in:debug, info,warn"}
	pass(t, "listed", map[string]string{"level": "info"}, r)
	fail(t, "unlisted", "level", map[string]string{"level": "trace"}, r)
}

func TestValidation_AlphaDash(t *testing.T) {
	r := validation.Rules{"name": "alpha_dash"}
	pass(t, "dashes and underscores", map[string]string{"name": "split-point_2"}, r)
	fail(t, "spaces", "name", map[string]string{"name": "split point"}, r)
}

func TestValidation_Regex(t *testing.T) {
	r := validation.Rules{"q": `regex:^@[A-Za-z]+$`}
	pass(t, "match", map[string]string{"q": "@Durable"}, r)
	fail(t, "no match", "q", map[string]string{"q": "Durable"}, r)
	fail(t, "bad pattern", "q", map[string]string{"q": "x"}, validation.Rules{"q": "regex:("})
}

func TestValidation_Boolean(t *testing.T) {
	r := validation.Rules{"deferred": "sometimes|boolean"}
	pass(t, "true", map[string]string{"deferred": "true"}, r)
	pass(t, "zero", map[string]string{"deferred": "0"}, r)
	fail(t, "word", "deferred", map[string]string{"deferred": "later"}, r)
}

func TestValidation_StopsOnFirstFailure(t *testing.T) {
	v := validation.Make(map[string]string{}, validation.Rules{"name": "required|min:3"})
	v.Fails()
	if n := len(v.Errors().Bag["name"]); n != 1 {
		t.Errorf("messages: got %d, want 1", n)
	}
}

// ── error bag ────────────────────────────────────────────────────────────────

func TestErrors_ErrorAndJSON(t *testing.T) {
	v := validation.Make(map[string]string{"scope": "x"}, validation.Rules{
		"scope": "in:singleton,dependent",
		"name":  "required",
	})
	if v.Passes() {
		t.Fatal("expected failure")
	}

	var err error = v.Errors()
	want := "validation failed: The name field is required. The selected scope is invalid."
	if err.Error() != want {
		t.Errorf("Error(): got %q, want %q", err.Error(), want)
	}

	b, _ := json.Marshal(v.Errors())
	var decoded map[string]map[string][]string
	if err := json.Unmarshal(b, &decoded); err != nil {
		t.Fatal(err)
	}
	if len(decoded["errors"]["scope"]) != 1 {
		t.Errorf("json: got %s", b)
	}
}
