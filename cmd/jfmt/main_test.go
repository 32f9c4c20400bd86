// Copyright (C) 2024 Michael J. Fromberger. All Rights Reserved.

package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/creachadair/jevent"
	"github.com/google/go-cmp/cmp"
)

func runJfmt(t *testing.T, input string, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCommand(strings.NewReader(input), &stdout, &stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestReformat(t *testing.T) {
	const input = `{"a": [1, 2], "b": "c"}`
	tests := []struct {
		name string
		args []string
		env  map[string]string
		want string
	}{
		{"Default", nil, nil, "{\n  \"a\": [\n    1,\n    2\n  ],\n  \"b\": \"c\"\n}\n"},
		{"Minimize", []string{"-m"}, nil, `{"a":[1,2],"b":"c"}` + "\n"},
		{"Indent", []string{"--indent", "\t"}, nil, "{\n\t\"a\": [\n\t\t1,\n\t\t2\n\t],\n\t\"b\": \"c\"\n}\n"},
		{"EnvMinimize", nil, map[string]string{"JFMT_MINIMIZE": "true"}, `{"a":[1,2],"b":"c"}` + "\n"},
		{"EnvIndent", nil, map[string]string{"JFMT_INDENT": "\t"}, "{\n\t\"a\": [\n\t\t1,\n\t\t2\n\t],\n\t\"b\": \"c\"\n}\n"},
		{"FlagOverridesEnv", []string{"--minimize=false"}, map[string]string{"JFMT_MINIMIZE": "true"},
			"{\n  \"a\": [\n    1,\n    2\n  ],\n  \"b\": \"c\"\n}\n"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			for k, v := range test.env {
				t.Setenv(k, v)
			}
			stdout, stderr, err := runJfmt(t, input, test.args...)
			if err != nil {
				t.Fatalf("jfmt failed: %v\nstderr: %s", err, stderr)
			}
			if diff := cmp.Diff(test.want, stdout); diff != "" {
				t.Errorf("Output: (-want, +got)\n%s", diff)
			}
		})
	}
}

func TestReformatOptions(t *testing.T) {
	t.Run("Multiple", func(t *testing.T) {
		stdout, _, err := runJfmt(t, "1 [2] {}", "-m", "--multiple")
		if err != nil {
			t.Fatalf("jfmt failed: %v", err)
		}
		if want := "1\n[2]\n{}\n"; stdout != want {
			t.Errorf("Output: got %q, want %q", stdout, want)
		}
	})

	t.Run("Comments", func(t *testing.T) {
		const input = "[1, /* two */ 2] // done\n"
		if _, _, err := runJfmt(t, input); !errors.Is(err, jevent.LexCommentNotAllowed) {
			t.Errorf("Without -c: got %v, want %v", err, jevent.LexCommentNotAllowed)
		}
		stdout, _, err := runJfmt(t, input, "-c", "-m")
		if err != nil {
			t.Fatalf("jfmt -c failed: %v", err)
		}
		if want := "[1,2]\n"; stdout != want {
			t.Errorf("Output: got %q, want %q", stdout, want)
		}
	})

	t.Run("CheckUTF8", func(t *testing.T) {
		const input = "\"\xff\""
		if _, _, err := runJfmt(t, input, "-m"); err != nil {
			t.Errorf("Without -u: unexpected error: %v", err)
		}
		if _, _, err := runJfmt(t, input, "-u"); !errors.Is(err, jevent.LexInvalidUTF8) {
			t.Errorf("With -u: got %v, want %v", err, jevent.LexInvalidUTF8)
		}
	})

	t.Run("MaxBytes", func(t *testing.T) {
		if _, _, err := runJfmt(t, "[1, 2]", "--max-bytes", "4B"); !errors.Is(err, jevent.ErrTooLarge) {
			t.Errorf("Small limit: got %v, want %v", err, jevent.ErrTooLarge)
		}
		t.Setenv("JFMT_MAX_BYTES", "1KiB")
		if _, _, err := runJfmt(t, "[1, 2]"); err != nil {
			t.Errorf("Large limit: unexpected error: %v", err)
		}
		if _, _, err := runJfmt(t, "[1, 2]", "--max-bytes", "lots"); err == nil {
			t.Error("Invalid limit: got nil, want error")
		}
	})

	t.Run("File", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "input.json")
		if err := os.WriteFile(path, []byte(`{"x": true}`), 0600); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
		stdout, _, err := runJfmt(t, "", "-m", path)
		if err != nil {
			t.Fatalf("jfmt failed: %v", err)
		}
		if want := `{"x":true}` + "\n"; stdout != want {
			t.Errorf("Output: got %q, want %q", stdout, want)
		}

		_, stderr, err := runJfmt(t, "", filepath.Join(t.TempDir(), "missing.json"))
		if !errors.Is(err, os.ErrNotExist) {
			t.Errorf("Missing file: got %v, want %v", err, os.ErrNotExist)
		}
		if !strings.Contains(stderr, "level=error") {
			t.Errorf("Missing file: no error logged: %q", stderr)
		}
	})

	t.Run("Verbose", func(t *testing.T) {
		_, stderr, err := runJfmt(t, "[1]", "-v")
		if err != nil {
			t.Fatalf("jfmt failed: %v", err)
		}
		if !strings.Contains(stderr, `msg="reformat complete"`) {
			t.Errorf("Debug log missing: %q", stderr)
		}
		_, stderr, _ = runJfmt(t, "[1]")
		if stderr != "" {
			t.Errorf("Unexpected log output: %q", stderr)
		}
	})
}

func TestVerify(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		stdout, _, err := runJfmt(t, `{"ok": [true]}`, "verify")
		if err != nil {
			t.Fatalf("verify failed: %v", err)
		}
		if want := "JSON is valid\n"; stdout != want {
			t.Errorf("Output: got %q, want %q", stdout, want)
		}
	})

	t.Run("Invalid", func(t *testing.T) {
		stdout, stderr, err := runJfmt(t, `{"a" 1}`, "verify")
		var serr *jevent.SyntaxError
		if !errors.As(err, &serr) {
			t.Fatalf("verify: got %v, want *SyntaxError", err)
		}
		const want = `parse error: object key and value must be separated by a colon (':')
                                   {"a" 1}
                     (right here) ------^
`
		if diff := cmp.Diff(want, stdout); diff != "" {
			t.Errorf("Output: (-want, +got)\n%s", diff)
		}
		if !strings.Contains(stderr, `msg="JSON is invalid"`) {
			t.Errorf("Error log missing: %q", stderr)
		}
	})

	t.Run("InvalidAtEnd", func(t *testing.T) {
		stdout, _, err := runJfmt(t, "tru", "verify")
		if !errors.Is(err, jevent.LexInvalidString) {
			t.Fatalf("verify: got %v, want %v", err, jevent.LexInvalidString)
		}
		want := "lexical error: invalid string in json text.\n" +
			strings.Repeat(" ", 37) + "tru\n" +
			"                     (right here) ------^\n"
		if diff := cmp.Diff(want, stdout); diff != "" {
			t.Errorf("Output: (-want, +got)\n%s", diff)
		}
	})

	t.Run("Trailing", func(t *testing.T) {
		if _, _, err := runJfmt(t, "1 2", "verify"); !errors.Is(err, jevent.ErrTrailingGarbage) {
			t.Errorf("verify: got %v, want %v", err, jevent.ErrTrailingGarbage)
		}
		if _, _, err := runJfmt(t, "1 2", "verify", "--multiple"); err != nil {
			t.Errorf("verify --multiple: unexpected error: %v", err)
		}
	})
}
