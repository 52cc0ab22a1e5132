package cli

import (
	"bytes"
	"strings"
	"testing"
)

func run(args ...string) (string, error) {
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestCommandTree(t *testing.T) {
	root := NewRootCmd()
	for _, name := range []string{
		"serve", "login", "logout", "status", "list", "show", "reviews", "review",
		"apply", "interests", "set-status", "enroll", "enrollments", "checkout", "version",
	} {
		if c, _, err := root.Find([]string{name}); err != nil || c.Name() != name {
			t.Errorf("command %q not registered", name)
		}
	}

	if f := root.PersistentFlags().Lookup("format"); f == nil || f.DefValue != "text" {
		t.Errorf("--format flag = %+v, want default text", f)
	}
	if root.PersistentFlags().Lookup("db") == nil {
		t.Error("--db flag missing")
	}
}

func TestVersion(t *testing.T) {
	out, err := run("version")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "uninest "+Version) {
		t.Errorf("version output = %q", out)
	}
}

func TestUnknownCommand(t *testing.T) {
	if _, err := run("frobnicate"); err == nil {
		t.Error("expected error for unknown command")
	}
}
