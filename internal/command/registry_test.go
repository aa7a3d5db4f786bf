package command

import (
	"errors"
	"reflect"
	"testing"
)

func TestRegistryDispatch(t *testing.T) {
	r := NewRegistry()
	calls := 0
	d := r.Register("go-to-next-diagnostic", func() { calls++ })

	if err := r.Dispatch("go-to-next-diagnostic"); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}

	d.Dispose()
	err := r.Dispatch("go-to-next-diagnostic")
	if !errors.Is(err, ErrUnknownCommand) {
		t.Fatalf("expected ErrUnknownCommand after dispose, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("handler ran after dispose")
	}
}

func TestRegistryReplaceKeepsNewHandler(t *testing.T) {
	r := NewRegistry()
	var got []string
	old := r.Register("x", func() { got = append(got, "old") })
	r.Register("x", func() { got = append(got, "new") })

	old.Dispose()
	if err := r.Dispatch("x"); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if !reflect.DeepEqual(got, []string{"new"}) {
		t.Fatalf("stale disposable removed the new handler: %v", got)
	}
}

func TestRegistryNames(t *testing.T) {
	r := NewRegistry()
	r.Register("b", func() {})
	r.Register("a", func() {})
	r.Register("nil", nil)
	if got := r.Names(); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Fatalf("unexpected names: %v", got)
	}
	if !r.Has("a") || r.Has("nil") {
		t.Fatalf("unexpected Has results")
	}
}

func TestKeyMapBindAndRebind(t *testing.T) {
	k := NewKeyMap()
	k.Bind("next", "n", "j")
	k.Bind("previous", "p", "j")

	if name, _ := k.Lookup("j"); name != "previous" {
		t.Fatalf("j should move to previous, got %q", name)
	}
	if got := k.Keys("next"); !reflect.DeepEqual(got, []string{"n"}) {
		t.Fatalf("unexpected keys for next: %v", got)
	}

	k.Rebind("next", "ctrl+n")
	if _, ok := k.Lookup("n"); ok {
		t.Fatalf("n should be unbound after rebind")
	}
	if name, _ := k.Lookup("ctrl+n"); name != "next" {
		t.Fatalf("ctrl+n not bound")
	}
	if got := k.Commands(); !reflect.DeepEqual(got, []string{"next", "previous"}) {
		t.Fatalf("unexpected commands: %v", got)
	}
}

func TestKeyMapResolve(t *testing.T) {
	k := NewKeyMap()
	k.Bind("go-to-first-diagnostic", "g")
	known := func(name string) bool { return name == "go-to-last-diagnostic" }

	if name, err := k.Resolve(" g ", known); err != nil || name != "go-to-first-diagnostic" {
		t.Fatalf("resolve key: %q %v", name, err)
	}
	if name, err := k.Resolve("go-to-last-diagnostic", known); err != nil || name != "go-to-last-diagnostic" {
		t.Fatalf("resolve name: %q %v", name, err)
	}
	if _, err := k.Resolve("zzz", known); !errors.Is(err, ErrUnknownCommand) {
		t.Fatalf("expected ErrUnknownCommand, got %v", err)
	}
}
