package command

import (
	"fmt"
	"sort"
	"strings"
)

// KeyMap resolves key strings (as bubbletea renders them: "n", "ctrl+n",
// "down") and line-mode aliases to command names.
type KeyMap struct {
	keys  map[string]string   // key -> command
	order map[string][]string // command -> keys, in binding order
}

// NewKeyMap returns an empty key map.
func NewKeyMap() *KeyMap {
	return &KeyMap{
		keys:  make(map[string]string),
		order: make(map[string][]string),
	}
}

// Bind attaches keys to name. A key bound to another command moves to name.
func (k *KeyMap) Bind(name string, keys ...string) {
	for _, key := range keys {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		if prev, ok := k.keys[key]; ok {
			k.order[prev] = without(k.order[prev], key)
		}
		k.keys[key] = name
		k.order[name] = append(without(k.order[name], key), key)
	}
}

// Rebind replaces every key of name with keys.
func (k *KeyMap) Rebind(name string, keys ...string) {
	for _, key := range k.order[name] {
		delete(k.keys, key)
	}
	delete(k.order, name)
	k.Bind(name, keys...)
}

// Lookup returns the command bound to key.
func (k *KeyMap) Lookup(key string) (string, bool) {
	name, ok := k.keys[key]
	return name, ok
}

// Keys returns the keys bound to name.
func (k *KeyMap) Keys(name string) []string {
	return append([]string(nil), k.order[name]...)
}

// Commands returns every command that has at least one key, sorted.
func (k *KeyMap) Commands() []string {
	names := make([]string, 0, len(k.order))
	for name, keys := range k.order {
		if len(keys) > 0 {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Resolve maps an input token to a command name: a bound key, or a command
// name typed in full.
func (k *KeyMap) Resolve(token string, known func(string) bool) (string, error) {
	token = strings.TrimSpace(token)
	if name, ok := k.keys[token]; ok {
		return name, nil
	}
	if known != nil && known(token) {
		return token, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCommand, token)
}

func without(keys []string, key string) []string {
	out := keys[:0:0]
	for _, k := range keys {
		if k != key {
			out = append(out, k)
		}
	}
	return out
}
