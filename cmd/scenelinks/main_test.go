package main

import (
	"reflect"
	"testing"
)

func TestRewriteItemShortcut(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{
			name: "no args",
			in:   []string{"scenelinks"},
			want: []string{"scenelinks"},
		},
		{
			name: "item id first",
			in:   []string{"scenelinks", "item-abc123"},
			want: []string{"scenelinks", "items", "show", "item-abc123"},
		},
		{
			name: "item id after value flag",
			in:   []string{"scenelinks", "--room", "crypt", "item-abc123"},
			want: []string{"scenelinks", "--room", "crypt", "items", "show", "item-abc123"},
		},
		{
			name: "item id after equals flag",
			in:   []string{"scenelinks", "--dir=./room", "item-abc123"},
			want: []string{"scenelinks", "--dir=./room", "items", "show", "item-abc123"},
		},
		{
			name: "item id after bool flag",
			in:   []string{"scenelinks", "--pretty", "item-abc123"},
			want: []string{"scenelinks", "--pretty", "items", "show", "item-abc123"},
		},
		{
			name: "item id after double dash",
			in:   []string{"scenelinks", "--player", "player-1", "--", "item-abc123"},
			want: []string{"scenelinks", "--player", "player-1", "--", "items", "show", "item-abc123"},
		},
		{
			name: "value flag does not swallow following id",
			in:   []string{"scenelinks", "--format", "yaml", "links", "toggle", "item-abc123"},
			want: []string{"scenelinks", "--format", "yaml", "links", "toggle", "item-abc123"},
		},
		{
			name: "bare prefix is not an id",
			in:   []string{"scenelinks", "item-"},
			want: []string{"scenelinks", "item-"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := rewriteItemShortcut(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("rewriteItemShortcut:\n got: %#v\nwant: %#v", got, tt.want)
			}
		})
	}
}
