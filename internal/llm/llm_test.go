package llm

import (
	"reflect"
	"testing"
)

func TestStripFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain json", `{"a":1}`, `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"surrounding whitespace", "  {\"a\":1}\n", `{"a":1}`},
		{"fence with whitespace", "```json\n  {\"a\":1}  \n```  ", `{"a":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stripFences(tt.in); got != tt.want {
				t.Errorf("stripFences(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCleanTopics(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{"trims and drops empties", []string{" Goroutines ", "", "  ", "Channels"}, []string{"Goroutines", "Channels"}},
		{"nil stays empty", nil, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cleanTopics(tt.in); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("cleanTopics(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}

	t.Run("caps at twenty", func(t *testing.T) {
		var long []string
		for i := 0; i < 30; i++ {
			long = append(long, "topic")
		}
		if got := cleanTopics(long); len(got) != 20 {
			t.Errorf("expected 20 topics, got %d", len(got))
		}
	})
}
