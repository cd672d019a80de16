package numbering

import "testing"

func TestNext(t *testing.T) {
	tests := []struct {
		name   string
		prefix string
		last   string
		want   string
	}{
		{"first incident", "INC", "", "INC000001"},
		{"first task", "TSK", "", "TSK000001"},
		{"increment", "INC", "INC000041", "INC000042"},
		{"keeps padding", "TSK", "TSK000009", "TSK000010"},
		{"padding growth", "TSK", "TSK999999", "TSK1000000"},
		{"wide numbers keep widening", "INC", "INC1000000", "INC1000001"},
		{"unparseable digits restart", "INC", "INCABC123", "INC000001"},
		{"wrong prefix restarts", "TSK", "INC000007", "TSK000001"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Next(tt.prefix, tt.last); got != tt.want {
				t.Errorf("Next(%q, %q) = %q, want %q", tt.prefix, tt.last, got, tt.want)
			}
		})
	}
}

func TestNextSequenceIsContiguous(t *testing.T) {
	last := ""
	for i := 1; i <= 10; i++ {
		next := Next("INC", last)
		want := Format("INC", uint64(i))
		if next != want {
			t.Fatalf("step %d: got %q, want %q", i, next, want)
		}
		last = next
	}
}
