package main

import (
	"testing"
)

func TestParseModes(t *testing.T) {
	tests := []struct {
		spec    string
		wantIDs []int
		wantErr bool
	}{
		{"all", []int{1, 2, 3, 4}, false},
		{"ALL", []int{1, 2, 3, 4}, false},
		{"", []int{1, 2, 3, 4}, false},
		{"2", []int{2}, false},
		{"1,3", []int{1, 3}, false},
		{" 4 , 1 ", []int{4, 1}, false},
		{"1,1,2", []int{1, 2}, false},
		{"5", nil, true},
		{"0", nil, true},
		{"x", nil, true},
		{"1,,2", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			modes, err := parseModes(tt.spec)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("parseModes(%q): expected error", tt.spec)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseModes(%q): %v", tt.spec, err)
			}
			if len(modes) != len(tt.wantIDs) {
				t.Fatalf("parseModes(%q) = %v, want ids %v", tt.spec, modes, tt.wantIDs)
			}
			for i, m := range modes {
				if m.ID != tt.wantIDs[i] {
					t.Errorf("parseModes(%q)[%d] = %d, want %d", tt.spec, i, m.ID, tt.wantIDs[i])
				}
			}
		})
	}
}
