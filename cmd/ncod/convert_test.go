package main

import (
	"reflect"
	"testing"
)

func TestSplitProducts(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "single product",
			input: "S1A_PRODUCT",
			want:  []string{"S1A_PRODUCT"},
		},
		{
			name:  "comma separated",
			input: "S1A_ONE,S2B_TWO",
			want:  []string{"S1A_ONE", "S2B_TWO"},
		},
		{
			name:  "whitespace trimmed",
			input: " S1A_ONE , S2B_TWO ",
			want:  []string{"S1A_ONE", "S2B_TWO"},
		},
		{
			name:  "empty entries dropped",
			input: "S1A_ONE,,S2B_TWO,",
			want:  []string{"S1A_ONE", "S2B_TWO"},
		},
		{
			name:  "only separators",
			input: " , ,",
			want:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := splitProducts(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("splitProducts(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestConvertCommandFlags(t *testing.T) {
	if convertCmd.Flags().Lookup("products") == nil {
		t.Error("convert --products flag is not registered")
	}
	if convertCmd.Flags().Lookup("email") == nil {
		t.Error("convert --email flag is not registered")
	}
}
