package filter

import (
	"reflect"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		specs   []string
		want    *Filter
		wantErr bool
	}{
		{
			name:  "no specs",
			specs: nil,
			want:  NewFilter(),
		},
		{
			name:  "plain team",
			specs: []string{"Boston"},
			want:  &Filter{Teams: []string{"Boston"}, Away: []string{}, Home: []string{}},
		},
		{
			name:  "sides and comma list",
			specs: []string{"away:Boston, home: Lakers", "Denver"},
			want:  &Filter{Teams: []string{"Denver"}, Away: []string{"Boston"}, Home: []string{"Lakers"}},
		},
		{
			name:  "side prefix is case-insensitive",
			specs: []string{"HOME:Utah"},
			want:  &Filter{Teams: []string{}, Away: []string{}, Home: []string{"Utah"}},
		},
		{
			name:  "blank entries skipped",
			specs: []string{" , Boston ,"},
			want:  &Filter{Teams: []string{"Boston"}, Away: []string{}, Home: []string{}},
		},
		{
			name:    "unknown side",
			specs:   []string{"visitor:Boston"},
			wantErr: true,
		},
		{
			name:    "empty name",
			specs:   []string{"home:"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.specs)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Parse() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
