package bot

import (
	"testing"
)

func TestParsePostback(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		params  map[string]interface{}
		want    Postback
		wantErr bool
	}{
		{
			name: "action_only",
			data: "action=add_blood_sugar",
			want: Postback{Action: "add_blood_sugar"},
		},
		{
			name: "action_with_index",
			data: "action=edit_record&index=2",
			want: Postback{Action: "edit_record", Index: 2, HasIndex: true},
		},
		{
			name: "index_zero",
			data: "action=delete_record&index=0",
			want: Postback{Action: "delete_record", Index: 0, HasIndex: true},
		},
		{
			name:   "date_from_params",
			data:   "action=select_date",
			params: map[string]interface{}{"date": "2024-03-01"},
			want:   Postback{Action: "select_date", Date: "2024-03-01"},
		},
		{
			name:   "dismissed_picker_has_no_date",
			data:   "action=select_date",
			params: map[string]interface{}{},
			want:   Postback{Action: "select_date"},
		},
		{
			name:    "missing_action",
			data:    "index=3",
			wantErr: true,
		},
		{
			name:    "empty_data",
			data:    "",
			wantErr: true,
		},
		{
			name:    "negative_index",
			data:    "action=edit_record&index=-1",
			wantErr: true,
		},
		{
			name:    "non_numeric_index",
			data:    "action=edit_record&index=abc",
			wantErr: true,
		},
		{
			name:    "malformed_query",
			data:    "action=%zz",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePostback(tt.data, tt.params)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParsePostback(%q) = %+v, want error", tt.data, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParsePostback(%q): %v", tt.data, err)
			}
			if *got != tt.want {
				t.Errorf("ParsePostback(%q) = %+v, want %+v", tt.data, *got, tt.want)
			}
		})
	}
}
