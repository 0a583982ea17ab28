package medicine

import (
	"encoding/json"
	"testing"
)

func TestItems_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{name: "array", input: `[{"itemSeq":"1"},{"itemSeq":"2"}]`, want: []string{"1", "2"}},
		{name: "wrapped array", input: `{"item":[{"itemSeq":"1"}]}`, want: []string{"1"}},
		{name: "wrapped single", input: `{"item":{"itemSeq":"7"}}`, want: []string{"7"}},
		{name: "empty string", input: `""`, want: nil},
		{name: "null", input: `null`, want: nil},
		{name: "empty wrapper", input: `{}`, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var items Items[MedicineItem]
			if err := json.Unmarshal([]byte(tt.input), &items); err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}
			if len(items) != len(tt.want) {
				t.Fatalf("len = %d, want %d", len(items), len(tt.want))
			}
			for i, seq := range tt.want {
				if items[i].ItemSeq != seq {
					t.Errorf("items[%d].ItemSeq = %q, want %q", i, items[i].ItemSeq, seq)
				}
			}
		})
	}

	var items Items[MedicineItem]
	if err := json.Unmarshal([]byte(`42`), &items); err == nil {
		t.Error("Unmarshal() of a number should fail")
	}
}

func TestResponse_PageDefaults(t *testing.T) {
	var resp MedicineResponse
	if err := json.Unmarshal([]byte(`{"body":{"items":[]}}`), &resp); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	page := resp.Page()
	if page.PageNo != 1 || page.NumOfRows != 10 || page.TotalCount != 0 {
		t.Errorf("Page() = %+v, want defaults 1/10/0", page)
	}

	var nilResp *MedicineResponse
	if p := nilResp.Page(); p.TotalCount != 0 || p.PageNo != 1 {
		t.Errorf("nil Page() = %+v", p)
	}
}

func TestFlexInt_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		input string
		want  int
	}{
		{`25`, 25},
		{`"25"`, 25},
		{`" 7 "`, 7},
		{`"3.0"`, 3},
		{`""`, 0},
		{`"abc"`, 0},
	}

	for _, tt := range tests {
		var f FlexInt
		if err := json.Unmarshal([]byte(tt.input), &f); err != nil {
			t.Fatalf("Unmarshal(%s) error = %v", tt.input, err)
		}
		if int(f) != tt.want {
			t.Errorf("Unmarshal(%s) = %d, want %d", tt.input, f, tt.want)
		}
	}
}

func TestItems_MarshalEmptyAsArray(t *testing.T) {
	data, err := json.Marshal(Body[MedicineItem]{})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(data) != `{"items":[]}` {
		t.Errorf("Marshal() = %s", data)
	}
}

func TestMessage(t *testing.T) {
	if got := Message(ErrMedicineNotFound); got != MsgMedicineNotFound {
		t.Errorf("Message(ErrMedicineNotFound) = %q", got)
	}
	if got := Message(nil); got != MsgGeneric {
		t.Errorf("Message(nil) = %q, want generic", got)
	}
}

func TestValidItemSeq(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"202106092", true},
		{"1", true},
		{"", false},
		{"abc", false},
		{"2021-06", false},
		{" 202106092", false},
		{"２０２", false},
	}

	for _, tt := range tests {
		if got := ValidItemSeq(tt.in); got != tt.want {
			t.Errorf("ValidItemSeq(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
