package cache

import (
	"net/url"
	"testing"
)

func TestCacheKey_String(t *testing.T) {
	tests := []struct {
		name string
		key  CacheKey
		want string
	}{
		{
			name: "endpoint no params",
			key: CacheKey{
				Endpoint: "/DrbEasyDrugInfoService/getDrbEasyDrugList/",
			},
			want: "medimatch:cache:DrbEasyDrugInfoService/getDrbEasyDrugList",
		},
		{
			name: "params sorted",
			key: CacheKey{
				Endpoint: "DrbEasyDrugInfoService/getDrbEasyDrugList",
				Params: url.Values{
					"pageNo":   []string{"1"},
					"itemName": []string{"타이레놀"},
					"type":     []string{"json"},
				},
			},
			want: "medimatch:cache:DrbEasyDrugInfoService/getDrbEasyDrugList:itemName=타이레놀:pageNo=1:type=json",
		},
		{
			name: "service key excluded",
			key: CacheKey{
				Endpoint: "DrugPrdtPrmsnInfoService06/getDrugPrdtPrmsnDtlInq05",
				Params: url.Values{
					"serviceKey": []string{"secret"},
					"item_seq":   []string{"202301011234"},
				},
			},
			want: "medimatch:cache:DrugPrdtPrmsnInfoService06/getDrugPrdtPrmsnDtlInq05:item_seq=202301011234",
		},
		{
			name: "multi-valued param",
			key: CacheKey{
				Endpoint: "x",
				Params:   url.Values{"a": []string{"2", "1"}},
			},
			want: "medimatch:cache:x:a=1,2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.key.String(); got != tt.want {
				t.Errorf("CacheKey.String() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCacheKey_Deterministic(t *testing.T) {
	key := CacheKey{
		Endpoint: "DrbEasyDrugInfoService/getDrbEasyDrugList",
		Params: url.Values{
			"efcyQesitm": []string{"두통"},
			"pageNo":     []string{"3"},
			"numOfRows":  []string{"10"},
		},
	}

	first := key.String()
	for i := 0; i < 100; i++ {
		if got := key.String(); got != first {
			t.Fatalf("iteration %d: %v != %v", i, got, first)
		}
	}
}

func TestCacheKey_ServiceKeyDoesNotChangeKey(t *testing.T) {
	a := CacheKey{Endpoint: "e", Params: url.Values{"pageNo": {"1"}, "serviceKey": {"one"}}}
	b := CacheKey{Endpoint: "e", Params: url.Values{"pageNo": {"1"}, "serviceKey": {"two"}}}
	if a.String() != b.String() {
		t.Errorf("keys differ by service key: %v vs %v", a, b)
	}
}
