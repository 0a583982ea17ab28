package medicine

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/medimatch/medimatch/pkg/pagination"
)

// Defaults applied when page metadata is absent.
const (
	DefaultPageNo    = 1
	DefaultNumOfRows = 10
)

// ResultCodeNormal is the header result code of a successful call.
const ResultCodeNormal = "00"

// SearchType selects which field a search query is matched against.
type SearchType string

const (
	// SearchTypeMedicine matches the product name (itemName).
	SearchTypeMedicine SearchType = "medicine"

	// SearchTypeSymptom matches the efficacy text (efcyQesitm).
	SearchTypeSymptom SearchType = "symptom"
)

// Valid reports whether t is a known search type.
func (t SearchType) Valid() bool {
	return t == SearchTypeMedicine || t == SearchTypeSymptom
}

// MedicineItem is one product of the e약은요 service.
type MedicineItem struct {
	EntpName            string `json:"entpName"`
	ItemName            string `json:"itemName"`
	ItemSeq             string `json:"itemSeq"`
	EfcyQesitm          string `json:"efcyQesitm"`
	UseMethodQesitm     string `json:"useMethodQesitm"`
	AtpnWarnQesitm      string `json:"atpnWarnQesitm"`
	AtpnQesitm          string `json:"atpnQesitm"`
	IntrcQesitm         string `json:"intrcQesitm"`
	SeQesitm            string `json:"seQesitm"`
	DepositMethodQesitm string `json:"depositMethodQesitm"`
	ItemImage           string `json:"itemImage,omitempty"`
}

// IngredientItem is the permission detail of a product. MaterialName holds
// the raw ingredient string decoded by package ingredient.
type IngredientItem struct {
	ItemSeq      string `json:"ITEM_SEQ"`
	ItemName     string `json:"ITEM_NAME"`
	EntpName     string `json:"ENTP_NAME"`
	Chart        string `json:"CHART"`
	MaterialName string `json:"MATERIAL_NAME"`
	InsertFile   string `json:"INSERT_FILE"`
	MainItemIngr string `json:"MAIN_ITEM_INGR"`
	IngrName     string `json:"INGR_NAME"`
	ItemEngName  string `json:"ITEM_ENG_NAME"`
	MainIngrEng  string `json:"MAIN_INGR_ENG"`
}

// PermissionItem is one product of the permission list, used for
// same-ingredient recommendations.
type PermissionItem struct {
	Bizrno         string `json:"BIZRNO"`
	ItemSeq        string `json:"ITEM_SEQ"`
	ItemName       string `json:"ITEM_NAME"`
	PrductType     string `json:"PRDUCT_TYPE"`
	PrductPrmisnNo string `json:"PRDUCT_PRMISN_NO"`
	ItemIngrName   string `json:"ITEM_INGR_NAME"`
	ItemIngrCnt    string `json:"ITEM_INGR_CNT"`
	BigPrdtImgURL  string `json:"BIG_PRDT_IMG_URL"`
	ItemEngName    string `json:"ITEM_ENG_NAME"`
	EntpName       string `json:"ENTP_NAME"`
	PrdlstStdrCode string `json:"PRDLST_STDR_CODE"`
}

// Header is the result header of an upstream response.
type Header struct {
	ResultCode string `json:"resultCode"`
	ResultMsg  string `json:"resultMsg"`
}

// Body is the paginated body of an upstream response.
type Body[T any] struct {
	Items      Items[T] `json:"items"`
	NumOfRows  *FlexInt `json:"numOfRows,omitempty"`
	PageNo     *FlexInt `json:"pageNo,omitempty"`
	TotalCount *FlexInt `json:"totalCount,omitempty"`
}

// Response is the upstream response envelope.
type Response[T any] struct {
	Header Header  `json:"header"`
	Body   Body[T] `json:"body"`
}

// Response types of the individual services.
type (
	MedicineResponse   = Response[MedicineItem]
	IngredientResponse = Response[IngredientItem]
	PermissionResponse = Response[PermissionItem]
)

// Page converts the envelope into a pagination page, applying the defaults
// page 1, 10 rows and 0 total for absent metadata.
func (r *Response[T]) Page() pagination.Page[T] {
	if r == nil {
		return pagination.Page[T]{PageNo: DefaultPageNo, NumOfRows: DefaultNumOfRows}
	}
	return pagination.Page[T]{
		Items:      []T(r.Body.Items),
		PageNo:     r.Body.PageNo.ValueOr(DefaultPageNo),
		NumOfRows:  r.Body.NumOfRows.ValueOr(DefaultNumOfRows),
		TotalCount: r.Body.TotalCount.ValueOr(0),
	}
}

// FlexInt is an integer that decodes from a JSON number or a numeric string.
// Values that cannot be read as an integer decode as 0.
type FlexInt int

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexInt) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		return nil
	}
	s = strings.TrimSpace(strings.Trim(s, `"`))
	if s == "" {
		*f = 0
		return nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		*f = FlexInt(n)
		return nil
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		*f = FlexInt(int(v))
		return nil
	}
	*f = 0
	return nil
}

// ValueOr returns the value, or def when f is nil (absent in the response).
func (f *FlexInt) ValueOr(def int) int {
	if f == nil {
		return def
	}
	return int(*f)
}

// Int returns a FlexInt pointer, convenient for building responses.
func Int(n int) *FlexInt {
	v := FlexInt(n)
	return &v
}

// Items is the list of body items. It decodes from an array, an object
// wrapping the list (or a single item) under "item", or an empty string.
type Items[T any] []T

// UnmarshalJSON implements json.Unmarshaler.
func (it *Items[T]) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) || bytes.Equal(data, []byte(`""`)) {
		*it = nil
		return nil
	}

	switch data[0] {
	case '[':
		var list []T
		if err := json.Unmarshal(data, &list); err != nil {
			return fmt.Errorf("decode items: %w", err)
		}
		*it = list
		return nil
	case '{':
		var wrapper struct {
			Item json.RawMessage `json:"item"`
		}
		if err := json.Unmarshal(data, &wrapper); err != nil {
			return fmt.Errorf("decode items: %w", err)
		}
		item := bytes.TrimSpace(wrapper.Item)
		if len(item) == 0 || bytes.Equal(item, []byte("null")) {
			*it = nil
			return nil
		}
		if item[0] == '[' {
			var list []T
			if err := json.Unmarshal(item, &list); err != nil {
				return fmt.Errorf("decode items: %w", err)
			}
			*it = list
			return nil
		}
		var single T
		if err := json.Unmarshal(item, &single); err != nil {
			return fmt.Errorf("decode items: %w", err)
		}
		*it = []T{single}
		return nil
	default:
		return fmt.Errorf("decode items: unexpected JSON %q", truncate(string(data), 32))
	}
}

// MarshalJSON always emits an array.
func (it Items[T]) MarshalJSON() ([]byte, error) {
	if it == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]T(it))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// ValidItemSeq reports whether s looks like an item code: a non-empty run
// of ASCII digits.
func ValidItemSeq(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
