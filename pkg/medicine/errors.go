package medicine

import "errors"

// Operation errors. Failures of the upstream call are wrapped in the
// sentinel of the operation, so errors.Is works for both the sentinel and
// the underlying cause.
var (
	ErrSearchParamsRequired   = errors.New("search query and search type are required")
	ErrInvalidPageNo          = errors.New("page number must be a positive integer")
	ErrInvalidCode            = errors.New("invalid item code")
	ErrMedicineNotFound       = errors.New("medicine not found")
	ErrSearchFailed           = errors.New("medicine search failed")
	ErrDetailFailed           = errors.New("medicine detail lookup failed")
	ErrEfficacyFailed         = errors.New("same-efficacy lookup failed")
	ErrIngredientLookupFailed = errors.New("ingredient lookup failed")
	ErrIngredientListFailed   = errors.New("same-ingredient lookup failed")
)

// User-facing messages, as shown by the web front end.
const (
	MsgGeneric              = "오류가 발생했습니다 잠시 후 다시 시도해주세요."
	MsgSearchFailed         = "의약품 조회 중 오류가 발생했습니다. 잠시 후 다시 시도해주세요."
	MsgInvalidCode          = "유효하지 않은 코드입니다. 다시 확인해주세요."
	MsgMedicineNotFound     = "의약품 정보를 찾을 수 없습니다."
	MsgDetailFailed         = "의약품 상세 정보 조회 중 오류가 발생했습니다. 잠시 후 다시 시도해주세요."
	MsgEfficacyFailed       = "동일 효능 의약품 정보 조회 중 오류가 발생했습니다. 잠시 후 다시 시도해주세요."
	MsgIngredientLookup     = "의약품 주성분 조회 중 오류가 발생했습니다. 잠시 후 다시 시도해주세요."
	MsgIngredientListFailed = "동일 성분 의약품 정보 조회 중 오류가 발생했습니다. 잠시 후 다시 시도해주세요."
	MsgSearchParamsRequired = "검색어 또는 검색 타입이 필요합니다."
)

var messages = []struct {
	err error
	msg string
}{
	{ErrSearchParamsRequired, MsgSearchParamsRequired},
	{ErrInvalidCode, MsgInvalidCode},
	{ErrMedicineNotFound, MsgMedicineNotFound},
	{ErrSearchFailed, MsgSearchFailed},
	{ErrDetailFailed, MsgDetailFailed},
	{ErrEfficacyFailed, MsgEfficacyFailed},
	{ErrIngredientLookupFailed, MsgIngredientLookup},
	{ErrIngredientListFailed, MsgIngredientListFailed},
}

// Message returns the user-facing message for err, or MsgGeneric.
func Message(err error) string {
	for _, m := range messages {
		if errors.Is(err, m.err) {
			return m.msg
		}
	}
	return MsgGeneric
}
