package testutil

import (
	"fmt"

	"github.com/medimatch/medimatch/pkg/medicine"
)

// Catalog is the data served by MockUpstream.
type Catalog struct {
	Medicines   []medicine.MedicineItem
	Ingredients []medicine.IngredientItem
	Permissions []medicine.PermissionItem
}

// Item codes of the default catalog.
const (
	SeqTylenol  = "202106092"
	SeqGeworin  = "197400207"
	SeqPancold  = "198500361"
	SeqNoIngr   = "201900001"
	SeqNotFound = "000000000"
)

// DefaultCatalog returns a small catalog of headache and cold medicines
// plus 23 generated acetaminophen products, enough for three pages of ten.
func DefaultCatalog() Catalog {
	c := Catalog{
		Medicines: []medicine.MedicineItem{
			{
				EntpName:   "한국존슨앤드존슨판매(유)",
				ItemName:   "타이레놀정500밀리그람(아세트아미노펜)",
				ItemSeq:    SeqTylenol,
				EfcyQesitm: "이 약은 감기로 인한 발열 및 동통(통증), 두통, 신경통, 근육통에 사용합니다.",
			},
			{
				EntpName:   "삼진제약(주)",
				ItemName:   "게보린정",
				ItemSeq:    SeqGeworin,
				EfcyQesitm: "이 약은 두통, 치통, 생리통에 사용합니다.",
			},
			{
				EntpName:   "동화약품(주)",
				ItemName:   "판콜에이내복액",
				ItemSeq:    SeqPancold,
				EfcyQesitm: "이 약은 감기의 여러 증상의 완화에 사용합니다.",
			},
			{
				EntpName:   "테스트제약(주)",
				ItemName:   "성분정보없음정",
				ItemSeq:    SeqNoIngr,
				EfcyQesitm: "이 약은 소화불량에 사용합니다.",
			},
		},
		Ingredients: []medicine.IngredientItem{
			{
				ItemSeq:      SeqTylenol,
				ItemName:     "타이레놀정500밀리그람(아세트아미노펜)",
				MaterialName: "총량 : 1정 중|성분명 : 아세트아미노펜|분량 : 500|단위 : 밀리그램|규격 : KP|성분정보 : |비고 :",
				MainIngrEng:  "Acetaminophen",
			},
			{
				ItemSeq:      SeqGeworin,
				ItemName:     "게보린정",
				MaterialName: "총량 : 1정 중-해열진통제|성분명 : 아세트아미노펜|분량 : 300|단위 : 밀리그램;총량 : 1정 중-중추신경흥분제|성분명 : 카페인무수물|분량 : 50|단위 : 밀리그램;총량 : 1정 중-해열진통제|성분명 : 이소프로필안티피린|분량 : 150|단위 : 밀리그램",
				MainIngrEng:  "Acetaminophen/Caffeine Anhydrous/Isopropylantipyrine",
			},
			{
				ItemSeq:      SeqPancold,
				ItemName:     "판콜에이내복액",
				MaterialName: "총량 : 30밀리리터 중|성분명 : 아세트아미노펜|분량 : 300|단위 : 밀리그램;총량 : 30밀리리터 중|성분명 : 클로르페니라민말레산염|분량 : 2.5|단위 : 밀리그램",
				MainIngrEng:  "Acetaminophen/Chlorpheniramine Maleate",
			},
		},
	}

	for i := 1; i <= 23; i++ {
		seq := fmt.Sprintf("2020%05d", i)
		name := fmt.Sprintf("해열진통정%d호", i)
		c.Medicines = append(c.Medicines, medicine.MedicineItem{
			EntpName:   "제네릭제약(주)",
			ItemName:   name,
			ItemSeq:    seq,
			EfcyQesitm: "이 약은 발열 및 두통에 사용합니다.",
		})
		c.Permissions = append(c.Permissions, medicine.PermissionItem{
			ItemSeq:      seq,
			ItemName:     name,
			EntpName:     "제네릭제약(주)",
			ItemIngrName: "Acetaminophen",
			ItemIngrCnt:  "1",
		})
	}
	c.Permissions = append(c.Permissions, medicine.PermissionItem{
		ItemSeq:      SeqTylenol,
		ItemName:     "타이레놀정500밀리그람(아세트아미노펜)",
		EntpName:     "한국존슨앤드존슨판매(유)",
		ItemIngrName: "Acetaminophen",
		ItemIngrCnt:  "1",
	})

	return c
}
