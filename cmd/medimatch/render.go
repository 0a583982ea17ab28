package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"unicode/utf8"

	"github.com/medimatch/medimatch/pkg/medicine"
	"github.com/medimatch/medimatch/pkg/pagination"
)

const summaryWidth = 40

func printMedicines(w io.Writer, items []medicine.MedicineItem) {
	if len(items) == 0 {
		fmt.Fprintln(w, "No medicines found.")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CODE\tNAME\tCOMPANY\tEFFICACY")
	for _, m := range items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", m.ItemSeq, m.ItemName, m.EntpName, summarize(m.EfcyQesitm, summaryWidth))
	}
	tw.Flush()
}

func printPermissions(w io.Writer, items []medicine.PermissionItem) {
	if len(items) == 0 {
		fmt.Fprintln(w, "No medicines found.")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CODE\tNAME\tCOMPANY\tINGREDIENT")
	for _, p := range items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p.ItemSeq, p.ItemName, p.EntpName, p.ItemIngrName)
	}
	tw.Flush()
}

// printFooter reports paging progress of a query session.
func printFooter[T any](w io.Writer, state pagination.State[T]) {
	if len(state.Pages) == 0 {
		return
	}
	last := state.Pages[len(state.Pages)-1]
	fmt.Fprintf(w, "\npage %d of %d, %d results\n", last.PageNo, max(last.TotalPages(), 1), last.TotalCount)
	if state.HasNextPage {
		fmt.Fprintf(w, "more results: --pages %d or --all\n", len(state.Pages)+1)
	}
}

func printProfile(w io.Writer, p *medicine.Profile) {
	m := p.Medicine
	fmt.Fprintf(w, "%s (%s)\n%s\n", m.ItemName, m.ItemSeq, m.EntpName)

	sections := []struct{ title, body string }{
		{"효능", m.EfcyQesitm},
		{"사용법", m.UseMethodQesitm},
		{"주의사항 경고", m.AtpnWarnQesitm},
		{"주의사항", m.AtpnQesitm},
		{"상호작용", m.IntrcQesitm},
		{"부작용", m.SeQesitm},
		{"보관법", m.DepositMethodQesitm},
	}
	for _, s := range sections {
		if strings.TrimSpace(s.body) == "" {
			continue
		}
		fmt.Fprintf(w, "\n[%s]\n%s\n", s.title, strings.TrimSpace(s.body))
	}

	fmt.Fprintln(w, "\n[성분]")
	switch {
	case p.IngredientFailed:
		fmt.Fprintln(w, medicine.MsgIngredientLookup)
	case len(p.Ingredients) == 0:
		fmt.Fprintln(w, "성분 정보가 없습니다.")
	default:
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "CLASS\tINGREDIENT\tAMOUNT")
		for _, row := range p.Ingredients {
			class, name, amount := row.Describe()
			fmt.Fprintf(tw, "%s\t%s\t%s\n", class, name, amount)
		}
		tw.Flush()
	}

	if len(p.MainIngredients) > 0 {
		fmt.Fprintf(w, "\nmain ingredients: %s\n", strings.Join(p.MainIngredients, ", "))
	}
}

// summarize cuts s to n runes on one line.
func summarize(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "…"
}
