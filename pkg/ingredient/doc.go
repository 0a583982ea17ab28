// Package ingredient decodes the delimited ingredient strings published by
// the MFDS drug permission service into structured rows.
//
// A raw string is a sequence of entries separated by ';'. Each entry is a
// sequence of "label : value" fields separated by '|':
//
//	총량 : 1정204밀리그램 중-특수형|성분명 : 카페인무수물|분량 : 50|단위 : 밀리그램
//
// Parsing is lenient. Malformed fields are skipped and entries missing a
// name, quantity or unit are dropped, so bad upstream data shows up as fewer
// rows rather than as an error. The labels are fixed by the data provider;
// if the provider renames them, Parse silently returns fewer rows.
package ingredient
