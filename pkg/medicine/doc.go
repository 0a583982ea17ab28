// Package medicine is a typed client for the MFDS open-data medicine
// services on data.go.kr: the e약은요 consumer drug information list and the
// drug product permission (ingredient) services.
//
// The upstream envelope is {header: {resultCode, resultMsg}, body: {items,
// numOfRows, pageNo, totalCount}}. Several quirks are absorbed here: page
// metadata arrives as numbers or numeric strings, and body.items may be an
// array, an {"item": ...} object, or an empty string.
package medicine
