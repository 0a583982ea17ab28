package cache

import (
	"net/url"
	"sort"
	"strings"
)

// KeyPrefix prefixes every cache key.
const KeyPrefix = "medimatch:cache"

// ExcludedParams are query parameters that never become part of a key.
var ExcludedParams = map[string]bool{
	"serviceKey": true,
	"ServiceKey": true,
}

// CacheKey represents a unique identifier for a cached upstream response.
type CacheKey struct {
	// Endpoint is the path relative to the service base URL
	// (e.g., "DrbEasyDrugInfoService/getDrbEasyDrugList")
	Endpoint string

	// Params are the query parameters (e.g., {"itemName": "타이레놀"})
	Params url.Values
}

// String generates a deterministic cache key string.
// Format: medimatch:cache:endpoint:param1=val1:param2=val2
//
// Example:
//
//	medimatch:cache:DrbEasyDrugInfoService/getDrbEasyDrugList:itemName=타이레놀:pageNo=1
func (k CacheKey) String() string {
	parts := []string{KeyPrefix}

	endpoint := strings.Trim(k.Endpoint, "/")
	if endpoint != "" {
		parts = append(parts, endpoint)
	}

	if len(k.Params) > 0 {
		names := make([]string, 0, len(k.Params))
		for name := range k.Params {
			if ExcludedParams[name] {
				continue
			}
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			values := append([]string(nil), k.Params[name]...)
			sort.Strings(values)
			parts = append(parts, name+"="+strings.Join(values, ","))
		}
	}

	return strings.Join(parts, ":")
}
