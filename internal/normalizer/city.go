package normalizer

import "strings"

// CityNationwide is the sentinel for postings without a resolvable location.
const CityNationwide = "Toàn quốc"

// cityAliases maps lowercase alias variants (with and without diacritics,
// plus common abbreviations) onto canonical city names.
var cityAliases = map[string]string{
	"hà nội":       "Hà Nội",
	"ha noi":       "Hà Nội",
	"hanoi":        "Hà Nội",
	"hn":           "Hà Nội",
	"hồ chí minh":  "Hồ Chí Minh",
	"ho chi minh":  "Hồ Chí Minh",
	"hochiminh":    "Hồ Chí Minh",
	"hcm":          "Hồ Chí Minh",
	"hcmc":         "Hồ Chí Minh",
	"tphcm":        "Hồ Chí Minh",
	"tp hcm":       "Hồ Chí Minh",
	"tp.hcm":       "Hồ Chí Minh",
	"tp. hcm":      "Hồ Chí Minh",
	"sài gòn":      "Hồ Chí Minh",
	"sai gon":      "Hồ Chí Minh",
	"saigon":       "Hồ Chí Minh",
	"đà nẵng":      "Đà Nẵng",
	"da nang":      "Đà Nẵng",
	"danang":       "Đà Nẵng",
	"cần thơ":      "Cần Thơ",
	"can tho":      "Cần Thơ",
	"hải phòng":    "Hải Phòng",
	"hai phong":    "Hải Phòng",
	"haiphong":     "Hải Phòng",
	"bình dương":   "Bình Dương",
	"binh duong":   "Bình Dương",
	"đồng nai":     "Đồng Nai",
	"dong nai":     "Đồng Nai",
	"bắc ninh":     "Bắc Ninh",
	"bac ninh":     "Bắc Ninh",
	"nha trang":    "Nha Trang",
	"khánh hòa":    "Nha Trang",
	"khanh hoa":    "Nha Trang",
	"vũng tàu":     "Vũng Tàu",
	"vung tau":     "Vũng Tàu",
	"toàn quốc":    CityNationwide,
	"toan quoc":    CityNationwide,
	"nationwide":   CityNationwide,
	"việt nam":     CityNationwide,
	"viet nam":     CityNationwide,
	"vietnam":      CityNationwide,
	"remote":       CityNationwide,
}

// City canonicalizes a raw location string. Known aliases win; full addresses
// fall back to their last comma-delimited segment; unknown non-empty input is
// returned trimmed; empty input yields the nationwide sentinel.
func City(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return CityNationwide
	}

	if canonical, ok := lookupCity(trimmed); ok {
		return canonical
	}

	// Full address: the city is usually the last comma-delimited segment.
	if idx := strings.LastIndex(trimmed, ","); idx >= 0 {
		segment := strings.TrimSpace(trimmed[idx+1:])
		if canonical, ok := lookupCity(segment); ok {
			return canonical
		}
		if segment != "" {
			return segment
		}
	}

	return trimmed
}

func lookupCity(s string) (string, bool) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.TrimPrefix(key, "tp. ")
	key = strings.TrimPrefix(key, "tp ")
	key = strings.TrimPrefix(key, "thành phố ")
	key = strings.TrimPrefix(key, "thanh pho ")
	key = strings.Join(strings.Fields(key), " ")
	canonical, ok := cityAliases[key]
	return canonical, ok
}
