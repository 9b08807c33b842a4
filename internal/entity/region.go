package entity

import "strings"

const UnknownBucket = "unknown"

// area codes of landline numbers, longest prefixes first
var areaCodes = []struct {
	prefix string
	region string
}{
	{"031", "Gyeonggi"},
	{"032", "Incheon"},
	{"033", "Gangwon"},
	{"041", "Chungnam"},
	{"042", "Daejeon"},
	{"043", "Chungbuk"},
	{"044", "Sejong"},
	{"051", "Busan"},
	{"052", "Ulsan"},
	{"053", "Daegu"},
	{"054", "Gyeongbuk"},
	{"055", "Gyeongnam"},
	{"061", "Jeonnam"},
	{"062", "Gwangju"},
	{"063", "Jeonbuk"},
	{"064", "Jeju"},
	{"02", "Seoul"},
}

// RegionOf returns the recorded region, falling back to the landline area
// code. Mobile numbers carry no region.
func RegionOf(p *Patient) string {
	if r := strings.TrimSpace(p.Region); r != "" {
		return r
	}
	phone := NormalizePhone(p.Phone)
	for _, ac := range areaCodes {
		if strings.HasPrefix(phone, ac.prefix) {
			return ac.region
		}
	}
	return UnknownBucket
}

func ChannelOf(p *Patient) string {
	if s := strings.TrimSpace(p.ReferralSource); s != "" {
		return s
	}
	return UnknownBucket
}
