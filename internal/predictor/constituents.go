package predictor

import "strings"

// Angular speeds in degrees per hour.
var constituentSpeeds = map[string]float64{
	"Z0":   0,
	"SA":   0.0410686,
	"SSA":  0.0821373,
	"MM":   0.5443747,
	"MF":   1.0980331,
	"2Q1":  12.8542862,
	"Q1":   13.3986609,
	"RHO":  13.4715145,
	"O1":   13.9430356,
	"M1":   14.4966939,
	"P1":   14.9589314,
	"S1":   15.0,
	"K1":   15.0410686,
	"J1":   15.5854433,
	"OO1":  16.1391017,
	"2N2":  27.8953548,
	"MU2":  27.9682084,
	"N2":   28.4397295,
	"NU2":  28.5125831,
	"M2":   28.9841042,
	"LAM2": 29.4556253,
	"L2":   29.5284789,
	"T2":   29.9589333,
	"S2":   30.0,
	"R2":   30.0410667,
	"K2":   30.0821373,
	"2SM2": 31.0158958,
	"2MK3": 42.9271398,
	"M3":   43.4761563,
	"MK3":  44.0251729,
	"MN4":  57.4238337,
	"M4":   57.9682084,
	"MS4":  58.9841042,
	"S4":   60.0,
	"M6":   86.9523127,
	"S6":   90.0,
	"M8":   115.9364166,
}

// ConstituentSpeed looks up the angular speed of a named constituent.
func ConstituentSpeed(name string) (float64, bool) {
	speed, ok := constituentSpeeds[strings.ToUpper(name)]
	return speed, ok
}
