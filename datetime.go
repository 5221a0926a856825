package tdslite

import (
	"encoding/binary"
	"time"

	"github.com/golang-sql/civil"
)

// daysBetween1900And1970Epoch is the number of days TDS's DATETIME
// epoch (1900-01-01) sits before the Unix epoch (§4.E).
const daysBetween1900And1970Epoch = 25567

// DateTime is the TDS DATETIME type: days since 1900-01-01 plus
// centiseconds since midnight that day.
// Grounded on original_source/src/tdslite/detail/sqltypes/sql_datetime.hpp.
type DateTime struct {
	DaysElapsed         int32
	CentisecondsElapsed uint32
}

// decodeDateTime interprets an 8-byte DATETIME field: a 4-byte signed
// day count followed by a 4-byte unsigned centisecond count (§4.E).
func decodeDateTime(raw []byte) DateTime {
	if len(raw) != 8 {
		badStreamf("datetime: expected 8 bytes, got %d", len(raw))
	}
	return DateTime{
		DaysElapsed:         int32(binary.LittleEndian.Uint32(raw[0:4])),
		CentisecondsElapsed: binary.LittleEndian.Uint32(raw[4:8]),
	}
}

// ToUnixTimestamp converts to seconds since the Unix epoch, matching
// the reference conversion in §4.E (subtract 25567 days, divide
// centiseconds by 100). Dates before the Unix epoch clamp to 0, as the
// original source does.
func (d DateTime) ToUnixTimestamp() int64 {
	days := int64(d.DaysElapsed) - daysBetween1900And1970Epoch
	if days < 0 {
		return 0
	}
	return days*86400 + int64(d.CentisecondsElapsed)/100
}

// CivilDateTime returns the value as a civil.DateTime (no timezone, as
// TDS DATETIME itself carries none).
func (d DateTime) CivilDateTime() civil.DateTime {
	return civilFromUnix(d.ToUnixTimestamp())
}

// SmallDateTime is the TDS SMALLDATETIME type: days since 1900-01-01
// and minutes since midnight that day (§4.E).
type SmallDateTime struct {
	Days    uint16
	Minutes uint16
}

// decodeSmallDateTime interprets a 4-byte SMALLDATETIME field: a 2-byte
// day count followed by a 2-byte minute-of-day count.
func decodeSmallDateTime(raw []byte) SmallDateTime {
	if len(raw) != 4 {
		badStreamf("smalldatetime: expected 4 bytes, got %d", len(raw))
	}
	return SmallDateTime{
		Days:    binary.LittleEndian.Uint16(raw[0:2]),
		Minutes: binary.LittleEndian.Uint16(raw[2:4]),
	}
}

// ToUnixTimestamp converts to seconds since the Unix epoch using the
// same epoch and clamp rule as DateTime.
func (d SmallDateTime) ToUnixTimestamp() int64 {
	days := int64(d.Days) - daysBetween1900And1970Epoch
	if days < 0 {
		return 0
	}
	return days*86400 + int64(d.Minutes)*60
}

func (d SmallDateTime) CivilDateTime() civil.DateTime {
	return civilFromUnix(d.ToUnixTimestamp())
}

// civilFromUnix converts a Unix timestamp (UTC, no location) into a
// civil.DateTime without pulling a *time.Location through the value,
// matching TDS DATETIME's own lack of timezone.
func civilFromUnix(unixSec int64) civil.DateTime {
	const secondsPerDay = 86400
	days := unixSec / secondsPerDay
	secOfDay := unixSec % secondsPerDay
	if secOfDay < 0 {
		secOfDay += secondsPerDay
		days--
	}
	// days since 1970-01-01 -> proleptic Gregorian civil date via
	// Howard Hinnant's days_from_civil inverse (civil_from_days).
	z := days + 719468
	era := z
	if era < 0 {
		era -= 146096
	}
	era /= 146097
	doe := z - era*146097
	yoe := (doe - doe/1460 + doe/36524 - doe/146096) / 365
	y := yoe + era*400
	doy := doe - (365*yoe + yoe/4 - yoe/100)
	mp := (5*doy + 2) / 153
	d := doy - (153*mp+2)/5 + 1
	m := mp + 3
	if mp >= 10 {
		m = mp - 9
	}
	if m <= 2 {
		y++
	}

	hour := secOfDay / 3600
	min := (secOfDay % 3600) / 60
	sec := secOfDay % 60

	return civil.DateTime{
		Date: civil.Date{Year: int(y), Month: time.Month(m), Day: int(d)},
		Time: civil.Time{Hour: int(hour), Minute: int(min), Second: int(sec)},
	}
}
