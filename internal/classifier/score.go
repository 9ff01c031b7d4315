package classifier

import (
	"math"
	"unicode/utf16"
)

// Score range produced by Score.
const (
	MinScore = 82.0
	MaxScore = 99.5

	scoreSpan    = 1750
	sizeModulus  = 1000
	mixMultiply  = 9301
	mixIncrement = 49297
)

// ScoreFunc maps file metadata to a confidence percentage.
type ScoreFunc func(fileName string, fileSize int64) float64

// CharSum returns the sum of the UTF-16 code units of name. Characters
// outside the Basic Multilingual Plane contribute both surrogate halves.
func CharSum(name string) int64 {
	var sum int64
	for _, unit := range utf16.Encode([]rune(name)) {
		sum += int64(unit)
	}
	return sum
}

// Score deterministically derives a confidence in [MinScore, MaxScore],
// rounded to one decimal place, from the file name and byte size.
func Score(fileName string, fileSize int64) float64 {
	hash := CharSum(fileName) + fileSize%sizeModulus
	raw := MinScore + float64(hash%scoreSpan)/100
	return math.Floor(raw*10+0.5) / 10
}

// ClassIndex selects a class index in [0, n) from the file metadata.
// The xor is performed on 32-bit integers so results match across platforms.
func ClassIndex(fileName string, fileSize int64, n int) int {
	if n <= 0 {
		return 0
	}
	mixed := int64(int32(CharSum(fileName))^int32(fileSize))*mixMultiply + mixIncrement
	idx := mixed % int64(n)
	if idx < 0 {
		idx = -idx
	}
	return int(idx)
}
