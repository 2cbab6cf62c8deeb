// Package display drives a multiplexed two-digit seven-segment display.
// Only one digit's common line is enabled at a time; the driver blanks all
// segments before switching commons so a digit never ghosts onto its
// neighbour.
package display

// segmentMap holds the segment levels a,b,c,d,e,f,g,dp for each decimal
// digit, common-cathode wiring (true = segment lit).
var segmentMap = [10][8]bool{
	0: {true, true, true, true, true, true, false, false},
	1: {false, true, true, false, false, false, false, false},
	2: {true, true, false, true, true, false, true, false},
	3: {true, true, true, true, false, false, true, false},
	4: {false, true, true, false, false, true, true, false},
	5: {true, false, true, true, false, true, true, false},
	6: {true, false, true, true, true, true, true, false},
	7: {true, true, true, false, false, false, false, false},
	8: {true, true, true, true, true, true, true, false},
	9: {true, true, true, true, false, true, true, false},
}

// Pattern returns the segment levels for a decimal digit. Anything outside
// 0–9 (including the blank sentinel -1) returns all segments off.
func Pattern(digit int) [8]bool {
	if digit < 0 || digit > 9 {
		return [8]bool{}
	}
	return segmentMap[digit]
}
